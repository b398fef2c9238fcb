package compose

import (
	"image"
	"image/color"
	"image/draw"
	"log/slog"
	"math"
	"sync"

	"github.com/aouyang1/photobooth/util"
	"github.com/fogleman/gg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	xdraw "golang.org/x/image/draw"
)

const (
	borderWidth   = 8
	captionSize   = 0.035 // of canvas height
	captionOffset = 0.05  // of canvas height, from the bottom edge
	logoBaseRatio = 0.25  // of canvas width at 100% scale
	logoMargin    = 30
	logoAlpha     = 242 // 0.95 opacity
)

var (
	captionFontOnce sync.Once
	captionFont     *opentype.Font
	captionFontErr  error
)

func captionFace(size float64) (font.Face, error) {
	captionFontOnce.Do(func() {
		captionFont, captionFontErr = opentype.Parse(goregular.TTF)
	})
	if captionFontErr != nil {
		return nil, captionFontErr
	}
	return opentype.NewFace(captionFont, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}

// decorate strokes a border around every slot and draws the caption.
func decorate(dst *image.RGBA, plan *Plan, opts Options) {
	dc := gg.NewContextForRGBA(dst)

	dc.SetColor(parseHexColor(opts.FrameColor, color.White))
	dc.SetLineWidth(borderWidth)
	for _, slot := range plan.Slots {
		half := float64(borderWidth) / 2
		dc.DrawRectangle(
			float64(slot.Min.X)+half,
			float64(slot.Min.Y)+half,
			float64(slot.Dx())-borderWidth,
			float64(slot.Dy())-borderWidth,
		)
		dc.Stroke()
	}

	if opts.Caption == "" {
		return
	}

	h := float64(plan.Height)
	face, err := captionFace(h * captionSize)
	if err != nil {
		slog.Warn("unable to load caption font, skipping caption", "error", err)
		return
	}
	defer face.Close()

	dc.SetFontFace(face)
	dc.SetColor(parseHexColor(opts.AccentColor, color.Black))
	dc.DrawStringAnchored(opts.Caption, float64(plan.Width)/2, h-h*captionOffset, 0.5, 0.5)
}

// LogoRect returns where a logo with bounds logo is drawn on canvas for the
// given scale percent and position.
func LogoRect(canvas, logo image.Rectangle, scale int, position string) image.Rectangle {
	baseW, baseH := canvas.Dx(), canvas.Dy()
	logoW := int(math.Floor(float64(baseW) * logoBaseRatio * float64(scale) / 100))
	if logoW < 1 || logo.Dx() <= 0 {
		return image.Rectangle{}
	}
	logoH := int(math.Floor(float64(logo.Dy()) / float64(logo.Dx()) * float64(logoW)))
	if logoH < 1 {
		return image.Rectangle{}
	}

	dx := baseW - logoW - logoMargin
	dy := baseH - logoH - logoMargin
	switch position {
	case util.PositionBottomLeft:
		dx = logoMargin
	case util.PositionTopRight:
		dy = logoMargin
	case util.PositionTopLeft:
		dx, dy = logoMargin, logoMargin
	case util.PositionCenter:
		dx, dy = (baseW-logoW)/2, (baseH-logoH)/2
	}

	return image.Rect(dx, dy, dx+logoW, dy+logoH).Add(canvas.Min)
}

// OverlayLogo draws logo at 95% opacity.
func OverlayLogo(dst draw.Image, logo image.Image, scale int, position string) {
	r := LogoRect(dst.Bounds(), logo.Bounds(), scale, position)
	if r.Empty() {
		return
	}

	scaled := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	xdraw.CatmullRom.Scale(scaled, scaled.Bounds(), logo, logo.Bounds(), xdraw.Src, nil)
	draw.DrawMask(dst, r, scaled, image.Point{}, image.NewUniform(color.Alpha{A: logoAlpha}), image.Point{}, draw.Over)
}
