package compose

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"log/slog"
	"strconv"
	"strings"

	xdraw "golang.org/x/image/draw"
)

// Options controls how frames are composed. Colors are #rgb or #rrggbb hex
// strings; an empty color falls back to the default for that element.
type Options struct {
	Template        string
	BackgroundColor string
	FrameColor      string
	AccentColor     string
	Caption         string

	Logo         []byte
	LogoScale    int // percent of the base logo width
	LogoPosition string
}

// Compose renders frames per opts and returns the PNG encoded composite.
func Compose(ctx context.Context, frames [][]byte, opts Options) ([]byte, error) {
	img, err := Render(ctx, frames, opts)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode composite: %w", err)
	}
	return buf.Bytes(), nil
}

// Render draws frames onto a canvas laid out by opts.Template. Frames that
// fail to decode leave their slot as background; if none decode
// ErrNoFrames is returned.
func Render(ctx context.Context, frames [][]byte, opts Options) (*image.RGBA, error) {
	if len(frames) == 0 {
		return nil, ErrNoFrames
	}

	plan, err := Layout(opts.Template, len(frames))
	if err != nil {
		return nil, err
	}

	// only frames with a slot are decoded
	if len(frames) > len(plan.Slots) {
		frames = frames[:len(plan.Slots)]
	}

	decoded, err := decodeFrames(ctx, frames)
	if err != nil {
		return nil, err
	}

	drawn := 0
	dst := image.NewRGBA(plan.Bounds())
	draw.Draw(dst, dst.Bounds(), &image.Uniform{parseHexColor(opts.BackgroundColor, color.White)}, image.Point{}, draw.Src)
	for i, img := range decoded {
		if img == nil {
			continue
		}
		DrawCover(dst, plan.Slots[i], img)
		drawn++
	}
	if drawn == 0 {
		return nil, ErrNoFrames
	}

	decorate(dst, plan, opts)

	if len(opts.Logo) > 0 {
		logo, err := DecodeFrame(opts.Logo)
		if err != nil {
			slog.Warn("skipping logo that failed to decode", "error", err)
		} else {
			OverlayLogo(dst, logo, opts.LogoScale, opts.LogoPosition)
		}
	}

	return dst, nil
}

// DrawCover scales the cover crop of src into slot.
func DrawCover(dst draw.Image, slot image.Rectangle, src image.Image) {
	crop := CoverCrop(src.Bounds(), slot.Dx(), slot.Dy())
	xdraw.CatmullRom.Scale(dst, slot, src, crop, xdraw.Over, nil)
}

func parseHexColor(s string, fallback color.Color) color.Color {
	hex := strings.TrimPrefix(s, "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return fallback
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return fallback
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}
}
