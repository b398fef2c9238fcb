// Package compose lays captured frames out on a print-sized canvas and
// decorates the result with borders, a caption and a logo.
package compose

import (
	"errors"
	"fmt"
	"image"

	"github.com/aouyang1/photobooth/util"
)

// Print sizes in pixels. Strip and single are a 4x6 portrait print.
const (
	PrintWidth   = 1200
	PrintHeight  = 1800
	GridWidth    = 1600
	GridHeight   = 1200
	gridColumns  = 2
	singleMargin = 40
)

var ErrUnknownTemplate = errors.New("unknown template")

// Plan is the canvas size and one slot per frame that will be drawn.
type Plan struct {
	Width  int
	Height int
	Slots  []image.Rectangle
}

// Bounds is the canvas rectangle.
func (p *Plan) Bounds() image.Rectangle {
	return image.Rect(0, 0, p.Width, p.Height)
}

// Layout computes the slots for n frames in the given template. The single
// template always has exactly one slot.
func Layout(template string, n int) (*Plan, error) {
	if n < 1 {
		return nil, fmt.Errorf("layout needs at least one frame, got %d", n)
	}

	switch template {
	case util.TemplateStrip:
		plan := &Plan{Width: PrintWidth, Height: PrintHeight}
		slotH := PrintHeight / n
		for i := 0; i < n; i++ {
			plan.Slots = append(plan.Slots, image.Rect(0, i*slotH, PrintWidth, (i+1)*slotH))
		}
		return plan, nil

	case util.TemplateGrid:
		plan := &Plan{Width: GridWidth, Height: GridHeight}
		rows := (n + gridColumns - 1) / gridColumns
		cellW := GridWidth / gridColumns
		cellH := GridHeight / rows
		for i := 0; i < n; i++ {
			x := (i % gridColumns) * cellW
			y := (i / gridColumns) * cellH
			plan.Slots = append(plan.Slots, image.Rect(x, y, x+cellW, y+cellH))
		}
		return plan, nil

	case util.TemplateSingle:
		return &Plan{
			Width:  PrintWidth,
			Height: PrintHeight,
			Slots: []image.Rectangle{
				image.Rect(singleMargin, singleMargin, PrintWidth-singleMargin, PrintHeight-singleMargin),
			},
		}, nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownTemplate, template)
}

// CoverCrop returns the centered region of src that, scaled to dw x dh,
// covers the destination without distortion.
func CoverCrop(src image.Rectangle, dw, dh int) image.Rectangle {
	sw, sh := src.Dx(), src.Dy()
	if sw <= 0 || sh <= 0 || dw <= 0 || dh <= 0 {
		return src
	}

	// compare dw/sw against dh/sh without floats
	cw, ch := sw, sh
	if dw*sh > dh*sw {
		ch = ceilDiv(dh*sw, dw)
	} else {
		cw = ceilDiv(dw*sh, dh)
	}
	cw = min(cw, sw)
	ch = min(ch, sh)

	x := src.Min.X + (sw-cw)/2
	y := src.Min.Y + (sh-ch)/2
	return image.Rect(x, y, x+cw, y+ch)
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
