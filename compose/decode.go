package compose

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"strings"

	_ "image/jpeg" // JPEG decoder registration

	"golang.org/x/sync/errgroup"
)

// Frames larger than this are refused before any pixel is decoded.
const (
	MaxFrameSide   = 8192
	MaxFramePixels = 40_000_000
)

var (
	ErrNoFrames      = errors.New("no decodable frames")
	ErrFrameTooLarge = errors.New("frame too large")
)

// DecodeFrame decodes a PNG or JPEG frame. A browser data URL
// ("data:image/png;base64,...") is accepted as well as raw bytes.
func DecodeFrame(data []byte) (image.Image, error) {
	raw, err := RawFrame(data)
	if err != nil {
		return nil, err
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode frame config: %w", err)
	}
	if err := checkFrameSize(cfg.Width, cfg.Height); err != nil {
		return nil, err
	}

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}
	return img, nil
}

func checkFrameSize(w, h int) error {
	if w <= 0 || h <= 0 {
		return fmt.Errorf("%w: empty %dx%d image", ErrFrameTooLarge, w, h)
	}
	if w > MaxFrameSide || h > MaxFrameSide || w*h > MaxFramePixels {
		return fmt.Errorf("%w: %dx%d exceeds %d px per side or %d px total", ErrFrameTooLarge, w, h, MaxFrameSide, MaxFramePixels)
	}
	return nil
}

// RawFrame strips a data URL wrapper and returns the encoded image bytes.
// Raw bytes are returned unchanged.
func RawFrame(data []byte) ([]byte, error) {
	if !bytes.HasPrefix(data, []byte("data:")) {
		return data, nil
	}
	header, payload, ok := strings.Cut(string(data), ",")
	if !ok {
		return nil, errors.New("malformed data url: missing payload")
	}
	if !strings.HasSuffix(header, ";base64") {
		return nil, fmt.Errorf("unsupported data url encoding %q", header)
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(payload))
	if err != nil {
		return nil, fmt.Errorf("decode data url: %w", err)
	}
	return raw, nil
}

// decodeFrames decodes all frames in parallel. Frames that fail to decode
// are logged and left nil so their slot stays empty.
func decodeFrames(ctx context.Context, frames [][]byte) ([]image.Image, error) {
	decoded := make([]image.Image, len(frames))

	g, ctx := errgroup.WithContext(ctx)
	for i, frame := range frames {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			img, err := DecodeFrame(frame)
			if err != nil {
				slog.Warn("skipping frame that failed to decode", "index", i, "error", err)
				return nil
			}
			decoded[i] = img
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return decoded, nil
}

// EncodePNG re-encodes a single frame as PNG, used when no layout applies.
func EncodePNG(frame []byte) ([]byte, error) {
	img, err := DecodeFrame(frame)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
