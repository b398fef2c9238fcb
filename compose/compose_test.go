package compose

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func solidPNG(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// pngHeader returns a PNG holding only a grayscale IHDR chunk. It is enough
// for image.DecodeConfig while claiming any size.
func pngHeader(w, h int) []byte {
	var buf bytes.Buffer
	buf.WriteString("\x89PNG\r\n\x1a\n")
	chunk := make([]byte, 4+13)
	copy(chunk, "IHDR")
	binary.BigEndian.PutUint32(chunk[4:], uint32(w))
	binary.BigEndian.PutUint32(chunk[8:], uint32(h))
	chunk[12] = 8 // bit depth, color type 0
	binary.Write(&buf, binary.BigEndian, uint32(13))
	buf.Write(chunk)
	binary.Write(&buf, binary.BigEndian, crc32.ChecksumIEEE(chunk))
	return buf.Bytes()
}

func center(r image.Rectangle) image.Point {
	return image.Pt((r.Min.X+r.Max.X)/2, (r.Min.Y+r.Max.Y)/2)
}

func sameRGB(got color.Color, want color.RGBA) bool {
	r, g, b, _ := got.RGBA()
	return uint8(r>>8) == want.R && uint8(g>>8) == want.G && uint8(b>>8) == want.B
}

var (
	red   = color.RGBA{0xff, 0, 0, 0xff}
	blue  = color.RGBA{0, 0, 0xff, 0xff}
	green = color.RGBA{0, 0xff, 0, 0xff}
)

func TestLayout(t *testing.T) {
	cases := []struct {
		name      string
		template  string
		n         int
		wantW     int
		wantH     int
		wantSlots []image.Rectangle
	}{
		{"strip_4", "strip", 4, 1200, 1800, []image.Rectangle{
			image.Rect(0, 0, 1200, 450), image.Rect(0, 450, 1200, 900),
			image.Rect(0, 900, 1200, 1350), image.Rect(0, 1350, 1200, 1800),
		}},
		{"strip_7_floors", "strip", 7, 1200, 1800, nil},
		{"grid_4", "grid", 4, 1600, 1200, []image.Rectangle{
			image.Rect(0, 0, 800, 600), image.Rect(800, 0, 1600, 600),
			image.Rect(0, 600, 800, 1200), image.Rect(800, 600, 1600, 1200),
		}},
		{"grid_3", "grid", 3, 1600, 1200, []image.Rectangle{
			image.Rect(0, 0, 800, 600), image.Rect(800, 0, 1600, 600),
			image.Rect(0, 600, 800, 1200),
		}},
		{"grid_1", "grid", 1, 1600, 1200, []image.Rectangle{image.Rect(0, 0, 800, 1200)}},
		{"single_many", "single", 4, 1200, 1800, []image.Rectangle{image.Rect(40, 40, 1160, 1760)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			plan, err := Layout(tc.template, tc.n)
			if err != nil {
				t.Fatalf("Layout: %v", err)
			}
			if plan.Width != tc.wantW || plan.Height != tc.wantH {
				t.Errorf("canvas = %dx%d, want %dx%d", plan.Width, plan.Height, tc.wantW, tc.wantH)
			}
			if tc.wantSlots == nil {
				if len(plan.Slots) != tc.n {
					t.Errorf("slots = %d, want %d", len(plan.Slots), tc.n)
				}
				for _, s := range plan.Slots {
					if s.Dy() != tc.wantH/tc.n {
						t.Errorf("slot height = %d, want %d", s.Dy(), tc.wantH/tc.n)
					}
				}
				return
			}
			if len(plan.Slots) != len(tc.wantSlots) {
				t.Fatalf("slots = %v, want %v", plan.Slots, tc.wantSlots)
			}
			for i := range tc.wantSlots {
				if plan.Slots[i] != tc.wantSlots[i] {
					t.Errorf("slot[%d] = %v, want %v", i, plan.Slots[i], tc.wantSlots[i])
				}
			}
		})
	}
}

func TestLayout_Errors(t *testing.T) {
	if _, err := Layout("single4x6", 1); !errors.Is(err, ErrUnknownTemplate) {
		t.Errorf("unknown template err = %v, want ErrUnknownTemplate", err)
	}
	if _, err := Layout("strip", 0); err == nil {
		t.Error("expected error for zero frames, got nil")
	}
}

func TestCoverCrop(t *testing.T) {
	cases := []struct {
		name   string
		src    image.Rectangle
		dw, dh int
		want   image.Rectangle
	}{
		{"landscape_into_strip_slot", image.Rect(0, 0, 1280, 720), 1200, 450, image.Rect(0, 120, 1280, 600)},
		{"landscape_into_grid_cell", image.Rect(0, 0, 1280, 720), 800, 600, image.Rect(160, 0, 1120, 720)},
		{"same_aspect", image.Rect(0, 0, 640, 480), 800, 600, image.Rect(0, 0, 640, 480)},
		{"portrait_into_single", image.Rect(0, 0, 720, 1280), 1120, 1720, image.Rect(0, 87, 720, 1193)},
		{"offset_source", image.Rect(10, 10, 110, 60), 50, 50, image.Rect(35, 10, 85, 60)},
		{"degenerate", image.Rect(0, 0, 0, 0), 10, 10, image.Rect(0, 0, 0, 0)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CoverCrop(tc.src, tc.dw, tc.dh); got != tc.want {
				t.Errorf("CoverCrop = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestRender_StripColors(t *testing.T) {
	frames := [][]byte{
		solidPNG(t, 64, 36, red),
		solidPNG(t, 64, 36, blue),
	}
	img, err := Render(context.Background(), frames, Options{Template: "strip"})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if img.Bounds() != image.Rect(0, 0, PrintWidth, PrintHeight) {
		t.Fatalf("bounds = %v", img.Bounds())
	}
	plan, _ := Layout("strip", 2)
	if got := img.At(center(plan.Slots[0]).X, center(plan.Slots[0]).Y); !sameRGB(got, red) {
		t.Errorf("slot 0 center = %v, want red", got)
	}
	if got := img.At(center(plan.Slots[1]).X, center(plan.Slots[1]).Y); !sameRGB(got, blue) {
		t.Errorf("slot 1 center = %v, want blue", got)
	}
	// border stroked in the default white frame color
	if got := img.At(3, 300); !sameRGB(got, color.RGBA{0xff, 0xff, 0xff, 0xff}) {
		t.Errorf("border pixel = %v, want white", got)
	}
}

func TestRender_SkipsUndecodableFrames(t *testing.T) {
	frames := [][]byte{
		[]byte("definitely not an image"),
		solidPNG(t, 40, 30, red),
	}
	img, err := Render(context.Background(), frames, Options{Template: "grid", BackgroundColor: "#00ff00"})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	plan, _ := Layout("grid", 2)
	if got := img.At(center(plan.Slots[0]).X, center(plan.Slots[0]).Y); !sameRGB(got, green) {
		t.Errorf("empty slot = %v, want background green", got)
	}
	if got := img.At(center(plan.Slots[1]).X, center(plan.Slots[1]).Y); !sameRGB(got, red) {
		t.Errorf("slot 1 = %v, want red", got)
	}
}

func TestRender_NoFrames(t *testing.T) {
	ctx := context.Background()
	if _, err := Render(ctx, nil, Options{Template: "strip"}); !errors.Is(err, ErrNoFrames) {
		t.Errorf("nil frames err = %v, want ErrNoFrames", err)
	}
	bad := [][]byte{[]byte("x"), []byte("y")}
	if _, err := Render(ctx, bad, Options{Template: "strip"}); !errors.Is(err, ErrNoFrames) {
		t.Errorf("undecodable frames err = %v, want ErrNoFrames", err)
	}
}

func TestRender_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	frames := [][]byte{solidPNG(t, 10, 10, red)}
	if _, err := Render(ctx, frames, Options{Template: "strip"}); err == nil {
		t.Error("expected context error, got nil")
	}
}

func TestRender_SingleUsesFirstFrame(t *testing.T) {
	frames := [][]byte{solidPNG(t, 30, 40, blue), solidPNG(t, 30, 40, red)}
	img, err := Render(context.Background(), frames, Options{Template: "single", BackgroundColor: "#0f0"})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if got := img.At(PrintWidth/2, PrintHeight/2); !sameRGB(got, blue) {
		t.Errorf("center = %v, want blue", got)
	}
	if got := img.At(10, 10); !sameRGB(got, green) {
		t.Errorf("margin = %v, want background green", got)
	}
}

func TestRender_CaptionAndLogo(t *testing.T) {
	frames := [][]byte{solidPNG(t, 64, 48, blue)}
	logo := solidPNG(t, 100, 50, red)
	img, err := Render(context.Background(), frames, Options{
		Template:     "single",
		Caption:      "Jane & Sam 2024",
		AccentColor:  "#ffffff",
		Logo:         logo,
		LogoScale:    100,
		LogoPosition: "top-left",
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	r := LogoRect(img.Bounds(), image.Rect(0, 0, 100, 50), 100, "top-left")
	c := img.RGBAAt(center(r).X, center(r).Y)
	if c.R < 240 || c.B > 30 {
		t.Errorf("logo center = %v, want mostly red over blue", c)
	}
}

func TestRender_BadLogoIgnored(t *testing.T) {
	frames := [][]byte{solidPNG(t, 10, 10, red)}
	if _, err := Render(context.Background(), frames, Options{Template: "strip", Logo: []byte("nope"), LogoScale: 25}); err != nil {
		t.Errorf("Render with bad logo: %v", err)
	}
}

func TestLogoRect(t *testing.T) {
	canvas := image.Rect(0, 0, 1200, 1800)
	logo := image.Rect(0, 0, 200, 100)
	// 1200 * 0.25 * 0.25 = 75 wide, 37 tall
	cases := []struct {
		position string
		want     image.Rectangle
	}{
		{"bottom-right", image.Rect(1200-75-30, 1800-37-30, 1200-30, 1800-30)},
		{"bottom-left", image.Rect(30, 1800-37-30, 105, 1800-30)},
		{"top-right", image.Rect(1200-75-30, 30, 1200-30, 67)},
		{"top-left", image.Rect(30, 30, 105, 67)},
		{"center", image.Rect((1200-75)/2, (1800-37)/2, (1200-75)/2+75, (1800-37)/2+37)},
		{"unknown", image.Rect(1200-75-30, 1800-37-30, 1200-30, 1800-30)},
	}
	for _, tc := range cases {
		t.Run(tc.position, func(t *testing.T) {
			if got := LogoRect(canvas, logo, 25, tc.position); got != tc.want {
				t.Errorf("LogoRect = %v, want %v", got, tc.want)
			}
		})
	}

	if got := LogoRect(canvas, logo, 0, "top-left"); !got.Empty() {
		t.Errorf("zero scale LogoRect = %v, want empty", got)
	}
}

func TestCompose_EncodesPNG(t *testing.T) {
	frames := [][]byte{
		solidPNG(t, 32, 24, red), solidPNG(t, 32, 24, blue),
		solidPNG(t, 32, 24, red), solidPNG(t, 32, 24, blue),
	}
	out, err := Compose(context.Background(), frames, Options{Template: "grid"})
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	cfg, err := png.DecodeConfig(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("DecodeConfig: %v", err)
	}
	if cfg.Width != GridWidth || cfg.Height != GridHeight {
		t.Errorf("composite = %dx%d, want %dx%d", cfg.Width, cfg.Height, GridWidth, GridHeight)
	}
}

func TestDecodeFrame_DataURL(t *testing.T) {
	raw := solidPNG(t, 4, 4, red)
	dataURL := []byte("data:image/png;base64," + base64.StdEncoding.EncodeToString(raw))

	img, err := DecodeFrame(dataURL)
	if err != nil {
		t.Fatalf("DecodeFrame: %v", err)
	}
	if img.Bounds().Dx() != 4 {
		t.Errorf("width = %d, want 4", img.Bounds().Dx())
	}

	for _, bad := range []string{"data:image/png;base64", "data:image/png,abc", "data:image/png;base64,%%%"} {
		if _, err := DecodeFrame([]byte(bad)); err == nil {
			t.Errorf("DecodeFrame(%q) expected error", bad)
		}
	}
}

func TestDecodeFrame_TooLarge(t *testing.T) {
	tests := []struct {
		name string
		w, h int
	}{
		{"wide", MaxFrameSide + 1, 100},
		{"tall", 100, MaxFrameSide + 1},
		{"too_many_pixels", 7000, 7000},
		{"huge", 16000, 16000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodeFrame(pngHeader(tt.w, tt.h)); !errors.Is(err, ErrFrameTooLarge) {
				t.Errorf("DecodeFrame(%dx%d) err = %v, want ErrFrameTooLarge", tt.w, tt.h, err)
			}
		})
	}

	dataURL := []byte("data:image/png;base64," + base64.StdEncoding.EncodeToString(pngHeader(16000, 16000)))
	if _, err := DecodeFrame(dataURL); !errors.Is(err, ErrFrameTooLarge) {
		t.Errorf("data url err = %v, want ErrFrameTooLarge", err)
	}
	if _, err := EncodePNG(pngHeader(16000, 16000)); !errors.Is(err, ErrFrameTooLarge) {
		t.Errorf("EncodePNG err = %v, want ErrFrameTooLarge", err)
	}
}

func TestRender_SkipsOversizedFrames(t *testing.T) {
	ctx := context.Background()
	frames := [][]byte{pngHeader(16000, 16000), solidPNG(t, 40, 30, red)}
	img, err := Render(ctx, frames, Options{Template: "strip", BackgroundColor: "#00ff00"})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if got := img.At(600, 450); !sameRGB(got, green) {
		t.Errorf("oversized slot = %v, want background green", got)
	}
	if got := img.At(600, 1350); !sameRGB(got, red) {
		t.Errorf("second slot = %v, want red", got)
	}

	if _, err := Render(ctx, frames[:1], Options{Template: "strip"}); !errors.Is(err, ErrNoFrames) {
		t.Errorf("oversized only err = %v, want ErrNoFrames", err)
	}
}

func TestEncodePNG(t *testing.T) {
	out, err := EncodePNG(solidPNG(t, 8, 6, blue))
	if err != nil {
		t.Fatalf("EncodePNG: %v", err)
	}
	cfg, err := png.DecodeConfig(bytes.NewReader(out))
	if err != nil || cfg.Width != 8 || cfg.Height != 6 {
		t.Errorf("EncodePNG config = %+v, %v", cfg, err)
	}
}

func TestParseHexColor(t *testing.T) {
	cases := map[string]color.Color{
		"#ff0000": red,
		"#00F":    blue,
		"bogus":   color.Black,
		"":        color.Black,
	}
	for in, want := range cases {
		got := parseHexColor(in, color.Black)
		wr, wg, wb, _ := want.RGBA()
		gr, gg, gb, _ := got.RGBA()
		if wr != gr || wg != gg || wb != gb {
			t.Errorf("parseHexColor(%q) = %v, want %v", in, got, want)
		}
	}
}
