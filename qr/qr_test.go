package qr

import (
	"bytes"
	"errors"
	"image/png"
	"net/url"
	"testing"
)

func TestEncode(t *testing.T) {
	out, err := Encode("http://booth.local/captures/abc/image", 256)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	cfg, err := png.DecodeConfig(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("DecodeConfig: %v", err)
	}
	if cfg.Width != 256 || cfg.Height != 256 {
		t.Errorf("size = %dx%d, want 256x256", cfg.Width, cfg.Height)
	}
}

func TestEncode_Defaults(t *testing.T) {
	out, err := Encode("x", 0)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	cfg, _ := png.DecodeConfig(bytes.NewReader(out))
	if cfg.Width != DefaultSize {
		t.Errorf("width = %d, want %d", cfg.Width, DefaultSize)
	}

	if _, err := Encode("", 100); !errors.Is(err, ErrEmptyContent) {
		t.Errorf("err = %v, want ErrEmptyContent", err)
	}
}

func TestServiceURL(t *testing.T) {
	got, err := ServiceURL("https://api.qrserver.com/v1/create-qr-code/", "http://host/a b?x=1&y=2", 200)
	if err != nil {
		t.Fatalf("ServiceURL: %v", err)
	}
	u, err := url.Parse(got)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if u.Host != "api.qrserver.com" || u.Path != "/v1/create-qr-code/" {
		t.Errorf("url = %s", got)
	}
	if u.Query().Get("size") != "200x200" {
		t.Errorf("size = %q", u.Query().Get("size"))
	}
	if u.Query().Get("data") != "http://host/a b?x=1&y=2" {
		t.Errorf("data = %q", u.Query().Get("data"))
	}

	if _, err := ServiceURL("https://x", "", 10); !errors.Is(err, ErrEmptyContent) {
		t.Errorf("err = %v, want ErrEmptyContent", err)
	}
	if _, err := ServiceURL("://bad", "c", 10); err == nil {
		t.Error("expected parse error")
	}
}

func TestShareURL(t *testing.T) {
	cases := []struct{ base, path, want string }{
		{"http://h:8080", "captures/a/image", "http://h:8080/captures/a/image"},
		{"http://h:8080/", "/captures/a/image", "http://h:8080/captures/a/image"},
	}
	for _, tc := range cases {
		if got := ShareURL(tc.base, tc.path); got != tc.want {
			t.Errorf("ShareURL(%q, %q) = %q, want %q", tc.base, tc.path, got, tc.want)
		}
	}
}
