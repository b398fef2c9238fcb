// Package qr renders share links as QR codes.
package qr

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
)

const (
	DefaultSize = 200
	MaxSize     = 1000
)

var ErrEmptyContent = errors.New("qr content is empty")

// Encode renders content as a size x size PNG.
func Encode(content string, size int) ([]byte, error) {
	if content == "" {
		return nil, ErrEmptyContent
	}
	if size <= 0 {
		size = DefaultSize
	}
	size = min(size, MaxSize)

	png, err := qrcode.Encode(content, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("encode qr code: %w", err)
	}
	return png, nil
}

// ServiceURL builds a link to an external QR rendering endpoint such as
// https://api.qrserver.com/v1/create-qr-code/ for the given content.
func ServiceURL(base, content string, size int) (string, error) {
	if content == "" {
		return "", ErrEmptyContent
	}
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse qr service url: %w", err)
	}
	if size <= 0 {
		size = DefaultSize
	}

	q := u.Query()
	q.Set("size", fmt.Sprintf("%dx%d", size, size))
	q.Set("data", content)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// ShareURL joins the public base url with a capture path.
func ShareURL(publicURL, path string) string {
	return strings.TrimSuffix(publicURL, "/") + "/" + strings.TrimPrefix(path, "/")
}
