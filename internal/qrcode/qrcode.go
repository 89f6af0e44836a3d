// Package qrcode renders short links as PNG data URLs.
package qrcode

import (
	"encoding/base64"
	"fmt"

	goqrcode "github.com/skip2/go-qrcode"
)

// DefaultSize is the image edge in pixels.
const DefaultSize = 256

const dataURLPrefix = "data:image/png;base64,"

// Render encodes content as a QR code and returns it as a data URL, ready for an <img src>.
func Render(content string, size int) (string, error) {
	if size <= 0 {
		size = DefaultSize
	}
	png, err := goqrcode.Encode(content, goqrcode.Medium, size)
	if err != nil {
		return "", fmt.Errorf("failed to render QR code: %w", err)
	}
	return dataURLPrefix + base64.StdEncoding.EncodeToString(png), nil
}
