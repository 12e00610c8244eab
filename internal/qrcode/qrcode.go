package qrcode

import (
	"encoding/base64"
	"fmt"

	"github.com/skip2/go-qrcode"
)

const DefaultSize = 256

// PNG renders content as a QR code image of size x size pixels.
func PNG(content string, size int) ([]byte, error) {
	if size <= 0 {
		size = DefaultSize
	}

	png, err := qrcode.Encode(content, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("failed to generate QR code: %w", err)
	}
	return png, nil
}

// DataURI returns the PNG inline as a data URI for embedding in JSON responses.
func DataURI(content string) (string, error) {
	png, err := PNG(content, DefaultSize)
	if err != nil {
		return "", err
	}

	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
