// Package qr builds the shareable patient identity locator and renders it
// as a QR code.
package qr

import (
	"fmt"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
)

// Encode returns the public locator for ownerID under baseURL. The mapping
// is deterministic and stable: the same owner always yields the same
// locator, so printed codes never go stale. A trailing slash on baseURL is
// tolerated.
func Encode(ownerID string, baseURL string) string {
	return fmt.Sprintf("%s/patient/%s", strings.TrimRight(baseURL, "/"), ownerID)
}

// RenderPNG rasterizes url as a size x size PNG QR code with medium error
// correction.
func RenderPNG(url string, size int) ([]byte, error) {
	png, err := qrcode.Encode(url, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("rendering qr code: %w", err)
	}
	return png, nil
}
