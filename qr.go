package goMFA

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image/png"

	"github.com/pquerna/otp"
)

// PNGDataURIRenderer renders a TOTP provisioning URL as a PNG data URI
// suitable for embedding directly in an <img> tag.
type PNGDataURIRenderer struct {
	// Size is the square pixel size of the rendered image. Zero means 256.
	Size int
}

// Render describes the render operation and its observable behavior.
//
// Render may return an error when input validation, dependency calls, or security checks fail.
// Render does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (r PNGDataURIRenderer) Render(url string) (string, error) {
	key, err := otp.NewKeyFromURL(url)
	if err != nil {
		return "", fmt.Errorf("qr render: %w", err)
	}
	size := r.Size
	if size <= 0 {
		size = 256
	}
	img, err := key.Image(size, size)
	if err != nil {
		return "", fmt.Errorf("qr render: %w", err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("qr render: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
