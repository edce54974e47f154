package imagepkg

import (
	"bytes"
	"image"
	"image/png"

	qrcode "github.com/skip2/go-qrcode"
)

// DefaultQRSize is used when a template's QR slot does not set a size.
// Raster slots are then anchored bottom-right at this size; vector slots
// first try the placeholder's width.
const DefaultQRSize = 600

// GenerateQRPNG encodes text at medium error correction as a size x size
// PNG. A non-positive size means DefaultQRSize.
func GenerateQRPNG(text string, size int) ([]byte, error) {
	if size <= 0 {
		size = DefaultQRSize
	}
	return qrcode.Encode(text, qrcode.Medium, size)
}

// GenerateQRImage is GenerateQRPNG decoded, ready for the raster compositor.
func GenerateQRImage(text string, size int) (image.Image, error) {
	b, err := GenerateQRPNG(text, size)
	if err != nil {
		return nil, err
	}
	return png.Decode(bytes.NewReader(b))
}
