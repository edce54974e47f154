package imagepkg

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"net/http"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/eventkit/bannergen/internal/util"
)

// DownloadImage downloads an image from url and returns both the raw bytes
// and the decoded image. Bytes that do not decode are an error.
func DownloadImage(ctx context.Context, client *http.Client, url string) ([]byte, image.Image, error) {
	body, err := util.GetBytes(ctx, client, url)
	if err != nil {
		return nil, nil, err
	}
	img, err := Decode(body)
	if err != nil {
		return nil, nil, fmt.Errorf("decode %s: %w", url, err)
	}
	return body, img, nil
}

func Decode(b []byte) (image.Image, error) {
	return imaging.Decode(bytes.NewReader(b), imaging.AutoOrientation(true))
}

func Open(path string) (image.Image, error) {
	return imaging.Open(path, imaging.AutoOrientation(true))
}

// EncodePNG encodes img as PNG bytes.
func EncodePNG(img image.Image) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := imaging.Encode(buf, img, imaging.PNG); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DataURI embeds data as a base64 data URI with a sniffed mime type.
func DataURI(data []byte) string {
	mimeType := http.DetectContentType(data)
	mimeType = strings.Replace(mimeType, "text/xml", "image/svg+xml", 1)
	return fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(data))
}
