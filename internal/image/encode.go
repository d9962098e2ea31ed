// Package image turns uploaded room photos into the PNG payloads the
// generation backend expects.
package image

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"strings"

	"github.com/iamvkosarev/ai-interior-designer/internal/model"
)

// MaxImageDimension bounds width and height of accepted uploads.
const MaxImageDimension = 8192

var (
	ErrEmptyImage        = errors.New("empty image")
	ErrUnsupportedFormat = errors.New("unsupported image format")
	ErrTooLarge          = errors.New("image dimensions too large")
	ErrInvalidDataURI    = errors.New("invalid data uri")
)

// Normalize decodes raw upload bytes and returns them as PNG. PNG input is
// passed through unchanged once its header has been validated.
func Normalize(data []byte) (model.Image, error) {
	if len(data) == 0 {
		return model.Image{}, ErrEmptyImage
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return model.Image{}, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return model.Image{}, fmt.Errorf("%w: %dx%d", ErrUnsupportedFormat, cfg.Width, cfg.Height)
	}
	if cfg.Width > MaxImageDimension || cfg.Height > MaxImageDimension {
		return model.Image{}, fmt.Errorf("%w: %dx%d", ErrTooLarge, cfg.Width, cfg.Height)
	}

	if format == "png" {
		return model.Image{MIMEType: model.MIMETypePNG, Data: data}, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return model.Image{}, fmt.Errorf("failed to decode %s image: %w", format, err)
	}
	var buf bytes.Buffer
	if err = png.Encode(&buf, img); err != nil {
		return model.Image{}, fmt.Errorf("failed to encode png: %w", err)
	}
	return model.Image{MIMEType: model.MIMETypePNG, Data: buf.Bytes()}, nil
}

// ParseDataURI extracts the payload of a base64 data URI and normalizes it.
func ParseDataURI(uri string) (model.Image, error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(uri), "data:")
	if !ok {
		return model.Image{}, ErrInvalidDataURI
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok || !strings.HasSuffix(meta, ";base64") {
		return model.Image{}, ErrInvalidDataURI
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return model.Image{}, fmt.Errorf("%w: %v", ErrInvalidDataURI, err)
	}
	return Normalize(data)
}
