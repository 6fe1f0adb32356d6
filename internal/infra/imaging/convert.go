package imaging

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	"github.com/kolesa-team/go-webp/encoder"
	"github.com/kolesa-team/go-webp/webp"

	"github.com/undownding/city-card/internal/domain/card"
)

const webpMime = "image/webp"

// Converter normalizes model output into WebP before it lands in the bucket.
type Converter struct {
	quality float32
}

// NewConverter constructs the converter.
func NewConverter() *Converter {
	return &Converter{quality: 85}
}

// EnsureWebP re-encodes PNG and JPEG payloads as lossy WebP. Payloads already
// carrying the RIFF/WEBP magic pass through untouched.
func (c *Converter) EnsureWebP(data []byte, mimeType string) ([]byte, string, error) {
	if isWEBP(data) {
		return data, webpMime, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("decode %s payload: %w", mimeType, err)
	}

	opts, err := encoder.NewLossyEncoderOptions(encoder.PresetDefault, c.quality)
	if err != nil {
		return nil, "", err
	}

	var out bytes.Buffer
	if err := webp.Encode(&out, img, opts); err != nil {
		return nil, "", fmt.Errorf("encode webp: %w", err)
	}
	return out.Bytes(), webpMime, nil
}

func isWEBP(data []byte) bool {
	if len(data) < 12 {
		return false
	}
	return string(data[0:4]) == "RIFF" && string(data[8:12]) == "WEBP"
}

var _ card.ImageNormalizer = (*Converter)(nil)
