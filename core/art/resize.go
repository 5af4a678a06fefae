package art

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg" // register decoders for provider output
	"image/png"

	"golang.org/x/image/draw"
)

// Thumbnail size for cover art committed to the podcast record.
const (
	CoverWidth  = 300
	CoverHeight = 300
)

// Resize scales the encoded image to the cover thumbnail size and
// re-encodes it as PNG.
func Resize(data []byte, width, height int) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("failed to encode resized image: %w", err)
	}
	return buf.Bytes(), nil
}
