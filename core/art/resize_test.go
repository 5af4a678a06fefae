package art

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

func encodeTestImage(t *testing.T, encode func(*bytes.Buffer, image.Image) error) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 64, 48))
	for x := 0; x < 64; x++ {
		for y := 0; y < 48; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 4), G: uint8(y * 5), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := encode(&buf, img); err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}
	return buf.Bytes()
}

func TestResizePNG(t *testing.T) {
	src := encodeTestImage(t, func(buf *bytes.Buffer, img image.Image) error {
		return png.Encode(buf, img)
	})

	out, err := Resize(src, CoverWidth, CoverHeight)
	if err != nil {
		t.Fatalf("Resize failed: %v", err)
	}

	decoded, err := png.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("output is not valid PNG: %v", err)
	}
	bounds := decoded.Bounds()
	if bounds.Dx() != CoverWidth || bounds.Dy() != CoverHeight {
		t.Errorf("output size = %dx%d, want %dx%d", bounds.Dx(), bounds.Dy(), CoverWidth, CoverHeight)
	}
}

func TestResizeAcceptsJPEG(t *testing.T) {
	// 图像生成服务不保证返回PNG
	src := encodeTestImage(t, func(buf *bytes.Buffer, img image.Image) error {
		return jpeg.Encode(buf, img, nil)
	})

	out, err := Resize(src, CoverWidth, CoverHeight)
	if err != nil {
		t.Fatalf("Resize failed on JPEG input: %v", err)
	}
	if _, err := png.Decode(bytes.NewReader(out)); err != nil {
		t.Errorf("output is not valid PNG: %v", err)
	}
}

func TestResizeRejectsGarbage(t *testing.T) {
	if _, err := Resize([]byte("not an image"), CoverWidth, CoverHeight); err == nil {
		t.Error("expected an error for undecodable input")
	}
}
