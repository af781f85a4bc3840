package codec

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// MaxImagePixels bounds the decoded size of an input image.
const MaxImagePixels = 64 << 20

var ErrImageTooLarge = errors.New("image too large")

// Grayscale decodes a PNG, JPEG, GIF, BMP, TIFF or WebP image and returns it
// re-encoded as a single-channel 8-bit PNG with the same dimensions.
func Grayscale(data []byte) ([]byte, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("cannot identify image: %w", err)
	}
	if cfg.Width*cfg.Height > MaxImagePixels {
		return nil, fmt.Errorf("%w: %dx%d", ErrImageTooLarge, cfg.Width, cfg.Height)
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode %s image: %w", format, err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, ToGray(src)); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// GrayscaleBase64 is Grayscale over base64 text. A data URL prefix on the
// input is accepted.
func GrayscaleBase64(encoded string) (string, error) {
	encoded, err := StripDataURL(encoded)
	if err != nil {
		return "", err
	}
	data, err := DecodeBase64(encoded)
	if err != nil {
		return "", err
	}
	out, err := Grayscale(data)
	if err != nil {
		return "", err
	}
	return EncodeBase64(out), nil
}

// ToGray converts src to luma using the ITU-R 601-2 weights
// (L = R*299/1000 + G*587/1000 + B*114/1000). Alpha is ignored rather than
// premultiplied, so transparent pixels keep their colour's luma.
func ToGray(src image.Image) *image.Gray {
	b := src.Bounds()
	dst := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))

	if g, ok := src.(*image.Gray); ok {
		for y := 0; y < b.Dy(); y++ {
			copy(dst.Pix[y*dst.Stride:y*dst.Stride+b.Dx()], g.Pix[g.PixOffset(b.Min.X, b.Min.Y+y):])
		}
		return dst
	}

	for y := 0; y < b.Dy(); y++ {
		row := dst.Pix[y*dst.Stride:]
		for x := 0; x < b.Dx(); x++ {
			c := color.NRGBAModel.Convert(src.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
			row[x] = luma(c.R, c.G, c.B)
		}
	}
	return dst
}

func luma(r, g, b uint8) uint8 {
	return uint8((uint32(r)*19595 + uint32(g)*38470 + uint32(b)*7471 + 0x8000) >> 16)
}
