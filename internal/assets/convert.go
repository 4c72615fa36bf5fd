package assets

import (
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"

	"golang.org/x/image/draw"
)

// Decode reads a PNG, JPEG or GIF and converts it to a panel bitmap
func Decode(r io.Reader, width, height int) ([]byte, error) {
	src, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return Convert(src, width, height), nil
}

// Convert scales src to width x height and thresholds it to one bit per
// pixel: rows top to bottom, most significant bit first, each row padded
// to a whole byte. Transparent pixels are dark.
func Convert(src image.Image, width, height int) []byte {
	dst := image.NewGray(image.Rect(0, 0, width, height))
	if src.Bounds().Dx() == width && src.Bounds().Dy() == height {
		draw.Draw(dst, dst.Bounds(), src, src.Bounds().Min, draw.Over)
	} else {
		draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)
	}

	stride := (width + 7) / 8
	out := make([]byte, stride*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if dst.GrayAt(x, y).Y >= 0x80 {
				out[y*stride+x/8] |= 0x80 >> uint(x%8)
			}
		}
	}
	return out
}

// Expand turns a bitmap back into a grayscale image
func Expand(bitmap []byte, width, height int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, width, height))
	stride := (width + 7) / 8
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			i := y*stride + x/8
			if i < len(bitmap) && bitmap[i]&(0x80>>uint(x%8)) != 0 {
				img.SetGray(x, y, color.Gray{Y: 0xff})
			}
		}
	}
	return img
}
