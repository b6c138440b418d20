// Package texture decodes image files into the tightly packed RGBA8 data
// scene textures are created from.
package texture

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"
)

// Image is decoded RGBA8 pixel data, top row first.
type Image struct {
	Width, Height int
	Pix           []byte
}

// Load reads and decodes an image file. TGA is recognised by extension;
// PNG, JPEG and BMP by content.
func Load(path string, colorKey bool) (*Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	img, err := Decode(data, strings.EqualFold(filepath.Ext(path), ".tga"))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if colorKey {
		ApplyColorKey(img)
	}
	return img, nil
}

// Decode decodes data as TGA or as any registered image format.
func Decode(data []byte, tga bool) (*Image, error) {
	var rgba *image.RGBA
	if tga {
		var err error
		if rgba, err = DecodeTGA(data); err != nil {
			return nil, err
		}
	} else {
		img, _, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		rgba = ToRGBA(img)
	}
	return &Image{Width: rgba.Rect.Dx(), Height: rgba.Rect.Dy(), Pix: rgba.Pix}, nil
}

// ToRGBA returns img as an *image.RGBA with its origin at (0, 0) and no
// row padding.
func ToRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Rect.Min == (image.Point{}) && rgba.Stride == rgba.Rect.Dx()*4 {
		return rgba
	}
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Rect, img, b.Min, draw.Src)
	return rgba
}

// IsColorKey reports whether an RGB color is the magenta transparency key,
// with tolerance for lossy encoders.
func IsColorKey(r, g, b uint8) bool {
	return r >= 250 && g <= 10 && b >= 250
}

// ApplyColorKey makes color-keyed pixels transparent black, so filtering
// does not bleed magenta into neighbours.
func ApplyColorKey(img *Image) {
	for i := 0; i+3 < len(img.Pix); i += 4 {
		if IsColorKey(img.Pix[i], img.Pix[i+1], img.Pix[i+2]) {
			img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = 0, 0, 0, 0
		}
	}
}
