package texture

import (
	"fmt"
	"image"
)

// TGA image types that DecodeTGA reads.
const (
	TGATypeUncompressed = 2
	TGATypeRLE          = 10
)

const tgaHeaderSize = 18

// DecodeTGA decodes uncompressed or RLE true-color TGA data with 24 or 32
// bits per pixel.
func DecodeTGA(data []byte) (*image.RGBA, error) {
	if len(data) < tgaHeaderSize {
		return nil, fmt.Errorf("tga: header truncated")
	}
	idLength := int(data[0])
	colorMapType, imageType := data[1], data[2]
	width := int(data[12]) | int(data[13])<<8
	height := int(data[14]) | int(data[15])<<8
	bpp := int(data[16])
	topToBottom := data[17]&0x20 != 0

	switch {
	case colorMapType != 0:
		return nil, fmt.Errorf("tga: color-mapped images not supported")
	case imageType != TGATypeUncompressed && imageType != TGATypeRLE:
		return nil, fmt.Errorf("tga: unsupported image type %d", imageType)
	case bpp != 24 && bpp != 32:
		return nil, fmt.Errorf("tga: unsupported bit depth %d", bpp)
	}

	offset := tgaHeaderSize + idLength
	if offset > len(data) {
		return nil, fmt.Errorf("tga: data truncated")
	}
	px := &tgaPixels{
		img:         image.NewRGBA(image.Rect(0, 0, width, height)),
		src:         data[offset:],
		stride:      bpp / 8,
		width:       width,
		height:      height,
		topToBottom: topToBottom,
	}
	if imageType == TGATypeUncompressed {
		if len(px.src) < width*height*px.stride {
			return nil, fmt.Errorf("tga: pixel data truncated")
		}
		for n := 0; n < width*height; n++ {
			px.put(n, px.read(n*px.stride))
		}
		return px.img, nil
	}
	px.decodeRLE()
	return px.img, nil
}

type tgaPixels struct {
	img           *image.RGBA
	src           []byte
	stride        int
	width, height int
	topToBottom   bool
}

// read returns the BGR(A) pixel at byte offset i as RGBA.
func (p *tgaPixels) read(i int) [4]uint8 {
	c := [4]uint8{p.src[i+2], p.src[i+1], p.src[i], 255}
	if p.stride == 4 {
		c[3] = p.src[i+3]
	}
	return c
}

// put stores pixel n of the file's row order.
func (p *tgaPixels) put(n int, c [4]uint8) {
	x, y := n%p.width, n/p.width
	if !p.topToBottom {
		y = p.height - 1 - y
	}
	copy(p.img.Pix[p.img.PixOffset(x, y):], c[:])
}

// decodeRLE stops quietly at truncated input, leaving the rest transparent.
func (p *tgaPixels) decodeRLE() {
	total := p.width * p.height
	n, i := 0, 0
	for n < total && i < len(p.src) {
		packet := p.src[i]
		i++
		count := int(packet&0x7f) + 1
		if packet&0x80 != 0 {
			if i+p.stride > len(p.src) {
				return
			}
			c := p.read(i)
			i += p.stride
			for ; count > 0 && n < total; count-- {
				p.put(n, c)
				n++
			}
			continue
		}
		for ; count > 0 && n < total; count-- {
			if i+p.stride > len(p.src) {
				return
			}
			p.put(n, p.read(i))
			i += p.stride
			n++
		}
	}
}
