package compress

import (
	"github.com/chewxy/math32"
)

// ColorByte converts a [0, 1] channel value to a byte, clamping out of
// range input.
func ColorByte(v float32) uint8 {
	if v <= 0 || math32.IsNaN(v) {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(math32.Round(v * 255))
}

// CompressRGBColors converts RGB or RGBA float channels to bytes.
func CompressRGBColors(colors []float32) []uint8 {
	out := make([]uint8, len(colors))
	for i, c := range colors {
		out[i] = ColorByte(c)
	}
	return out
}

// ExpandRGBToRGBA adds an opaque alpha channel to tightly packed RGB bytes.
func ExpandRGBToRGBA(rgb []uint8) []uint8 {
	out := make([]uint8, 0, len(rgb)/3*4)
	for i := 0; i+2 < len(rgb); i += 3 {
		out = append(out, rgb[i], rgb[i+1], rgb[i+2], 255)
	}
	return out
}
