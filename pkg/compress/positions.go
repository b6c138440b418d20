// Package compress converts floating point geometry into the fixed point
// encodings stored in GPU buffers, and derives edge topology.
package compress

import (
	gomath "math"

	"github.com/go-gl/mathgl/mgl64"

	smath "github.com/Faultbox/scenebatch/pkg/math"
)

// MaxQuantized is the largest quantized coordinate value.
const MaxQuantized = 65535

// QuantizePositions maps positions inside aabb onto the full uint16 range per
// axis and returns the matrix that decodes them back:
// position = quantized*scale + translation. Round-trip error per axis is at
// most half a quantization step (extent / 65535 / 2).
func QuantizePositions(positions []float64, aabb smath.AABB) ([]uint16, mgl64.Mat4) {
	out := make([]uint16, len(positions))
	if aabb.IsEmpty() {
		return out, mgl64.Ident4()
	}

	var mins, multipliers, scales [3]float64
	for a := 0; a < 3; a++ {
		mins[a] = aabb[a]
		width := aabb[a+3] - aabb[a]
		if width > 0 {
			multipliers[a] = MaxQuantized / width
			scales[a] = width / MaxQuantized
		} else {
			// Flat axis: every value quantizes to 0 and decodes to min
			scales[a] = 1
		}
	}

	for i := 0; i+2 < len(positions); i += 3 {
		for a := 0; a < 3; a++ {
			out[i+a] = quantize((positions[i+a] - mins[a]) * multipliers[a])
		}
	}

	decode := mgl64.Translate3D(mins[0], mins[1], mins[2]).
		Mul4(mgl64.Scale3D(scales[0], scales[1], scales[2]))
	return out, decode
}

func quantize(v float64) uint16 {
	v = gomath.Round(v)
	if v < 0 {
		return 0
	}
	if v > MaxQuantized {
		return MaxQuantized
	}
	return uint16(v)
}

// DecompressPosition decodes the quantized vertex at index i.
func DecompressPosition(quantized []uint16, i int, decode mgl64.Mat4) mgl64.Vec3 {
	q := mgl64.Vec3{
		float64(quantized[i*3]),
		float64(quantized[i*3+1]),
		float64(quantized[i*3+2]),
	}
	return mgl64.TransformCoordinate(q, decode)
}

// DecompressPositions decodes a whole quantized position array.
func DecompressPositions(quantized []uint16, decode mgl64.Mat4) []float64 {
	out := make([]float64, len(quantized))
	for i := 0; i < len(quantized)/3; i++ {
		p := DecompressPosition(quantized, i, decode)
		out[i*3], out[i*3+1], out[i*3+2] = p[0], p[1], p[2]
	}
	return out
}

// DecodedAABB returns the local box covered by a quantized array.
func DecodedAABB(quantized []uint16, decode mgl64.Mat4) smath.AABB {
	b := smath.CollapsedAABB()
	for i := 0; i < len(quantized)/3; i++ {
		b.ExpandPoint(DecompressPosition(quantized, i, decode))
	}
	return b
}
