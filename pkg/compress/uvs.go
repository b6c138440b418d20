package compress

import (
	"github.com/go-gl/mathgl/mgl32"
)

// QuantizeUVs maps texture coordinates onto the uint16 range and returns
// the 3x3 matrix that decodes them: uv = (q, 1) * decode.
func QuantizeUVs(uvs []float32) ([]uint16, mgl32.Mat3) {
	out := make([]uint16, len(uvs))
	if len(uvs) < 2 {
		return out, mgl32.Ident3()
	}

	mins := [2]float32{uvs[0], uvs[1]}
	maxs := mins
	for i := 0; i+1 < len(uvs); i += 2 {
		for a := 0; a < 2; a++ {
			if uvs[i+a] < mins[a] {
				mins[a] = uvs[i+a]
			}
			if uvs[i+a] > maxs[a] {
				maxs[a] = uvs[i+a]
			}
		}
	}

	var scales [2]float32
	for a := 0; a < 2; a++ {
		scales[a] = (maxs[a] - mins[a]) / MaxQuantized
		if scales[a] == 0 {
			scales[a] = 1
		}
	}
	for i := 0; i+1 < len(uvs); i += 2 {
		for a := 0; a < 2; a++ {
			out[i+a] = quantize(float64((uvs[i+a] - mins[a]) / scales[a]))
		}
	}

	decode := mgl32.Mat3{
		scales[0], 0, 0,
		0, scales[1], 0,
		mins[0], mins[1], 1,
	}
	return out, decode
}

// DecompressUV decodes the quantized coordinate pair at index i.
func DecompressUV(quantized []uint16, i int, decode mgl32.Mat3) mgl32.Vec2 {
	v := decode.Mul3x1(mgl32.Vec3{float32(quantized[i*2]), float32(quantized[i*2+1]), 1})
	return mgl32.Vec2{v[0], v[1]}
}
