package compress

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
)

// OctTolerance is the worst-case angle, in degrees, between a unit normal
// and its decoded oct encoding.
const OctTolerance = 1.5

// OctEncodeNormals encodes unit normals into the octahedral domain, one
// signed byte per axis. Each vertex takes three bytes; the third is unused
// and always zero.
func OctEncodeNormals(normals []float32) []int8 {
	return TransformAndOctEncodeNormals(mgl64.Ident4(), normals, nil)
}

// TransformAndOctEncodeNormals transforms each normal by normalMatrix,
// renormalizes it and appends its oct encoding to out.
func TransformAndOctEncodeNormals(normalMatrix mgl64.Mat4, normals []float32, out []int8) []int8 {
	identity := normalMatrix == mgl64.Ident4()
	for i := 0; i+2 < len(normals); i += 3 {
		n := mgl32.Vec3{normals[i], normals[i+1], normals[i+2]}
		if !identity {
			t := mgl64.TransformNormal(mgl64.Vec3{float64(n[0]), float64(n[1]), float64(n[2])}, normalMatrix)
			n = mgl32.Vec3{float32(t[0]), float32(t[1]), float32(t[2])}
		}
		if l := n.Len(); l > 0 {
			n = n.Mul(1 / l)
		}
		oct := OctEncode(n)
		out = append(out, oct[0], oct[1], 0)
	}
	return out
}

// OctEncode picks whichever of the four floor/ceil roundings of n decodes
// closest to n.
func OctEncode(n mgl32.Vec3) [2]int8 {
	best := octEncode(n, false, false)
	bestCos := n.Dot(OctDecode(best[0], best[1]))
	for _, c := range [][2]bool{{true, false}, {false, true}, {true, true}} {
		oct := octEncode(n, c[0], c[1])
		if cos := n.Dot(OctDecode(oct[0], oct[1])); cos > bestCos {
			best, bestCos = oct, cos
		}
	}
	return best
}

func octEncode(n mgl32.Vec3, ceilX, ceilY bool) [2]int8 {
	l1 := math32.Abs(n[0]) + math32.Abs(n[1]) + math32.Abs(n[2])
	if l1 == 0 {
		return [2]int8{}
	}
	x := n[0] / l1
	y := n[1] / l1
	if n[2] < 0 {
		x, y = (1-math32.Abs(y))*signNotZero(x), (1-math32.Abs(x))*signNotZero(y)
	}
	return [2]int8{toSnorm8(x, ceilX), toSnorm8(y, ceilY)}
}

func toSnorm8(v float32, ceil bool) int8 {
	s := v * 127
	if ceil {
		s = math32.Ceil(s)
	} else {
		s = math32.Floor(s)
	}
	if s > 127 {
		s = 127
	}
	if s < -127 {
		s = -127
	}
	return int8(s)
}

// OctDecode reverses OctEncode using the same c/127 mapping a GPU applies
// to normalized signed bytes.
func OctDecode(ox, oy int8) mgl32.Vec3 {
	x := math32.Max(float32(ox)/127, -1)
	y := math32.Max(float32(oy)/127, -1)
	z := 1 - math32.Abs(x) - math32.Abs(y)
	if z < 0 {
		x, y = (1-math32.Abs(y))*signNotZero(x), (1-math32.Abs(x))*signNotZero(y)
	}
	v := mgl32.Vec3{x, y, z}
	if l := v.Len(); l > 0 {
		v = v.Mul(1 / l)
	}
	return v
}

func signNotZero(v float32) float32 {
	if v >= 0 {
		return 1
	}
	return -1
}
