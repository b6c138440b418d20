package math

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
)

// Compose builds a TRS matrix from a position, Euler rotation in degrees
// (applied X, then Y, then Z) and a scale.
func Compose(position, rotationDeg, scale mgl64.Vec3) mgl64.Mat4 {
	rot := mgl64.HomogRotate3DZ(mgl64.DegToRad(rotationDeg[2])).
		Mul4(mgl64.HomogRotate3DY(mgl64.DegToRad(rotationDeg[1]))).
		Mul4(mgl64.HomogRotate3DX(mgl64.DegToRad(rotationDeg[0])))
	return mgl64.Translate3D(position[0], position[1], position[2]).
		Mul4(rot).
		Mul4(mgl64.Scale3D(scale[0], scale[1], scale[2]))
}

// IsIdentity reports whether m is exactly the identity matrix.
func IsIdentity(m mgl64.Mat4) bool {
	return m == mgl64.Ident4()
}

// NormalMatrix returns the inverse-transpose of m as a 4x4 matrix. A
// singular m yields the identity.
func NormalMatrix(m mgl64.Mat4) mgl64.Mat4 {
	if m.Det() == 0 {
		return mgl64.Ident4()
	}
	return m.Inv().Transpose()
}

// Mat4To32 narrows a double precision matrix for GPU upload.
func Mat4To32(m mgl64.Mat4) mgl32.Mat4 {
	var out mgl32.Mat4
	for i := range m {
		out[i] = float32(m[i])
	}
	return out
}

// TransformPositions applies m to every point of a flat position array.
func TransformPositions(m mgl64.Mat4, positions []float64) []float64 {
	out := make([]float64, len(positions))
	for i := 0; i+2 < len(positions); i += 3 {
		p := mgl64.TransformCoordinate(mgl64.Vec3{positions[i], positions[i+1], positions[i+2]}, m)
		out[i], out[i+1], out[i+2] = p[0], p[1], p[2]
	}
	return out
}
