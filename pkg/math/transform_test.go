package math

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestComposeTranslationScale(t *testing.T) {
	m := Compose(mgl64.Vec3{10, 20, 30}, mgl64.Vec3{}, mgl64.Vec3{2, 2, 2})
	got := mgl64.TransformCoordinate(mgl64.Vec3{1, 2, 3}, m)
	want := mgl64.Vec3{12, 24, 36}
	if !got.ApproxEqual(want) {
		t.Errorf("Compose: got %v, want %v", got, want)
	}
}

func TestComposeRotation(t *testing.T) {
	m := Compose(mgl64.Vec3{}, mgl64.Vec3{0, 0, 90}, mgl64.Vec3{1, 1, 1})
	got := mgl64.TransformCoordinate(mgl64.Vec3{1, 0, 0}, m)
	want := mgl64.Vec3{0, 1, 0}
	if !got.ApproxEqualThreshold(want, 1e-9) {
		t.Errorf("Compose rotate Z 90: got %v, want %v", got, want)
	}
}

func TestNormalMatrixNonUniformScale(t *testing.T) {
	m := mgl64.Scale3D(2, 1, 1)
	n := NormalMatrix(m)
	// Normals scale by the inverse along the stretched axis
	got := mgl64.TransformNormal(mgl64.Vec3{1, 0, 0}, n)
	if !mgl64.FloatEqual(got[0], 0.5) {
		t.Errorf("NormalMatrix: got %v, want x=0.5", got)
	}

	if NormalMatrix(mgl64.Scale3D(0, 1, 1)) != mgl64.Ident4() {
		t.Error("singular matrix should yield identity normal matrix")
	}
}

func TestIsIdentity(t *testing.T) {
	if !IsIdentity(mgl64.Ident4()) {
		t.Error("identity should be identity")
	}
	if IsIdentity(mgl64.Translate3D(1, 0, 0)) {
		t.Error("translation should not be identity")
	}
}

func TestTransformPositions(t *testing.T) {
	out := TransformPositions(mgl64.Translate3D(1, 1, 1), []float64{0, 0, 0, 1, 2, 3})
	want := []float64{1, 1, 1, 2, 3, 4}
	for i := range want {
		if out[i] != want[i] {
			t.Errorf("TransformPositions[%d]: got %f, want %f", i, out[i], want[i])
		}
	}
}
