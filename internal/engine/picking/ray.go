package picking

import (
	gomath "math"

	"github.com/go-gl/mathgl/mgl64"

	smath "github.com/Faultbox/scenebatch/pkg/math"
)

// Ray is a half line in world space.
type Ray struct {
	Origin    mgl64.Vec3
	Direction mgl64.Vec3 // Normalized
}

// NewRay returns a ray with its direction normalized.
func NewRay(origin, direction mgl64.Vec3) Ray {
	return Ray{Origin: origin, Direction: direction.Normalize()}
}

// At returns the point at distance t along the ray.
func (r Ray) At(t float64) mgl64.Vec3 {
	return r.Origin.Add(r.Direction.Mul(t))
}

// ScreenToRay converts pixel coordinates (y down) to a world-space ray.
// invViewProj is the inverse of the view-projection matrix.
func ScreenToRay(screenX, screenY, viewportW, viewportH float64, invViewProj mgl64.Mat4) Ray {
	ndcX := 2*screenX/viewportW - 1
	ndcY := 1 - 2*screenY/viewportH

	near := invViewProj.Mul4x1(mgl64.Vec4{ndcX, ndcY, -1, 1})
	far := invViewProj.Mul4x1(mgl64.Vec4{ndcX, ndcY, 1, 1})
	if near[3] != 0 {
		near = near.Mul(1 / near[3])
	}
	if far[3] != 0 {
		far = far.Mul(1 / far[3])
	}
	return NewRay(near.Vec3(), far.Vec3().Sub(near.Vec3()))
}

// IntersectAABB returns the distance to the box along the ray. A ray
// starting inside the box reports the exit distance.
func (r Ray) IntersectAABB(box smath.AABB) (t float64, hit bool) {
	tmin, tmax := -gomath.MaxFloat64, gomath.MaxFloat64
	for axis := 0; axis < 3; axis++ {
		lo, hi := box[axis], box[axis+3]
		if r.Direction[axis] == 0 {
			if r.Origin[axis] < lo || r.Origin[axis] > hi {
				return 0, false
			}
			continue
		}
		t1 := (lo - r.Origin[axis]) / r.Direction[axis]
		t2 := (hi - r.Origin[axis]) / r.Direction[axis]
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tmin = max(tmin, t1)
		tmax = min(tmax, t2)
	}
	if tmax < tmin || tmax < 0 {
		return 0, false
	}
	if tmin < 0 {
		return tmax, true
	}
	return tmin, true
}

const triangleEpsilon = 1e-12

// IntersectTriangle returns the distance to triangle abc, either side
// facing.
func (r Ray) IntersectTriangle(a, b, c mgl64.Vec3) (t float64, hit bool) {
	e1, e2 := b.Sub(a), c.Sub(a)
	p := r.Direction.Cross(e2)
	det := e1.Dot(p)
	if gomath.Abs(det) < triangleEpsilon {
		return 0, false
	}
	inv := 1 / det
	s := r.Origin.Sub(a)
	u := s.Dot(p) * inv
	if u < 0 || u > 1 {
		return 0, false
	}
	q := s.Cross(e1)
	v := r.Direction.Dot(q) * inv
	if v < 0 || u+v > 1 {
		return 0, false
	}
	t = e2.Dot(q) * inv
	return t, t >= 0
}

// IntersectTriangles returns the nearest hit over an indexed triangle
// list of flat xyz positions.
func (r Ray) IntersectTriangles(positions []float64, indices []uint32) (t float64, hit bool) {
	vertex := func(i uint32) mgl64.Vec3 {
		return mgl64.Vec3{positions[i*3], positions[i*3+1], positions[i*3+2]}
	}
	t = gomath.MaxFloat64
	for i := 0; i+2 < len(indices); i += 3 {
		if d, ok := r.IntersectTriangle(vertex(indices[i]), vertex(indices[i+1]), vertex(indices[i+2])); ok && d < t {
			t, hit = d, true
		}
	}
	if !hit {
		return 0, false
	}
	return t, true
}
