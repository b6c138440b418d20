package scene

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/scenebatch/internal/engine/layer"
	"github.com/Faultbox/scenebatch/internal/engine/picking"
)

// PickResult is a ray hit.
type PickResult struct {
	Mesh     *Mesh
	Distance float64
	// Point is the hit on the surface, or on the mesh's box when the model
	// keeps no precision geometry.
	Point   mgl64.Vec3
	Surface bool
}

// hit intersects ray with mesh, preferring its triangles over its box.
func (m *Mesh) hit(ray picking.Ray) (PickResult, bool) {
	box := m.aabb
	if m.object != nil {
		box = box.Translate(m.object.offset)
	}
	t, ok := ray.IntersectAABB(box)
	if !ok {
		return PickResult{}, false
	}
	res := PickResult{Mesh: m, Distance: t}
	if m.primitive.Family() == layer.TrianglesFamily {
		if positions, indices, precise := m.PrecisionPickGeometry(); precise {
			if t, ok = ray.IntersectTriangles(positions, indices); !ok {
				return PickResult{}, false
			}
			res.Distance, res.Surface = t, true
		}
	}
	res.Point = ray.At(res.Distance)
	return res, true
}

// PickRay returns the nearest visible, pickable mesh along ray. The model
// must be built.
func (m *Model) PickRay(ray picking.Ray) (PickResult, bool) {
	var best PickResult
	found := false
	for _, o := range m.objectOrder {
		if !o.Visible() || !o.Pickable() || o.Culled() {
			continue
		}
		if _, ok := ray.IntersectAABB(o.AABB()); !ok {
			continue
		}
		for _, mesh := range o.meshes {
			if res, ok := mesh.hit(ray); ok && (!found || res.Distance < best.Distance) {
				best, found = res, true
			}
		}
	}
	return best, found
}

// PickSurface refines a pick-buffer hit to a point on the mesh surface.
func (m *Model) PickSurface(pickID uint32, ray picking.Ray) (PickResult, bool) {
	mesh, ok := m.PickMesh(pickID)
	if !ok {
		return PickResult{}, false
	}
	return mesh.hit(ray)
}

// Pick resolves a click. pickID is what the pick buffer holds under the
// cursor; zero means no pick pass drew there, and the whole model is ray
// cast instead.
func (m *Model) Pick(pickID uint32, ray picking.Ray) (PickResult, bool) {
	if pickID == 0 {
		return m.PickRay(ray)
	}
	return m.PickSurface(pickID, ray)
}
