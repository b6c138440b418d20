package scene

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/scenebatch/internal/engine/picking"
)

func down(x, y float64) picking.Ray {
	return picking.NewRay(mgl64.Vec3{x, y, 5}, mgl64.Vec3{0, 0, -1})
}

func TestPickRay(t *testing.T) {
	for _, precise := range []bool{false, true} {
		_, m := newTestModel(t, Options{PrecisionPicking: precise})
		a, _ := meshAndObject(t, m, triangleMesh("a", 0))
		_, hidden := meshAndObject(t, m, triangleMesh("hidden", 2))
		require.NoError(t, m.Build())
		require.NoError(t, hidden.SetVisible(false))

		res, ok := m.PickRay(down(0.25, 0.25))
		require.True(t, ok, "precise=%v", precise)
		assert.Same(t, a, res.Mesh)
		assert.Equal(t, precise, res.Surface)
		assert.InDelta(t, 5, res.Distance, 1e-3)
		assert.InDelta(t, 0, res.Point[2], 1e-3)

		// Inside the box, outside the triangle.
		_, ok = m.PickRay(down(0.9, 0.9))
		assert.Equal(t, !precise, ok, "precise=%v", precise)

		_, ok = m.PickRay(down(2.25, 0.25))
		assert.False(t, ok, "hidden objects are not picked")
	}
}

func TestPickRayNearest(t *testing.T) {
	_, m := newTestModel(t, Options{PrecisionPicking: true})
	back := triangleMesh("back", 0)
	front := triangleMesh("front", 0)
	front.Position = mgl64.Vec3{0, 0, 1}
	meshAndObject(t, m, back)
	f, _ := meshAndObject(t, m, front)
	require.NoError(t, m.Build())

	res, ok := m.PickRay(down(0.2, 0.2))
	require.True(t, ok)
	assert.Same(t, f, res.Mesh)
	assert.InDelta(t, 4, res.Distance, 1e-3)
}

func TestPickSurfaceFollowsOffset(t *testing.T) {
	_, m := newTestModel(t, Options{PrecisionPicking: true, EntityOffsets: true})
	mesh, o := meshAndObject(t, m, triangleMesh("a", 0))
	require.NoError(t, m.Build())
	require.NoError(t, o.SetOffset(mgl64.Vec3{10, 0, 0}))

	_, ok := m.PickSurface(mesh.PickID(), down(0.25, 0.25))
	assert.False(t, ok)

	res, ok := m.PickSurface(mesh.PickID(), down(10.25, 0.25))
	require.True(t, ok)
	assert.True(t, res.Surface)
	assert.InDelta(t, 10.25, res.Point[0], 1e-9)

	_, ok = m.PickSurface(0, down(10.25, 0.25))
	assert.False(t, ok)
}

func TestPickFallsBackToRayWithoutPickID(t *testing.T) {
	_, m := newTestModel(t, Options{PrecisionPicking: true})
	a, _ := meshAndObject(t, m, triangleMesh("a", 0))
	b, _ := meshAndObject(t, m, triangleMesh("b", 2))
	require.NoError(t, m.Build())

	res, ok := m.Pick(0, down(0.25, 0.25))
	require.True(t, ok, "empty pick buffer casts a ray")
	assert.Same(t, a, res.Mesh)

	res, ok = m.Pick(b.PickID(), down(2.25, 0.25))
	require.True(t, ok)
	assert.Same(t, b, res.Mesh)
	assert.True(t, res.Surface)

	_, ok = m.Pick(b.PickID(), down(0.25, 0.25))
	assert.False(t, ok, "a pick id limits the test to its mesh")
}
