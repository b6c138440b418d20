// Package debug provides debug visualization utilities.
package debug

import (
	"fmt"

	"go.uber.org/multierr"

	"github.com/Faultbox/scenebatch/internal/engine/layer"
	"github.com/Faultbox/scenebatch/internal/engine/scene"
	smath "github.com/Faultbox/scenebatch/pkg/math"
)

// boxEdges indexes the 12 edges of the corners returned by AABB.Corners.
var boxEdges = []uint32{
	// Near face (min Z)
	0, 1, 1, 2, 2, 3, 3, 0,
	// Far face (max Z)
	4, 5, 5, 6, 6, 7, 7, 4,
	// Connecting edges
	0, 4, 1, 5, 2, 6, 3, 7,
}

// BoundsEdgeCount is the number of line segments of a box wireframe.
const BoundsEdgeCount = 12

// BoundsLines returns lines geometry outlining box grown by padding on
// every side. An empty box yields no geometry.
func BoundsLines(box smath.AABB, padding float64) (positions []float64, indices []uint32) {
	if box.IsEmpty() {
		return nil, nil
	}
	for a := 0; a < 3; a++ {
		box[a] -= padding
		box[a+3] += padding
	}
	corners := box.Corners()
	positions = make([]float64, 0, len(corners)*3)
	for _, c := range corners {
		positions = append(positions, c[0], c[1], c[2])
	}
	return positions, append([]uint32(nil), boxEdges...)
}

// AddBoundsOverlay adds one lines object outlining each object's box to
// m, which must not be built yet. Object ids are prefixed with "bounds:".
func AddBoundsOverlay(m *scene.Model, objects []*scene.SceneObject, rgb [3]float32, padding float64) ([]*scene.SceneObject, error) {
	flags := layer.Visible | layer.Pickable
	out := make([]*scene.SceneObject, 0, len(objects))
	var err error
	for _, o := range objects {
		positions, indices := BoundsLines(o.AABB(), padding)
		if positions == nil {
			continue
		}
		id := fmt.Sprintf("bounds:%s", o.ID())
		mesh, merr := m.CreateMesh(scene.MeshParams{
			ID:        id,
			Primitive: layer.Lines.String(),
			Positions: positions,
			Indices:   indices,
			Color:     &rgb,
		})
		if merr != nil {
			err = multierr.Append(err, merr)
			continue
		}
		bounds, oerr := m.CreateObject(scene.ObjectParams{ID: id, MeshIDs: []string{mesh.ID()}, Flags: &flags})
		if oerr != nil {
			err = multierr.Append(err, oerr)
			continue
		}
		out = append(out, bounds)
	}
	return out, err
}
