package scene

import (
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/Faultbox/scenebatch/internal/engine/layer"
	smath "github.com/Faultbox/scenebatch/pkg/math"
)

func (m *Model) NumLayers() int   { return len(m.layers) }
func (m *Model) NumMeshes() int   { return len(m.meshes) }
func (m *Model) NumObjects() int  { return len(m.objects) }
func (m *Model) NumPortions() int { return m.counters.Portions }

// NumVisibleLayerPortions returns the portions in layers with at least
// one visible portion.
func (m *Model) NumVisibleLayerPortions() int {
	n := 0
	for _, l := range m.layers {
		if c := l.Counters(); c.Visible > 0 {
			n += c.Portions
		}
	}
	return n
}

func (m *Model) numPrimitives(f layer.Family) int {
	n := 0
	for _, mesh := range m.meshOrder {
		if mesh.primitive.Family() == f {
			n += mesh.numPrimitives
		}
	}
	return n
}

func (m *Model) NumTriangles() int { return m.numPrimitives(layer.TrianglesFamily) }
func (m *Model) NumLines() int     { return m.numPrimitives(layer.LinesFamily) }
func (m *Model) NumPoints() int    { return m.numPrimitives(layer.PointsFamily) }

// AABB returns the world box of every object, offsets included.
func (m *Model) AABB() smath.AABB {
	box := smath.CollapsedAABB()
	for _, o := range m.objectOrder {
		box.Expand(o.AABB())
	}
	return box
}

// setObjects applies set to the objects named by ids, or to every object
// when ids is nil.
func (m *Model) setObjects(ids []string, on bool, set func(*SceneObject, bool) error) error {
	if ids == nil {
		var err error
		for _, o := range m.objectOrder {
			err = multierr.Append(err, set(o, on))
		}
		return err
	}
	var err error
	for _, id := range ids {
		o, ok := m.objects[id]
		if !ok {
			err = multierr.Append(err, errors.Wrapf(ErrUnknownObject, "%q", id))
			continue
		}
		err = multierr.Append(err, set(o, on))
	}
	return err
}

func (m *Model) SetObjectsVisible(ids []string, on bool) error {
	return m.setObjects(ids, on, (*SceneObject).SetVisible)
}

func (m *Model) SetObjectsXRayed(ids []string, on bool) error {
	return m.setObjects(ids, on, (*SceneObject).SetXRayed)
}

func (m *Model) SetObjectsHighlighted(ids []string, on bool) error {
	return m.setObjects(ids, on, (*SceneObject).SetHighlighted)
}

func (m *Model) SetObjectsSelected(ids []string, on bool) error {
	return m.setObjects(ids, on, (*SceneObject).SetSelected)
}

func (m *Model) SetObjectsEdges(ids []string, on bool) error {
	return m.setObjects(ids, on, (*SceneObject).SetEdges)
}

func (m *Model) SetObjectsPickable(ids []string, on bool) error {
	return m.setObjects(ids, on, (*SceneObject).SetPickable)
}

func (m *Model) SetObjectsCulled(ids []string, on bool) error {
	return m.setObjects(ids, on, (*SceneObject).SetCulled)
}

func (m *Model) SetObjectsClippable(ids []string, on bool) error {
	return m.setObjects(ids, on, (*SceneObject).SetClippable)
}

func (m *Model) SetObjectsCollidable(ids []string, on bool) error {
	return m.setObjects(ids, on, (*SceneObject).SetCollidable)
}

// The model-wide setters apply to every object.

func (m *Model) SetVisible(on bool) error     { return m.SetObjectsVisible(nil, on) }
func (m *Model) SetXRayed(on bool) error      { return m.SetObjectsXRayed(nil, on) }
func (m *Model) SetHighlighted(on bool) error { return m.SetObjectsHighlighted(nil, on) }
func (m *Model) SetSelected(on bool) error    { return m.SetObjectsSelected(nil, on) }
func (m *Model) SetEdges(on bool) error       { return m.SetObjectsEdges(nil, on) }
func (m *Model) SetPickable(on bool) error    { return m.SetObjectsPickable(nil, on) }
func (m *Model) SetCulled(on bool) error      { return m.SetObjectsCulled(nil, on) }
func (m *Model) SetClippable(on bool) error   { return m.SetObjectsClippable(nil, on) }
func (m *Model) SetCollidable(on bool) error  { return m.SetObjectsCollidable(nil, on) }
