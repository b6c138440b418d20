package scene

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/scenebatch/internal/engine/layer"
	smath "github.com/Faultbox/scenebatch/pkg/math"
)

// Mesh is one portion of one layer. It carries the portion's colour and
// transparency and forwards flag changes to its layer.
type Mesh struct {
	id        string
	model     *Model
	object    *SceneObject
	layer     layer.Layer
	portionID int
	pickID    uint32
	primitive layer.Primitive

	numPrimitives int
	origin        mgl64.Vec3
	aabb          smath.AABB

	color       [4]uint8
	colorize    [4]uint8
	colorizing  bool
	transparent bool

	// live is set once the portion's flags are initialized. Before that
	// colour and opacity changes are only recorded.
	live       bool
	colorDirty bool
	destroyed  bool
}

func (m *Mesh) ID() string                 { return m.id }
func (m *Mesh) PickID() uint32             { return m.pickID }
func (m *Mesh) Layer() layer.Layer         { return m.layer }
func (m *Mesh) PortionID() int             { return m.portionID }
func (m *Mesh) Primitive() layer.Primitive { return m.primitive }
func (m *Mesh) Origin() mgl64.Vec3         { return m.origin }
func (m *Mesh) Transparent() bool          { return m.transparent }
func (m *Mesh) NumPrimitives() int         { return m.numPrimitives }
func (m *Mesh) Color() [4]uint8            { return m.color }

// Object returns the object the mesh belongs to, or nil.
func (m *Mesh) Object() *SceneObject { return m.object }

// AABB returns the mesh's world box, without any object offset.
func (m *Mesh) AABB() smath.AABB { return m.aabb }

// Colorize returns the active colorize colour. ok is false when the base
// colour is in use.
func (m *Mesh) Colorize() (c [4]uint8, ok bool) { return m.colorize, m.colorizing }

func (m *Mesh) current() [4]uint8 {
	if m.colorizing {
		return m.colorize
	}
	return m.color
}

func (m *Mesh) init(flags layer.EntityFlags) error {
	if err := m.layer.InitFlags(m.portionID, flags, m.transparent); err != nil {
		return err
	}
	m.live = true
	if m.colorDirty {
		m.colorDirty = false
		return m.layer.SetColor(m.portionID, m.current())
	}
	return nil
}

func (m *Mesh) SetVisible(flags layer.EntityFlags) error {
	return m.layer.SetVisible(m.portionID, flags, m.transparent)
}

func (m *Mesh) SetHighlighted(flags layer.EntityFlags) error {
	return m.layer.SetHighlighted(m.portionID, flags, m.transparent)
}

func (m *Mesh) SetXRayed(flags layer.EntityFlags) error {
	return m.layer.SetXRayed(m.portionID, flags, m.transparent)
}

func (m *Mesh) SetSelected(flags layer.EntityFlags) error {
	return m.layer.SetSelected(m.portionID, flags, m.transparent)
}

func (m *Mesh) SetEdges(flags layer.EntityFlags) error {
	return m.layer.SetEdges(m.portionID, flags, m.transparent)
}

func (m *Mesh) SetCulled(flags layer.EntityFlags) error {
	return m.layer.SetCulled(m.portionID, flags, m.transparent)
}

func (m *Mesh) SetPickable(flags layer.EntityFlags) error {
	return m.layer.SetPickable(m.portionID, flags, m.transparent)
}

func (m *Mesh) SetCollidable(flags layer.EntityFlags) error {
	return m.layer.SetCollidable(m.portionID, flags)
}

func (m *Mesh) SetClippable(flags layer.EntityFlags) error {
	return m.layer.SetClippable(m.portionID, flags)
}

// SetColor sets the base RGB colour, keeping the opacity. A colorize
// colour, if active, stays on screen.
func (m *Mesh) SetColor(rgb [3]uint8) error {
	copy(m.color[:3], rgb[:])
	if m.colorizing {
		return nil
	}
	return m.writeColor()
}

// SetColorize overrides the base colour with rgb, or restores it when rgb
// is nil.
func (m *Mesh) SetColorize(rgb *[3]uint8) error {
	if rgb == nil {
		if !m.colorizing {
			return nil
		}
		m.colorizing = false
	} else {
		m.colorizing = true
		m.colorize = [4]uint8{rgb[0], rgb[1], rgb[2], m.color[3]}
	}
	return m.writeColor()
}

// SetOpacity sets the alpha byte. The portion's transparency is updated
// only when the value crosses between opaque and transparent.
func (m *Mesh) SetOpacity(opacity uint8, flags layer.EntityFlags) error {
	if opacity == m.color[3] {
		return nil
	}
	m.color[3] = opacity
	m.colorize[3] = opacity
	if err := m.writeColor(); err != nil {
		return err
	}
	transparent := opacity < 255
	if transparent == m.transparent {
		return nil
	}
	m.transparent = transparent
	if !m.live {
		return nil
	}
	return m.layer.SetTransparent(m.portionID, flags, transparent)
}

func (m *Mesh) writeColor() error {
	if !m.live {
		m.colorDirty = true
		return nil
	}
	return m.layer.SetColor(m.portionID, m.current())
}

// SetOffset moves the portion. It needs a model created with entity
// offsets enabled to have a visible effect.
func (m *Mesh) SetOffset(offset mgl64.Vec3) error {
	return m.layer.SetOffset(m.portionID, offset)
}

// PrecisionPickGeometry returns world positions and indices of the mesh
// when the model keeps them.
func (m *Mesh) PrecisionPickGeometry() ([]float64, []uint32, bool) {
	return m.layer.PrecisionPickGeometry(m.portionID)
}

// Destroy releases the mesh's pick id. The portion stays in its layer.
func (m *Mesh) Destroy() {
	if m.destroyed {
		return
	}
	m.destroyed = true
	if m.model != nil && m.pickID != 0 {
		_ = m.model.opts.Registry.Release(m.pickID)
	}
}
