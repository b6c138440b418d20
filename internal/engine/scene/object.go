package scene

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/scenebatch/internal/engine/layer"
	"github.com/Faultbox/scenebatch/pkg/compress"
	smath "github.com/Faultbox/scenebatch/pkg/math"
)

// DefaultObjectFlags are the flags of an object created without any.
const DefaultObjectFlags = layer.Visible | layer.Pickable | layer.Clippable |
	layer.Collidable | layer.CastShadow | layer.ReceiveShadow

// ObjectParams groups meshes into an object.
type ObjectParams struct {
	// ID is generated when empty.
	ID      string
	MeshIDs []string
	// Flags defaults to DefaultObjectFlags.
	Flags    *layer.EntityFlags
	Colorize *[3]float32
	Opacity  *float32
	Offset   *mgl64.Vec3
}

// SceneObject is the unit callers show, hide and emphasize. Changes made
// before the model is built are applied by Build.
type SceneObject struct {
	id     string
	model  *Model
	meshes []*Mesh
	flags  layer.EntityFlags

	// aabb is the union of the mesh boxes; offset moves it.
	aabb   smath.AABB
	offset mgl64.Vec3

	colorize *[3]uint8
	opacity  uint8
	// opacitySet is true once an opacity was given for the whole object.
	// Until then each mesh keeps its own.
	opacitySet bool
}

// CreateObject groups existing meshes. A mesh can belong to one object
// only.
func (m *Model) CreateObject(p ObjectParams) (*SceneObject, error) {
	if err := m.checkCreate(); err != nil {
		return nil, err
	}
	id := p.ID
	if id == "" {
		id = uuid.NewString()
	}
	if _, ok := m.objects[id]; ok {
		m.log.Warn("duplicate object id", zap.String("object", id))
		return nil, errors.Wrapf(ErrDuplicateID, "object %q", id)
	}

	o := &SceneObject{
		id:      id,
		model:   m,
		flags:   DefaultObjectFlags,
		aabb:    smath.CollapsedAABB(),
		opacity: 255,
	}
	seen := make(map[string]bool, len(p.MeshIDs))
	for _, meshID := range p.MeshIDs {
		mesh, ok := m.meshes[meshID]
		if !ok {
			return nil, errors.Wrapf(ErrUnknownMesh, "object %q: mesh %q", id, meshID)
		}
		if mesh.object != nil || seen[meshID] {
			return nil, errors.Wrapf(ErrMeshInUse, "object %q: mesh %q", id, meshID)
		}
		seen[meshID] = true
		o.meshes = append(o.meshes, mesh)
		o.aabb.Expand(mesh.aabb)
	}
	for _, mesh := range o.meshes {
		mesh.object = o
	}

	if p.Flags != nil {
		o.flags = *p.Flags
	}
	if p.Colorize != nil {
		c := rgbBytes(*p.Colorize)
		o.colorize = &c
	}
	if p.Opacity != nil {
		o.opacity = compress.ColorByte(*p.Opacity)
		o.opacitySet = true
	}
	if p.Offset != nil {
		o.offset = *p.Offset
	}

	m.objects[id] = o
	m.objectOrder = append(m.objectOrder, o)
	return o, nil
}

func rgbBytes(c [3]float32) [3]uint8 {
	return [3]uint8{compress.ColorByte(c[0]), compress.ColorByte(c[1]), compress.ColorByte(c[2])}
}

func (o *SceneObject) ID() string               { return o.id }
func (o *SceneObject) Meshes() []*Mesh          { return o.meshes }
func (o *SceneObject) Flags() layer.EntityFlags { return o.flags }
func (o *SceneObject) Offset() mgl64.Vec3       { return o.offset }
func (o *SceneObject) Opacity() uint8           { return o.opacity }

func (o *SceneObject) Visible() bool     { return o.flags.Has(layer.Visible) }
func (o *SceneObject) Culled() bool      { return o.flags.Has(layer.Culled) }
func (o *SceneObject) Pickable() bool    { return o.flags.Has(layer.Pickable) }
func (o *SceneObject) Clippable() bool   { return o.flags.Has(layer.Clippable) }
func (o *SceneObject) Collidable() bool  { return o.flags.Has(layer.Collidable) }
func (o *SceneObject) XRayed() bool      { return o.flags.Has(layer.XRayed) }
func (o *SceneObject) Highlighted() bool { return o.flags.Has(layer.Highlighted) }
func (o *SceneObject) Selected() bool    { return o.flags.Has(layer.Selected) }
func (o *SceneObject) Edges() bool       { return o.flags.Has(layer.Edges) }

// Colorize returns the colorize colour, or nil when none is set.
func (o *SceneObject) Colorize() *[3]uint8 { return o.colorize }

// AABB returns the world box including the offset.
func (o *SceneObject) AABB() smath.AABB {
	if o.aabb.IsEmpty() {
		return o.aabb
	}
	return o.aabb.Translate(o.offset)
}

// NumTriangles returns the triangle count over the object's meshes.
func (o *SceneObject) NumTriangles() int {
	n := 0
	for _, m := range o.meshes {
		if m.primitive.Family() == layer.TrianglesFamily {
			n += m.numPrimitives
		}
	}
	return n
}

// NumPrimitives returns the triangle, line and point count.
func (o *SceneObject) NumPrimitives() int {
	n := 0
	for _, m := range o.meshes {
		n += m.numPrimitives
	}
	return n
}

func (o *SceneObject) SetVisible(on bool) error {
	return o.setFlag(layer.Visible, on, (*Mesh).SetVisible)
}

func (o *SceneObject) SetCulled(on bool) error {
	return o.setFlag(layer.Culled, on, (*Mesh).SetCulled)
}

func (o *SceneObject) SetPickable(on bool) error {
	return o.setFlag(layer.Pickable, on, (*Mesh).SetPickable)
}

func (o *SceneObject) SetClippable(on bool) error {
	return o.setFlag(layer.Clippable, on, (*Mesh).SetClippable)
}

func (o *SceneObject) SetCollidable(on bool) error {
	return o.setFlag(layer.Collidable, on, (*Mesh).SetCollidable)
}

func (o *SceneObject) SetXRayed(on bool) error {
	return o.setFlag(layer.XRayed, on, (*Mesh).SetXRayed)
}

func (o *SceneObject) SetHighlighted(on bool) error {
	return o.setFlag(layer.Highlighted, on, (*Mesh).SetHighlighted)
}

func (o *SceneObject) SetSelected(on bool) error {
	return o.setFlag(layer.Selected, on, (*Mesh).SetSelected)
}

func (o *SceneObject) SetEdges(on bool) error {
	return o.setFlag(layer.Edges, on, (*Mesh).SetEdges)
}

func (o *SceneObject) setFlag(bit layer.EntityFlags, on bool, apply func(*Mesh, layer.EntityFlags) error) error {
	flags := o.flags.With(bit, on)
	if flags == o.flags {
		return nil
	}
	o.flags = flags
	if !o.model.built {
		return nil
	}
	o.model.renderFlagsDirty = true
	var err error
	for _, m := range o.meshes {
		err = multierr.Append(err, apply(m, flags))
	}
	return err
}

// SetColorize tints every mesh, or restores their colours when rgb is nil.
func (o *SceneObject) SetColorize(rgb *[3]float32) error {
	if rgb == nil {
		o.colorize = nil
	} else {
		c := rgbBytes(*rgb)
		o.colorize = &c
	}
	if !o.model.built {
		return nil
	}
	var err error
	for _, m := range o.meshes {
		err = multierr.Append(err, m.SetColorize(o.colorize))
	}
	return err
}

// SetOpacity sets the opacity of every mesh, 0 to 1. Meshes already at
// that opacity are left alone.
func (o *SceneObject) SetOpacity(opacity float32) error {
	b := compress.ColorByte(opacity)
	o.opacity = b
	o.opacitySet = true
	if !o.model.built {
		return nil
	}
	o.model.renderFlagsDirty = true
	var err error
	for _, m := range o.meshes {
		err = multierr.Append(err, m.SetOpacity(b, o.flags))
	}
	return err
}

// SetOffset moves the object. The world box follows without touching the
// meshes' boxes.
func (o *SceneObject) SetOffset(offset mgl64.Vec3) error {
	o.offset = offset
	if !o.model.built {
		return nil
	}
	var err error
	for _, m := range o.meshes {
		err = multierr.Append(err, m.SetOffset(offset))
	}
	return err
}

// finalize writes the object's initial state into its layers.
func (o *SceneObject) finalize() error {
	var err error
	for _, m := range o.meshes {
		if o.opacitySet {
			err = multierr.Append(err, m.SetOpacity(o.opacity, o.flags))
		}
		if o.colorize != nil {
			err = multierr.Append(err, m.SetColorize(o.colorize))
		}
		err = multierr.Append(err, m.init(o.flags))
		if o.offset != (mgl64.Vec3{}) {
			err = multierr.Append(err, m.SetOffset(o.offset))
		}
	}
	return err
}
