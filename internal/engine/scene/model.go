// Package scene assembles meshes into batching and instancing layers and
// keeps per-object render state in sync with them.
package scene

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/scenebatch/internal/engine/gpu"
	"github.com/Faultbox/scenebatch/internal/engine/layer"
	"github.com/Faultbox/scenebatch/internal/engine/picking"
	"github.com/Faultbox/scenebatch/internal/engine/renderflags"
	"github.com/Faultbox/scenebatch/internal/logger"
	"github.com/Faultbox/scenebatch/pkg/compress"
	smath "github.com/Faultbox/scenebatch/pkg/math"
)

// DefaultOriginTolerance is the distance under which two origins share a
// layer.
const DefaultOriginTolerance = 1e-3

// Options configures a Model.
type Options struct {
	// ID is generated when empty.
	ID     string
	Driver gpu.Driver
	// Registry hands out pick ids. Models rendered into the same pick
	// buffer must share one. A private registry is created when nil.
	Registry *picking.Registry
	// Origin is added to every mesh origin.
	Origin        mgl64.Vec3
	Materials     *layer.Materials
	SectionPlanes renderflags.SectionPlanes

	MaxBatchVertices int
	MaxBatchIndices  int
	MaxInstances     int
	// IndexBits of 16 caps batching layers at 65536 vertices.
	IndexBits int

	// EdgeThreshold is the dihedral angle in degrees above which an edge
	// is drawn.
	EdgeThreshold float64
	// OriginTolerance is how far apart two origins may be and still share
	// a layer.
	OriginTolerance float64
	// RTCCellSize is the grid large coordinates are re-centred on.
	// Negative disables re-centring.
	RTCCellSize float64

	PrecisionPicking bool
	EntityOffsets    bool
	// AutoNormals builds normals for triangle geometry given without.
	AutoNormals bool

	Log *zap.Logger
}

func (o *Options) setDefaults() {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	if o.Registry == nil {
		o.Registry = picking.NewRegistry()
	}
	if o.Materials == nil {
		o.Materials = layer.DefaultMaterials()
	}
	if o.MaxBatchVertices <= 0 {
		o.MaxBatchVertices = layer.DefaultMaxVertices
	}
	if o.MaxBatchIndices <= 0 {
		o.MaxBatchIndices = layer.DefaultMaxIndices
	}
	if o.MaxInstances <= 0 {
		o.MaxInstances = layer.DefaultMaxInstances
	}
	if o.IndexBits == 16 && o.MaxBatchVertices > layer.MaxVertices16 {
		o.MaxBatchVertices = layer.MaxVertices16
	}
	if o.EdgeThreshold <= 0 {
		o.EdgeThreshold = compress.DefaultEdgeThreshold
	}
	if o.OriginTolerance <= 0 {
		o.OriginTolerance = DefaultOriginTolerance
	}
	if o.RTCCellSize == 0 {
		o.RTCCellSize = smath.DefaultRTCCellSize
	}
}

type batchKey struct {
	origin       [3]int64
	textureSetID string
	primitive    layer.Primitive
	// quantized layers are keyed by their decode matrix too.
	quantized bool
	decode    mgl64.Mat4
}

type instanceKey struct {
	origin       [3]int64
	textureSetID string
	geometryID   string
}

// Model owns the layers of one loaded model and the objects drawn from
// them. It is not safe for concurrent use.
type Model struct {
	opts Options
	log  *zap.Logger

	geometries  map[string]*Geometry
	textures    map[string]*Texture
	textureSets map[string]*TextureSet
	meshes      map[string]*Mesh
	meshOrder   []*Mesh
	objects     map[string]*SceneObject
	objectOrder []*SceneObject

	layers         []layer.Layer
	openBatching   map[batchKey]layer.Layer
	openInstancing map[instanceKey]layer.Layer

	counters         layer.Counters
	renderFlags      *renderflags.RenderFlags
	renderFlagsDirty bool

	onBuilt   []func(*Model)
	built     bool
	destroyed bool
}

// New creates an empty model.
func New(opts Options) (*Model, error) {
	if opts.Driver == nil {
		return nil, errors.New("scene: nil driver")
	}
	opts.setDefaults()
	log := opts.Log
	if log == nil {
		log = logger.Named("scene")
	}
	return &Model{
		opts:           opts,
		log:            log.With(zap.String("model", opts.ID)),
		geometries:     make(map[string]*Geometry),
		textures:       make(map[string]*Texture),
		textureSets:    make(map[string]*TextureSet),
		meshes:         make(map[string]*Mesh),
		objects:        make(map[string]*SceneObject),
		openBatching:   make(map[batchKey]layer.Layer),
		openInstancing: make(map[instanceKey]layer.Layer),
		renderFlags:    renderflags.New(),
	}, nil
}

func (m *Model) ID() string                  { return m.opts.ID }
func (m *Model) Built() bool                 { return m.built }
func (m *Model) Destroyed() bool             { return m.destroyed }
func (m *Model) Registry() *picking.Registry { return m.opts.Registry }
func (m *Model) Materials() *layer.Materials { return m.opts.Materials }

func (m *Model) checkCreate() error {
	if m.destroyed {
		return ErrDestroyed
	}
	if m.built {
		return ErrAlreadyBuilt
	}
	return nil
}

// Geometry returns a geometry by id.
func (m *Model) Geometry(id string) (*Geometry, bool) {
	g, ok := m.geometries[id]
	return g, ok
}

// Texture returns a texture by id.
func (m *Model) Texture(id string) (*Texture, bool) {
	t, ok := m.textures[id]
	return t, ok
}

// TextureSet returns a texture set by id.
func (m *Model) TextureSet(id string) (*TextureSet, bool) {
	ts, ok := m.textureSets[id]
	return ts, ok
}

// Mesh returns a mesh by id.
func (m *Model) Mesh(id string) (*Mesh, bool) {
	mesh, ok := m.meshes[id]
	return mesh, ok
}

// Object returns an object by id.
func (m *Model) Object(id string) (*SceneObject, bool) {
	o, ok := m.objects[id]
	return o, ok
}

// Objects returns the objects in creation order.
func (m *Model) Objects() []*SceneObject { return m.objectOrder }

// Layers returns the layers in index order. Open layers are included
// until Build.
func (m *Model) Layers() []layer.Layer { return m.layers }

// OnBuilt registers fn to run at the end of Build.
func (m *Model) OnBuilt(fn func(*Model)) {
	m.onBuilt = append(m.onBuilt, fn)
}

// Build finalizes every open layer, writes the initial state of every
// object and notifies OnBuilt listeners. Nothing can be created after.
//
// If a layer fails to upload the model stays unbuilt and the failed
// layers stay open, so Build may be called again.
func (m *Model) Build() error {
	if err := m.checkCreate(); err != nil {
		return err
	}
	start := time.Now()

	var err error
	for _, l := range m.layers {
		if !l.Finalized() {
			err = multierr.Append(err, l.Finalize())
		}
	}
	if err != nil {
		m.log.Error("finalizing layers failed", zap.Error(err))
		return errors.Wrap(err, "build")
	}
	for i, l := range m.layers {
		l.SetIndex(i)
	}
	clear(m.openBatching)
	clear(m.openInstancing)
	m.built = true

	for _, o := range m.objectOrder {
		err = multierr.Append(err, o.finalize())
	}
	for _, l := range m.layers {
		err = multierr.Append(err, l.FlushInitFlags())
	}

	orphans := 0
	for _, mesh := range m.meshOrder {
		if mesh.object == nil {
			orphans++
		}
	}
	if orphans > 0 {
		m.log.Warn("meshes without an object are never drawn", zap.Int("meshes", orphans))
	}

	m.RebuildRenderFlags()
	m.log.Info("model built",
		zap.Int("layers", len(m.layers)),
		zap.Int("objects", len(m.objects)),
		zap.Int("meshes", len(m.meshes)),
		zap.Int("triangles", m.NumTriangles()),
		zap.Duration("elapsed", time.Since(start)),
	)
	for _, fn := range m.onBuilt {
		fn(m)
	}
	return err
}

// RebuildRenderFlags recomputes the render flags from the layer counters.
func (m *Model) RebuildRenderFlags() {
	layers := make([]renderflags.LayerCounters, len(m.layers))
	for i, l := range m.layers {
		layers[i] = l
	}
	m.renderFlags.Rebuild(m.counters, layers, m.opts.Materials, m.opts.SectionPlanes)
	m.renderFlagsDirty = false
}

// RenderFlags returns the current render flags, rebuilding them if an
// object changed since the last call.
func (m *Model) RenderFlags() *renderflags.RenderFlags {
	if m.renderFlagsDirty {
		m.RebuildRenderFlags()
	}
	return m.renderFlags
}

// Counters returns the model-wide counters, the sum over every layer.
func (m *Model) Counters() layer.Counters { return m.counters }

// PickMesh returns the mesh drawn with pickID, if it belongs to this
// model.
func (m *Model) PickMesh(pickID uint32) (*Mesh, bool) {
	owner, ok := m.opts.Registry.Lookup(pickID)
	if !ok {
		return nil, false
	}
	mesh, ok := owner.(*Mesh)
	if !ok || mesh.model != m {
		return nil, false
	}
	return mesh, true
}

// Destroy releases every GPU resource and pick id. Calling it again does
// nothing.
func (m *Model) Destroy() error {
	if m.destroyed {
		return nil
	}
	m.destroyed = true
	var err error
	for _, l := range m.layers {
		err = multierr.Append(err, l.Destroy())
	}
	for _, mesh := range m.meshOrder {
		mesh.Destroy()
	}
	for _, t := range m.textures {
		err = multierr.Append(err, m.opts.Driver.DestroyTexture(t.Handle))
	}
	m.layers = nil
	m.renderFlags.Reset()
	m.log.Debug("model destroyed")
	return err
}
