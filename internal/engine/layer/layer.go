package layer

import (
	"errors"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"github.com/Faultbox/scenebatch/internal/engine/gpu"
	smath "github.com/Faultbox/scenebatch/pkg/math"
)

// Usage errors. Layers panic with these; they signal a caller bug.
var (
	ErrLayerFinalized    = errors.New("layer: already finalized")
	ErrLayerNotFinalized = errors.New("layer: not finalized")
	ErrLayerDestroyed    = errors.New("layer: destroyed")
)

// Errors returned to the caller.
var (
	ErrCapacity       = errors.New("layer: portion exceeds capacity")
	ErrUnknownPortion = errors.New("layer: unknown portion")
	ErrMissingIndices = errors.New("layer: primitive requires indices")
	ErrNoPositions    = errors.New("layer: portion has no positions")
	ErrBadArrayLength = errors.New("layer: array length does not match vertex count")
)

// Layer is the contract the scene model holds. It never sees the concrete
// batching or instancing type.
type Layer interface {
	Primitive() Primitive
	Instancing() bool
	Origin() mgl64.Vec3
	TextureSetID() string
	// AABB returns the world box of every portion, origin included.
	AABB() smath.AABB

	Index() int
	SetIndex(i int)

	CanCreatePortion(vertexCount, indexCount int) bool
	CreatePortion(cfg PortionConfig) (int, error)
	Finalize() error
	Finalized() bool

	NumPortions() int
	NumVertices() int
	NumIndices() int
	Portion(id int) (Portion, bool)
	Counters() Counters
	Draw() DrawFlags
	Buffers() *Buffers

	InitFlags(portionID int, flags EntityFlags, transparent bool) error
	FlushInitFlags() error

	SetVisible(portionID int, flags EntityFlags, transparent bool) error
	SetHighlighted(portionID int, flags EntityFlags, transparent bool) error
	SetXRayed(portionID int, flags EntityFlags, transparent bool) error
	SetSelected(portionID int, flags EntityFlags, transparent bool) error
	SetEdges(portionID int, flags EntityFlags, transparent bool) error
	SetCulled(portionID int, flags EntityFlags, transparent bool) error
	SetPickable(portionID int, flags EntityFlags, transparent bool) error
	SetCollidable(portionID int, flags EntityFlags) error
	SetTransparent(portionID int, flags EntityFlags, transparent bool) error
	SetClippable(portionID int, flags EntityFlags) error
	SetColor(portionID int, color [4]uint8) error
	SetOffset(portionID int, offset mgl64.Vec3) error

	// PrecisionPickGeometry returns the world positions and local indices
	// of a portion. ok is false unless precision picking is enabled.
	PrecisionPickGeometry(portionID int) (positions []float64, indices []uint32, ok bool)

	Destroy() error
}

// Config configures a new layer.
type Config struct {
	Driver gpu.Driver
	// Materials supplies glow-through for the color pass.
	Materials *Materials
	// Model receives every counter delta this layer applies. May be nil.
	Model *Counters
	Log   *zap.Logger

	Origin       mgl64.Vec3
	TextureSetID string
	Primitive    Primitive

	// Batching capacity.
	MaxVertices int
	MaxIndices  int
	// Instancing capacity.
	MaxInstances int

	// PositionsDecodeMatrix puts a batching layer in pre-quantized mode:
	// portions must supply PositionsCompressed encoded with this matrix.
	PositionsDecodeMatrix *mgl64.Mat4

	// Geometry is the shared geometry of an instancing layer.
	Geometry *Geometry

	PrecisionPicking bool
	EntityOffsets    bool
}

// Geometry is pre-quantized geometry shared by every instance of an
// instancing layer.
type Geometry struct {
	Primitive             Primitive
	PositionsCompressed   []uint16
	PositionsDecodeMatrix mgl64.Mat4
	NormalsCompressed     []int8
	UVsCompressed         []uint16
	UVsDecodeMatrix       mgl32.Mat3
	Indices               []uint32
	EdgeIndices           []uint32
	// AABB is the decoded local box of the positions.
	AABB smath.AABB
}

// NumVertices returns the vertex count.
func (g *Geometry) NumVertices() int { return len(g.PositionsCompressed) / 3 }

// PortionConfig is one mesh's contribution to a layer.
type PortionConfig struct {
	// Positions are local floats, transformed by MeshMatrix into the
	// layer's origin-relative space. Ignored by instancing layers.
	Positions []float64
	// PositionsCompressed are used as-is by a pre-quantized layer.
	PositionsCompressed []uint16

	Normals           []float32
	NormalsCompressed []int8
	// Colors are optional per-vertex RGBA bytes overriding Color.
	Colors      []uint8
	UVs         []float32
	Indices     []uint32
	EdgeIndices []uint32

	Color     [4]uint8
	PickColor [4]uint8
	// MeshMatrix positions the portion relative to the layer origin. For
	// instancing it is the instance matrix. Nil means identity.
	MeshMatrix *mgl64.Mat4

	// AABB, if set, is expanded by the portion's world box.
	AABB *smath.AABB
}

func (cfg *PortionConfig) meshMatrix() mgl64.Mat4 {
	if cfg.MeshMatrix == nil {
		return mgl64.Ident4()
	}
	return *cfg.MeshMatrix
}

// Buffers exposes a finalized layer's GPU buffers to a renderer. Absent
// attributes are nil.
type Buffers struct {
	Positions   *gpu.Buffer
	Normals     *gpu.Buffer
	Colors      *gpu.Buffer
	PickColors  *gpu.Buffer
	UVs         *gpu.Buffer
	Offsets     *gpu.Buffer
	Indices     *gpu.Buffer
	EdgeIndices *gpu.Buffer
	Flags       *gpu.Buffer
	Flags2      *gpu.Buffer

	// Instancing only.
	ModelMatrixRows  [3]*gpu.Buffer
	NormalMatrixRows [3]*gpu.Buffer

	PositionsDecodeMatrix mgl64.Mat4
	UVsDecodeMatrix       mgl32.Mat3
}

func (b *Buffers) all() []*gpu.Buffer {
	out := []*gpu.Buffer{
		b.Positions, b.Normals, b.Colors, b.PickColors, b.UVs,
		b.Offsets, b.Indices, b.EdgeIndices, b.Flags, b.Flags2,
	}
	out = append(out, b.ModelMatrixRows[:]...)
	return append(out, b.NormalMatrixRows[:]...)
}

// New creates an open layer of the variant cfg describes: instancing when
// cfg.Geometry is set, batching otherwise.
func New(cfg Config) (Layer, error) {
	if cfg.Geometry != nil {
		return newInstancing(cfg)
	}
	return newBatching(cfg)
}
