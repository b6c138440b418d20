package layer

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"github.com/Faultbox/scenebatch/internal/engine/gpu"
	"github.com/Faultbox/scenebatch/pkg/compress"
	smath "github.com/Faultbox/scenebatch/pkg/math"
)

// DefaultMaxInstances is the instancing capacity when none is configured.
const DefaultMaxInstances = 100_000

// instancing draws one shared geometry once per portion. Each portion is
// a row of the per-instance arrays; the shared vertex and index buffers
// are uploaded once on Finalize and never touched by CreatePortion.
type instancing struct {
	common

	geometry *Geometry

	// Rows 0..2 of each instance's model and normal matrix.
	modelRows  [3][]float32
	normalRows [3][]float32
	colors     []uint8
	pickColors []uint8

	// Retained for precision picking only.
	matrices []mgl64.Mat4
}

// TrianglesInstancing instances triangle, solid and surface geometry.
type TrianglesInstancing struct{ *instancing }

// LinesInstancing instances line geometry.
type LinesInstancing struct{ *instancing }

// PointsInstancing instances point geometry.
type PointsInstancing struct{ *instancing }

func newInstancing(cfg Config) (Layer, error) {
	if cfg.Driver == nil {
		return nil, fmt.Errorf("layer: nil driver")
	}
	g := cfg.Geometry
	if g.NumVertices() == 0 {
		return nil, ErrNoPositions
	}
	if g.Primitive.NeedsIndices() && len(g.Indices) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingIndices, g.Primitive)
	}
	if err := checkIndices(g.Indices, g.NumVertices()); err != nil {
		return nil, err
	}
	if err := checkIndices(g.EdgeIndices, g.NumVertices()); err != nil {
		return nil, err
	}
	cfg.Primitive = g.Primitive
	if cfg.MaxInstances <= 0 {
		cfg.MaxInstances = DefaultMaxInstances
	}
	l := &instancing{
		common:   newCommon(cfg),
		geometry: g,
	}

	switch g.Primitive.Family() {
	case LinesFamily:
		return LinesInstancing{l}, nil
	case PointsFamily:
		return PointsInstancing{l}, nil
	default:
		return TrianglesInstancing{l}, nil
	}
}

func (l *instancing) Instancing() bool { return true }
func (l *instancing) NumVertices() int { return l.geometry.NumVertices() }
func (l *instancing) NumIndices() int  { return len(l.geometry.Indices) }

// CanCreatePortion reports whether one more instance fits. The counts are
// ignored because instances add no vertices.
func (l *instancing) CanCreatePortion(vertexCount, indexCount int) bool {
	l.mustBeOpen()
	return len(l.portions)+1 <= l.cfg.MaxInstances
}

// CreatePortion appends one instance row. cfg.MeshMatrix places the
// shared geometry relative to the layer origin.
func (l *instancing) CreatePortion(cfg PortionConfig) (int, error) {
	l.mustBeOpen()
	if !l.CanCreatePortion(0, 0) {
		return -1, fmt.Errorf("%w: %d instances", ErrCapacity, l.cfg.MaxInstances)
	}

	m := cfg.meshMatrix()
	n := smath.NormalMatrix(m)
	for r := 0; r < 3; r++ {
		l.modelRows[r] = appendRow(l.modelRows[r], m, r)
		l.normalRows[r] = appendRow(l.normalRows[r], n, r)
	}
	l.colors = append(l.colors, cfg.Color[:]...)
	l.pickColors = append(l.pickColors, cfg.PickColor[:]...)
	if l.cfg.PrecisionPicking {
		l.matrices = append(l.matrices, m)
	}

	instanceAABB := smath.TransformAABB(m, l.geometry.AABB)
	l.aabb.Expand(instanceAABB)
	if cfg.AABB != nil {
		cfg.AABB.Expand(instanceAABB.Translate(l.cfg.Origin))
	}

	return l.addPortion(Portion{
		VertexBase:     len(l.portions),
		VertexCount:    1,
		IndexCount:     len(l.geometry.Indices),
		EdgeIndexCount: len(l.geometry.EdgeIndices),
	}), nil
}

func appendRow(dst []float32, m mgl64.Mat4, row int) []float32 {
	return append(dst,
		float32(m.At(row, 0)),
		float32(m.At(row, 1)),
		float32(m.At(row, 2)),
		float32(m.At(row, 3)),
	)
}

// Finalize uploads the shared geometry and the instance rows.
func (l *instancing) Finalize() error {
	l.mustBeOpen()

	l.numRows = len(l.portions)
	l.bufs.PositionsDecodeMatrix = l.geometry.PositionsDecodeMatrix
	l.bufs.UVsDecodeMatrix = mgl32.Ident3()

	if l.numRows > 0 {
		if err := l.upload(); err != nil {
			for _, buf := range l.bufs.all() {
				_ = buf.Destroy()
			}
			l.bufs = Buffers{}
			return err
		}
	}

	l.log.Debug("finalized instancing layer",
		zap.Int("layer", l.index),
		zap.Stringer("primitive", l.cfg.Primitive),
		zap.Int("instances", l.numRows),
		zap.Int("vertices", l.geometry.NumVertices()),
	)

	l.modelRows, l.normalRows = [3][]float32{}, [3][]float32{}
	l.colors, l.pickColors = nil, nil
	l.finalized = true
	return nil
}

func (l *instancing) upload() error {
	d := l.cfg.Driver
	g := l.geometry
	var err error

	if l.bufs.Positions, err = gpu.NewBuffer(d, gpu.ArrayBuffer, g.PositionsCompressed, 3, false, gpu.StaticDraw); err != nil {
		return fmt.Errorf("positions buffer: %w", err)
	}
	if l.withEdges && len(g.NormalsCompressed) > 0 {
		if l.bufs.Normals, err = gpu.NewBuffer(d, gpu.ArrayBuffer, g.NormalsCompressed, 3, true, gpu.StaticDraw); err != nil {
			return fmt.Errorf("normals buffer: %w", err)
		}
	}
	if len(g.UVsCompressed) > 0 {
		if l.bufs.UVs, err = gpu.NewBuffer(d, gpu.ArrayBuffer, g.UVsCompressed, 2, false, gpu.StaticDraw); err != nil {
			return fmt.Errorf("uvs buffer: %w", err)
		}
		l.bufs.UVsDecodeMatrix = g.UVsDecodeMatrix
	}
	if len(g.Indices) > 0 {
		if l.bufs.Indices, err = indexBuffer(d, g.Indices, false); err != nil {
			return fmt.Errorf("indices buffer: %w", err)
		}
	}
	if l.withEdges && len(g.EdgeIndices) > 0 {
		if l.bufs.EdgeIndices, err = indexBuffer(d, g.EdgeIndices, false); err != nil {
			return fmt.Errorf("edge indices buffer: %w", err)
		}
	}

	for r := 0; r < 3; r++ {
		if l.bufs.ModelMatrixRows[r], err = gpu.NewBuffer(d, gpu.ArrayBuffer, l.modelRows[r], 4, false, gpu.StaticDraw); err != nil {
			return fmt.Errorf("model matrix buffer: %w", err)
		}
		if l.bufs.NormalMatrixRows[r], err = gpu.NewBuffer(d, gpu.ArrayBuffer, l.normalRows[r], 4, false, gpu.StaticDraw); err != nil {
			return fmt.Errorf("normal matrix buffer: %w", err)
		}
	}
	if l.bufs.Colors, err = gpu.NewBuffer(d, gpu.ArrayBuffer, l.colors, 4, true, gpu.DynamicDraw); err != nil {
		return fmt.Errorf("colors buffer: %w", err)
	}
	if l.bufs.PickColors, err = gpu.NewBuffer(d, gpu.ArrayBuffer, l.pickColors, 4, false, gpu.StaticDraw); err != nil {
		return fmt.Errorf("pick colors buffer: %w", err)
	}
	return l.createFlagBuffers()
}

// PrecisionPickGeometry returns the shared geometry placed by one
// instance's matrix, in world space.
func (l *instancing) PrecisionPickGeometry(portionID int) ([]float64, []uint32, bool) {
	if !l.cfg.PrecisionPicking || !l.finalized {
		return nil, nil, false
	}
	p, err := l.portion(portionID)
	if err != nil {
		return nil, nil, false
	}
	shift := l.cfg.Origin.Add(mgl64.Vec3{float64(p.offset[0]), float64(p.offset[1]), float64(p.offset[2])})
	world := mgl64.Translate3D(shift[0], shift[1], shift[2]).Mul4(l.matrices[portionID])
	local := compress.DecompressPositions(l.geometry.PositionsCompressed, l.geometry.PositionsDecodeMatrix)
	return smath.TransformPositions(world, local), append([]uint32(nil), l.geometry.Indices...), true
}
