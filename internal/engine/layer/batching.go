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

// Default batching capacity.
const (
	DefaultMaxVertices = 5_000_000
	DefaultMaxIndices  = 3 * DefaultMaxVertices
	// MaxVertices16 is the vertex limit when indices are 16 bit.
	MaxVertices16 = 1 << 16
)

// batching accumulates portions into host arrays while open and uploads
// them in one go on Finalize. Positions arrive as floats and are quantized
// against the whole layer's box, unless the layer is pre-quantized.
type batching struct {
	common

	preQuantized bool
	decode       mgl64.Mat4

	positions   []float64
	quantized   []uint16
	normals     []int8
	colors      []uint8
	pickColors  []uint8
	uvs         []float32
	hasUVs      bool
	indices     []uint32
	edgeIndices []uint32

	numVertices int
	numIndices  int
}

// TrianglesBatching holds triangle, solid and surface portions.
type TrianglesBatching struct{ *batching }

// LinesBatching holds line portions. It has no normals and no edges pass.
type LinesBatching struct{ *batching }

// PointsBatching holds point portions. Indices are optional.
type PointsBatching struct{ *batching }

func newBatching(cfg Config) (Layer, error) {
	if cfg.Driver == nil {
		return nil, fmt.Errorf("layer: nil driver")
	}
	if cfg.MaxVertices <= 0 {
		cfg.MaxVertices = DefaultMaxVertices
	}
	if cfg.MaxIndices <= 0 {
		cfg.MaxIndices = DefaultMaxIndices
	}
	b := &batching{
		common: newCommon(cfg),
		decode: mgl64.Ident4(),
	}
	if cfg.PositionsDecodeMatrix != nil {
		b.preQuantized = true
		b.decode = *cfg.PositionsDecodeMatrix
	}

	switch cfg.Primitive.Family() {
	case LinesFamily:
		return LinesBatching{b}, nil
	case PointsFamily:
		return PointsBatching{b}, nil
	default:
		return TrianglesBatching{b}, nil
	}
}

func (b *batching) Instancing() bool { return false }
func (b *batching) NumVertices() int { return b.numVertices }
func (b *batching) NumIndices() int  { return b.numIndices }

// CanCreatePortion reports whether vertexCount vertices and indexCount
// indices still fit. Filling the layer exactly to capacity is allowed.
func (b *batching) CanCreatePortion(vertexCount, indexCount int) bool {
	b.mustBeOpen()
	return b.numVertices+vertexCount <= b.cfg.MaxVertices &&
		b.numIndices+indexCount <= b.cfg.MaxIndices
}

// CreatePortion appends a mesh's geometry and returns its portion id.
func (b *batching) CreatePortion(cfg PortionConfig) (int, error) {
	b.mustBeOpen()

	var numVerts int
	if b.preQuantized {
		numVerts = len(cfg.PositionsCompressed) / 3
	} else {
		numVerts = len(cfg.Positions) / 3
	}
	if numVerts == 0 {
		return -1, ErrNoPositions
	}
	if b.cfg.Primitive.NeedsIndices() && len(cfg.Indices) == 0 {
		return -1, fmt.Errorf("%w: %s", ErrMissingIndices, b.cfg.Primitive)
	}
	if err := checkIndices(cfg.Indices, numVerts); err != nil {
		return -1, err
	}
	if err := checkIndices(cfg.EdgeIndices, numVerts); err != nil {
		return -1, err
	}
	if len(cfg.Colors) != 0 && len(cfg.Colors) != numVerts*4 {
		return -1, fmt.Errorf("%w: %d colors for %d vertices", ErrBadArrayLength, len(cfg.Colors), numVerts)
	}
	if len(cfg.UVs) != 0 && len(cfg.UVs) != numVerts*2 {
		return -1, fmt.Errorf("%w: %d uvs for %d vertices", ErrBadArrayLength, len(cfg.UVs), numVerts)
	}
	if !b.CanCreatePortion(numVerts, len(cfg.Indices)) {
		return -1, fmt.Errorf("%w: %d vertices, %d indices into %d/%d",
			ErrCapacity, numVerts, len(cfg.Indices), b.numVertices, b.cfg.MaxVertices)
	}

	m := cfg.meshMatrix()
	vertexBase := b.numVertices

	var portionAABB smath.AABB
	if b.preQuantized {
		b.quantized = append(b.quantized, cfg.PositionsCompressed...)
		portionAABB = compress.DecodedAABB(cfg.PositionsCompressed, b.decode)
	} else {
		positions := cfg.Positions
		if !smath.IsIdentity(m) {
			positions = smath.TransformPositions(m, positions)
		}
		b.positions = append(b.positions, positions...)
		portionAABB = smath.PositionsAABB(positions)
	}
	b.aabb.Expand(portionAABB)
	if cfg.AABB != nil {
		cfg.AABB.Expand(portionAABB.Translate(b.cfg.Origin))
	}

	if b.withEdges {
		normals, err := portionNormals(&cfg, m, numVerts, b.normals)
		if err != nil {
			return -1, err
		}
		b.normals = normals
	}

	if len(cfg.Colors) > 0 {
		b.colors = append(b.colors, cfg.Colors...)
	} else {
		b.colors = append(b.colors, repeat(cfg.Color[:], numVerts)...)
	}
	b.pickColors = append(b.pickColors, repeat(cfg.PickColor[:], numVerts)...)

	switch {
	case len(cfg.UVs) > 0:
		if !b.hasUVs {
			b.uvs = make([]float32, b.numVertices*2, (b.numVertices+numVerts)*2)
			b.hasUVs = true
		}
		b.uvs = append(b.uvs, cfg.UVs...)
	case b.hasUVs:
		b.uvs = append(b.uvs, make([]float32, numVerts*2)...)
	}

	p := Portion{
		VertexBase:    vertexBase,
		VertexCount:   numVerts,
		IndexBase:     b.numIndices,
		IndexCount:    len(cfg.Indices),
		EdgeIndexBase: len(b.edgeIndices),
	}
	for _, idx := range cfg.Indices {
		b.indices = append(b.indices, idx+uint32(vertexBase))
	}
	if b.withEdges {
		for _, idx := range cfg.EdgeIndices {
			b.edgeIndices = append(b.edgeIndices, idx+uint32(vertexBase))
		}
		p.EdgeIndexCount = len(cfg.EdgeIndices)
	}
	if b.cfg.PrecisionPicking {
		p.indices = append([]uint32(nil), cfg.Indices...)
	}

	b.numVertices += numVerts
	b.numIndices += len(cfg.Indices)
	return b.addPortion(p), nil
}

// portionNormals appends oct encoded normals for one portion to out,
// rotated by the normal matrix of m. A portion without normals gets zeros.
func portionNormals(cfg *PortionConfig, m mgl64.Mat4, numVerts int, out []int8) ([]int8, error) {
	switch {
	case len(cfg.Normals) > 0:
		if len(cfg.Normals) != numVerts*3 {
			return nil, fmt.Errorf("%w: %d normals for %d vertices", ErrBadArrayLength, len(cfg.Normals)/3, numVerts)
		}
		return compress.TransformAndOctEncodeNormals(smath.NormalMatrix(m), cfg.Normals, out), nil
	case len(cfg.NormalsCompressed) > 0:
		if len(cfg.NormalsCompressed) != numVerts*3 {
			return nil, fmt.Errorf("%w: %d normals for %d vertices", ErrBadArrayLength, len(cfg.NormalsCompressed)/3, numVerts)
		}
		if smath.IsIdentity(m) {
			return append(out, cfg.NormalsCompressed...), nil
		}
		return compress.TransformAndOctEncodeNormals(smath.NormalMatrix(m), decodeNormals(cfg.NormalsCompressed), out), nil
	default:
		return append(out, make([]int8, numVerts*3)...), nil
	}
}

func decodeNormals(oct []int8) []float32 {
	out := make([]float32, 0, len(oct))
	for i := 0; i+2 < len(oct); i += 3 {
		n := compress.OctDecode(oct[i], oct[i+1])
		out = append(out, n[0], n[1], n[2])
	}
	return out
}

func checkIndices(indices []uint32, numVerts int) error {
	for _, idx := range indices {
		if int(idx) >= numVerts {
			return fmt.Errorf("%w: index %d >= %d vertices", ErrBadArrayLength, idx, numVerts)
		}
	}
	return nil
}

// Finalize quantizes and uploads the accumulated arrays. The layer
// accepts no more portions afterwards.
func (b *batching) Finalize() error {
	b.mustBeOpen()

	if !b.preQuantized {
		b.quantized, b.decode = compress.QuantizePositions(b.positions, b.aabb)
	}
	b.numRows = b.numVertices
	b.bufs.PositionsDecodeMatrix = b.decode

	if b.numVertices > 0 {
		if err := b.upload(); err != nil {
			for _, buf := range b.bufs.all() {
				_ = buf.Destroy()
			}
			b.bufs = Buffers{}
			return err
		}
	}

	if b.cfg.PrecisionPicking {
		for i := range b.portions {
			p := &b.portions[i]
			p.quantized = append([]uint16(nil), b.quantized[p.VertexBase*3:(p.VertexBase+p.VertexCount)*3]...)
		}
	}

	b.log.Debug("finalized batching layer",
		zap.Int("layer", b.index),
		zap.Stringer("primitive", b.cfg.Primitive),
		zap.Int("portions", len(b.portions)),
		zap.Int("vertices", b.numVertices),
		zap.Int("indices", b.numIndices),
	)

	b.positions, b.quantized, b.normals = nil, nil, nil
	b.colors, b.pickColors, b.uvs = nil, nil, nil
	b.indices, b.edgeIndices = nil, nil
	b.finalized = true
	return nil
}

func (b *batching) upload() error {
	d := b.cfg.Driver
	var err error

	if b.bufs.Positions, err = gpu.NewBuffer(d, gpu.ArrayBuffer, b.quantized, 3, false, gpu.StaticDraw); err != nil {
		return fmt.Errorf("positions buffer: %w", err)
	}
	if b.withEdges {
		if b.bufs.Normals, err = gpu.NewBuffer(d, gpu.ArrayBuffer, b.normals, 3, true, gpu.StaticDraw); err != nil {
			return fmt.Errorf("normals buffer: %w", err)
		}
	}
	if b.bufs.Colors, err = gpu.NewBuffer(d, gpu.ArrayBuffer, b.colors, 4, true, gpu.DynamicDraw); err != nil {
		return fmt.Errorf("colors buffer: %w", err)
	}
	if b.bufs.PickColors, err = gpu.NewBuffer(d, gpu.ArrayBuffer, b.pickColors, 4, false, gpu.StaticDraw); err != nil {
		return fmt.Errorf("pick colors buffer: %w", err)
	}
	if b.hasUVs {
		var uvs []uint16
		uvs, b.bufs.UVsDecodeMatrix = compress.QuantizeUVs(b.uvs)
		if b.bufs.UVs, err = gpu.NewBuffer(d, gpu.ArrayBuffer, uvs, 2, false, gpu.StaticDraw); err != nil {
			return fmt.Errorf("uvs buffer: %w", err)
		}
	} else {
		b.bufs.UVsDecodeMatrix = mgl32.Ident3()
	}
	small := b.cfg.MaxVertices <= MaxVertices16
	if len(b.indices) > 0 {
		if b.bufs.Indices, err = indexBuffer(d, b.indices, small); err != nil {
			return fmt.Errorf("indices buffer: %w", err)
		}
	}
	if len(b.edgeIndices) > 0 {
		if b.bufs.EdgeIndices, err = indexBuffer(d, b.edgeIndices, small); err != nil {
			return fmt.Errorf("edge indices buffer: %w", err)
		}
	}
	return b.createFlagBuffers()
}

func indexBuffer(d gpu.Driver, indices []uint32, small bool) (*gpu.Buffer, error) {
	if !small {
		return gpu.NewBuffer(d, gpu.ElementArrayBuffer, indices, 1, false, gpu.StaticDraw)
	}
	narrow := make([]uint16, len(indices))
	for i, idx := range indices {
		narrow[i] = uint16(idx)
	}
	return gpu.NewBuffer(d, gpu.ElementArrayBuffer, narrow, 1, false, gpu.StaticDraw)
}

// PrecisionPickGeometry decodes a portion's retained positions into world
// space, offset included.
func (b *batching) PrecisionPickGeometry(portionID int) ([]float64, []uint32, bool) {
	if !b.cfg.PrecisionPicking || !b.finalized {
		return nil, nil, false
	}
	p, err := b.portion(portionID)
	if err != nil {
		return nil, nil, false
	}
	positions := compress.DecompressPositions(p.quantized, b.decode)
	shift := b.cfg.Origin.Add(mgl64.Vec3{float64(p.offset[0]), float64(p.offset[1]), float64(p.offset[2])})
	for i := 0; i+2 < len(positions); i += 3 {
		positions[i] += shift[0]
		positions[i+1] += shift[1]
		positions[i+2] += shift[2]
	}
	return positions, append([]uint32(nil), p.indices...), true
}
