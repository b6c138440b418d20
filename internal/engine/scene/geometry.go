package scene

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Faultbox/scenebatch/internal/engine/layer"
	"github.com/Faultbox/scenebatch/pkg/compress"
	smath "github.com/Faultbox/scenebatch/pkg/math"
)

// GeometryParams describes reusable geometry. Positions are given either
// as floats or pre-quantized with their decode matrix.
type GeometryParams struct {
	ID string
	// Primitive is one of points, lines, triangles, solid or surface.
	// Empty means triangles.
	Primitive string

	Positions             []float64
	PositionsCompressed   []uint16
	PositionsDecodeMatrix *mgl64.Mat4

	Normals           []float32
	NormalsCompressed []int8
	UVs               []float32
	Indices           []uint32
	EdgeIndices       []uint32
	// EdgeThreshold overrides the model's dihedral threshold in degrees
	// when edge indices are generated.
	EdgeThreshold float64
}

// Geometry is stored compressed and shared by every mesh that instances
// it.
type Geometry struct {
	ID                    string
	Primitive             layer.Primitive
	PositionsCompressed   []uint16
	PositionsDecodeMatrix mgl64.Mat4
	NormalsCompressed     []int8
	UVsCompressed         []uint16
	UVsDecodeMatrix       mgl32.Mat3
	Indices               []uint32
	EdgeIndices           []uint32
	// AABB is the local box of the decoded positions.
	AABB smath.AABB

	shared *layer.Geometry
}

// NumVertices returns the vertex count.
func (g *Geometry) NumVertices() int { return len(g.PositionsCompressed) / 3 }

// NumPrimitives returns the triangle, line or point count.
func (g *Geometry) NumPrimitives() int {
	return numPrimitives(g.Primitive, g.NumVertices(), len(g.Indices))
}

func (g *Geometry) layerGeometry() *layer.Geometry {
	if g.shared == nil {
		g.shared = &layer.Geometry{
			Primitive:             g.Primitive,
			PositionsCompressed:   g.PositionsCompressed,
			PositionsDecodeMatrix: g.PositionsDecodeMatrix,
			NormalsCompressed:     g.NormalsCompressed,
			UVsCompressed:         g.UVsCompressed,
			UVsDecodeMatrix:       g.UVsDecodeMatrix,
			Indices:               g.Indices,
			EdgeIndices:           g.EdgeIndices,
			AABB:                  g.AABB,
		}
	}
	return g.shared
}

func numPrimitives(p layer.Primitive, numVerts, numIndices int) int {
	switch p.Family() {
	case layer.TrianglesFamily:
		return numIndices / 3
	case layer.LinesFamily:
		return numIndices / 2
	default:
		if numIndices > 0 {
			return numIndices
		}
		return numVerts
	}
}

// CreateGeometry compresses and stores geometry for instancing.
func (m *Model) CreateGeometry(p GeometryParams) (*Geometry, error) {
	if err := m.checkCreate(); err != nil {
		return nil, err
	}
	if p.ID == "" {
		return nil, errors.Wrap(ErrMissingID, "geometry")
	}
	if _, ok := m.geometries[p.ID]; ok {
		m.log.Warn("duplicate geometry id", zap.String("geometry", p.ID))
		return nil, errors.Wrapf(ErrDuplicateID, "geometry %q", p.ID)
	}
	prim, err := parsePrimitive(p.Primitive)
	if err != nil {
		return nil, errors.Wrapf(err, "geometry %q", p.ID)
	}
	if prim.NeedsIndices() && len(p.Indices) == 0 {
		return nil, errors.Wrapf(ErrMissingIndices, "geometry %q: %s", p.ID, prim)
	}

	g := &Geometry{ID: p.ID, Primitive: prim, Indices: p.Indices}

	var positions []float64
	switch {
	case len(p.PositionsCompressed) > 0:
		if p.PositionsDecodeMatrix == nil {
			return nil, errors.Wrapf(ErrMissingDecodeMatrix, "geometry %q", p.ID)
		}
		g.PositionsCompressed = p.PositionsCompressed
		g.PositionsDecodeMatrix = *p.PositionsDecodeMatrix
	case len(p.Positions) > 0:
		positions = p.Positions
		g.PositionsCompressed, g.PositionsDecodeMatrix = compress.QuantizePositions(positions, smath.PositionsAABB(positions))
	default:
		return nil, errors.Wrapf(ErrMissingPositions, "geometry %q", p.ID)
	}
	if err := checkIndices(len(g.PositionsCompressed)/3, p.Indices, p.EdgeIndices); err != nil {
		return nil, errors.Wrapf(err, "geometry %q", p.ID)
	}
	g.AABB = compress.DecodedAABB(g.PositionsCompressed, g.PositionsDecodeMatrix)

	if prim.Family() == layer.TrianglesFamily {
		decoded := func() []float64 {
			if positions == nil {
				positions = compress.DecompressPositions(g.PositionsCompressed, g.PositionsDecodeMatrix)
			}
			return positions
		}
		switch {
		case len(p.NormalsCompressed) > 0:
			g.NormalsCompressed = p.NormalsCompressed
		case len(p.Normals) > 0:
			g.NormalsCompressed = compress.OctEncodeNormals(p.Normals)
		case m.opts.AutoNormals:
			g.NormalsCompressed = compress.OctEncodeNormals(compress.BuildNormals(decoded(), p.Indices))
		}
		g.EdgeIndices = p.EdgeIndices
		if len(g.EdgeIndices) == 0 {
			g.EdgeIndices = compress.BuildEdgeIndices(decoded(), p.Indices, m.edgeThreshold(p.EdgeThreshold))
		}
	}
	if len(p.UVs) > 0 {
		g.UVsCompressed, g.UVsDecodeMatrix = compress.QuantizeUVs(p.UVs)
	} else {
		g.UVsDecodeMatrix = mgl32.Ident3()
	}

	m.geometries[p.ID] = g
	return g, nil
}

// checkIndices rejects any index past the last vertex. Edge and normal
// derivation index the positions directly.
func checkIndices(numVerts int, arrays ...[]uint32) error {
	for _, indices := range arrays {
		for i, idx := range indices {
			if int(idx) >= numVerts {
				return errors.Wrapf(ErrIndexOutOfRange, "index %d at %d, %d vertices", idx, i, numVerts)
			}
		}
	}
	return nil
}

func parsePrimitive(s string) (layer.Primitive, error) {
	if s == "" {
		return layer.Triangles, nil
	}
	return layer.ParsePrimitive(s)
}

func (m *Model) edgeThreshold(override float64) float64 {
	if override > 0 {
		return override
	}
	return m.opts.EdgeThreshold
}
