package compress

import (
	gomath "math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
)

// DefaultEdgeThreshold is the dihedral angle, in degrees, above which a
// shared edge is kept.
const DefaultEdgeThreshold = 10.0

// weldPrecision is the number of decimal places positions are compared at
// when welding coincident vertices.
const weldPrecision = 1e4

type edgeKey struct {
	a, b uint32
}

type edgeFaces struct {
	face1, face2 int
	shared       int
}

// BuildEdgeIndices returns vertex index pairs for the edges of a triangle
// mesh worth drawing: boundary edges, edges shared by more than two faces,
// and edges whose adjoining face normals differ by more than thresholdDeg.
// Coincident vertices are welded first so duplicated seams do not produce
// spurious boundaries. Output pairs are sorted, so identical input always
// yields identical output.
func BuildEdgeIndices(positions []float64, indices []uint32, thresholdDeg float64) []uint32 {
	welded, reverse := weldVertices(positions, indices)
	normals := faceNormals(positions, indices)
	thresholdDot := gomath.Cos(mgl64.DegToRad(thresholdDeg))

	edges := make(map[edgeKey]*edgeFaces)
	for i := 0; i+2 < len(indices); i += 3 {
		face := i / 3
		for j := 0; j < 3; j++ {
			e1 := welded[i+j]
			e2 := welded[i+(j+1)%3]
			if e1 == e2 {
				continue
			}
			key := edgeKey{min(e1, e2), max(e1, e2)}
			if e, ok := edges[key]; ok {
				e.face2 = face
				e.shared++
			} else {
				edges[key] = &edgeFaces{face1: face, face2: -1, shared: 1}
			}
		}
	}

	keys := make([]edgeKey, 0, len(edges))
	for key, e := range edges {
		if e.shared == 2 && normals[e.face1].Dot(normals[e.face2]) > thresholdDot {
			continue
		}
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].a != keys[j].a {
			return keys[i].a < keys[j].a
		}
		return keys[i].b < keys[j].b
	})

	out := make([]uint32, 0, len(keys)*2)
	for _, key := range keys {
		out = append(out, reverse[key.a], reverse[key.b])
	}
	return out
}

// BuildEdgeIndicesCompressed is BuildEdgeIndices over quantized positions.
func BuildEdgeIndicesCompressed(quantized []uint16, decode mgl64.Mat4, indices []uint32, thresholdDeg float64) []uint32 {
	return BuildEdgeIndices(DecompressPositions(quantized, decode), indices, thresholdDeg)
}

// weldVertices maps every index to a welded vertex id shared by all
// vertices at the same position, and each welded id back to an original
// index.
func weldVertices(positions []float64, indices []uint32) (welded []uint32, reverse map[uint32]uint32) {
	numVerts := len(positions) / 3
	lookup := make([]uint32, numVerts)
	seen := make(map[[3]int64]uint32, numVerts)
	for v := 0; v < numVerts; v++ {
		key := [3]int64{
			int64(gomath.Round(positions[v*3] * weldPrecision)),
			int64(gomath.Round(positions[v*3+1] * weldPrecision)),
			int64(gomath.Round(positions[v*3+2] * weldPrecision)),
		}
		id, ok := seen[key]
		if !ok {
			id = uint32(len(seen))
			seen[key] = id
		}
		lookup[v] = id
	}

	welded = make([]uint32, len(indices))
	reverse = make(map[uint32]uint32, len(seen))
	for i, idx := range indices {
		welded[i] = lookup[idx]
		reverse[welded[i]] = idx
	}
	return welded, reverse
}

func faceNormals(positions []float64, indices []uint32) []mgl64.Vec3 {
	normals := make([]mgl64.Vec3, len(indices)/3)
	for i := 0; i+2 < len(indices); i += 3 {
		a := vertexAt(positions, indices[i])
		b := vertexAt(positions, indices[i+1])
		c := vertexAt(positions, indices[i+2])
		n := b.Sub(a).Cross(c.Sub(a))
		if l := n.Len(); l > 0 {
			n = n.Mul(1 / l)
		}
		normals[i/3] = n
	}
	return normals
}

func vertexAt(positions []float64, idx uint32) mgl64.Vec3 {
	return mgl64.Vec3{positions[idx*3], positions[idx*3+1], positions[idx*3+2]}
}
