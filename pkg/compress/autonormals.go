package compress

import (
	gomath "math"

	"github.com/go-gl/mathgl/mgl64"
)

// BuildNormals computes per-vertex normals for an indexed triangle mesh by
// averaging the face normals of every vertex at the same position. This
// reduces the faceted look of meshes that arrive without normals.
func BuildNormals(positions []float64, indices []uint32) []float32 {
	numVerts := len(positions) / 3
	faceSum := make([]mgl64.Vec3, numVerts)
	for i := 0; i+2 < len(indices); i += 3 {
		a := vertexAt(positions, indices[i])
		b := vertexAt(positions, indices[i+1])
		c := vertexAt(positions, indices[i+2])
		n := b.Sub(a).Cross(c.Sub(a))
		l := n.Len()
		if l < 1e-12 {
			continue // degenerate
		}
		n = n.Mul(1 / l)
		for j := 0; j < 3; j++ {
			faceSum[indices[i+j]] = faceSum[indices[i+j]].Add(n)
		}
	}

	// Group vertices by quantized position for O(n) lookup
	posMap := make(map[[3]int64][]int)
	for v := 0; v < numVerts; v++ {
		key := [3]int64{
			int64(gomath.Round(positions[v*3] * weldPrecision)),
			int64(gomath.Round(positions[v*3+1] * weldPrecision)),
			int64(gomath.Round(positions[v*3+2] * weldPrecision)),
		}
		posMap[key] = append(posMap[key], v)
	}

	normals := make([]float32, numVerts*3)
	for _, verts := range posMap {
		var sum mgl64.Vec3
		for _, v := range verts {
			sum = sum.Add(faceSum[v])
		}
		if l := sum.Len(); l > 0 {
			sum = sum.Mul(1 / l)
		}
		for _, v := range verts {
			normals[v*3] = float32(sum[0])
			normals[v*3+1] = float32(sum[1])
			normals[v*3+2] = float32(sum[2])
		}
	}
	return normals
}
