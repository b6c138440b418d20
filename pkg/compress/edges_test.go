package compress

import (
	"testing"
)

// cube with 8 shared corners and 12 triangles
var cubePositions = []float64{
	0, 0, 0, 1, 0, 0, 1, 1, 0, 0, 1, 0,
	0, 0, 1, 1, 0, 1, 1, 1, 1, 0, 1, 1,
}

var cubeIndices = []uint32{
	0, 2, 1, 0, 3, 2, // back
	4, 5, 6, 4, 6, 7, // front
	0, 1, 5, 0, 5, 4, // bottom
	3, 7, 6, 3, 6, 2, // top
	0, 4, 7, 0, 7, 3, // left
	1, 2, 6, 1, 6, 5, // right
}

func edgeSet(edges []uint32) map[[2]uint32]bool {
	set := make(map[[2]uint32]bool, len(edges)/2)
	for i := 0; i+1 < len(edges); i += 2 {
		a, b := edges[i], edges[i+1]
		if a > b {
			a, b = b, a
		}
		set[[2]uint32{a, b}] = true
	}
	return set
}

func TestBuildEdgeIndicesCube(t *testing.T) {
	edges := BuildEdgeIndices(cubePositions, cubeIndices, DefaultEdgeThreshold)
	set := edgeSet(edges)
	if len(set) != 12 {
		t.Fatalf("cube edges: got %d, want 12 (%v)", len(set), edges)
	}
	// Face diagonals are coplanar and must be dropped
	for _, diag := range [][2]uint32{{0, 2}, {4, 6}, {0, 5}, {3, 6}, {0, 7}, {1, 6}} {
		if set[diag] {
			t.Errorf("diagonal %v should not be an edge", diag)
		}
	}
}

func TestBuildEdgeIndicesQuadBoundary(t *testing.T) {
	positions := []float64{0, 0, 0, 1, 0, 0, 1, 1, 0, 0, 1, 0}
	indices := []uint32{0, 1, 2, 0, 2, 3}
	set := edgeSet(BuildEdgeIndices(positions, indices, DefaultEdgeThreshold))

	want := [][2]uint32{{0, 1}, {1, 2}, {2, 3}, {0, 3}}
	if len(set) != len(want) {
		t.Fatalf("quad edges: got %d, want %d", len(set), len(want))
	}
	for _, e := range want {
		if !set[e] {
			t.Errorf("missing boundary edge %v", e)
		}
	}
}

func TestBuildEdgeIndicesWeldsSeams(t *testing.T) {
	// Same quad, but each triangle has its own copy of the shared vertices
	positions := []float64{
		0, 0, 0, 1, 0, 0, 1, 1, 0,
		0, 0, 0, 1, 1, 0, 0, 1, 0,
	}
	indices := []uint32{0, 1, 2, 3, 4, 5}
	edges := BuildEdgeIndices(positions, indices, DefaultEdgeThreshold)
	if len(edges) != 8 {
		t.Errorf("welded quad: got %d indices, want 8 (%v)", len(edges), edges)
	}
}

func TestBuildEdgeIndicesThreshold(t *testing.T) {
	// Two triangles folded 30 degrees along the shared edge 0-1
	positions := []float64{
		0, 0, 0, 1, 0, 0, 0.5, 1, 0,
		0.5, -0.866, 0.5,
	}
	indices := []uint32{0, 1, 2, 1, 0, 3}

	sharp := edgeSet(BuildEdgeIndices(positions, indices, 10))
	if !sharp[[2]uint32{0, 1}] {
		t.Error("fold above threshold should keep shared edge")
	}
	smooth := edgeSet(BuildEdgeIndices(positions, indices, 45))
	if smooth[[2]uint32{0, 1}] {
		t.Error("fold below threshold should drop shared edge")
	}
}

func TestBuildEdgeIndicesDeterministic(t *testing.T) {
	first := BuildEdgeIndices(cubePositions, cubeIndices, DefaultEdgeThreshold)
	for i := 0; i < 20; i++ {
		got := BuildEdgeIndices(cubePositions, cubeIndices, DefaultEdgeThreshold)
		if len(got) != len(first) {
			t.Fatalf("run %d: length %d, want %d", i, len(got), len(first))
		}
		for j := range got {
			if got[j] != first[j] {
				t.Fatalf("run %d: index %d differs: %d vs %d", i, j, got[j], first[j])
			}
		}
	}
}

func TestBuildEdgeIndicesCompressed(t *testing.T) {
	q, decode := QuantizePositions(cubePositions, [6]float64{0, 0, 0, 1, 1, 1})
	got := edgeSet(BuildEdgeIndicesCompressed(q, decode, cubeIndices, DefaultEdgeThreshold))
	want := edgeSet(BuildEdgeIndices(cubePositions, cubeIndices, DefaultEdgeThreshold))
	if len(got) != len(want) {
		t.Fatalf("compressed edges: got %d, want %d", len(got), len(want))
	}
	for e := range want {
		if !got[e] {
			t.Errorf("missing edge %v", e)
		}
	}
}

func TestBuildNormalsQuad(t *testing.T) {
	positions := []float64{0, 0, 0, 1, 0, 0, 1, 1, 0, 0, 1, 0}
	normals := BuildNormals(positions, []uint32{0, 1, 2, 0, 2, 3})
	if len(normals) != 12 {
		t.Fatalf("length: got %d, want 12", len(normals))
	}
	for v := 0; v < 4; v++ {
		if normals[v*3] != 0 || normals[v*3+1] != 0 || normals[v*3+2] != 1 {
			t.Errorf("vertex %d normal: got %v", v, normals[v*3:v*3+3])
		}
	}
}

func TestBuildNormalsSkipsDegenerate(t *testing.T) {
	positions := []float64{0, 0, 0, 1, 0, 0, 2, 0, 0}
	normals := BuildNormals(positions, []uint32{0, 1, 2})
	for i, n := range normals {
		if n != 0 {
			t.Errorf("normal component %d: got %v, want 0", i, n)
		}
	}
}
