package scenefile

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

// boxFaces lists each face's normal and its four corners as signs of the
// half extents.
var boxFaces = [6]struct {
	normal  [3]float32
	corners [4][3]float64
}{
	{[3]float32{1, 0, 0}, [4][3]float64{{1, -1, -1}, {1, 1, -1}, {1, 1, 1}, {1, -1, 1}}},
	{[3]float32{-1, 0, 0}, [4][3]float64{{-1, -1, 1}, {-1, 1, 1}, {-1, 1, -1}, {-1, -1, -1}}},
	{[3]float32{0, 1, 0}, [4][3]float64{{-1, 1, -1}, {-1, 1, 1}, {1, 1, 1}, {1, 1, -1}}},
	{[3]float32{0, -1, 0}, [4][3]float64{{-1, -1, 1}, {-1, -1, -1}, {1, -1, -1}, {1, -1, 1}}},
	{[3]float32{0, 0, 1}, [4][3]float64{{-1, -1, 1}, {1, -1, 1}, {1, 1, 1}, {-1, 1, 1}}},
	{[3]float32{0, 0, -1}, [4][3]float64{{1, -1, -1}, {-1, -1, -1}, {-1, 1, -1}, {1, 1, -1}}},
}

// Box returns a flat-shaded box of the given size centred on the origin.
// A zero size means a unit box.
func Box(size mgl64.Vec3) (positions []float64, normals []float32, indices []uint32) {
	if size == (mgl64.Vec3{}) {
		size = mgl64.Vec3{1, 1, 1}
	}
	half := size.Mul(0.5)
	positions = make([]float64, 0, 24*3)
	normals = make([]float32, 0, 24*3)
	indices = make([]uint32, 0, 36)
	for f, face := range boxFaces {
		for _, c := range face.corners {
			positions = append(positions, c[0]*half[0], c[1]*half[1], c[2]*half[2])
			normals = append(normals, face.normal[:]...)
		}
		base := uint32(f * 4)
		indices = append(indices, base, base+1, base+2, base, base+2, base+3)
	}
	return positions, normals, indices
}

// Grid describes n×n unit boxes spaced apart on the XZ plane, one object
// per box. Instanced grids share one geometry; others batch every box.
func Grid(n int, spacing float64, instanced bool) *File {
	if spacing <= 0 {
		spacing = 2
	}
	f := &File{Model: ModelSpec{ID: fmt.Sprintf("grid-%d", n)}}
	if instanced {
		f.Geometries = []GeometrySpec{{ID: "box", Arrays: Arrays{Shape: "box"}}}
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			id := fmt.Sprintf("box-%d-%d", i, j)
			color := [3]float32{float32(i) / float32(max(n-1, 1)), 0.5, float32(j) / float32(max(n-1, 1))}
			mesh := MeshSpec{
				ID:       id,
				Position: [3]float64{float64(i) * spacing, 0, float64(j) * spacing},
				Color:    &color,
			}
			if instanced {
				mesh.Geometry = "box"
			} else {
				mesh.Shape = "box"
			}
			f.Meshes = append(f.Meshes, mesh)
			f.Objects = append(f.Objects, ObjectSpec{ID: id, Meshes: []string{id}})
		}
	}
	return f
}
