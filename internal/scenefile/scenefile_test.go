package scenefile

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/scenebatch/internal/engine/gpu"
	"github.com/Faultbox/scenebatch/internal/engine/scene"
	"github.com/Faultbox/scenebatch/pkg/compress"
)

const sample = `
model:
  id: sample
geometries:
  - id: crate
    shape: box
    size: [2, 2, 2]
textures:
  - id: checker
    width: 2
    height: 1
    rgba: [0, 0, 0, 255, 255, 255, 255, 255]
    min_filter: nearest
    mag_filter: bogus
texture_sets:
  - id: crates
    color: checker
meshes:
  - id: crate-1
    geometry: crate
    texture_set: crates
    position: [10, 0, 0]
  - id: floor
    positions: [0, 0, 0, 1, 0, 0, 1, 0, 1, 0, 0, 1]
    indices: [0, 1, 2, 0, 2, 3]
    color: [0.2, 0.2, 0.2]
  - id: rail
    primitive: lines
    positions: [0, 1, 0, 1, 1, 0]
    indices: [0, 1]
objects:
  - id: crate-1
    meshes: [crate-1]
    highlighted: true
  - id: floor
    meshes: [floor, rail]
    pickable: false
    opacity: 0.5
`

func newModel(t *testing.T, f *File) *scene.Model {
	t.Helper()
	m, err := scene.New(f.Options(scene.Options{Driver: gpu.NewMemoryDriver(), Log: zap.NewNop()}))
	require.NoError(t, err)
	return m
}

func TestApplySample(t *testing.T) {
	f, err := Parse([]byte(sample))
	require.NoError(t, err)
	m := newModel(t, f)
	require.NoError(t, f.Apply(m))
	require.NoError(t, m.Build())

	assert.Equal(t, "sample", m.ID())
	assert.Equal(t, 2, m.NumObjects())
	assert.Equal(t, 3, m.NumMeshes())
	assert.Equal(t, 12+2, m.NumTriangles())
	assert.Equal(t, 1, m.NumLines())

	tex, ok := m.Texture("checker")
	require.True(t, ok)
	assert.Equal(t, gpu.NearestFilter, tex.Desc.MinFilter)
	assert.Equal(t, gpu.DefaultMagFilter, tex.Desc.MagFilter, "unknown names fall back")

	crate, ok := m.Object("crate-1")
	require.True(t, ok)
	assert.True(t, crate.Highlighted())
	assert.InDelta(t, 9, crate.AABB().Min()[0], 1e-3)
	mesh := crate.Meshes()[0]
	assert.True(t, mesh.Layer().Instancing())
	assert.Equal(t, "crates", mesh.Layer().TextureSetID())

	floor, ok := m.Object("floor")
	require.True(t, ok)
	assert.False(t, floor.Pickable())
	assert.Equal(t, compress.ColorByte(0.5), floor.Opacity())
	assert.Equal(t, 2, m.Counters().Transparent, "both floor meshes")
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("meshes: {not: a list}"), 0644))
	_, err = Load(path)
	assert.Error(t, err)

	f, err := Parse([]byte("geometries:\n  - id: g\n    shape: sphere\n"))
	require.NoError(t, err)
	assert.ErrorContains(t, f.Apply(newModel(t, f)), "unknown shape")

	f, err = Parse([]byte("meshes:\n  - id: m\n    shape: box\n    matrix: [1, 0, 0]\n"))
	require.NoError(t, err)
	assert.ErrorContains(t, f.Apply(newModel(t, f)), "16 values")

	f, err = Parse([]byte("objects:\n  - id: o\n    meshes: [nope]\n"))
	require.NoError(t, err)
	assert.ErrorIs(t, f.Apply(newModel(t, f)), scene.ErrUnknownMesh)
}

func TestApplyKeepsLoadingPastBadEntries(t *testing.T) {
	f, err := Parse([]byte(`
geometries:
  - id: broken
    positions: [0, 0, 0, 1, 0, 0, 0, 1, 0]
    indices: [0, 1, 9]
meshes:
  - id: torn
    positions: [0, 0, 0, 1, 0, 0, 0, 1, 0]
    indices: [0, 1, 7]
  - id: good
    positions: [0, 0, 0, 1, 0, 0, 0, 1, 0]
    indices: [0, 1, 2]
objects:
  - id: torn
    meshes: [torn]
  - id: good
    meshes: [good]
`))
	require.NoError(t, err)
	m := newModel(t, f)

	err = f.Apply(m)
	require.Error(t, err)
	assert.ErrorIs(t, err, scene.ErrIndexOutOfRange)
	assert.ErrorIs(t, err, scene.ErrUnknownMesh, "object of the skipped mesh")
	assert.Len(t, multierr.Errors(err), 3)

	_, ok := m.Object("good")
	assert.True(t, ok, "sibling entries still load")
	require.NoError(t, m.Build())
	assert.Equal(t, 1, m.NumTriangles())
}

func TestMeshMatrix(t *testing.T) {
	f, err := Parse([]byte(`
meshes:
  - id: m
    shape: box
    matrix: [1,0,0,0, 0,1,0,0, 0,0,1,0, 5,0,0,1]
objects:
  - id: m
    meshes: [m]
`))
	require.NoError(t, err)
	m := newModel(t, f)
	require.NoError(t, f.Apply(m))
	o, _ := m.Object("m")
	assert.InDelta(t, 4.5, o.AABB().Min()[0], 1e-9)
	assert.InDelta(t, 5.5, o.AABB().Max()[0], 1e-9)
}

func TestBox(t *testing.T) {
	positions, normals, indices := Box(mgl64.Vec3{2, 4, 6})
	require.Len(t, positions, 24*3)
	require.Len(t, normals, 24*3)
	require.Len(t, indices, 36)

	for i := 0; i < len(positions); i += 3 {
		assert.InDelta(t, 1, abs(positions[i]), 1e-12)
		assert.InDelta(t, 2, abs(positions[i+1]), 1e-12)
		assert.InDelta(t, 3, abs(positions[i+2]), 1e-12)
	}

	// Triangles wind counter-clockwise around their face normal.
	for i := 0; i < len(indices); i += 3 {
		a, b, c := vec(positions, indices[i]), vec(positions, indices[i+1]), vec(positions, indices[i+2])
		n := b.Sub(a).Cross(c.Sub(a))
		k := indices[i] * 3
		want := mgl64.Vec3{float64(normals[k]), float64(normals[k+1]), float64(normals[k+2])}
		assert.Greater(t, n.Dot(want), 0.0, "triangle %d", i/3)
	}

	edges := compress.BuildEdgeIndices(positions, indices, compress.DefaultEdgeThreshold)
	assert.Len(t, edges, 12*2, "seams weld into the 12 box edges")
}

func vec(p []float64, i uint32) mgl64.Vec3 {
	return mgl64.Vec3{p[i*3], p[i*3+1], p[i*3+2]}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func TestGrid(t *testing.T) {
	for _, instanced := range []bool{false, true} {
		f := Grid(3, 2, instanced)
		assert.Len(t, f.Meshes, 9)
		assert.Len(t, f.Objects, 9)

		m := newModel(t, f)
		require.NoError(t, f.Apply(m))
		require.NoError(t, m.Build())
		assert.Equal(t, 9*12, m.NumTriangles())
		assert.Equal(t, 1, m.NumLayers(), "instanced=%v", instanced)

		box := m.AABB()
		assert.InDelta(t, -0.5, box.Min()[0], 1e-3)
		assert.InDelta(t, 4.5, box.Max()[2], 1e-3)
	}
}

func TestGridRoundTripsThroughYAML(t *testing.T) {
	data, err := Grid(2, 0, true).Marshal()
	require.NoError(t, err)
	f, err := Parse(data)
	require.NoError(t, err)
	assert.Len(t, f.Meshes, 4)
	assert.Equal(t, "box", f.Meshes[0].Geometry)
	assert.Equal(t, [3]float64{2, 0, 0}, f.Meshes[2].Position)
}

func TestTextureFromFile(t *testing.T) {
	dir := t.TempDir()
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.NRGBA{255, 0, 255, 255})
	img.Set(1, 1, color.NRGBA{1, 2, 3, 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tex.png"), buf.Bytes(), 0644))

	path := filepath.Join(dir, "scene.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
textures:
  - id: tex
    file: tex.png
    color_key: true
    encoding: srgb
`), 0644))

	f, err := Load(path)
	require.NoError(t, err)
	m := newModel(t, f)
	require.NoError(t, f.Apply(m))

	tex, ok := m.Texture("tex")
	require.True(t, ok)
	assert.Equal(t, 2, tex.Desc.Width)
	assert.Equal(t, gpu.SRGBEncoding, tex.Desc.Encoding)
	assert.Equal(t, []byte{0, 0, 0, 0}, tex.Desc.Data[:4])
	assert.Equal(t, []byte{1, 2, 3, 255}, tex.Desc.Data[12:16])

	f.Textures[0].File = "missing.png"
	assert.Error(t, f.Apply(newModel(t, f)))
}
