package layer

import (
	"encoding/binary"
	"math/rand"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/scenebatch/internal/engine/gpu"
	smath "github.com/Faultbox/scenebatch/pkg/math"
)

// triangle returns a one-triangle portion shifted along X.
func triangle(x float64) PortionConfig {
	return PortionConfig{
		Positions: []float64{x, 0, 0, x + 1, 0, 0, x, 1, 0},
		Normals:   []float32{0, 0, 1, 0, 0, 1, 0, 0, 1},
		Indices:   []uint32{0, 1, 2},
		Color:     [4]uint8{255, 0, 0, 255},
		PickColor: [4]uint8{1, 0, 0, 0},
	}
}

func newTestLayer(t *testing.T, cfg Config) (*gpu.MemoryDriver, Layer) {
	t.Helper()
	d := gpu.NewMemoryDriver()
	cfg.Driver = d
	if cfg.Materials == nil {
		cfg.Materials = noGlow()
	}
	l, err := New(cfg)
	require.NoError(t, err)
	return d, l
}

func flagsOf(d *gpu.MemoryDriver, l Layer) []byte {
	return d.BufferData(l.Buffers().Flags.ID())
}

func TestLayerRotationScenario(t *testing.T) {
	_, first := newTestLayer(t, Config{MaxVertices: 4})

	require.True(t, first.CanCreatePortion(3, 3))
	id, err := first.CreatePortion(triangle(0))
	require.NoError(t, err)
	assert.Equal(t, 0, id)

	assert.False(t, first.CanCreatePortion(3, 3), "second triangle exceeds 4 vertices")
	_, err = first.CreatePortion(triangle(2))
	assert.ErrorIs(t, err, ErrCapacity, "never truncates")
	require.NoError(t, first.Finalize())

	_, second := newTestLayer(t, Config{MaxVertices: 4})
	require.True(t, second.CanCreatePortion(3, 3))
	id, err = second.CreatePortion(triangle(2))
	require.NoError(t, err)
	p, ok := second.Portion(id)
	require.True(t, ok)
	assert.Equal(t, 0, p.VertexBase)
	assert.Equal(t, 3, p.VertexCount)
}

func TestCapacityIsInclusive(t *testing.T) {
	_, l := newTestLayer(t, Config{MaxVertices: 6, MaxIndices: 6})
	assert.True(t, l.CanCreatePortion(6, 6))
	assert.False(t, l.CanCreatePortion(7, 0))
	assert.False(t, l.CanCreatePortion(0, 7))

	_, err := l.CreatePortion(triangle(0))
	require.NoError(t, err)
	_, err = l.CreatePortion(triangle(1))
	require.NoError(t, err)
	assert.False(t, l.CanCreatePortion(1, 0))
}

func TestPortionAdditivity(t *testing.T) {
	_, l := newTestLayer(t, Config{})
	sizes := []int{3, 4, 1, 6}
	total := 0
	for i, n := range sizes {
		positions := make([]float64, n*3)
		indices := make([]uint32, n)
		for v := 0; v < n; v++ {
			positions[v*3] = float64(i)
			positions[v*3+1] = float64(v)
			indices[v] = uint32(v)
		}
		id, err := l.CreatePortion(PortionConfig{Positions: positions, Indices: indices})
		require.NoError(t, err)
		assert.Equal(t, i, id, "ids follow creation order")
		total += n
	}
	assert.Equal(t, total, l.NumVertices())

	next := 0
	for i := range sizes {
		p, _ := l.Portion(i)
		assert.Equal(t, next, p.VertexBase, "portion %d is contiguous", i)
		assert.Equal(t, sizes[i], p.VertexCount)
		next += p.VertexCount
	}
}

func TestIndicesAreRebased(t *testing.T) {
	d, l := newTestLayer(t, Config{MaxVertices: 1 << 20})
	_, _ = l.CreatePortion(triangle(0))
	_, _ = l.CreatePortion(triangle(5))
	require.NoError(t, l.Finalize())

	buf := l.Buffers().Indices
	require.NotNil(t, buf)
	assert.Equal(t, gpu.UnsignedInt, buf.ComponentType())
	data := d.BufferData(buf.ID())
	got := make([]uint32, len(data)/4)
	for i := range got {
		got[i] = binary.LittleEndian.Uint32(data[i*4:])
	}
	assert.Equal(t, []uint32{0, 1, 2, 3, 4, 5}, got)
}

func TestSmallLayersUse16BitIndices(t *testing.T) {
	_, l := newTestLayer(t, Config{MaxVertices: MaxVertices16})
	_, _ = l.CreatePortion(triangle(0))
	require.NoError(t, l.Finalize())
	assert.Equal(t, gpu.UnsignedShort, l.Buffers().Indices.ComponentType())
}

func TestMissingIndices(t *testing.T) {
	_, tri := newTestLayer(t, Config{Primitive: Triangles})
	cfg := triangle(0)
	cfg.Indices = nil
	_, err := tri.CreatePortion(cfg)
	assert.ErrorIs(t, err, ErrMissingIndices)

	_, lines := newTestLayer(t, Config{Primitive: Lines})
	_, err = lines.CreatePortion(PortionConfig{Positions: []float64{0, 0, 0, 1, 1, 1}})
	assert.ErrorIs(t, err, ErrMissingIndices)

	_, points := newTestLayer(t, Config{Primitive: Points})
	_, err = points.CreatePortion(PortionConfig{Positions: []float64{0, 0, 0, 1, 1, 1}})
	assert.NoError(t, err, "points never require indices")

	_, err = tri.CreatePortion(PortionConfig{Positions: []float64{0, 0, 0}, Indices: []uint32{0, 1, 2}})
	assert.ErrorIs(t, err, ErrBadArrayLength)
}

func TestFinalizeMisusePanics(t *testing.T) {
	_, l := newTestLayer(t, Config{})
	_, err := l.CreatePortion(triangle(0))
	require.NoError(t, err)

	assert.PanicsWithValue(t, ErrLayerNotFinalized, func() {
		_ = l.SetVisible(0, Visible, false)
	})
	assert.PanicsWithValue(t, ErrLayerNotFinalized, func() {
		_ = l.InitFlags(0, Visible, false)
	})

	require.NoError(t, l.Finalize())
	assert.True(t, l.Finalized())

	assert.PanicsWithValue(t, ErrLayerFinalized, func() { _ = l.Finalize() })
	assert.PanicsWithValue(t, ErrLayerFinalized, func() { _, _ = l.CreatePortion(triangle(1)) })
	assert.PanicsWithValue(t, ErrLayerFinalized, func() { l.CanCreatePortion(1, 1) })

	require.NoError(t, l.Destroy())
	assert.PanicsWithValue(t, ErrLayerDestroyed, func() { _ = l.SetVisible(0, Visible, false) })
}

func TestUnknownPortion(t *testing.T) {
	_, l := newTestLayer(t, Config{})
	_, _ = l.CreatePortion(triangle(0))
	require.NoError(t, l.Finalize())
	assert.ErrorIs(t, l.SetVisible(3, Visible, false), ErrUnknownPortion)
}

func TestHighlightXRaySilhouetteScenario(t *testing.T) {
	d, l := newTestLayer(t, Config{})
	_, _ = l.CreatePortion(triangle(0))
	require.NoError(t, l.Finalize())

	flags := Visible | Pickable
	require.NoError(t, l.InitFlags(0, flags, false))
	require.NoError(t, l.FlushInitFlags())

	flags |= Highlighted
	require.NoError(t, l.SetHighlighted(0, flags, false))
	got := flagsOf(d, l)
	for v := 0; v < 3; v++ {
		assert.Equal(t, byte(NotRendered), got[v*4], "color pass of vertex %d", v)
		assert.Equal(t, byte(SilhouetteHighlighted), got[v*4+1], "silhouette pass of vertex %d", v)
	}

	flags |= XRayed
	require.NoError(t, l.SetXRayed(0, flags, false))
	got = flagsOf(d, l)
	for v := 0; v < 3; v++ {
		assert.Equal(t, byte(SilhouetteHighlighted), got[v*4+1], "highlight still wins over xray")
	}
}

type flagOp struct {
	portion     int
	flags       EntityFlags
	transparent bool
}

func randomOps(rng *rand.Rand, portions, n int) []flagOp {
	bits := []EntityFlags{Visible, Culled, Pickable, Clippable, Collidable, XRayed, Highlighted, Selected, Edges}
	state := make([]EntityFlags, portions)
	transparent := make([]bool, portions)
	ops := make([]flagOp, 0, n)
	for i := 0; i < n; i++ {
		p := rng.Intn(portions)
		if rng.Intn(5) == 0 {
			transparent[p] = !transparent[p]
		} else {
			state[p] ^= bits[rng.Intn(len(bits))]
		}
		ops = append(ops, flagOp{p, state[p], transparent[p]})
	}
	return ops
}

func buildFourPortions(t *testing.T) (*gpu.MemoryDriver, Layer) {
	t.Helper()
	d, l := newTestLayer(t, Config{})
	for i := 0; i < 4; i++ {
		_, err := l.CreatePortion(triangle(float64(i * 2)))
		require.NoError(t, err)
	}
	require.NoError(t, l.Finalize())
	return d, l
}

func TestDeferredAndImmediateWritesMatch(t *testing.T) {
	ops := randomOps(rand.New(rand.NewSource(3)), 4, 200)

	deferredDriver, deferred := buildFourPortions(t)
	for _, op := range ops {
		require.NoError(t, deferred.InitFlags(op.portion, op.flags, op.transparent))
	}
	require.NoError(t, deferred.FlushInitFlags())

	immediateDriver, immediate := buildFourPortions(t)
	for _, op := range ops {
		require.NoError(t, immediate.SetVisible(op.portion, op.flags, op.transparent))
		require.NoError(t, immediate.SetClippable(op.portion, op.flags))
	}

	assert.Equal(t, flagsOf(deferredDriver, deferred), flagsOf(immediateDriver, immediate))
	assert.Equal(t,
		deferredDriver.BufferData(deferred.Buffers().Flags2.ID()),
		immediateDriver.BufferData(immediate.Buffers().Flags2.ID()))
	assert.Equal(t, deferred.Counters(), immediate.Counters())
}

func TestFlushUploadsOncePerBuffer(t *testing.T) {
	d, l := buildFourPortions(t)
	before := d.Updates
	for i := 0; i < 4; i++ {
		require.NoError(t, l.InitFlags(i, Visible|Pickable, false))
	}
	assert.Equal(t, before, d.Updates, "InitFlags must not upload")
	require.NoError(t, l.FlushInitFlags())
	assert.Equal(t, before+2, d.Updates)

	require.NoError(t, l.FlushInitFlags())
	assert.Equal(t, before+2, d.Updates, "nothing pending")
}

func TestImmediateWriteDuringPendingFlush(t *testing.T) {
	d, l := buildFourPortions(t)
	require.NoError(t, l.SetVisible(0, Visible|Selected, false))
	require.NoError(t, l.InitFlags(1, Visible, false))
	require.NoError(t, l.SetVisible(2, Visible|Highlighted, false))
	require.NoError(t, l.FlushInitFlags())

	got := flagsOf(d, l)
	assert.Equal(t, byte(SilhouetteSelected), got[0*12+1], "write before the shadow survives the flush")
	assert.Equal(t, byte(ColorOpaque), got[1*12])
	assert.Equal(t, byte(SilhouetteHighlighted), got[2*12+1], "write during the shadow survives the flush")
}

func TestCounterConsistency(t *testing.T) {
	model := &Counters{}
	_, l := newTestLayer(t, Config{Model: model})
	for i := 0; i < 6; i++ {
		_, _ = l.CreatePortion(triangle(float64(i)))
	}
	require.NoError(t, l.Finalize())

	setters := []func(int, EntityFlags, bool) error{
		l.SetVisible, l.SetHighlighted, l.SetXRayed, l.SetSelected,
		l.SetEdges, l.SetCulled, l.SetPickable, l.SetTransparent,
	}
	rng := rand.New(rand.NewSource(11))
	for _, op := range randomOps(rng, 6, 300) {
		set := setters[rng.Intn(len(setters))]
		require.NoError(t, set(op.portion, op.flags, op.transparent))
		require.NoError(t, l.SetCollidable(op.portion, op.flags.With(Transparent, op.transparent)))

		var want Counters
		want.Portions = l.NumPortions()
		for i := 0; i < l.NumPortions(); i++ {
			p, _ := l.Portion(i)
			for _, bit := range trackedFlags {
				if p.Flags().Has(bit) {
					want.add(bit, 1)
				}
			}
		}
		require.Equal(t, want, l.Counters())
		require.Equal(t, want, *model, "model counters mirror the layer")
	}
}

func TestSetterChangesOneCounter(t *testing.T) {
	_, l := buildFourPortions(t)
	flags := Visible | Pickable
	require.NoError(t, l.InitFlags(0, flags, false))
	before := l.Counters()

	require.NoError(t, l.SetSelected(0, flags|Selected, false))
	after := l.Counters()
	assert.Equal(t, before.Selected+1, after.Selected)
	after.Selected--
	assert.Equal(t, before, after)

	// Same state again moves nothing
	require.NoError(t, l.SetSelected(0, flags|Selected, false))
	assert.Equal(t, before.Selected+1, l.Counters().Selected)
}

func TestPositionsRoundTripThroughBuffer(t *testing.T) {
	origin := mgl64.Vec3{1000, 2000, 3000}
	d, l := newTestLayer(t, Config{Origin: origin})
	cfg := triangle(0)
	m := mgl64.Translate3D(5, 0, 0)
	cfg.MeshMatrix = &m
	world := smath.CollapsedAABB()
	cfg.AABB = &world
	_, err := l.CreatePortion(cfg)
	require.NoError(t, err)
	require.NoError(t, l.Finalize())

	data := d.BufferData(l.Buffers().Positions.ID())
	decode := l.Buffers().PositionsDecodeMatrix
	want := []float64{5, 0, 0, 6, 0, 0, 5, 1, 0}
	for v := 0; v < 3; v++ {
		q := mgl64.Vec3{
			float64(binary.LittleEndian.Uint16(data[v*6:])),
			float64(binary.LittleEndian.Uint16(data[v*6+2:])),
			float64(binary.LittleEndian.Uint16(data[v*6+4:])),
		}
		p := mgl64.TransformCoordinate(q, decode)
		for a := 0; a < 3; a++ {
			assert.InDelta(t, want[v*3+a], p[a], 1e-4)
		}
	}

	assert.Equal(t, smath.AABB{1005, 2000, 3000, 1006, 2001, 3000}, world)
	assert.Equal(t, world, l.AABB())
}

func TestPreQuantizedLayer(t *testing.T) {
	decode := mgl64.Scale3D(0.5, 0.5, 0.5)
	d, l := newTestLayer(t, Config{PositionsDecodeMatrix: &decode})
	_, err := l.CreatePortion(PortionConfig{
		PositionsCompressed: []uint16{0, 0, 0, 2, 0, 0, 0, 2, 0},
		Indices:             []uint32{0, 1, 2},
	})
	require.NoError(t, err)
	require.NoError(t, l.Finalize())

	assert.Equal(t, decode, l.Buffers().PositionsDecodeMatrix)
	assert.Equal(t, gpu.Bytes([]uint16{0, 0, 0, 2, 0, 0, 0, 2, 0}), d.BufferData(l.Buffers().Positions.ID()))
	assert.Equal(t, smath.AABB{0, 0, 0, 1, 1, 0}, l.AABB())
}

func TestSetColorAndOffset(t *testing.T) {
	d, l := newTestLayer(t, Config{EntityOffsets: true})
	_, _ = l.CreatePortion(triangle(0))
	_, _ = l.CreatePortion(triangle(2))
	require.NoError(t, l.Finalize())

	require.NoError(t, l.SetColor(1, [4]uint8{1, 2, 3, 4}))
	colors := d.BufferData(l.Buffers().Colors.ID())
	assert.Equal(t, []byte{255, 0, 0, 255}, colors[:4], "portion 0 untouched")
	assert.Equal(t, []byte{1, 2, 3, 4, 1, 2, 3, 4, 1, 2, 3, 4}, colors[12:])

	require.NoError(t, l.SetOffset(1, mgl64.Vec3{0, 10, 0}))
	offsets := d.BufferData(l.Buffers().Offsets.ID())
	assert.Equal(t, make([]byte, 36), offsets[:36])
	assert.Equal(t, gpu.Bytes([]float32{0, 10, 0, 0, 10, 0, 0, 10, 0}), offsets[36:])
}

func TestOffsetsDisabled(t *testing.T) {
	_, l := newTestLayer(t, Config{})
	_, _ = l.CreatePortion(triangle(0))
	require.NoError(t, l.Finalize())
	assert.Nil(t, l.Buffers().Offsets)
	assert.NoError(t, l.SetOffset(0, mgl64.Vec3{1, 1, 1}))
}

func TestLinesLayerHasNoEdges(t *testing.T) {
	d, l := newTestLayer(t, Config{Primitive: Lines})
	_, err := l.CreatePortion(PortionConfig{
		Positions:   []float64{0, 0, 0, 1, 0, 0},
		Indices:     []uint32{0, 1},
		EdgeIndices: []uint32{0, 1},
	})
	require.NoError(t, err)
	require.NoError(t, l.Finalize())
	assert.Nil(t, l.Buffers().Normals)
	assert.Nil(t, l.Buffers().EdgeIndices)

	require.NoError(t, l.SetEdges(0, Visible|Edges|Selected, false))
	got := flagsOf(d, l)
	assert.Equal(t, byte(NotRendered), got[2])
	assert.Equal(t, byte(NotRendered), got[6])
	assert.Equal(t, byte(SilhouetteSelected), got[1])
}

func TestPrecisionPickGeometry(t *testing.T) {
	origin := mgl64.Vec3{0, 0, 500}
	_, l := newTestLayer(t, Config{Origin: origin, PrecisionPicking: true, EntityOffsets: true})
	_, _ = l.CreatePortion(triangle(0))
	_, _ = l.CreatePortion(triangle(3))

	_, _, ok := l.PrecisionPickGeometry(1)
	assert.False(t, ok, "not available before finalize")

	require.NoError(t, l.Finalize())
	require.NoError(t, l.SetOffset(1, mgl64.Vec3{0, 1, 0}))

	positions, indices, ok := l.PrecisionPickGeometry(1)
	require.True(t, ok)
	assert.Equal(t, []uint32{0, 1, 2}, indices)
	want := []float64{3, 1, 500, 4, 1, 500, 3, 2, 500}
	require.Len(t, positions, len(want))
	for i := range want {
		assert.InDelta(t, want[i], positions[i], 1e-3)
	}

	_, noPick := newTestLayer(t, Config{})
	_, _ = noPick.CreatePortion(triangle(0))
	require.NoError(t, noPick.Finalize())
	_, _, ok = noPick.PrecisionPickGeometry(0)
	assert.False(t, ok)
}

func TestDestroyReleasesOnce(t *testing.T) {
	model := &Counters{}
	d, l := newTestLayer(t, Config{Model: model, EntityOffsets: true})
	_, _ = l.CreatePortion(triangle(0))
	require.NoError(t, l.Finalize())
	require.NoError(t, l.InitFlags(0, Visible|Pickable, false))
	require.NoError(t, l.FlushInitFlags())
	assert.Equal(t, 1, model.Visible)

	live := d.LiveBuffers()
	require.NotZero(t, live)
	require.NoError(t, l.Destroy())
	assert.Equal(t, 0, d.LiveBuffers())
	assert.Equal(t, live, d.Destroys)
	assert.Equal(t, Counters{}, *model)

	require.NoError(t, l.Destroy(), "second destroy is a no-op")
	assert.Equal(t, live, d.Destroys)
}

func TestEmptyLayerFinalize(t *testing.T) {
	d, l := newTestLayer(t, Config{})
	require.NoError(t, l.Finalize())
	assert.Equal(t, 0, d.LiveBuffers())
	assert.NoError(t, l.FlushInitFlags())
	assert.NoError(t, l.Destroy())
}
