package renderflags

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Faultbox/scenebatch/internal/engine/layer"
)

type fakeLayer layer.Counters

func (f fakeLayer) Counters() layer.Counters { return layer.Counters(f) }

type planes []bool

func (p planes) NumSectionPlanes() int          { return len(p) }
func (p planes) SectionPlaneActive(i int) bool { return p[i] }

func sum(layers []LayerCounters) layer.Counters {
	var total layer.Counters
	for _, l := range layers {
		total.Add(l.Counters())
	}
	return total
}

func TestRebuildVisibleLayers(t *testing.T) {
	layers := []LayerCounters{
		fakeLayer{Portions: 2, Visible: 2, Pickable: 2},
		fakeLayer{Portions: 1, Visible: 0},
		fakeLayer{Portions: 3, Visible: 3, Culled: 3},
		fakeLayer{Portions: 1, Visible: 1, Transparent: 1},
	}
	f := New()
	f.Rebuild(sum(layers), layers, layer.DefaultMaterials(), nil)

	assert.Equal(t, 4, f.NumLayers)
	assert.Equal(t, 2, f.NumVisibleLayers)
	assert.Equal(t, []int{0, 3}, f.VisibleLayerIndices())
	assert.True(t, f.LayerVisible(0))
	assert.False(t, f.LayerVisible(2))
	assert.False(t, f.Culled)
	assert.True(t, f.ColorOpaque)
	assert.True(t, f.ColorTransparent)
	assert.False(t, f.EdgesOpaque)
}

func TestRebuildCulledWhenNothingVisible(t *testing.T) {
	layers := []LayerCounters{fakeLayer{Portions: 1, Visible: 1, Culled: 1}}
	f := New()
	f.Rebuild(sum(layers), layers, nil, nil)
	assert.True(t, f.Culled)
	assert.False(t, f.ColorOpaque)

	// No layers at all is not culled
	f.Rebuild(layer.Counters{}, nil, nil, nil)
	assert.False(t, f.Culled)
}

func TestRebuildEmphasisPasses(t *testing.T) {
	layers := []LayerCounters{
		fakeLayer{Portions: 2, Visible: 2, XRayed: 1, Highlighted: 1, Selected: 1, Edges: 1},
	}
	mats := layer.DefaultMaterials()
	mats.Selected.FillAlpha = 1
	mats.Highlight.Edges = false

	f := New()
	f.Rebuild(sum(layers), layers, mats, nil)

	assert.True(t, f.XRayedSilhouetteTransparent, "xray fill alpha 0.1")
	assert.False(t, f.XRayedSilhouetteOpaque)
	assert.True(t, f.XRayedEdgesTransparent)

	assert.True(t, f.SelectedSilhouetteOpaque)
	assert.True(t, f.SelectedEdgesOpaque)

	assert.True(t, f.HighlightedSilhouetteTransparent)
	assert.False(t, f.HighlightedEdgesOpaque)
	assert.False(t, f.HighlightedEdgesTransparent)

	assert.True(t, f.EdgesOpaque)
	assert.False(t, f.EdgesTransparent)

	mats.EdgesVisible = false
	f.Rebuild(sum(layers), layers, mats, nil)
	assert.False(t, f.EdgesOpaque)
}

func TestRebuildSectionPlanes(t *testing.T) {
	layers := []LayerCounters{
		fakeLayer{Portions: 1, Visible: 1, Clippable: 1},
		fakeLayer{Portions: 1, Visible: 1},
		fakeLayer{Portions: 1, Visible: 1, Clippable: 1},
	}
	f := New()
	f.Rebuild(sum(layers), layers, nil, planes{true, false, true})

	assert.True(t, f.Sectioned)
	assert.Equal(t, 3, f.NumSectionPlanes)
	assert.True(t, f.SectionPlaneActive(0, 0))
	assert.False(t, f.SectionPlaneActive(0, 1))
	assert.True(t, f.SectionPlaneActive(0, 2))
	assert.False(t, f.SectionPlaneActive(1, 0), "layer without clippable portions")
	assert.True(t, f.SectionPlaneActive(2, 2))
	assert.False(t, f.SectionPlaneActive(2, 5))

	f.Rebuild(sum(layers), layers, nil, planes{false})
	assert.False(t, f.Sectioned)
	assert.False(t, f.SectionPlaneActive(0, 0))
}
