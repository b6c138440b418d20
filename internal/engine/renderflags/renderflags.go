// Package renderflags aggregates layer counters into the per-model flags a
// renderer checks before running each pass.
package renderflags

import (
	"github.com/bits-and-blooms/bitset"

	"github.com/Faultbox/scenebatch/internal/engine/layer"
)

// SectionPlanes reports the clipping planes of the scene. Only the count
// and the active state are read.
type SectionPlanes interface {
	NumSectionPlanes() int
	SectionPlaneActive(i int) bool
}

// LayerCounters is the part of a layer RenderFlags reads.
type LayerCounters interface {
	Counters() layer.Counters
}

// RenderFlags says which passes a model needs this frame and which of its
// layers take part. It is rebuilt from counters only.
type RenderFlags struct {
	// VisibleLayers has bit i set when layer i has something to draw.
	VisibleLayers    *bitset.BitSet
	NumLayers        int
	NumVisibleLayers int

	// SectionPlanesActivePerLayer has bit layer*NumSectionPlanes+plane set
	// when the plane is active and the layer has clippable portions.
	SectionPlanesActivePerLayer *bitset.BitSet
	NumSectionPlanes            int

	Culled    bool
	Sectioned bool

	ColorOpaque      bool
	ColorTransparent bool
	EdgesOpaque      bool
	EdgesTransparent bool

	XRayedSilhouetteOpaque      bool
	XRayedSilhouetteTransparent bool
	XRayedEdgesOpaque           bool
	XRayedEdgesTransparent      bool

	HighlightedSilhouetteOpaque      bool
	HighlightedSilhouetteTransparent bool
	HighlightedEdgesOpaque           bool
	HighlightedEdgesTransparent      bool

	SelectedSilhouetteOpaque      bool
	SelectedSilhouetteTransparent bool
	SelectedEdgesOpaque           bool
	SelectedEdgesTransparent      bool
}

// New returns cleared flags.
func New() *RenderFlags {
	return &RenderFlags{
		VisibleLayers:               bitset.New(0),
		SectionPlanesActivePerLayer: bitset.New(0),
	}
}

// Reset clears every flag and bit.
func (f *RenderFlags) Reset() {
	visible := f.VisibleLayers.ClearAll()
	sections := f.SectionPlanesActivePerLayer.ClearAll()
	*f = RenderFlags{
		VisibleLayers:               visible,
		SectionPlanesActivePerLayer: sections,
	}
}

// Rebuild recomputes the flags from the model counters, the layers in
// index order, the emphasis materials and the scene's section planes.
// planes may be nil.
func (f *RenderFlags) Rebuild(model layer.Counters, layers []LayerCounters, mats *layer.Materials, planes SectionPlanes) {
	f.Reset()
	if mats == nil {
		mats = layer.DefaultMaterials()
	}

	f.NumLayers = len(layers)
	if planes != nil {
		f.NumSectionPlanes = planes.NumSectionPlanes()
	}

	for i, l := range layers {
		c := l.Counters()
		if c.Portions == 0 || c.Visible == 0 || c.Culled == c.Portions {
			continue
		}
		f.VisibleLayers.Set(uint(i))
		f.NumVisibleLayers++

		if c.Clippable == 0 {
			continue
		}
		base := i * f.NumSectionPlanes
		for p := 0; p < f.NumSectionPlanes; p++ {
			if planes.SectionPlaneActive(p) {
				f.SectionPlanesActivePerLayer.Set(uint(base + p))
				f.Sectioned = true
			}
		}
	}

	if f.NumLayers > 0 && f.NumVisibleLayers == 0 {
		f.Culled = true
		return
	}
	if model.Portions == 0 || model.Visible == 0 || model.Culled == model.Portions {
		return
	}

	f.ColorOpaque = model.Transparent < model.Portions
	f.ColorTransparent = model.Transparent > 0

	if model.XRayed > 0 {
		f.XRayedSilhouetteOpaque, f.XRayedSilhouetteTransparent,
			f.XRayedEdgesOpaque, f.XRayedEdgesTransparent = emphasis(mats.XRay)
	}
	if model.Edges > 0 && mats.EdgesVisible {
		f.EdgesOpaque = model.Transparent < model.Portions
		f.EdgesTransparent = model.Transparent > 0
	}
	if model.Selected > 0 {
		f.SelectedSilhouetteOpaque, f.SelectedSilhouetteTransparent,
			f.SelectedEdgesOpaque, f.SelectedEdgesTransparent = emphasis(mats.Selected)
	}
	if model.Highlighted > 0 {
		f.HighlightedSilhouetteOpaque, f.HighlightedSilhouetteTransparent,
			f.HighlightedEdgesOpaque, f.HighlightedEdgesTransparent = emphasis(mats.Highlight)
	}
}

// emphasis splits a material's fill and edges into opaque or transparent
// passes by alpha.
func emphasis(m layer.EmphasisMaterial) (fillOpaque, fillTransparent, edgesOpaque, edgesTransparent bool) {
	if m.Fill {
		fillTransparent = m.FillAlpha < 1
		fillOpaque = !fillTransparent
	}
	if m.Edges {
		edgesTransparent = m.EdgeAlpha < 1
		edgesOpaque = !edgesTransparent
	}
	return
}

// LayerVisible reports whether layer i takes part in this frame.
func (f *RenderFlags) LayerVisible(i int) bool {
	return f.VisibleLayers.Test(uint(i))
}

// SectionPlaneActive reports whether plane clips layer i.
func (f *RenderFlags) SectionPlaneActive(i, plane int) bool {
	if plane >= f.NumSectionPlanes {
		return false
	}
	return f.SectionPlanesActivePerLayer.Test(uint(i*f.NumSectionPlanes + plane))
}

// VisibleLayerIndices lists the visible layers in index order.
func (f *RenderFlags) VisibleLayerIndices() []int {
	out := make([]int, 0, f.NumVisibleLayers)
	for i, ok := f.VisibleLayers.NextSet(0); ok; i, ok = f.VisibleLayers.NextSet(i + 1) {
		out = append(out, int(i))
	}
	return out
}
