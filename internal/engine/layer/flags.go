// Package layer packs the geometry of many meshes into shared GPU buffers
// and keeps the per-vertex render pass bytes that drive every draw pass.
//
// A layer is either batching (every portion owns a contiguous vertex range
// of the shared arrays) or instancing (portions are rows of per-instance
// arrays over one shared geometry). Both variants exist for triangles,
// lines and points.
package layer

// RenderPass selects which pass draws a vertex. The values are read by
// shaders and must not change.
type RenderPass uint8

const (
	NotRendered           RenderPass = 0
	ColorOpaque           RenderPass = 1
	ColorTransparent      RenderPass = 2
	SilhouetteHighlighted RenderPass = 3
	SilhouetteSelected    RenderPass = 4
	SilhouetteXRayed      RenderPass = 5
	EdgesColorOpaque      RenderPass = 6
	EdgesColorTransparent RenderPass = 7
	EdgesHighlighted      RenderPass = 8
	EdgesSelected         RenderPass = 9
	EdgesXRayed           RenderPass = 10
	Pick                  RenderPass = 11
)

func (p RenderPass) String() string {
	switch p {
	case NotRendered:
		return "not_rendered"
	case ColorOpaque:
		return "color_opaque"
	case ColorTransparent:
		return "color_transparent"
	case SilhouetteHighlighted:
		return "silhouette_highlighted"
	case SilhouetteSelected:
		return "silhouette_selected"
	case SilhouetteXRayed:
		return "silhouette_xrayed"
	case EdgesColorOpaque:
		return "edges_color_opaque"
	case EdgesColorTransparent:
		return "edges_color_transparent"
	case EdgesHighlighted:
		return "edges_highlighted"
	case EdgesSelected:
		return "edges_selected"
	case EdgesXRayed:
		return "edges_xrayed"
	case Pick:
		return "pick"
	}
	return "unknown"
}

// EntityFlags is the state bitmask an object passes down to its meshes.
type EntityFlags uint32

const (
	Visible       EntityFlags = 1
	Culled        EntityFlags = 1 << 2
	Pickable      EntityFlags = 1 << 3
	Clippable     EntityFlags = 1 << 4
	Collidable    EntityFlags = 1 << 5
	CastShadow    EntityFlags = 1 << 6
	ReceiveShadow EntityFlags = 1 << 7
	XRayed        EntityFlags = 1 << 8
	Highlighted   EntityFlags = 1 << 9
	Selected      EntityFlags = 1 << 10
	Edges         EntityFlags = 1 << 11
	Transparent   EntityFlags = 1 << 12
)

// Has reports whether every bit of f2 is set.
func (f EntityFlags) Has(f2 EntityFlags) bool { return f&f2 == f2 }

// With returns f with bit set or cleared.
func (f EntityFlags) With(bit EntityFlags, on bool) EntityFlags {
	if on {
		return f | bit
	}
	return f &^ bit
}

// EmphasisMaterial is the appearance of one emphasis state. Only the
// fields that decide whether a pass runs are modeled.
type EmphasisMaterial struct {
	Fill        bool
	FillAlpha   float32
	Edges       bool
	EdgeAlpha   float32
	GlowThrough bool
}

// Materials holds the emphasis materials shared by every layer of a model.
type Materials struct {
	XRay      EmphasisMaterial
	Highlight EmphasisMaterial
	Selected  EmphasisMaterial
	// EdgesVisible enables the edges pass for entities with the Edges flag.
	EdgesVisible bool
}

// DefaultMaterials returns the materials used when none are configured.
func DefaultMaterials() *Materials {
	return &Materials{
		XRay: EmphasisMaterial{
			Fill: true, FillAlpha: 0.1,
			Edges: true, EdgeAlpha: 0.1,
		},
		Highlight: EmphasisMaterial{
			Fill: true, FillAlpha: 0.3,
			Edges: true, EdgeAlpha: 1,
			GlowThrough: true,
		},
		Selected: EmphasisMaterial{
			Fill: true, FillAlpha: 0.3,
			Edges: true, EdgeAlpha: 1,
			GlowThrough: true,
		},
		EdgesVisible: true,
	}
}

// Passes is the four flag bytes written for every vertex of a portion:
// color, silhouette, edges and pick.
type Passes [4]RenderPass

// Bytes returns the passes in buffer order.
func (p Passes) Bytes() [4]byte {
	return [4]byte{byte(p[0]), byte(p[1]), byte(p[2]), byte(p[3])}
}

// ComputePasses selects the render passes for one portion. Emphasis
// priority is selected, then highlighted, then xrayed, for both the
// silhouette and the edges pass. withEdges is false for lines and points,
// which have no edges pass.
func ComputePasses(flags EntityFlags, transparent bool, mats *Materials, withEdges bool) Passes {
	visible := flags.Has(Visible)
	culled := flags.Has(Culled)
	xrayed := flags.Has(XRayed)
	highlighted := flags.Has(Highlighted)
	selected := flags.Has(Selected)
	shown := visible && !culled

	var p Passes

	switch {
	case !shown,
		xrayed,
		highlighted && !mats.Highlight.GlowThrough,
		selected && !mats.Selected.GlowThrough:
		p[0] = NotRendered
	case transparent:
		p[0] = ColorTransparent
	default:
		p[0] = ColorOpaque
	}

	if shown {
		switch {
		case selected:
			p[1] = SilhouetteSelected
		case highlighted:
			p[1] = SilhouetteHighlighted
		case xrayed:
			p[1] = SilhouetteXRayed
		}
	}

	if shown && withEdges {
		switch {
		case selected:
			p[2] = EdgesSelected
		case highlighted:
			p[2] = EdgesHighlighted
		case xrayed:
			p[2] = EdgesXRayed
		case flags.Has(Edges) && transparent:
			p[2] = EdgesColorTransparent
		case flags.Has(Edges):
			p[2] = EdgesColorOpaque
		}
	}

	if shown && flags.Has(Pickable) {
		p[3] = Pick
	}
	return p
}

// ClippableByte is the flags2 value for a portion.
func ClippableByte(flags EntityFlags) byte {
	if flags.Has(Clippable) {
		return 255
	}
	return 0
}
