package layer

// DrawFlags says which passes a layer has anything to draw in. Each field
// is derived from the counters in constant time so the renderer can skip
// whole layers.
type DrawFlags struct {
	ColorOpaque           bool
	ColorTransparent      bool
	EdgesColorOpaque      bool
	EdgesColorTransparent bool
	SilhouetteXRayed      bool
	SilhouetteHighlighted bool
	SilhouetteSelected    bool
	EdgesXRayed           bool
	EdgesHighlighted      bool
	EdgesSelected         bool
	Pick                  bool
}

// Any reports whether at least one pass draws.
func (d DrawFlags) Any() bool {
	return d.ColorOpaque || d.ColorTransparent ||
		d.EdgesColorOpaque || d.EdgesColorTransparent ||
		d.SilhouetteXRayed || d.SilhouetteHighlighted || d.SilhouetteSelected ||
		d.EdgesXRayed || d.EdgesHighlighted || d.EdgesSelected ||
		d.Pick
}

func computeDrawFlags(c *Counters, withEdges bool) DrawFlags {
	n := c.Portions
	if n == 0 || c.Visible == 0 || c.Culled == n {
		return DrawFlags{}
	}
	notAllXRayed := c.XRayed < n
	d := DrawFlags{
		ColorOpaque:           c.Transparent < n && notAllXRayed,
		ColorTransparent:      c.Transparent > 0 && notAllXRayed,
		SilhouetteXRayed:      c.XRayed > 0,
		SilhouetteHighlighted: c.Highlighted > 0,
		SilhouetteSelected:    c.Selected > 0,
		Pick:                  c.Pickable > 0,
	}
	if withEdges {
		d.EdgesColorOpaque = c.Edges > 0 && c.Transparent < n
		d.EdgesColorTransparent = c.Edges > 0 && c.Transparent > 0
		d.EdgesXRayed = c.XRayed > 0
		d.EdgesHighlighted = c.Highlighted > 0
		d.EdgesSelected = c.Selected > 0
	}
	return d
}
