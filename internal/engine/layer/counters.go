package layer

// Counters tracks how many portions are in each state. Counts change by
// delta as portions change state and are never recomputed by scanning.
type Counters struct {
	Portions    int
	Visible     int
	Transparent int
	XRayed      int
	Highlighted int
	Selected    int
	Edges       int
	Pickable    int
	Culled      int
	Clippable   int
	Collidable  int
}

// trackedFlags are the bits with a counter, in a fixed order.
var trackedFlags = [...]EntityFlags{
	Visible, Transparent, XRayed, Highlighted, Selected,
	Edges, Pickable, Culled, Clippable, Collidable,
}

func (c *Counters) field(bit EntityFlags) *int {
	switch bit {
	case Visible:
		return &c.Visible
	case Transparent:
		return &c.Transparent
	case XRayed:
		return &c.XRayed
	case Highlighted:
		return &c.Highlighted
	case Selected:
		return &c.Selected
	case Edges:
		return &c.Edges
	case Pickable:
		return &c.Pickable
	case Culled:
		return &c.Culled
	case Clippable:
		return &c.Clippable
	case Collidable:
		return &c.Collidable
	}
	return nil
}

// Get returns the counter for a tracked bit, or 0 for an untracked one.
func (c *Counters) Get(bit EntityFlags) int {
	if f := c.field(bit); f != nil {
		return *f
	}
	return 0
}

func (c *Counters) add(bit EntityFlags, delta int) {
	if f := c.field(bit); f != nil {
		*f += delta
	}
}

// Sub removes other from c.
func (c *Counters) Sub(other Counters) {
	c.Portions -= other.Portions
	for _, bit := range trackedFlags {
		c.add(bit, -other.Get(bit))
	}
}

// Add adds other to c.
func (c *Counters) Add(other Counters) {
	c.Portions += other.Portions
	for _, bit := range trackedFlags {
		c.add(bit, other.Get(bit))
	}
}
