package layer

// Portion is one mesh's slice of a layer. In a batching layer it is a
// vertex range of the shared arrays. In an instancing layer it is one
// instance row and VertexBase is the row index with VertexCount 1.
type Portion struct {
	VertexBase     int
	VertexCount    int
	IndexBase      int
	IndexCount     int
	EdgeIndexBase  int
	EdgeIndexCount int

	flags       EntityFlags
	initialized bool
	offset      [3]float32

	// Retained for precision picking only.
	indices   []uint32
	quantized []uint16
}

// Flags returns the state last written for the portion, with the
// Transparent bit reflecting its transparency.
func (p *Portion) Flags() EntityFlags { return p.flags }
