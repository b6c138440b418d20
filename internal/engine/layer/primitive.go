package layer

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupportedPrimitive is returned for primitive names that no layer
// can hold.
var ErrUnsupportedPrimitive = errors.New("unsupported primitive")

// Primitive is the geometry primitive type.
type Primitive uint8

const (
	Triangles Primitive = iota
	Solid
	Surface
	Lines
	Points
)

// Family groups primitives that share a layer implementation.
type Family uint8

const (
	TrianglesFamily Family = iota
	LinesFamily
	PointsFamily
)

// ParsePrimitive converts a primitive name.
func ParsePrimitive(s string) (Primitive, error) {
	switch strings.ToLower(s) {
	case "triangles":
		return Triangles, nil
	case "solid":
		return Solid, nil
	case "surface":
		return Surface, nil
	case "lines":
		return Lines, nil
	case "points":
		return Points, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedPrimitive, s)
}

func (p Primitive) String() string {
	switch p {
	case Triangles:
		return "triangles"
	case Solid:
		return "solid"
	case Surface:
		return "surface"
	case Lines:
		return "lines"
	case Points:
		return "points"
	}
	return "unknown"
}

// Family returns the layer family for p.
func (p Primitive) Family() Family {
	switch p {
	case Lines:
		return LinesFamily
	case Points:
		return PointsFamily
	default:
		return TrianglesFamily
	}
}

// NeedsIndices reports whether geometry of this primitive must be indexed.
func (p Primitive) NeedsIndices() bool {
	return p != Points
}

func (f Family) String() string {
	switch f {
	case TrianglesFamily:
		return "triangles"
	case LinesFamily:
		return "lines"
	case PointsFamily:
		return "points"
	}
	return "unknown"
}
