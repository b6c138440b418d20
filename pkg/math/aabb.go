// Package math provides bounding boxes, relative-to-center origins and
// transform helpers in double precision.
package math

import (
	gomath "math"

	"github.com/go-gl/mathgl/mgl64"
)

// AABB is an axis-aligned bounding box stored as
// [minX, minY, minZ, maxX, maxY, maxZ].
type AABB [6]float64

// CollapsedAABB returns an inverted box that any expansion will overwrite.
func CollapsedAABB() AABB {
	return AABB{
		gomath.MaxFloat64, gomath.MaxFloat64, gomath.MaxFloat64,
		-gomath.MaxFloat64, -gomath.MaxFloat64, -gomath.MaxFloat64,
	}
}

// NewAABB creates an AABB from min and max corners, swapping inverted axes.
func NewAABB(minX, minY, minZ, maxX, maxY, maxZ float64) AABB {
	b := AABB{minX, minY, minZ, maxX, maxY, maxZ}
	for i := 0; i < 3; i++ {
		if b[i] > b[i+3] {
			b[i], b[i+3] = b[i+3], b[i]
		}
	}
	return b
}

// IsEmpty reports whether the box has never been expanded.
func (b AABB) IsEmpty() bool {
	return b[0] > b[3] || b[1] > b[4] || b[2] > b[5]
}

// Min returns the minimum corner.
func (b AABB) Min() mgl64.Vec3 {
	return mgl64.Vec3{b[0], b[1], b[2]}
}

// Max returns the maximum corner.
func (b AABB) Max() mgl64.Vec3 {
	return mgl64.Vec3{b[3], b[4], b[5]}
}

// Center returns the center point of the box.
func (b AABB) Center() mgl64.Vec3 {
	return mgl64.Vec3{
		(b[0] + b[3]) / 2,
		(b[1] + b[4]) / 2,
		(b[2] + b[5]) / 2,
	}
}

// Size returns the extent of the box along each axis.
func (b AABB) Size() mgl64.Vec3 {
	return mgl64.Vec3{b[3] - b[0], b[4] - b[1], b[5] - b[2]}
}

// ExpandPoint grows the box to contain p.
func (b *AABB) ExpandPoint(p mgl64.Vec3) {
	if p[0] < b[0] {
		b[0] = p[0]
	}
	if p[1] < b[1] {
		b[1] = p[1]
	}
	if p[2] < b[2] {
		b[2] = p[2]
	}
	if p[0] > b[3] {
		b[3] = p[0]
	}
	if p[1] > b[4] {
		b[4] = p[1]
	}
	if p[2] > b[5] {
		b[5] = p[2]
	}
}

// Expand grows the box to contain other. Empty boxes are ignored.
func (b *AABB) Expand(other AABB) {
	if other.IsEmpty() {
		return
	}
	b.ExpandPoint(other.Min())
	b.ExpandPoint(other.Max())
}

// Translate returns the box moved by offset.
func (b AABB) Translate(offset mgl64.Vec3) AABB {
	return AABB{
		b[0] + offset[0], b[1] + offset[1], b[2] + offset[2],
		b[3] + offset[0], b[4] + offset[1], b[5] + offset[2],
	}
}

// Corners returns the eight corner points of the box.
func (b AABB) Corners() [8]mgl64.Vec3 {
	return [8]mgl64.Vec3{
		{b[0], b[1], b[2]},
		{b[3], b[1], b[2]},
		{b[3], b[4], b[2]},
		{b[0], b[4], b[2]},
		{b[0], b[1], b[5]},
		{b[3], b[1], b[5]},
		{b[3], b[4], b[5]},
		{b[0], b[4], b[5]},
	}
}

// TransformAABB transforms a box by m and returns the box enclosing the
// transformed corners.
func TransformAABB(m mgl64.Mat4, b AABB) AABB {
	if b.IsEmpty() {
		return b
	}
	out := CollapsedAABB()
	for _, c := range b.Corners() {
		out.ExpandPoint(mgl64.TransformCoordinate(c, m))
	}
	return out
}

// PositionsAABB returns the box enclosing a flat [x, y, z, ...] array.
func PositionsAABB(positions []float64) AABB {
	b := CollapsedAABB()
	for i := 0; i+2 < len(positions); i += 3 {
		b.ExpandPoint(mgl64.Vec3{positions[i], positions[i+1], positions[i+2]})
	}
	return b
}
