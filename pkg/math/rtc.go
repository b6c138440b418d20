package math

import (
	gomath "math"

	"github.com/go-gl/mathgl/mgl64"
)

// DefaultRTCCellSize is the grid size that relative-to-center origins snap to.
const DefaultRTCCellSize = 200.0

// PositionsCenter returns the arithmetic mean of a flat position array.
func PositionsCenter(positions []float64) mgl64.Vec3 {
	n := len(positions) / 3
	if n == 0 {
		return mgl64.Vec3{}
	}
	var sum mgl64.Vec3
	for i := 0; i+2 < len(positions); i += 3 {
		sum[0] += positions[i]
		sum[1] += positions[i+1]
		sum[2] += positions[i+2]
	}
	return sum.Mul(1 / float64(n))
}

// RTCCenter returns the center of positions snapped to cellSize. needed is
// false when the center snaps to the origin.
func RTCCenter(positions []float64, cellSize float64) (center mgl64.Vec3, needed bool) {
	if cellSize <= 0 {
		cellSize = DefaultRTCCellSize
	}
	c := PositionsCenter(positions)
	center = mgl64.Vec3{
		gomath.Round(c[0]/cellSize) * cellSize,
		gomath.Round(c[1]/cellSize) * cellSize,
		gomath.Round(c[2]/cellSize) * cellSize,
	}
	return center, center != (mgl64.Vec3{})
}

// WorldToRTC converts world positions to positions relative to a center
// snapped to cellSize. needed is false when the center snaps to the origin,
// in which case rtc aliases positions.
func WorldToRTC(positions []float64, cellSize float64) (rtc []float64, center mgl64.Vec3, needed bool) {
	center, needed = RTCCenter(positions, cellSize)
	if !needed {
		return positions, center, false
	}
	rtc = make([]float64, len(positions))
	for i := 0; i+2 < len(positions); i += 3 {
		rtc[i] = positions[i] - center[0]
		rtc[i+1] = positions[i+1] - center[1]
		rtc[i+2] = positions[i+2] - center[2]
	}
	return rtc, center, true
}

// OriginKey quantizes an origin to tolerance so that nearly coincident
// origins compare equal. A non-positive tolerance compares exact bits.
func OriginKey(origin mgl64.Vec3, tolerance float64) [3]int64 {
	if tolerance <= 0 {
		return [3]int64{
			int64(gomath.Float64bits(origin[0])),
			int64(gomath.Float64bits(origin[1])),
			int64(gomath.Float64bits(origin[2])),
		}
	}
	return [3]int64{
		int64(gomath.Round(origin[0] / tolerance)),
		int64(gomath.Round(origin[1] / tolerance)),
		int64(gomath.Round(origin[2] / tolerance)),
	}
}
