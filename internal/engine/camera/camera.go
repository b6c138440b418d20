// Package camera provides the orbit camera used to look at and pick from
// a built scene.
package camera

import (
	gomath "math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/scenebatch/internal/engine/picking"
	smath "github.com/Faultbox/scenebatch/pkg/math"
)

// OrbitCamera orbits around a center point.
type OrbitCamera struct {
	Center mgl64.Vec3

	Distance float64
	Pitch    float64 // Radians above the horizon
	Yaw      float64 // Radians around +Y

	MinDistance float64
	MaxDistance float64
	MinPitch    float64
	MaxPitch    float64

	FovY       float64 // Degrees
	Near, Far  float64
	DragFactor float64
	ZoomFactor float64
}

// NewOrbitCamera creates a new orbit camera with default settings.
func NewOrbitCamera() *OrbitCamera {
	return &OrbitCamera{
		Distance:    20,
		Pitch:       0.5,
		MinDistance: 0.1,
		MaxDistance: 1e7,
		MinPitch:    -1.5,
		MaxPitch:    1.5,
		FovY:        60,
		Near:        0.1,
		Far:         1e4,
		DragFactor:  0.005,
		ZoomFactor:  0.1,
	}
}

// Position returns the camera position in world space.
func (c *OrbitCamera) Position() mgl64.Vec3 {
	cp := gomath.Cos(c.Pitch)
	return c.Center.Add(mgl64.Vec3{
		cp * gomath.Sin(c.Yaw),
		gomath.Sin(c.Pitch),
		cp * gomath.Cos(c.Yaw),
	}.Mul(c.Distance))
}

// ViewMatrix returns the view matrix for this camera.
func (c *OrbitCamera) ViewMatrix() mgl64.Mat4 {
	return mgl64.LookAtV(c.Position(), c.Center, mgl64.Vec3{0, 1, 0})
}

// ProjectionMatrix returns a perspective projection for the aspect ratio.
func (c *OrbitCamera) ProjectionMatrix(aspect float64) mgl64.Mat4 {
	return mgl64.Perspective(mgl64.DegToRad(c.FovY), aspect, c.Near, c.Far)
}

// Ray returns the world ray through window pixel (x, y), y down.
func (c *OrbitCamera) Ray(x, y, width, height int) picking.Ray {
	vp := c.ProjectionMatrix(float64(width) / float64(max(height, 1))).Mul4(c.ViewMatrix())
	return picking.ScreenToRay(float64(x)+0.5, float64(y)+0.5, float64(width), float64(height), vp.Inv())
}

// HandleDrag rotates by a mouse drag delta in pixels.
func (c *OrbitCamera) HandleDrag(dx, dy float64) {
	c.Yaw -= dx * c.DragFactor
	c.Pitch = mgl64.Clamp(c.Pitch+dy*c.DragFactor, c.MinPitch, c.MaxPitch)
}

// HandleZoom scales the distance by a scroll wheel delta.
func (c *OrbitCamera) HandleZoom(delta float64) {
	c.Distance = mgl64.Clamp(c.Distance-delta*c.Distance*c.ZoomFactor, c.MinDistance, c.MaxDistance)
}

// FitToBounds centres box in view and moves back until it fits the
// vertical field of view. Near and far follow the distance.
func (c *OrbitCamera) FitToBounds(box smath.AABB) {
	if box.IsEmpty() {
		return
	}
	c.Center = box.Center()
	radius := max(box.Size().Len()/2, 1e-3)
	c.Distance = mgl64.Clamp(radius/gomath.Sin(mgl64.DegToRad(c.FovY)/2), c.MinDistance, c.MaxDistance)
	c.Near = max(c.Distance-radius*2, c.Distance*1e-3)
	c.Far = c.Distance + radius*2
}
