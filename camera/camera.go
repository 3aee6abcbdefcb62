// Package camera provides an orbit camera for viewing the particle layers
// and the pointer-to-world mapping used by the interaction field.
package camera

import (
	"math"

	"github.com/pthm-cable/particlevision/config"
)

// maxPitch keeps the camera off the poles.
const maxPitch = math.Pi/2 - 0.01

// Orbit is a damped orbit camera looking at a target point.
// Yaw 0 and pitch 0 place the camera on the +Z axis.
type Orbit struct {
	// Target is the point the camera orbits
	TargetX, TargetY, TargetZ float32

	// Spherical offset from the target
	Yaw, Pitch, Distance float32

	// Vertical field of view in degrees
	FOV float32

	// Viewport dimensions (screen size)
	ViewportW, ViewportH float32

	MinDistance, MaxDistance float32
	Damping                  float32 // fraction of velocity lost per update
	RotateSpeed              float32
	ZoomSpeed                float32
	PanSpeed                 float32

	yawVel, pitchVel, zoomVel float32
	initialDistance           float32
}

// New creates an orbit camera from config.
func New(cfg config.CameraConfig, viewportW, viewportH float32) *Orbit {
	return &Orbit{
		Distance:        float32(cfg.Distance),
		FOV:             float32(cfg.FOV),
		ViewportW:       viewportW,
		ViewportH:       viewportH,
		MinDistance:     float32(cfg.MinDistance),
		MaxDistance:     float32(cfg.MaxDistance),
		Damping:         float32(cfg.Damping),
		RotateSpeed:     float32(cfg.RotateSpeed),
		ZoomSpeed:       float32(cfg.ZoomSpeed),
		PanSpeed:        float32(cfg.PanSpeed),
		initialDistance: float32(cfg.Distance),
	}
}

// Position returns the camera's world position.
func (c *Orbit) Position() (x, y, z float32) {
	sy, cy := sincos(c.Yaw)
	sp, cp := sincos(c.Pitch)
	return c.TargetX + c.Distance*sy*cp,
		c.TargetY + c.Distance*sp,
		c.TargetZ + c.Distance*cy*cp
}

// Rotate adds angular velocity from a screen-space drag in pixels.
func (c *Orbit) Rotate(dx, dy float32) {
	k := 2 * math.Pi / c.ViewportH * c.RotateSpeed
	c.yawVel -= dx * k
	c.pitchVel += dy * k
}

// Zoom adds dolly velocity from a wheel delta. Positive wheel moves closer.
func (c *Orbit) Zoom(wheel float32) {
	c.zoomVel -= wheel * c.ZoomSpeed * 0.1
}

// Pan moves the target by a screen-space drag in pixels, in the camera plane.
func (c *Orbit) Pan(dx, dy float32) {
	fov := float64(c.FOV) * math.Pi / 180
	perPixel := 2 * c.Distance * float32(math.Tan(fov/2)) / c.ViewportH * c.PanSpeed

	sy, cy := sincos(c.Yaw)
	sp, cp := sincos(c.Pitch)
	// Camera right and up vectors
	rx, rz := cy, -sy
	ux, uy, uz := -sp*sy, cp, -sp*cy

	c.TargetX += (-dx*rx + dy*ux) * perPixel
	c.TargetY += dy * uy * perPixel
	c.TargetZ += (-dx*rz + dy*uz) * perPixel
}

// Update integrates and damps the angular and dolly velocities.
func (c *Orbit) Update() {
	c.Yaw += c.yawVel
	c.Pitch = clamp(c.Pitch+c.pitchVel, -maxPitch, maxPitch)
	c.Distance = clamp(c.Distance*float32(math.Exp(float64(c.zoomVel))), c.MinDistance, c.MaxDistance)

	keep := 1 - c.Damping
	c.yawVel *= keep
	c.pitchVel *= keep
	c.zoomVel *= keep
}

// Moving reports whether any velocity is still noticeable.
func (c *Orbit) Moving() bool {
	const eps = 1e-5
	return absf(c.yawVel) > eps || absf(c.pitchVel) > eps || absf(c.zoomVel) > eps
}

// Resize updates viewport dimensions.
func (c *Orbit) Resize(viewportW, viewportH float32) {
	c.ViewportW = viewportW
	c.ViewportH = viewportH
}

// Reset returns the camera to its initial pose.
func (c *Orbit) Reset() {
	c.TargetX, c.TargetY, c.TargetZ = 0, 0, 0
	c.Yaw, c.Pitch = 0, 0
	c.Distance = c.initialDistance
	c.yawVel, c.pitchVel, c.zoomVel = 0, 0, 0
}

// PointerNDC converts a screen position to normalized device coordinates:
// x in [-1, 1] left to right, y in [-1, 1] bottom to top.
func PointerNDC(sx, sy, viewportW, viewportH float32) (nx, ny float32) {
	return 2*sx/viewportW - 1, 1 - 2*sy/viewportH
}

// PointerWorld maps a screen position to world XY by scaling its NDC.
func PointerWorld(sx, sy, viewportW, viewportH, scale float32) (wx, wy float32) {
	nx, ny := PointerNDC(sx, sy, viewportW, viewportH)
	return nx * scale, ny * scale
}

func sincos(a float32) (float32, float32) {
	s, c := math.Sincos(float64(a))
	return float32(s), float32(c)
}

// absf returns the absolute value of a float32.
func absf(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}

// clamp restricts a value to a range.
func clamp(x, min, max float32) float32 {
	if x < min {
		return min
	}
	if x > max {
		return max
	}
	return x
}
