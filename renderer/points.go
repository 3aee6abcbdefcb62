package renderer

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/particlevision/camera"
	"github.com/pthm-cable/particlevision/config"
	"github.com/pthm-cable/particlevision/systems"
)

// pointSizeFloor keeps tiny points visible as single pixels.
const pointSizeFloor = 0.004

// PointRenderer draws particle layers as small cubes in 3D space.
// It receives frames through Publish and draws the latest set on Draw.
type PointRenderer struct {
	frames []systems.LayerFrame
	tick   uint64
}

// NewPointRenderer creates a new point renderer.
func NewPointRenderer() *PointRenderer {
	return &PointRenderer{}
}

// Publish stores the frames for the next Draw. The frames alias layer
// arrays and must be drawn before the next tick.
func (r *PointRenderer) Publish(tick uint64, frames []systems.LayerFrame) {
	r.tick = tick
	r.frames = append(r.frames[:0], frames...)
}

// Tick returns the tick of the stored frames.
func (r *PointRenderer) Tick() uint64 {
	return r.tick
}

// Draw renders the stored frames back to front through cam.
func (r *PointRenderer) Draw(cam *camera.Orbit, background config.RGB) {
	rl.ClearBackground(toColor(background, 1))

	rl.BeginMode3D(Camera3D(cam))
	for i := range r.frames {
		f := &r.frames[i]
		if !f.Visible || f.Count == 0 {
			continue
		}
		rl.BeginBlendMode(blendMode(f.Blend))
		drawLayer(f)
		rl.EndBlendMode()
	}
	rl.EndMode3D()
}

// Camera3D converts the orbit camera to a raylib camera.
func Camera3D(cam *camera.Orbit) rl.Camera3D {
	px, py, pz := cam.Position()
	return rl.Camera3D{
		Position:   rl.Vector3{X: px, Y: py, Z: pz},
		Target:     rl.Vector3{X: cam.TargetX, Y: cam.TargetY, Z: cam.TargetZ},
		Up:         rl.Vector3{X: 0, Y: 1, Z: 0},
		Fovy:       cam.FOV,
		Projection: rl.CameraPerspective,
	}
}

func drawLayer(f *systems.LayerFrame) {
	size := f.Size * f.Scale
	if size < pointSizeFloor {
		size = pointSizeFloor
	}
	alpha := f.Opacity
	pos := f.Positions
	col := f.Colors

	for i := 0; i < f.Count; i++ {
		i3 := i * 3
		c := rl.Color{
			R: channel(col[i3]),
			G: channel(col[i3+1]),
			B: channel(col[i3+2]),
			A: channel(alpha),
		}
		if c.R == 0 && c.G == 0 && c.B == 0 && f.Blend == systems.BlendAdditive {
			continue
		}
		v := rl.Vector3{X: pos[i3] * f.Scale, Y: pos[i3+1] * f.Scale, Z: pos[i3+2] * f.Scale}
		rl.DrawCube(v, size, size, size, c)
	}
}

func blendMode(b systems.BlendMode) rl.BlendMode {
	switch b {
	case systems.BlendNormal:
		return rl.BlendAlpha
	case systems.BlendMultiply:
		return rl.BlendMultiplied
	default:
		return rl.BlendAdditive
	}
}

func channel(v float32) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255 + 0.5)
}

func toColor(c config.RGB, alpha float32) rl.Color {
	return rl.Color{R: channel(c.R), G: channel(c.G), B: channel(c.B), A: channel(alpha)}
}
