package systems

import (
	"math"

	"github.com/pthm-cable/particlevision/config"
)

// Interaction pushes particles away from the pointer in XY and toward the
// camera in Z, with a squared falloff that reaches zero at Radius.
type Interaction struct {
	Radius   float32
	Strength float32
}

// DefaultInteraction returns the stock radius and strength.
func DefaultInteraction() Interaction {
	return Interaction{Radius: 2, Strength: 0.05}
}

// InteractionFromConfig converts the config section.
func InteractionFromConfig(c config.InteractionConfig) Interaction {
	return Interaction{Radius: float32(c.Radius), Strength: float32(c.Strength)}
}

// Falloff returns the force factor at XY distance d: zero at or beyond
// Radius, Strength at d = 0.
func (in Interaction) Falloff(d float32) float32 {
	if d >= in.Radius {
		return 0
	}
	k := (in.Radius - d) / in.Radius
	return k * k * in.Strength
}

// ApplyRange displaces particles [start, end) of positions away from (px, py).
// The displacement is the pointer-to-particle delta scaled by the falloff.
func (in Interaction) ApplyRange(positions []float32, px, py float32, start, end int) int {
	r2 := in.Radius * in.Radius
	touched := 0
	for i := start; i < end; i++ {
		i3 := i * 3
		dx := positions[i3] - px
		dy := positions[i3+1] - py
		d2 := dx*dx + dy*dy
		if d2 >= r2 {
			continue
		}
		force := in.Falloff(float32(math.Sqrt(float64(d2))))
		positions[i3] += dx * force
		positions[i3+1] += dy * force
		positions[i3+2] += 2 * force
		touched++
	}
	return touched
}

// Apply displaces every particle of f.
func (in Interaction) Apply(f *ParticleField, p Pointer) int {
	if !p.Active {
		return 0
	}
	return in.ApplyRange(f.Positions, p.X, p.Y, 0, f.Count)
}
