// Package components defines the ECS components describing particle layers.
package components

import (
	"github.com/pthm-cable/particlevision/config"
	"github.com/pthm-cable/particlevision/systems"
)

// Layer identifies a particle layer and its draw order (lower draws first).
type Layer struct {
	Kind  systems.LayerKind
	Order int
}

// Appearance holds the construction-time render settings of a layer.
type Appearance struct {
	Size    float32 // point size in world units
	Opacity float32
}

// AppearanceFromConfig reads size and opacity from a layer config.
func AppearanceFromConfig(l config.LayerConfig) Appearance {
	return Appearance{Size: float32(l.Size), Opacity: float32(l.Opacity)}
}

// Simulation binds an entity to the layer that owns its particle arrays.
type Simulation struct {
	Layer systems.Layer
}

// Activity records what happened to a layer during the last tick.
type Activity struct {
	Counts  systems.ClassCounts
	Touched int // particles displaced by the pointer
}
