package systems

import (
	"github.com/pthm-cable/particlevision/config"
	"github.com/pthm-cable/particlevision/vision"
)

// LayerKind identifies a particle layer. It is fixed at construction.
type LayerKind uint8

const (
	LayerBackground LayerKind = iota
	LayerStatic
	LayerMotion
)

// LayerKinds lists the layers back to front.
var LayerKinds = []LayerKind{LayerBackground, LayerStatic, LayerMotion}

// String returns the layer name.
func (k LayerKind) String() string {
	switch k {
	case LayerStatic:
		return "static"
	case LayerMotion:
		return "motion"
	default:
		return "background"
	}
}

// ParseLayerKind returns the kind named by s.
func ParseLayerKind(s string) (LayerKind, bool) {
	for _, k := range LayerKinds {
		if k.String() == s {
			return k, true
		}
	}
	return 0, false
}

// Surface returns the layer's settings from the configuration surface.
func (k LayerKind) Surface(s *config.Surface) config.LayerSurface {
	switch k {
	case LayerStatic:
		return s.Static
	case LayerMotion:
		return s.Motion
	default:
		return s.Background
	}
}

// Pointer is the pointer position in world XY.
type Pointer struct {
	X, Y   float32
	Active bool
}

// TickContext is everything a layer reads during one tick.
type TickContext struct {
	Tick    uint64
	Time    float32 // elapsed seconds
	Surface config.Surface
	Pointer Pointer

	// Analysis is nil when the source had no frame this tick.
	Analysis *vision.Analysis
}

// Layer is the per-tick update contract shared by all particle layers.
// Prepare runs once per tick on the tick goroutine; UpdateRange may then
// run concurrently on disjoint index ranges.
type Layer interface {
	Kind() LayerKind
	Field() *ParticleField
	Prepare(ctx *TickContext)
	UpdateRange(ctx *TickContext, start, end int) ClassCounts
}

// Update runs a full single-threaded update of l.
func Update(l Layer, ctx *TickContext) ClassCounts {
	l.Prepare(ctx)
	return l.UpdateRange(ctx, 0, l.Field().Count)
}

// LayerFrame is what a render sink receives for one layer per tick.
// Positions and Colors alias the layer's arrays and are valid until the next tick.
type LayerFrame struct {
	Kind      LayerKind
	Count     int
	Positions []float32
	Colors    []float32
	Size      float32
	Opacity   float32
	Blend     BlendMode
	Visible   bool
	Scale     float32
	Tint      config.RGB
}
