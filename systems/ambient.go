package systems

import (
	"math"
	"math/rand"

	"github.com/pthm-cable/particlevision/config"
)

// DriftMode selects how an ambient particle moves around its base.
type DriftMode uint8

const (
	DriftNone  DriftMode = iota
	DriftWave            // vertical bob
	DriftOrbit           // small circle
)

// ParseDriftMode maps a config name to a DriftMode. Unknown names mean none.
func ParseDriftMode(s string) DriftMode {
	switch s {
	case "wave":
		return DriftWave
	case "orbit":
		return DriftOrbit
	default:
		return DriftNone
	}
}

// Pulse is a sinusoidal brightness: base + amplitude*sin(t*speed + i*phase).
type Pulse struct {
	Speed, Phase, Base, Amplitude float32
	Weights                       [3]float32
}

// Drift is a positional oscillation with the same time/index phase scheme.
type Drift struct {
	Mode                    DriftMode
	Speed, Phase, Amplitude float32
}

// AmbientParams configures a time-driven layer.
type AmbientParams struct {
	Extent Extent
	Jitter float32
	Pulse  Pulse
	Drift  Drift
}

// AmbientParamsFromConfig converts the config section.
func AmbientParamsFromConfig(c config.AmbientLayerConfig) AmbientParams {
	p := AmbientParams{
		Extent: Extent{Width: float32(c.Width), Height: float32(c.Height), Depth: float32(c.Depth)},
		Jitter: float32(c.Jitter),
		Pulse: Pulse{
			Speed:     float32(c.Pulse.Speed),
			Phase:     float32(c.Pulse.Phase),
			Base:      float32(c.Pulse.Base),
			Amplitude: float32(c.Pulse.Amplitude),
			Weights:   [3]float32{1, 1, 1},
		},
		Drift: Drift{
			Mode:      ParseDriftMode(c.Drift.Mode),
			Speed:     float32(c.Drift.Speed),
			Phase:     float32(c.Drift.Phase),
			Amplitude: float32(c.Drift.Amplitude),
		},
	}
	for i := 0; i < len(c.Pulse.Weights) && i < 3; i++ {
		p.Pulse.Weights[i] = float32(c.Pulse.Weights[i])
	}
	return p
}

// AmbientLayer is a layer animated by time and particle index only.
type AmbientLayer struct {
	kind   LayerKind
	field  *ParticleField
	params AmbientParams
	tint   config.RGB
}

// NewAmbientLayer creates an ambient layer. Base positions are a jittered
// sqrt(count) grid; rng supplies the jitter.
func NewAmbientLayer(kind LayerKind, count int, params AmbientParams, rng *rand.Rand) *AmbientLayer {
	l := &AmbientLayer{
		kind:   kind,
		field:  NewParticleField(count),
		params: params,
		tint:   config.Gray(1),
	}

	ext := params.Extent
	j := params.Jitter
	grid := math.Sqrt(float64(count))
	for i := 0; i < count; i++ {
		row, col := gridCell(i, grid)
		x := float32(col/grid-0.5)*ext.Width + (rng.Float32()-0.5)*j
		y := float32(row/grid-0.5)*ext.Height + (rng.Float32()-0.5)*j
		z := ext.Depth + (rng.Float32()-0.5)*j
		l.field.SetBase(i, x, y, z)
	}
	l.field.ResetToBase()
	l.pulseRange(0, 0, count)
	return l
}

// Kind returns the layer identity.
func (l *AmbientLayer) Kind() LayerKind { return l.kind }

// Field returns the particle arrays.
func (l *AmbientLayer) Field() *ParticleField { return l.field }

// Prepare reads the layer color used as a tint.
func (l *AmbientLayer) Prepare(ctx *TickContext) {
	l.tint = l.kind.Surface(&ctx.Surface).Color
}

// UpdateRange animates particles [start, end).
func (l *AmbientLayer) UpdateRange(ctx *TickContext, start, end int) ClassCounts {
	l.driftRange(ctx.Time, start, end)
	l.pulseRange(ctx.Time, start, end)
	return ClassCounts{}
}

func (l *AmbientLayer) pulseRange(t float32, start, end int) {
	p := &l.params.Pulse
	c := l.field.Colors
	tr := p.Weights[0] * l.tint.R
	tg := p.Weights[1] * l.tint.G
	tb := p.Weights[2] * l.tint.B
	for i := start; i < end; i++ {
		v := fastSin(t*p.Speed+float32(i)*p.Phase)*p.Amplitude + p.Base
		i3 := i * 3
		c[i3] = v * tr
		c[i3+1] = v * tg
		c[i3+2] = v * tb
	}
}

func (l *AmbientLayer) driftRange(t float32, start, end int) {
	d := &l.params.Drift
	pos := l.field.Positions
	base := l.field.BasePositions

	switch d.Mode {
	case DriftWave:
		for i := start; i < end; i++ {
			i3 := i * 3
			pos[i3+1] = base[i3+1] + fastSin(t*d.Speed+float32(i)*d.Phase)*d.Amplitude
		}
	case DriftOrbit:
		for i := start; i < end; i++ {
			i3 := i * 3
			angle := t*d.Speed + float32(i)*d.Phase
			pos[i3] = base[i3] + fastCos(angle)*d.Amplitude
			pos[i3+1] = base[i3+1] + fastSin(angle)*d.Amplitude
		}
	}
}
