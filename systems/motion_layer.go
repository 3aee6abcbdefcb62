package systems

import (
	"math"

	"github.com/pthm-cable/particlevision/config"
)

// MotionParams holds the tunables of the video-driven layer.
type MotionParams struct {
	EdgeThreshold    float32
	PullMoving       float32
	PullMovingZ      float32
	PullStatic       float32
	PullTransitional float32
	PullIdle         float32
	IdleGray         float32
	Seed             uint32
}

// DefaultMotionParams returns the stock pull factors.
func DefaultMotionParams() MotionParams {
	return MotionParams{
		EdgeThreshold:    0.1,
		PullMoving:       0.4,
		PullMovingZ:      0.3,
		PullStatic:       0.15,
		PullTransitional: 0.08,
		PullIdle:         0.1,
		IdleGray:         0.5,
		Seed:             1,
	}
}

// MotionParamsFromConfig reads the layer tunables from cfg.
func MotionParamsFromConfig(m config.MotionConfig) MotionParams {
	return MotionParams{
		EdgeThreshold:    float32(m.EdgeThreshold),
		PullMoving:       float32(m.PullMoving),
		PullMovingZ:      float32(m.PullMovingZ),
		PullStatic:       float32(m.PullStatic),
		PullTransitional: float32(m.PullTransitional),
		PullIdle:         float32(m.PullIdle),
		IdleGray:         float32(m.IdleGray),
		Seed:             m.Seed,
	}
}

// Depth targets per class.
const (
	staticDepth       = 4
	transitionalDepth = 2
	idleDepth         = 2
)

// Extent is a layer's world-space grid size and base depth.
type Extent struct {
	Width, Height, Depth float32
}

// MotionLayer is the video-driven particle layer. Each particle samples one
// pixel of the motion, edge and color maps through a fixed grid mapping.
type MotionLayer struct {
	field  *ParticleField
	params MotionParams
	grid   float64
	rows   []float32
	cols   []float32

	// Pixel index per particle for the current map size.
	mapW, mapH int
	pixel      []int32

	// Per-tick values copied in Prepare.
	th         Thresholds
	moving     config.RGB
	nonMoving  config.RGB
	hideStatic bool
}

// NewMotionLayer creates a motion layer of count particles laid out on a
// sqrt(count) grid spanning ext, stretched horizontally by aspect.
func NewMotionLayer(count int, ext Extent, aspect float32, params MotionParams) *MotionLayer {
	l := &MotionLayer{
		field:  NewParticleField(count),
		params: params,
		grid:   math.Sqrt(float64(count)),
		rows:   make([]float32, count),
		cols:   make([]float32, count),
		pixel:  make([]int32, count),
	}

	for i := 0; i < count; i++ {
		row, col := gridCell(i, l.grid)
		l.rows[i] = float32(row)
		l.cols[i] = float32(col)

		x := float32(col/l.grid-0.5) * ext.Width * aspect
		y := -float32(row/l.grid-0.5) * ext.Height
		l.field.SetBase(i, x, y, ext.Depth)
	}
	l.field.ResetToBase()
	l.field.Fill(params.IdleGray, params.IdleGray, params.IdleGray)
	return l
}

// Kind returns LayerMotion.
func (l *MotionLayer) Kind() LayerKind { return LayerMotion }

// Field returns the particle arrays.
func (l *MotionLayer) Field() *ParticleField { return l.field }

// Prepare copies this tick's settings and rebuilds the pixel mapping when
// the map dimensions changed.
func (l *MotionLayer) Prepare(ctx *TickContext) {
	s := &ctx.Surface
	l.th = Thresholds{
		Motion: s.MotionThreshold,
		Static: s.StaticThreshold,
		Edge:   l.params.EdgeThreshold,
	}
	l.moving = s.Motion.Color
	l.nonMoving = s.NonMovingColor
	l.hideStatic = s.HideStatic

	if a := ctx.Analysis; a != nil && (a.Frame.Width != l.mapW || a.Frame.Height != l.mapH) {
		l.remap(a.Frame.Width, a.Frame.Height)
	}
}

// remap computes each particle's pixel index for a w×h map.
func (l *MotionLayer) remap(w, h int) {
	l.mapW, l.mapH = w, h
	stepX := float64(w) / l.grid
	stepY := float64(h) / l.grid
	for i := range l.pixel {
		x := int(math.Floor(float64(l.cols[i]) * stepX))
		y := int(math.Floor(float64(l.rows[i]) * stepY))
		x = min(max(x, 0), w-1)
		y = min(max(y, 0), h-1)
		l.pixel[i] = int32(y*w + x)
	}
}

// PixelIndex returns the map index sampled by particle i.
func (l *MotionLayer) PixelIndex(i int) int {
	return int(l.pixel[i])
}

// UpdateRange classifies and advances particles [start, end).
func (l *MotionLayer) UpdateRange(ctx *TickContext, start, end int) ClassCounts {
	var counts ClassCounts
	f := l.field
	p := l.params

	a := ctx.Analysis
	if a == nil {
		for i := start; i < end; i++ {
			i3 := i * 3
			f.pullToward(i3, f.BasePositions[i3], f.BasePositions[i3+1], idleDepth, p.PullIdle, p.PullIdle)
			f.Colors[i3] = p.IdleGray
			f.Colors[i3+1] = p.IdleGray
			f.Colors[i3+2] = p.IdleGray
		}
		counts.Idle = end - start
		return counts
	}

	motion := a.Motion.Values
	edges := a.Edges.Values
	pix := a.Frame.Pix
	tick := uint32(ctx.Tick)

	for i := start; i < end; i++ {
		i3 := i * 3
		m := int(l.pixel[i])
		px := m * 4
		r := float32(pix[px]) / 255
		g := float32(pix[px+1]) / 255
		b := float32(pix[px+2]) / 255
		mv := motion[m]
		edge := edges[m]

		class := Classify(mv, edge, l.th)
		counts.inc(class)

		switch class {
		case ClassMoving:
			intensity := minf(mv*2, 1)
			boost := 1 + edge*3
			spread := intensity * boost * 4
			ox := (hash01(p.Seed, tick, uint32(i), 0) - 0.5) * spread
			oy := (hash01(p.Seed, tick, uint32(i), 1) - 0.5) * spread
			tz := 1 - intensity*boost*0.5
			f.pullToward(i3, f.BasePositions[i3]+ox, f.BasePositions[i3+1]+oy, tz, p.PullMoving, p.PullMovingZ)

			cb := 1 + edge*0.8
			f.Colors[i3] = minf(1, l.moving.R*r*cb)
			f.Colors[i3+1] = minf(1, l.moving.G*g*cb)
			f.Colors[i3+2] = minf(1, l.moving.B*b*cb)

		case ClassStatic:
			f.pullToward(i3, f.BasePositions[i3], f.BasePositions[i3+1], staticDepth, p.PullStatic, p.PullStatic)
			if l.hideStatic {
				f.Colors[i3] = 0
				f.Colors[i3+1] = 0
				f.Colors[i3+2] = 0
			} else {
				f.Colors[i3] = maxf(0.1, l.nonMoving.R*r*0.6)
				f.Colors[i3+1] = maxf(0.1, l.nonMoving.G*g*0.6)
				f.Colors[i3+2] = maxf(0.1, l.nonMoving.B*b*0.6)
			}

		default:
			brightness := (r + g + b) / 3
			f.pullToward(i3, f.BasePositions[i3], f.BasePositions[i3+1], transitionalDepth+brightness*0.2, p.PullTransitional, p.PullTransitional)

			// Weight is not clamped: strong motion without an edge lands
			// here with w > 1.
			w := mv / l.th.Motion
			f.Colors[i3] = w*l.moving.R*r + (1-w)*l.nonMoving.R*r
			f.Colors[i3+1] = w*l.moving.G*g + (1-w)*l.nonMoving.G*g
			f.Colors[i3+2] = w*l.moving.B*b + (1-w)*l.nonMoving.B*b
		}
	}
	return counts
}
