package systems

import (
	"math"
	"math/rand"
	"testing"

	"github.com/pthm-cable/particlevision/config"
	"github.com/pthm-cable/particlevision/vision"
)

func testSurface() config.Surface {
	moving, _ := config.ParseHex("#60A5FA")
	nonMoving, _ := config.ParseHex("#374151")
	return config.Surface{
		Motion:          config.LayerSurface{Color: moving, Visible: true, Blend: "normal", Scale: 1},
		Static:          config.LayerSurface{Color: config.Gray(1), Visible: true, Blend: "normal", Scale: 1},
		Background:      config.LayerSurface{Color: config.Gray(1), Visible: true, Blend: "normal", Scale: 1},
		NonMovingColor:  nonMoving,
		MotionThreshold: 0.08,
		StaticThreshold: 0.03,
	}
}

// analysisOf builds an analysis with uniform motion and edge values.
func analysisOf(w, h int, motion, edge float32, px uint8) *vision.Analysis {
	a := &vision.Analysis{
		Frame:  vision.Frame{Width: w, Height: h, Pix: make([]uint8, w*h*4)},
		Edges:  vision.NewGrid(w, h),
		Motion: vision.NewGrid(w, h),
	}
	for i := range a.Frame.Pix {
		a.Frame.Pix[i] = px
	}
	for i := range a.Motion.Values {
		a.Motion.Values[i] = motion
		a.Edges.Values[i] = edge
	}
	return a
}

func approx(a, b float32) bool {
	return math.Abs(float64(a-b)) < 1e-5
}

func TestClassifyThresholdBoundaries(t *testing.T) {
	th := DefaultThresholds()

	tests := []struct {
		name   string
		motion float32
		edge   float32
		want   Class
	}{
		{"at motion threshold is not moving", 0.08, 1, ClassTransitional},
		{"just above motion threshold", 0.0801, 1, ClassMoving},
		{"above threshold without edge", 0.5, 0.1, ClassTransitional},
		{"edge just above edge threshold", 0.5, 0.1001, ClassMoving},
		{"at static threshold is not static", 0.03, 0, ClassTransitional},
		{"just below static threshold", 0.0299, 0, ClassStatic},
		{"zero motion", 0, 5, ClassStatic},
		{"between thresholds", 0.05, 5, ClassTransitional},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.motion, tt.edge, th); got != tt.want {
				t.Errorf("Classify(%v, %v) = %v, want %v", tt.motion, tt.edge, got, tt.want)
			}
		})
	}
}

func TestClassifyIsExhaustive(t *testing.T) {
	th := DefaultThresholds()
	for m := float32(0); m < 1.5; m += 0.005 {
		for e := float32(0); e < 3; e += 0.05 {
			moving := m > th.Motion && e > th.Edge
			static := !moving && m < th.Static
			transitional := !moving && !static

			n := 0
			for _, ok := range []bool{moving, static, transitional} {
				if ok {
					n++
				}
			}
			if n != 1 {
				t.Fatalf("motion=%v edge=%v matched %d classes", m, e, n)
			}

			got := Classify(m, e, th)
			if (got == ClassMoving) != moving || (got == ClassStatic) != static || (got == ClassTransitional) != transitional {
				t.Fatalf("motion=%v edge=%v classified %v", m, e, got)
			}
		}
	}
}

func TestMotionLayerBasePositions(t *testing.T) {
	l := NewMotionLayer(100, Extent{Width: 10, Height: 8, Depth: 3}, 16.0/9.0, DefaultMotionParams())
	f := l.Field()

	if len(f.Positions) != 300 || len(f.BasePositions) != 300 || len(f.Colors) != 300 {
		t.Fatalf("expected 3*count arrays, got %d/%d/%d", len(f.Positions), len(f.BasePositions), len(f.Colors))
	}

	// Particle 0 sits at the top-left corner of the grid
	if !approx(f.BasePositions[0], -0.5*10*16.0/9.0) || !approx(f.BasePositions[1], 4) || f.BasePositions[2] != 3 {
		t.Errorf("unexpected base of particle 0: %v", f.BasePositions[:3])
	}
	// Particle 55 is row 5, col 5 on a 10x10 grid: the center
	if !approx(f.BasePositions[165], 0) || !approx(f.BasePositions[166], 0) {
		t.Errorf("expected particle 55 at origin, got %v", f.BasePositions[165:168])
	}
}

func TestMotionLayerPixelMapping(t *testing.T) {
	l := NewMotionLayer(100, Extent{Width: 10, Height: 8, Depth: 3}, 1, DefaultMotionParams())
	ctx := &TickContext{Surface: testSurface(), Analysis: analysisOf(128, 72, 0, 0, 128)}
	l.Prepare(ctx)

	// row 3, col 7 on a 10x10 grid over 128x72
	want := 21*128 + 89
	if got := l.PixelIndex(37); got != want {
		t.Errorf("PixelIndex(37) = %d, want %d", got, want)
	}

	// Non-square count: every index stays inside the map
	l = NewMotionLayer(45000, Extent{Width: 10, Height: 8, Depth: 3}, 1, DefaultMotionParams())
	l.Prepare(ctx)
	for i := 0; i < 45000; i++ {
		if idx := l.PixelIndex(i); idx < 0 || idx >= 128*72 {
			t.Fatalf("particle %d maps outside the frame: %d", i, idx)
		}
	}
}

func TestMotionLayerStaticScenario(t *testing.T) {
	surface := testSurface()
	l := NewMotionLayer(64, Extent{Width: 10, Height: 8, Depth: 3}, 16.0/9.0, DefaultMotionParams())
	ctx := &TickContext{Surface: surface, Analysis: analysisOf(128, 72, 0, 0, 200)}

	counts := Update(l, ctx)
	if counts.Static != 64 {
		t.Fatalf("expected all 64 particles static, got %+v", counts)
	}

	px := float32(200) / 255
	nm := surface.NonMovingColor
	want := [3]float32{
		maxf(0.1, nm.R*px*0.6),
		maxf(0.1, nm.G*px*0.6),
		maxf(0.1, nm.B*px*0.6),
	}
	c := l.Field().Colors
	for i := 0; i < 64; i++ {
		for ch := 0; ch < 3; ch++ {
			if !approx(c[i*3+ch], want[ch]) {
				t.Fatalf("particle %d channel %d: got %v, want %v", i, ch, c[i*3+ch], want[ch])
			}
		}
	}
}

func TestMotionLayerStaticFloor(t *testing.T) {
	l := NewMotionLayer(16, Extent{Width: 10, Height: 8, Depth: 3}, 1, DefaultMotionParams())
	Update(l, &TickContext{Surface: testSurface(), Analysis: analysisOf(16, 16, 0, 0, 0)})

	for i, v := range l.Field().Colors {
		if v != 0.1 {
			t.Fatalf("expected floor 0.1 for black pixels, got %v at %d", v, i)
		}
	}
}

func TestMotionLayerHideStatic(t *testing.T) {
	surface := testSurface()
	surface.HideStatic = true
	l := NewMotionLayer(16, Extent{Width: 10, Height: 8, Depth: 3}, 1, DefaultMotionParams())
	Update(l, &TickContext{Surface: surface, Analysis: analysisOf(16, 16, 0, 0, 200)})

	for i, v := range l.Field().Colors {
		if v != 0 {
			t.Fatalf("expected hidden static particles, got %v at %d", v, i)
		}
	}
}

func TestMotionLayerMovingPullsAndColors(t *testing.T) {
	surface := testSurface()
	l := NewMotionLayer(16, Extent{Width: 10, Height: 8, Depth: 3}, 1, DefaultMotionParams())
	ctx := &TickContext{Surface: surface, Analysis: analysisOf(16, 16, 0.7, 2, 255)}

	counts := Update(l, ctx)
	if counts.Moving != 16 {
		t.Fatalf("expected all particles moving, got %+v", counts)
	}

	f := l.Field()
	// intensity 1, boost 7: z target 1 - 3.5 = -2.5, pulled 0.3 from 3
	wantZ := float32(3 + (-2.5-3)*0.3)
	for i := 0; i < 16; i++ {
		if !approx(f.Positions[i*3+2], wantZ) {
			t.Fatalf("particle %d z = %v, want %v", i, f.Positions[i*3+2], wantZ)
		}
		// Offset is within ±spread/2 and pulled by 0.4
		dx := f.Positions[i*3] - f.BasePositions[i*3]
		if dx < -0.4*14 || dx > 0.4*14 {
			t.Fatalf("particle %d x displacement %v out of range", i, dx)
		}
	}

	// Contour boost 2.6 saturates green and blue of a white pixel
	mc := surface.Motion.Color
	if !approx(f.Colors[0], mc.R*2.6) {
		t.Errorf("expected boosted red %v, got %v", mc.R*2.6, f.Colors[0])
	}
	if f.Colors[1] != 1 || f.Colors[2] != 1 {
		t.Errorf("expected clamped green and blue, got %v", f.Colors[1:3])
	}
}

func TestMotionLayerTransitionalBlend(t *testing.T) {
	surface := testSurface()
	l := NewMotionLayer(4, Extent{Width: 10, Height: 8, Depth: 3}, 1, DefaultMotionParams())
	Update(l, &TickContext{Surface: surface, Analysis: analysisOf(8, 8, 0.04, 0, 255)})

	w := float32(0.04) / 0.08
	want := w*surface.Motion.Color.R + (1-w)*surface.NonMovingColor.R
	if got := l.Field().Colors[0]; !approx(got, want) {
		t.Errorf("transitional red = %v, want %v", got, want)
	}

	// z target 2 + brightness*0.2 with brightness 1
	wantZ := float32(3 + (2.2-3)*0.08)
	if got := l.Field().Positions[2]; !approx(got, wantZ) {
		t.Errorf("transitional z = %v, want %v", got, wantZ)
	}
}

func TestMotionLayerIdle(t *testing.T) {
	l := NewMotionLayer(9, Extent{Width: 10, Height: 8, Depth: 3}, 1, DefaultMotionParams())
	f := l.Field()
	f.Positions[0] += 1

	counts := Update(l, &TickContext{Surface: testSurface()})
	if counts.Idle != 9 {
		t.Fatalf("expected idle particles, got %+v", counts)
	}
	if !approx(f.Positions[0], f.BasePositions[0]+0.9) {
		t.Errorf("expected decay at 0.1, got %v from base %v", f.Positions[0], f.BasePositions[0])
	}
	if !approx(f.Positions[2], 3+(2-3)*0.1) {
		t.Errorf("expected idle z toward 2, got %v", f.Positions[2])
	}
	for _, v := range f.Colors {
		if v != 0.5 {
			t.Fatalf("expected mid-gray idle color, got %v", v)
		}
	}
}

func TestMotionLayerDeterministicAcrossChunks(t *testing.T) {
	ext := Extent{Width: 10, Height: 8, Depth: 3}
	whole := NewMotionLayer(400, ext, 1, DefaultMotionParams())
	split := NewMotionLayer(400, ext, 1, DefaultMotionParams())

	for tick := uint64(0); tick < 5; tick++ {
		ctx := &TickContext{Tick: tick, Surface: testSurface(), Analysis: analysisOf(32, 18, 0.5, 1, 180)}
		Update(whole, ctx)

		split.Prepare(ctx)
		for start := 0; start < 400; start += 77 {
			split.UpdateRange(ctx, start, min(start+77, 400))
		}
	}

	a, b := whole.Field(), split.Field()
	for i := range a.Positions {
		if a.Positions[i] != b.Positions[i] {
			t.Fatalf("position %d differs: %v vs %v", i, a.Positions[i], b.Positions[i])
		}
	}
}

func TestAmbientLayerPulseAndWave(t *testing.T) {
	params := AmbientParams{
		Extent: Extent{Width: 15, Height: 12, Depth: -8},
		Jitter: 0.5,
		Pulse:  Pulse{Speed: 1, Phase: 0.02, Base: 0.3, Amplitude: 0.2, Weights: [3]float32{1, 0.8, 1.2}},
		Drift:  Drift{Mode: DriftWave, Speed: 0.5, Phase: 0.01, Amplitude: 0.2},
	}
	l := NewAmbientLayer(LayerBackground, 100, params, rand.New(rand.NewSource(1)))
	f := l.Field()

	for i := 0; i < 100; i++ {
		z := f.BasePositions[i*3+2]
		if z < -8.25 || z > -7.75 {
			t.Fatalf("particle %d depth %v outside jitter band", i, z)
		}
	}

	ctx := &TickContext{Time: 2, Surface: testSurface()}
	Update(l, ctx)

	i := 10
	pulse := float32(math.Sin(2+float64(i)*0.02))*0.2 + 0.3
	if c := f.Colors[i*3]; math.Abs(float64(c-pulse)) > 0.005 {
		t.Errorf("red = %v, want about %v", c, pulse)
	}
	if c := f.Colors[i*3+2]; math.Abs(float64(c-pulse*1.2)) > 0.005 {
		t.Errorf("blue = %v, want about %v", c, pulse*1.2)
	}

	wave := float32(math.Sin(2*0.5+float64(i)*0.01)) * 0.2
	if dy := f.Positions[i*3+1] - f.BasePositions[i*3+1]; math.Abs(float64(dy-wave)) > 0.005 {
		t.Errorf("wave offset = %v, want about %v", dy, wave)
	}
	if f.Positions[i*3] != f.BasePositions[i*3] {
		t.Error("wave drift must not move x")
	}
}

func TestAmbientLayerTint(t *testing.T) {
	params := AmbientParams{
		Extent: Extent{Width: 12, Height: 10, Depth: -2},
		Pulse:  Pulse{Base: 1, Weights: [3]float32{1, 1, 1}},
	}
	l := NewAmbientLayer(LayerStatic, 4, params, rand.New(rand.NewSource(1)))

	surface := testSurface()
	surface.Static.Color = config.RGB{R: 1, G: 0.5, B: 0}
	Update(l, &TickContext{Surface: surface})

	c := l.Field().Colors
	if !approx(c[0], 1) || !approx(c[1], 0.5) || !approx(c[2], 0) {
		t.Errorf("expected tinted color (1, 0.5, 0), got %v", c[:3])
	}
}

func TestAmbientLayerSeeded(t *testing.T) {
	params := AmbientParams{Extent: Extent{Width: 12, Height: 10, Depth: -2}, Jitter: 0.3}
	a := NewAmbientLayer(LayerStatic, 50, params, rand.New(rand.NewSource(7)))
	b := NewAmbientLayer(LayerStatic, 50, params, rand.New(rand.NewSource(7)))

	for i := range a.Field().BasePositions {
		if a.Field().BasePositions[i] != b.Field().BasePositions[i] {
			t.Fatalf("same seed produced different base at %d", i)
		}
	}
}

func TestInteractionLocality(t *testing.T) {
	in := DefaultInteraction()

	if got := in.Falloff(0); got != in.Strength {
		t.Errorf("Falloff(0) = %v, want %v", got, in.Strength)
	}
	if got := in.Falloff(in.Radius); got != 0 {
		t.Errorf("Falloff(radius) = %v, want 0", got)
	}
	if got := in.Falloff(in.Radius + 0.01); got != 0 {
		t.Errorf("Falloff beyond radius = %v, want 0", got)
	}

	f := NewParticleField(2)
	f.Positions = []float32{
		1, 0, 0, // inside
		2.5, 0, 0, // outside
	}
	n := in.Apply(f, Pointer{X: 0, Y: 0, Active: true})
	if n != 1 {
		t.Errorf("expected 1 particle touched, got %d", n)
	}

	force := in.Falloff(1)
	if !approx(f.Positions[0], 1+force) || !approx(f.Positions[2], 2*force) {
		t.Errorf("unexpected displacement: %v", f.Positions[:3])
	}
	if f.Positions[3] != 2.5 || f.Positions[5] != 0 {
		t.Errorf("particle outside radius moved: %v", f.Positions[3:6])
	}
}

func TestInteractionInactivePointer(t *testing.T) {
	f := NewParticleField(1)
	if n := DefaultInteraction().Apply(f, Pointer{}); n != 0 {
		t.Errorf("expected no effect without an active pointer, got %d", n)
	}
}

func TestResolveBlend(t *testing.T) {
	tests := []struct {
		name    string
		enabled bool
		want    BlendMode
	}{
		{"normal", false, BlendAdditive},
		{"normal", true, BlendNormal},
		{"multiply", true, BlendMultiply},
		{"screen", true, BlendAdditive},
		{"overlay", true, BlendAdditive},
		{"additive", true, BlendAdditive},
		{"", true, BlendAdditive},
	}

	for _, tt := range tests {
		if got := ResolveBlend(tt.name, tt.enabled); got != tt.want {
			t.Errorf("ResolveBlend(%q, %v) = %v, want %v", tt.name, tt.enabled, got, tt.want)
		}
	}
}

func TestFastSin(t *testing.T) {
	for x := float32(-20); x < 20; x += 0.1 {
		want := math.Sin(float64(x))
		if got := fastSin(x); math.Abs(float64(got)-want) > 0.002 {
			t.Fatalf("fastSin(%v) = %v, want %v", x, got, want)
		}
	}
}
