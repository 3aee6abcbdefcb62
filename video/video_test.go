package video

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/pthm-cable/particlevision/config"
	"github.com/pthm-cable/particlevision/vision"
)

func TestPatternMovesBetweenSamples(t *testing.T) {
	p := NewPattern(1280, 720)
	s := vision.NewSampler(128)
	m := vision.NewMotionEstimator(0.7)

	f, err := s.Sample(p)
	if err != nil {
		t.Fatal(err)
	}
	if f.Width != 128 || f.Height != 72 {
		t.Fatalf("expected 128x72 frame, got %dx%d", f.Width, f.Height)
	}
	m.Estimate(f)

	p.Advance(0.25)
	f, _ = s.Sample(p)
	motion := m.Estimate(f)

	if motion.CountAbove(0.08) == 0 {
		t.Error("expected the moving block to produce motion above threshold")
	}
}

func TestPatternStillWithoutAdvance(t *testing.T) {
	p := NewPattern(640, 480)
	s := vision.NewSampler(128)
	m := vision.NewMotionEstimator(0.7)

	f, _ := s.Sample(p)
	m.Estimate(f)
	f, _ = s.Sample(p)
	if n := m.Estimate(f).CountAbove(0); n != 0 {
		t.Errorf("expected no motion without Advance, got %d pixels", n)
	}
}

func TestPatternBlockInsideFrame(t *testing.T) {
	p := NewPattern(1280, 720)
	for i := 0; i < 100; i++ {
		p.SetTime(float64(i) * 0.37)
		x0, y0, x1, y1 := p.BlockRect()
		if x0 < 0 || y0 < 0 || x1 > 1 || y1 > 1 {
			t.Fatalf("block left the frame at t=%v: (%v,%v)-(%v,%v)", float64(i)*0.37, x0, y0, x1, y1)
		}
	}
}

func TestImageSourceScales(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 320, 240))
	for y := 0; y < 240; y++ {
		for x := 0; x < 320; x++ {
			img.Set(x, y, color.RGBA{R: 100, G: 150, B: 200, A: 255})
		}
	}

	path := filepath.Join(t.TempDir(), "frame.png")
	fh, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(fh, img); err != nil {
		t.Fatal(err)
	}
	fh.Close()

	src, err := LoadImage(path)
	if err != nil {
		t.Fatalf("LoadImage: %v", err)
	}
	if w, h := src.Dimensions(); w != 320 || h != 240 {
		t.Fatalf("expected 320x240, got %dx%d", w, h)
	}

	f, err := vision.NewSampler(128).Sample(src)
	if err != nil {
		t.Fatal(err)
	}
	if f.Height != 96 {
		t.Errorf("expected 96 rows for 4:3, got %d", f.Height)
	}
	r, g, b := f.At(64, 48)
	if absDiff(r, 100) > 1 || absDiff(g, 150) > 1 || absDiff(b, 200) > 1 {
		t.Errorf("expected about (100,150,200), got (%d,%d,%d)", r, g, b)
	}
}

func TestLoadImageMissing(t *testing.T) {
	if _, err := LoadImage(filepath.Join(t.TempDir(), "missing.png")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestOpen(t *testing.T) {
	src, err := Open(config.VideoConfig{Source: SourcePattern, IdealWidth: 640, IdealHeight: 360}, nil)
	if err != nil {
		t.Fatalf("Open pattern: %v", err)
	}
	if _, ok := src.(Advancer); !ok {
		t.Error("expected pattern source to implement Advancer")
	}

	if _, err := Open(config.VideoConfig{Source: SourceImage}, nil); err == nil {
		t.Error("expected error for image source without a path")
	}
	if _, err := Open(config.VideoConfig{Source: "vhs"}, nil); err == nil {
		t.Error("expected error for unknown source")
	}
}

func TestOpenWebcamWithoutDevice(t *testing.T) {
	// Without the gocv tag, or with no camera attached, the source is unavailable
	src, err := Open(config.VideoConfig{Source: SourceWebcam, Device: 99}, nil)
	if err == nil {
		if r, ok := src.(Runner); ok {
			r.Close()
		}
		t.Skip("a capture device is present")
	}
	if !errors.Is(err, ErrWebcamUnavailable) {
		t.Errorf("expected ErrWebcamUnavailable, got %v", err)
	}
}

func absDiff(a, b uint8) uint8 {
	if a > b {
		return a - b
	}
	return b - a
}
