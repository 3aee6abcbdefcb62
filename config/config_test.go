package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load defaults: %v", err)
	}

	if cfg.Sampler.Width != 128 {
		t.Errorf("expected sampler width 128, got %d", cfg.Sampler.Width)
	}
	if cfg.Derived.MotionThreshold != 0.08 {
		t.Errorf("expected motion threshold 0.08, got %v", cfg.Derived.MotionThreshold)
	}
	if cfg.Derived.StaticThreshold != 0.03 {
		t.Errorf("expected static threshold 0.03, got %v", cfg.Derived.StaticThreshold)
	}
	if cfg.Layers.Motion.Count != 45000 {
		t.Errorf("expected 45000 motion particles, got %d", cfg.Layers.Motion.Count)
	}
	if cfg.Derived.Workers < 1 {
		t.Errorf("expected at least one worker, got %d", cfg.Derived.Workers)
	}

	want, _ := ParseHex("#60A5FA")
	if cfg.Layers.Motion.Color != want {
		t.Errorf("expected motion color %v, got %v", want, cfg.Layers.Motion.Color)
	}
}

func TestLoadOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	overlay := []byte("motion:\n  motion_threshold: 0.2\nlayers:\n  motion:\n    count: 100\n")
	if err := os.WriteFile(path, overlay, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load overlay: %v", err)
	}

	if cfg.Derived.MotionThreshold != 0.2 {
		t.Errorf("expected overridden threshold 0.2, got %v", cfg.Derived.MotionThreshold)
	}
	if cfg.Layers.Motion.Count != 100 {
		t.Errorf("expected overridden count 100, got %d", cfg.Layers.Motion.Count)
	}
	// Untouched fields keep their defaults
	if cfg.Layers.Static.Count != 15000 {
		t.Errorf("expected default static count, got %d", cfg.Layers.Static.Count)
	}
	if cfg.Derived.StaticThreshold != 0.03 {
		t.Errorf("expected default static threshold, got %v", cfg.Derived.StaticThreshold)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"sampler too wide", "sampler:\n  width: 256\n"},
		{"thresholds inverted", "motion:\n  static_threshold: 0.5\n"},
		{"zero count", "layers:\n  static:\n    count: 0\n"},
		{"bad color", "layers:\n  motion:\n    color: \"#XYZXYZ\"\n"},
		{"unknown layer in order", "render:\n  layer_order: [background, foreground]\n"},
		{"layer listed twice", "render:\n  layer_order: [motion, motion]\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tt.yaml), 0644); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(path); err == nil {
				t.Errorf("expected error for %s", tt.name)
			}
		})
	}
}

func TestWriteYAMLRoundtrip(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	cfg.Layers.Motion.HideStatic = true

	path := filepath.Join(t.TempDir(), "out.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatalf("WriteYAML: %v", err)
	}

	reloaded, err := Load(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if !reloaded.Layers.Motion.HideStatic {
		t.Error("expected hide_static to survive the roundtrip")
	}
	if reloaded.Render.BackgroundColor != cfg.Render.BackgroundColor {
		t.Errorf("background color changed: %v -> %v", cfg.Render.BackgroundColor, reloaded.Render.BackgroundColor)
	}
}

func TestParseHex(t *testing.T) {
	tests := []struct {
		in      string
		want    RGB
		wantErr bool
	}{
		{"#FFFFFF", RGB{1, 1, 1}, false},
		{"000000", RGB{0, 0, 0}, false},
		{"#F00", RGB{1, 0, 0}, false},
		{"#12345", RGB{}, true},
		{"#GGGGGG", RGB{}, true},
	}

	for _, tt := range tests {
		got, err := ParseHex(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseHex(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseHex(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	c, _ := ParseHex("#60A5FA")
	if c.Hex() != "#60A5FA" {
		t.Errorf("expected hex roundtrip, got %s", c.Hex())
	}
}

func TestSurfaceStoreKeepsThresholdsOrdered(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	store := NewSurfaceStore(cfg.Surface())

	s := store.Update(func(s *Surface) {
		s.MotionThreshold = 0.02
	})
	if s.StaticThreshold > s.MotionThreshold {
		t.Errorf("static threshold %v above motion threshold %v", s.StaticThreshold, s.MotionThreshold)
	}
	if store.Version() != 1 {
		t.Errorf("expected version 1, got %d", store.Version())
	}

	got := store.Get()
	got.HideStatic = true
	if store.Get().HideStatic {
		t.Error("Get must return a copy")
	}
}

func TestSurfaceStoreKeepsMotionThresholdPositive(t *testing.T) {
	store := NewSurfaceStore(Surface{MotionThreshold: 0.08, StaticThreshold: 0.03})

	s := store.Update(func(s *Surface) {
		s.MotionThreshold = 0
		s.StaticThreshold = -1
	})
	if s.MotionThreshold != MinMotionThreshold {
		t.Errorf("motion threshold = %v, want %v", s.MotionThreshold, MinMotionThreshold)
	}
	if s.StaticThreshold != 0 {
		t.Errorf("static threshold = %v, want 0", s.StaticThreshold)
	}
}

func TestSurfaceStoreNormalizesBlendNames(t *testing.T) {
	store := NewSurfaceStore(Surface{
		MotionThreshold: 0.08,
		Motion:          LayerSurface{Blend: "Screen"},
	})
	if got := store.Get().Motion.Blend; got != "screen" {
		t.Errorf("initial motion blend = %q, want screen", got)
	}

	s := store.Update(func(s *Surface) {
		s.Static.Blend = "  Color-Dodge "
	})
	if s.Static.Blend != "color-dodge" {
		t.Errorf("static blend = %q, want color-dodge", s.Static.Blend)
	}
}
