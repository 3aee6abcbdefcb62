// Package config provides configuration loading and access for the particle engine.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all engine configuration parameters.
type Config struct {
	Screen      ScreenConfig      `yaml:"screen"`
	Video       VideoConfig       `yaml:"video"`
	Sampler     SamplerConfig     `yaml:"sampler"`
	Motion      MotionConfig      `yaml:"motion"`
	Layers      LayersConfig      `yaml:"layers"`
	Interaction InteractionConfig `yaml:"interaction"`
	Render      RenderConfig      `yaml:"render"`
	Camera      CameraConfig      `yaml:"camera"`
	Parallel    ParallelConfig    `yaml:"parallel"`
	Telemetry   TelemetryConfig   `yaml:"telemetry"`
	Stream      StreamConfig      `yaml:"stream"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// VideoConfig selects and parameterizes the frame source.
type VideoConfig struct {
	Source      string `yaml:"source"`       // pattern, image or webcam
	Device      int    `yaml:"device"`       // webcam device index
	IdealWidth  int    `yaml:"ideal_width"`  // requested capture width
	IdealHeight int    `yaml:"ideal_height"` // requested capture height
	ImagePath   string `yaml:"image_path"`   // still image for source=image
}

// SamplerConfig holds frame sampling parameters.
type SamplerConfig struct {
	Width int `yaml:"width"` // sampled frame width; height follows the source aspect
}

// MotionConfig holds classification thresholds and per-class pull factors
// for the motion-reactive layer.
type MotionConfig struct {
	MotionThreshold  float64 `yaml:"motion_threshold"`  // strictly above = candidate for Moving
	StaticThreshold  float64 `yaml:"static_threshold"`  // strictly below = Static
	EdgeThreshold    float64 `yaml:"edge_threshold"`    // contour strength needed for Moving
	Smoothing        float64 `yaml:"smoothing"`         // weight of the raw diff in the smoothed map
	PullMoving       float64 `yaml:"pull_moving"`       // XY pull toward offset target
	PullMovingZ      float64 `yaml:"pull_moving_z"`     // Z pull toward depth target
	PullStatic       float64 `yaml:"pull_static"`       // settle factor for Static
	PullTransitional float64 `yaml:"pull_transitional"` // settle factor for Transitional
	PullIdle         float64 `yaml:"pull_idle"`         // decay factor with no frame
	IdleGray         float64 `yaml:"idle_gray"`         // idle color, all channels
	Seed             uint32  `yaml:"seed"`              // jitter hash seed
}

// LayerConfig holds settings common to every particle layer.
type LayerConfig struct {
	Count   int     `yaml:"count"`
	Color   RGB     `yaml:"color"`
	Visible bool    `yaml:"visible"`
	Blend   string  `yaml:"blend"`
	Scale   float64 `yaml:"scale"`
	Size    float64 `yaml:"size"`
	Opacity float64 `yaml:"opacity"`
	Depth   float64 `yaml:"depth"` // base Z
	Width   float64 `yaml:"width"` // world-space extent of the grid
	Height  float64 `yaml:"height"`
}

// MotionLayerConfig configures the video-driven layer.
type MotionLayerConfig struct {
	LayerConfig    `yaml:",inline"`
	NonMovingColor RGB     `yaml:"non_moving_color"`
	HideStatic     bool    `yaml:"hide_static"`
	Aspect         float64 `yaml:"aspect"` // grid aspect used for base positions
}

// PulseConfig parameterizes sinusoidal brightness pulsing:
// brightness = base + amplitude*sin(time*speed + index*phase).
type PulseConfig struct {
	Speed     float64   `yaml:"speed"`
	Phase     float64   `yaml:"phase"`
	Base      float64   `yaml:"base"`
	Amplitude float64   `yaml:"amplitude"`
	Weights   []float64 `yaml:"weights"` // per-channel multipliers (r, g, b)
}

// DriftConfig parameterizes positional drift around the base position.
type DriftConfig struct {
	Mode      string  `yaml:"mode"` // wave (vertical bob), orbit (small circle) or none
	Speed     float64 `yaml:"speed"`
	Phase     float64 `yaml:"phase"`
	Amplitude float64 `yaml:"amplitude"`
}

// AmbientLayerConfig configures a time-driven layer.
type AmbientLayerConfig struct {
	LayerConfig `yaml:",inline"`
	Jitter      float64     `yaml:"jitter"` // random spread applied once at construction
	Pulse       PulseConfig `yaml:"pulse"`
	Drift       DriftConfig `yaml:"drift"`
}

// LayersConfig holds the three particle layers.
type LayersConfig struct {
	Motion     MotionLayerConfig  `yaml:"motion"`
	Static     AmbientLayerConfig `yaml:"static"`
	Background AmbientLayerConfig `yaml:"background"`
	Seed       int64              `yaml:"seed"` // construction jitter seed
}

// InteractionConfig holds pointer repulsion parameters.
type InteractionConfig struct {
	Enabled      bool    `yaml:"enabled"`
	Radius       float64 `yaml:"radius"`
	Strength     float64 `yaml:"strength"`
	PointerScale float64 `yaml:"pointer_scale"` // NDC to world multiplier
}

// RenderConfig holds global compositor settings.
type RenderConfig struct {
	EnableBlendMode bool     `yaml:"enable_blend_mode"`
	BackgroundColor RGB      `yaml:"background_color"`
	LayerOrder      []string `yaml:"layer_order"` // back to front
}

// CameraConfig holds orbit camera parameters.
type CameraConfig struct {
	FOV         float64 `yaml:"fov"`
	Distance    float64 `yaml:"distance"`
	MinDistance float64 `yaml:"min_distance"`
	MaxDistance float64 `yaml:"max_distance"`
	Damping     float64 `yaml:"damping"`
	RotateSpeed float64 `yaml:"rotate_speed"`
	ZoomSpeed   float64 `yaml:"zoom_speed"`
	PanSpeed    float64 `yaml:"pan_speed"`
}

// ParallelConfig holds worker pool settings.
type ParallelConfig struct {
	Workers       int  `yaml:"workers"`        // 0 = GOMAXPROCS
	MinChunk      int  `yaml:"min_chunk"`      // below this particle count, update single-threaded
	AsyncAnalysis bool `yaml:"async_analysis"` // run edge/motion analysis off the tick
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow         float64 `yaml:"stats_window"`
	PerfCollectorWindow int     `yaml:"perf_collector_window"`
}

// StreamConfig holds the remote sink server settings.
type StreamConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Addr      string `yaml:"addr"`
	SendEvery int    `yaml:"send_every"` // broadcast every N ticks
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	DT32            float32 // seconds per tick at the target frame rate
	Workers         int     // effective worker count
	MotionThreshold float32
	StaticThreshold float32
	EdgeThreshold   float32
	Smoothing       float32
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.computeDerived()

	return cfg, nil
}

// validate rejects values the engine cannot run with.
func (c *Config) validate() error {
	if c.Sampler.Width < 8 || c.Sampler.Width > 128 {
		return fmt.Errorf("sampler.width must be in [8, 128], got %d", c.Sampler.Width)
	}
	if c.Motion.StaticThreshold > c.Motion.MotionThreshold {
		return fmt.Errorf("motion.static_threshold (%v) exceeds motion.motion_threshold (%v)",
			c.Motion.StaticThreshold, c.Motion.MotionThreshold)
	}
	if c.Motion.MotionThreshold <= 0 {
		return fmt.Errorf("motion.motion_threshold must be positive")
	}
	for name, n := range map[string]int{
		"motion":     c.Layers.Motion.Count,
		"static":     c.Layers.Static.Count,
		"background": c.Layers.Background.Count,
	} {
		if n < 1 {
			return fmt.Errorf("layers.%s.count must be positive, got %d", name, n)
		}
	}
	if c.Layers.Motion.Aspect <= 0 {
		return fmt.Errorf("layers.motion.aspect must be positive")
	}
	if c.Interaction.Radius <= 0 {
		return fmt.Errorf("interaction.radius must be positive")
	}
	seen := make(map[string]bool, len(c.Render.LayerOrder))
	for _, name := range c.Render.LayerOrder {
		switch name {
		case "background", "static", "motion":
		default:
			return fmt.Errorf("render.layer_order: unknown layer %q", name)
		}
		if seen[name] {
			return fmt.Errorf("render.layer_order: %q listed twice", name)
		}
		seen[name] = true
	}
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	fps := c.Screen.TargetFPS
	if fps <= 0 {
		fps = 60
	}
	c.Derived.DT32 = 1 / float32(fps)

	c.Derived.Workers = c.Parallel.Workers
	if c.Derived.Workers <= 0 {
		c.Derived.Workers = runtime.GOMAXPROCS(0)
	}

	c.Derived.MotionThreshold = float32(c.Motion.MotionThreshold)
	c.Derived.StaticThreshold = float32(c.Motion.StaticThreshold)
	c.Derived.EdgeThreshold = float32(c.Motion.EdgeThreshold)
	c.Derived.Smoothing = float32(c.Motion.Smoothing)

	// Ambient pulses need three channel weights
	for _, p := range []*PulseConfig{&c.Layers.Static.Pulse, &c.Layers.Background.Pulse} {
		for len(p.Weights) < 3 {
			p.Weights = append(p.Weights, 1.0)
		}
	}
}

// Surface builds the initial runtime configuration surface from the loaded values.
func (c *Config) Surface() Surface {
	layer := func(l LayerConfig) LayerSurface {
		return LayerSurface{
			Color:   l.Color,
			Visible: l.Visible,
			Blend:   l.Blend,
			Scale:   float32(l.Scale),
		}
	}
	return Surface{
		Motion:          layer(c.Layers.Motion.LayerConfig),
		Static:          layer(c.Layers.Static.LayerConfig),
		Background:      layer(c.Layers.Background.LayerConfig),
		NonMovingColor:  c.Layers.Motion.NonMovingColor,
		HideStatic:      c.Layers.Motion.HideStatic,
		EnableBlend:     c.Render.EnableBlendMode,
		BackgroundColor: c.Render.BackgroundColor,
		MotionThreshold: c.Derived.MotionThreshold,
		StaticThreshold: c.Derived.StaticThreshold,
	}
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
