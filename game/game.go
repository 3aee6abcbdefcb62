// Package game wires the frame source, the vision pipeline and the particle
// layers into a fixed-step engine, and drives rendering and telemetry.
package game

import (
	"context"
	"log/slog"
	"math/rand"
	"sync"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/particlevision/camera"
	"github.com/pthm-cable/particlevision/components"
	"github.com/pthm-cable/particlevision/config"
	"github.com/pthm-cable/particlevision/renderer"
	"github.com/pthm-cable/particlevision/systems"
	"github.com/pthm-cable/particlevision/telemetry"
	"github.com/pthm-cable/particlevision/ui"
	"github.com/pthm-cable/particlevision/video"
	"github.com/pthm-cable/particlevision/vision"
)

// Sink receives the layer frames produced by each tick. Frames alias the
// layers' arrays and are only valid until the next tick.
type Sink interface {
	Publish(tick uint64, frames []systems.LayerFrame)
}

// Options configures a Game.
type Options struct {
	Config         *config.Config       // nil = config.Cfg()
	Source         vision.Source        // nil = synthetic pattern
	SourceName     string               // shown in the HUD and logs
	Surface        *config.SurfaceStore // nil = built from Config
	Sinks          []Sink               // extra frame consumers
	Seed           int64                // 0 = layers.seed from config
	Workers        int                  // 0 = parallel.workers from config
	AsyncAnalysis  bool                 // also enabled by parallel.async_analysis
	LogStats       bool
	StatsWindowSec float64 // 0 = telemetry.stats_window from config
	OutputDir      string
	Headless       bool
	StatsCallback  func(telemetry.WindowStats)
}

// Game holds the complete engine state.
type Game struct {
	cfg *config.Config

	world *ecs.World

	// One entity per particle layer
	layerMapper *ecs.Map4[
		components.Layer,
		components.Appearance,
		components.Simulation,
		components.Activity,
	]
	layerFilter *ecs.Filter4[
		components.Layer,
		components.Appearance,
		components.Simulation,
		components.Activity,
	]
	activityMap *ecs.Map1[components.Activity]

	motion       *systems.MotionLayer
	motionEntity ecs.Entity

	// Vision pipeline
	source      vision.Source
	sourceName  string
	sourceReady bool
	sampler     *vision.Sampler
	analyzer    *vision.Analyzer // synchronous mode
	async       *asyncAnalyzer   // asynchronous mode
	analysis    vision.Analysis  // async result copy owned by the tick
	cancel      context.CancelFunc

	surface     *config.SurfaceStore
	interaction systems.Interaction
	pointer     systems.Pointer

	pool        *workerPool
	chunkCounts []systems.ClassCounts
	chunkTouch  []int

	sinks   []Sink
	frames  []systems.LayerFrame
	ordered []orderedFrame

	// Telemetry
	collector     *telemetry.Collector
	perfCollector *telemetry.PerfCollector
	outputManager *telemetry.OutputManager
	logStats      bool
	statsCallback func(telemetry.WindowStats)
	surfaceVer    uint64
	lastSample    telemetry.TickSample
	dropped       int

	statsMu   sync.RWMutex
	lastStats telemetry.WindowStats

	// Graphics (nil when headless)
	headless      bool
	camera        *camera.Orbit
	pointRenderer *renderer.PointRenderer
	hud           *ui.HUD
	perfPanel     *ui.PerfPanel
	controls      *ui.ControlsPanel
	showHUD       bool
	showPerf      bool
	screenWidth   float32
	screenHeight  float32

	// State
	tick   uint64
	time   float32
	paused bool
}

// NewGameWithOptions creates a new engine instance.
func NewGameWithOptions(opts Options) *Game {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Cfg()
	}

	world := ecs.NewWorld()

	g := &Game{
		cfg:   cfg,
		world: world,
		layerMapper: ecs.NewMap4[
			components.Layer,
			components.Appearance,
			components.Simulation,
			components.Activity,
		](world),
		layerFilter: ecs.NewFilter4[
			components.Layer,
			components.Appearance,
			components.Simulation,
			components.Activity,
		](world),
		activityMap: ecs.NewMap1[components.Activity](world),

		source:      opts.Source,
		sourceName:  opts.SourceName,
		sampler:     vision.NewSampler(cfg.Sampler.Width),
		surface:     opts.Surface,
		interaction: systems.InteractionFromConfig(cfg.Interaction),
		sinks:       opts.Sinks,

		logStats:      opts.LogStats,
		statsCallback: opts.StatsCallback,
		headless:      opts.Headless,
		showHUD:       true,
	}

	if g.source == nil {
		g.source = video.NewPattern(cfg.Video.IdealWidth, cfg.Video.IdealHeight)
		g.sourceName = video.SourcePattern
	}
	if g.surface == nil {
		g.surface = config.NewSurfaceStore(cfg.Surface())
	}

	seed := opts.Seed
	if seed == 0 {
		seed = cfg.Layers.Seed
	}
	g.spawnLayers(seed, opts.Seed != 0)
	g.SetLayerOrder(layerOrder(cfg.Render.LayerOrder))

	workers := opts.Workers
	if workers <= 0 {
		workers = cfg.Derived.Workers
	}
	g.pool = newWorkerPool(workers, cfg.Parallel.MinChunk)
	g.pool.startWorkers()
	g.chunkCounts = make([]systems.ClassCounts, g.pool.numWorkers)
	g.chunkTouch = make([]int, g.pool.numWorkers)

	if opts.AsyncAnalysis || cfg.Parallel.AsyncAnalysis {
		g.async = newAsyncAnalyzer(cfg.Derived.Smoothing)
		g.async.start()
	} else {
		g.analyzer = vision.NewAnalyzer(cfg.Derived.Smoothing)
	}

	ctx, cancel := context.WithCancel(context.Background())
	g.cancel = cancel
	if r, ok := g.source.(video.Runner); ok {
		if err := r.Start(ctx); err != nil {
			slog.Error("failed to start video source", "source", g.sourceName, "error", err)
		}
	}

	// Telemetry
	statsWindow := opts.StatsWindowSec
	if statsWindow <= 0 {
		statsWindow = cfg.Telemetry.StatsWindow
	}
	g.collector = telemetry.NewCollector(statsWindow, cfg.Derived.DT32)
	g.perfCollector = telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow)

	if opts.OutputDir != "" {
		om, err := telemetry.NewOutputManager(opts.OutputDir)
		if err != nil {
			slog.Error("failed to create output manager", "error", err)
		} else {
			g.outputManager = om
			if err := om.WriteConfig(cfg); err != nil {
				slog.Error("failed to write config", "error", err)
			}
			if err := om.WriteSurface(g.surface.Get()); err != nil {
				slog.Error("failed to write surface", "error", err)
			}
			g.surfaceVer = g.surface.Version()
		}
	}

	if !g.headless {
		g.initGraphics()
	}

	slog.Info("engine created",
		"source", g.sourceName,
		"motion_particles", cfg.Layers.Motion.Count,
		"static_particles", cfg.Layers.Static.Count,
		"background_particles", cfg.Layers.Background.Count,
		"workers", g.pool.numWorkers,
		"async_analysis", g.async != nil,
		"seed", seed,
	)

	return g
}

// spawnLayers creates one entity per layer, back to front.
func (g *Game) spawnLayers(seed int64, overrideJitterSeed bool) {
	cfg := g.cfg
	rng := rand.New(rand.NewSource(seed))

	mc := cfg.Layers.Motion
	params := systems.MotionParamsFromConfig(cfg.Motion)
	if overrideJitterSeed {
		params.Seed = uint32(seed)
	}
	g.motion = systems.NewMotionLayer(
		mc.Count,
		systems.Extent{Width: float32(mc.Width), Height: float32(mc.Height), Depth: float32(mc.Depth)},
		float32(mc.Aspect),
		params,
	)

	bg := systems.NewAmbientLayer(systems.LayerBackground, cfg.Layers.Background.Count,
		systems.AmbientParamsFromConfig(cfg.Layers.Background), rng)
	st := systems.NewAmbientLayer(systems.LayerStatic, cfg.Layers.Static.Count,
		systems.AmbientParamsFromConfig(cfg.Layers.Static), rng)

	g.spawnLayer(bg, components.AppearanceFromConfig(cfg.Layers.Background.LayerConfig))
	g.spawnLayer(st, components.AppearanceFromConfig(cfg.Layers.Static.LayerConfig))
	g.motionEntity = g.spawnLayer(g.motion, components.AppearanceFromConfig(mc.LayerConfig))
}

func (g *Game) spawnLayer(l systems.Layer, app components.Appearance) ecs.Entity {
	layer := components.Layer{Kind: l.Kind(), Order: int(l.Kind())}
	sim := components.Simulation{Layer: l}
	act := components.Activity{}
	return g.layerMapper.NewEntity(&layer, &app, &sim, &act)
}

// Surface returns the runtime configuration store.
func (g *Game) Surface() *config.SurfaceStore {
	return g.surface
}

// AddSink registers an extra frame consumer.
func (g *Game) AddSink(s Sink) {
	g.sinks = append(g.sinks, s)
}

// SetPointer sets the pointer used by the interaction field.
func (g *Game) SetPointer(p systems.Pointer) {
	g.pointer = p
}

// SetLayerOrder sets the back-to-front draw order. Layers missing from
// order are drawn after the listed ones, in kind order.
func (g *Game) SetLayerOrder(order []systems.LayerKind) {
	rank := make(map[systems.LayerKind]int, len(order))
	for i, k := range order {
		rank[k] = i
	}
	query := g.layerFilter.Query()
	for query.Next() {
		layer, _, _, _ := query.Get()
		if r, ok := rank[layer.Kind]; ok {
			layer.Order = r
		} else {
			layer.Order = len(order) + int(layer.Kind)
		}
	}
}

// layerOrder converts configured layer names, skipping unknown ones.
func layerOrder(names []string) []systems.LayerKind {
	order := make([]systems.LayerKind, 0, len(names))
	for _, name := range names {
		if k, ok := systems.ParseLayerKind(name); ok {
			order = append(order, k)
		}
	}
	return order
}

// LastStats returns the most recently flushed telemetry window.
func (g *Game) LastStats() telemetry.WindowStats {
	g.statsMu.RLock()
	defer g.statsMu.RUnlock()
	return g.lastStats
}

// LastSample returns the outcome of the most recent tick.
func (g *Game) LastSample() telemetry.TickSample {
	return g.lastSample
}

// Tick returns the current tick.
func (g *Game) Tick() uint64 {
	return g.tick
}

// Unload releases workers, the source and output files.
func (g *Game) Unload() {
	g.pool.stopWorkers()
	if g.async != nil {
		g.async.close()
	}
	if g.cancel != nil {
		g.cancel()
	}
	if r, ok := g.source.(video.Runner); ok {
		if err := r.Close(); err != nil {
			slog.Error("failed to close video source", "error", err)
		}
	}
	if g.outputManager != nil {
		if err := g.outputManager.Close(); err != nil {
			slog.Error("failed to close output", "error", err)
		}
	}
}
