package main

import (
	"errors"
	"flag"
	"log/slog"
	"os"
	"sync/atomic"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/particlevision/config"
	"github.com/pthm-cable/particlevision/game"
	"github.com/pthm-cable/particlevision/stream"
	"github.com/pthm-cable/particlevision/video"
	"github.com/pthm-cable/particlevision/vision"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	headless := flag.Bool("headless", false, "Run without graphics")
	source := flag.String("source", "", "Frame source: pattern, image or webcam (empty = use config)")
	imagePath := flag.String("image", "", "Still image for -source=image")
	device := flag.Int("device", -1, "Webcam device index (-1 = use config)")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	statsWindow := flag.Float64("stats-window", 0, "Stats window size in seconds (0 = use config)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	seed := flag.Int64("seed", 0, "Layer RNG seed (0 = use config)")
	maxTicks := flag.Int("max-ticks", 0, "Stop after N ticks (0 = unlimited)")
	streamAddr := flag.String("stream", "", "Serve the particle stream on this address (empty = use config)")
	async := flag.Bool("async", false, "Run frame analysis off the tick")

	flag.Parse()

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// CLI overrides
	if *source != "" {
		cfg.Video.Source = *source
	}
	if *imagePath != "" {
		cfg.Video.ImagePath = *imagePath
		if *source == "" {
			cfg.Video.Source = video.SourceImage
		}
	}
	if *device >= 0 {
		cfg.Video.Device = *device
	}
	if *streamAddr != "" {
		cfg.Stream.Enabled = true
		cfg.Stream.Addr = *streamAddr
	}

	statsWindowSec := cfg.Telemetry.StatsWindow
	if *statsWindow > 0 {
		statsWindowSec = *statsWindow
	}

	src, sourceName := openSource(cfg.Video, logger)
	surface := config.NewSurfaceStore(cfg.Surface())

	// The stats endpoint may be hit before the engine exists
	var current atomic.Pointer[game.Game]
	var server *stream.Server
	var sinks []game.Sink
	if cfg.Stream.Enabled {
		server = stream.NewServer(cfg.Stream, surface, func() any {
			g := current.Load()
			if g == nil {
				return nil
			}
			return g.LastStats()
		})
		sinks = append(sinks, server)
		go func() {
			if err := server.Start(cfg.Stream.Addr); err != nil {
				slog.Error("stream server stopped", "error", err)
			}
		}()
		defer func() {
			if err := server.Shutdown(); err != nil {
				slog.Warn("stream server shutdown", "error", err)
			}
		}()
	}

	opts := game.Options{
		Config:         cfg,
		Source:         src,
		SourceName:     sourceName,
		Surface:        surface,
		Sinks:          sinks,
		Seed:           *seed,
		AsyncAnalysis:  *async,
		LogStats:       *logStats,
		StatsWindowSec: statsWindowSec,
		OutputDir:      *outputDir,
		Headless:       *headless,
	}

	if *headless {
		// Headless mode - no raylib needed
		g := game.NewGameWithOptions(opts)
		current.Store(g)
		defer g.Unload()

		slog.Info("starting headless run",
			"source", sourceName,
			"stats_window", statsWindowSec,
			"max_ticks", *maxTicks,
			"stream", cfg.Stream.Enabled,
		)

		// Pace to the target frame rate only when someone is watching
		var pace *time.Ticker
		if server != nil {
			pace = time.NewTicker(time.Duration(float64(time.Second) * float64(cfg.Derived.DT32)))
			defer pace.Stop()
		}

		for {
			g.UpdateHeadless()

			if *maxTicks > 0 && int(g.Tick()) >= *maxTicks {
				slog.Info("max ticks reached", "tick", g.Tick())
				return
			}
			if pace != nil {
				<-pace.C
			}
		}
	}

	// Graphical mode
	rl.SetConfigFlags(rl.FlagWindowResizable | rl.FlagMsaa4xHint)
	rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), "Particle Vision")
	defer rl.CloseWindow()

	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

	g := game.NewGameWithOptions(opts)
	current.Store(g)
	defer g.Unload()

	for !rl.WindowShouldClose() {
		g.Update()
		g.Draw()

		if *maxTicks > 0 && int(g.Tick()) >= *maxTicks {
			break
		}
	}
}

// openSource opens the configured source, falling back to the synthetic
// pattern when it cannot be opened.
func openSource(cfg config.VideoConfig, logger *slog.Logger) (vision.Source, string) {
	src, err := video.Open(cfg, logger)
	if err == nil {
		name := cfg.Source
		if name == "" {
			name = video.SourcePattern
		}
		return src, name
	}

	if errors.Is(err, video.ErrWebcamUnavailable) {
		logger.Warn("webcam unavailable, using pattern", "error", err)
	} else {
		logger.Error("failed to open video source, using pattern", "source", cfg.Source, "error", err)
	}
	return video.NewPattern(cfg.IdealWidth, cfg.IdealHeight), video.SourcePattern
}
