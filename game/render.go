package game

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/particlevision/camera"
	"github.com/pthm-cable/particlevision/renderer"
	"github.com/pthm-cable/particlevision/telemetry"
	"github.com/pthm-cable/particlevision/ui"
)

const controlsLegend = "[Drag] Orbit  [Right drag] Pan  [Wheel] Zoom  [Space] Pause  [C] Controls  [H] HUD  [P] Perf  [Home] Reset camera  [F11] Fullscreen"

// initGraphics creates the camera, renderer and UI. Requires an open window.
func (g *Game) initGraphics() {
	g.screenWidth = float32(rl.GetScreenWidth())
	g.screenHeight = float32(rl.GetScreenHeight())
	if g.screenWidth <= 0 || g.screenHeight <= 0 {
		g.screenWidth = float32(g.cfg.Screen.Width)
		g.screenHeight = float32(g.cfg.Screen.Height)
	}

	g.camera = camera.New(g.cfg.Camera, g.screenWidth, g.screenHeight)
	g.pointRenderer = renderer.NewPointRenderer()
	g.sinks = append(g.sinks, g.pointRenderer)

	g.hud = ui.NewHUD()
	g.perfPanel = ui.NewPerfPanel(ui.AnchorTopRight)
	g.controls = ui.NewControlsPanel(g.surface, 10, 150)
}

// Draw renders the particle layers and the UI.
func (g *Game) Draw() {
	g.perfCollector.RecordFrame()

	rl.BeginDrawing()

	s := g.surface.Get()
	g.pointRenderer.Draw(g.camera, s.BackgroundColor)

	if g.pointer.Active && g.cfg.Interaction.Enabled {
		mp := rl.GetMousePosition()
		rl.DrawCircleLines(int32(mp.X), int32(mp.Y), 6, rl.Color{R: 255, G: 255, B: 255, A: 80})
	}

	g.drawUI()

	rl.EndDrawing()
}

// drawUI renders the HUD, the perf panel and the control panel.
func (g *Game) drawUI() {
	sw, sh := int32(g.screenWidth), int32(g.screenHeight)

	if g.showHUD {
		g.hud.Draw(ui.HUDData{
			Title:        "Particle Vision",
			Source:       g.sourceName,
			Ready:        g.sourceReady,
			Counts:       g.lastSample.Counts,
			MotionMean:   g.lastSample.MotionMean,
			MotionPixels: g.lastSample.MotionPixels,
			Touched:      g.lastSample.Touched,
			Dropped:      g.dropped,
			Tick:         g.tick,
			FPS:          rl.GetFPS(),
			Paused:       g.paused,
			Async:        g.async != nil,
			Clients:      g.clientCount(),
		})
		g.hud.DrawControls(sw, sh, controlsLegend)
	}

	if g.showPerf {
		stats := g.perfCollector.Stats()
		g.perfPanel.Draw(ui.PerfPanelData{
			PhaseTimes: stats.PhaseAvg,
			Total:      stats.AvgTickDuration,
			TicksPerS:  stats.TicksPerSecond,
		}, telemetry.Phases, sw, sh)
	}

	g.controls.Draw()
}

// clientCount returns the number of connected remote viewers, if any sink
// reports it.
func (g *Game) clientCount() int {
	n := 0
	for _, s := range g.sinks {
		if c, ok := s.(interface{ ClientCount() int }); ok {
			n += c.ClientCount()
		}
	}
	return n
}
