package ui

import (
	"fmt"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/particlevision/systems"
)

// HUDData holds all the data needed to render the main HUD.
type HUDData struct {
	Title        string
	Source       string
	Ready        bool
	Counts       systems.ClassCounts
	MotionMean   float32
	MotionPixels int
	Touched      int
	Dropped      int
	Tick         uint64
	FPS          int32
	Paused       bool
	Async        bool
	Clients      int
}

// HUD renders the main heads-up display.
type HUD struct {
	renderer *Renderer
}

// NewHUD creates a new HUD renderer.
func NewHUD() *HUD {
	return &HUD{
		renderer: NewRenderer(),
	}
}

// Draw renders the HUD.
func (h *HUD) Draw(data HUDData) {
	r := h.renderer
	rl.DrawText(data.Title, 10, 10, 20, rl.White)

	sourceText := fmt.Sprintf("Source: %s", data.Source)
	sourceColor := rl.LightGray
	if !data.Ready {
		sourceText += " (waiting)"
		sourceColor = rl.Orange
	}
	rl.DrawText(sourceText, 10, 35, 16, sourceColor)

	analysis := "sync"
	if data.Async {
		analysis = fmt.Sprintf("async, %d dropped", data.Dropped)
	}
	rl.DrawText(
		fmt.Sprintf("Tick: %d | FPS: %d | Analysis: %s | Clients: %d", data.Tick, data.FPS, analysis, data.Clients),
		10, 55, 16, rl.LightGray,
	)

	total := float32(data.Counts.Total())
	if total > 0 {
		y := int32(78)
		y = r.DrawStackedBar(10, y, 240, []float32{
			float32(data.Counts.Moving) / total,
			float32(data.Counts.Transitional) / total,
			float32(data.Counts.Static) / total,
			float32(data.Counts.Idle) / total,
		}, []rl.Color{r.Theme.MovingColor, r.Theme.TransColor, r.Theme.StaticColor, r.Theme.IdleColor})
		rl.DrawText(
			fmt.Sprintf("moving %d  trans %d  static %d  idle %d",
				data.Counts.Moving, data.Counts.Transitional, data.Counts.Static, data.Counts.Idle),
			10, y, r.Theme.FontSize, r.Theme.LabelColor,
		)
		y += r.Theme.LineHeight
		rl.DrawText(
			fmt.Sprintf("motion %.3f  (%d px)  touched %d", data.MotionMean, data.MotionPixels, data.Touched),
			10, y, r.Theme.FontSize, r.Theme.LabelColor,
		)
	}

	if data.Paused {
		rl.DrawText("PAUSED", 10, 130, 16, rl.Yellow)
	}
}

// DrawControls renders the control legend at the bottom of the screen.
func (h *HUD) DrawControls(screenWidth, screenHeight int32, controls string) {
	rl.DrawText(controls, 10, screenHeight-25, 14, rl.Gray)
}

// PerfPanelData holds performance metrics for display.
type PerfPanelData struct {
	PhaseTimes map[string]time.Duration
	Total      time.Duration
	TicksPerS  float64
}

// PerfPanel renders the per-phase tick timings.
type PerfPanel struct {
	renderer *Renderer
	anchor   PanelAnchor
}

// NewPerfPanel creates a new performance panel.
func NewPerfPanel(anchor PanelAnchor) *PerfPanel {
	return &PerfPanel{
		renderer: NewRenderer(),
		anchor:   anchor,
	}
}

// Draw renders the performance panel for the phases in order.
func (p *PerfPanel) Draw(data PerfPanelData, phases []string, screenW, screenH int32) {
	r := p.renderer
	width := int32(260)
	height := int32(len(phases))*14 + 60
	x, y := anchorOrigin(p.anchor, width, height, screenW, screenH, 10)
	r.DrawPanel(x, y, width, height)

	x += r.Theme.Padding
	y += r.Theme.Padding

	rl.DrawText("Tick Performance", x, y, 16, rl.White)
	y += 20

	rl.DrawText(fmt.Sprintf("Total: %s  (%.0f ticks/s)", data.Total.Round(time.Microsecond), data.TicksPerS), x, y, 14, rl.Yellow)
	y += 16

	for _, name := range phases {
		avg := data.PhaseTimes[name]
		pct := float64(0)
		if data.Total > 0 {
			pct = float64(avg) / float64(data.Total) * 100
		}

		color := rl.LightGray
		if pct > 40 {
			color = rl.Red
		} else if pct > 20 {
			color = rl.Orange
		}

		rl.DrawText(
			fmt.Sprintf("%-12s %8s %5.1f%%", name, avg.Round(time.Microsecond), pct),
			x, y, 12, color,
		)
		y += 14
	}
}
