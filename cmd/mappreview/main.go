// Map preview tool - shows the sampled frame, edge map, motion map and
// classification side by side, with sliders for the motion thresholds.
//
// Usage: go run ./cmd/mappreview [-source pattern|image|webcam] [-image path]
package main

import (
	"context"
	"flag"
	"fmt"
	"image/color"
	"log/slog"
	"os"
	"strings"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/particlevision/config"
	"github.com/pthm-cable/particlevision/systems"
	"github.com/pthm-cable/particlevision/video"
	"github.com/pthm-cable/particlevision/vision"
)

const (
	windowWidth  = 1100
	windowHeight = 720
	paneWidth    = 384
	panelX       = 2*paneWidth + 30
	panelWidth   = windowWidth - panelX - 10
)

// MapParams holds the tunable analysis parameters.
type MapParams struct {
	Motion    float32
	Static    float32
	Edge      float32
	Smoothing float32
}

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	source := flag.String("source", "", "Frame source (empty = use config)")
	imagePath := flag.String("image", "", "Still image for -source=image")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if *source != "" {
		cfg.Video.Source = *source
	}
	if *imagePath != "" {
		cfg.Video.ImagePath = *imagePath
	}

	src, err := video.Open(cfg.Video, slog.Default())
	if err != nil {
		slog.Warn("falling back to pattern", "error", err)
		src = video.NewPattern(cfg.Video.IdealWidth, cfg.Video.IdealHeight)
	}
	if r, ok := src.(video.Runner); ok {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		if err := r.Start(ctx); err != nil {
			slog.Error("failed to start source", "error", err)
			os.Exit(1)
		}
		defer r.Close()
	}

	rl.InitWindow(windowWidth, windowHeight, "Motion Map Preview")
	defer rl.CloseWindow()
	rl.SetTargetFPS(30)

	defaults := MapParams{
		Motion:    cfg.Derived.MotionThreshold,
		Static:    cfg.Derived.StaticThreshold,
		Edge:      cfg.Derived.EdgeThreshold,
		Smoothing: cfg.Derived.Smoothing,
	}
	params := defaults

	sampler := vision.NewSampler(cfg.Sampler.Width)
	analyzer := vision.NewAnalyzer(params.Smoothing)

	var panes [4]pane
	defer func() {
		for i := range panes {
			panes[i].unload()
		}
	}()
	titles := [4]string{"Frame", "Edges", "Motion", "Classes"}

	paused := false
	var counts systems.ClassCounts
	var an vision.Analysis
	haveFrame := false

	for !rl.WindowShouldClose() {
		if rl.IsKeyPressed(rl.KeySpace) {
			paused = !paused
		}

		if !paused {
			if adv, ok := src.(video.Advancer); ok {
				adv.Advance(rl.GetFrameTime())
			}
			frame, err := sampler.Sample(src)
			if err == nil {
				an = analyzer.Analyze(frame)
				haveFrame = true
			} else {
				analyzer.Reset()
				haveFrame = false
			}
		}

		if haveFrame {
			th := systems.Thresholds{Motion: params.Motion, Static: params.Static, Edge: params.Edge}
			w, h := an.Frame.Width, an.Frame.Height
			panes[0].update(w, h, func(i int) color.RGBA {
				p := an.Frame.Pix[i*4:]
				return color.RGBA{R: p[0], G: p[1], B: p[2], A: 255}
			})
			panes[1].update(w, h, func(i int) color.RGBA {
				return gray(an.Edges.Values[i])
			})
			panes[2].update(w, h, func(i int) color.RGBA {
				// Motion rarely exceeds a few tenths
				return heat(an.Motion.Values[i] * 4)
			})
			counts = systems.ClassCounts{}
			panes[3].update(w, h, func(i int) color.RGBA {
				c := systems.Classify(an.Motion.Values[i], an.Edges.Values[i], th)
				switch c {
				case systems.ClassMoving:
					counts.Moving++
				case systems.ClassStatic:
					counts.Static++
				default:
					counts.Transitional++
				}
				return classColor(c)
			})
		}

		rl.BeginDrawing()
		rl.ClearBackground(rl.RayWhite)

		for i := range panes {
			x := int32(10 + (i%2)*(paneWidth+10))
			y := int32(10 + (i/2)*(paneWidth*9/16+40))
			rl.DrawText(titles[i], x, y, 16, rl.DarkGray)
			panes[i].draw(x, y+20)
		}

		// Stats
		statsY := int32(windowHeight - 60)
		if haveFrame {
			rl.DrawText(fmt.Sprintf("Sample %dx%d  Motion mean: %.4f  Edge mean: %.3f",
				an.Frame.Width, an.Frame.Height, an.Motion.Mean(), an.Edges.Mean()), 15, statsY, 16, rl.DarkGray)
			rl.DrawText(fmt.Sprintf("Moving: %d  Static: %d  Transitional: %d",
				counts.Moving, counts.Static, counts.Transitional), 15, statsY+20, 16, rl.DarkGray)
		} else {
			rl.DrawText("Source not ready", 15, statsY, 16, rl.Maroon)
		}

		// Control panel
		y := float32(10)
		rl.DrawText("Motion Parameters", panelX, int32(y), 20, rl.DarkGray)
		y += 35

		params.Motion = slider("Motion threshold (Moving above)", &y, params.Motion, config.MinMotionThreshold, 0.5, "%.3f")
		params.Static = slider("Static threshold (Static below)", &y, params.Static, 0, params.Motion, "%.3f")
		params.Edge = slider("Edge threshold (contour needed)", &y, params.Edge, 0, 1, "%.2f")

		newSmoothing := slider("Smoothing (weight of new diff)", &y, params.Smoothing, 0.05, 1, "%.2f")
		if newSmoothing != params.Smoothing {
			params.Smoothing = newSmoothing
			analyzer = vision.NewAnalyzer(params.Smoothing)
		}

		rl.DrawLine(panelX, int32(y), panelX+panelWidth-20, int32(y), rl.LightGray)
		y += 15

		if gui.Button(rl.Rectangle{X: panelX, Y: y, Width: 120, Height: 30}, toggleText(paused, "Resume", "Pause")) {
			paused = !paused
		}
		if gui.Button(rl.Rectangle{X: panelX + 130, Y: y, Width: 120, Height: 30}, "Reset All") {
			params = defaults
			analyzer = vision.NewAnalyzer(params.Smoothing)
		}
		y += 55

		// Output YAML
		rl.DrawText("YAML Config:", panelX, int32(y), 16, rl.DarkGray)
		y += 25
		for _, line := range yamlLines(params) {
			rl.DrawText(line, panelX, int32(y), 14, rl.Gray)
			y += 16
		}

		rl.DrawText("Press C to copy YAML to clipboard", panelX, windowHeight-30, 12, rl.LightGray)
		if rl.IsKeyPressed(rl.KeyC) {
			rl.SetClipboardText(strings.Join(yamlLines(params), "\n"))
		}

		rl.EndDrawing()
	}
}

func slider(label string, y *float32, v, lo, hi float32, format string) float32 {
	rl.DrawText(label, panelX, int32(*y), 14, rl.Gray)
	*y += 18
	nv := gui.SliderBar(
		rl.Rectangle{X: panelX, Y: *y, Width: float32(panelWidth - 80), Height: 20},
		"", "",
		v, lo, hi,
	)
	rl.DrawText(fmt.Sprintf(format, v), panelX+panelWidth-70, int32(*y+2), 16, rl.DarkGray)
	*y += 35
	return nv
}

func yamlLines(p MapParams) []string {
	return []string{
		"motion:",
		fmt.Sprintf("  motion_threshold: %.3f", p.Motion),
		fmt.Sprintf("  static_threshold: %.3f", p.Static),
		fmt.Sprintf("  edge_threshold: %.2f", p.Edge),
		fmt.Sprintf("  smoothing: %.2f", p.Smoothing),
	}
}

func toggleText(cond bool, ifTrue, ifFalse string) string {
	if cond {
		return ifTrue
	}
	return ifFalse
}

// pane is one preview texture, reallocated when the sample size changes.
type pane struct {
	tex    rl.Texture2D
	w, h   int
	pixels []color.RGBA
}

func (p *pane) update(w, h int, at func(i int) color.RGBA) {
	if p.w != w || p.h != h {
		p.unload()
		img := rl.GenImageColor(w, h, rl.Black)
		p.tex = rl.LoadTextureFromImage(img)
		rl.UnloadImage(img)
		p.w, p.h = w, h
		p.pixels = make([]color.RGBA, w*h)
	}
	for i := range p.pixels {
		p.pixels[i] = at(i)
	}
	rl.UpdateTexture(p.tex, p.pixels)
}

func (p *pane) draw(x, y int32) {
	height := float32(paneWidth * 9 / 16)
	if p.w > 0 {
		height = float32(paneWidth) * float32(p.h) / float32(p.w)
		rl.DrawTexturePro(
			p.tex,
			rl.Rectangle{X: 0, Y: 0, Width: float32(p.w), Height: float32(p.h)},
			rl.Rectangle{X: float32(x), Y: float32(y), Width: paneWidth, Height: height},
			rl.Vector2{},
			0,
			rl.White,
		)
	}
	rl.DrawRectangleLines(x, y, paneWidth, int32(height), rl.DarkGray)
}

func (p *pane) unload() {
	if p.w > 0 {
		rl.UnloadTexture(p.tex)
		p.w, p.h = 0, 0
	}
}

func gray(v float32) color.RGBA {
	b := unitByte(v)
	return color.RGBA{R: b, G: b, B: b, A: 255}
}

// heat maps 0..1 through black, red and yellow to white.
func heat(v float32) color.RGBA {
	switch {
	case v < 1.0/3:
		return color.RGBA{R: unitByte(v * 3), A: 255}
	case v < 2.0/3:
		return color.RGBA{R: 255, G: unitByte((v - 1.0/3) * 3), A: 255}
	default:
		return color.RGBA{R: 255, G: 255, B: unitByte((v - 2.0/3) * 3), A: 255}
	}
}

func classColor(c systems.Class) color.RGBA {
	switch c {
	case systems.ClassMoving:
		return color.RGBA{R: 96, G: 165, B: 250, A: 255}
	case systems.ClassStatic:
		return color.RGBA{R: 55, G: 65, B: 81, A: 255}
	default:
		return color.RGBA{R: 234, G: 179, B: 8, A: 255}
	}
}

func unitByte(v float32) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255 + 0.5)
}
