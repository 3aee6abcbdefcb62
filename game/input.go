package game

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/particlevision/camera"
	"github.com/pthm-cable/particlevision/systems"
)

// Update processes input and runs one tick unless paused.
func (g *Game) Update() {
	g.handleInput()
	g.camera.Update()

	if g.paused {
		return
	}
	g.Step()
}

// handleInput processes keyboard and mouse input.
func (g *Game) handleInput() {
	// Window resize propagation
	g.handleResize()

	// Fullscreen toggle
	if rl.IsKeyPressed(rl.KeyF11) {
		rl.ToggleFullscreen()
	}

	if rl.IsKeyPressed(rl.KeySpace) {
		g.paused = !g.paused
	}
	if rl.IsKeyPressed(rl.KeyC) {
		g.controls.Toggle()
	}
	if rl.IsKeyPressed(rl.KeyH) {
		g.showHUD = !g.showHUD
	}
	if rl.IsKeyPressed(rl.KeyP) {
		g.showPerf = !g.showPerf
	}

	g.handlePointer()
	g.handleCameraInput()
}

// handleResize checks for window resize and propagates new dimensions.
func (g *Game) handleResize() {
	if !rl.IsWindowResized() {
		return
	}
	w := float32(rl.GetScreenWidth())
	h := float32(rl.GetScreenHeight())
	if w == g.screenWidth && h == g.screenHeight {
		return
	}
	g.screenWidth = w
	g.screenHeight = h
	g.camera.Resize(w, h)
}

// handlePointer maps the mouse to the interaction pointer. The pointer is
// inactive off-window and over the control panel.
func (g *Game) handlePointer() {
	mp := rl.GetMousePosition()
	if !rl.IsCursorOnScreen() || g.controls.Contains(mp.X, mp.Y) {
		g.pointer = systems.Pointer{}
		return
	}
	wx, wy := camera.PointerWorld(mp.X, mp.Y, g.screenWidth, g.screenHeight, float32(g.cfg.Interaction.PointerScale))
	g.pointer = systems.Pointer{X: wx, Y: wy, Active: true}
}

// handleCameraInput processes orbit, pan and zoom controls.
func (g *Game) handleCameraInput() {
	mp := rl.GetMousePosition()
	if g.controls.Contains(mp.X, mp.Y) {
		return
	}

	delta := rl.GetMouseDelta()
	if rl.IsMouseButtonDown(rl.MouseButtonLeft) {
		g.camera.Rotate(delta.X, delta.Y)
	}
	if rl.IsMouseButtonDown(rl.MouseButtonRight) || rl.IsMouseButtonDown(rl.MouseButtonMiddle) {
		g.camera.Pan(delta.X, delta.Y)
	}

	if wheel := rl.GetMouseWheelMove(); wheel != 0 {
		g.camera.Zoom(wheel)
	}

	// Keyboard zoom with +/- (= and - keys)
	if rl.IsKeyPressed(rl.KeyEqual) || rl.IsKeyPressed(rl.KeyKpAdd) {
		g.camera.Zoom(1)
	}
	if rl.IsKeyPressed(rl.KeyMinus) || rl.IsKeyPressed(rl.KeyKpSubtract) {
		g.camera.Zoom(-1)
	}

	// Home key to reset camera
	if rl.IsKeyPressed(rl.KeyHome) {
		g.camera.Reset()
	}
}
