package ui

import (
	"fmt"
	"strings"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/particlevision/config"
	"github.com/pthm-cable/particlevision/systems"
)

const (
	controlsWidth  = 280
	pickerHeight   = 90
	rowHeight      = 20
	rowGap         = 6
	sliderLabelPad = 70
)

// ControlsPanel renders the control panel that edits the configuration
// surface. One layer is edited at a time, picked with the layer selector.
type ControlsPanel struct {
	renderer *Renderer
	store    *config.SurfaceStore
	x, y     float32
	visible  bool

	layer      int32 // index into systems.LayerKinds
	blendNames string
}

// NewControlsPanel creates a new controls panel editing store.
func NewControlsPanel(store *config.SurfaceStore, x, y float32) *ControlsPanel {
	return &ControlsPanel{
		renderer:   NewRenderer(),
		store:      store,
		x:          x,
		y:          y,
		layer:      int32(len(systems.LayerKinds) - 1),
		blendNames: strings.Join(systems.BlendNames, ";"),
	}
}

// Toggle switches panel visibility.
func (c *ControlsPanel) Toggle() bool {
	c.visible = !c.visible
	return c.visible
}

// Contains reports whether a screen point is over the panel, so pointer
// input there is not forwarded to the particles or the camera.
func (c *ControlsPanel) Contains(px, py float32) bool {
	if !c.visible {
		return false
	}
	return px >= c.x && px <= c.x+controlsWidth && py >= c.y && py <= c.y+c.height()
}

func (c *ControlsPanel) height() float32 {
	return 18*rowHeight + 2*pickerHeight + 20*rowGap
}

// Draw renders the panel and writes any edits to the store.
func (c *ControlsPanel) Draw() {
	if !c.visible {
		return
	}

	s := c.store.Get()
	edited := s

	r := c.renderer
	r.DrawPanel(int32(c.x), int32(c.y), controlsWidth, int32(c.height()))

	x := c.x + float32(r.Theme.Padding)
	y := c.y + float32(r.Theme.Padding)
	w := float32(controlsWidth - 2*r.Theme.Padding)

	rl.DrawText("Layers", int32(x), int32(y), 16, rl.White)
	y += rowHeight + rowGap

	names := make([]string, len(systems.LayerKinds))
	for i, k := range systems.LayerKinds {
		names[i] = k.String()
	}
	c.layer = gui.ToggleGroup(rl.Rectangle{X: x, Y: y, Width: w/float32(len(names)) - 2, Height: rowHeight}, strings.Join(names, ";"), c.layer)
	y += rowHeight + rowGap

	kind := systems.LayerKinds[c.layer]
	ls := layerSurface(&edited, kind)

	ls.Visible = gui.CheckBox(rl.Rectangle{X: x, Y: y, Width: rowHeight - 4, Height: rowHeight - 4}, "Visible", ls.Visible)
	y += rowHeight + rowGap

	rl.DrawText("Blend", int32(x), int32(y+4), r.Theme.FontSize, r.Theme.LabelColor)
	// Names outside the list keep their value until a mode is picked
	current := blendIndex(ls.Blend)
	if active := gui.ComboBox(rl.Rectangle{X: x + sliderLabelPad, Y: y, Width: w - sliderLabelPad, Height: rowHeight}, c.blendNames, current); active != current {
		ls.Blend = systems.BlendNames[active]
	}
	y += rowHeight + rowGap

	y = c.slider(x, y, w, "Scale", &ls.Scale, 0.1, 3)

	rl.DrawText("Color", int32(x), int32(y), r.Theme.FontSize, r.Theme.LabelColor)
	y += rowHeight
	ls.Color = FromColor(gui.ColorPicker(rl.Rectangle{X: x, Y: y, Width: w - 30, Height: pickerHeight}, "", ToColor(ls.Color)))
	y += pickerHeight + rowGap

	if kind == systems.LayerMotion {
		rl.DrawText("Non-moving color", int32(x), int32(y), r.Theme.FontSize, r.Theme.LabelColor)
		y += rowHeight
		edited.NonMovingColor = FromColor(gui.ColorPicker(rl.Rectangle{X: x, Y: y, Width: w - 30, Height: pickerHeight}, "", ToColor(edited.NonMovingColor)))
		y += pickerHeight + rowGap

		edited.HideStatic = gui.CheckBox(rl.Rectangle{X: x, Y: y, Width: rowHeight - 4, Height: rowHeight - 4}, "Hide static", edited.HideStatic)
		y += rowHeight + rowGap

		y = c.slider(x, y, w, "Motion", &edited.MotionThreshold, 0.001, 0.5)
		y = c.slider(x, y, w, "Static", &edited.StaticThreshold, 0, 0.5)
	}

	rl.DrawText("Render", int32(x), int32(y), 16, rl.White)
	y += rowHeight + rowGap
	edited.EnableBlend = gui.CheckBox(rl.Rectangle{X: x, Y: y, Width: rowHeight - 4, Height: rowHeight - 4}, "Blend modes", edited.EnableBlend)
	y += rowHeight + rowGap

	r.DrawColorSwatch(int32(x), int32(y), "Background", edited.BackgroundColor)

	if edited != s {
		c.store.Update(func(cur *config.Surface) { *cur = edited })
	}
}

// slider draws a labeled slider bound to v and returns the next row.
func (c *ControlsPanel) slider(x, y, w float32, label string, v *float32, lo, hi float32) float32 {
	r := c.renderer
	rl.DrawText(label, int32(x), int32(y+4), r.Theme.FontSize, r.Theme.LabelColor)
	*v = gui.SliderBar(
		rl.Rectangle{X: x + sliderLabelPad, Y: y, Width: w - sliderLabelPad - 45, Height: rowHeight},
		"", "",
		*v, lo, hi,
	)
	rl.DrawText(fmt.Sprintf("%.3f", *v), int32(x+w-40), int32(y+4), r.Theme.FontSize, r.Theme.ValueColor)
	return y + rowHeight + rowGap
}

func layerSurface(s *config.Surface, kind systems.LayerKind) *config.LayerSurface {
	switch kind {
	case systems.LayerMotion:
		return &s.Motion
	case systems.LayerStatic:
		return &s.Static
	default:
		return &s.Background
	}
}

// blendIndex returns the position of name in the blend list, defaulting to
// the first entry for unknown names.
func blendIndex(name string) int32 {
	for i, n := range systems.BlendNames {
		if n == name {
			return int32(i)
		}
	}
	return 0
}
