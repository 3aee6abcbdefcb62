package ui

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/particlevision/config"
)

// Renderer handles all UI drawing with consistent styling.
type Renderer struct {
	Theme Theme
}

// NewRenderer creates a renderer with the default theme.
func NewRenderer() *Renderer {
	return &Renderer{Theme: DefaultTheme()}
}

// DrawPanel draws a panel background with border.
func (r *Renderer) DrawPanel(x, y, width, height int32) {
	rl.DrawRectangle(x, y, width, height, r.Theme.PanelBg)
	rl.DrawRectangleLines(x, y, width, height, r.Theme.PanelBorder)
}

// DrawSectionHeader draws a section header and returns the new Y position.
func (r *Renderer) DrawSectionHeader(x, y int32, title string) int32 {
	rl.DrawText(title, x, y, r.Theme.HeaderFontSize, r.Theme.SectionHeader)
	return y + r.Theme.LineHeight
}

// DrawLabelValue draws a label and value on the same line.
func (r *Renderer) DrawLabelValue(x, y int32, label, value string) int32 {
	rl.DrawText(label+":", x, y, r.Theme.FontSize, r.Theme.LabelColor)
	rl.DrawText(value, x+r.Theme.LabelWidth, y, r.Theme.FontSize, r.Theme.ValueColor)
	return y + r.Theme.LineHeight
}

// DrawStackedBar draws adjacent segments whose fractions sum to at most 1.
func (r *Renderer) DrawStackedBar(x, y, width int32, fractions []float32, colors []rl.Color) int32 {
	rl.DrawRectangle(x, y+2, width, r.Theme.BarHeight, r.Theme.BarBg)
	sx := x
	for i, f := range fractions {
		w := int32(float32(width) * clampUnit(f))
		rl.DrawRectangle(sx, y+2, w, r.Theme.BarHeight, colors[i%len(colors)])
		sx += w
	}
	return y + r.Theme.LineHeight + 2
}

// DrawColorSwatch draws a color swatch with its hex value.
func (r *Renderer) DrawColorSwatch(x, y int32, label string, c config.RGB) int32 {
	swatchSize := int32(12)

	rl.DrawText(label+":", x, y, r.Theme.FontSize, r.Theme.LabelColor)
	rl.DrawRectangle(x+r.Theme.LabelWidth, y+1, swatchSize, swatchSize, ToColor(c))
	rl.DrawText(c.Hex(), x+r.Theme.LabelWidth+swatchSize+6, y, r.Theme.FontSize, r.Theme.ValueColor)

	return y + r.Theme.LineHeight
}

// ToColor converts a config color to an opaque raylib color.
func ToColor(c config.RGB) rl.Color {
	r, g, b := c.Bytes()
	return rl.Color{R: r, G: g, B: b, A: 255}
}

// FromColor converts a raylib color to a config color, ignoring alpha.
func FromColor(c rl.Color) config.RGB {
	return config.RGB{R: float32(c.R) / 255, G: float32(c.G) / 255, B: float32(c.B) / 255}
}

func clampUnit(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
