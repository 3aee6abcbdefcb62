package systems

import "strings"

// BlendMode is the compositing mode a sink applies to a layer.
type BlendMode uint8

const (
	BlendAdditive BlendMode = iota
	BlendNormal
	BlendMultiply
)

// String returns the blend mode name.
func (b BlendMode) String() string {
	switch b {
	case BlendNormal:
		return "normal"
	case BlendMultiply:
		return "multiply"
	default:
		return "additive"
	}
}

// BlendNames lists the names offered by the control panel.
var BlendNames = []string{
	"normal", "multiply", "screen", "overlay", "darken", "lighten",
	"color-dodge", "color-burn", "hard-light", "soft-light",
	"difference", "exclusion", "additive",
}

// ResolveBlend maps a configured blend name to a mode the sink supports.
// With blending disabled, or for names without a native equivalent,
// layers are composited additively. Screen is approximated by additive.
func ResolveBlend(name string, enabled bool) BlendMode {
	if !enabled {
		return BlendAdditive
	}
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "normal":
		return BlendNormal
	case "multiply":
		return BlendMultiply
	default:
		return BlendAdditive
	}
}
