package config

import (
	"fmt"
	"strconv"
	"strings"
)

// RGB is a linear color with channels in [0, 1].
// It marshals as a "#RRGGBB" hex string in YAML and JSON.
type RGB struct {
	R, G, B float32
}

// Gray returns an RGB with all channels set to v.
func Gray(v float32) RGB {
	return RGB{R: v, G: v, B: v}
}

// ParseHex parses "#RRGGBB", "RRGGBB" or the short "#RGB" form.
func ParseHex(s string) (RGB, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) != 6 {
		return RGB{}, fmt.Errorf("invalid hex color %q", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return RGB{}, fmt.Errorf("invalid hex color %q: %w", s, err)
	}
	return RGB{
		R: float32((v>>16)&0xFF) / 255,
		G: float32((v>>8)&0xFF) / 255,
		B: float32(v&0xFF) / 255,
	}, nil
}

// Hex formats the color as "#RRGGBB", rounding and clamping each channel.
func (c RGB) Hex() string {
	return fmt.Sprintf("#%02X%02X%02X", channelByte(c.R), channelByte(c.G), channelByte(c.B))
}

// Bytes returns the color as clamped 8-bit channels.
func (c RGB) Bytes() (r, g, b uint8) {
	return channelByte(c.R), channelByte(c.G), channelByte(c.B)
}

// Scale multiplies every channel by k.
func (c RGB) Scale(k float32) RGB {
	return RGB{R: c.R * k, G: c.G * k, B: c.B * k}
}

// MarshalText implements encoding.TextMarshaler.
func (c RGB) MarshalText() ([]byte, error) {
	return []byte(c.Hex()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *RGB) UnmarshalText(text []byte) error {
	parsed, err := ParseHex(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

func channelByte(v float32) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255 + 0.5)
}
