// Package vision turns a video source into the per-tick maps the particle
// layers read: a sampled RGBA frame, an edge-strength map and a smoothed
// motion map.
package vision

import (
	"errors"
	"image"
)

// ErrSourceNotReady is returned by Sampler.Sample while the source has no
// decoded frame. It is a routine per-tick outcome, not a failure.
var ErrSourceNotReady = errors.New("vision: source not ready")

// Source is a readable video source.
type Source interface {
	// Ready reports whether a frame has been decoded.
	Ready() bool
	// Dimensions returns the decoded frame size in pixels.
	Dimensions() (width, height int)
	// DrawInto scales the current frame into dst, covering dst.Bounds().
	DrawInto(dst *image.RGBA)
}

// Frame is one sampled RGBA snapshot. Pix is row-major with 4 bytes per pixel.
type Frame struct {
	Width, Height int
	Pix           []uint8
	Aspect        float64 // source aspect ratio the buffer was sized for
	Resized       bool    // dimensions changed since the previous sample
}

// At returns the RGB channels of pixel (x, y).
func (f *Frame) At(x, y int) (r, g, b uint8) {
	i := (y*f.Width + x) * 4
	return f.Pix[i], f.Pix[i+1], f.Pix[i+2]
}

// Grid is a row-major float map matching a frame's dimensions.
type Grid struct {
	Width, Height int
	Values        []float32
}

// NewGrid allocates a zeroed grid.
func NewGrid(w, h int) Grid {
	return Grid{Width: w, Height: h, Values: make([]float32, w*h)}
}

// At returns the value at (x, y).
func (g Grid) At(x, y int) float32 {
	return g.Values[y*g.Width+x]
}

// Mean returns the average value, or 0 for an empty grid.
func (g Grid) Mean() float32 {
	if len(g.Values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range g.Values {
		sum += float64(v)
	}
	return float32(sum / float64(len(g.Values)))
}

// CountAbove returns how many values are strictly greater than t.
func (g Grid) CountAbove(t float32) int {
	n := 0
	for _, v := range g.Values {
		if v > t {
			n++
		}
	}
	return n
}

// resize reallocates the grid when its dimensions differ from w×h.
func (g *Grid) resize(w, h int) {
	if g.Width == w && g.Height == h && len(g.Values) == w*h {
		return
	}
	*g = NewGrid(w, h)
}
