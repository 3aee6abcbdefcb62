package video

import (
	"image"
	"math"
)

// Pattern is a synthetic source: a slow diagonal gradient with a bright
// block sweeping across it. It gives headless runs real edges and motion.
type Pattern struct {
	width, height int
	time          float64

	// Block size as a fraction of the frame height.
	BlockSize float64
	// Speed in radians per second of the block's Lissajous path.
	Speed float64
}

// NewPattern creates a pattern source with the given nominal dimensions.
func NewPattern(width, height int) *Pattern {
	if width <= 0 || height <= 0 {
		width, height = 1280, 720
	}
	return &Pattern{
		width:     width,
		height:    height,
		BlockSize: 0.28,
		Speed:     1.3,
	}
}

// Ready is always true.
func (p *Pattern) Ready() bool { return true }

// Dimensions returns the nominal frame size.
func (p *Pattern) Dimensions() (int, int) { return p.width, p.height }

// Advance moves the pattern forward by dt seconds.
func (p *Pattern) Advance(dt float32) {
	p.time += float64(dt)
}

// SetTime sets the pattern clock.
func (p *Pattern) SetTime(t float64) {
	p.time = t
}

// BlockRect returns the block's bounds in normalized [0,1] coordinates.
func (p *Pattern) BlockRect() (x0, y0, x1, y1 float64) {
	aspect := float64(p.width) / float64(p.height)
	sh := p.BlockSize
	sw := sh / aspect
	cx := 0.5 + 0.35*math.Sin(p.time*p.Speed)
	cy := 0.5 + 0.3*math.Sin(p.time*p.Speed*0.7+1)
	return cx - sw/2, cy - sh/2, cx + sw/2, cy + sh/2
}

// DrawInto renders the pattern directly at dst's resolution.
func (p *Pattern) DrawInto(dst *image.RGBA) {
	b := dst.Bounds()
	w, h := b.Dx(), b.Dy()
	x0, y0, x1, y1 := p.BlockRect()
	shift := p.time * 0.1

	for y := 0; y < h; y++ {
		v := (float64(y) + 0.5) / float64(h)
		row := dst.PixOffset(b.Min.X, b.Min.Y+y)
		for x := 0; x < w; x++ {
			u := (float64(x) + 0.5) / float64(w)
			i := row + x*4

			if u >= x0 && u < x1 && v >= y0 && v < y1 {
				dst.Pix[i], dst.Pix[i+1], dst.Pix[i+2], dst.Pix[i+3] = 250, 240, 220, 255
				continue
			}

			g := math.Mod(u*0.6+v*0.4+shift, 1)
			dst.Pix[i] = uint8(20 + 60*g)
			dst.Pix[i+1] = uint8(30 + 50*(1-g))
			dst.Pix[i+2] = uint8(60 + 40*g)
			dst.Pix[i+3] = 255
		}
	}
}
