package vision

import (
	"image"
	"log/slog"
	"math"
)

// DefaultSampleWidth is the sampled frame width used for all analysis.
const DefaultSampleWidth = 128

// Sampler draws the source's current frame into a fixed-width RGBA buffer
// whose height follows the source aspect ratio.
type Sampler struct {
	width  int
	aspect float64
	img    *image.RGBA
	frame  Frame
}

// NewSampler creates a sampler producing frames width pixels wide.
func NewSampler(width int) *Sampler {
	if width <= 0 {
		width = DefaultSampleWidth
	}
	return &Sampler{width: width}
}

// SampleHeight returns the buffer height for a source aspect ratio.
func SampleHeight(width int, aspect float64) int {
	h := int(math.Round(float64(width) / aspect))
	if h < 1 {
		h = 1
	}
	return h
}

// Sample copies the current source frame. The returned frame is owned by
// the sampler and overwritten by the next call. The buffer is reallocated
// only when the observed source aspect ratio changes, in which case the
// frame is flagged Resized.
func (s *Sampler) Sample(src Source) (*Frame, error) {
	if src == nil || !src.Ready() {
		return nil, ErrSourceNotReady
	}
	sw, sh := src.Dimensions()
	if sw <= 0 || sh <= 0 {
		return nil, ErrSourceNotReady
	}

	aspect := float64(sw) / float64(sh)
	resized := false
	if s.img == nil || aspect != s.aspect {
		h := SampleHeight(s.width, aspect)
		if s.img != nil {
			slog.Info("sampled frame resized",
				"old_width", s.frame.Width, "old_height", s.frame.Height,
				"new_width", s.width, "new_height", h,
				"aspect", aspect,
			)
		}
		s.aspect = aspect
		s.img = image.NewRGBA(image.Rect(0, 0, s.width, h))
		resized = true
	}

	src.DrawInto(s.img)

	s.frame = Frame{
		Width:   s.img.Rect.Dx(),
		Height:  s.img.Rect.Dy(),
		Pix:     s.img.Pix,
		Aspect:  aspect,
		Resized: resized,
	}
	return &s.frame, nil
}

// Reset forgets the observed aspect ratio so the next sample reallocates.
func (s *Sampler) Reset() {
	s.img = nil
	s.aspect = 0
}
