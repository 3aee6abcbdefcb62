package vision

import (
	"gonum.org/v1/gonum/blas/blas32"
)

// DefaultSmoothing is the weight of the raw difference in the smoothed map.
const DefaultSmoothing = 0.7

// MotionEstimator keeps the previous frame and smoothed map for one source.
type MotionEstimator struct {
	smoothing float32

	prev     []uint8
	havePrev bool
	raw      []float32
	smoothed Grid
}

// NewMotionEstimator creates an estimator with the given smoothing weight.
func NewMotionEstimator(smoothing float32) *MotionEstimator {
	if smoothing <= 0 || smoothing > 1 {
		smoothing = DefaultSmoothing
	}
	return &MotionEstimator{smoothing: smoothing}
}

// Estimate returns the smoothed motion map for f. With no usable previous
// frame (first call, after Reset or after a dimension change) the map is
// zero everywhere. The result is owned by the estimator.
func (m *MotionEstimator) Estimate(f *Frame) Grid {
	w, h := f.Width, f.Height
	n := w * h

	if f.Resized || m.smoothed.Width != w || m.smoothed.Height != h || len(m.prev) != len(f.Pix) {
		m.smoothed = NewGrid(w, h)
		m.raw = make([]float32, n)
		m.prev = make([]uint8, len(f.Pix))
		m.havePrev = false
	}

	if !m.havePrev {
		clear(m.smoothed.Values)
		copy(m.prev, f.Pix)
		m.havePrev = true
		return m.smoothed
	}

	FrameDiff(m.prev, f.Pix, m.raw)

	// smoothed = smoothing*raw + (1-smoothing)*smoothed
	s := blas32.Vector{N: n, Inc: 1, Data: m.smoothed.Values}
	raw := blas32.Vector{N: n, Inc: 1, Data: m.raw}
	blas32.Scal(1-m.smoothing, s)
	blas32.Axpy(m.smoothing, raw, s)

	copy(m.prev, f.Pix)
	return m.smoothed
}

// Reset drops the previous frame and the smoothed map.
func (m *MotionEstimator) Reset() {
	m.havePrev = false
	m.smoothed = Grid{}
	m.prev = nil
	m.raw = nil
}

// FrameDiff writes the luma-weighted absolute RGB difference of two RGBA
// buffers into dst, normalized by 255.
func FrameDiff(prev, cur []uint8, dst []float32) {
	for i := range dst {
		p := i * 4
		dr := absDiff(cur[p], prev[p])
		dg := absDiff(cur[p+1], prev[p+1])
		db := absDiff(cur[p+2], prev[p+2])
		dst[i] = (lumaR*dr + lumaG*dg + lumaB*db) / 255
	}
}

func absDiff(a, b uint8) float32 {
	if a > b {
		return float32(a - b)
	}
	return float32(b - a)
}
