package vision

// Analysis bundles the maps derived from one sampled frame.
type Analysis struct {
	Frame  Frame
	Edges  Grid
	Motion Grid
}

// Analyzer runs edge detection and motion estimation on the same frame.
type Analyzer struct {
	Edges  *EdgeDetector
	Motion *MotionEstimator
}

// NewAnalyzer creates an analyzer with its own detector and estimator.
func NewAnalyzer(smoothing float32) *Analyzer {
	return &Analyzer{
		Edges:  NewEdgeDetector(),
		Motion: NewMotionEstimator(smoothing),
	}
}

// Analyze computes both maps for f. The returned maps alias the analyzer's
// buffers; use Clone to keep them past the next call.
func (a *Analyzer) Analyze(f *Frame) Analysis {
	return Analysis{
		Frame:  *f,
		Edges:  a.Edges.Detect(f),
		Motion: a.Motion.Estimate(f),
	}
}

// Reset forgets the motion history, as when the source stops.
func (a *Analyzer) Reset() {
	a.Motion.Reset()
}

// Clone deep-copies the analysis into dst, reusing dst's buffers.
func (an *Analysis) Clone(dst *Analysis) {
	dst.Frame = an.Frame
	dst.Frame.Pix = append(dst.Frame.Pix[:0], an.Frame.Pix...)
	dst.Edges = cloneGrid(an.Edges, dst.Edges)
	dst.Motion = cloneGrid(an.Motion, dst.Motion)
}

func cloneGrid(src, dst Grid) Grid {
	dst.Width, dst.Height = src.Width, src.Height
	dst.Values = append(dst.Values[:0], src.Values...)
	return dst
}
