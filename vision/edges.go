package vision

import "math"

// Luma weights for RGB to grayscale.
const (
	lumaR = 0.299
	lumaG = 0.587
	lumaB = 0.114
)

// gaussian5 is the [1,4,6,4,1] outer product kernel; weights sum to 256.
var gaussian5 = [5][5]float32{
	{1, 4, 6, 4, 1},
	{4, 16, 24, 16, 4},
	{6, 24, 36, 24, 6},
	{4, 16, 24, 16, 4},
	{1, 4, 6, 4, 1},
}

// EdgeDetector computes gradient magnitude over a blurred luma field.
// Buffers are reused between calls; the result is valid until the next Detect.
type EdgeDetector struct {
	gray    []float32
	blurred []float32
	out     Grid
}

// NewEdgeDetector creates an edge detector.
func NewEdgeDetector() *EdgeDetector {
	return &EdgeDetector{}
}

// Detect returns the edge strength map of f. Border pixels are zero: the
// blur leaves a 2-pixel border unconvolved and Sobel skips a 1-pixel border.
// Values are unnormalized magnitudes.
func (d *EdgeDetector) Detect(f *Frame) Grid {
	w, h := f.Width, f.Height
	n := w * h
	if cap(d.gray) < n {
		d.gray = make([]float32, n)
		d.blurred = make([]float32, n)
	}
	d.gray = d.gray[:n]
	d.blurred = d.blurred[:n]
	d.out.resize(w, h)

	Grayscale(f, d.gray)
	blur5(d.gray, d.blurred, w, h)
	sobel(d.blurred, d.out.Values, w, h)
	return d.out
}

// Grayscale writes normalized luma for every pixel of f into dst.
func Grayscale(f *Frame, dst []float32) {
	pix := f.Pix
	for i := range dst {
		p := i * 4
		dst[i] = (lumaR*float32(pix[p]) + lumaG*float32(pix[p+1]) + lumaB*float32(pix[p+2])) / 255
	}
}

// blur5 applies the 5×5 Gaussian to interior pixels. Border pixels are zeroed.
func blur5(src, dst []float32, w, h int) {
	clear(dst)
	for y := 2; y < h-2; y++ {
		for x := 2; x < w-2; x++ {
			var sum float32
			for ky := 0; ky < 5; ky++ {
				row := (y+ky-2)*w + x - 2
				k := &gaussian5[ky]
				sum += src[row]*k[0] + src[row+1]*k[1] + src[row+2]*k[2] + src[row+3]*k[3] + src[row+4]*k[4]
			}
			dst[y*w+x] = sum / 256
		}
	}
}

// sobel writes the 3×3 Sobel gradient magnitude, skipping a 1-pixel border.
func sobel(src, dst []float32, w, h int) {
	clear(dst)
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			i := y*w + x
			tl, tc, tr := src[i-w-1], src[i-w], src[i-w+1]
			ml, mr := src[i-1], src[i+1]
			bl, bc, br := src[i+w-1], src[i+w], src[i+w+1]

			gx := -tl + tr - 2*ml + 2*mr - bl + br
			gy := -tl - 2*tc - tr + bl + 2*bc + br
			dst[i] = float32(math.Sqrt(float64(gx*gx + gy*gy)))
		}
	}
}
