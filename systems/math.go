package systems

import "math"

// Fast math for per-particle hot paths.
// These avoid float32->float64 conversions that Go's math package requires.

// minf returns the smaller of a and b.
func minf(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

// maxf returns the larger of a and b.
func maxf(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}

// normalizeAngle wraps an angle to [-Pi, Pi].
func normalizeAngle(angle float32) float32 {
	const twoPi = 2 * math.Pi
	if angle > math.Pi || angle < -math.Pi {
		angle -= twoPi * float32(math.Floor(float64((angle+math.Pi)/twoPi)))
	}
	return angle
}

// fastSin approximates sin(x) using a polynomial. Accurate to ~0.001 for all x.
func fastSin(x float32) float32 {
	x = normalizeAngle(x)
	const pi = math.Pi
	const pi2 = pi * pi
	ax := x
	if ax < 0 {
		ax = -ax
	}
	y := 4 * x * (pi - ax) / pi2
	// Correction term
	ay := y
	if ay < 0 {
		ay = -ay
	}
	return 0.225*(y*ay-y) + y
}

// fastCos approximates cos(x) using fastSin.
func fastCos(x float32) float32 {
	return fastSin(x + math.Pi/2)
}

// hash01 maps (seed, a, b, c) to a uniform value in [0, 1).
func hash01(seed uint32, a, b, c uint32) float32 {
	h := a*374761393 + b*668265263 + c*2246822519 + seed*1442695041
	h = (h ^ (h >> 13)) * 1274126177
	h ^= h >> 16
	return float32(h&0x00FFFFFF) / float32(0x01000000)
}
