package systems

// ParticleField holds one layer's particle state as flat xyz/rgb arrays.
// All three slices have length 3*Count and are never reallocated.
type ParticleField struct {
	Count         int
	Positions     []float32
	BasePositions []float32
	Colors        []float32
}

// NewParticleField allocates a field of n particles.
func NewParticleField(n int) *ParticleField {
	return &ParticleField{
		Count:         n,
		Positions:     make([]float32, 3*n),
		BasePositions: make([]float32, 3*n),
		Colors:        make([]float32, 3*n),
	}
}

// SetBase sets particle i's base position.
func (f *ParticleField) SetBase(i int, x, y, z float32) {
	i3 := i * 3
	f.BasePositions[i3] = x
	f.BasePositions[i3+1] = y
	f.BasePositions[i3+2] = z
}

// ResetToBase copies base positions into current positions.
func (f *ParticleField) ResetToBase() {
	copy(f.Positions, f.BasePositions)
}

// Fill sets every particle's color to c.
func (f *ParticleField) Fill(r, g, b float32) {
	for i := 0; i < len(f.Colors); i += 3 {
		f.Colors[i] = r
		f.Colors[i+1] = g
		f.Colors[i+2] = b
	}
}

// pullToward moves particle i toward (tx, ty, tz) by factors kxy and kz.
func (f *ParticleField) pullToward(i3 int, tx, ty, tz, kxy, kz float32) {
	p := f.Positions
	p[i3] += (tx - p[i3]) * kxy
	p[i3+1] += (ty - p[i3+1]) * kxy
	p[i3+2] += (tz - p[i3+2]) * kz
}

// gridCell returns the fractional row and column of particle i on a grid
// with the given (non-integer) side length.
func gridCell(i int, grid float64) (row, col float64) {
	fi := float64(i)
	row = float64(int(fi / grid))
	col = fi - row*grid
	if col < 0 {
		col = 0
	}
	return row, col
}
