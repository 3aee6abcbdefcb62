package systems

// Class is the per-tick classification of a motion-layer particle.
type Class uint8

const (
	ClassIdle Class = iota // no frame available
	ClassMoving
	ClassStatic
	ClassTransitional
)

// String returns the class name.
func (c Class) String() string {
	switch c {
	case ClassMoving:
		return "moving"
	case ClassStatic:
		return "static"
	case ClassTransitional:
		return "transitional"
	default:
		return "idle"
	}
}

// Thresholds drive classification.
type Thresholds struct {
	Motion float32 // strictly above, with a strong edge, is Moving
	Static float32 // strictly below is Static
	Edge   float32 // edge strength a Moving pixel must exceed
}

// DefaultThresholds returns the stock classification thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{Motion: 0.08, Static: 0.03, Edge: 0.1}
}

// Classify returns exactly one of Moving, Static or Transitional.
// Moving takes precedence; a strong-motion pixel without an edge falls
// through to the Static test and then to Transitional.
func Classify(motion, edge float32, th Thresholds) Class {
	if motion > th.Motion && edge > th.Edge {
		return ClassMoving
	}
	if motion < th.Static {
		return ClassStatic
	}
	return ClassTransitional
}

// ClassCounts tallies classifications over a range of particles.
type ClassCounts struct {
	Moving       int
	Static       int
	Transitional int
	Idle         int
}

// Add accumulates o into c.
func (c *ClassCounts) Add(o ClassCounts) {
	c.Moving += o.Moving
	c.Static += o.Static
	c.Transitional += o.Transitional
	c.Idle += o.Idle
}

// Total returns the number of classified particles.
func (c ClassCounts) Total() int {
	return c.Moving + c.Static + c.Transitional + c.Idle
}

func (c *ClassCounts) inc(class Class) {
	switch class {
	case ClassMoving:
		c.Moving++
	case ClassStatic:
		c.Static++
	case ClassTransitional:
		c.Transitional++
	default:
		c.Idle++
	}
}
