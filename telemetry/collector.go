package telemetry

import "github.com/pthm-cable/particlevision/systems"

// TickSample is what the engine reports to the collector after each tick.
type TickSample struct {
	Ready        bool // the source produced a frame
	Resized      bool // the sampled frame changed dimensions
	Counts       systems.ClassCounts
	MotionMean   float32
	MotionPixels int // pixels above the motion threshold
	EdgeMean     float32
	Touched      int
}

// Collector accumulates tick samples within time windows and produces WindowStats.
type Collector struct {
	windowDurationSec   float64
	windowDurationTicks uint64
	dt                  float32

	windowStartTick uint64

	// Counters for the current window
	ticks           int
	readyTicks      int
	notReadyTicks   int
	resizes         int
	droppedAnalyses int
	moving          int
	static          int
	transitional    int
	motionPixels    int
	touched         int
	edgeSum         float64
	motionMeans     []float64
}

// NewCollector creates a new stats collector.
// windowDurationSec: how long each stats window lasts in simulation seconds
// dt: seconds per tick (used for tick-to-time conversion)
func NewCollector(windowDurationSec float64, dt float32) *Collector {
	ticksPerWindow := uint64(windowDurationSec / float64(dt))
	if ticksPerWindow < 1 {
		ticksPerWindow = 1
	}

	return &Collector{
		windowDurationSec:   windowDurationSec,
		windowDurationTicks: ticksPerWindow,
		dt:                  dt,
		motionMeans:         make([]float64, 0, ticksPerWindow),
	}
}

// RecordTick adds one tick's outcome to the current window.
func (c *Collector) RecordTick(s TickSample) {
	c.ticks++
	c.touched += s.Touched
	if !s.Ready {
		c.notReadyTicks++
		return
	}

	c.readyTicks++
	if s.Resized {
		c.resizes++
	}
	c.moving += s.Counts.Moving
	c.static += s.Counts.Static
	c.transitional += s.Counts.Transitional
	c.motionPixels += s.MotionPixels
	c.edgeSum += float64(s.EdgeMean)
	c.motionMeans = append(c.motionMeans, float64(s.MotionMean))
}

// RecordDroppedAnalysis counts an analysis request rejected because the
// previous one was still running.
func (c *Collector) RecordDroppedAnalysis() {
	c.droppedAnalyses++
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick uint64) bool {
	return currentTick-c.windowStartTick >= c.windowDurationTicks
}

// Flush produces a WindowStats and resets counters for the next window.
func (c *Collector) Flush(currentTick uint64) WindowStats {
	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,
		SimTimeSec:      float64(currentTick) * float64(c.dt),
		ReadyTicks:      c.readyTicks,
		NotReadyTicks:   c.notReadyTicks,
		Resizes:         c.resizes,
		DroppedAnalyses: c.droppedAnalyses,
	}

	if c.readyTicks > 0 {
		n := float64(c.readyTicks)
		stats.MovingMean = float64(c.moving) / n
		stats.StaticMean = float64(c.static) / n
		stats.TransitionalMean = float64(c.transitional) / n
		if total := c.moving + c.static + c.transitional; total > 0 {
			stats.MovingFrac = float64(c.moving) / float64(total)
		}
		stats.MotionPixelsMean = float64(c.motionPixels) / n
		stats.EdgeMean = c.edgeSum / n
		stats.MotionMean, stats.MotionStd, stats.MotionP50, stats.MotionP90 = ComputeSeriesStats(c.motionMeans)
	}
	if c.ticks > 0 {
		stats.TouchedMean = float64(c.touched) / float64(c.ticks)
	}

	// Reset for next window
	c.windowStartTick = currentTick
	c.ticks = 0
	c.readyTicks = 0
	c.notReadyTicks = 0
	c.resizes = 0
	c.droppedAnalyses = 0
	c.moving = 0
	c.static = 0
	c.transitional = 0
	c.motionPixels = 0
	c.touched = 0
	c.edgeSum = 0
	c.motionMeans = c.motionMeans[:0]

	return stats
}

// WindowDurationTicks returns the number of ticks per window.
func (c *Collector) WindowDurationTicks() uint64 {
	return c.windowDurationTicks
}
