package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated engine statistics for a time window.
type WindowStats struct {
	WindowStartTick uint64  `csv:"-"`
	WindowEndTick   uint64  `csv:"window_end"`
	SimTimeSec      float64 `csv:"sim_time"`

	// Source state over the window
	ReadyTicks      int `csv:"ready_ticks"`
	NotReadyTicks   int `csv:"not_ready_ticks"`
	Resizes         int `csv:"resizes"`
	DroppedAnalyses int `csv:"dropped_analyses"`

	// Motion-layer classification, mean particles per ready tick
	MovingMean       float64 `csv:"moving_mean"`
	StaticMean       float64 `csv:"static_mean"`
	TransitionalMean float64 `csv:"transitional_mean"`
	MovingFrac       float64 `csv:"moving_frac"`

	// Per-tick motion map mean, distributed over the window
	MotionMean float64 `csv:"motion_mean"`
	MotionStd  float64 `csv:"motion_std"`
	MotionP50  float64 `csv:"motion_p50"`
	MotionP90  float64 `csv:"motion_p90"`

	// Pixels above the motion threshold, mean per ready tick
	MotionPixelsMean float64 `csv:"motion_pixels_mean"`

	EdgeMean float64 `csv:"edge_mean"`

	// Particles displaced by the pointer, mean per tick
	TouchedMean float64 `csv:"touched_mean"`
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	// Linear interpolation
	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// ComputeSeriesStats returns mean, sample standard deviation, median and
// 90th percentile of values.
func ComputeSeriesStats(values []float64) (mean, std, p50, p90 float64) {
	n := len(values)
	if n == 0 {
		return 0, 0, 0, 0
	}
	if n == 1 {
		return values[0], 0, values[0], values[0]
	}

	mean, std = stat.MeanStdDev(values, nil)

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	return mean, std, Percentile(sorted, 0.50), Percentile(sorted, 0.90)
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Uint64("window_start", s.WindowStartTick),
		slog.Uint64("window_end", s.WindowEndTick),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Int("ready_ticks", s.ReadyTicks),
		slog.Int("not_ready_ticks", s.NotReadyTicks),
		slog.Int("resizes", s.Resizes),
		slog.Int("dropped_analyses", s.DroppedAnalyses),
		slog.Float64("moving_mean", s.MovingMean),
		slog.Float64("static_mean", s.StaticMean),
		slog.Float64("transitional_mean", s.TransitionalMean),
		slog.Float64("moving_frac", s.MovingFrac),
		slog.Float64("motion_mean", s.MotionMean),
		slog.Float64("motion_std", s.MotionStd),
		slog.Float64("motion_p50", s.MotionP50),
		slog.Float64("motion_p90", s.MotionP90),
		slog.Float64("motion_pixels_mean", s.MotionPixelsMean),
		slog.Float64("edge_mean", s.EdgeMean),
		slog.Float64("touched_mean", s.TouchedMean),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"window_end", s.WindowEndTick,
		"sim_time", s.SimTimeSec,
		"ready_ticks", s.ReadyTicks,
		"not_ready_ticks", s.NotReadyTicks,
		"resizes", s.Resizes,
		"dropped_analyses", s.DroppedAnalyses,
		"moving_mean", s.MovingMean,
		"static_mean", s.StaticMean,
		"transitional_mean", s.TransitionalMean,
		"moving_frac", s.MovingFrac,
		"motion_mean", s.MotionMean,
		"motion_p90", s.MotionP90,
		"edge_mean", s.EdgeMean,
		"touched_mean", s.TouchedMean,
	)
}
