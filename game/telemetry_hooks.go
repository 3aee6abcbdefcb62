package game

import (
	"log/slog"
)

// flushTelemetry checks if the stats window should be flushed.
func (g *Game) flushTelemetry() {
	if !g.collector.ShouldFlush(g.tick) {
		return
	}

	stats := g.collector.Flush(g.tick)
	perfStats := g.perfCollector.Stats()

	g.statsMu.Lock()
	g.lastStats = stats
	g.statsMu.Unlock()

	// Call stats callback if provided
	if g.statsCallback != nil {
		g.statsCallback(stats)
	}

	// Log stats if enabled (console output)
	if g.logStats {
		stats.LogStats()
		perfStats.LogStats()
		g.logLayerState()
	}

	// Write to CSV if output manager is enabled
	if g.outputManager != nil {
		if err := g.outputManager.WriteTelemetry(stats); err != nil {
			slog.Error("failed to write telemetry", "error", err)
		}
		if err := g.outputManager.WritePerf(perfStats, stats.WindowEndTick); err != nil {
			slog.Error("failed to write perf", "error", err)
		}

		// Snapshot the surface when an editor changed it during the window
		if v := g.surface.Version(); v != g.surfaceVer {
			g.surfaceVer = v
			if err := g.outputManager.WriteSurface(g.surface.Get()); err != nil {
				slog.Error("failed to write surface", "error", err)
			}
		}
	}
}
