package game

import (
	"errors"
	"log/slog"
	"time"

	"github.com/pthm-cable/particlevision/components"
	"github.com/pthm-cable/particlevision/systems"
	"github.com/pthm-cable/particlevision/telemetry"
	"github.com/pthm-cable/particlevision/video"
	"github.com/pthm-cable/particlevision/vision"
)

// UpdateHeadless runs a single tick without graphics or input.
func (g *Game) UpdateHeadless() {
	g.Step()
}

// Step advances the engine by one fixed tick: sample the source, analyze
// the frame, update every layer, apply the pointer and publish frames.
func (g *Game) Step() {
	g.perfCollector.StartTick()
	dt := g.cfg.Derived.DT32

	ctx := systems.TickContext{
		Tick:    g.tick,
		Time:    g.time,
		Surface: g.surface.Get(),
		Pointer: g.pointer,
	}

	g.perfCollector.StartPhase(telemetry.PhaseSample)
	if a, ok := g.source.(video.Advancer); ok {
		a.Advance(dt)
	}
	frame, err := g.sampler.Sample(g.source)
	ready := err == nil
	if err != nil && !errors.Is(err, vision.ErrSourceNotReady) {
		slog.Error("failed to sample frame", "error", err)
	}
	g.noteSourceReady(ready)

	sample := telemetry.TickSample{Ready: ready}
	if ready {
		sample.Resized = frame.Resized
		ctx.Analysis = g.analyze(frame)
	}

	g.perfCollector.StartPhase(telemetry.PhaseLayers)
	counts := g.updateLayers(&ctx)

	g.perfCollector.StartPhase(telemetry.PhaseInteraction)
	sample.Touched = g.applyInteraction(ctx.Pointer)

	g.perfCollector.StartPhase(telemetry.PhaseSink)
	g.publish(&ctx.Surface)

	g.perfCollector.StartPhase(telemetry.PhaseTelemetry)
	sample.Counts = counts
	if a := ctx.Analysis; a != nil {
		sample.MotionMean = a.Motion.Mean()
		sample.MotionPixels = a.Motion.CountAbove(ctx.Surface.MotionThreshold)
		sample.EdgeMean = a.Edges.Mean()
	}
	g.lastSample = sample
	g.collector.RecordTick(sample)

	g.tick++
	g.time += dt

	g.flushTelemetry()
	g.perfCollector.EndTick()
}

// noteSourceReady logs ready transitions and drops the motion history when
// the source stops delivering frames.
func (g *Game) noteSourceReady(ready bool) {
	if ready == g.sourceReady {
		return
	}
	g.sourceReady = ready
	if ready {
		slog.Info("video source ready", "source", g.sourceName, "tick", g.tick)
		return
	}
	slog.Info("video source not ready", "source", g.sourceName, "tick", g.tick)
	g.sampler.Reset()
	if g.analyzer != nil {
		g.analyzer.Reset()
	}
	if g.async != nil {
		g.async.reset()
	}
}

// analyze runs the vision pipeline for f and returns the analysis the
// layers should read, or nil when none is available yet.
func (g *Game) analyze(f *vision.Frame) *vision.Analysis {
	if g.async == nil {
		g.perfCollector.StartPhase(telemetry.PhaseEdges)
		edges := g.analyzer.Edges.Detect(f)
		g.perfCollector.StartPhase(telemetry.PhaseMotion)
		motion := g.analyzer.Motion.Estimate(f)
		g.analysis = vision.Analysis{Frame: *f, Edges: edges, Motion: motion}
		return &g.analysis
	}

	start := time.Now()
	if !g.async.submit(f) {
		g.dropped++
		g.collector.RecordDroppedAnalysis()
	}
	ok := g.async.latestInto(&g.analysis)
	g.perfCollector.AddPhase(telemetry.PhaseMotion, time.Since(start))
	if !ok {
		return nil
	}
	return &g.analysis
}

// updateLayers runs every layer's update, splitting each across the
// worker pool, and records per-layer activity.
func (g *Game) updateLayers(ctx *systems.TickContext) systems.ClassCounts {
	var total systems.ClassCounts

	query := g.layerFilter.Query()
	for query.Next() {
		_, _, sim, act := query.Get()
		l := sim.Layer

		l.Prepare(ctx)
		chunks := g.pool.run(l.Field().Count, func(chunk, start, end int) {
			g.chunkCounts[chunk] = l.UpdateRange(ctx, start, end)
		})

		var counts systems.ClassCounts
		for i := 0; i < chunks; i++ {
			counts.Add(g.chunkCounts[i])
		}
		act.Counts = counts
		act.Touched = 0
		total.Add(counts)
	}
	return total
}

// applyInteraction displaces motion-layer particles near the pointer.
func (g *Game) applyInteraction(p systems.Pointer) int {
	if !g.cfg.Interaction.Enabled || !p.Active {
		return 0
	}
	field := g.motion.Field()
	chunks := g.pool.run(field.Count, func(chunk, start, end int) {
		g.chunkTouch[chunk] = g.interaction.ApplyRange(field.Positions, p.X, p.Y, start, end)
	})
	touched := 0
	for i := 0; i < chunks; i++ {
		touched += g.chunkTouch[i]
	}
	if act := g.activityMap.Get(g.motionEntity); act != nil {
		act.Touched = touched
	}
	return touched
}

// Activity returns the last tick's activity for the layer of the given kind.
func (g *Game) Activity(kind systems.LayerKind) components.Activity {
	var out components.Activity
	query := g.layerFilter.Query()
	for query.Next() {
		layer, _, _, act := query.Get()
		if layer.Kind == kind {
			out = *act
		}
	}
	return out
}
