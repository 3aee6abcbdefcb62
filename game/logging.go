package game

import (
	"log/slog"
)

// logLayerState logs each layer's activity for the last tick.
func (g *Game) logLayerState() {
	s := g.surface.Get()
	query := g.layerFilter.Query()
	for query.Next() {
		layer, app, sim, act := query.Get()
		ls := layer.Kind.Surface(&s)
		slog.Info("layer",
			"tick", g.tick,
			"layer", layer.Kind.String(),
			"particles", sim.Layer.Field().Count,
			"visible", ls.Visible,
			"blend", ls.Blend,
			"scale", ls.Scale,
			"size", app.Size,
			"moving", act.Counts.Moving,
			"static", act.Counts.Static,
			"transitional", act.Counts.Transitional,
			"idle", act.Counts.Idle,
			"touched", act.Touched,
		)
	}
}
