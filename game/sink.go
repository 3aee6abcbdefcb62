package game

import (
	"sort"

	"github.com/pthm-cable/particlevision/config"
	"github.com/pthm-cable/particlevision/systems"
)

// publish builds this tick's layer frames and hands them to every sink.
func (g *Game) publish(s *config.Surface) {
	if len(g.sinks) == 0 {
		return
	}
	g.frames = g.buildFrames(s, g.frames[:0])
	for _, sink := range g.sinks {
		sink.Publish(g.tick, g.frames)
	}
}

// orderedFrame pairs a frame with its layer's draw order.
type orderedFrame struct {
	order int
	frame systems.LayerFrame
}

// buildFrames appends one frame per layer to dst, sorted by the layers'
// draw order, back to front.
func (g *Game) buildFrames(s *config.Surface, dst []systems.LayerFrame) []systems.LayerFrame {
	g.ordered = g.ordered[:0]
	query := g.layerFilter.Query()
	for query.Next() {
		layer, app, sim, _ := query.Get()
		field := sim.Layer.Field()
		ls := layer.Kind.Surface(s)
		g.ordered = append(g.ordered, orderedFrame{
			order: layer.Order,
			frame: systems.LayerFrame{
				Kind:      layer.Kind,
				Count:     field.Count,
				Positions: field.Positions,
				Colors:    field.Colors,
				Size:      app.Size,
				Opacity:   app.Opacity,
				Blend:     systems.ResolveBlend(ls.Blend, s.EnableBlend),
				Visible:   ls.Visible,
				Scale:     ls.Scale,
				Tint:      ls.Color,
			},
		})
	}
	sort.SliceStable(g.ordered, func(i, j int) bool { return g.ordered[i].order < g.ordered[j].order })
	for _, o := range g.ordered {
		dst = append(dst, o.frame)
	}
	return dst
}

// Frames returns the current layer frames, back to front.
func (g *Game) Frames() []systems.LayerFrame {
	s := g.surface.Get()
	return g.buildFrames(&s, nil)
}
