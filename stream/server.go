package stream

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/pthm-cable/particlevision/config"
	"github.com/pthm-cable/particlevision/systems"
)

// StatsFunc returns the latest telemetry for the stats endpoint.
type StatsFunc func() any

// Server serves the particle stream and the control API.
type Server struct {
	app     *fiber.App
	hub     *Hub
	surface *config.SurfaceStore
	stats   StatsFunc
	cancel  context.CancelFunc
}

// NewServer creates a server broadcasting through a new hub.
func NewServer(cfg config.StreamConfig, surface *config.SurfaceStore, stats StatsFunc) *Server {
	s := &Server{
		hub:     NewHub(cfg.SendEvery),
		surface: surface,
		stats:   stats,
	}

	app := fiber.New(fiber.Config{
		AppName:               "Particle Vision",
		DisableStartupMessage: true,
	})
	app.Use(cors.New())

	api := app.Group("/api")
	api.Get("/surface", s.handleGetSurface)
	api.Put("/surface", s.handlePutSurface)
	api.Get("/blend-modes", s.handleBlendModes)
	api.Get("/stats", s.handleStats)
	api.Get("/clients", s.handleClients)

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/particles", websocket.New(s.handleParticlesWS))

	s.app = app
	return s
}

// Publish forwards frames to the hub.
func (s *Server) Publish(tick uint64, frames []systems.LayerFrame) {
	s.hub.Publish(tick, frames)
}

// ClientCount returns the number of connected viewers.
func (s *Server) ClientCount() int {
	return s.hub.ClientCount()
}

// Start runs the hub and listens on addr. It blocks until the server stops.
func (s *Server) Start(addr string) error {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	go s.hub.Run(ctx)

	slog.Info("stream server listening", "addr", addr)
	return s.app.Listen(addr)
}

// Shutdown stops the server and disconnects viewers.
func (s *Server) Shutdown() error {
	if s.cancel != nil {
		s.cancel()
	}
	return s.app.Shutdown()
}

func (s *Server) handleGetSurface(c *fiber.Ctx) error {
	return c.JSON(s.surface.Get())
}

// handlePutSurface applies a partial surface: fields absent from the body
// keep their current values.
func (s *Server) handlePutSurface(c *fiber.Ctx) error {
	body := c.Body()

	// Validate against a scratch copy before touching the store
	probe := s.surface.Get()
	if err := json.Unmarshal(body, &probe); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if probe.MotionThreshold <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "motion_threshold must be positive"})
	}

	updated := s.surface.Update(func(cur *config.Surface) {
		// Already validated; a concurrent edit may only change untouched fields.
		_ = json.Unmarshal(body, cur)
	})
	slog.Info("surface updated via api", "remote", c.IP())
	return c.JSON(updated)
}

func (s *Server) handleBlendModes(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"blend_modes": systems.BlendNames})
}

func (s *Server) handleStats(c *fiber.Ctx) error {
	out := fiber.Map{"hub": s.hub.Stats()}
	if s.stats != nil {
		out["window"] = s.stats()
	}
	return c.JSON(out)
}

func (s *Server) handleClients(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"count": s.hub.ClientCount()})
}

func (s *Server) handleParticlesWS(conn *websocket.Conn) {
	newClient(s.hub, conn).run()
}

// App returns the underlying fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}
