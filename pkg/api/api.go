// Package api serves legacy portals over HTTP so heirs can browse and ask
// about the memories shared with them.
package api

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/unowned-ai/memorynet/pkg/legacy"
)

type Config struct {
	ListenAddr string
}

// Server is the legacy portal API.
type Server struct {
	config Config
	gate   *legacy.Gate
	logger *zap.Logger
	app    *fiber.App
}

func NewServer(config Config, gate *legacy.Gate, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		config: config,
		gate:   gate,
		logger: logger,
		app:    app,
	}

	app.Get("/ping", s.handlePing)
	app.Get("/legacy/:token", s.handleGetPortal)
	app.Get("/legacy/:token/memories", s.handleListMemories)
	app.Post("/legacy/:token/ask", s.handleAsk)

	return s
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting legacy API server",
		zap.String("listen", s.config.ListenAddr),
	)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	s.logger.Info("stopping legacy API server")
	return s.app.Shutdown()
}
