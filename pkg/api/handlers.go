package api

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/unowned-ai/memorynet/pkg/legacy"
	"github.com/unowned-ai/memorynet/pkg/memories"
)

// portalUnavailable answers unknown and inactive tokens alike.
const portalUnavailable = "legacy link not found or inactive"

type ErrorResponse struct {
	Error string `json:"error"`
}

// PortalResponse is the public face of a portal. Owner and token stay private.
type PortalResponse struct {
	MemorialName  string    `json:"memorial_name"`
	MemorialQuote string    `json:"memorial_quote,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

type AskRequest struct {
	Question string `json:"question"`
}

func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

func (s *Server) handleGetPortal(c *fiber.Ctx) error {
	portal, err := s.gate.ResolvePortal(c.Context(), c.Params("token"))
	if err != nil {
		return s.fail(c, err)
	}

	return c.JSON(PortalResponse{
		MemorialName:  portal.MemorialName,
		MemorialQuote: portal.MemorialQuote,
		CreatedAt:     portal.CreatedAt,
	})
}

// handleListMemories accepts ?q= and any number of ?tag= (comma-separated
// values are split too).
func (s *Server) handleListMemories(c *fiber.Ctx) error {
	var tags []string
	for _, raw := range c.Context().QueryArgs().PeekMulti("tag") {
		tags = append(tags, strings.Split(string(raw), ",")...)
	}

	filter := memories.Filter{
		SearchText: c.Query("q"),
		Tags:       memories.NormalizeTags(tags),
	}

	timeline, err := s.gate.ListSharedMemories(c.Context(), c.Params("token"), filter)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(timeline)
}

func (s *Server) handleAsk(c *fiber.Ctx) error {
	var req AskRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}

	reply, err := s.gate.Ask(c.Context(), c.Params("token"), req.Question)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(reply)
}

func (s *Server) fail(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, legacy.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: portalUnavailable})
	case errors.Is(err, memories.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
	default:
		s.logger.Error("legacy request failed", zap.String("route", c.Route().Path), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "internal error"})
	}
}
