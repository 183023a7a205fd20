package handlers

import (
	"context"
	"time"

	"github.com/ahmetcoskunkizilkaya/peer-evaluation/internal/dto"
	"github.com/gofiber/fiber/v2"
)

type HealthHandler struct {
	backend string
	ping    func(ctx context.Context) error
}

// NewHealthHandler reports on the store reached through ping.
func NewHealthHandler(backend string, ping func(ctx context.Context) error) *HealthHandler {
	return &HealthHandler{backend: backend, ping: ping}
}

func (h *HealthHandler) Check(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	status, store := "ok", "ok"
	if err := h.ping(ctx); err != nil {
		status, store = "degraded", "unhealthy: "+err.Error()
	}

	return c.JSON(dto.HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Store:     store,
		Backend:   h.backend,
	})
}
