package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

const healthTimeout = 2 * time.Second

// Pinger is a dependency whose reachability is reported by /health.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	deps     map[string]Pinger
	failures func() uint64
}

// NewHealthHandler reports on deps by name together with the number of
// failed aggregate recomputations returned by failures.
func NewHealthHandler(deps map[string]Pinger, failures func() uint64) *HealthHandler {
	return &HealthHandler{deps: deps, failures: failures}
}

func (h *HealthHandler) Health(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), healthTimeout)
	defer cancel()

	healthy := true
	deps := make(fiber.Map, len(h.deps))
	for name, dep := range h.deps {
		if err := dep.Ping(ctx); err != nil {
			healthy = false
			deps[name] = "down"
			continue
		}
		deps[name] = "up"
	}

	status := fiber.StatusOK
	if !healthy {
		status = fiber.StatusServiceUnavailable
	}
	return c.Status(status).JSON(fiber.Map{
		"success": healthy,
		"data": fiber.Map{
			"dependencies":      deps,
			"aggregateFailures": h.failures(),
		},
	})
}
