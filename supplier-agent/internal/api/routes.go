package api

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/partsgrid/agents/supplier-agent/internal/security"
)

// HealthChecker is implemented by catalogs with a backing store.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// AgentCard describes this agent for A2A discovery.
type AgentCard struct {
	Name         string   `json:"name"`
	Version      string   `json:"version"`
	Description  string   `json:"description"`
	URL          string   `json:"url"`
	Capabilities []string `json:"capabilities"`
}

// RegisterRoutes wires the supplier HTTP surface. health is optional; a nil
// checker reports only process liveness.
func RegisterRoutes(app *fiber.App, logger *zap.Logger, handler *A2AHandler,
	verifier security.Verifier, card AgentCard, health HealthChecker,
) {
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	app.Get("/health", func(c *fiber.Ctx) error {
		checks := map[string]string{"catalog": "ok"}
		status := "ok"
		code := fiber.StatusOK

		if health != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := health.HealthCheck(ctx); err != nil {
				checks["catalog"] = err.Error()
				status = "degraded"
				code = fiber.StatusServiceUnavailable
			}
		}

		return c.Status(code).JSON(fiber.Map{
			"status": status,
			"checks": checks,
		})
	})

	app.Get("/.well-known/agent.json", func(c *fiber.Ctx) error {
		return c.JSON(card)
	})

	app.Post("/a2a", security.BearerAuth(logger, verifier), handler.HandleRPC)
}
