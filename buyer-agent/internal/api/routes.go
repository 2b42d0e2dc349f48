package api

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HealthChecker is implemented by stores with backing infrastructure.
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

// RegisterRoutes wires the buyer HTTP surface. health is optional; a nil
// checker reports only process liveness.
func RegisterRoutes(app *fiber.App, handler *Handler,
	card AgentCard, health HealthChecker,
) {
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	app.Get("/health", func(c *fiber.Ctx) error {
		checks := map[string]string{"store": "ok"}
		status := "ok"
		code := fiber.StatusOK

		if health != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := health.HealthCheck(ctx); err != nil {
				checks["store"] = err.Error()
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

	v1 := app.Group("/api/v1")
	v1.Post("/rfqs", handler.SubmitRFQ)
	v1.Get("/rfqs/:id", handler.GetRFQ)
}
