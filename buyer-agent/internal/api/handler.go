package api

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/partsgrid/agents/pkg/model"

	"github.com/partsgrid/agents/buyer-agent/internal/orchestrator"
	"github.com/partsgrid/agents/buyer-agent/internal/store"
)

// RFQService is the orchestration surface the REST handlers need.
type RFQService interface {
	Submit(ctx context.Context, rfq model.SubmitRFQ) (*orchestrator.Result, error)
	Status(ctx context.Context, id string) (*store.RFQRecord, error)
}

// Handler serves the buyer's REST API.
type Handler struct {
	logger  *zap.Logger
	service RFQService
}

func NewHandler(logger *zap.Logger, service RFQService) *Handler {
	return &Handler{logger: logger, service: service}
}

// SubmitRFQ handles POST /api/v1/rfqs. The response always carries the
// terminal outcome: 200 with a quote, 422 when validation rejected the RFQ,
// 502 when the supplier could not produce one.
func (h *Handler) SubmitRFQ(c *fiber.Ctx) error {
	var rfq model.SubmitRFQ
	if err := c.BodyParser(&rfq); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON body"})
	}

	res, err := h.service.Submit(c.Context(), rfq)
	if err != nil {
		h.logger.Error("api.submit_failed", zap.Error(err))
		if res != nil && res.RFQID != "" {
			// The quote exists but could not be fully persisted.
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "rfq accepted but persistence failed",
				"rfqId": res.RFQID,
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}

	switch res.Outcome {
	case model.OutcomeSuccess:
		return c.JSON(res)
	case model.OutcomeValidationFailed:
		return c.Status(fiber.StatusUnprocessableEntity).JSON(res)
	default:
		return c.Status(fiber.StatusBadGateway).JSON(res)
	}
}

// GetRFQ handles GET /api/v1/rfqs/:id.
func (h *Handler) GetRFQ(c *fiber.Ctx) error {
	id := c.Params("id")
	rec, err := h.service.Status(c.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "rfq not found"})
		}
		h.logger.Error("api.get_rfq_failed", zap.String("rfq_id", id), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
	return c.JSON(rec)
}
