package api

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/partsgrid/agents/pkg/model"
	"github.com/partsgrid/agents/supplier-agent/internal/metrics"
)

// QuoteEngine defines the pricing operations needed by the A2A handler.
type QuoteEngine interface {
	Quote(ctx context.Context, rfq model.SubmitRFQ) model.Quote
}

// A2AHandler serves the supplier's JSON-RPC endpoint.
type A2AHandler struct {
	logger *zap.Logger
	engine QuoteEngine
}

// NewA2AHandler creates an A2AHandler.
func NewA2AHandler(logger *zap.Logger, engine QuoteEngine) *A2AHandler {
	return &A2AHandler{logger: logger, engine: engine}
}

// HandleRPC handles POST /a2a. Protocol-level failures are answered with
// JSON-RPC error envelopes over HTTP 200, matching the A2A contract.
func (h *A2AHandler) HandleRPC(c *fiber.Ctx) error {
	var req model.RPCRequest
	if err := c.BodyParser(&req); err != nil {
		metrics.IncRPC("unknown", "error")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON body"})
	}

	if req.JSONRPC != model.JSONRPCVersion {
		metrics.IncRPC(req.Method, "error")
		return c.JSON(model.NewRPCError(req.ID, model.RPCInvalidRequest, "unsupported JSON-RPC version"))
	}

	if req.Method != model.MethodSubmitRFQ {
		h.logger.Warn("a2a.method_not_found", zap.String("method", req.Method))
		metrics.IncRPC(req.Method, "error")
		return c.JSON(model.NewRPCError(req.ID, model.RPCMethodNotFound, "Method not found"))
	}

	rfq, err := decodeSubmitRFQ(req.Params)
	if err != nil {
		h.logger.Warn("a2a.invalid_params",
			zap.String("rpc_id", req.ID),
			zap.Error(err))
		metrics.IncRPC(req.Method, "error")
		return c.JSON(model.NewRPCError(req.ID, model.RPCInvalidParams, err.Error()))
	}

	start := time.Now()
	quote := h.engine.Quote(c.Context(), rfq)
	metrics.QuoteDuration.Observe(time.Since(start).Seconds())

	resp, err := model.NewRPCResult(req.ID, quote)
	if err != nil {
		h.logger.Error("a2a.encode_failed", zap.Error(err))
		metrics.IncRPC(req.Method, "error")
		return c.JSON(model.NewRPCError(req.ID, model.RPCServerError, "Server error: could not encode quote"))
	}

	h.logger.Info("a2a.quoted",
		zap.String("rpc_id", req.ID),
		zap.String("quote_rfq_id", quote.RFQID),
		zap.Int("lines", len(quote.Items)),
		zap.String("total", quote.TotalPrice.String()))
	metrics.IncRPC(req.Method, "ok")

	return c.JSON(resp)
}

// decodeSubmitRFQ decodes and structurally validates the RFQ params.
func decodeSubmitRFQ(raw json.RawMessage) (model.SubmitRFQ, error) {
	var rfq model.SubmitRFQ
	if len(raw) == 0 {
		return rfq, errMissingParams
	}
	if err := json.Unmarshal(raw, &rfq); err != nil {
		return rfq, err
	}
	if err := rfq.Validate(); err != nil {
		return rfq, err
	}
	return rfq, nil
}

var errMissingParams = errors.New("params is required")
