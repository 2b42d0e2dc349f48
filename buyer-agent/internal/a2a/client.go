// Package a2a implements the buyer side of the agent-to-agent wire contract:
// a JSON-RPC 2.0 SubmitRFQ call over HTTP. The client performs exactly one
// attempt per Send; retry policy belongs to the orchestrator.
package a2a

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/partsgrid/agents/internal/rate"
	"github.com/partsgrid/agents/pkg/model"

	"github.com/partsgrid/agents/buyer-agent/internal/metrics"
)

// SupplierConfig carries the endpoint and credentials for one supplier.
// Resolved per call so credential rotation takes effect without restarts.
type SupplierConfig struct {
	Endpoint string `json:"endpoint"`
	Token    string `json:"token"`
}

// ConfigResolver supplies the supplier endpoint configuration.
type ConfigResolver interface {
	Resolve(ctx context.Context) (*SupplierConfig, error)
}

// Client sends RFQs to the supplier's A2A endpoint and returns a parsed,
// contract-checked Quote or a classified TransportError.
type Client struct {
	logger   *zap.Logger
	http     *http.Client
	limiter  *rate.Limiter
	resolver ConfigResolver
}

// NewClient constructs a transport client. timeout bounds each attempt
// independently of the caller's context; limiter may be nil.
func NewClient(logger *zap.Logger, resolver ConfigResolver, timeout time.Duration, limiter *rate.Limiter) *Client {
	return &Client{
		logger:   logger,
		http:     &http.Client{Timeout: timeout},
		limiter:  limiter,
		resolver: resolver,
	}
}

// Send performs one SubmitRFQ exchange. Any returned error is a
// *TransportError carrying one of the three failure classes.
func (c *Client) Send(ctx context.Context, rfq model.SubmitRFQ) (*model.Quote, error) {
	cfg, err := c.resolver.Resolve(ctx)
	if err != nil {
		return nil, unreachable("resolving supplier endpoint", err)
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, unreachable("rate limit wait", err)
		}
	}

	rpcReq, err := model.NewRPCRequest(uuid.NewString(), model.MethodSubmitRFQ, rfq)
	if err != nil {
		return nil, invalid("encoding RFQ params: " + err.Error())
	}
	body, err := json.Marshal(rpcReq)
	if err != nil {
		return nil, invalid("encoding request envelope: " + err.Error())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, unreachable("building request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+cfg.Token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	elapsed := time.Since(start)
	metrics.SupplierRequestDuration.Observe(elapsed.Seconds())

	if err != nil {
		if isTimeout(err) {
			c.logger.Warn("a2a.timeout",
				zap.String("endpoint", cfg.Endpoint),
				zap.String("rpc_id", rpcReq.ID),
				zap.Duration("elapsed", elapsed))
			return nil, timeout("no response within deadline", err)
		}
		c.logger.Warn("a2a.unreachable",
			zap.String("endpoint", cfg.Endpoint),
			zap.String("rpc_id", rpcReq.ID),
			zap.Error(err))
		return nil, unreachable("connection failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		if isTimeout(err) {
			return nil, timeout("response cut off by deadline", err)
		}
		return nil, unreachable("reading response", err)
	}

	if resp.StatusCode >= 500 {
		c.logger.Warn("a2a.server_error",
			zap.Int("status", resp.StatusCode),
			zap.String("endpoint", cfg.Endpoint))
		return nil, unreachable(http.StatusText(resp.StatusCode), nil)
	}
	if resp.StatusCode >= 400 {
		return nil, invalid("supplier returned HTTP " + resp.Status)
	}

	var rpcResp model.RPCResponse
	if err := json.Unmarshal(raw, &rpcResp); err != nil {
		return nil, invalid("response is not valid JSON: " + err.Error())
	}
	if rpcResp.JSONRPC != model.JSONRPCVersion {
		return nil, invalid("response is not JSON-RPC 2.0")
	}
	if rpcResp.ID != rpcReq.ID {
		// Mismatched correlation id is suspicious but not fatal.
		c.logger.Warn("a2a.rpc_id_mismatch",
			zap.String("sent", rpcReq.ID),
			zap.String("received", rpcResp.ID))
	}
	if rpcResp.Error != nil {
		return nil, invalid(fmt.Sprintf("supplier RPC error %d: %s",
			rpcResp.Error.Code, rpcResp.Error.Message))
	}
	if len(rpcResp.Result) == 0 {
		return nil, invalid("response missing result")
	}

	quote, err := parseQuote(rpcResp.Result, rfq)
	if err != nil {
		c.logger.Warn("a2a.contract_violation",
			zap.String("rpc_id", rpcReq.ID),
			zap.Error(err))
		return nil, invalid(err.Error())
	}

	c.logger.Debug("a2a.quote_received",
		zap.String("rpc_id", rpcReq.ID),
		zap.String("supplier_id", quote.SupplierID),
		zap.Duration("elapsed", elapsed))

	return quote, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var nerr net.Error
	return errors.As(err, &nerr) && nerr.Timeout()
}

