// Package pricing turns an RFQ into a binding quote against the catalog.
package pricing

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/partsgrid/agents/pkg/model"
	"github.com/partsgrid/agents/supplier-agent/internal/catalog"
	"github.com/partsgrid/agents/supplier-agent/internal/metrics"
)

// Engine prices RFQs. It assumes structurally valid input — validation is
// the buyer orchestrator's job — and therefore never fails: unknown parts
// degrade to the catalog's fallback entry.
//
// Given the same RFQ and catalog contents the output is identical except for
// validUntil, which is derived from the injected clock.
type Engine struct {
	catalog    catalog.Catalog
	supplierID string
	validity   time.Duration
	now        func() time.Time
	logger     *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the time source (tests pin this for determinism).
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLogger attaches a logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// New creates a pricing engine. validity is the offset applied to the clock
// to compute validUntil.
func New(cat catalog.Catalog, supplierID string, validity time.Duration, opts ...Option) *Engine {
	e := &Engine{
		catalog:    cat,
		supplierID: supplierID,
		validity:   validity,
		now:        time.Now,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Quote prices every BOM line in request order. Each requested part is
// echoed back exactly once with its requested quantity; nothing is dropped.
func (e *Engine) Quote(ctx context.Context, rfq model.SubmitRFQ) model.Quote {
	items := make([]model.QuotedItem, 0, len(rfq.BOM))
	total := decimal.Zero

	for _, line := range rfq.BOM {
		entry := e.catalog.Resolve(ctx, line.PartNumber)
		if entry.Fallback {
			metrics.FallbackLinesTotal.Inc()
			e.logger.Warn("pricing.fallback_entry",
				zap.String("part_number", line.PartNumber))
		}

		items = append(items, model.QuotedItem{
			PartNumber:   line.PartNumber,
			Quantity:     line.Qty,
			UnitPrice:    entry.UnitPrice,
			LeadTimeDays: entry.LeadTimeDays,
		})
		total = total.Add(entry.UnitPrice.Mul(decimal.NewFromInt(int64(line.Qty))))
	}

	return model.Quote{
		RFQID:      quoteRFQID(rfq),
		SupplierID: e.supplierID,
		Items:      items,
		TotalPrice: total,
		Currency:   rfq.Currency,
		ValidUntil: model.DateOf(e.now().Add(e.validity)),
	}
}

// quoteRFQID derives a stable reference id from the RFQ content so that
// re-quoting the same RFQ yields the same id.
func quoteRFQID(rfq model.SubmitRFQ) string {
	raw, _ := json.Marshal(rfq)
	sum := sha256.Sum256(raw)
	return fmt.Sprintf("SQ-RFQ-%s", hex.EncodeToString(sum[:4]))
}
