// Package orchestrator drives one RFQ through its lifecycle: validate,
// persist, call the supplier with retries, then record the terminal state
// and emit an event. Every submission ends in exactly one outcome.
package orchestrator

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/partsgrid/agents/internal/retry"
	"github.com/partsgrid/agents/pkg/model"

	"github.com/partsgrid/agents/buyer-agent/internal/a2a"
	"github.com/partsgrid/agents/buyer-agent/internal/metrics"
	"github.com/partsgrid/agents/buyer-agent/internal/publisher"
	"github.com/partsgrid/agents/buyer-agent/internal/store"
)

// SupplierClient is the outbound A2A dependency.
type SupplierClient interface {
	Send(ctx context.Context, rfq model.SubmitRFQ) (*model.Quote, error)
}

// Result is the terminal answer for one RFQ submission. RFQID is set as soon
// as the record is persisted, so a failed submission is still addressable.
type Result struct {
	RFQID   string        `json:"rfqId"`
	Outcome model.Outcome `json:"outcome"`
	Quote   *model.Quote  `json:"quote,omitempty"`
	Reason  string        `json:"reason,omitempty"`
}

// Orchestrator owns the RFQ state machine.
type Orchestrator struct {
	logger *zap.Logger
	client SupplierClient
	repo   store.Repository
	events publisher.EventSink
	policy retry.Policy
	now    func() time.Time
}

// Option customises an Orchestrator.
type Option func(*Orchestrator)

// WithClock overrides the deadline-validation clock.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// WithEventSink attaches a terminal-event sink.
func WithEventSink(sink publisher.EventSink) Option {
	return func(o *Orchestrator) { o.events = sink }
}

// New builds an orchestrator. policy governs supplier call retries; only
// transient transport failures are retried regardless of what the policy's
// own predicate says.
func New(logger *zap.Logger, client SupplierClient, repo store.Repository, policy retry.Policy, opts ...Option) *Orchestrator {
	policy.Retryable = a2a.IsTransient
	o := &Orchestrator{
		logger: logger,
		client: client,
		repo:   repo,
		policy: policy,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Submit runs one RFQ to a terminal outcome. The returned error is reserved
// for infrastructure faults (persistence); every supplier-side failure is a
// normal Result with a non-success outcome.
//
// Once the RFQ is persisted the outbound phase runs detached from the
// caller's cancellation: an accepted RFQ always reaches a terminal state,
// even if the submitting HTTP request goes away.
func (o *Orchestrator) Submit(ctx context.Context, rfq model.SubmitRFQ) (*Result, error) {
	if reason, ok := o.validate(rfq); !ok {
		metrics.IncOutcome(string(model.OutcomeValidationFailed))
		o.logger.Info("rfq.rejected", zap.String("reason", reason))
		return &Result{Outcome: model.OutcomeValidationFailed, Reason: reason}, nil
	}

	id, err := o.repo.SaveRFQ(ctx, rfq)
	if err != nil {
		metrics.IncError("store")
		o.logger.Error("rfq.persist_failed", zap.Error(err))
		return nil, err
	}
	o.logger.Info("rfq.accepted",
		zap.String("rfq_id", id),
		zap.Int("bom_lines", len(rfq.BOM)),
		zap.String("currency", string(rfq.Currency)))

	ctx = context.WithoutCancel(ctx)

	quote, err := o.callSupplier(ctx, id, rfq)
	if err != nil {
		outcome, reason := classify(err)
		o.recordFailure(ctx, id, outcome, reason)
		return &Result{RFQID: id, Outcome: outcome, Reason: reason}, nil
	}

	if err := o.repo.AttachQuote(ctx, id, quote); err != nil {
		// The quote arrived; losing the persistence write must not lose
		// the RFQ id or flip the outcome to a supplier failure. The
		// partial result rides along with the error.
		metrics.IncError("store")
		o.logger.Error("rfq.attach_quote_failed",
			zap.String("rfq_id", id),
			zap.Error(err))
		return &Result{RFQID: id, Outcome: model.OutcomeSuccess, Quote: quote}, err
	}

	metrics.IncOutcome(string(model.OutcomeSuccess))
	o.logger.Info("rfq.quoted",
		zap.String("rfq_id", id),
		zap.String("supplier_id", quote.SupplierID),
		zap.String("total_price", quote.TotalPrice.String()))

	if o.events != nil {
		if err := o.events.RFQQuoted(ctx, id, quote); err != nil {
			o.logger.Warn("rfq.event_publish_failed", zap.String("rfq_id", id), zap.Error(err))
		}
	}

	return &Result{RFQID: id, Outcome: model.OutcomeSuccess, Quote: quote}, nil
}

// Status returns the persisted record for a previously submitted RFQ.
func (o *Orchestrator) Status(ctx context.Context, id string) (*store.RFQRecord, error) {
	return o.repo.GetRFQ(ctx, id)
}

func (o *Orchestrator) callSupplier(ctx context.Context, id string, rfq model.SubmitRFQ) (*model.Quote, error) {
	var quote *model.Quote
	attempt := 0
	err := o.policy.Do(ctx, func() error {
		attempt++
		metrics.SupplierAttemptsTotal.Inc()
		q, err := o.client.Send(ctx, rfq)
		if err != nil {
			o.logger.Warn("rfq.supplier_attempt_failed",
				zap.String("rfq_id", id),
				zap.Int("attempt", attempt),
				zap.Error(err))
			return err
		}
		quote = q
		return nil
	})
	if err != nil {
		return nil, err
	}
	return quote, nil
}

func (o *Orchestrator) recordFailure(ctx context.Context, id string, outcome model.Outcome, reason string) {
	metrics.IncOutcome(string(outcome))
	o.logger.Warn("rfq.failed",
		zap.String("rfq_id", id),
		zap.String("outcome", string(outcome)),
		zap.String("reason", reason))

	if err := o.repo.AttachFailure(ctx, id, outcome, reason); err != nil {
		metrics.IncError("store")
		o.logger.Error("rfq.attach_failure_failed", zap.String("rfq_id", id), zap.Error(err))
	}
	if o.events != nil {
		if err := o.events.RFQFailed(ctx, id, outcome, reason); err != nil {
			o.logger.Warn("rfq.event_publish_failed", zap.String("rfq_id", id), zap.Error(err))
		}
	}
}

// validate layers the deadline rule on top of the structural checks: an RFQ
// whose deadline is already in the past cannot be quoted against.
func (o *Orchestrator) validate(rfq model.SubmitRFQ) (string, bool) {
	if err := rfq.Validate(); err != nil {
		return err.Error(), false
	}
	today := model.DateOf(o.now())
	if rfq.Deadline.Before(today.Time) {
		return "deadline has already passed", false
	}
	return "", true
}

func classify(err error) (model.Outcome, string) {
	if terr, ok := a2a.AsTransportError(err); ok {
		return terr.Outcome, terr.Reason
	}
	return model.OutcomeSupplierUnreachable, err.Error()
}
