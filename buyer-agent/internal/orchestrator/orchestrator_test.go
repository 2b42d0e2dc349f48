package orchestrator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/partsgrid/agents/internal/retry"
	"github.com/partsgrid/agents/pkg/model"

	"github.com/partsgrid/agents/buyer-agent/internal/a2a"
	"github.com/partsgrid/agents/buyer-agent/internal/store"
)

var fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

type mockClient struct {
	send  func(ctx context.Context, rfq model.SubmitRFQ) (*model.Quote, error)
	calls int
}

func (m *mockClient) Send(ctx context.Context, rfq model.SubmitRFQ) (*model.Quote, error) {
	m.calls++
	return m.send(ctx, rfq)
}

// spyRepo records the order of persistence calls around the supplier call.
type spyRepo struct {
	store.Repository
	mu             sync.Mutex
	ops            []string
	attachQuoteErr error
}

func (s *spyRepo) record(op string) {
	s.mu.Lock()
	s.ops = append(s.ops, op)
	s.mu.Unlock()
}

func (s *spyRepo) SaveRFQ(ctx context.Context, rfq model.SubmitRFQ) (string, error) {
	s.record("SaveRFQ")
	return s.Repository.SaveRFQ(ctx, rfq)
}

func (s *spyRepo) AttachQuote(ctx context.Context, id string, q *model.Quote) error {
	s.record("AttachQuote")
	if s.attachQuoteErr != nil {
		return s.attachQuoteErr
	}
	return s.Repository.AttachQuote(ctx, id, q)
}

func (s *spyRepo) AttachFailure(ctx context.Context, id string, outcome model.Outcome, reason string) error {
	s.record("AttachFailure")
	return s.Repository.AttachFailure(ctx, id, outcome, reason)
}

type spySink struct {
	quoted []string
	failed []model.Outcome
}

func (s *spySink) RFQQuoted(_ context.Context, rfqID string, _ *model.Quote) error {
	s.quoted = append(s.quoted, rfqID)
	return nil
}

func (s *spySink) RFQFailed(_ context.Context, _ string, outcome model.Outcome, _ string) error {
	s.failed = append(s.failed, outcome)
	return nil
}

func validRFQ() model.SubmitRFQ {
	return model.SubmitRFQ{
		BOM:      []model.BOMItem{{PartNumber: "PN-001", Qty: 2}},
		Currency: model.USD,
		Deadline: model.DateOf(fixedNow.AddDate(0, 0, 14)),
	}
}

func quoteFor(rfq model.SubmitRFQ) *model.Quote {
	q := &model.Quote{
		RFQID:      "SQ-RFQ-deadbeef",
		SupplierID: "supplier-quoter/partsgrid-v1",
		Currency:   rfq.Currency,
		ValidUntil: model.DateOf(fixedNow.AddDate(0, 0, 7)),
	}
	for _, line := range rfq.BOM {
		q.Items = append(q.Items, model.QuotedItem{
			PartNumber:   line.PartNumber,
			Quantity:     line.Qty,
			UnitPrice:    decimal.RequireFromString("10.50"),
			LeadTimeDays: 3,
		})
	}
	q.TotalPrice = q.Sum()
	return q
}

// testPolicy retries up to maxAttempts with recorded, not slept, delays.
func testPolicy(maxAttempts int, delays *[]time.Duration) retry.Policy {
	return retry.Policy{
		MaxAttempts: maxAttempts,
		Backoff:     retry.ExponentialBackoff(100 * time.Millisecond),
		Sleep: func(_ context.Context, d time.Duration) error {
			*delays = append(*delays, d)
			return nil
		},
	}
}

func newOrch(client SupplierClient, repo store.Repository, policy retry.Policy, opts ...Option) *Orchestrator {
	opts = append(opts, WithClock(func() time.Time { return fixedNow }))
	return New(zap.NewNop(), client, repo, policy, opts...)
}

func TestSubmitSuccess(t *testing.T) {
	rfq := validRFQ()
	client := &mockClient{send: func(_ context.Context, r model.SubmitRFQ) (*model.Quote, error) {
		return quoteFor(r), nil
	}}
	repo := &spyRepo{Repository: store.NewMemory()}
	sink := &spySink{}

	var delays []time.Duration
	o := newOrch(client, repo, testPolicy(3, &delays), WithEventSink(sink))

	res, err := o.Submit(context.Background(), rfq)
	require.NoError(t, err)
	assert.Equal(t, model.OutcomeSuccess, res.Outcome)
	assert.NotEmpty(t, res.RFQID)
	require.NotNil(t, res.Quote)
	assert.True(t, res.Quote.TotalPrice.Equal(decimal.RequireFromString("21.00")))

	assert.Equal(t, 1, client.calls)
	assert.Empty(t, delays)
	assert.Equal(t, []string{"SaveRFQ", "AttachQuote"}, repo.ops)
	assert.Equal(t, []string{res.RFQID}, sink.quoted)

	rec, err := o.Status(context.Background(), res.RFQID)
	require.NoError(t, err)
	assert.Equal(t, model.RFQQuoted, rec.Status)
}

func TestSubmitValidationFailureSkipsTransport(t *testing.T) {
	client := &mockClient{send: func(context.Context, model.SubmitRFQ) (*model.Quote, error) {
		t.Fatal("supplier must not be called for an invalid RFQ")
		return nil, nil
	}}
	repo := &spyRepo{Repository: store.NewMemory()}

	var delays []time.Duration
	o := newOrch(client, repo, testPolicy(3, &delays))

	rfq := validRFQ()
	rfq.BOM = nil

	res, err := o.Submit(context.Background(), rfq)
	require.NoError(t, err)
	assert.Equal(t, model.OutcomeValidationFailed, res.Outcome)
	assert.Empty(t, res.RFQID)
	assert.Empty(t, repo.ops, "an invalid RFQ is never persisted")
}

func TestSubmitRejectsPastDeadline(t *testing.T) {
	client := &mockClient{send: func(context.Context, model.SubmitRFQ) (*model.Quote, error) {
		return nil, nil
	}}
	var delays []time.Duration
	o := newOrch(client, store.NewMemory(), testPolicy(1, &delays))

	rfq := validRFQ()
	rfq.Deadline = model.DateOf(fixedNow.AddDate(0, 0, -1))

	res, err := o.Submit(context.Background(), rfq)
	require.NoError(t, err)
	assert.Equal(t, model.OutcomeValidationFailed, res.Outcome)
	assert.Equal(t, 0, client.calls)
}

func TestSubmitAcceptsDeadlineToday(t *testing.T) {
	client := &mockClient{send: func(_ context.Context, r model.SubmitRFQ) (*model.Quote, error) {
		return quoteFor(r), nil
	}}
	var delays []time.Duration
	o := newOrch(client, store.NewMemory(), testPolicy(1, &delays))

	rfq := validRFQ()
	rfq.Deadline = model.DateOf(fixedNow)

	res, err := o.Submit(context.Background(), rfq)
	require.NoError(t, err)
	assert.Equal(t, model.OutcomeSuccess, res.Outcome)
}

func TestSubmitRetriesTransientFailures(t *testing.T) {
	rfq := validRFQ()
	client := &mockClient{send: func(context.Context, model.SubmitRFQ) (*model.Quote, error) {
		return nil, &a2a.TransportError{Outcome: model.OutcomeSupplierTimeout, Reason: "no response"}
	}}
	repo := &spyRepo{Repository: store.NewMemory()}
	sink := &spySink{}

	var delays []time.Duration
	o := newOrch(client, repo, testPolicy(3, &delays), WithEventSink(sink))

	res, err := o.Submit(context.Background(), rfq)
	require.NoError(t, err)
	assert.Equal(t, model.OutcomeSupplierTimeout, res.Outcome)
	assert.NotEmpty(t, res.RFQID)
	assert.Nil(t, res.Quote)

	assert.Equal(t, 3, client.calls)
	assert.Equal(t, []time.Duration{100 * time.Millisecond, 200 * time.Millisecond}, delays)
	assert.Equal(t, []string{"SaveRFQ", "AttachFailure"}, repo.ops)
	assert.Equal(t, []model.Outcome{model.OutcomeSupplierTimeout}, sink.failed)

	rec, err := o.Status(context.Background(), res.RFQID)
	require.NoError(t, err)
	assert.Equal(t, model.RFQFailed, rec.Status)
	assert.Equal(t, "no response", rec.Reason)
}

func TestSubmitRecoversWithinBudget(t *testing.T) {
	rfq := validRFQ()
	client := &mockClient{}
	client.send = func(_ context.Context, r model.SubmitRFQ) (*model.Quote, error) {
		if client.calls < 3 {
			return nil, &a2a.TransportError{Outcome: model.OutcomeSupplierUnreachable, Reason: "connection refused"}
		}
		return quoteFor(r), nil
	}

	var delays []time.Duration
	o := newOrch(client, store.NewMemory(), testPolicy(3, &delays))

	res, err := o.Submit(context.Background(), rfq)
	require.NoError(t, err)
	assert.Equal(t, model.OutcomeSuccess, res.Outcome)
	assert.Equal(t, 3, client.calls)
}

func TestSubmitNeverRetriesInvalidResponse(t *testing.T) {
	rfq := validRFQ()
	client := &mockClient{send: func(context.Context, model.SubmitRFQ) (*model.Quote, error) {
		return nil, &a2a.TransportError{Outcome: model.OutcomeSupplierInvalidResponse, Reason: "currency mismatch"}
	}}

	var delays []time.Duration
	o := newOrch(client, store.NewMemory(), testPolicy(5, &delays))

	res, err := o.Submit(context.Background(), rfq)
	require.NoError(t, err)
	assert.Equal(t, model.OutcomeSupplierInvalidResponse, res.Outcome)
	assert.Equal(t, "currency mismatch", res.Reason)
	assert.Equal(t, 1, client.calls, "a contract violation is not transient")
	assert.Empty(t, delays)
}

func TestSubmitAttachQuoteFailureKeepsRFQID(t *testing.T) {
	rfq := validRFQ()
	client := &mockClient{send: func(_ context.Context, r model.SubmitRFQ) (*model.Quote, error) {
		return quoteFor(r), nil
	}}
	repo := &spyRepo{Repository: store.NewMemory(), attachQuoteErr: errors.New("pg down")}

	var delays []time.Duration
	o := newOrch(client, repo, testPolicy(1, &delays))

	res, err := o.Submit(context.Background(), rfq)
	require.Error(t, err)
	require.NotNil(t, res)
	assert.NotEmpty(t, res.RFQID)
	assert.NotNil(t, res.Quote)
}

func TestSubmitSurvivesCallerCancellation(t *testing.T) {
	rfq := validRFQ()
	client := &mockClient{send: func(ctx context.Context, r model.SubmitRFQ) (*model.Quote, error) {
		require.NoError(t, ctx.Err(), "outbound phase must not inherit caller cancellation")
		return quoteFor(r), nil
	}}
	var delays []time.Duration
	o := newOrch(client, store.NewMemory(), testPolicy(1, &delays))

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // caller goes away before the supplier call

	res, err := o.Submit(ctx, rfq)
	require.NoError(t, err)
	assert.Equal(t, model.OutcomeSuccess, res.Outcome)
}
