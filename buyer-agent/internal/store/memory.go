package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/partsgrid/agents/pkg/model"
)

// Memory is an in-process Repository for tests and local runs without
// Postgres or Redis.
type Memory struct {
	mu      sync.RWMutex
	records map[string]*RFQRecord
	now     func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		records: make(map[string]*RFQRecord),
		now:     time.Now,
	}
}

func (m *Memory) SaveRFQ(_ context.Context, rfq model.SubmitRFQ) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := uuid.NewString()
	now := m.now().UTC()
	m.records[id] = &RFQRecord{
		ID:        id,
		RFQ:       rfq,
		Status:    model.RFQProcessing,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return id, nil
}

func (m *Memory) AttachQuote(_ context.Context, id string, quote *model.Quote) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[id]
	if !ok {
		return ErrNotFound
	}
	if rec.Quote != nil {
		return nil // first quote wins
	}
	rec.Quote = quote
	rec.Status = model.RFQQuoted
	rec.Outcome = model.OutcomeSuccess
	rec.Reason = ""
	rec.UpdatedAt = m.now().UTC()
	return nil
}

func (m *Memory) AttachFailure(_ context.Context, id string, outcome model.Outcome, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[id]
	if !ok {
		return ErrNotFound
	}
	if rec.Quote != nil {
		return nil
	}
	rec.Status = model.RFQFailed
	rec.Outcome = outcome
	rec.Reason = reason
	rec.UpdatedAt = m.now().UTC()
	return nil
}

func (m *Memory) GetRFQ(_ context.Context, id string) (*RFQRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (m *Memory) HealthCheck(context.Context) error { return nil }

func (m *Memory) Close() error { return nil }
