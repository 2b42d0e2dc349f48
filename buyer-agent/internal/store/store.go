// Package store persists RFQ records and their outcomes. Postgres is the
// system of record; Redis fronts reads with a short-lived cache.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/partsgrid/agents/pkg/model"
)

// ErrNotFound is returned when no RFQ record exists for an id.
var ErrNotFound = errors.New("rfq not found")

// RFQRecord is the persisted lifecycle of one RFQ submission. An RFQ record
// carries at most one quote; re-submitting the same BOM creates a new record.
type RFQRecord struct {
	ID        string          `json:"id"`
	RFQ       model.SubmitRFQ `json:"rfq"`
	Status    model.RFQStatus `json:"status"`
	Outcome   model.Outcome   `json:"outcome,omitempty"`
	Reason    string          `json:"reason,omitempty"`
	Quote     *model.Quote    `json:"quote,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// Repository is the contract for RFQ persistence.
type Repository interface {
	// SaveRFQ creates a new record in PROCESSING state and returns its id.
	SaveRFQ(ctx context.Context, rfq model.SubmitRFQ) (string, error)

	// AttachQuote records the quote and moves the record to QUOTED.
	// Attaching a second quote to the same RFQ is a silent no-op; the
	// first quote wins.
	AttachQuote(ctx context.Context, id string, quote *model.Quote) error

	// AttachFailure records a terminal failure and moves the record to
	// FAILED, unless a quote was already attached.
	AttachFailure(ctx context.Context, id string, outcome model.Outcome, reason string) error

	// GetRFQ returns the record for id, or ErrNotFound.
	GetRFQ(ctx context.Context, id string) (*RFQRecord, error)

	HealthCheck(ctx context.Context) error
	Close() error
}
