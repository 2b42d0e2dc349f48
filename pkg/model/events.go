package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Envelope is the canonical event wrapper published to NATS when an RFQ
// reaches a terminal state.
type Envelope struct {
	ID            uuid.UUID       `json:"id"`
	CorrelationID uuid.UUID       `json:"correlation_id"`
	EventType     string          `json:"event_type"`
	Version       string          `json:"version"`
	Timestamp     time.Time       `json:"timestamp"`
	Payload       json.RawMessage `json:"payload,omitempty"`
}

// Event payloads.

// RFQQuotedEvent is emitted when a quote was received and persisted.
type RFQQuotedEvent struct {
	RFQID      string `json:"rfqId"`
	SupplierID string `json:"supplierId"`
	Quote      Quote  `json:"quote"`
}

// RFQFailedEvent is emitted when an RFQ reached a terminal failure.
type RFQFailedEvent struct {
	RFQID   string  `json:"rfqId"`
	Outcome Outcome `json:"outcome"`
	Reason  string  `json:"reason"`
}
