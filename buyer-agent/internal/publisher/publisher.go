// Package publisher emits terminal RFQ events to NATS JetStream for
// downstream consumers (audit, analytics, notifications).
package publisher

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/partsgrid/agents/pkg/model"

	"github.com/partsgrid/agents/buyer-agent/internal/metrics"
)

const (
	SubjectRFQQuoted = "evt.rfq.quoted.v1"
	SubjectRFQFailed = "evt.rfq.failed.v1"
)

// EventSink receives terminal RFQ events. A nil *Publisher is a valid sink
// that drops everything, so event publishing stays optional in local runs.
type EventSink interface {
	RFQQuoted(ctx context.Context, rfqID string, quote *model.Quote) error
	RFQFailed(ctx context.Context, rfqID string, outcome model.Outcome, reason string) error
}

// jetStream is the slice of nats.JetStreamContext the publisher uses.
type jetStream interface {
	PublishMsg(msg *nats.Msg, opts ...nats.PubOpt) (*nats.PubAck, error)
}

// Publisher wraps a NATS connection and publishes canonical event envelopes.
type Publisher struct {
	nc      *nats.Conn
	js      jetStream
	service string
	logger  *zap.Logger
}

// New creates a Publisher with JetStream enabled.
func New(nc *nats.Conn, service string, logger *zap.Logger) (*Publisher, error) {
	js, err := nc.JetStream()
	if err != nil {
		return nil, err
	}
	return &Publisher{nc: nc, js: js, service: service, logger: logger}, nil
}

// RFQQuoted emits an evt.rfq.quoted event.
func (p *Publisher) RFQQuoted(ctx context.Context, rfqID string, quote *model.Quote) error {
	if p == nil {
		return nil
	}
	payload, err := json.Marshal(model.RFQQuotedEvent{
		RFQID:      rfqID,
		SupplierID: quote.SupplierID,
		Quote:      *quote,
	})
	if err != nil {
		return err
	}
	return p.publish(ctx, SubjectRFQQuoted, "rfq.quoted", payload)
}

// RFQFailed emits an evt.rfq.failed event.
func (p *Publisher) RFQFailed(ctx context.Context, rfqID string, outcome model.Outcome, reason string) error {
	if p == nil {
		return nil
	}
	payload, err := json.Marshal(model.RFQFailedEvent{
		RFQID:   rfqID,
		Outcome: outcome,
		Reason:  reason,
	})
	if err != nil {
		return err
	}
	return p.publish(ctx, SubjectRFQFailed, "rfq.failed", payload)
}

func (p *Publisher) publish(_ context.Context, subject, eventType string, payload json.RawMessage) error {
	env := &model.Envelope{
		ID:            uuid.New(),
		CorrelationID: uuid.New(),
		EventType:     eventType,
		Version:       "1.0.0",
		Timestamp:     time.Now().UTC(),
		Payload:       payload,
	}
	data, err := json.Marshal(env)
	if err != nil {
		metrics.IncError("publisher")
		return err
	}

	msg := &nats.Msg{
		Subject: subject,
		Data:    data,
		Header: nats.Header{
			"event_type":     []string{eventType},
			"correlation_id": []string{env.CorrelationID.String()},
			"service":        []string{p.service},
			"content_type":   []string{"application/json"},
		},
	}

	if _, err := p.js.PublishMsg(msg); err != nil {
		p.logger.Error("publisher.publish_failed",
			zap.String("subject", subject),
			zap.String("event_type", eventType),
			zap.Error(err))
		metrics.IncError("publisher")
		return err
	}

	p.logger.Debug("publisher.publish_success",
		zap.String("subject", subject),
		zap.String("event_type", eventType))
	return nil
}

func (p *Publisher) Close() {
	if p != nil && p.nc != nil && p.nc.IsConnected() {
		p.nc.Close()
	}
}
