// Package eventbus publishes domain events to NATS.
package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/richxcame/ride-sharing/pkg/logger"
	"go.uber.org/zap"
)

// Subjects published by the engine
const (
	SubjectRideCreated      = "rides.created"
	SubjectRideStarted      = "rides.started"
	SubjectRideCompleted    = "rides.completed"
	SubjectRideCancelled    = "rides.cancelled"
	SubjectBookingCreated   = "bookings.created"
	SubjectBookingCancelled = "bookings.cancelled"
	SubjectReviewSubmitted  = "reviews.submitted"
)

// Event is the envelope of every message on the bus
type Event struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Source        string          `json:"source"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Timestamp     time.Time       `json:"timestamp"`
	Data          json.RawMessage `json:"data"`
}

// NewEvent wraps data in an Event
func NewEvent(ctx context.Context, eventType, source string, data interface{}) (*Event, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return &Event{
		ID:            uuid.NewString(),
		Type:          eventType,
		Source:        source,
		CorrelationID: logger.CorrelationIDFromContext(ctx),
		Timestamp:     time.Now().UTC(),
		Data:          raw,
	}, nil
}

// Publisher publishes events. Services depend on this rather than on Bus.
type Publisher interface {
	Publish(ctx context.Context, subject string, event *Event) error
}

// Bus is a NATS-backed Publisher
type Bus struct {
	conn *nats.Conn
}

// Connect dials NATS and returns a Bus
func Connect(url, name string) (*Bus, error) {
	conn, err := nats.Connect(url,
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("eventbus: disconnected from NATS", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("eventbus: reconnected to NATS", zap.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}
	return &Bus{conn: conn}, nil
}

// Conn exposes the underlying connection for health checks
func (b *Bus) Conn() *nats.Conn {
	return b.conn
}

// Publish serializes event and publishes it on subject
func (b *Bus) Publish(ctx context.Context, subject string, event *Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	raw, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := b.conn.Publish(subject, raw); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}

// Close drains pending messages and closes the connection
func (b *Bus) Close() {
	if b == nil || b.conn == nil {
		return
	}
	if err := b.conn.Drain(); err != nil {
		logger.Warn("eventbus: drain failed", zap.Error(err))
		b.conn.Close()
	}
}

// Noop discards every event. Used when NATS is disabled.
type Noop struct{}

// Publish implements Publisher
func (Noop) Publish(context.Context, string, *Event) error { return nil }
