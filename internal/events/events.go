package events

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"academic-assist/internal/config"
)

// Lifecycle event types.
const (
	TypeSubmitted        = "request.submitted"
	TypePaymentSubmitted = "request.payment_submitted"
	TypeStatusUpdated    = "request.status_updated"
	TypeDeleted          = "request.deleted"
)

// Event describes a committed change to a request record.
type Event struct {
	Type       string    `json:"type"`
	Category   string    `json:"category"`
	RequestID  int64     `json:"request_id"`
	Status     string    `json:"status,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Key groups events of one record on the same partition.
func (e Event) Key() string {
	return fmt.Sprintf("%s-%d", e.Category, e.RequestID)
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// Noop drops every event.
type Noop struct{}

func (Noop) Publish(ctx context.Context, event Event) error { return nil }
func (Noop) Close() error                                   { return nil }

// New builds the publisher selected by cfg.Driver. A broker that cannot be
// reached at startup degrades to Noop so intake keeps working.
func New(cfg config.EventsConfig, logger *slog.Logger) Publisher {
	switch cfg.Driver {
	case "nats":
		p, err := NewNATSPublisher(cfg.NATSURL, cfg.Subject, logger)
		if err != nil {
			logger.Warn("failed to initialize NATS publisher", "error", err)
			return Noop{}
		}
		return p
	case "kafka":
		p, err := NewKafkaPublisher(cfg.KafkaBrokers, cfg.Topic, logger)
		if err != nil {
			logger.Warn("failed to initialize kafka publisher", "error", err)
			return Noop{}
		}
		return p
	case "", "none":
		return Noop{}
	default:
		logger.Warn("unknown events driver, events disabled", "driver", cfg.Driver)
		return Noop{}
	}
}
