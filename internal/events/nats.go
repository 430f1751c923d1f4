package events

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/nats-io/nats.go"
)

type NATSPublisher struct {
	conn    *nats.Conn
	subject string
	logger  *slog.Logger
}

func NewNATSPublisher(url string, subject string, logger *slog.Logger) (*NATSPublisher, error) {
	nc, err := nats.Connect(url, nats.Name("academic-assist"))
	if err != nil {
		return nil, err
	}

	logger.Info("NATS publisher initialized", "url", url, "subject", subject)

	return &NATSPublisher{
		conn:    nc,
		subject: subject,
		logger:  logger,
	}, nil
}

// Publish sends the event on "<subject>.<category>".
func (p *NATSPublisher) Publish(ctx context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		p.logger.ErrorContext(ctx, "failed to marshal event", "error", err)
		return err
	}

	subject := p.subject + "." + event.Category
	if err := p.conn.Publish(subject, data); err != nil {
		p.logger.ErrorContext(ctx, "failed to send event to NATS", "error", err)
		return err
	}

	p.logger.DebugContext(ctx, "event sent to NATS", "subject", subject, "type", event.Type)
	return nil
}

func (p *NATSPublisher) Close() error {
	return p.conn.Drain()
}
