package metrics

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type Metrics struct {
	Database *DatabaseMetrics
	HTTP     *HTTPMetrics
	Health   *HealthMetrics

	requestsSubmitted metric.Int64Counter
	paymentsSubmitted metric.Int64Counter
	statusUpdates     metric.Int64Counter
	requestsDeleted   metric.Int64Counter
	reportsGenerated  metric.Int64Counter
	loginAttempts     metric.Int64Counter
	eventsPublished   metric.Int64Counter
}

func New(meter metric.Meter) (*Metrics, error) {
	database, err := NewDatabaseMetrics(meter)
	if err != nil {
		return nil, err
	}

	httpMetrics, err := NewHTTPMetrics(meter)
	if err != nil {
		return nil, err
	}

	health, err := NewHealthMetrics(meter)
	if err != nil {
		return nil, err
	}

	m := &Metrics{Database: database, HTTP: httpMetrics, Health: health}

	m.requestsSubmitted, err = meter.Int64Counter(
		"academic_assist.requests.submitted",
		metric.WithDescription("Total number of assistance requests submitted"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	m.paymentsSubmitted, err = meter.Int64Counter(
		"academic_assist.payments.submitted",
		metric.WithDescription("Total number of proofs of payment attached to a request"),
		metric.WithUnit("{payment}"),
	)
	if err != nil {
		return nil, err
	}

	m.statusUpdates, err = meter.Int64Counter(
		"academic_assist.requests.status_updated",
		metric.WithDescription("Total number of admin status updates"),
		metric.WithUnit("{update}"),
	)
	if err != nil {
		return nil, err
	}

	m.requestsDeleted, err = meter.Int64Counter(
		"academic_assist.requests.deleted",
		metric.WithDescription("Total number of requests deleted by an admin"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	m.reportsGenerated, err = meter.Int64Counter(
		"academic_assist.reports.generated",
		metric.WithDescription("Total number of PDF reports generated"),
		metric.WithUnit("{report}"),
	)
	if err != nil {
		return nil, err
	}

	m.loginAttempts, err = meter.Int64Counter(
		"academic_assist.admin.login_attempts",
		metric.WithDescription("Admin login attempts by outcome"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		return nil, err
	}

	m.eventsPublished, err = meter.Int64Counter(
		"academic_assist.events.published",
		metric.WithDescription("Lifecycle events handed to the event publisher"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return nil, err
	}

	return m, nil
}

func (m *Metrics) RecordRequestSubmitted(ctx context.Context, category string) {
	if m != nil && m.requestsSubmitted != nil {
		m.requestsSubmitted.Add(ctx, 1, metric.WithAttributes(attribute.String("category", category)))
	}
}

func (m *Metrics) RecordPaymentSubmitted(ctx context.Context, category string) {
	if m != nil && m.paymentsSubmitted != nil {
		m.paymentsSubmitted.Add(ctx, 1, metric.WithAttributes(attribute.String("category", category)))
	}
}

func (m *Metrics) RecordStatusUpdated(ctx context.Context, category string) {
	if m != nil && m.statusUpdates != nil {
		m.statusUpdates.Add(ctx, 1, metric.WithAttributes(attribute.String("category", category)))
	}
}

func (m *Metrics) RecordRequestDeleted(ctx context.Context, category string) {
	if m != nil && m.requestsDeleted != nil {
		m.requestsDeleted.Add(ctx, 1, metric.WithAttributes(attribute.String("category", category)))
	}
}

func (m *Metrics) RecordReportGenerated(ctx context.Context, category string, bulk bool) {
	if m != nil && m.reportsGenerated != nil {
		m.reportsGenerated.Add(ctx, 1, metric.WithAttributes(
			attribute.String("category", category),
			attribute.Bool("bulk", bulk),
		))
	}
}

func (m *Metrics) RecordLogin(ctx context.Context, success bool) {
	if m != nil && m.loginAttempts != nil {
		m.loginAttempts.Add(ctx, 1, metric.WithAttributes(attribute.Bool("success", success)))
	}
}

func (m *Metrics) RecordEventPublished(ctx context.Context, eventType string, err error) {
	if m != nil && m.eventsPublished != nil {
		m.eventsPublished.Add(ctx, 1, metric.WithAttributes(
			attribute.String("type", eventType),
			attribute.Bool("failed", err != nil),
		))
	}
}

// NewMock creates a no-op Metrics instance for testing
// The returned Metrics will safely ignore all Record* calls
func NewMock() *Metrics {
	return &Metrics{
		Database: &DatabaseMetrics{},
		HTTP:     &HTTPMetrics{},
		Health:   &HealthMetrics{dependencies: make(map[string]bool)},
	}
}
