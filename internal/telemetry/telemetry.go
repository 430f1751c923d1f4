package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// InitMeterProvider installs a global meter provider that pushes to an OTLP
// collector. An empty endpoint leaves the global no-op provider in place and
// returns nil.
func InitMeterProvider(ctx context.Context, endpoint, serviceName, serviceVersion string, logger *slog.Logger) (*metric.MeterProvider, error) {
	if endpoint == "" {
		logger.Info("OTLP endpoint not configured, metrics stay in-process")
		return nil, nil
	}

	logger.Info("initializing OTel metrics", "endpoint", endpoint)

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(serviceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	metricExporter, err := otlpmetricgrpc.New(ctx,
		otlpmetricgrpc.WithEndpoint(endpoint),
		otlpmetricgrpc.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create metric exporter: %w", err)
	}

	meterProvider := metric.NewMeterProvider(
		metric.WithResource(res),
		metric.WithReader(metric.NewPeriodicReader(metricExporter,
			metric.WithInterval(10*time.Second))),
	)

	otel.SetMeterProvider(meterProvider)
	logger.Info("OTel metrics initialized successfully")

	return meterProvider, nil
}

func Shutdown(ctx context.Context, meterProvider *metric.MeterProvider, logger *slog.Logger) error {
	if meterProvider == nil {
		return nil
	}
	logger.Info("shutting down OTel meter provider")
	if err := meterProvider.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown meter provider: %w", err)
	}
	return nil
}
