package metrics

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Dependency names probed by the readiness check.
const (
	DependencyDatabase = "database"
	DependencyStorage  = "storage"
)

// HealthMetrics tracks the last readiness probe of each dependency.
type HealthMetrics struct {
	dependencyUp  metric.Int64ObservableGauge
	checkDuration metric.Float64Histogram
	serviceInfo   metric.Int64ObservableGauge

	mu           sync.RWMutex
	dependencies map[string]bool
}

func NewHealthMetrics(meter metric.Meter) (*HealthMetrics, error) {
	hm := &HealthMetrics{dependencies: make(map[string]bool)}

	var err error
	hm.dependencyUp, err = meter.Int64ObservableGauge(
		"dependency.up",
		metric.WithDescription("Dependency availability at the last readiness probe (1=up, 0=down)"),
		metric.WithUnit("{status}"),
	)
	if err != nil {
		return nil, err
	}

	hm.checkDuration, err = meter.Float64Histogram(
		"dependency.check_duration",
		metric.WithDescription("Readiness probe duration per dependency"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5),
	)
	if err != nil {
		return nil, err
	}

	hm.serviceInfo, err = meter.Int64ObservableGauge(
		"service.info",
		metric.WithDescription("Service metadata, always 1"),
		metric.WithUnit("{info}"),
	)
	if err != nil {
		return nil, err
	}

	return hm, nil
}

// Register starts reporting the service info gauge and the up gauge of deps.
func (hm *HealthMetrics) Register(meter metric.Meter, serviceName, version, env string, deps ...string) error {
	if hm == nil || hm.dependencyUp == nil {
		return nil
	}

	hm.mu.Lock()
	for _, dep := range deps {
		hm.dependencies[dep] = false
	}
	hm.mu.Unlock()

	info := metric.WithAttributes(
		attribute.String("service_name", serviceName),
		attribute.String("version", version),
		attribute.String("environment", env),
	)

	_, err := meter.RegisterCallback(
		func(ctx context.Context, observer metric.Observer) error {
			observer.ObserveInt64(hm.serviceInfo, 1, info)

			hm.mu.RLock()
			defer hm.mu.RUnlock()
			for name, up := range hm.dependencies {
				value := int64(0)
				if up {
					value = 1
				}
				observer.ObserveInt64(hm.dependencyUp, value, metric.WithAttributes(attribute.String("dependency", name)))
			}
			return nil
		},
		hm.serviceInfo, hm.dependencyUp,
	)
	return err
}

func (hm *HealthMetrics) RecordCheck(ctx context.Context, dependency string, duration time.Duration, err error) {
	if hm == nil || hm.checkDuration == nil {
		return
	}

	hm.checkDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("dependency", dependency),
		attribute.Bool("failed", err != nil),
	))

	hm.mu.Lock()
	hm.dependencies[dependency] = err == nil
	hm.mu.Unlock()
}
