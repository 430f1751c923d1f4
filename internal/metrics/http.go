package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// HTTPMetrics records latency, traffic, errors and saturation per route.
type HTTPMetrics struct {
	requestDuration metric.Float64Histogram
	requestsTotal   metric.Int64Counter
	errorsTotal     metric.Int64Counter
	activeRequests  metric.Int64UpDownCounter
}

func NewHTTPMetrics(meter metric.Meter) (*HTTPMetrics, error) {
	hm := &HTTPMetrics{}

	var err error
	hm.requestDuration, err = meter.Float64Histogram(
		"http.server.request_duration",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10),
	)
	if err != nil {
		return nil, err
	}

	hm.requestsTotal, err = meter.Int64Counter(
		"http.server.requests_total",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	hm.errorsTotal, err = meter.Int64Counter(
		"http.server.errors_total",
		metric.WithDescription("HTTP responses with a 5xx status"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	hm.activeRequests, err = meter.Int64UpDownCounter(
		"http.server.active_requests",
		metric.WithDescription("Number of in-flight HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	return hm, nil
}

func (hm *HTTPMetrics) RecordRequest(ctx context.Context, method, route string, status int, duration time.Duration) {
	if hm == nil || hm.requestDuration == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String("http_method", method),
		attribute.String("http_route", route),
		attribute.String("http_status", strconv.Itoa(status)),
	)
	hm.requestDuration.Record(ctx, duration.Seconds(), attrs)
	hm.requestsTotal.Add(ctx, 1, attrs)
	if status >= http.StatusInternalServerError {
		hm.errorsTotal.Add(ctx, 1, attrs)
	}
}

// Middleware records every request under its chi route pattern so ids in the
// path do not explode cardinality.
func (hm *HTTPMetrics) Middleware(next http.Handler) http.Handler {
	if hm == nil || hm.requestDuration == nil {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		hm.activeRequests.Add(ctx, 1)
		defer hm.activeRequests.Add(ctx, -1)

		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(ctx); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		hm.RecordRequest(ctx, r.Method, route, status, time.Since(start))
	})
}
