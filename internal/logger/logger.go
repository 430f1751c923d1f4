package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"go.opentelemetry.io/otel/trace"
)

// New builds the portal logger for the given environment.
// Containers and prod/dev get JSON for log aggregation, everything else gets
// colored text. Both are wrapped so records carry trace_id/span_id when a span
// is active on the context.
func New(w io.Writer, env string) *slog.Logger {
	_, inK8s := os.LookupEnv("KUBERNETES_SERVICE_HOST")
	useJSON := inK8s || env == "prod" || env == "production" || env == "dev"

	var handler slog.Handler
	if useJSON {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level:     levelFromEnv(slog.LevelInfo),
			AddSource: true,
		})
	} else {
		handler = newColorTextHandler(w, &slog.HandlerOptions{
			Level: levelFromEnv(slog.LevelDebug),
		})
	}
	return slog.New(newTraceContextHandler(handler))
}

func NewWithServiceContext(serviceName, version, env string) *slog.Logger {
	return New(os.Stdout, env).With(
		slog.String("service", serviceName),
		slog.String("version", version),
		slog.String("environment", env),
	)
}

// Discard is used by tests that do not care about log output.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func levelFromEnv(fallback slog.Level) slog.Level {
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return fallback
}

// colorTextHandler paints ERROR messages red
type colorTextHandler struct {
	handler slog.Handler
}

func newColorTextHandler(w io.Writer, opts *slog.HandlerOptions) *colorTextHandler {
	return &colorTextHandler{
		handler: slog.NewTextHandler(w, opts),
	}
}

func (h *colorTextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

func (h *colorTextHandler) Handle(ctx context.Context, r slog.Record) error {
	if r.Level < slog.LevelError {
		return h.handler.Handle(ctx, r)
	}

	colored := slog.NewRecord(r.Time, r.Level, fmt.Sprintf("\x1b[31m%s\x1b[0m", r.Message), r.PC)
	r.Attrs(func(a slog.Attr) bool {
		colored.AddAttrs(a)
		return true
	})
	return h.handler.Handle(ctx, colored)
}

func (h *colorTextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &colorTextHandler{handler: h.handler.WithAttrs(attrs)}
}

func (h *colorTextHandler) WithGroup(name string) slog.Handler {
	return &colorTextHandler{handler: h.handler.WithGroup(name)}
}

// traceContextHandler adds trace_id and span_id from the OTel span on ctx
type traceContextHandler struct {
	handler slog.Handler
}

func newTraceContextHandler(h slog.Handler) *traceContextHandler {
	return &traceContextHandler{handler: h}
}

func (h *traceContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

func (h *traceContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if spanCtx := trace.SpanContextFromContext(ctx); spanCtx.IsValid() {
		r.AddAttrs(
			slog.String("trace_id", spanCtx.TraceID().String()),
			slog.String("span_id", spanCtx.SpanID().String()),
		)
	}
	return h.handler.Handle(ctx, r)
}

func (h *traceContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &traceContextHandler{handler: h.handler.WithAttrs(attrs)}
}

func (h *traceContextHandler) WithGroup(name string) slog.Handler {
	return &traceContextHandler{handler: h.handler.WithGroup(name)}
}
