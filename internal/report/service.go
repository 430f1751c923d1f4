package report

import (
	"context"
	"log/slog"
	"time"

	"academic-assist/internal/metrics"
	"academic-assist/internal/request"
)

// Source is the read side of request.Service reports are built from.
type Source interface {
	Get(ctx context.Context, category request.Category, id int64) (*request.Request, error)
	List(ctx context.Context, category request.Category) ([]request.Request, error)
}

// File is a rendered report ready to be served.
type File struct {
	Name string
	Body []byte
}

type Service struct {
	source   Source
	renderer *Renderer
	metrics  *metrics.Metrics
	logger   *slog.Logger
	now      func() time.Time
}

type Option func(*Service)

// WithClock sets the source of the "Generated on" timestamp.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func NewService(source Source, renderer *Renderer, m *metrics.Metrics, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		source:   source,
		renderer: renderer,
		metrics:  m,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Single(ctx context.Context, category request.Category, id int64) (*File, error) {
	req, err := s.source.Get(ctx, category, id)
	if err != nil {
		return nil, err
	}

	body, err := s.renderer.Render(Single(*req))
	if err != nil {
		return nil, err
	}

	s.metrics.RecordReportGenerated(ctx, string(category), false)
	s.logger.InfoContext(ctx, "report generated", "category", category, "id", id, "bytes", len(body))
	return &File{Name: SingleFilename(category, id), Body: body}, nil
}

func (s *Service) Bulk(ctx context.Context, category request.Category) (*File, error) {
	list, err := s.source.List(ctx, category)
	if err != nil {
		return nil, err
	}

	body, err := s.renderer.Render(Bulk(category, list, s.now()))
	if err != nil {
		return nil, err
	}

	s.metrics.RecordReportGenerated(ctx, string(category), true)
	s.logger.InfoContext(ctx, "bulk report generated", "category", category, "rows", len(list), "bytes", len(body))
	return &File{Name: BulkFilename(category), Body: body}, nil
}
