package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"academic-assist/internal/request"
	"academic-assist/internal/upload"
)

// Lister is the read side of request.Service the dashboard needs.
type Lister interface {
	List(ctx context.Context, category request.Category) ([]request.Request, error)
}

// Entry is one request row plus what the storage probe found.
type Entry struct {
	request.Request
	FileExists    bool `json:"fileExists"`
	PaymentExists bool `json:"paymentExists"`
	Expired       bool `json:"expired"`
}

type Section struct {
	Category request.Category `json:"category"`
	Title    string           `json:"title"`
	Entries  []Entry          `json:"entries"`
	Total    int              `json:"total"`
	Active   int              `json:"active"`
	Expired  int              `json:"expired"`
}

type Overview struct {
	Sections        []Section `json:"sections"`
	PendingPayments int       `json:"pendingPayments"`
	TotalRequests   int       `json:"totalRequests"`
	TotalActive     int       `json:"totalActive"`
	TotalExpired    int       `json:"totalExpired"`
	GeneratedAt     time.Time `json:"generatedAt"`
}

type Service struct {
	requests Lister
	store    upload.Store
	logger   *slog.Logger
	now      func() time.Time
}

type Option func(*Service)

// WithClock sets what "today" is when splitting active from expired.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func NewService(requests Lister, store upload.Store, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		requests: requests,
		store:    store,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Overview loads every category fresh. A request is active while its date is
// today or later; expired is always total minus active.
func (s *Service) Overview(ctx context.Context) (*Overview, error) {
	now := s.now()
	overview := &Overview{GeneratedAt: now}

	for _, category := range request.Categories {
		section, pending, err := s.section(ctx, category, now)
		if err != nil {
			return nil, err
		}
		overview.Sections = append(overview.Sections, *section)
		overview.PendingPayments += pending
		overview.TotalRequests += section.Total
		overview.TotalActive += section.Active
		overview.TotalExpired += section.Expired
	}

	return overview, nil
}

func (s *Service) section(ctx context.Context, category request.Category, now time.Time) (*Section, int, error) {
	list, err := s.requests.List(ctx, category)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list %s requests: %w", category, err)
	}

	section := &Section{
		Category: category,
		Title:    category.Title(),
		Entries:  make([]Entry, 0, len(list)),
		Total:    len(list),
	}

	pending := 0
	for _, req := range list {
		entry := Entry{Request: req, Expired: !req.Active(now)}
		if entry.Expired {
			section.Expired++
		} else {
			section.Active++
		}
		if req.Status == request.StatusPendingPayment {
			pending++
		}

		if entry.FileExists, err = s.exists(ctx, category.Dir(), req.File); err != nil {
			return nil, 0, err
		}
		if entry.PaymentExists, err = s.exists(ctx, upload.DirPayments, req.ProofOfPayment); err != nil {
			return nil, 0, err
		}
		section.Entries = append(section.Entries, entry)
	}

	return section, pending, nil
}

// exists distinguishes "no file recorded" (false, nil) from a probe failure.
func (s *Service) exists(ctx context.Context, dir, name string) (bool, error) {
	if name == "" {
		return false, nil
	}
	ok, err := s.store.Exists(ctx, dir, name)
	if err != nil {
		s.logger.ErrorContext(ctx, "storage probe failed", "dir", dir, "name", name, "error", err)
		return false, fmt.Errorf("failed to probe %s/%s: %w", dir, name, err)
	}
	return ok, nil
}
