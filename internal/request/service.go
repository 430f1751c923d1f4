package request

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"academic-assist/internal/events"
	"academic-assist/internal/metrics"
	"academic-assist/internal/upload"
)

var (
	ErrNotFound        = errors.New("request not found")
	ErrInvalidCategory = errors.New("unknown request category")
	ErrInvalidInput    = errors.New("invalid input")
	ErrNoProof         = errors.New("no proof of payment uploaded")
	// ErrNoSubmission means the proof was stored but there is no request in
	// the session to attach it to.
	ErrNoSubmission = errors.New("no submission to attach payment to")
)

// Ref identifies a stored request.
type Ref struct {
	Category Category
	ID       int64
}

type Service interface {
	Submit(ctx context.Context, form Form, file *upload.File) (*Request, error)
	AttachPayment(ctx context.Context, ref *Ref, proof *upload.File) (*Request, error)
	Get(ctx context.Context, category Category, id int64) (*Request, error)
	List(ctx context.Context, category Category) ([]Request, error)
	UpdateStatus(ctx context.Context, category Category, id int64, status string) (*Request, error)
	Delete(ctx context.Context, category Category, id int64) error
}

type service struct {
	repo      Repository
	uploader  *upload.Uploader
	validator *Validator
	publisher events.Publisher
	metrics   *metrics.Metrics
	logger    *slog.Logger
	now       func() time.Time
}

func NewService(repo Repository, uploader *upload.Uploader, publisher events.Publisher, m *metrics.Metrics, logger *slog.Logger) Service {
	return &service{
		repo:      repo,
		uploader:  uploader,
		validator: NewValidator(),
		publisher: publisher,
		metrics:   m,
		logger:    logger,
		now:       time.Now,
	}
}

// Submit validates the form, stores the optional file and creates the record
// in Pending Payment. A file with a disallowed extension is dropped and the
// record is created without it.
func (s *service) Submit(ctx context.Context, form Form, file *upload.File) (*Request, error) {
	if err := s.validator.Validate(form); err != nil {
		return nil, err
	}

	category := form.Category()
	var stored string
	if file != nil && file.Name != "" {
		name, err := s.uploader.Accept(ctx, category.Dir(), file)
		switch {
		case err == nil:
			stored = name
		case errors.Is(err, upload.ErrExtensionNotAllowed), errors.Is(err, upload.ErrInvalidFilename):
			s.logger.WarnContext(ctx, "dropping intake attachment", "category", category, "filename", file.Name, "error", err)
		default:
			return nil, err
		}
	}

	record, err := form.record(stored, s.now())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := s.repo.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to create %s request: %w", category, err)
	}

	view := record.View()
	s.metrics.RecordRequestSubmitted(ctx, string(category))
	s.publish(ctx, events.TypeSubmitted, view)

	return &view, nil
}

// AttachPayment stores the proof and moves the referenced request to Payment
// Submitted. Without a usable proof nothing changes. Without a ref the proof
// is stored and ErrNoSubmission is returned.
func (s *service) AttachPayment(ctx context.Context, ref *Ref, proof *upload.File) (*Request, error) {
	if proof == nil || proof.Name == "" {
		return nil, ErrNoProof
	}

	name, err := s.uploader.Accept(ctx, upload.DirPayments, proof)
	if err != nil {
		return nil, err
	}

	if ref == nil {
		return nil, ErrNoSubmission
	}

	if err := s.repo.AttachPayment(ctx, ref.Category, ref.ID, name); err != nil {
		return nil, err
	}

	record, err := s.repo.Get(ctx, ref.Category, ref.ID)
	if err != nil {
		return nil, err
	}

	view := record.View()
	s.metrics.RecordPaymentSubmitted(ctx, string(ref.Category))
	s.publish(ctx, events.TypePaymentSubmitted, view)

	return &view, nil
}

func (s *service) Get(ctx context.Context, category Category, id int64) (*Request, error) {
	if id <= 0 {
		return nil, ErrNotFound
	}
	record, err := s.repo.Get(ctx, category, id)
	if err != nil {
		return nil, err
	}
	view := record.View()
	return &view, nil
}

func (s *service) List(ctx context.Context, category Category) ([]Request, error) {
	records, err := s.repo.List(ctx, category)
	if err != nil {
		return nil, err
	}

	views := make([]Request, 0, len(records))
	for _, r := range records {
		views = append(views, r.View())
	}
	return views, nil
}

// UpdateStatus sets status verbatim. An empty status leaves the record as is.
func (s *service) UpdateStatus(ctx context.Context, category Category, id int64, status string) (*Request, error) {
	current, err := s.Get(ctx, category, id)
	if err != nil {
		return nil, err
	}
	if status == "" {
		return current, nil
	}

	if err := s.repo.UpdateStatus(ctx, category, id, status); err != nil {
		return nil, err
	}
	current.Status = status

	s.metrics.RecordStatusUpdated(ctx, string(category))
	s.publish(ctx, events.TypeStatusUpdated, *current)

	return current, nil
}

func (s *service) Delete(ctx context.Context, category Category, id int64) error {
	if id <= 0 {
		return ErrNotFound
	}
	if err := s.repo.Delete(ctx, category, id); err != nil {
		return err
	}

	s.metrics.RecordRequestDeleted(ctx, string(category))
	s.publish(ctx, events.TypeDeleted, Request{ID: id, Category: category})

	return nil
}

// publish is fire-and-forget: the mutation is already committed.
func (s *service) publish(ctx context.Context, eventType string, r Request) {
	err := s.publisher.Publish(ctx, events.Event{
		Type:       eventType,
		Category:   string(r.Category),
		RequestID:  r.ID,
		Status:     r.Status,
		OccurredAt: s.now().UTC(),
	})
	s.metrics.RecordEventPublished(ctx, eventType, err)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to publish event", "type", eventType, "category", r.Category, "id", r.ID, "error", err)
	}
}
