package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"academic-assist/internal/metrics"

	"github.com/uptrace/bun"
)

var ErrAdminNotFound = errors.New("admin not found")

type Repository struct {
	db      *bun.DB
	metrics *metrics.Metrics
}

func NewRepository(db *bun.DB, m *metrics.Metrics) *Repository {
	return &Repository{
		db:      db,
		metrics: m,
	}
}

func (r *Repository) GetByUsername(ctx context.Context, username string) (*Admin, error) {
	start := time.Now()
	admin := &Admin{}
	err := r.db.NewSelect().
		Model(admin).
		Where("username = ?", username).
		Limit(1).
		Scan(ctx)

	r.metrics.Database.RecordQuery(ctx, "select", "admins", time.Since(start), err)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAdminNotFound
		}
		return nil, fmt.Errorf("failed to get admin: %w", err)
	}
	return admin, nil
}

// Count returns the number of admin accounts.
func (r *Repository) Count(ctx context.Context) (int, error) {
	start := time.Now()
	count, err := r.db.NewSelect().Model((*Admin)(nil)).Count(ctx)

	r.metrics.Database.RecordQuery(ctx, "count", "admins", time.Since(start), err)

	if err != nil {
		return 0, fmt.Errorf("failed to count admins: %w", err)
	}
	return count, nil
}

func (r *Repository) Create(ctx context.Context, admin *Admin) error {
	start := time.Now()
	if admin.CreatedAt.IsZero() {
		admin.CreatedAt = time.Now()
	}
	_, err := r.db.NewInsert().Model(admin).Exec(ctx)

	r.metrics.Database.RecordQuery(ctx, "insert", "admins", time.Since(start), err)

	if err != nil {
		return fmt.Errorf("failed to create admin: %w", err)
	}
	return nil
}
