package request

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"academic-assist/internal/metrics"

	"github.com/uptrace/bun"
)

type Repository interface {
	Create(ctx context.Context, record Record) error
	Get(ctx context.Context, category Category, id int64) (Record, error)
	List(ctx context.Context, category Category) ([]Record, error)
	UpdateStatus(ctx context.Context, category Category, id int64, status string) error
	AttachPayment(ctx context.Context, category Category, id int64, proof string) error
	Delete(ctx context.Context, category Category, id int64) error
}

type repository struct {
	db      *bun.DB
	metrics *metrics.Metrics
}

func NewRepository(db *bun.DB, m *metrics.Metrics) Repository {
	return &repository{
		db:      db,
		metrics: m,
	}
}

func (r *repository) Create(ctx context.Context, record Record) error {
	start := time.Now()
	_, err := r.db.NewInsert().Model(record).Returning("id").Exec(ctx)

	r.metrics.Database.RecordQuery(ctx, "insert", record.View().Category.table(), time.Since(start), err)

	return err
}

func (r *repository) Get(ctx context.Context, category Category, id int64) (Record, error) {
	record, err := newModel(category)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	err = r.db.NewSelect().Model(record).Where("id = ?", id).Scan(ctx)

	r.metrics.Database.RecordQuery(ctx, "select", category.table(), time.Since(start), err)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return record, nil
}

// List returns every record of category, latest date first.
func (r *repository) List(ctx context.Context, category Category) ([]Record, error) {
	order := category.dateColumn() + " DESC, id DESC"
	start := time.Now()

	var (
		records []Record
		err     error
	)
	switch category {
	case CategoryAssignment:
		var rows []Assignment
		err = r.db.NewSelect().Model(&rows).OrderExpr(order).Scan(ctx)
		for i := range rows {
			records = append(records, &rows[i])
		}
	case CategoryQuiz:
		var rows []QuizRequest
		err = r.db.NewSelect().Model(&rows).OrderExpr(order).Scan(ctx)
		for i := range rows {
			records = append(records, &rows[i])
		}
	case CategoryExam:
		var rows []ExamRequest
		err = r.db.NewSelect().Model(&rows).OrderExpr(order).Scan(ctx)
		for i := range rows {
			records = append(records, &rows[i])
		}
	default:
		return nil, ErrInvalidCategory
	}

	r.metrics.Database.RecordQuery(ctx, "select", category.table(), time.Since(start), err)

	return records, err
}

func (r *repository) UpdateStatus(ctx context.Context, category Category, id int64, status string) error {
	model, err := newModel(category)
	if err != nil {
		return err
	}

	start := time.Now()
	result, err := r.db.NewUpdate().
		Model(model).
		Set("status = ?", status).
		Where("id = ?", id).
		Exec(ctx)

	r.metrics.Database.RecordQuery(ctx, "update", category.table(), time.Since(start), err)

	return checkAffected(result, err)
}

func (r *repository) AttachPayment(ctx context.Context, category Category, id int64, proof string) error {
	model, err := newModel(category)
	if err != nil {
		return err
	}

	start := time.Now()
	result, err := r.db.NewUpdate().
		Model(model).
		Set("proof_of_payment = ?", proof).
		Set("status = ?", StatusPaymentSubmitted).
		Where("id = ?", id).
		Exec(ctx)

	r.metrics.Database.RecordQuery(ctx, "update", category.table(), time.Since(start), err)

	return checkAffected(result, err)
}

func (r *repository) Delete(ctx context.Context, category Category, id int64) error {
	model, err := newModel(category)
	if err != nil {
		return err
	}

	start := time.Now()
	result, err := r.db.NewDelete().Model(model).Where("id = ?", id).Exec(ctx)

	r.metrics.Database.RecordQuery(ctx, "delete", category.table(), time.Since(start), err)

	return checkAffected(result, err)
}

func checkAffected(result sql.Result, err error) error {
	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
