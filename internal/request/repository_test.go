package request_test

import (
	"context"
	"testing"
	"time"

	"academic-assist/internal/metrics"
	"academic-assist/internal/request"
	"academic-assist/testing/testdb"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepository_Postgres(t *testing.T) {
	pgContainer := testdb.SetupSharedPostgres(t)
	defer pgContainer.Cleanup(t)

	pgContainer.RunMigrations(t, request.Models()...)

	repo := request.NewRepository(pgContainer.DB, metrics.NewMock())
	ctx := context.Background()

	newAssignment := func(name string, due time.Time) *request.Assignment {
		return &request.Assignment{
			Name:           name,
			Email:          "jane@example.com",
			Contact:        "0700000000",
			University:     "State University",
			AssignmentType: "Essay",
			Subject:        "History",
			DueDate:        due,
			Details:        "Five pages.",
			Status:         request.StatusPendingPayment,
			CreatedAt:      time.Now().UTC(),
		}
	}

	t.Run("CreateAndGet", func(t *testing.T) {
		testdb.CleanupTables(t, pgContainer.DB, "assignments")

		a := newAssignment("Jane", time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC))
		require.NoError(t, repo.Create(ctx, a))
		assert.NotZero(t, a.ID)

		record, err := repo.Get(ctx, request.CategoryAssignment, a.ID)
		require.NoError(t, err)
		view := record.View()
		assert.Equal(t, "Jane", view.Name)
		assert.Equal(t, time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC), view.Date)
		assert.Empty(t, view.ProofOfPayment)
	})

	t.Run("ListNewestDateFirst", func(t *testing.T) {
		testdb.CleanupTables(t, pgContainer.DB, "assignments")

		require.NoError(t, repo.Create(ctx, newAssignment("Early", time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC))))
		require.NoError(t, repo.Create(ctx, newAssignment("Late", time.Date(2030, 6, 1, 0, 0, 0, 0, time.UTC))))

		records, err := repo.List(ctx, request.CategoryAssignment)
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, "Late", records[0].View().Name)
		assert.Equal(t, "Early", records[1].View().Name)
	})

	t.Run("AttachPaymentAndUpdateStatus", func(t *testing.T) {
		testdb.CleanupTables(t, pgContainer.DB, "assignments")

		a := newAssignment("Jane", time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC))
		require.NoError(t, repo.Create(ctx, a))

		require.NoError(t, repo.AttachPayment(ctx, request.CategoryAssignment, a.ID, "receipt.pdf"))
		record, err := repo.Get(ctx, request.CategoryAssignment, a.ID)
		require.NoError(t, err)
		assert.Equal(t, "receipt.pdf", record.View().ProofOfPayment)
		assert.Equal(t, request.StatusPaymentSubmitted, record.View().Status)

		require.NoError(t, repo.UpdateStatus(ctx, request.CategoryAssignment, a.ID, "Completed"))
		// same value again still matches the row
		require.NoError(t, repo.UpdateStatus(ctx, request.CategoryAssignment, a.ID, "Completed"))
		record, err = repo.Get(ctx, request.CategoryAssignment, a.ID)
		require.NoError(t, err)
		assert.Equal(t, "Completed", record.View().Status)
	})

	t.Run("MissingRows", func(t *testing.T) {
		testdb.CleanupTables(t, pgContainer.DB, "exam_requests")

		_, err := repo.Get(ctx, request.CategoryExam, 42)
		assert.ErrorIs(t, err, request.ErrNotFound)
		assert.ErrorIs(t, repo.UpdateStatus(ctx, request.CategoryExam, 42, "Completed"), request.ErrNotFound)
		assert.ErrorIs(t, repo.Delete(ctx, request.CategoryExam, 42), request.ErrNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		testdb.CleanupTables(t, pgContainer.DB, "assignments")

		a := newAssignment("Jane", time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC))
		require.NoError(t, repo.Create(ctx, a))
		require.NoError(t, repo.Delete(ctx, request.CategoryAssignment, a.ID))

		records, err := repo.List(ctx, request.CategoryAssignment)
		require.NoError(t, err)
		assert.Empty(t, records)
	})
}
