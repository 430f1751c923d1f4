package testdb

import (
	"context"
	"database/sql"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

var (
	sharedContainer *PostgresContainer
	sharedOnce      sync.Once
)

// PostgresContainer wraps the postgres testcontainer
type PostgresContainer struct {
	Container *postgres.PostgresContainer
	DB        *bun.DB
	DSN       string
}

// SetupSharedPostgres creates a single PostgreSQL container shared across all
// tests of a package and skips the test when no container runtime is available.
//
// IMPORTANT: Tests using shared container CANNOT run in parallel!
//
// Usage:
//
//	func TestMyRepository(t *testing.T) {
//	    pgContainer := testdb.SetupSharedPostgres(t)
//	    defer pgContainer.Cleanup(t)  // only call once at top level
//
//	    pgContainer.RunMigrations(t, (*MyModel)(nil))
//
//	    t.Run("Test1", func(t *testing.T) {
//	        testdb.CleanupTables(t, pgContainer.DB, "my_table")
//	        // ... test
//	    })
//	}
func SetupSharedPostgres(t *testing.T) *PostgresContainer {
	t.Helper()
	testcontainers.SkipIfProviderIsNotHealthy(t)

	sharedOnce.Do(func() {
		ctx := context.Background()
		pgContainer, err := postgres.Run(ctx,
			"postgres:16-alpine",
			postgres.WithDatabase("testdb"),
			postgres.WithUsername("postgres"),
			postgres.WithPassword("postgres"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2),
			),
		)
		require.NoError(t, err)

		connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
		require.NoError(t, err)

		sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(connStr)))
		db := bun.NewDB(sqldb, pgdialect.New())
		require.NoError(t, db.Ping())

		sharedContainer = &PostgresContainer{
			Container: pgContainer,
			DB:        db,
			DSN:       connStr,
		}
	})

	require.NotNil(t, sharedContainer, "postgres container failed to start")
	return sharedContainer
}

func (pc *PostgresContainer) Cleanup(t *testing.T) {
	t.Helper()

	if pc.DB != nil {
		pc.DB.Close()
	}

	if pc.Container != nil {
		if err := pc.Container.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	}
}

func (pc *PostgresContainer) RunMigrations(t *testing.T, models ...interface{}) {
	t.Helper()
	RunMigrations(t, pc.DB, models...)
}
