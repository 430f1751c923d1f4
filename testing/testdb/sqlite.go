package testdb

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// NewSQLite opens a private in-memory database that lives as long as the test.
// It needs no container runtime, so it is the default for handler and service tests.
func NewSQLite(t *testing.T, models ...interface{}) *bun.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	sqldb, err := sql.Open(sqliteshim.ShimName, fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	require.NoError(t, db.Ping())
	t.Cleanup(func() { db.Close() })

	RunMigrations(t, db, models...)
	return db
}

func RunMigrations(t *testing.T, db *bun.DB, models ...interface{}) {
	t.Helper()
	ctx := context.Background()

	for _, model := range models {
		_, err := db.NewCreateTable().
			Model(model).
			IfNotExists().
			Exec(ctx)
		require.NoError(t, err, "failed to create table")
	}
}

// CleanupTables empties tables between subtests.
func CleanupTables(t *testing.T, db *bun.DB, tables ...string) {
	t.Helper()
	ctx := context.Background()

	for _, table := range tables {
		query := "TRUNCATE " + table + " RESTART IDENTITY CASCADE"
		if db.Dialect().Name() == dialect.SQLite {
			query = "DELETE FROM " + table
		}
		_, err := db.ExecContext(ctx, query)
		require.NoError(t, err, "failed to truncate table: %s", table)
	}
}
