// Package dbtest opens migrated in-memory ledger databases for tests.
package dbtest

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"ms-reporting/internal/database/migrations"
	"ms-reporting/internal/logger"
)

// New returns an in-memory SQLite ledger with the schema applied. The
// database is closed when the test ends.
func New(t testing.TB) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err, "failed to open in-memory database")
	// Every connection to :memory: is a separate database.
	sqldb.SetMaxOpenConns(1)

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())

	runner := migrations.NewRunner(bunDB, "sqlite", logger.NewNopLogger())
	require.NoError(t, runner.RunMigrations(), "failed to migrate test database")
	require.NoError(t, runner.Close())

	t.Cleanup(func() { bunDB.Close() })
	return bunDB
}
