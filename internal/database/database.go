package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"ms-reporting/internal/config"
	"ms-reporting/internal/database/migrations"
	"ms-reporting/internal/logger"
)

// sqlitePragmas match the bulk-load settings the importer relies on.
var sqlitePragmas = []string{
	"PRAGMA journal_mode = WAL",
	"PRAGMA synchronous = NORMAL",
	"PRAGMA busy_timeout = 5000",
}

// Open connects to the configured ledger database and, when enabled, applies
// the schema migrations.
func Open(ctx context.Context, cfg config.DatabaseConfig, log *logger.Logger) (*bun.DB, error) {
	var (
		bunDB *bun.DB
		err   error
	)

	switch cfg.Driver {
	case "sqlite":
		bunDB, err = openSQLite(ctx, cfg)
	case "postgres":
		bunDB, err = openPostgres(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	log.LogDatabase("CONNECT", cfg.Driver, "connection successful")

	if cfg.AutoMigrate {
		runner := migrations.NewRunner(bunDB, cfg.Driver, log)
		defer runner.Close()
		if err := runner.RunMigrations(); err != nil {
			bunDB.Close()
			return nil, err
		}
	}

	return bunDB, nil
}

func openSQLite(ctx context.Context, cfg config.DatabaseConfig) (*bun.DB, error) {
	if dir := filepath.Dir(cfg.SQLitePath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	sqldb, err := sql.Open(sqliteshim.ShimName, cfg.SQLitePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	// One writer at a time; WAL lets readers proceed alongside it.
	sqldb.SetMaxOpenConns(1)

	for _, pragma := range sqlitePragmas {
		if _, err := sqldb.ExecContext(ctx, pragma); err != nil {
			sqldb.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	return bun.NewDB(sqldb, sqlitedialect.New()), nil
}

func openPostgres(ctx context.Context, cfg config.DatabaseConfig) (*bun.DB, error) {
	if cfg.PostgresDSN == "" {
		return nil, fmt.Errorf("POSTGRES_DSN not set")
	}

	sqldb, err := sql.Open("postgres", cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	sqldb.SetMaxOpenConns(cfg.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.MaxIdleConns)
	sqldb.SetConnMaxLifetime(cfg.MaxLifetime)

	if err := sqldb.PingContext(ctx); err != nil {
		sqldb.Close()
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	return bun.NewDB(sqldb, pgdialect.New()), nil
}
