package migrations

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/uptrace/bun"

	"ms-reporting/internal/logger"
)

//go:embed sql/sqlite/*.sql sql/postgres/*.sql
var migrationFS embed.FS

// Runner applies the embedded schema migrations for one dialect.
type Runner struct {
	bunDB    *bun.DB
	driver   string
	log      *logger.Logger
	source   source.Driver
	migrator *migrate.Migrate
}

// NewRunner creates a runner. driver is "sqlite" or "postgres".
func NewRunner(bunDB *bun.DB, driver string, log *logger.Logger) *Runner {
	return &Runner{bunDB: bunDB, driver: driver, log: log}
}

// Initialize prepares the migration source and database driver.
func (r *Runner) Initialize() error {
	var (
		dbDriver database.Driver
		err      error
	)
	switch r.driver {
	case "sqlite":
		dbDriver, err = sqlite.WithInstance(r.bunDB.DB, &sqlite.Config{})
	case "postgres":
		dbDriver, err = postgres.WithInstance(r.bunDB.DB, &postgres.Config{})
	default:
		return fmt.Errorf("unsupported migration driver %q", r.driver)
	}
	if err != nil {
		return fmt.Errorf("failed to create %s migration driver: %w", r.driver, err)
	}

	src, err := iofs.New(migrationFS, "sql/"+r.driver)
	if err != nil {
		return fmt.Errorf("failed to open embedded migrations: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", src, r.driver, dbDriver)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}

	r.source = src
	r.migrator = migrator
	return nil
}

// RunMigrations applies pending migrations, clearing a dirty flag left by an
// interrupted run first.
func (r *Runner) RunMigrations() error {
	if r.migrator == nil {
		if err := r.Initialize(); err != nil {
			return err
		}
	}

	version, dirty, err := r.migrator.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to get migration version: %w", err)
	}
	if dirty {
		r.log.Warn("DATABASE", fmt.Sprintf("Dirty migration at version %d, forcing", version))
		if err := r.migrator.Force(int(version)); err != nil {
			return fmt.Errorf("failed to fix dirty migration: %w", err)
		}
	}

	if err := r.migrator.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	version, _, err = r.migrator.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to get migration version: %w", err)
	}
	r.log.LogDatabase("MIGRATE", "tickets", fmt.Sprintf("schema version %d", version))
	return nil
}

// MigrateDown rolls back all migrations.
func (r *Runner) MigrateDown() error {
	if r.migrator == nil {
		if err := r.Initialize(); err != nil {
			return err
		}
	}
	if err := r.migrator.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration down failed: %w", err)
	}
	return nil
}

// Version returns the applied schema version, 0 when nothing was applied.
func (r *Runner) Version() (uint, error) {
	if r.migrator == nil {
		if err := r.Initialize(); err != nil {
			return 0, err
		}
	}
	version, _, err := r.migrator.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, nil
	}
	return version, err
}

// Close releases the migration source. migrate.Close would also close the
// shared *sql.DB, so only the source is closed here.
func (r *Runner) Close() error {
	if r.source == nil {
		return nil
	}
	if err := r.source.Close(); err != nil {
		return fmt.Errorf("error closing migrator source: %w", err)
	}
	return nil
}
