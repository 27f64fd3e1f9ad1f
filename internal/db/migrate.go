package db

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrations embed.FS

// MigrateUp runs all pending migrations up to the latest version.
// Returns nil if no migrations were needed.
func (db *DB) MigrateUp(logger *zap.Logger) error {
	m, err := db.newMigrate(logger)
	if err != nil {
		return err
	}
	// Closing m would close the shared connection pool.

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}
	return nil
}

// MigrateVersion returns the current migration version and dirty state.
// Returns 0, false, nil if no migrations have been applied yet.
func (db *DB) MigrateVersion(logger *zap.Logger) (version uint, dirty bool, err error) {
	m, err := db.newMigrate(logger)
	if err != nil {
		return 0, false, err
	}

	version, dirty, err = m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

func (db *DB) newMigrate(logger *zap.Logger) (*migrate.Migrate, error) {
	source, err := iofs.New(migrations, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded migrations: %w", err)
	}

	var driver database.Driver
	switch db.Driver {
	case DriverSQLite:
		driver, err = sqlite.WithInstance(db.DB.DB, &sqlite.Config{})
	default:
		driver, err = postgres.WithInstance(db.DB.DB, &postgres.Config{})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s migration driver: %w", db.Driver, err)
	}

	m, err := migrate.NewWithInstance("iofs", source, db.Driver, driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	if logger != nil {
		m.Log = &migrateLogger{logger: logger.Named("migrate")}
	}
	return m, nil
}

// migrateLogger implements migrate.Logger on zap
type migrateLogger struct {
	logger *zap.Logger
}

func (l *migrateLogger) Printf(format string, v ...interface{}) {
	l.logger.Sugar().Infof(format, v...)
}

func (l *migrateLogger) Verbose() bool {
	return false
}
