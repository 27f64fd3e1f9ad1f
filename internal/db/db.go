// Package db opens the relational store shared by the hotspot tables and
// plan history.
package db

import (
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	_ "modernc.org/sqlite"

	"carbon-offset/offset-portal/offset-portal-backend/internal/config"
)

// Supported drivers
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// ErrGormUnsupported is returned by Gorm for drivers without a gorm dialector
var ErrGormUnsupported = errors.New("gorm is only available on postgres")

func init() {
	// sqlx does not know modernc's driver name.
	sqlx.BindDriver(DriverSQLite, sqlx.QUESTION)
}

// DB wraps the sqlx handle together with the driver it was opened with
type DB struct {
	*sqlx.DB
	Driver string
}

// Open connects and verifies the database described by cfg
func Open(cfg config.DatabaseConfig) (*DB, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = DriverPostgres
	}
	if driver != DriverPostgres && driver != DriverSQLite {
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	conn, err := sqlx.Connect(driver, cfg.GetDatabaseURL())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", driver, err)
	}

	if cfg.MaxConnections > 0 {
		conn.SetMaxOpenConns(cfg.MaxConnections)
	}
	if cfg.MaxIdleConns > 0 {
		conn.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.MaxLifetimeSec > 0 {
		conn.SetConnMaxLifetime(time.Duration(cfg.MaxLifetimeSec) * time.Second)
	}

	if driver == DriverSQLite {
		// One writer at a time; concurrent writers get SQLITE_BUSY otherwise.
		conn.SetMaxOpenConns(1)
		if _, err := conn.Exec("PRAGMA foreign_keys = ON"); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to configure sqlite: %w", err)
		}
	}

	return &DB{DB: conn, Driver: driver}, nil
}

// Gorm opens a gorm session over the same connection pool
func (db *DB) Gorm() (*gorm.DB, error) {
	if db.Driver != DriverPostgres {
		return nil, ErrGormUnsupported
	}
	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: db.DB.DB}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open gorm session: %w", err)
	}
	return gdb, nil
}
