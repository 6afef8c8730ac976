// Package database provides the core functionality for creating and managing
// database connections in a clean, isolated manner.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/AtRiskMedia/inventree-wireviz-go/internal/infrastructure/observability/logging"
	_ "github.com/mattn/go-sqlite3"
	_ "github.com/tursodatabase/libsql-client-go/libsql"
)

// Supported driver names.
const (
	DriverSQLite = "sqlite3"
	DriverLibSQL = "libsql"
)

// Options configures a connection.
type Options struct {
	Driver          string
	URL             string
	AuthToken       string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DB represents a wrapper around the standard SQL database connection.
type DB struct {
	*sql.DB
	Driver string
}

// InMemory reports whether the options select a private in-memory SQLite database.
func (o Options) InMemory() bool {
	return o.Driver == DriverSQLite && o.URL == ":memory:"
}

// DataSourceName builds the DSN for the configured driver. Remote libSQL
// databases carry their auth token as a query parameter.
func (o Options) DataSourceName() (string, error) {
	switch o.Driver {
	case DriverSQLite:
		sep := "?"
		if strings.Contains(o.URL, "?") {
			sep = "&"
		}
		return o.URL + sep + "_foreign_keys=on&_busy_timeout=5000", nil
	case DriverLibSQL:
		if o.AuthToken == "" {
			return o.URL, nil
		}
		sep := "?"
		if strings.Contains(o.URL, "?") {
			sep = "&"
		}
		return o.URL + sep + "authToken=" + o.AuthToken, nil
	}
	return "", fmt.Errorf("unsupported database driver %q", o.Driver)
}

// NewConnectionWithLogger establishes a new database connection for the specified driver with logging.
func NewConnectionWithLogger(ctx context.Context, opts Options, logger *logging.ChanneledLogger) (*DB, error) {
	start := time.Now()
	logger.Database().Debug("Creating new database connection", "driverName", opts.Driver)

	dsn, err := opts.DataSourceName()
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(opts.Driver, dsn)
	if err != nil {
		logger.Database().Error("Failed to open database connection", "error", err.Error(), "driverName", opts.Driver)
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if opts.InMemory() {
		// A private in-memory database lives exactly as long as its one connection.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
	} else {
		if opts.MaxOpenConns > 0 {
			db.SetMaxOpenConns(opts.MaxOpenConns)
		}
		if opts.MaxIdleConns > 0 {
			db.SetMaxIdleConns(opts.MaxIdleConns)
		}
		if opts.ConnMaxLifetime > 0 {
			db.SetConnMaxLifetime(opts.ConnMaxLifetime)
		}
	}

	if err = db.PingContext(ctx); err != nil {
		logger.Database().Error("Database ping failed", "error", err.Error(), "driverName", opts.Driver)
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	duration := time.Since(start)
	logger.Database().Info("Database connection established", "driverName", opts.Driver, "duration", duration)
	CheckAndLogSlowQuery(logger, "DATABASE_CONNECTION", duration)

	return &DB{DB: db, Driver: opts.Driver}, nil
}
