package database

import (
	"context"
	"testing"

	"github.com/AtRiskMedia/inventree-wireviz-go/internal/infrastructure/observability/logging"
)

// OpenMemory opens a private in-memory SQLite database with the schema
// applied. It is closed when the test finishes.
func OpenMemory(tb testing.TB) *DB {
	tb.Helper()
	ctx := context.Background()

	db, err := NewConnectionWithLogger(ctx, Options{Driver: DriverSQLite, URL: ":memory:"}, logging.NewDiscardLogger())
	if err != nil {
		tb.Fatalf("open in-memory database: %v", err)
	}
	tb.Cleanup(func() { db.Close() })

	if err := NewTableCreator().CreateSchema(ctx, db); err != nil {
		tb.Fatalf("create schema: %v", err)
	}
	return db
}
