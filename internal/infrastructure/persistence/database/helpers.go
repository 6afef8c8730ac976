package database

import (
	"context"
	"fmt"
	"time"

	"github.com/AtRiskMedia/inventree-wireviz-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/inventree-wireviz-go/pkg/config"
)

// VerifyConnectionWithLogger runs a trivial query against the database
func VerifyConnectionWithLogger(ctx context.Context, db *DB, logger *logging.ChanneledLogger) error {
	start := time.Now()

	var result int
	if err := db.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		logger.Database().Error("Connection test query failed", "error", err.Error(), "driverName", db.Driver)
		return fmt.Errorf("connection test query failed: %w", err)
	}
	if result != 1 {
		return fmt.Errorf("unexpected query result: %d", result)
	}

	logger.Database().Debug("Connection test successful", "driverName", db.Driver, "duration", time.Since(start))
	return nil
}

// CheckAndLogSlowQuery checks if a query duration exceeds threshold
// and logs it using the slow query channel if it does
func CheckAndLogSlowQuery(logger *logging.ChanneledLogger, query string, duration time.Duration) {
	if duration > config.SlowQueryThreshold {
		logger.LogSlowQuery(query, duration)
	}
}
