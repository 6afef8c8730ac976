// Package settings provides the plugin settings repository
package settings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/AtRiskMedia/inventree-wireviz-go/internal/infrastructure/observability/logging"
)

type SettingsRepository struct {
	db     *sql.DB
	logger *logging.ChanneledLogger
}

func NewSettingsRepository(db *sql.DB, logger *logging.ChanneledLogger) *SettingsRepository {
	return &SettingsRepository{
		db:     db,
		logger: logger,
	}
}

func (r *SettingsRepository) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		r.logger.Database().Error("Setting lookup failed", "error", err.Error(), "key", key)
		return "", false, fmt.Errorf("failed to load setting %s: %w", key, err)
	}
	return value, true, nil
}

func (r *SettingsRepository) Set(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value)
	if err != nil {
		r.logger.Database().Error("Setting update failed", "error", err.Error(), "key", key)
		return fmt.Errorf("failed to store setting %s: %w", key, err)
	}
	r.logger.Database().Info("Setting updated", "key", key)
	return nil
}

func (r *SettingsRepository) All(ctx context.Context) (map[string]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT key, value FROM settings`)
	if err != nil {
		return nil, fmt.Errorf("failed to query settings: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan setting: %w", err)
		}
		out[key] = value
	}
	return out, rows.Err()
}
