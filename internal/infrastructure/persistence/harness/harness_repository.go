// Package harness provides the harness record repository
package harness

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/AtRiskMedia/inventree-wireviz-go/internal/domain/entities/harness"
	"github.com/AtRiskMedia/inventree-wireviz-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/inventree-wireviz-go/internal/infrastructure/persistence/database"
)

// HarnessRepository persists harness records in the harnesses table.
type HarnessRepository struct {
	db     *sql.DB
	logger *logging.ChanneledLogger
}

func NewHarnessRepository(db *sql.DB, logger *logging.ChanneledLogger) *HarnessRepository {
	return &HarnessRepository{
		db:     db,
		logger: logger,
	}
}

func (r *HarnessRepository) FindByPart(ctx context.Context, partID int64) (*harness.Record, error) {
	query := `SELECT part_id, source_file, svg_file, preview_file, bom_data, errors, warnings, updated_at FROM harnesses WHERE part_id = ?`

	start := time.Now()
	r.logger.Database().Debug("Loading harness from database", "partId", partID)

	var rec harness.Record
	var bomJSON, errorsJSON, warningsJSON string
	var updated int64

	err := r.db.QueryRowContext(ctx, query, partID).Scan(
		&rec.PartID, &rec.SourceFile, &rec.SVGFile, &rec.PreviewFile, &bomJSON, &errorsJSON, &warningsJSON, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Database().Error("Failed to scan harness", "error", err.Error(), "partId", partID)
		return nil, fmt.Errorf("failed to scan harness: %w", err)
	}

	if err := json.Unmarshal([]byte(bomJSON), &rec.BOMData); err != nil {
		return nil, fmt.Errorf("failed to parse bom data: %w", err)
	}
	if err := json.Unmarshal([]byte(errorsJSON), &rec.Errors); err != nil {
		return nil, fmt.Errorf("failed to parse errors: %w", err)
	}
	if err := json.Unmarshal([]byte(warningsJSON), &rec.Warnings); err != nil {
		return nil, fmt.Errorf("failed to parse warnings: %w", err)
	}
	rec.UpdatedAt = time.Unix(updated, 0).UTC()

	duration := time.Since(start)
	r.logger.Database().Info("Harness loaded from database", "partId", partID, "bomLines", len(rec.BOMData), "duration", duration)
	database.CheckAndLogSlowQuery(r.logger, query, duration)
	return &rec, nil
}

// Store inserts or replaces the record for its part.
func (r *HarnessRepository) Store(ctx context.Context, rec *harness.Record) error {
	bomJSON, err := json.Marshal(nonNilEntries(rec.BOMData))
	if err != nil {
		return fmt.Errorf("failed to encode bom data: %w", err)
	}
	errorsJSON, _ := json.Marshal(nonNilStrings(rec.Errors))
	warningsJSON, _ := json.Marshal(nonNilStrings(rec.Warnings))

	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = time.Now().UTC()
	}

	query := `INSERT INTO harnesses (part_id, source_file, svg_file, preview_file, bom_data, errors, warnings, updated_at)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?)
              ON CONFLICT(part_id) DO UPDATE SET
                source_file = excluded.source_file,
                svg_file = excluded.svg_file,
                preview_file = excluded.preview_file,
                bom_data = excluded.bom_data,
                errors = excluded.errors,
                warnings = excluded.warnings,
                updated_at = excluded.updated_at`

	start := time.Now()
	r.logger.Database().Debug("Executing harness upsert", "partId", rec.PartID)

	_, err = r.db.ExecContext(ctx, query, rec.PartID, rec.SourceFile, rec.SVGFile, rec.PreviewFile,
		string(bomJSON), string(errorsJSON), string(warningsJSON), rec.UpdatedAt.Unix())
	if err != nil {
		r.logger.Database().Error("Harness upsert failed", "error", err.Error(), "partId", rec.PartID)
		return fmt.Errorf("failed to store harness: %w", err)
	}

	duration := time.Since(start)
	r.logger.Database().Info("Harness upsert completed", "partId", rec.PartID, "duration", duration)
	database.CheckAndLogSlowQuery(r.logger, query, duration)
	return nil
}

func (r *HarnessRepository) Delete(ctx context.Context, partID int64) error {
	query := `DELETE FROM harnesses WHERE part_id = ?`

	start := time.Now()
	r.logger.Database().Debug("Executing harness delete", "partId", partID)

	if _, err := r.db.ExecContext(ctx, query, partID); err != nil {
		r.logger.Database().Error("Harness delete failed", "error", err.Error(), "partId", partID)
		return fmt.Errorf("failed to delete harness: %w", err)
	}

	duration := time.Since(start)
	r.logger.Database().Info("Harness delete completed", "partId", partID, "duration", duration)
	database.CheckAndLogSlowQuery(r.logger, query, duration)
	return nil
}

func nonNilEntries(entries []harness.BomEntry) []harness.BomEntry {
	if entries == nil {
		return []harness.BomEntry{}
	}
	return entries
}

func nonNilStrings(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}
