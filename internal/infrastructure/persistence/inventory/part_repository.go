// Package inventory provides the mirrored part catalogue repository
package inventory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/AtRiskMedia/inventree-wireviz-go/internal/domain/entities/inventory"
	"github.com/AtRiskMedia/inventree-wireviz-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/inventree-wireviz-go/internal/infrastructure/persistence/database"
)

type PartRepository struct {
	db     *sql.DB
	logger *logging.ChanneledLogger
}

func NewPartRepository(db *sql.DB, logger *logging.ChanneledLogger) *PartRepository {
	return &PartRepository{
		db:     db,
		logger: logger,
	}
}

func (r *PartRepository) FindByID(ctx context.Context, id int64) (*inventory.Part, error) {
	query := `SELECT id, name, ipn, active FROM parts WHERE id = ?`

	start := time.Now()
	part, err := r.scanPart(r.db.QueryRowContext(ctx, query, id))
	if err != nil || part == nil {
		return part, err
	}
	if part.Aliases, err = r.loadAliases(ctx, part.ID); err != nil {
		return nil, err
	}

	database.CheckAndLogSlowQuery(r.logger, query, time.Since(start))
	return part, nil
}

// matchQueries are tried in order; the first hit wins. Within one query the
// lowest part id wins so matching is deterministic.
var matchQueries = []string{
	`SELECT id, name, ipn, active FROM parts WHERE ipn != '' AND lower(trim(ipn)) = ? ORDER BY id LIMIT 1`,
	`SELECT id, name, ipn, active FROM parts WHERE lower(trim(name)) = ? ORDER BY id LIMIT 1`,
	`SELECT p.id, p.name, p.ipn, p.active FROM parts p JOIN part_numbers n ON n.part_id = p.id
     WHERE lower(trim(n.value)) = ? ORDER BY p.id LIMIT 1`,
}

// MatchPartNumber resolves a BOM part number against IPN, then name, then
// supplier and manufacturer aliases. Matching ignores case and surrounding
// whitespace. Returns (nil, nil) when nothing matches.
func (r *PartRepository) MatchPartNumber(ctx context.Context, pn string) (*inventory.Part, error) {
	needle := inventory.NormalizePartNumber(pn)
	if needle == "" {
		return nil, nil
	}

	start := time.Now()
	for _, query := range matchQueries {
		part, err := r.scanPart(r.db.QueryRowContext(ctx, query, needle))
		if err != nil {
			r.logger.Database().Error("Part number lookup failed", "error", err.Error(), "pn", pn)
			return nil, err
		}
		if part != nil {
			r.logger.Database().Debug("Part number matched", "pn", pn, "partId", part.ID, "duration", time.Since(start))
			return part, nil
		}
	}

	r.logger.Database().Debug("Part number not matched", "pn", pn, "duration", time.Since(start))
	return nil, nil
}

// Store inserts or replaces a part together with its aliases.
func (r *PartRepository) Store(ctx context.Context, part *inventory.Part) error {
	start := time.Now()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO parts (id, name, ipn, active) VALUES (?, ?, ?, ?)
         ON CONFLICT(id) DO UPDATE SET name = excluded.name, ipn = excluded.ipn, active = excluded.active`,
		part.ID, part.Name, part.IPN, part.Active)
	if err != nil {
		r.logger.Database().Error("Part upsert failed", "error", err.Error(), "partId", part.ID)
		return fmt.Errorf("failed to store part: %w", err)
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM part_numbers WHERE part_id = ?`, part.ID); err != nil {
		return fmt.Errorf("failed to clear part aliases: %w", err)
	}
	for _, alias := range part.Aliases {
		if !inventory.ValidAliasKind(alias.Kind) {
			return fmt.Errorf("unknown alias kind %q", alias.Kind)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO part_numbers (part_id, kind, value) VALUES (?, ?, ?)`,
			part.ID, alias.Kind, alias.Value)
		if err != nil {
			return fmt.Errorf("failed to store part alias: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit part: %w", err)
	}

	duration := time.Since(start)
	r.logger.Database().Info("Part upsert completed", "partId", part.ID, "aliases", len(part.Aliases), "duration", duration)
	database.CheckAndLogSlowQuery(r.logger, "PART_UPSERT", duration)
	return nil
}

func (r *PartRepository) scanPart(row *sql.Row) (*inventory.Part, error) {
	var part inventory.Part
	err := row.Scan(&part.ID, &part.Name, &part.IPN, &part.Active)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan part: %w", err)
	}
	return &part, nil
}

func (r *PartRepository) loadAliases(ctx context.Context, partID int64) ([]inventory.Alias, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT kind, value FROM part_numbers WHERE part_id = ? ORDER BY kind, value`, partID)
	if err != nil {
		return nil, fmt.Errorf("failed to query part aliases: %w", err)
	}
	defer rows.Close()

	var aliases []inventory.Alias
	for rows.Next() {
		var alias inventory.Alias
		if err := rows.Scan(&alias.Kind, &alias.Value); err != nil {
			return nil, fmt.Errorf("failed to scan part alias: %w", err)
		}
		aliases = append(aliases, alias)
	}
	return aliases, rows.Err()
}
