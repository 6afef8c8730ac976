// Package repositories defines the persistence interfaces used by the
// application services. Implementations live under infrastructure/persistence.
package repositories

import (
	"context"

	"github.com/AtRiskMedia/inventree-wireviz-go/internal/domain/entities/harness"
	"github.com/AtRiskMedia/inventree-wireviz-go/internal/domain/entities/inventory"
)

// HarnessRepository stores one harness record per part. Finders return
// (nil, nil) when nothing is stored.
type HarnessRepository interface {
	FindByPart(ctx context.Context, partID int64) (*harness.Record, error)
	Store(ctx context.Context, record *harness.Record) error
	Delete(ctx context.Context, partID int64) error
}

// PartRepository reads and maintains the mirrored part catalogue.
type PartRepository interface {
	FindByID(ctx context.Context, id int64) (*inventory.Part, error)
	MatchPartNumber(ctx context.Context, pn string) (*inventory.Part, error)
	Store(ctx context.Context, part *inventory.Part) error
}

// SettingsRepository persists plugin settings as string key/value pairs.
type SettingsRepository interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	All(ctx context.Context) (map[string]string, error)
}
