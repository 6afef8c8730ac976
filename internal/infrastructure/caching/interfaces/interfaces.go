// Package interfaces defines cache operation contracts for the harness context cache.
package interfaces

import (
	"context"

	"github.com/AtRiskMedia/inventree-wireviz-go/internal/domain/entities/harness"
)

// ContextCache caches the published harness context per part. Backend
// failures are logged by the implementation and reported as misses.
//
// Writers that change a harness call SetContext. Readers that loaded the
// context from the database call FillContext, which never replaces an entry
// a writer stored in the meantime.
type ContextCache interface {
	GetContext(ctx context.Context, partID int64) (harness.Context, bool)
	SetContext(ctx context.Context, partID int64, value harness.Context)
	FillContext(ctx context.Context, partID int64, value harness.Context) bool
	InvalidatePart(ctx context.Context, partID int64)
	InvalidateAll(ctx context.Context)
	Stats() Stats
}

// Stats reports cache effectiveness counters.
type Stats struct {
	Backend string `json:"backend"`
	Entries int    `json:"entries"`
	Hits    int64  `json:"hits"`
	Misses  int64  `json:"misses"`
}

// Sweeper is implemented by caches that need periodic expiry.
type Sweeper interface {
	PurgeExpired() int
}
