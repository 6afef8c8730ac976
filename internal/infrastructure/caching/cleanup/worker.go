// Package cleanup provides the background cache expiry worker
package cleanup

import (
	"context"
	"time"

	"github.com/AtRiskMedia/inventree-wireviz-go/internal/infrastructure/caching/interfaces"
	"github.com/AtRiskMedia/inventree-wireviz-go/internal/infrastructure/observability/logging"
)

// Worker handles background cache cleanup operations
type Worker struct {
	cache  interfaces.ContextCache
	logger *logging.ChanneledLogger
	config *Config
}

// NewWorker creates a new cleanup worker with injected configuration
func NewWorker(cache interfaces.ContextCache, logger *logging.ChanneledLogger, config *Config) *Worker {
	return &Worker{
		cache:  cache,
		logger: logger,
		config: config,
	}
}

// Start runs the cleanup loop until ctx is cancelled. Caches that expire
// entries on their own (redis) make this a no-op.
func (w *Worker) Start(ctx context.Context) {
	sweeper, ok := w.cache.(interfaces.Sweeper)
	if !ok || w.config.CleanupInterval <= 0 {
		return
	}

	ticker := time.NewTicker(w.config.CleanupInterval)
	defer ticker.Stop()

	w.logger.Cache().Info("Cache cleanup worker started",
		"interval", w.config.CleanupInterval, "verbose", w.config.VerboseReporting)

	for {
		select {
		case <-ctx.Done():
			w.logger.Cache().Info("Cache cleanup worker stopping")
			return
		case <-ticker.C:
			w.performCleanup(sweeper)
		}
	}
}

func (w *Worker) performCleanup(sweeper interfaces.Sweeper) {
	start := time.Now()
	cleaned := sweeper.PurgeExpired()

	if cleaned > 0 || w.config.VerboseReporting {
		stats := w.cache.Stats()
		w.logger.Cache().Info("Cache cleanup finished",
			"cleaned", cleaned,
			"entries", stats.Entries,
			"hits", stats.Hits,
			"misses", stats.Misses,
			"duration", time.Since(start))
	}
}
