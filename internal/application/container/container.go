// Package container provides dependency injection for all singleton services
package container

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/AtRiskMedia/inventree-wireviz-go/internal/application/services"
	"github.com/AtRiskMedia/inventree-wireviz-go/internal/domain/entities/harness"
	"github.com/AtRiskMedia/inventree-wireviz-go/internal/infrastructure/caching/interfaces"
	"github.com/AtRiskMedia/inventree-wireviz-go/internal/infrastructure/caching/stores"
	"github.com/AtRiskMedia/inventree-wireviz-go/internal/infrastructure/media"
	"github.com/AtRiskMedia/inventree-wireviz-go/internal/infrastructure/messaging"
	"github.com/AtRiskMedia/inventree-wireviz-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/inventree-wireviz-go/internal/infrastructure/observability/metrics"
	"github.com/AtRiskMedia/inventree-wireviz-go/internal/infrastructure/observability/performance"
	"github.com/AtRiskMedia/inventree-wireviz-go/internal/infrastructure/persistence/database"
	harnessrepo "github.com/AtRiskMedia/inventree-wireviz-go/internal/infrastructure/persistence/harness"
	inventoryrepo "github.com/AtRiskMedia/inventree-wireviz-go/internal/infrastructure/persistence/inventory"
	settingsrepo "github.com/AtRiskMedia/inventree-wireviz-go/internal/infrastructure/persistence/settings"
	"github.com/AtRiskMedia/inventree-wireviz-go/internal/infrastructure/render"
	"github.com/AtRiskMedia/inventree-wireviz-go/internal/infrastructure/templates"
	"github.com/AtRiskMedia/inventree-wireviz-go/pkg/config"
)

// Container holds all singleton services and infrastructure dependencies
type Container struct {
	// Application services
	ImportService   *services.ImportService
	HarnessService  *services.HarnessService
	TemplateService *services.TemplateService
	SettingsService *services.SettingsService
	AuthService     *services.AuthService
	PartService     *services.PartService
	EventService    *services.EventService

	// Infrastructure
	Logger      *logging.ChanneledLogger
	PerfTracker *performance.Tracker
	Metrics     *metrics.Collector
	DB          *database.DB
	Cache       interfaces.ContextCache
	Media       *media.Store
	Templates   *templates.Store
	Watcher     *templates.Watcher
	Hub         *messaging.Hub
	Renderer    render.RasterRenderer

	closers []func() error
}

// NewContainer opens the database and cache, and wires every service.
func NewContainer(ctx context.Context, logger *logging.ChanneledLogger) (*Container, error) {
	c := &Container{
		Logger:      logger,
		PerfTracker: performance.NewTracker(performance.DefaultTrackerConfig()),
		Metrics:     metrics.NewCollector(),
		Media:       media.NewStore(config.MediaRoot, config.HarnessPath),
		Templates:   templates.NewStore(config.MediaRoot, config.WirevizPath, logger),
		Hub:         messaging.NewHub(logger, config.HubPingInterval),
	}

	db, err := database.NewConnectionWithLogger(ctx, database.Options{
		Driver:          config.DBDriver,
		URL:             config.DatabaseURL,
		AuthToken:       config.DatabaseAuthToken,
		MaxOpenConns:    config.DBMaxOpenConns,
		MaxIdleConns:    config.DBMaxIdleConns,
		ConnMaxLifetime: time.Duration(config.DBConnMaxLifetimeMinutes) * time.Minute,
	}, logger)
	if err != nil {
		return nil, err
	}
	c.DB = db
	c.closers = append(c.closers, db.Close)

	if err := database.NewTableCreator().CreateSchema(ctx, db); err != nil {
		c.Close()
		return nil, err
	}

	if c.Cache, err = newCache(ctx, logger); err != nil {
		c.Close()
		return nil, err
	}
	if closer, ok := c.Cache.(interface{ Close() error }); ok {
		c.closers = append(c.closers, closer.Close)
	}

	if c.Renderer, err = render.New(render.Config{
		Mode:          config.Renderer,
		WirevizBinary: config.WirevizBinary,
		DotBinary:     config.DotBinary,
		Timeout:       config.RenderTimeout,
	}); err != nil {
		c.Close()
		return nil, err
	}
	if !c.Renderer.Available() {
		logger.Render().Warn("No diagram renderer found on PATH, imports will record render errors",
			"renderer", c.Renderer.Name())
	}

	auth, err := services.NewAuthService(services.AuthConfig{
		JWTSecret:      config.JWTSecret,
		AdminPassword:  config.AdminPassword,
		EditorPassword: config.EditorPassword,
		TokenTTL:       config.TokenTTL,
	}, logger)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.AuthService = auth

	c.wireServices()

	if err := c.SettingsService.Apply(ctx); err != nil {
		logger.Startup().Warn("Stored WIREVIZ_PATH rejected, keeping default", "error", err.Error())
	}
	return c, nil
}

func (c *Container) wireServices() {
	logger := c.Logger
	harnesses := harnessrepo.NewHarnessRepository(c.DB.DB, logger)
	parts := inventoryrepo.NewPartRepository(c.DB.DB, logger)
	settings := settingsrepo.NewSettingsRepository(c.DB.DB, logger)

	c.SettingsService = services.NewSettingsService(settings, c.Templates, c.Hub, logger)
	c.TemplateService = services.NewTemplateService(c.Templates, c.Media.URL, c.Hub, logger)
	c.PartService = services.NewPartService(parts, logger)
	c.HarnessService = services.NewHarnessService(harnesses, parts, c.Cache, c.Media, c.Hub,
		harness.PartLinkWithPrefix(config.PartURLPrefix), logger, c.PerfTracker)
	c.ImportService = services.NewImportService(services.ImportDependencies{
		Harnesses: harnesses,
		Parts:     parts,
		Templates: c.Templates,
		Settings:  c.SettingsService,
		Renderer:  c.Renderer,
		Previews:  media.NewPreviewProcessor(c.Media, config.PreviewWidth, float32(config.PreviewQuality)),
		Files:     c.Media,
		Cache:     c.Cache,
		Publisher: c.Hub,
		Metrics:   c.Metrics,
	}, logger, c.PerfTracker)
	c.EventService = services.NewEventService(c.ImportService, c.Media, logger)

	c.Watcher = templates.NewWatcher(c.Templates, logger, c.TemplateService.Changed)
	c.SettingsService.OnWirevizPathChange(func() {
		if err := c.Watcher.Retarget(); err != nil {
			logger.Storage().Warn("Failed to retarget template watcher", "error", err.Error())
		}
	})
}

func newCache(ctx context.Context, logger *logging.ChanneledLogger) (interfaces.ContextCache, error) {
	switch strings.ToLower(config.CacheBackend) {
	case "", "memory":
		return stores.NewMemoryStore(config.ContextCacheTTL), nil
	case "redis":
		store, err := stores.NewRedisStore(ctx, stores.RedisConfig{
			Addr:     config.RedisAddr,
			Password: config.RedisPassword,
			DB:       config.RedisDB,
			TTL:      config.ContextCacheTTL,
		}, logger)
		if err != nil {
			return nil, err
		}
		return store, nil
	}
	return nil, fmt.Errorf("unknown cache backend %q", config.CacheBackend)
}

// Close releases the database and cache connections.
func (c *Container) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}
