// Package startup prepares the application server
package startup

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AtRiskMedia/inventree-wireviz-go/internal/application/container"
	"github.com/AtRiskMedia/inventree-wireviz-go/internal/infrastructure/caching/cleanup"
	"github.com/AtRiskMedia/inventree-wireviz-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/inventree-wireviz-go/internal/presentation/http/server"
	"github.com/AtRiskMedia/inventree-wireviz-go/pkg/config"
	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 30 * time.Second

// Initialize performs the complete startup sequence and blocks until ctx is
// cancelled or SIGINT/SIGTERM arrives, then shuts everything down.
func Initialize(ctx context.Context) error {
	start := time.Now().UTC()

	logger, err := NewLogger()
	if err != nil {
		return err
	}
	defer logger.Close()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Step 1: Dependency injection container (database, cache, renderer, services)
	logger.Startup().Info("Initializing dependency injection container...")
	phaseStart := time.Now()
	appContainer, err := container.NewContainer(ctx, logger)
	logger.LogStartupPhase("container", time.Since(phaseStart), err == nil)
	if err != nil {
		return fmt.Errorf("failed to initialize container: %w", err)
	}
	defer func() {
		if err := appContainer.Close(); err != nil {
			logger.Shutdown().Error("Error closing connections", "error", err.Error())
		}
	}()

	// Step 2: Media and template directories
	phaseStart = time.Now()
	if err := os.MkdirAll(config.MediaRoot, 0755); err != nil {
		return fmt.Errorf("failed to create media root: %w", err)
	}
	if err := appContainer.Templates.EnsureDir(); err != nil {
		logger.Startup().Warn("Failed to create template directory", "error", err.Error())
	}
	logger.LogStartupPhase("media", time.Since(phaseStart), true)

	group, groupCtx := errgroup.WithContext(ctx)

	// Step 3: Background workers
	appContainer.Hub.OnClientCount(appContainer.Metrics.SetHubClients)
	group.Go(func() error {
		appContainer.Hub.Run(groupCtx)
		return nil
	})

	cleanupWorker := cleanup.NewWorker(appContainer.Cache, logger, cleanup.NewConfig())
	group.Go(func() error {
		cleanupWorker.Start(groupCtx)
		return nil
	})

	if err := appContainer.Watcher.Start(groupCtx); err != nil {
		logger.Startup().Warn("Template watcher not started", "error", err.Error())
	}
	logger.Startup().Info("Background workers started")

	// Step 4: HTTP server
	httpServer := server.New(config.Port, appContainer)
	group.Go(func() error {
		logger.System().Info("Starting HTTP server", "address", ":"+config.Port)
		return httpServer.Start()
	})

	group.Go(func() error {
		<-groupCtx.Done()
		logger.Shutdown().Info("Shutdown signal received, starting graceful shutdown...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := httpServer.Stop(shutdownCtx); err != nil {
			logger.Shutdown().Error("Error during server shutdown", "error", err.Error())
		} else {
			logger.Shutdown().Info("HTTP server stopped successfully")
		}
		if err := appContainer.Watcher.Stop(); err != nil {
			logger.Shutdown().Error("Error stopping template watcher", "error", err.Error())
		}
		return nil
	})

	logger.Startup().Info("Application startup complete",
		"totalDuration", time.Since(start),
		"port", config.Port,
		"renderer", appContainer.Renderer.Name())

	err = group.Wait()
	logger.Shutdown().Info("Application shutdown complete", "totalUptime", time.Since(start))
	return err
}

// NewLogger builds the channeled logger from the LOG_* settings.
func NewLogger() (*logging.ChanneledLogger, error) {
	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	cfg := &logging.LoggerConfig{
		OutputToFile:    config.LogToFile,
		OutputToConsole: true,
		LogDirectory:    config.LogDirectory,
		JSONFormat:      config.LogJSONFormat,
		DefaultLevel:    logging.ParseLevel(config.LogLevel),
	}
	if config.LogStream {
		cfg.Broadcaster = logging.NewLogBroadcaster()
	}

	logger, err := logging.NewChanneledLogger(cfg)
	if err != nil {
		log.Printf("Failed to initialize channeled logger: %v", err)
		return nil, err
	}
	return logger, nil
}
