// Package routes provides HTTP route configuration for the presentation layer.
package routes

import (
	"github.com/AtRiskMedia/inventree-wireviz-go/internal/application/container"
	"github.com/AtRiskMedia/inventree-wireviz-go/internal/infrastructure/media"
	"github.com/AtRiskMedia/inventree-wireviz-go/internal/presentation/http/handlers"
	"github.com/AtRiskMedia/inventree-wireviz-go/internal/presentation/http/middleware"
	"github.com/AtRiskMedia/inventree-wireviz-go/pkg/config"
	"github.com/gin-gonic/gin"
)

// SetupRoutes configures all HTTP routes and middleware with dependency injection.
func SetupRoutes(container *container.Container) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(container.Logger))
	r.Use(middleware.CORSMiddleware(config.AllowedOrigins))
	r.Use(container.Metrics.Middleware())

	// Initialize handlers
	maxUpload := int64(config.MaxUploadBytes)
	harnessHandlers := handlers.NewHarnessHandlers(container.HarnessService, container.ImportService, maxUpload, container.Logger, container.PerfTracker)
	templateHandlers := handlers.NewTemplateHandlers(container.TemplateService, maxUpload, container.Logger)
	settingsHandlers := handlers.NewSettingsHandlers(container.SettingsService, container.Logger)
	authHandlers := handlers.NewAuthHandlers(container.AuthService, container.Logger, container.PerfTracker)
	partHandlers := handlers.NewPartHandlers(container.PartService, container.Logger)
	eventHandlers := handlers.NewEventHandlers(container.EventService, container.Logger)
	realtimeHandlers := handlers.NewRealtimeHandlers(container.Hub, config.AllowedOrigins, container.Logger)
	systemHandlers := handlers.NewSystemHandlers(container.DB, container.Cache, container.Hub, container.Renderer, container.Logger, container.PerfTracker)

	r.GET("/health", systemHandlers.GetHealth)
	r.GET("/metrics", gin.WrapH(container.Metrics.Handler()))
	r.Static(media.URLPrefix, container.Media.Root())

	// Login is reachable with a stale or invalid token
	r.POST("/plugin/wireviz/auth/login", authHandlers.PostLogin)

	plugin := r.Group("/plugin/wireviz")
	plugin.Use(middleware.AuthMiddleware(container.AuthService, container.Logger))
	{
		plugin.GET("/context/:part", harnessHandlers.GetContext)
		plugin.GET("/panel/:part", harnessHandlers.GetPanel)
		plugin.POST("/panel/", harnessHandlers.PostPanel)
		plugin.GET("/templates/", templateHandlers.GetTemplates)
		plugin.GET("/settings/", settingsHandlers.GetSettings)
		plugin.GET("/parts/:id", partHandlers.GetPart)
		plugin.GET("/ws/:part", realtimeHandlers.GetStream)

		// Harness changes
		editor := plugin.Group("")
		editor.Use(middleware.RequireEditor())
		{
			editor.POST("/upload/", harnessHandlers.PostUpload)
			editor.POST("/delete/", harnessHandlers.PostDelete)
		}

		// Templates, settings and host integration
		admin := plugin.Group("")
		admin.Use(middleware.RequireAdmin())
		{
			admin.POST("/upload-template/", templateHandlers.PostUploadTemplate)
			admin.POST("/delete-template/", templateHandlers.PostDeleteTemplate)
			admin.PUT("/settings/", settingsHandlers.PutSettings)
			admin.POST("/parts/sync/", partHandlers.PostSync)
			admin.POST("/events/", eventHandlers.PostEvent)

			admin.GET("/admin/status", systemHandlers.GetStatus)
			admin.POST("/admin/cache/invalidate", systemHandlers.PostInvalidateCache)
			admin.GET("/admin/logs/levels", systemHandlers.GetLogLevels)
			admin.PUT("/admin/logs/levels", systemHandlers.SetLogLevel)
			admin.GET("/admin/logs/stream", systemHandlers.StreamLogs)
		}
	}

	return r
}
