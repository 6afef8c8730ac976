package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/AtRiskMedia/inventree-wireviz-go/internal/infrastructure/caching/interfaces"
	"github.com/AtRiskMedia/inventree-wireviz-go/internal/infrastructure/messaging"
	"github.com/AtRiskMedia/inventree-wireviz-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/inventree-wireviz-go/internal/infrastructure/observability/performance"
	"github.com/AtRiskMedia/inventree-wireviz-go/internal/infrastructure/persistence/database"
	"github.com/AtRiskMedia/inventree-wireviz-go/internal/infrastructure/render"
	"github.com/gin-gonic/gin"
)

const logStreamKeepalive = 15 * time.Second

// SystemHandlers serves health and operator endpoints
type SystemHandlers struct {
	db          *database.DB
	cache       interfaces.ContextCache
	hub         *messaging.Hub
	renderer    render.Renderer
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
}

// NewSystemHandlers creates system handlers with injected dependencies
func NewSystemHandlers(
	db *database.DB,
	cache interfaces.ContextCache,
	hub *messaging.Hub,
	renderer render.Renderer,
	logger *logging.ChanneledLogger,
	perfTracker *performance.Tracker,
) *SystemHandlers {
	return &SystemHandlers{
		db:          db,
		cache:       cache,
		hub:         hub,
		renderer:    renderer,
		logger:      logger,
		perfTracker: perfTracker,
	}
}

// GetHealth handles GET /health
func (h *SystemHandlers) GetHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := database.VerifyConnectionWithLogger(ctx, h.db, h.logger); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "database": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"renderer":  h.renderer.Name(),
		"canRender": h.renderer.Available(),
	})
}

// GetStatus handles GET /plugin/wireviz/admin/status
func (h *SystemHandlers) GetStatus(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), time.Second)
	defer cancel()

	c.JSON(http.StatusOK, gin.H{
		"uptime":      h.perfTracker.Uptime().String(),
		"operations":  h.perfTracker.Summaries(),
		"alerts":      h.perfTracker.Alerts(),
		"cache":       h.cache.Stats(),
		"connections": h.hub.ClientCounts(ctx),
		"renderer":    h.renderer.Name(),
		"canRender":   h.renderer.Available(),
	})
}

// PostInvalidateCache handles POST /plugin/wireviz/admin/cache/invalidate -
// drops every cached context, e.g. after another instance wrote to a shared
// database
func (h *SystemHandlers) PostInvalidateCache(c *gin.Context) {
	h.cache.InvalidateAll(c.Request.Context())
	h.logger.Cache().Info("Context cache invalidated by operator")
	c.JSON(http.StatusOK, gin.H{"status": "ok", "cache": h.cache.Stats()})
}

// GetLogLevels handles GET /plugin/wireviz/admin/logs/levels
func (h *SystemHandlers) GetLogLevels(c *gin.Context) {
	c.JSON(http.StatusOK, h.logger.GetChannelLevels())
}

// SetLogLevel handles PUT /plugin/wireviz/admin/logs/levels
func (h *SystemHandlers) SetLogLevel(c *gin.Context) {
	var req struct {
		Channel string `json:"channel" binding:"required"`
		Level   string `json:"level" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	switch strings.ToUpper(req.Level) {
	case "DEBUG", "INFO", "WARN", "ERROR":
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid log level specified"})
		return
	}

	if err := h.logger.SetChannelLevel(logging.Channel(req.Channel), logging.ParseLevel(req.Level)); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to set log level", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": fmt.Sprintf("Log level for channel '%s' set to '%s'", req.Channel, strings.ToUpper(req.Level))})
}

// StreamLogs handles GET /plugin/wireviz/admin/logs/stream - live logs as
// server-sent events, filtered by ?channel= and ?level=
func (h *SystemHandlers) StreamLogs(c *gin.Context) {
	broadcaster := h.logger.Broadcaster()
	if broadcaster == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Log streaming is disabled"})
		return
	}

	sub := broadcaster.Subscribe(logging.StreamFilter{
		Channel: logging.Channel(c.DefaultQuery("channel", string(logging.ChannelAll))),
		Level:   logging.ParseLevel(c.DefaultQuery("level", "INFO")),
	})
	defer broadcaster.Unsubscribe(sub)

	// The server write timeout would otherwise end the stream.
	if err := http.NewResponseController(c.Writer).SetWriteDeadline(time.Time{}); err != nil {
		h.logger.System().Warn("Log stream keeps the server write deadline", "error", err)
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Status(http.StatusOK)

	fmt.Fprintf(c.Writer, ": connection established\n\n")
	c.Writer.Flush()

	keepalive := time.NewTicker(logStreamKeepalive)
	defer keepalive.Stop()

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-sub.C:
			if !ok {
				return
			}
			fmt.Fprintf(c.Writer, "data: %s\n\n", msg)
			c.Writer.Flush()
		case <-keepalive.C:
			fmt.Fprintf(c.Writer, ": keepalive\n\n")
			c.Writer.Flush()
		}
	}
}
