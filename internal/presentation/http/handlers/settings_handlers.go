package handlers

import (
	"net/http"

	"github.com/AtRiskMedia/inventree-wireviz-go/internal/application/services"
	"github.com/AtRiskMedia/inventree-wireviz-go/internal/infrastructure/observability/logging"
	"github.com/gin-gonic/gin"
)

// SettingsHandlers exposes the plugin settings
type SettingsHandlers struct {
	settingsService *services.SettingsService
	logger          *logging.ChanneledLogger
}

// NewSettingsHandlers creates settings handlers with injected dependencies
func NewSettingsHandlers(settingsService *services.SettingsService, logger *logging.ChanneledLogger) *SettingsHandlers {
	return &SettingsHandlers{settingsService: settingsService, logger: logger}
}

// GetSettings handles GET /plugin/wireviz/settings/
func (h *SettingsHandlers) GetSettings(c *gin.Context) {
	settings, err := h.settingsService.Get(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, logging.ChannelSystem, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

// PutSettings handles PUT /plugin/wireviz/settings/ - partial update
func (h *SettingsHandlers) PutSettings(c *gin.Context) {
	var update services.SettingsUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	settings, err := h.settingsService.Update(c.Request.Context(), update)
	if err != nil {
		respondError(c, h.logger, logging.ChannelSystem, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}
