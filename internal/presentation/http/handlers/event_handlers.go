package handlers

import (
	"net/http"

	"github.com/AtRiskMedia/inventree-wireviz-go/internal/application/services"
	"github.com/AtRiskMedia/inventree-wireviz-go/internal/infrastructure/observability/logging"
	"github.com/gin-gonic/gin"
)

// EventHandlers receives host event notifications
type EventHandlers struct {
	eventService *services.EventService
	logger       *logging.ChanneledLogger
}

// NewEventHandlers creates event handlers with injected dependencies
func NewEventHandlers(eventService *services.EventService, logger *logging.ChanneledLogger) *EventHandlers {
	return &EventHandlers{eventService: eventService, logger: logger}
}

// PostEvent handles POST /plugin/wireviz/events/
func (h *EventHandlers) PostEvent(c *gin.Context) {
	var event services.Event
	if err := c.ShouldBindJSON(&event); err != nil || event.Event == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "event is required"})
		return
	}

	result, err := h.eventService.Process(c.Request.Context(), event)
	if err != nil {
		respondError(c, h.logger, logging.ChannelHarness, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
