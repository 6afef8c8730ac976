package handlers

import (
	"net/http"

	"github.com/AtRiskMedia/inventree-wireviz-go/internal/application/services"
	"github.com/AtRiskMedia/inventree-wireviz-go/internal/domain/entities/inventory"
	"github.com/AtRiskMedia/inventree-wireviz-go/internal/infrastructure/observability/logging"
	"github.com/gin-gonic/gin"
)

// PartHandlers exposes the mirrored inventory parts
type PartHandlers struct {
	partService *services.PartService
	logger      *logging.ChanneledLogger
}

// NewPartHandlers creates part handlers with injected dependencies
func NewPartHandlers(partService *services.PartService, logger *logging.ChanneledLogger) *PartHandlers {
	return &PartHandlers{partService: partService, logger: logger}
}

// GetPart handles GET /plugin/wireviz/parts/:id
func (h *PartHandlers) GetPart(c *gin.Context) {
	id, ok := partParam(c, "id")
	if !ok {
		return
	}

	part, err := h.partService.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, logging.ChannelDatabase, err)
		return
	}
	c.JSON(http.StatusOK, part)
}

type syncRequest struct {
	Parts []inventory.Part `json:"parts"`
}

// PostSync handles POST /plugin/wireviz/parts/sync/ - upserts host parts
func (h *PartHandlers) PostSync(c *gin.Context) {
	var req syncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	count, err := h.partService.Sync(c.Request.Context(), req.Parts)
	if err != nil {
		respondError(c, h.logger, logging.ChannelDatabase, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"synced": count})
}
