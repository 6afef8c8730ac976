package handlers

import (
	"net/http"

	"github.com/AtRiskMedia/inventree-wireviz-go/internal/application/services"
	"github.com/AtRiskMedia/inventree-wireviz-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/inventree-wireviz-go/internal/presentation/http/middleware"
	"github.com/gin-gonic/gin"
)

// TemplateHandlers manages the shared template files
type TemplateHandlers struct {
	templateService *services.TemplateService
	maxUploadBytes  int64
	logger          *logging.ChanneledLogger
}

// NewTemplateHandlers creates template handlers with injected dependencies
func NewTemplateHandlers(templateService *services.TemplateService, maxUploadBytes int64, logger *logging.ChanneledLogger) *TemplateHandlers {
	return &TemplateHandlers{templateService: templateService, maxUploadBytes: maxUploadBytes, logger: logger}
}

// GetTemplates handles GET /plugin/wireviz/templates/ - the settings panel view
func (h *TemplateHandlers) GetTemplates(c *gin.Context) {
	view, err := h.templateService.View(middleware.GetRole(c).IsAdmin())
	if err != nil {
		respondError(c, h.logger, logging.ChannelStorage, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// PostUploadTemplate handles POST /plugin/wireviz/upload-template/ - multipart {template}
func (h *TemplateHandlers) PostUploadTemplate(c *gin.Context) {
	if !limitUpload(c, h.maxUploadBytes) {
		return
	}
	name, data, ok := readUpload(c, "template", h.maxUploadBytes)
	if !ok {
		return
	}

	tmpl, err := h.templateService.Upload(name, data)
	if err != nil {
		respondError(c, h.logger, logging.ChannelStorage, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"template": tmpl})
}

type deleteTemplateRequest struct {
	Template string `json:"template" form:"template" binding:"required"`
}

// PostDeleteTemplate handles POST /plugin/wireviz/delete-template/ - {template}
func (h *TemplateHandlers) PostDeleteTemplate(c *gin.Context) {
	var req deleteTemplateRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "template is required"})
		return
	}

	if err := h.templateService.Delete(req.Template); err != nil {
		respondError(c, h.logger, logging.ChannelStorage, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"template": req.Template})
}
