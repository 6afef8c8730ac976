package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/AtRiskMedia/inventree-wireviz-go/internal/application/services"
	"github.com/AtRiskMedia/inventree-wireviz-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/inventree-wireviz-go/internal/infrastructure/observability/performance"
	"github.com/AtRiskMedia/inventree-wireviz-go/internal/presentation/http/middleware"
	"github.com/gin-gonic/gin"
)

// HarnessHandlers serves the harness context, panel views and the harness
// upload/delete actions
type HarnessHandlers struct {
	harnessService *services.HarnessService
	importService  *services.ImportService
	maxUploadBytes int64
	logger         *logging.ChanneledLogger
	perfTracker    *performance.Tracker
}

// NewHarnessHandlers creates harness handlers with injected dependencies
func NewHarnessHandlers(harnessService *services.HarnessService, importService *services.ImportService, maxUploadBytes int64, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *HarnessHandlers {
	return &HarnessHandlers{
		harnessService: harnessService,
		importService:  importService,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
		perfTracker:    perfTracker,
	}
}

// GetContext handles GET /plugin/wireviz/context/:part - the raw plugin context
func (h *HarnessHandlers) GetContext(c *gin.Context) {
	partID, ok := partParam(c, "part")
	if !ok {
		return
	}

	hctx, err := h.harnessService.Context(c.Request.Context(), partID)
	if err != nil {
		respondError(c, h.logger, logging.ChannelHarness, err)
		return
	}
	c.JSON(http.StatusOK, hctx.Map())
}

// GetPanel handles GET /plugin/wireviz/panel/:part - the panel view model
func (h *HarnessHandlers) GetPanel(c *gin.Context) {
	partID, ok := partParam(c, "part")
	if !ok {
		return
	}

	view, err := h.harnessService.View(c.Request.Context(), partID, middleware.GetRole(c).CanEdit())
	if err != nil {
		respondError(c, h.logger, logging.ChannelHarness, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// PostPanel handles POST /plugin/wireviz/panel/ - builds a view from a posted context
func (h *HarnessHandlers) PostPanel(c *gin.Context) {
	var raw map[string]any
	if err := c.ShouldBindJSON(&raw); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Context must be a JSON object"})
		return
	}
	c.JSON(http.StatusOK, h.harnessService.ViewFromMap(raw, middleware.GetRole(c).CanEdit()))
}

// PostUpload handles POST /plugin/wireviz/upload/ - multipart {part, file}
func (h *HarnessHandlers) PostUpload(c *gin.Context) {
	if !limitUpload(c, h.maxUploadBytes) {
		return
	}

	start := time.Now()
	marker := h.perfTracker.StartOperation("post_upload_request", c.PostForm("part"))
	defer marker.Complete()

	partID, err := strconv.ParseInt(c.PostForm("part"), 10, 64)
	if err != nil || partID <= 0 {
		marker.SetSuccess(false)
		c.JSON(http.StatusBadRequest, gin.H{"error": "part is required"})
		return
	}

	filename, data, ok := readUpload(c, "file", h.maxUploadBytes)
	if !ok {
		marker.SetSuccess(false)
		return
	}

	result, err := h.importService.ImportHarness(c.Request.Context(), partID, filename, data)
	if err != nil {
		marker.SetError(err)
		respondError(c, h.logger, logging.ChannelHarness, err)
		return
	}

	h.logger.Perf().Info("Performance for PostUpload request", "duration", time.Since(start), "partId", partID, "success", true)
	c.JSON(http.StatusCreated, gin.H{"part": result.PartID, "context": result.Context.Map()})
}

type deleteRequest struct {
	Part int64 `json:"part" form:"part" binding:"required"`
}

// PostDelete handles POST /plugin/wireviz/delete/ - {part}
func (h *HarnessHandlers) PostDelete(c *gin.Context) {
	var req deleteRequest
	if err := c.ShouldBind(&req); err != nil || req.Part <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "part is required"})
		return
	}

	if err := h.harnessService.Delete(c.Request.Context(), req.Part); err != nil {
		respondError(c, h.logger, logging.ChannelHarness, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"part": req.Part})
}

// uploadFormOverhead allows for multipart framing and small form fields on
// top of the file size limit.
const (
	uploadFormOverhead = 64 << 10
	uploadFormMemory   = 8 << 20
)

// limitUpload caps the request body before the multipart form is parsed and
// answers 413 when the body exceeds the limit.
func limitUpload(c *gin.Context, limit int64) bool {
	if limit <= 0 {
		return true
	}
	ceiling := limit + uploadFormOverhead
	if c.Request.ContentLength > ceiling {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file is too large"})
		return false
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, ceiling)

	if err := c.Request.ParseMultipartForm(uploadFormMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file is too large"})
			return false
		}
	}
	return true
}

// readUpload reads a multipart file field, enforcing the size limit.
func readUpload(c *gin.Context, field string, limit int64) (string, []byte, bool) {
	header, err := c.FormFile(field)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": field + " is required"})
		return "", nil, false
	}
	if limit > 0 && header.Size > limit {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file is too large"})
		return "", nil, false
	}

	file, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unable to read upload"})
		return "", nil, false
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unable to read upload"})
		return "", nil, false
	}
	return header.Filename, data, true
}
