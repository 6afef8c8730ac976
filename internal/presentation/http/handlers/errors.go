// Package handlers provides HTTP request handlers for the presentation layer.
package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/AtRiskMedia/inventree-wireviz-go/internal/application/services"
	"github.com/AtRiskMedia/inventree-wireviz-go/internal/infrastructure/observability/logging"
	"github.com/gin-gonic/gin"
)

// respondError maps service errors onto HTTP responses.
func respondError(c *gin.Context, logger *logging.ChanneledLogger, channel logging.Channel, err error) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error(), "messages": verr.Messages})
	case errors.Is(err, services.ErrPartNotFound),
		errors.Is(err, services.ErrHarnessNotFound),
		errors.Is(err, services.ErrTemplateNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrInvalidSetting), errors.Is(err, services.ErrInvalidFile):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
	default:
		logger.GetChannel(channel).Error("Request failed", "path", c.Request.URL.Path, "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// partParam reads a positive part id from the named path parameter.
func partParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid part id"})
		return 0, false
	}
	return id, true
}
