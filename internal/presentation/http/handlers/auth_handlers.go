package handlers

import (
	"net/http"

	"github.com/AtRiskMedia/inventree-wireviz-go/internal/application/services"
	"github.com/AtRiskMedia/inventree-wireviz-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/inventree-wireviz-go/internal/infrastructure/observability/performance"
	"github.com/gin-gonic/gin"
)

// AuthHandlers contains the login endpoint
type AuthHandlers struct {
	authService *services.AuthService
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
}

// NewAuthHandlers creates auth handlers with injected dependencies
func NewAuthHandlers(authService *services.AuthService, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *AuthHandlers {
	return &AuthHandlers{
		authService: authService,
		logger:      logger,
		perfTracker: perfTracker,
	}
}

type loginRequest struct {
	Password string `json:"password" form:"password" binding:"required"`
}

// PostLogin handles POST /plugin/wireviz/auth/login - exchanges a password for a token
func (h *AuthHandlers) PostLogin(c *gin.Context) {
	marker := h.perfTracker.StartOperation("post_login_request", c.ClientIP())
	defer marker.Complete()

	var req loginRequest
	if err := c.ShouldBind(&req); err != nil {
		marker.SetSuccess(false)
		c.JSON(http.StatusBadRequest, gin.H{"error": "password is required"})
		return
	}

	result, err := h.authService.Login(req.Password)
	if err != nil {
		marker.SetError(err)
		h.logger.Auth().Info("Login rejected", "clientIp", c.ClientIP())
		respondError(c, h.logger, logging.ChannelAuth, err)
		return
	}

	h.logger.Auth().Info("Login succeeded", "role", string(result.Role), "clientIp", c.ClientIP())
	c.JSON(http.StatusOK, result)
}
