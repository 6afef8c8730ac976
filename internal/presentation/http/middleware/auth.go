package middleware

import (
	"net/http"
	"strings"

	"github.com/AtRiskMedia/inventree-wireviz-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/inventree-wireviz-go/internal/infrastructure/security"
	"github.com/gin-gonic/gin"
)

const roleKey = "wireviz.role"

// RoleResolver validates a bearer token.
type RoleResolver interface {
	RoleFromToken(token string) (security.Role, error)
}

// AuthMiddleware attaches the caller's role when a valid token is present.
// Requests without a token continue anonymously; invalid tokens are
// rejected. Browsers cannot set headers on websocket upgrades, so a token
// query parameter is accepted as well.
func AuthMiddleware(resolver RoleResolver, logger *logging.ChanneledLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.Next()
			return
		}

		role, err := resolver.RoleFromToken(token)
		if err != nil {
			logger.Auth().Debug("Rejected token", "path", c.Request.URL.Path, "error", err.Error())
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}
		c.Set(roleKey, role)
		c.Next()
	}
}

// RequireEditor rejects callers that may not change harness data.
func RequireEditor() gin.HandlerFunc {
	return require(func(r security.Role) bool { return r.CanEdit() })
}

// RequireAdmin rejects callers that may not manage templates and settings.
func RequireAdmin() gin.HandlerFunc {
	return require(func(r security.Role) bool { return r.IsAdmin() })
}

// GetRole returns the authenticated role, empty for anonymous callers.
func GetRole(c *gin.Context) security.Role {
	if value, ok := c.Get(roleKey); ok {
		if role, ok := value.(security.Role); ok {
			return role
		}
	}
	return ""
}

func require(allowed func(security.Role) bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := GetRole(c)
		if role == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			return
		}
		if !allowed(role) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
			return
		}
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return c.Query("token")
}
