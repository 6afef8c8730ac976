// Package middleware provides gin middleware for CORS, authentication and
// request logging.
package middleware

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORSMiddleware allows the host UI origins to call the plugin API. A "*"
// entry allows every origin without credentials; an empty list allows none.
func CORSMiddleware(origins []string) gin.HandlerFunc {
	config := cors.Config{
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{
			"Origin", "Content-Type", "Accept", "Authorization",
			"X-Requested-With", "X-CSRFToken", "Cache-Control",
		},
		ExposeHeaders: []string{"Content-Type", "Cache-Control"},
		MaxAge:        12 * time.Hour,
	}

	switch {
	case containsWildcard(origins):
		config.AllowAllOrigins = true
	case len(origins) == 0:
		config.AllowOriginFunc = func(string) bool { return false }
	default:
		config.AllowOrigins = origins
		config.AllowCredentials = true
	}
	return cors.New(config)
}

func containsWildcard(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}
