package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/AtRiskMedia/inventree-wireviz-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/inventree-wireviz-go/internal/infrastructure/security"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type staticResolver map[string]security.Role

func (r staticResolver) RoleFromToken(token string) (security.Role, error) {
	if role, ok := r[token]; ok {
		return role, nil
	}
	return "", errors.New("unknown token")
}

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(AuthMiddleware(staticResolver{"a": security.RoleAdmin, "e": security.RoleEditor}, logging.NewDiscardLogger()))
	r.GET("/open", func(c *gin.Context) { c.String(http.StatusOK, string(GetRole(c))) })
	r.GET("/edit", RequireEditor(), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.GET("/admin", RequireAdmin(), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	return r
}

func get(r *gin.Engine, path, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddlewareRoles(t *testing.T) {
	r := newRouter()

	w := get(r, "/open", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.String())

	assert.Equal(t, "editor", get(r, "/open", "Bearer e").Body.String())
	assert.Equal(t, "admin", get(r, "/open?token=a", "").Body.String())
	assert.Equal(t, http.StatusUnauthorized, get(r, "/open", "Bearer bogus").Code)

	assert.Equal(t, http.StatusUnauthorized, get(r, "/edit", "").Code)
	assert.Equal(t, http.StatusNoContent, get(r, "/edit", "Bearer e").Code)
	assert.Equal(t, http.StatusNoContent, get(r, "/edit", "bearer a").Code)

	assert.Equal(t, http.StatusForbidden, get(r, "/admin", "Bearer e").Code)
	assert.Equal(t, http.StatusNoContent, get(r, "/admin", "Bearer a").Code)
}

func TestCORSMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	for name, tc := range map[string]struct {
		origins []string
		origin  string
		allowed string
	}{
		"listed origin":   {[]string{"http://localhost:8000"}, "http://localhost:8000", "http://localhost:8000"},
		"unlisted origin": {[]string{"http://localhost:8000"}, "http://evil.example", ""},
		"wildcard":        {[]string{"*"}, "http://anywhere.example", "*"},
		"no origins":      {nil, "http://localhost:8000", ""},
	} {
		t.Run(name, func(t *testing.T) {
			r := gin.New()
			r.Use(CORSMiddleware(tc.origins))
			r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

			req := httptest.NewRequest(http.MethodGet, "/x", nil)
			req.Header.Set("Origin", tc.origin)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tc.allowed, w.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}
