package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"istas_backend/internal/config"
	"istas_backend/internal/model"
	"istas_backend/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.JWT.Secret = "0123456789abcdef0123456789abcdef"
	return cfg
}

func tokenFor(t *testing.T, cfg *config.Config, role model.UserRole) string {
	t.Helper()
	u := &model.User{TenantID: "acme", Role: role}
	u.ID = 1
	token, err := util.GenerateJWT(u, cfg.JWT.Secret, time.Hour)
	require.NoError(t, err)
	return token
}

func newRouter(cfg *config.Config) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	ok := func(c *gin.Context) { c.Status(http.StatusOK) }
	r.GET("/any", AuthMiddleware(cfg), ok)
	r.GET("/admin", AuthMiddleware(cfg), RoleMiddleware(), ok)
	r.GET("/analyst", AuthMiddleware(cfg), RoleMiddleware(model.Analyst), ok)
	return r
}

func do(r *gin.Engine, path, token string) int {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func TestAuthMiddleware(t *testing.T) {
	cfg := testConfig()
	r := newRouter(cfg)

	assert.Equal(t, http.StatusUnauthorized, do(r, "/any", ""))
	assert.Equal(t, http.StatusUnauthorized, do(r, "/any", "garbage"))
	assert.Equal(t, http.StatusOK, do(r, "/any", tokenFor(t, cfg, model.Viewer)))
}

func TestRoleMiddleware(t *testing.T) {
	cfg := testConfig()
	r := newRouter(cfg)

	assert.Equal(t, http.StatusForbidden, do(r, "/admin", tokenFor(t, cfg, model.Analyst)))
	assert.Equal(t, http.StatusOK, do(r, "/admin", tokenFor(t, cfg, model.Admin)))
	assert.Equal(t, http.StatusForbidden, do(r, "/analyst", tokenFor(t, cfg, model.Viewer)))
	assert.Equal(t, http.StatusOK, do(r, "/analyst", tokenFor(t, cfg, model.Analyst)))
	assert.Equal(t, http.StatusOK, do(r, "/analyst", tokenFor(t, cfg, model.Admin)))
}
