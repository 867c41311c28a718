package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go-coffee-pos/internal/auth"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(tokens *auth.Tokens) *gin.Engine {
	r := gin.New()
	r.Use(RequestID())
	api := r.Group("/api", AuthMiddleware(tokens))
	api.GET("/me", func(c *gin.Context) {
		p := CurrentPrincipal(c)
		c.JSON(http.StatusOK, gin.H{"user_id": p.UserID, "role": p.Role, "branch_id": p.BranchID})
	})
	api.GET("/admin", RequireRole(auth.RoleAdmin), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	api.GET("/stock", RequireRole(auth.RoleAdmin, auth.RoleBranchManager), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	return r
}

func do(r http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	tokens := auth.NewTokens("test-secret", time.Hour)
	r := newRouter(tokens)

	assert.Equal(t, http.StatusUnauthorized, do(r, "/api/me", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, "/api/me", "not-a-jwt").Code)

	forged, err := auth.NewTokens("other-secret", time.Hour).GenerateToken(1, "a@b.c", auth.RoleAdmin, 1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, do(r, "/api/me", forged).Code)

	unknownRole, err := tokens.GenerateToken(1, "a@b.c", auth.Role("barista"), 1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, do(r, "/api/me", unknownRole).Code)

	tok, err := tokens.GenerateToken(7, "kasa@kahve.test", auth.RoleCashier, 3)
	require.NoError(t, err)
	w := do(r, "/api/me", tok)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":7,"role":"cashier","branch_id":3}`, w.Body.String())

	w = do(r, "/api/me?token="+tok, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireRole(t *testing.T) {
	tokens := auth.NewTokens("test-secret", time.Hour)
	r := newRouter(tokens)

	cashier, _ := tokens.GenerateToken(1, "c@kahve.test", auth.RoleCashier, 1)
	manager, _ := tokens.GenerateToken(2, "m@kahve.test", auth.RoleBranchManager, 1)
	admin, _ := tokens.GenerateToken(3, "a@kahve.test", auth.RoleAdmin, 0)

	assert.Equal(t, http.StatusForbidden, do(r, "/api/admin", cashier).Code)
	assert.Equal(t, http.StatusForbidden, do(r, "/api/admin", manager).Code)
	assert.Equal(t, http.StatusNoContent, do(r, "/api/admin", admin).Code)

	assert.Equal(t, http.StatusForbidden, do(r, "/api/stock", cashier).Code)
	assert.Equal(t, http.StatusNoContent, do(r, "/api/stock", manager).Code)
}

func TestRequestIDEchoed(t *testing.T) {
	r := newRouter(auth.NewTokens("s", time.Hour))

	w := do(r, "/api/me", "")
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}
