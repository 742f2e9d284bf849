package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/assetflow/backend/internal/domain/shared"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func routerWithActor(actor *shared.Actor, allowed ...shared.Role) *gin.Engine {
	router := gin.New()
	router.Use(func(c *gin.Context) {
		if actor != nil {
			c.Set(JWTActorKey, *actor)
		}
		c.Next()
	})
	router.GET("/admin", RequireRole(allowed...), func(c *gin.Context) { c.Status(http.StatusOK) })
	return router
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name     string
		actor    *shared.Actor
		allowed  []shared.Role
		expected int
		code     string
	}{
		{"admin allowed", &shared.Actor{UserID: uuid.New(), Role: shared.RoleAdmin}, []shared.Role{shared.RoleAdmin}, http.StatusOK, ""},
		{"monitor in allow-list", &shared.Actor{UserID: uuid.New(), Role: shared.RoleMonitor}, []shared.Role{shared.RoleMonitor, shared.RoleAdmin}, http.StatusOK, ""},
		{"employee denied", &shared.Actor{UserID: uuid.New(), Role: shared.RoleEmployee}, []shared.Role{shared.RoleMonitor, shared.RoleAdmin}, http.StatusForbidden, shared.CodePermissionDenied},
		{"no actor", nil, []shared.Role{shared.RoleAdmin}, http.StatusUnauthorized, shared.CodeUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			routerWithActor(tt.actor, tt.allowed...).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin", nil))

			assert.Equal(t, tt.expected, w.Code)
			if tt.code != "" {
				assert.Equal(t, tt.code, decodeErrorCode(t, w))
			}
		})
	}
}

func TestRequireRole_OnDenied(t *testing.T) {
	called := false
	cfg := PermissionConfig{OnDenied: func(c *gin.Context, allowed []shared.Role) {
		called = true
		assert.Equal(t, []shared.Role{shared.RoleAdmin}, allowed)
		c.AbortWithStatus(http.StatusTeapot)
	}}

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(JWTActorKey, shared.Actor{UserID: uuid.New(), Role: shared.RoleEmployee})
	})
	router.GET("/admin", RequireRoleWithConfig(cfg, shared.RoleAdmin), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin", nil))

	assert.True(t, called)
	assert.Equal(t, http.StatusTeapot, w.Code)
}
