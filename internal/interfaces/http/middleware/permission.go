package middleware

import (
	"net/http"

	"github.com/assetflow/backend/internal/domain/shared"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// PermissionConfig holds configuration for permission middleware
type PermissionConfig struct {
	Logger *zap.Logger
	// OnDenied is called when permission is denied (optional)
	OnDenied func(c *gin.Context, allowed []shared.Role)
}

// RequireRole admits only actors whose role is in allowed
func RequireRole(allowed ...shared.Role) gin.HandlerFunc {
	return RequireRoleWithConfig(PermissionConfig{}, allowed...)
}

// RequireRoleWithConfig is RequireRole with custom config
func RequireRoleWithConfig(cfg PermissionConfig, allowed ...shared.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := GetActor(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error": gin.H{
					"code":    shared.CodeUnauthorized,
					"message": "Authentication required",
				},
			})
			return
		}
		if !actor.HasRole(allowed...) {
			handlePermissionDenied(c, cfg, actor, allowed)
			return
		}
		c.Next()
	}
}

func handlePermissionDenied(c *gin.Context, cfg PermissionConfig, actor shared.Actor, allowed []shared.Role) {
	if cfg.OnDenied != nil {
		cfg.OnDenied(c, allowed)
		return
	}

	if cfg.Logger != nil {
		roles := make([]string, len(allowed))
		for i, r := range allowed {
			roles[i] = string(r)
		}
		cfg.Logger.Warn("Permission denied",
			zap.String("user_id", actor.UserID.String()),
			zap.String("role", string(actor.Role)),
			zap.Strings("allowed_roles", roles),
			zap.String("path", c.Request.URL.Path),
			zap.String("method", c.Request.Method),
		)
	}

	c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
		"success": false,
		"error": gin.H{
			"code":    shared.CodePermissionDenied,
			"message": "Access denied: role not permitted",
		},
	})
}
