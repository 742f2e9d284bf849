package handler

import (
	"github.com/assetflow/backend/internal/application/identity"
	"github.com/assetflow/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// AuthHandler handles login, logout and the caller's own account
type AuthHandler struct {
	BaseHandler
	authService *identity.AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *identity.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// Login exchanges credentials for an access token.
// POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req identity.LoginInput
	if !h.BindJSON(c, &req) {
		return
	}

	result, err := h.authService.Login(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// Logout revokes the presented token.
// POST /auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	claims := middleware.GetJWTClaims(c)
	if claims == nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	if err := h.authService.Logout(c.Request.Context(), claims); err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, gin.H{"message": "Logged out successfully"})
}

// GetCurrentUser returns the authenticated account.
// GET /auth/me
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}

	user, err := h.authService.CurrentUser(c.Request.Context(), actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, user)
}

// ChangePassword replaces the caller's password.
// PUT /auth/password
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}

	var req identity.ChangePasswordInput
	if !h.BindJSON(c, &req) {
		return
	}

	if err := h.authService.ChangePassword(c.Request.Context(), actor, req); err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, gin.H{"message": "Password changed successfully"})
}
