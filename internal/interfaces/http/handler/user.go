package handler

import (
	"github.com/assetflow/backend/internal/application/identity"
	appworkflow "github.com/assetflow/backend/internal/application/workflow"
	"github.com/assetflow/backend/internal/domain/shared"
	"github.com/gin-gonic/gin"
)

// UserHandler handles account administration
type UserHandler struct {
	BaseHandler
	userService     *identity.UserService
	workflowService *appworkflow.Service
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userService *identity.UserService, workflowService *appworkflow.Service) *UserHandler {
	return &UserHandler{
		userService:     userService,
		workflowService: workflowService,
	}
}

// List returns accounts.
// GET /users
func (h *UserHandler) List(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}

	var filter identity.UserListFilter
	if !h.BindQuery(c, &filter) {
		return
	}

	page, err := h.userService.ListUsers(c.Request.Context(), actor, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	Page(&h.BaseHandler, c, page)
}

// GetByID returns one account.
// GET /users/:id
func (h *UserHandler) GetByID(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	user, err := h.userService.GetUser(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, user)
}

// ChangeRole moves a user between employee and monitor.
// PUT /users/:id/role
func (h *UserHandler) ChangeRole(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	var req identity.ChangeRoleInput
	if !h.BindJSON(c, &req) {
		return
	}

	user, err := h.userService.ChangeRole(c.Request.Context(), actor, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, user)
}

// Deactivate disables an account once it holds no products.
// POST /users/:id/deactivate
func (h *UserHandler) Deactivate(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	user, err := h.userService.Deactivate(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, user)
}

// Reactivate re-enables an account.
// POST /users/:id/activate
func (h *UserHandler) Reactivate(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	user, err := h.userService.Reactivate(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, user)
}

// Clearance reports how many assignments a user still holds. Employees may
// only check themselves.
// GET /users/:id/clearance
func (h *UserHandler) Clearance(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	if actor.UserID != id && !actor.HasRole(shared.RoleAdmin, shared.RoleMonitor) {
		h.Forbidden(c, "Cannot check another user's clearance")
		return
	}

	clearance, err := h.workflowService.CheckClearance(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, clearance)
}
