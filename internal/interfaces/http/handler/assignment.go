package handler

import (
	appworkflow "github.com/assetflow/backend/internal/application/workflow"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AssignmentHandler handles assignments, returns and extensions
type AssignmentHandler struct {
	BaseHandler
	workflowService *appworkflow.Service
}

// NewAssignmentHandler creates a new AssignmentHandler
func NewAssignmentHandler(workflowService *appworkflow.Service) *AssignmentHandler {
	return &AssignmentHandler{
		workflowService: workflowService,
	}
}

// Assign hands a product straight to an employee without a request.
// POST /assignments
func (h *AssignmentHandler) Assign(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}

	var req appworkflow.AssignInput
	if !h.BindJSON(c, &req) {
		return
	}

	resp, err := h.workflowService.AssignDirect(c.Request.Context(), actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, resp)
}

// List returns assignments visible to the caller.
// GET /assignments
func (h *AssignmentHandler) List(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}

	var filter appworkflow.AssignmentListFilter
	if !h.BindQuery(c, &filter) {
		return
	}

	page, err := h.workflowService.ListAssignments(c.Request.Context(), actor, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	Page(&h.BaseHandler, c, page)
}

// GetByID returns one assignment.
// GET /assignments/:id
func (h *AssignmentHandler) GetByID(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	resp, err := h.workflowService.GetAssignment(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// RequestReturn asks to hand an assignment back.
// POST /assignments/:id/return
func (h *AssignmentHandler) RequestReturn(c *gin.Context) {
	var req appworkflow.ReturnInput
	h.mutate(c, &req, func(c *gin.Context, id uuid.UUID) (any, error) {
		actor, _ := h.Actor(c)
		return h.workflowService.RequestReturn(c.Request.Context(), actor, id, req)
	})
}

// ProcessReturn approves or rejects a pending return.
// POST /assignments/:id/return/decision
func (h *AssignmentHandler) ProcessReturn(c *gin.Context) {
	var req appworkflow.DecisionInput
	h.mutate(c, &req, func(c *gin.Context, id uuid.UUID) (any, error) {
		actor, _ := h.Actor(c)
		return h.workflowService.ProcessReturn(c.Request.Context(), actor, id, req)
	})
}

// RequestExtension asks for a later due date.
// POST /assignments/:id/extension
func (h *AssignmentHandler) RequestExtension(c *gin.Context) {
	var req appworkflow.ExtensionInput
	h.mutate(c, &req, func(c *gin.Context, id uuid.UUID) (any, error) {
		actor, _ := h.Actor(c)
		return h.workflowService.RequestExtension(c.Request.Context(), actor, id, req)
	})
}

// ProcessExtension approves or rejects a pending extension.
// POST /assignments/:id/extension/decision
func (h *AssignmentHandler) ProcessExtension(c *gin.Context) {
	var req appworkflow.DecisionInput
	h.mutate(c, &req, func(c *gin.Context, id uuid.UUID) (any, error) {
		actor, _ := h.Actor(c)
		return h.workflowService.ProcessExtension(c.Request.Context(), actor, id, req)
	})
}

// mutate runs the shared prologue of the assignment transitions: actor,
// path id and body, then the call itself.
func (h *AssignmentHandler) mutate(c *gin.Context, req any, call func(c *gin.Context, id uuid.UUID) (any, error)) {
	if _, ok := h.Actor(c); !ok {
		return
	}
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	if c.Request.ContentLength != 0 && !h.BindJSON(c, req) {
		return
	}

	resp, err := call(c, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}
