package handler

import (
	appworkflow "github.com/assetflow/backend/internal/application/workflow"
	"github.com/gin-gonic/gin"
)

// RequestHandler handles product requests and their approval
type RequestHandler struct {
	BaseHandler
	workflowService *appworkflow.Service
}

// NewRequestHandler creates a new RequestHandler
func NewRequestHandler(workflowService *appworkflow.Service) *RequestHandler {
	return &RequestHandler{
		workflowService: workflowService,
	}
}

// Submit files a request for a product. Stock is not reserved.
// POST /requests
func (h *RequestHandler) Submit(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}

	var req appworkflow.SubmitRequestInput
	if !h.BindJSON(c, &req) {
		return
	}

	resp, err := h.workflowService.SubmitRequest(c.Request.Context(), actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, resp)
}

// List returns requests visible to the caller.
// GET /requests
func (h *RequestHandler) List(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}

	var filter appworkflow.RequestListFilter
	if !h.BindQuery(c, &filter) {
		return
	}

	page, err := h.workflowService.ListRequests(c.Request.Context(), actor, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	Page(&h.BaseHandler, c, page)
}

// GetByID returns one request.
// GET /requests/:id
func (h *RequestHandler) GetByID(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	resp, err := h.workflowService.GetRequest(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// Process approves or rejects a pending request. Approval assigns the
// product and takes the units off the shelf.
// POST /requests/:id/decision
func (h *RequestHandler) Process(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	var req appworkflow.DecisionInput
	if !h.BindJSON(c, &req) {
		return
	}

	result, err := h.workflowService.ProcessRequest(c.Request.Context(), actor, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// Reactivate sends a rejected request back to pending.
// POST /requests/:id/reactivate
func (h *RequestHandler) Reactivate(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	resp, err := h.workflowService.ReactivateRequest(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}
