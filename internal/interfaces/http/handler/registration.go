package handler

import (
	"github.com/assetflow/backend/internal/application/identity"
	"github.com/gin-gonic/gin"
)

// RegistrationHandler handles public sign-ups and their review
type RegistrationHandler struct {
	BaseHandler
	registrationService *identity.RegistrationService
}

// NewRegistrationHandler creates a new RegistrationHandler
func NewRegistrationHandler(registrationService *identity.RegistrationService) *RegistrationHandler {
	return &RegistrationHandler{
		registrationService: registrationService,
	}
}

// Submit files a sign-up. No authentication is required.
// POST /registrations
func (h *RegistrationHandler) Submit(c *gin.Context) {
	var req identity.RegistrationInput
	if !h.BindJSON(c, &req) {
		return
	}

	reg, err := h.registrationService.Submit(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, reg)
}

// List returns sign-ups for review.
// GET /registrations
func (h *RegistrationHandler) List(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}

	var filter identity.RegistrationListFilter
	if !h.BindQuery(c, &filter) {
		return
	}

	page, err := h.registrationService.List(c.Request.Context(), actor, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	Page(&h.BaseHandler, c, page)
}

// Process approves or rejects a pending sign-up.
// POST /registrations/:id/decision
func (h *RegistrationHandler) Process(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	var req identity.RegistrationDecisionInput
	if !h.BindJSON(c, &req) {
		return
	}

	reg, err := h.registrationService.Process(c.Request.Context(), actor, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, reg)
}
