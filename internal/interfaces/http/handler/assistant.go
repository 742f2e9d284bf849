package handler

import (
	appassistant "github.com/assetflow/backend/internal/application/assistant"
	"github.com/gin-gonic/gin"
)

// AssistantHandler answers questions about the caller's requests and assignments
type AssistantHandler struct {
	BaseHandler
	assistantService *appassistant.Service
}

// NewAssistantHandler creates a new AssistantHandler
func NewAssistantHandler(assistantService *appassistant.Service) *AssistantHandler {
	return &AssistantHandler{
		assistantService: assistantService,
	}
}

// Ask answers one message.
// POST /assistant/ask
func (h *AssistantHandler) Ask(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}

	var req appassistant.AskInput
	if !h.BindJSON(c, &req) {
		return
	}

	resp, err := h.assistantService.Ask(c.Request.Context(), actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}
