package handler

import (
	appactivity "github.com/assetflow/backend/internal/application/activity"
	"github.com/gin-gonic/gin"
)

// ActivityHandler reads the activity log
type ActivityHandler struct {
	BaseHandler
	activityService *appactivity.Service
}

// NewActivityHandler creates a new ActivityHandler
func NewActivityHandler(activityService *appactivity.Service) *ActivityHandler {
	return &ActivityHandler{
		activityService: activityService,
	}
}

// List pages through activity entries, newest first.
// GET /activity
func (h *ActivityHandler) List(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}

	var filter appactivity.ListFilter
	if !h.BindQuery(c, &filter) {
		return
	}

	page, err := h.activityService.List(c.Request.Context(), actor, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	Page(&h.BaseHandler, c, page)
}
