package handler

import (
	"github.com/assetflow/backend/internal/application/identity"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// DepartmentHandler handles departments and their monitor links
type DepartmentHandler struct {
	BaseHandler
	departmentService *identity.DepartmentService
}

// NewDepartmentHandler creates a new DepartmentHandler
func NewDepartmentHandler(departmentService *identity.DepartmentService) *DepartmentHandler {
	return &DepartmentHandler{
		departmentService: departmentService,
	}
}

// Create adds a department.
// POST /departments
func (h *DepartmentHandler) Create(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}

	var req identity.DepartmentInput
	if !h.BindJSON(c, &req) {
		return
	}

	dept, err := h.departmentService.CreateDepartment(c.Request.Context(), actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, dept)
}

// List returns every department. Registration forms read it too.
// GET /departments
func (h *DepartmentHandler) List(c *gin.Context) {
	depts, err := h.departmentService.ListDepartments(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, depts)
}

// AssignMonitor makes a monitor responsible for a department.
// POST /monitor-links
func (h *DepartmentHandler) AssignMonitor(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}

	var req identity.MonitorLinkInput
	if !h.BindJSON(c, &req) {
		return
	}

	link, err := h.departmentService.AssignMonitor(c.Request.Context(), actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, link)
}

// UnassignMonitor removes a monitor link.
// DELETE /departments/:id/monitors/:monitor_id
func (h *DepartmentHandler) UnassignMonitor(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	deptID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	monitorID, ok := h.ParamID(c, "monitor_id")
	if !ok {
		return
	}

	if err := h.departmentService.UnassignMonitor(c.Request.Context(), actor, monitorID, deptID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// ListMonitorLinks returns monitor links, optionally for one department.
// GET /monitor-links
func (h *DepartmentHandler) ListMonitorLinks(c *gin.Context) {
	var deptID *uuid.UUID
	if raw := c.Query("department_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			h.BadRequest(c, "Invalid department_id format")
			return
		}
		deptID = &id
	}

	links, err := h.departmentService.ListMonitorLinks(c.Request.Context(), deptID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, links)
}
