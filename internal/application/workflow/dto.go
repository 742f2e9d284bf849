package workflow

import (
	"time"

	"github.com/assetflow/backend/internal/domain/workflow"
	"github.com/google/uuid"
)

// SubmitRequestInput is the payload for filing a product request
type SubmitRequestInput struct {
	ProductID  uuid.UUID  `json:"product_id" binding:"required"`
	Quantity   int        `json:"quantity" binding:"omitempty,min=1,max=10000"`
	Purpose    string     `json:"purpose" binding:"max=1000"`
	ReturnDate *time.Time `json:"return_date"`
}

// DecisionInput is the payload for approving or rejecting a pending item
type DecisionInput struct {
	Action  string `json:"action" binding:"required,oneof=approved rejected"`
	Remarks string `json:"remarks" binding:"max=1000"`
}

// AssignInput is the payload for a direct assignment
type AssignInput struct {
	ProductID  uuid.UUID  `json:"product_id" binding:"required"`
	EmployeeID uuid.UUID  `json:"employee_id" binding:"required"`
	Quantity   int        `json:"quantity" binding:"omitempty,min=1,max=10000"`
	DueDate    *time.Time `json:"due_date"`
}

// ReturnInput is the payload for requesting a return
type ReturnInput struct {
	Remarks string `json:"remarks" binding:"max=1000"`
}

// ExtensionInput is the payload for requesting an extension
type ExtensionInput struct {
	NewReturnDate time.Time `json:"new_return_date" binding:"required"`
	Reason        string    `json:"reason" binding:"max=1000"`
}

// RequestListFilter narrows request listings
type RequestListFilter struct {
	Status       string `form:"status" binding:"omitempty,oneof=pending approved rejected"`
	EmployeeID   string `form:"employee_id" binding:"omitempty,uuid"`
	ProductID    string `form:"product_id" binding:"omitempty,uuid"`
	DepartmentID string `form:"department_id" binding:"omitempty,uuid"`
	Mine         bool   `form:"mine"`
	Page         int    `form:"page" binding:"omitempty,min=1"`
	PageSize     int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy      string `form:"order_by"`
	OrderDir     string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// AssignmentListFilter narrows assignment listings
type AssignmentListFilter struct {
	EmployeeID        string `form:"employee_id" binding:"omitempty,uuid"`
	ProductID         string `form:"product_id" binding:"omitempty,uuid"`
	DepartmentID      string `form:"department_id" binding:"omitempty,uuid"`
	Mine              bool   `form:"mine"`
	Outstanding       *bool  `form:"outstanding"`
	Overdue           bool   `form:"overdue"`
	PendingReturns    bool   `form:"pending_returns"`
	PendingExtensions bool   `form:"pending_extensions"`
	Page              int    `form:"page" binding:"omitempty,min=1"`
	PageSize          int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy           string `form:"order_by"`
	OrderDir          string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// RequestResponse is a product request in API responses
type RequestResponse struct {
	ID          uuid.UUID  `json:"id"`
	EmployeeID  uuid.UUID  `json:"employee_id"`
	RequestedBy uuid.UUID  `json:"requested_by"`
	ProductID   uuid.UUID  `json:"product_id"`
	Quantity    int        `json:"quantity"`
	Purpose     string     `json:"purpose,omitempty"`
	ReturnDate  *time.Time `json:"return_date,omitempty"`
	Status      string     `json:"status"`
	ProcessedBy *uuid.UUID `json:"processed_by,omitempty"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
	Remarks     string     `json:"remarks,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	Version     int        `json:"version"`
}

// ToRequestResponse converts a domain request to its response form
func ToRequestResponse(r *workflow.ProductRequest) RequestResponse {
	return RequestResponse{
		ID:          r.ID,
		EmployeeID:  r.EmployeeID,
		RequestedBy: r.RequestedBy,
		ProductID:   r.ProductID,
		Quantity:    r.Quantity,
		Purpose:     r.Purpose,
		ReturnDate:  r.ReturnDate,
		Status:      string(r.Status),
		ProcessedBy: r.ProcessedBy,
		ProcessedAt: r.ProcessedAt,
		Remarks:     r.Remarks,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
		Version:     r.Version,
	}
}

// AssignmentResponse is an assignment in API responses
type AssignmentResponse struct {
	ID                   uuid.UUID  `json:"id"`
	ProductID            uuid.UUID  `json:"product_id"`
	EmployeeID           uuid.UUID  `json:"employee_id"`
	MonitorID            uuid.UUID  `json:"monitor_id"`
	RequestID            *uuid.UUID `json:"request_id,omitempty"`
	Quantity             int        `json:"quantity"`
	AssignedAt           time.Time  `json:"assigned_at"`
	DueDate              *time.Time `json:"due_date,omitempty"`
	IsReturned           bool       `json:"is_returned"`
	IsOverdue            bool       `json:"is_overdue"`
	ReturnStatus         string     `json:"return_status"`
	ReturnRequestedAt    *time.Time `json:"return_requested_at,omitempty"`
	ReturnRemarks        string     `json:"return_remarks,omitempty"`
	ReturnedAt           *time.Time `json:"returned_at,omitempty"`
	ReturnedTo           *uuid.UUID `json:"returned_to,omitempty"`
	ExtensionStatus      string     `json:"extension_status"`
	ExtensionReason      string     `json:"extension_reason,omitempty"`
	NewReturnDate        *time.Time `json:"new_return_date,omitempty"`
	ExtensionProcessedAt *time.Time `json:"extension_processed_at,omitempty"`
	ExtensionRemarks     string     `json:"extension_remarks,omitempty"`
	Version              int        `json:"version"`
}

// ToAssignmentResponse converts a domain assignment to its response form
func ToAssignmentResponse(a *workflow.Assignment, now time.Time) AssignmentResponse {
	return AssignmentResponse{
		ID:                   a.ID,
		ProductID:            a.ProductID,
		EmployeeID:           a.EmployeeID,
		MonitorID:            a.MonitorID,
		RequestID:            a.RequestID,
		Quantity:             a.Quantity,
		AssignedAt:           a.AssignedAt,
		DueDate:              a.DueDate,
		IsReturned:           a.IsReturned,
		IsOverdue:            a.IsOverdue(now),
		ReturnStatus:         string(a.ReturnStatus),
		ReturnRequestedAt:    a.ReturnRequestedAt,
		ReturnRemarks:        a.ReturnRemarks,
		ReturnedAt:           a.ReturnedAt,
		ReturnedTo:           a.ReturnedTo,
		ExtensionStatus:      string(a.ExtensionStatus),
		ExtensionReason:      a.ExtensionReason,
		NewReturnDate:        a.NewReturnDate,
		ExtensionProcessedAt: a.ExtensionProcessedAt,
		ExtensionRemarks:     a.ExtensionRemarks,
		Version:              a.Version,
	}
}

// ProcessRequestResult carries the processed request and, on approval, the new assignment
type ProcessRequestResult struct {
	Request    RequestResponse     `json:"request"`
	Assignment *AssignmentResponse `json:"assignment,omitempty"`
	Remaining  *int                `json:"remaining_quantity,omitempty"`
}

// ClearanceResponse reports whether a user may be deactivated
type ClearanceResponse struct {
	UserID      uuid.UUID `json:"user_id"`
	Outstanding int64     `json:"outstanding"`
	Cleared     bool      `json:"cleared"`
}
