package workflow

import (
	"time"

	"github.com/assetflow/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Aggregate type constants
const (
	AggregateTypeRequest    = "ProductRequest"
	AggregateTypeAssignment = "ProductAssignment"
)

// Event type constants. The values double as live-feed event names.
const (
	EventRequestSubmitted   = "request_submitted"
	EventRequestApproved    = "request_approved"
	EventRequestRejected    = "request_rejected"
	EventRequestReactivated = "request_reactivated"
	EventProductAssigned    = "product_assigned"
	EventReturnRequested    = "return_requested"
	EventReturnApproved     = "return_approved"
	EventReturnRejected     = "return_rejected"
	EventExtensionRequested = "extension_requested"
	EventExtensionApproved  = "extension_approved"
	EventExtensionRejected  = "extension_rejected"
)

// RequestEvent is raised on every product request transition
type RequestEvent struct {
	shared.BaseDomainEvent
	RequestID  uuid.UUID     `json:"request_id"`
	EmployeeID uuid.UUID     `json:"employee_id"`
	ProductID  uuid.UUID     `json:"product_id"`
	Quantity   int           `json:"quantity"`
	Status     RequestStatus `json:"status"`
	Remarks    string        `json:"remarks,omitempty"`
}

func newRequestEvent(eventType string, r *ProductRequest, actorID uuid.UUID) *RequestEvent {
	return &RequestEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, AggregateTypeRequest, r.ID, actorID),
		RequestID:       r.ID,
		EmployeeID:      r.EmployeeID,
		ProductID:       r.ProductID,
		Quantity:        r.Quantity,
		Status:          r.Status,
		Remarks:         r.Remarks,
	}
}

// AssignmentEvent is raised on every assignment transition
type AssignmentEvent struct {
	shared.BaseDomainEvent
	AssignmentID uuid.UUID  `json:"assignment_id"`
	EmployeeID   uuid.UUID  `json:"employee_id"`
	ProductID    uuid.UUID  `json:"product_id"`
	MonitorID    uuid.UUID  `json:"monitor_id"`
	RequestID    *uuid.UUID `json:"request_id,omitempty"`
	Quantity     int        `json:"quantity"`
	DueDate      *time.Time `json:"due_date,omitempty"`
	Remarks      string     `json:"remarks,omitempty"`
}

func newAssignmentEvent(eventType string, a *Assignment, actorID uuid.UUID, remarks string) *AssignmentEvent {
	return &AssignmentEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, AggregateTypeAssignment, a.ID, actorID),
		AssignmentID:    a.ID,
		EmployeeID:      a.EmployeeID,
		ProductID:       a.ProductID,
		MonitorID:       a.MonitorID,
		RequestID:       a.RequestID,
		Quantity:        a.Quantity,
		DueDate:         a.DueDate,
		Remarks:         remarks,
	}
}
