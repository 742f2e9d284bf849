package workflow

import (
	"strings"
	"time"

	"github.com/assetflow/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// RequestStatus represents the status of a product request
type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "pending"
	RequestStatusApproved RequestStatus = "approved"
	RequestStatusRejected RequestStatus = "rejected"
)

// IsValid checks if the status is a valid RequestStatus
func (s RequestStatus) IsValid() bool {
	switch s {
	case RequestStatusPending, RequestStatusApproved, RequestStatusRejected:
		return true
	}
	return false
}

// String returns the string representation of RequestStatus
func (s RequestStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status.
// Approved is terminal; rejected may only go back to pending via reactivation.
func (s RequestStatus) CanTransitionTo(target RequestStatus) bool {
	switch s {
	case RequestStatusPending:
		return target == RequestStatusApproved || target == RequestStatusRejected
	case RequestStatusRejected:
		return target == RequestStatusPending
	}
	return false
}

// Decision is the monitor's verdict on a pending item
type Decision string

const (
	DecisionApproved Decision = "approved"
	DecisionRejected Decision = "rejected"
)

// ParseDecision validates a decision string
func ParseDecision(s string) (Decision, error) {
	switch Decision(strings.ToLower(strings.TrimSpace(s))) {
	case DecisionApproved:
		return DecisionApproved, nil
	case DecisionRejected:
		return DecisionRejected, nil
	}
	return "", shared.NewValidationError("action must be approved or rejected, got %q", s)
}

// MaxPurposeLength bounds the free-text purpose of a request
const MaxPurposeLength = 1000

// ProductRequest is an employee's ask for a quantity of a product
type ProductRequest struct {
	shared.BaseAggregateRoot
	EmployeeID  uuid.UUID
	RequestedBy uuid.UUID // user who filed the request
	ProductID   uuid.UUID
	Quantity    int
	Purpose     string
	ReturnDate  *time.Time
	Status      RequestStatus
	ProcessedBy *uuid.UUID
	ProcessedAt *time.Time
	Remarks     string
}

// NewProductRequest creates a pending request. Stock is not reserved.
func NewProductRequest(employeeID, requestedBy, productID uuid.UUID, quantity int, purpose string, returnDate *time.Time, now time.Time) (*ProductRequest, error) {
	if employeeID == uuid.Nil {
		return nil, shared.NewValidationError("employee is required")
	}
	if productID == uuid.Nil {
		return nil, shared.NewValidationError("product is required")
	}
	if quantity == 0 {
		quantity = 1
	}
	if quantity < 0 {
		return nil, shared.NewValidationError("quantity must be positive")
	}
	purpose = strings.TrimSpace(purpose)
	if len(purpose) > MaxPurposeLength {
		return nil, shared.NewValidationError("purpose cannot exceed %d characters", MaxPurposeLength)
	}
	if returnDate != nil && returnDate.Before(startOfDay(now)) {
		return nil, shared.NewValidationError("return date cannot be in the past")
	}

	r := &ProductRequest{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		EmployeeID:        employeeID,
		RequestedBy:       requestedBy,
		ProductID:         productID,
		Quantity:          quantity,
		Purpose:           purpose,
		ReturnDate:        returnDate,
		Status:            RequestStatusPending,
	}
	r.AddDomainEvent(newRequestEvent(EventRequestSubmitted, r, requestedBy))
	return r, nil
}

// IsPending reports whether the request awaits a decision
func (r *ProductRequest) IsPending() bool {
	return r.Status == RequestStatusPending
}

// Process applies a monitor decision. The caller is responsible for creating
// the assignment and decrementing stock in the same transaction on approval.
func (r *ProductRequest) Process(decision Decision, processor shared.Actor, remarks string, now time.Time) error {
	if err := processor.RequireRole(shared.RoleMonitor, shared.RoleAdmin); err != nil {
		return err
	}
	if processor.UserID == r.RequestedBy {
		return shared.NewPermissionError("cannot process your own request")
	}

	target := RequestStatus(decision)
	if !r.Status.CanTransitionTo(target) || target == RequestStatusPending {
		return shared.NewInvalidStateError("cannot %s a request in %s status", verb(decision), r.Status)
	}

	r.Status = target
	r.ProcessedBy = &processor.UserID
	r.ProcessedAt = &now
	r.Remarks = strings.TrimSpace(remarks)
	r.UpdatedAt = now
	r.IncrementVersion()

	if decision == DecisionApproved {
		r.AddDomainEvent(newRequestEvent(EventRequestApproved, r, processor.UserID))
	} else {
		r.AddDomainEvent(newRequestEvent(EventRequestRejected, r, processor.UserID))
	}
	return nil
}

// Reactivate resets a rejected request to pending. Only the requester may do so.
func (r *ProductRequest) Reactivate(actor shared.Actor, now time.Time) error {
	if actor.UserID != r.RequestedBy && !actor.HasRole(shared.RoleAdmin) {
		return shared.NewPermissionError("only the requester can reactivate this request")
	}
	if !r.Status.CanTransitionTo(RequestStatusPending) {
		return shared.NewInvalidStateError("only rejected requests can be reactivated, request is %s", r.Status)
	}

	r.Status = RequestStatusPending
	r.ProcessedBy = nil
	r.ProcessedAt = nil
	r.Remarks = ""
	r.UpdatedAt = now
	r.IncrementVersion()
	r.AddDomainEvent(newRequestEvent(EventRequestReactivated, r, actor.UserID))
	return nil
}

func verb(d Decision) string {
	if d == DecisionApproved {
		return "approve"
	}
	return "reject"
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
