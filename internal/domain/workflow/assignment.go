package workflow

import (
	"strings"
	"time"

	"github.com/assetflow/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// LifecycleStatus is the state of a return or extension sub-process on an assignment.
// The same enum is used for both so stored values stay uniform.
type LifecycleStatus string

const (
	LifecycleNone      LifecycleStatus = "none"
	LifecycleRequested LifecycleStatus = "requested"
	LifecycleApproved  LifecycleStatus = "approved"
	LifecycleRejected  LifecycleStatus = "rejected"
)

// IsValid checks if the status is a valid LifecycleStatus
func (s LifecycleStatus) IsValid() bool {
	switch s {
	case LifecycleNone, LifecycleRequested, LifecycleApproved, LifecycleRejected:
		return true
	}
	return false
}

// String returns the string representation of LifecycleStatus
func (s LifecycleStatus) String() string {
	return string(s)
}

// Assignment is the record of a product handed to an employee by a monitor.
// It is never deleted.
type Assignment struct {
	shared.BaseAggregateRoot
	ProductID  uuid.UUID
	EmployeeID uuid.UUID
	MonitorID  uuid.UUID
	RequestID  *uuid.UUID
	Quantity   int
	AssignedAt time.Time
	DueDate    *time.Time
	IsReturned bool

	ReturnStatus      LifecycleStatus
	ReturnRequestedBy *uuid.UUID
	ReturnRequestedAt *time.Time
	ReturnRemarks     string
	ReturnedAt        *time.Time
	ReturnedTo        *uuid.UUID

	ExtensionStatus      LifecycleStatus
	ExtensionReason      string
	NewReturnDate        *time.Time
	ExtensionRequestedBy *uuid.UUID
	ExtensionProcessedBy *uuid.UUID
	ExtensionProcessedAt *time.Time
	ExtensionRemarks     string
}

// NewAssignment creates an active assignment. Stock must be decremented by the
// caller within the same transaction.
func NewAssignment(productID, employeeID uuid.UUID, monitor shared.Actor, requestID *uuid.UUID, quantity int, dueDate *time.Time, now time.Time) (*Assignment, error) {
	if err := monitor.RequireRole(shared.RoleMonitor, shared.RoleAdmin); err != nil {
		return nil, err
	}
	if productID == uuid.Nil {
		return nil, shared.NewValidationError("product is required")
	}
	if employeeID == uuid.Nil {
		return nil, shared.NewValidationError("employee is required")
	}
	if quantity <= 0 {
		return nil, shared.NewValidationError("quantity must be positive")
	}

	a := &Assignment{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ProductID:         productID,
		EmployeeID:        employeeID,
		MonitorID:         monitor.UserID,
		RequestID:         requestID,
		Quantity:          quantity,
		AssignedAt:        now,
		DueDate:           dueDate,
		ReturnStatus:      LifecycleNone,
		ExtensionStatus:   LifecycleNone,
	}
	a.AddDomainEvent(newAssignmentEvent(EventProductAssigned, a, monitor.UserID, ""))
	return a, nil
}

// ValidateDueDate rejects a due date before today. Approval inherits the
// requested return date as-is, so only direct assignment calls this.
func ValidateDueDate(due *time.Time, now time.Time) error {
	if due != nil && due.Before(startOfDay(now)) {
		return shared.NewValidationError("due date cannot be in the past")
	}
	return nil
}

// IsOutstanding reports whether the product is still held by the employee
func (a *Assignment) IsOutstanding() bool {
	return !a.IsReturned
}

// IsOverdue reports whether an outstanding assignment is past its due date
func (a *Assignment) IsOverdue(now time.Time) bool {
	return a.IsOutstanding() && a.DueDate != nil && a.DueDate.Before(now)
}

func (a *Assignment) requireOwner(actor shared.Actor) error {
	if actor.EmployeeID == nil || *actor.EmployeeID != a.EmployeeID {
		return shared.NewPermissionError("assignment belongs to another employee")
	}
	return nil
}

// RequestReturn moves return_status from none to requested. Only the holder may ask.
func (a *Assignment) RequestReturn(actor shared.Actor, remarks string, now time.Time) error {
	if err := a.requireOwner(actor); err != nil {
		return err
	}
	if a.IsReturned {
		return shared.NewInvalidStateError("assignment has already been returned")
	}
	if a.ReturnStatus != LifecycleNone {
		return shared.NewInvalidStateError("return already %s for this assignment", a.ReturnStatus)
	}

	a.ReturnStatus = LifecycleRequested
	a.ReturnRequestedBy = &actor.UserID
	a.ReturnRequestedAt = &now
	a.ReturnRemarks = strings.TrimSpace(remarks)
	a.touch(now)
	a.AddDomainEvent(newAssignmentEvent(EventReturnRequested, a, actor.UserID, a.ReturnRemarks))
	return nil
}

// ProcessReturn approves or rejects a pending return. Approval is terminal and
// requires the caller to restore stock in the same transaction; rejection
// resets the status to none and keeps the assignment active.
func (a *Assignment) ProcessReturn(decision Decision, processor shared.Actor, remarks string, now time.Time) error {
	if err := processor.RequireRole(shared.RoleMonitor, shared.RoleAdmin); err != nil {
		return err
	}
	if a.IsReturned || a.ReturnStatus != LifecycleRequested {
		return shared.NewInvalidStateError("no pending return request on this assignment")
	}
	if a.ReturnRequestedBy != nil && *a.ReturnRequestedBy == processor.UserID {
		return shared.NewPermissionError("cannot process your own return request")
	}

	remarks = strings.TrimSpace(remarks)
	switch decision {
	case DecisionApproved:
		a.ReturnStatus = LifecycleApproved
		a.IsReturned = true
		a.ReturnedAt = &now
		a.ReturnedTo = &processor.UserID
		if remarks != "" {
			a.ReturnRemarks = remarks
		}
		a.touch(now)
		a.AddDomainEvent(newAssignmentEvent(EventReturnApproved, a, processor.UserID, remarks))
	case DecisionRejected:
		a.ReturnStatus = LifecycleNone
		a.ReturnRequestedBy = nil
		a.ReturnRequestedAt = nil
		a.ReturnRemarks = remarks
		a.touch(now)
		a.AddDomainEvent(newAssignmentEvent(EventReturnRejected, a, processor.UserID, remarks))
	default:
		return shared.NewValidationError("unknown decision %q", decision)
	}
	return nil
}

// RequestExtension asks to keep the product until newDate. A new round may
// start after a previous one was approved or rejected. It is refused while a
// return is pending.
func (a *Assignment) RequestExtension(actor shared.Actor, newDate time.Time, reason string, now time.Time) error {
	if err := a.requireOwner(actor); err != nil {
		return err
	}
	if a.IsReturned {
		return shared.NewInvalidStateError("assignment has already been returned")
	}
	if a.ReturnStatus == LifecycleRequested {
		return shared.NewInvalidStateError("a return is already pending for this assignment")
	}
	if a.ExtensionStatus == LifecycleRequested {
		return shared.NewInvalidStateError("an extension request is already pending")
	}
	if newDate.Before(startOfDay(now)) {
		return shared.NewValidationError("new return date cannot be in the past")
	}
	if a.DueDate != nil && !newDate.After(*a.DueDate) {
		return shared.NewValidationError("new return date must be after the current due date")
	}

	a.ExtensionStatus = LifecycleRequested
	a.ExtensionReason = strings.TrimSpace(reason)
	a.NewReturnDate = &newDate
	a.ExtensionRequestedBy = &actor.UserID
	a.ExtensionProcessedBy = nil
	a.ExtensionProcessedAt = nil
	a.ExtensionRemarks = ""
	a.touch(now)
	a.AddDomainEvent(newAssignmentEvent(EventExtensionRequested, a, actor.UserID, a.ExtensionReason))
	return nil
}

// ProcessExtension approves (adopting the new return date) or rejects (keeping
// the original date) a pending extension request.
func (a *Assignment) ProcessExtension(decision Decision, processor shared.Actor, remarks string, now time.Time) error {
	if err := processor.RequireRole(shared.RoleMonitor, shared.RoleAdmin); err != nil {
		return err
	}
	if a.IsReturned || a.ExtensionStatus != LifecycleRequested {
		return shared.NewInvalidStateError("no pending extension request on this assignment")
	}
	if a.ExtensionRequestedBy != nil && *a.ExtensionRequestedBy == processor.UserID {
		return shared.NewPermissionError("cannot process your own extension request")
	}

	a.ExtensionProcessedBy = &processor.UserID
	a.ExtensionProcessedAt = &now
	a.ExtensionRemarks = strings.TrimSpace(remarks)

	switch decision {
	case DecisionApproved:
		a.ExtensionStatus = LifecycleApproved
		due := *a.NewReturnDate
		a.DueDate = &due
		a.touch(now)
		a.AddDomainEvent(newAssignmentEvent(EventExtensionApproved, a, processor.UserID, a.ExtensionRemarks))
	case DecisionRejected:
		a.ExtensionStatus = LifecycleRejected
		a.touch(now)
		a.AddDomainEvent(newAssignmentEvent(EventExtensionRejected, a, processor.UserID, a.ExtensionRemarks))
	default:
		return shared.NewValidationError("unknown decision %q", decision)
	}
	return nil
}

func (a *Assignment) touch(now time.Time) {
	a.UpdatedAt = now
	a.IncrementVersion()
}
