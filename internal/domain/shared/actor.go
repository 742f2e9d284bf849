package shared

import (
	"slices"

	"github.com/google/uuid"
)

// Role is a user's authorization role
type Role string

const (
	RoleEmployee Role = "employee"
	RoleMonitor  Role = "monitor"
	RoleAdmin    Role = "admin"
)

// IsValid checks if the role is known
func (r Role) IsValid() bool {
	switch r {
	case RoleEmployee, RoleMonitor, RoleAdmin:
		return true
	}
	return false
}

// CanProcess reports whether the role may approve, reject and assign
func (r Role) CanProcess() bool {
	return r == RoleMonitor || r == RoleAdmin
}

// Actor is the authenticated identity on whose behalf an operation runs
type Actor struct {
	UserID       uuid.UUID
	Role         Role
	EmployeeID   *uuid.UUID
	DepartmentID *uuid.UUID
}

// HasRole is a set-membership test against an allow-list
func (a Actor) HasRole(allowed ...Role) bool {
	return slices.Contains(allowed, a.Role)
}

// RequireRole returns a PermissionError unless the actor's role is allowed
func (a Actor) RequireRole(allowed ...Role) error {
	if a.HasRole(allowed...) {
		return nil
	}
	return NewPermissionError("role %s is not allowed to perform this action", a.Role)
}

// RequireEmployee returns the actor's Employee record ID or a ValidationError
func (a Actor) RequireEmployee() (uuid.UUID, error) {
	if a.EmployeeID == nil || *a.EmployeeID == uuid.Nil {
		return uuid.Nil, NewValidationError("user has no linked employee record")
	}
	return *a.EmployeeID, nil
}
