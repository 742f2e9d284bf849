package identity

import (
	"strings"
	"time"

	"github.com/assetflow/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Employee extends a User whose role is employee or monitor with the
// organisational data the workflow needs.
type Employee struct {
	shared.BaseEntity
	UserID       uuid.UUID
	FullName     string
	Phone        string
	DepartmentID uuid.UUID
}

// NewEmployee creates the employee record for a user
func NewEmployee(userID uuid.UUID, fullName, phone string, departmentID uuid.UUID) (*Employee, error) {
	fullName = strings.TrimSpace(fullName)
	if userID == uuid.Nil {
		return nil, shared.NewValidationError("user is required")
	}
	if fullName == "" {
		return nil, shared.NewValidationError("full name cannot be empty")
	}
	if departmentID == uuid.Nil {
		return nil, shared.NewValidationError("department is required")
	}
	return &Employee{
		BaseEntity:   shared.NewBaseEntity(),
		UserID:       userID,
		FullName:     fullName,
		Phone:        strings.TrimSpace(phone),
		DepartmentID: departmentID,
	}, nil
}

// MoveTo transfers the employee to another department
func (e *Employee) MoveTo(departmentID uuid.UUID) error {
	if departmentID == uuid.Nil {
		return shared.NewValidationError("department is required")
	}
	e.DepartmentID = departmentID
	e.UpdatedAt = time.Now()
	return nil
}

// EmployeeProfile joins an employee with its user account for display and notification
type EmployeeProfile struct {
	Employee
	Username string
	Email    string
	Role     shared.Role
	Active   bool
}
