package identity

import (
	"strings"
	"time"

	"github.com/assetflow/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Department groups employees and scopes monitor responsibility
type Department struct {
	shared.BaseEntity
	Code        string
	Name        string
	Description string
}

// NewDepartment creates a department with an upper-cased unique code
func NewDepartment(code, name, description string) (*Department, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	name = strings.TrimSpace(name)
	if code == "" || len(code) > 20 {
		return nil, shared.NewValidationError("department code must be 1-20 characters")
	}
	if name == "" || len(name) > 100 {
		return nil, shared.NewValidationError("department name must be 1-100 characters")
	}
	return &Department{
		BaseEntity:  shared.NewBaseEntity(),
		Code:        code,
		Name:        name,
		Description: strings.TrimSpace(description),
	}, nil
}

// MonitorAssignment makes a monitor responsible for a department
type MonitorAssignment struct {
	ID           uuid.UUID
	MonitorID    uuid.UUID
	DepartmentID uuid.UUID
	AssignedBy   uuid.UUID
	CreatedAt    time.Time
}

// NewMonitorAssignment links a monitor user to a department
func NewMonitorAssignment(monitor *User, departmentID, assignedBy uuid.UUID) (*MonitorAssignment, error) {
	if monitor.Role != shared.RoleMonitor {
		return nil, shared.NewValidationError("only monitors can be assigned to departments")
	}
	if !monitor.Active {
		return nil, shared.NewInvalidStateError("monitor account is inactive")
	}
	if departmentID == uuid.Nil {
		return nil, shared.NewValidationError("department is required")
	}
	return &MonitorAssignment{
		ID:           uuid.New(),
		MonitorID:    monitor.ID,
		DepartmentID: departmentID,
		AssignedBy:   assignedBy,
		CreatedAt:    time.Now(),
	}, nil
}
