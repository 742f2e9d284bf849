package identity

import (
	"context"
	"time"

	"github.com/assetflow/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// UserFilter narrows user listings
type UserFilter struct {
	shared.Filter
	Role         shared.Role
	Active       *bool
	DepartmentID *uuid.UUID
}

// UserRepository persists users
type UserRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	// FindByIDForUpdate loads a user and holds a row lock until the
	// surrounding transaction ends
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*User, error)
	FindByUsername(ctx context.Context, username string) (*User, error)
	FindAll(ctx context.Context, filter UserFilter) ([]User, int64, error)
	FindByRole(ctx context.Context, role shared.Role) ([]User, error)
	ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error)
	Create(ctx context.Context, u *User) error
	// Update writes a version-guarded change
	Update(ctx context.Context, u *User) error
	// RecordLogin stamps last_login_at without bumping the version
	RecordLogin(ctx context.Context, id uuid.UUID, at time.Time) error
	CountByRole(ctx context.Context, role shared.Role) (int64, error)
}

// EmployeeRepository persists employee records
type EmployeeRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Employee, error)
	FindByUserID(ctx context.Context, userID uuid.UUID) (*Employee, error)
	FindProfile(ctx context.Context, id uuid.UUID) (*EmployeeProfile, error)
	FindProfiles(ctx context.Context, ids []uuid.UUID) ([]EmployeeProfile, error)
	Create(ctx context.Context, e *Employee) error
	Update(ctx context.Context, e *Employee) error
}

// DepartmentRepository persists departments
type DepartmentRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Department, error)
	FindAll(ctx context.Context) ([]Department, error)
	ExistsByCode(ctx context.Context, code string) (bool, error)
	Create(ctx context.Context, d *Department) error
}

// RegistrationRepository persists registration requests
type RegistrationRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*RegistrationRequest, error)
	FindAll(ctx context.Context, status RegistrationStatus, filter shared.Filter) ([]RegistrationRequest, int64, error)
	ExistsPending(ctx context.Context, username, email string) (bool, error)
	Create(ctx context.Context, r *RegistrationRequest) error
	Update(ctx context.Context, r *RegistrationRequest) error
}

// MonitorAssignmentRepository persists monitor to department links
type MonitorAssignmentRepository interface {
	Create(ctx context.Context, m *MonitorAssignment) error
	Delete(ctx context.Context, monitorID, departmentID uuid.UUID) error
	DeleteByMonitor(ctx context.Context, monitorID uuid.UUID) error
	FindByDepartment(ctx context.Context, departmentID uuid.UUID) ([]MonitorAssignment, error)
	FindByMonitor(ctx context.Context, monitorID uuid.UUID) ([]MonitorAssignment, error)
	FindAll(ctx context.Context) ([]MonitorAssignment, error)
}
