package workflow

import (
	"context"
	"time"

	"github.com/assetflow/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// RequestFilter narrows product request listings
type RequestFilter struct {
	shared.Filter
	EmployeeID   *uuid.UUID
	ProductID    *uuid.UUID
	DepartmentID *uuid.UUID
	Status       RequestStatus
}

// AssignmentFilter narrows assignment listings
type AssignmentFilter struct {
	shared.Filter
	EmployeeID      *uuid.UUID
	ProductID       *uuid.UUID
	DepartmentID    *uuid.UUID
	Outstanding     *bool
	ReturnStatus    LifecycleStatus
	ExtensionStatus LifecycleStatus
	DueBefore       *time.Time
}

// RequestRepository persists ProductRequest aggregates
type RequestRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*ProductRequest, error)
	FindAll(ctx context.Context, filter RequestFilter) ([]ProductRequest, int64, error)
	// Create inserts a new request
	Create(ctx context.Context, r *ProductRequest) error
	// Update writes a transition guarded by the aggregate version.
	// Returns an INVALID_STATE error when another transaction got there first.
	Update(ctx context.Context, r *ProductRequest) error
	CountByStatus(ctx context.Context) (map[RequestStatus]int64, error)
	// FindPendingByEmployee lists every pending request filed for an employee
	FindPendingByEmployee(ctx context.Context, employeeID uuid.UUID) ([]ProductRequest, error)
}

// AssignmentRepository persists Assignment aggregates
type AssignmentRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Assignment, error)
	FindAll(ctx context.Context, filter AssignmentFilter) ([]Assignment, int64, error)
	Create(ctx context.Context, a *Assignment) error
	Update(ctx context.Context, a *Assignment) error
	// CountOutstandingByEmployee counts unreturned assignments held by an employee
	CountOutstandingByEmployee(ctx context.Context, employeeID uuid.UUID) (int64, error)
	// CountOutstandingByProduct counts unreturned assignments for a product
	CountOutstandingByProduct(ctx context.Context, productID uuid.UUID) (int64, error)
	// SumOutstandingQuantity returns the unreturned quantity per product
	SumOutstandingQuantity(ctx context.Context, productID uuid.UUID) (int64, error)
}
