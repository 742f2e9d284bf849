package workflow

import (
	"context"
	"errors"

	"github.com/assetflow/backend/internal/domain/identity"
	"github.com/assetflow/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// EmployeeLookup resolves the employee record linked to a user
type EmployeeLookup interface {
	FindByUserID(ctx context.Context, userID uuid.UUID) (*identity.Employee, error)
}

// CountOutstandingForUser counts unreturned assignments held by the employee
// linked to userID. Users without an employee record hold nothing.
func CountOutstandingForUser(ctx context.Context, employees EmployeeLookup, assignments AssignmentRepository, userID uuid.UUID) (int64, error) {
	emp, err := employees.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return assignments.CountOutstandingByEmployee(ctx, emp.ID)
}

// RequireClearance returns an OutstandingAssignmentsError naming the exact
// count when the user still holds products.
func RequireClearance(ctx context.Context, employees EmployeeLookup, assignments AssignmentRepository, userID uuid.UUID) error {
	count, err := CountOutstandingForUser(ctx, employees, assignments, userID)
	if err != nil {
		return err
	}
	if count > 0 {
		return shared.NewOutstandingAssignmentsError(count)
	}
	return nil
}
