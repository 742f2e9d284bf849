package identity

import (
	"context"

	"github.com/assetflow/backend/internal/domain/identity"
	"github.com/assetflow/backend/internal/domain/workflow"
)

// TransactionScope runs an identity operation inside one database transaction
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories exposes repositories bound to the current transaction.
// Assignments and Requests serve the clearance check and the closing of
// pending requests on deactivation.
type TransactionalRepositories interface {
	Users() identity.UserRepository
	Employees() identity.EmployeeRepository
	Departments() identity.DepartmentRepository
	Registrations() identity.RegistrationRepository
	MonitorAssignments() identity.MonitorAssignmentRepository
	Assignments() workflow.AssignmentRepository
	Requests() workflow.RequestRepository
}
