package workflow

import (
	"context"

	"github.com/assetflow/backend/internal/domain/catalog"
	"github.com/assetflow/backend/internal/domain/identity"
	"github.com/assetflow/backend/internal/domain/workflow"
)

// TransactionScope runs a workflow operation inside one database transaction.
// If fn returns an error, every write it made is rolled back.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories exposes repositories bound to the current transaction
type TransactionalRepositories interface {
	Requests() workflow.RequestRepository
	Assignments() workflow.AssignmentRepository
	Products() catalog.ProductRepository
	StockHistory() catalog.StockHistoryRepository
	Employees() identity.EmployeeRepository
	Users() identity.UserRepository
}
