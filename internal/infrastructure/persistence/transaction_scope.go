package persistence

import (
	"context"

	appcatalog "github.com/assetflow/backend/internal/application/catalog"
	appidentity "github.com/assetflow/backend/internal/application/identity"
	appworkflow "github.com/assetflow/backend/internal/application/workflow"
	"github.com/assetflow/backend/internal/domain/catalog"
	"github.com/assetflow/backend/internal/domain/identity"
	"github.com/assetflow/backend/internal/domain/workflow"
	"gorm.io/gorm"
)

// GormTransactionScope runs application operations inside a GORM transaction.
// The same value serves the workflow, identity and catalog services.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

func (s *GormTransactionScope) run(ctx context.Context, fn func(repos *gormTransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
}

// Workflow returns the scope used by the workflow service
func (s *GormTransactionScope) Workflow() appworkflow.TransactionScope {
	return workflowScope{s}
}

// Identity returns the scope used by the identity service
func (s *GormTransactionScope) Identity() appidentity.TransactionScope {
	return identityScope{s}
}

// Catalog returns the scope used by the catalog service
func (s *GormTransactionScope) Catalog() appcatalog.TransactionScope {
	return catalogScope{s}
}

type workflowScope struct{ s *GormTransactionScope }

func (w workflowScope) Execute(ctx context.Context, fn func(repos appworkflow.TransactionalRepositories) error) error {
	return w.s.run(ctx, func(repos *gormTransactionalRepositories) error { return fn(repos) })
}

type identityScope struct{ s *GormTransactionScope }

func (i identityScope) Execute(ctx context.Context, fn func(repos appidentity.TransactionalRepositories) error) error {
	return i.s.run(ctx, func(repos *gormTransactionalRepositories) error { return fn(repos) })
}

type catalogScope struct{ s *GormTransactionScope }

func (c catalogScope) Execute(ctx context.Context, fn func(repos appcatalog.TransactionalRepositories) error) error {
	return c.s.run(ctx, func(repos *gormTransactionalRepositories) error { return fn(repos) })
}

// gormTransactionalRepositories provides repositories bound to one transaction
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

func (r *gormTransactionalRepositories) Requests() workflow.RequestRepository {
	return NewGormRequestRepository(r.tx)
}

func (r *gormTransactionalRepositories) Assignments() workflow.AssignmentRepository {
	return NewGormAssignmentRepository(r.tx)
}

func (r *gormTransactionalRepositories) Products() catalog.ProductRepository {
	return NewGormProductRepository(r.tx)
}

func (r *gormTransactionalRepositories) StockHistory() catalog.StockHistoryRepository {
	return NewGormStockHistoryRepository(r.tx)
}

func (r *gormTransactionalRepositories) Attachments() catalog.AttachmentRepository {
	return NewGormProductAttachmentRepository(r.tx)
}

func (r *gormTransactionalRepositories) Users() identity.UserRepository {
	return NewGormUserRepository(r.tx)
}

func (r *gormTransactionalRepositories) Employees() identity.EmployeeRepository {
	return NewGormEmployeeRepository(r.tx)
}

func (r *gormTransactionalRepositories) Departments() identity.DepartmentRepository {
	return NewGormDepartmentRepository(r.tx)
}

func (r *gormTransactionalRepositories) Registrations() identity.RegistrationRepository {
	return NewGormRegistrationRepository(r.tx)
}

func (r *gormTransactionalRepositories) MonitorAssignments() identity.MonitorAssignmentRepository {
	return NewGormMonitorAssignmentRepository(r.tx)
}

var (
	_ appworkflow.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
	_ appidentity.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
	_ appcatalog.TransactionalRepositories  = (*gormTransactionalRepositories)(nil)
)
