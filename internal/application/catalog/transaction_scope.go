package catalog

import (
	"context"

	"github.com/assetflow/backend/internal/domain/catalog"
	"github.com/assetflow/backend/internal/domain/workflow"
)

// TransactionScope runs a catalog operation inside one database transaction
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories exposes repositories bound to the current transaction
type TransactionalRepositories interface {
	Products() catalog.ProductRepository
	StockHistory() catalog.StockHistoryRepository
	Attachments() catalog.AttachmentRepository
	Assignments() workflow.AssignmentRepository
}
