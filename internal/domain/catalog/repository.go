package catalog

import (
	"context"
	"time"

	"github.com/assetflow/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ProductFilter narrows catalog listings
type ProductFilter struct {
	shared.Filter
	Category        string
	AssetType       AssetType
	IncludeInactive bool
	InStockOnly     bool
}

// ProductRepository persists products
type ProductRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)
	// FindByIDForUpdate loads a product and holds a row lock until the
	// surrounding transaction ends
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Product, error)
	FindAll(ctx context.Context, filter ProductFilter) ([]Product, int64, error)
	Create(ctx context.Context, p *Product) error
	// Update writes descriptive fields guarded by version; quantity is not touched
	Update(ctx context.Context, p *Product) error
	// AdjustQuantity atomically adds delta to the on-hand quantity, bumps the
	// version and returns the new quantity. A negative delta is applied only if
	// enough stock remains; otherwise an INSUFFICIENT_STOCK DomainError is
	// returned and nothing changes.
	AdjustQuantity(ctx context.Context, id uuid.UUID, delta int) (int, error)
	FindCalibrationDue(ctx context.Context, before time.Time) ([]Product, error)
	ExistsBySerialNumber(ctx context.Context, serial string, excludeID uuid.UUID) (bool, error)
	Categories(ctx context.Context) ([]string, error)
}

// StockHistoryRepository persists the stock ledger
type StockHistoryRepository interface {
	Append(ctx context.Context, h *StockHistory) error
	FindByProduct(ctx context.Context, productID uuid.UUID, filter shared.Filter) ([]StockHistory, int64, error)
	FindSince(ctx context.Context, since time.Time) ([]StockHistory, error)
	// TotalStocked sums deltas of actions that change the total ever stocked
	TotalStocked(ctx context.Context, productID uuid.UUID) (int64, error)
}

// AttachmentRepository persists product attachments
type AttachmentRepository interface {
	Create(ctx context.Context, a *Attachment) error
	FindByID(ctx context.Context, id uuid.UUID) (*Attachment, error)
	FindByProduct(ctx context.Context, productID uuid.UUID) ([]Attachment, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
