package catalog

import (
	"context"
	"strings"
	"time"

	"github.com/assetflow/backend/internal/domain/catalog"
	"github.com/assetflow/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultCalibrationWindowDays is used when a calibration-due query names no window
const DefaultCalibrationWindowDays = 30

// ProductService manages the catalog and out-of-workflow stock changes.
// Monitors and admins write; every authenticated user reads.
type ProductService struct {
	scope     TransactionScope
	products  catalog.ProductRepository
	history   catalog.StockHistoryRepository
	publisher shared.EventPublisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewProductService creates a new ProductService
func NewProductService(scope TransactionScope, products catalog.ProductRepository, history catalog.StockHistoryRepository, logger *zap.Logger) *ProductService {
	return &ProductService{
		scope:    scope,
		products: products,
		history:  history,
		logger:   logger,
		now:      time.Now,
	}
}

// SetEventPublisher sets the publisher for post-commit side effects
func (s *ProductService) SetEventPublisher(publisher shared.EventPublisher) {
	s.publisher = publisher
}

// SetClock overrides the time source
func (s *ProductService) SetClock(now func() time.Time) {
	s.now = now
}

func (s *ProductService) publish(ctx context.Context, p *catalog.Product) {
	events := shared.DrainEvents(p)
	if s.publisher != nil {
		_ = s.publisher.Publish(ctx, events...)
	}
}

func requireCatalogWriter(actor shared.Actor) error {
	return actor.RequireRole(shared.RoleMonitor, shared.RoleAdmin)
}

func (s *ProductService) ensureUniqueSerial(ctx context.Context, products catalog.ProductRepository, serial string, excludeID uuid.UUID) error {
	serial = strings.TrimSpace(serial)
	if serial == "" {
		return nil
	}
	exists, err := products.ExistsBySerialNumber(ctx, serial, excludeID)
	if err != nil {
		return err
	}
	if exists {
		return shared.NewDomainError(shared.CodeAlreadyExists, "serial number "+serial+" is already in use")
	}
	return nil
}

// Create adds a product. A non-zero opening quantity is written to the stock ledger.
func (s *ProductService) Create(ctx context.Context, actor shared.Actor, input CreateProductInput) (*ProductResponse, error) {
	if err := requireCatalogWriter(actor); err != nil {
		return nil, err
	}
	p, err := catalog.NewProduct(input.details(), input.Quantity, actor.UserID)
	if err != nil {
		return nil, err
	}

	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		if err := s.ensureUniqueSerial(ctx, repos.Products(), p.SerialNumber, uuid.Nil); err != nil {
			return err
		}
		if err := repos.Products().Create(ctx, p); err != nil {
			return err
		}
		if p.Quantity == 0 {
			return nil
		}
		entry, err := catalog.NewStockHistory(p.ID, catalog.StockActionAdd, p.Quantity, p.Quantity, actor.UserID, nil, "opening stock")
		if err != nil {
			return err
		}
		return repos.StockHistory().Append(ctx, entry)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Product created", zap.String("product_id", p.ID.String()), zap.String("name", p.Name), zap.Int("quantity", p.Quantity))
	s.publish(ctx, p)
	resp := ToProductResponse(p)
	return &resp, nil
}

// Update replaces a product's descriptive fields. Quantity is unaffected.
func (s *ProductService) Update(ctx context.Context, actor shared.Actor, id uuid.UUID, input ProductInput) (*ProductResponse, error) {
	if err := requireCatalogWriter(actor); err != nil {
		return nil, err
	}

	var p *catalog.Product
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		p, err = repos.Products().FindByID(ctx, id)
		if err != nil {
			return err
		}
		if err := s.ensureUniqueSerial(ctx, repos.Products(), input.SerialNumber, p.ID); err != nil {
			return err
		}
		if err := p.Update(input.details(), actor.UserID); err != nil {
			return err
		}
		return repos.Products().Update(ctx, p)
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, p)
	resp := ToProductResponse(p)
	return &resp, nil
}

// Delete removes a product from the catalog. It is refused while any unit is
// still out on an unreturned assignment.
func (s *ProductService) Delete(ctx context.Context, actor shared.Actor, id uuid.UUID) error {
	if err := requireCatalogWriter(actor); err != nil {
		return err
	}

	var p *catalog.Product
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		// The lock waits out any approval still holding the product row, so
		// the count below sees its assignment.
		p, err = repos.Products().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		outstanding, err := repos.Assignments().CountOutstandingByProduct(ctx, p.ID)
		if err != nil {
			return err
		}
		if outstanding > 0 {
			return shared.NewInvalidStateError("product %s has %d outstanding assignment(s)", p.Name, outstanding)
		}
		if err := p.Remove(actor.UserID); err != nil {
			return err
		}
		return repos.Products().Update(ctx, p)
	})
	if err != nil {
		return err
	}

	s.logger.Info("Product removed", zap.String("product_id", p.ID.String()))
	s.publish(ctx, p)
	return nil
}

// Get returns one product. Removed products are visible to monitors and admins only.
func (s *ProductService) Get(ctx context.Context, actor shared.Actor, id uuid.UUID) (*ProductResponse, error) {
	p, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.Active && !actor.HasRole(shared.RoleMonitor, shared.RoleAdmin) {
		return nil, shared.NewNotFoundError("product")
	}
	resp := ToProductResponse(p)
	return &resp, nil
}

// List searches the catalog
func (s *ProductService) List(ctx context.Context, actor shared.Actor, filter ProductListFilter) (*shared.Paginated[ProductResponse], error) {
	base := shared.DefaultFilter()
	base.OrderBy = "name"
	base.OrderDir = "asc"
	if filter.Page > 0 {
		base.Page = filter.Page
	}
	if filter.PageSize > 0 {
		base.PageSize = filter.PageSize
	}
	if filter.OrderBy != "" {
		base.OrderBy = filter.OrderBy
	}
	if filter.OrderDir != "" {
		base.OrderDir = filter.OrderDir
	}
	base.Search = filter.Search

	query := catalog.ProductFilter{
		Filter:          base,
		Category:        strings.TrimSpace(filter.Category),
		AssetType:       catalog.AssetType(filter.AssetType),
		IncludeInactive: filter.IncludeInactive && actor.HasRole(shared.RoleMonitor, shared.RoleAdmin),
		InStockOnly:     filter.InStockOnly,
	}
	products, total, err := s.products.FindAll(ctx, query)
	if err != nil {
		return nil, err
	}
	items := make([]ProductResponse, len(products))
	for i := range products {
		items[i] = ToProductResponse(&products[i])
	}
	page := shared.NewPaginated(items, total, query.Page, query.Limit())
	return &page, nil
}

// Categories lists the distinct categories of active products
func (s *ProductService) Categories(ctx context.Context) ([]string, error) {
	return s.products.Categories(ctx)
}

// Restock adds units to a product and records them in the ledger
func (s *ProductService) Restock(ctx context.Context, actor shared.Actor, id uuid.UUID, input RestockInput) (*ProductResponse, error) {
	if input.Quantity <= 0 {
		return nil, shared.NewValidationError("restock quantity must be positive")
	}
	return s.changeStock(ctx, actor, id, catalog.StockActionAdd, input.Quantity, input.Note)
}

// Adjust corrects a product's quantity by a signed amount. A negative
// adjustment larger than the on-hand quantity fails with INSUFFICIENT_STOCK.
func (s *ProductService) Adjust(ctx context.Context, actor shared.Actor, id uuid.UUID, input AdjustInput) (*ProductResponse, error) {
	if input.Delta == 0 {
		return nil, shared.NewValidationError("adjustment cannot be zero")
	}
	action := catalog.StockActionAdjust
	if input.Delta < 0 {
		action = catalog.StockActionRemove
	}
	return s.changeStock(ctx, actor, id, action, input.Delta, input.Note)
}

func (s *ProductService) changeStock(ctx context.Context, actor shared.Actor, id uuid.UUID, action catalog.StockAction, delta int, note string) (*ProductResponse, error) {
	if err := requireCatalogWriter(actor); err != nil {
		return nil, err
	}

	var p *catalog.Product
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		p, err = repos.Products().FindByID(ctx, id)
		if err != nil {
			return err
		}
		if !p.Active {
			return shared.NewInvalidStateError("product has been removed from the catalog")
		}
		after, err := repos.Products().AdjustQuantity(ctx, p.ID, delta)
		if err != nil {
			return err
		}
		entry, err := catalog.NewStockHistory(p.ID, action, delta, after, actor.UserID, nil, strings.TrimSpace(note))
		if err != nil {
			return err
		}
		if err := repos.StockHistory().Append(ctx, entry); err != nil {
			return err
		}
		p.Quantity = after
		p.IncrementVersion()
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Stock changed",
		zap.String("product_id", p.ID.String()),
		zap.String("action", string(action)),
		zap.Int("delta", delta),
		zap.Int("quantity", p.Quantity))
	p.AddDomainEvent(catalog.NewRestockedEvent(p, actor.UserID, delta))
	s.publish(ctx, p)
	resp := ToProductResponse(p)
	return &resp, nil
}

// RecordCalibration stamps a calibration and schedules the next one
func (s *ProductService) RecordCalibration(ctx context.Context, actor shared.Actor, id uuid.UUID, input CalibrationInput) (*ProductResponse, error) {
	if err := requireCatalogWriter(actor); err != nil {
		return nil, err
	}
	at := s.now()
	if input.PerformedAt != nil {
		if input.PerformedAt.After(at) {
			return nil, shared.NewValidationError("calibration cannot be recorded in the future")
		}
		at = *input.PerformedAt
	}

	var p *catalog.Product
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		p, err = repos.Products().FindByID(ctx, id)
		if err != nil {
			return err
		}
		if err := p.RecordCalibration(at); err != nil {
			return err
		}
		return repos.Products().Update(ctx, p)
	})
	if err != nil {
		return nil, err
	}
	resp := ToProductResponse(p)
	return &resp, nil
}

// CalibrationDue lists products whose calibration falls due within the next days
func (s *ProductService) CalibrationDue(ctx context.Context, actor shared.Actor, days int) ([]ProductResponse, error) {
	if err := requireCatalogWriter(actor); err != nil {
		return nil, err
	}
	if days <= 0 {
		days = DefaultCalibrationWindowDays
	}
	products, err := s.products.FindCalibrationDue(ctx, s.now().AddDate(0, 0, days))
	if err != nil {
		return nil, err
	}
	out := make([]ProductResponse, len(products))
	for i := range products {
		out[i] = ToProductResponse(&products[i])
	}
	return out, nil
}

// StockHistory pages through a product's ledger, newest first
func (s *ProductService) StockHistory(ctx context.Context, actor shared.Actor, productID uuid.UUID, filter HistoryListFilter) (*shared.Paginated[StockHistoryResponse], error) {
	if err := requireCatalogWriter(actor); err != nil {
		return nil, err
	}
	if _, err := s.products.FindByID(ctx, productID); err != nil {
		return nil, err
	}
	query := shared.DefaultFilter()
	if filter.Page > 0 {
		query.Page = filter.Page
	}
	if filter.PageSize > 0 {
		query.PageSize = filter.PageSize
	}
	entries, total, err := s.history.FindByProduct(ctx, productID, query)
	if err != nil {
		return nil, err
	}
	items := make([]StockHistoryResponse, len(entries))
	for i := range entries {
		items[i] = ToStockHistoryResponse(&entries[i])
	}
	page := shared.NewPaginated(items, total, query.Page, query.Limit())
	return &page, nil
}
