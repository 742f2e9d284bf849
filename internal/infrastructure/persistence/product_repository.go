package persistence

import (
	"context"
	"strings"
	"time"

	"github.com/assetflow/backend/internal/domain/catalog"
	"github.com/assetflow/backend/internal/domain/shared"
	"github.com/assetflow/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormProductRepository implements catalog.ProductRepository using GORM
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// FindByID finds a product by ID, including removed ones
func (r *GormProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	var model models.ProductModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err, "product")
	}
	return model.ToDomain(), nil
}

// FindByIDForUpdate finds a product by ID and locks the row with SELECT ... FOR UPDATE
func (r *GormProductRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	var model models.ProductModel
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err, "product")
	}
	return model.ToDomain(), nil
}

// FindAll lists products with filtering and pagination
func (r *GormProductRepository) FindAll(ctx context.Context, filter catalog.ProductFilter) ([]catalog.Product, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.ProductModel{})
	if !filter.IncludeInactive {
		query = query.Where("active = ?", true)
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.AssetType != "" {
		query = query.Where("asset_type = ?", filter.AssetType)
	}
	if filter.InStockOnly {
		query = query.Where("quantity > 0")
	}
	if filter.Search != "" {
		like := "%" + strings.ToLower(strings.TrimSpace(filter.Search)) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(serial_number) LIKE ? OR LOWER(model_number) LIKE ?", like, like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.ProductModel
	if err := paginate(query, "products", filter.Filter, ProductSortFields, "name").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	products := make([]catalog.Product, len(rows))
	for i := range rows {
		products[i] = *rows[i].ToDomain()
	}
	return products, total, nil
}

// Create inserts a new product
func (r *GormProductRepository) Create(ctx context.Context, p *catalog.Product) error {
	return translateError(r.db.WithContext(ctx).Create(models.ProductModelFromDomain(p)).Error, "product")
}

// Update writes descriptive fields guarded by version. Quantity is owned by AdjustQuantity.
func (r *GormProductRepository) Update(ctx context.Context, p *catalog.Product) error {
	return updateVersioned(ctx, r.db, models.ProductModelFromDomain(p), p.Version, "product", "quantity")
}

// AdjustQuantity applies delta in a single conditional UPDATE. A decrement
// only matches while quantity >= -delta, so concurrent decrements can never
// drive the count negative. The version is bumped so a writer holding an
// older copy of the product fails its versioned Update.
func (r *GormProductRepository) AdjustQuantity(ctx context.Context, id uuid.UUID, delta int) (int, error) {
	if delta == 0 {
		return 0, shared.NewValidationError("stock change cannot be zero")
	}

	query := r.db.WithContext(ctx).Model(&models.ProductModel{}).Where("id = ?", id)
	if delta < 0 {
		query = query.Where("active = ? AND quantity >= ?", true, -delta)
	}
	result := query.UpdateColumns(map[string]any{
		"quantity":   gorm.Expr("quantity + ?", delta),
		"version":    gorm.Expr("version + 1"),
		"updated_at": time.Now(),
	})
	if result.Error != nil {
		return 0, result.Error
	}

	var model models.ProductModel
	if err := r.db.WithContext(ctx).Select("id", "name", "quantity", "active").First(&model, "id = ?", id).Error; err != nil {
		return 0, translateError(err, "product")
	}
	if result.RowsAffected == 0 {
		if !model.Active {
			return 0, shared.NewInvalidStateError("product %s has been removed from the catalog", model.Name)
		}
		return 0, shared.NewInsufficientStockError(model.Name, model.Quantity, -delta)
	}
	return model.Quantity, nil
}

// FindCalibrationDue lists active products whose calibration falls due on or before the cutoff
func (r *GormProductRepository) FindCalibrationDue(ctx context.Context, before time.Time) ([]catalog.Product, error) {
	var rows []models.ProductModel
	if err := r.db.WithContext(ctx).
		Where("active = ? AND calibration_required = ? AND calibration_due_date IS NOT NULL AND calibration_due_date <= ?", true, true, before).
		Order("calibration_due_date ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	products := make([]catalog.Product, len(rows))
	for i := range rows {
		products[i] = *rows[i].ToDomain()
	}
	return products, nil
}

// ExistsBySerialNumber checks whether another product already uses the serial number
func (r *GormProductRepository) ExistsBySerialNumber(ctx context.Context, serial string, excludeID uuid.UUID) (bool, error) {
	serial = strings.TrimSpace(serial)
	if serial == "" {
		return false, nil
	}
	var count int64
	err := r.db.WithContext(ctx).Model(&models.ProductModel{}).
		Where("serial_number = ? AND id <> ?", serial, excludeID).
		Count(&count).Error
	return count > 0, err
}

// Categories lists the distinct categories of active products
func (r *GormProductRepository) Categories(ctx context.Context) ([]string, error) {
	var categories []string
	err := r.db.WithContext(ctx).Model(&models.ProductModel{}).
		Where("active = ?", true).
		Distinct().
		Order("category ASC").
		Pluck("category", &categories).Error
	return categories, err
}

var _ catalog.ProductRepository = (*GormProductRepository)(nil)
