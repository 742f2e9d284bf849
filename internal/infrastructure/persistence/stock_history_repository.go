package persistence

import (
	"context"
	"time"

	"github.com/assetflow/backend/internal/domain/catalog"
	"github.com/assetflow/backend/internal/domain/shared"
	"github.com/assetflow/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormStockHistoryRepository implements catalog.StockHistoryRepository using GORM
type GormStockHistoryRepository struct {
	db *gorm.DB
}

// NewGormStockHistoryRepository creates a new GormStockHistoryRepository
func NewGormStockHistoryRepository(db *gorm.DB) *GormStockHistoryRepository {
	return &GormStockHistoryRepository{db: db}
}

// Append writes a ledger line
func (r *GormStockHistoryRepository) Append(ctx context.Context, h *catalog.StockHistory) error {
	return r.db.WithContext(ctx).Create(models.StockHistoryModelFromDomain(h)).Error
}

// FindByProduct lists a product's ledger, newest first
func (r *GormStockHistoryRepository) FindByProduct(ctx context.Context, productID uuid.UUID, filter shared.Filter) ([]catalog.StockHistory, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.StockHistoryModel{}).Where("product_id = ?", productID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.StockHistoryModel
	if err := query.Order("created_at DESC").Offset(filter.Offset()).Limit(filter.Limit()).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return stockHistoryToDomain(rows), total, nil
}

// FindSince lists ledger lines written at or after since, oldest first
func (r *GormStockHistoryRepository) FindSince(ctx context.Context, since time.Time) ([]catalog.StockHistory, error) {
	var rows []models.StockHistoryModel
	if err := r.db.WithContext(ctx).
		Where("created_at >= ?", since).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return stockHistoryToDomain(rows), nil
}

// TotalStocked sums the deltas that change the total ever stocked
func (r *GormStockHistoryRepository) TotalStocked(ctx context.Context, productID uuid.UUID) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.StockHistoryModel{}).
		Where("product_id = ? AND action IN ?", productID, []string{
			string(catalog.StockActionAdd),
			string(catalog.StockActionRemove),
			string(catalog.StockActionAdjust),
		}).
		Select("COALESCE(SUM(quantity_delta), 0)").
		Scan(&total).Error
	return total, err
}

func stockHistoryToDomain(rows []models.StockHistoryModel) []catalog.StockHistory {
	history := make([]catalog.StockHistory, len(rows))
	for i := range rows {
		history[i] = *rows[i].ToDomain()
	}
	return history
}

var _ catalog.StockHistoryRepository = (*GormStockHistoryRepository)(nil)
