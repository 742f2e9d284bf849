package persistence

import (
	"context"

	"github.com/assetflow/backend/internal/domain/catalog"
	"github.com/assetflow/backend/internal/domain/shared"
	"github.com/assetflow/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormProductAttachmentRepository implements catalog.AttachmentRepository using GORM
type GormProductAttachmentRepository struct {
	db *gorm.DB
}

// NewGormProductAttachmentRepository creates a new GormProductAttachmentRepository
func NewGormProductAttachmentRepository(db *gorm.DB) *GormProductAttachmentRepository {
	return &GormProductAttachmentRepository{db: db}
}

// Create inserts attachment metadata
func (r *GormProductAttachmentRepository) Create(ctx context.Context, a *catalog.Attachment) error {
	return translateError(r.db.WithContext(ctx).Create(models.ProductAttachmentModelFromDomain(a)).Error, "attachment")
}

// FindByID finds an attachment by its ID
func (r *GormProductAttachmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Attachment, error) {
	var model models.ProductAttachmentModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err, "attachment")
	}
	return model.ToDomain(), nil
}

// FindByProduct lists a product's attachments, oldest first
func (r *GormProductAttachmentRepository) FindByProduct(ctx context.Context, productID uuid.UUID) ([]catalog.Attachment, error) {
	var rows []models.ProductAttachmentModel
	if err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	attachments := make([]catalog.Attachment, len(rows))
	for i := range rows {
		attachments[i] = *rows[i].ToDomain()
	}
	return attachments, nil
}

// Delete removes attachment metadata
func (r *GormProductAttachmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.ProductAttachmentModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError("attachment")
	}
	return nil
}

var _ catalog.AttachmentRepository = (*GormProductAttachmentRepository)(nil)
