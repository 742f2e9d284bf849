package persistence

import (
	"context"

	"github.com/assetflow/backend/internal/domain/activity"
	"github.com/assetflow/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormActivityStore implements activity.Store on the relational database
type GormActivityStore struct {
	db *gorm.DB
}

// NewGormActivityStore creates a new GormActivityStore
func NewGormActivityStore(db *gorm.DB) *GormActivityStore {
	return &GormActivityStore{db: db}
}

// Record appends an entry
func (s *GormActivityStore) Record(ctx context.Context, e *activity.Entry) error {
	return s.db.WithContext(ctx).Create(models.ActivityLogModelFromDomain(e)).Error
}

// FindAll lists entries, newest first
func (s *GormActivityStore) FindAll(ctx context.Context, filter activity.Filter) ([]activity.Entry, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.ActivityLogModel{})
	if filter.ActorID != nil {
		query = query.Where("actor_id = ?", *filter.ActorID)
	}
	if filter.EntityType != "" {
		query = query.Where("entity_type = ?", filter.EntityType)
	}
	if filter.EntityID != nil {
		query = query.Where("entity_id = ?", *filter.EntityID)
	}
	if filter.Since != nil {
		query = query.Where("created_at >= ?", *filter.Since)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.ActivityLogModel
	if err := query.Order("created_at DESC").Offset(filter.Offset()).Limit(filter.Limit()).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	entries := make([]activity.Entry, len(rows))
	for i := range rows {
		entries[i] = *rows[i].ToDomain()
	}
	return entries, total, nil
}

var _ activity.Store = (*GormActivityStore)(nil)
