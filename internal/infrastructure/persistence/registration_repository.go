package persistence

import (
	"context"
	"strings"

	"github.com/assetflow/backend/internal/domain/identity"
	"github.com/assetflow/backend/internal/domain/shared"
	"github.com/assetflow/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormRegistrationRepository implements identity.RegistrationRepository using GORM
type GormRegistrationRepository struct {
	db *gorm.DB
}

// NewGormRegistrationRepository creates a new GormRegistrationRepository
func NewGormRegistrationRepository(db *gorm.DB) *GormRegistrationRepository {
	return &GormRegistrationRepository{db: db}
}

// FindByID finds a registration request by ID
func (r *GormRegistrationRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.RegistrationRequest, error) {
	var model models.RegistrationRequestModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err, "registration request")
	}
	return model.ToDomain(), nil
}

// FindAll lists registration requests, optionally by status
func (r *GormRegistrationRepository) FindAll(ctx context.Context, status identity.RegistrationStatus, filter shared.Filter) ([]identity.RegistrationRequest, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.RegistrationRequestModel{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.RegistrationRequestModel
	if err := paginate(query, "registration_requests", filter, CommonSortFields, "created_at").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	requests := make([]identity.RegistrationRequest, len(rows))
	for i := range rows {
		requests[i] = *rows[i].ToDomain()
	}
	return requests, total, nil
}

// ExistsPending checks for a pending request with the same username or email
func (r *GormRegistrationRepository) ExistsPending(ctx context.Context, username, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.RegistrationRequestModel{}).
		Where("status = ?", identity.RegistrationPending).
		Where("LOWER(username) = ? OR LOWER(email) = ?", strings.ToLower(username), strings.ToLower(email)).
		Count(&count).Error
	return count > 0, err
}

// Create inserts a new registration request
func (r *GormRegistrationRepository) Create(ctx context.Context, req *identity.RegistrationRequest) error {
	return translateError(r.db.WithContext(ctx).Create(models.RegistrationRequestModelFromDomain(req)).Error, "registration request")
}

// Update writes a version-guarded change
func (r *GormRegistrationRepository) Update(ctx context.Context, req *identity.RegistrationRequest) error {
	return updateVersioned(ctx, r.db, models.RegistrationRequestModelFromDomain(req), req.Version, "registration request")
}

var _ identity.RegistrationRepository = (*GormRegistrationRepository)(nil)
