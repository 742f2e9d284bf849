package persistence

import (
	"context"
	"strings"

	"github.com/assetflow/backend/internal/domain/identity"
	"github.com/assetflow/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormDepartmentRepository implements identity.DepartmentRepository using GORM
type GormDepartmentRepository struct {
	db *gorm.DB
}

// NewGormDepartmentRepository creates a new GormDepartmentRepository
func NewGormDepartmentRepository(db *gorm.DB) *GormDepartmentRepository {
	return &GormDepartmentRepository{db: db}
}

// FindByID finds a department by ID
func (r *GormDepartmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.Department, error) {
	var model models.DepartmentModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err, "department")
	}
	return model.ToDomain(), nil
}

// FindAll lists every department ordered by name
func (r *GormDepartmentRepository) FindAll(ctx context.Context) ([]identity.Department, error) {
	var rows []models.DepartmentModel
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	departments := make([]identity.Department, len(rows))
	for i := range rows {
		departments[i] = *rows[i].ToDomain()
	}
	return departments, nil
}

// ExistsByCode checks whether a department code is taken
func (r *GormDepartmentRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.DepartmentModel{}).
		Where("code = ?", strings.ToUpper(strings.TrimSpace(code))).
		Count(&count).Error
	return count > 0, err
}

// Create inserts a new department
func (r *GormDepartmentRepository) Create(ctx context.Context, d *identity.Department) error {
	return translateError(r.db.WithContext(ctx).Create(models.DepartmentModelFromDomain(d)).Error, "department")
}

var _ identity.DepartmentRepository = (*GormDepartmentRepository)(nil)
