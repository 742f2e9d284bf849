package persistence

import (
	"context"

	"github.com/assetflow/backend/internal/domain/identity"
	"github.com/assetflow/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const employeeProfileColumns = "employees.*, users.username, users.email, users.role, users.active"

// GormEmployeeRepository implements identity.EmployeeRepository using GORM
type GormEmployeeRepository struct {
	db *gorm.DB
}

// NewGormEmployeeRepository creates a new GormEmployeeRepository
func NewGormEmployeeRepository(db *gorm.DB) *GormEmployeeRepository {
	return &GormEmployeeRepository{db: db}
}

// FindByID finds an employee by ID
func (r *GormEmployeeRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.Employee, error) {
	var model models.EmployeeModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err, "employee")
	}
	return model.ToDomain(), nil
}

// FindByUserID finds the employee record linked to a user
func (r *GormEmployeeRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*identity.Employee, error) {
	var model models.EmployeeModel
	if err := r.db.WithContext(ctx).First(&model, "user_id = ?", userID).Error; err != nil {
		return nil, translateError(err, "employee")
	}
	return model.ToDomain(), nil
}

func (r *GormEmployeeRepository) profileQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("employees").
		Select(employeeProfileColumns).
		Joins("JOIN users ON users.id = employees.user_id")
}

// FindProfile loads an employee together with its account
func (r *GormEmployeeRepository) FindProfile(ctx context.Context, id uuid.UUID) (*identity.EmployeeProfile, error) {
	var row models.EmployeeProfileRow
	if err := r.profileQuery(ctx).Where("employees.id = ?", id).Take(&row).Error; err != nil {
		return nil, translateError(err, "employee")
	}
	return row.ToDomain(), nil
}

// FindProfiles loads several profiles at once. Missing IDs are skipped.
func (r *GormEmployeeRepository) FindProfiles(ctx context.Context, ids []uuid.UUID) ([]identity.EmployeeProfile, error) {
	if len(ids) == 0 {
		return []identity.EmployeeProfile{}, nil
	}
	var rows []models.EmployeeProfileRow
	if err := r.profileQuery(ctx).Where("employees.id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	profiles := make([]identity.EmployeeProfile, len(rows))
	for i := range rows {
		profiles[i] = *rows[i].ToDomain()
	}
	return profiles, nil
}

// Create inserts a new employee record
func (r *GormEmployeeRepository) Create(ctx context.Context, e *identity.Employee) error {
	return translateError(r.db.WithContext(ctx).Create(models.EmployeeModelFromDomain(e)).Error, "employee")
}

// Update saves all employee fields
func (r *GormEmployeeRepository) Update(ctx context.Context, e *identity.Employee) error {
	return translateError(r.db.WithContext(ctx).Save(models.EmployeeModelFromDomain(e)).Error, "employee")
}

var _ identity.EmployeeRepository = (*GormEmployeeRepository)(nil)
