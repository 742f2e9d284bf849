package persistence

import (
	"context"
	"strings"
	"time"

	"github.com/assetflow/backend/internal/domain/identity"
	"github.com/assetflow/backend/internal/domain/shared"
	"github.com/assetflow/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormUserRepository implements identity.UserRepository using GORM
type GormUserRepository struct {
	db *gorm.DB
}

// NewGormUserRepository creates a new GormUserRepository
func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

// FindByID finds a user by ID
func (r *GormUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	var model models.UserModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err, "user")
	}
	return model.ToDomain(), nil
}

// FindByIDForUpdate finds a user by ID and locks the row with SELECT ... FOR UPDATE
func (r *GormUserRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	var model models.UserModel
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err, "user")
	}
	return model.ToDomain(), nil
}

// FindByUsername finds a user by username, case-insensitively
func (r *GormUserRepository) FindByUsername(ctx context.Context, username string) (*identity.User, error) {
	var model models.UserModel
	if err := r.db.WithContext(ctx).
		Where("LOWER(username) = ?", strings.ToLower(strings.TrimSpace(username))).
		First(&model).Error; err != nil {
		return nil, translateError(err, "user")
	}
	return model.ToDomain(), nil
}

// FindAll lists users with filtering and pagination
func (r *GormUserRepository) FindAll(ctx context.Context, filter identity.UserFilter) ([]identity.User, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.UserModel{})
	if filter.Role != "" {
		query = query.Where("users.role = ?", filter.Role)
	}
	if filter.Active != nil {
		query = query.Where("users.active = ?", *filter.Active)
	}
	if filter.DepartmentID != nil {
		query = query.Joins("JOIN employees ON employees.user_id = users.id").
			Where("employees.department_id = ?", *filter.DepartmentID)
	}
	if filter.Search != "" {
		like := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("LOWER(users.username) LIKE ? OR LOWER(users.email) LIKE ?", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.UserModel
	if err := paginate(query, "users", filter.Filter, UserSortFields, "created_at").Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	users := make([]identity.User, len(rows))
	for i := range rows {
		users[i] = *rows[i].ToDomain()
	}
	return users, total, nil
}

// FindByRole lists active users holding a role
func (r *GormUserRepository) FindByRole(ctx context.Context, role shared.Role) ([]identity.User, error) {
	var rows []models.UserModel
	if err := r.db.WithContext(ctx).
		Where("role = ? AND active = ?", role, true).
		Order("username ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	users := make([]identity.User, len(rows))
	for i := range rows {
		users[i] = *rows[i].ToDomain()
	}
	return users, nil
}

// ExistsByUsernameOrEmail checks for a clash with an existing account
func (r *GormUserRepository) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.UserModel{}).
		Where("LOWER(username) = ? OR LOWER(email) = ?", strings.ToLower(username), strings.ToLower(email)).
		Count(&count).Error
	return count > 0, err
}

// Create inserts a new user
func (r *GormUserRepository) Create(ctx context.Context, u *identity.User) error {
	return translateError(r.db.WithContext(ctx).Create(models.UserModelFromDomain(u)).Error, "user")
}

// Update writes a version-guarded change
func (r *GormUserRepository) Update(ctx context.Context, u *identity.User) error {
	return updateVersioned(ctx, r.db, models.UserModelFromDomain(u), u.Version, "user")
}

// RecordLogin stamps last_login_at
func (r *GormUserRepository) RecordLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).Model(&models.UserModel{}).
		Where("id = ?", id).
		UpdateColumn("last_login_at", at).Error
}

// CountByRole counts active users with a role
func (r *GormUserRepository) CountByRole(ctx context.Context, role shared.Role) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.UserModel{}).
		Where("role = ? AND active = ?", role, true).
		Count(&count).Error
	return count, err
}

var _ identity.UserRepository = (*GormUserRepository)(nil)
