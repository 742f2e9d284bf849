package persistence

import (
	"context"

	"github.com/assetflow/backend/internal/domain/workflow"
	"github.com/assetflow/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormAssignmentRepository implements workflow.AssignmentRepository using GORM
type GormAssignmentRepository struct {
	db *gorm.DB
}

// NewGormAssignmentRepository creates a new GormAssignmentRepository
func NewGormAssignmentRepository(db *gorm.DB) *GormAssignmentRepository {
	return &GormAssignmentRepository{db: db}
}

// FindByID finds an assignment by ID
func (r *GormAssignmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*workflow.Assignment, error) {
	var model models.ProductAssignmentModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err, "assignment")
	}
	return model.ToDomain(), nil
}

// FindAll lists assignments with filtering and pagination
func (r *GormAssignmentRepository) FindAll(ctx context.Context, filter workflow.AssignmentFilter) ([]workflow.Assignment, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.ProductAssignmentModel{})
	if filter.EmployeeID != nil {
		query = query.Where("product_assignments.employee_id = ?", *filter.EmployeeID)
	}
	if filter.ProductID != nil {
		query = query.Where("product_assignments.product_id = ?", *filter.ProductID)
	}
	if filter.DepartmentID != nil {
		query = query.Joins("JOIN employees ON employees.id = product_assignments.employee_id").
			Where("employees.department_id = ?", *filter.DepartmentID)
	}
	if filter.Outstanding != nil {
		query = query.Where("product_assignments.is_returned = ?", !*filter.Outstanding)
	}
	if filter.ReturnStatus != "" {
		query = query.Where("product_assignments.return_status = ?", filter.ReturnStatus)
	}
	if filter.ExtensionStatus != "" {
		query = query.Where("product_assignments.extension_status = ?", filter.ExtensionStatus)
	}
	if filter.DueBefore != nil {
		query = query.Where("product_assignments.due_date IS NOT NULL AND product_assignments.due_date < ?", *filter.DueBefore)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.ProductAssignmentModel
	if err := paginate(query.Select("product_assignments.*"), "product_assignments", filter.Filter, AssignmentSortFields, "assigned_at").
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	assignments := make([]workflow.Assignment, len(rows))
	for i := range rows {
		assignments[i] = *rows[i].ToDomain()
	}
	return assignments, total, nil
}

// Create inserts a new assignment
func (r *GormAssignmentRepository) Create(ctx context.Context, a *workflow.Assignment) error {
	return translateError(r.db.WithContext(ctx).Create(models.ProductAssignmentModelFromDomain(a)).Error, "assignment")
}

// Update writes a version-guarded transition
func (r *GormAssignmentRepository) Update(ctx context.Context, a *workflow.Assignment) error {
	return updateVersioned(ctx, r.db, models.ProductAssignmentModelFromDomain(a), a.Version, "assignment")
}

// CountOutstandingByEmployee counts unreturned assignments held by an employee
func (r *GormAssignmentRepository) CountOutstandingByEmployee(ctx context.Context, employeeID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.ProductAssignmentModel{}).
		Where("employee_id = ? AND is_returned = ?", employeeID, false).
		Count(&count).Error
	return count, err
}

// CountOutstandingByProduct counts unreturned assignments for a product
func (r *GormAssignmentRepository) CountOutstandingByProduct(ctx context.Context, productID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.ProductAssignmentModel{}).
		Where("product_id = ? AND is_returned = ?", productID, false).
		Count(&count).Error
	return count, err
}

// SumOutstandingQuantity returns the unreturned quantity for a product
func (r *GormAssignmentRepository) SumOutstandingQuantity(ctx context.Context, productID uuid.UUID) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.ProductAssignmentModel{}).
		Where("product_id = ? AND is_returned = ?", productID, false).
		Select("COALESCE(SUM(quantity), 0)").
		Scan(&total).Error
	return total, err
}

var _ workflow.AssignmentRepository = (*GormAssignmentRepository)(nil)
