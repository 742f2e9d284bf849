package persistence

import (
	"context"

	"github.com/assetflow/backend/internal/domain/workflow"
	"github.com/assetflow/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormRequestRepository implements workflow.RequestRepository using GORM
type GormRequestRepository struct {
	db *gorm.DB
}

// NewGormRequestRepository creates a new GormRequestRepository
func NewGormRequestRepository(db *gorm.DB) *GormRequestRepository {
	return &GormRequestRepository{db: db}
}

// FindByID finds a request by ID
func (r *GormRequestRepository) FindByID(ctx context.Context, id uuid.UUID) (*workflow.ProductRequest, error) {
	var model models.ProductRequestModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err, "product request")
	}
	return model.ToDomain(), nil
}

// FindAll lists requests with filtering and pagination
func (r *GormRequestRepository) FindAll(ctx context.Context, filter workflow.RequestFilter) ([]workflow.ProductRequest, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.ProductRequestModel{})
	if filter.EmployeeID != nil {
		query = query.Where("product_requests.employee_id = ?", *filter.EmployeeID)
	}
	if filter.ProductID != nil {
		query = query.Where("product_requests.product_id = ?", *filter.ProductID)
	}
	if filter.DepartmentID != nil {
		query = query.Joins("JOIN employees ON employees.id = product_requests.employee_id").
			Where("employees.department_id = ?", *filter.DepartmentID)
	}
	if filter.Status != "" {
		query = query.Where("product_requests.status = ?", filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.ProductRequestModel
	if err := paginate(query.Select("product_requests.*"), "product_requests", filter.Filter, RequestSortFields, "created_at").
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	requests := make([]workflow.ProductRequest, len(rows))
	for i := range rows {
		requests[i] = *rows[i].ToDomain()
	}
	return requests, total, nil
}

// Create inserts a new request
func (r *GormRequestRepository) Create(ctx context.Context, req *workflow.ProductRequest) error {
	return translateError(r.db.WithContext(ctx).Create(models.ProductRequestModelFromDomain(req)).Error, "product request")
}

// Update writes a version-guarded transition
func (r *GormRequestRepository) Update(ctx context.Context, req *workflow.ProductRequest) error {
	return updateVersioned(ctx, r.db, models.ProductRequestModelFromDomain(req), req.Version, "product request")
}

// CountByStatus counts requests per status
func (r *GormRequestRepository) CountByStatus(ctx context.Context) (map[workflow.RequestStatus]int64, error) {
	var rows []struct {
		Status string
		Count  int64
	}
	if err := r.db.WithContext(ctx).Model(&models.ProductRequestModel{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	counts := map[workflow.RequestStatus]int64{
		workflow.RequestStatusPending:  0,
		workflow.RequestStatusApproved: 0,
		workflow.RequestStatusRejected: 0,
	}
	for _, row := range rows {
		counts[workflow.RequestStatus(row.Status)] = row.Count
	}
	return counts, nil
}

// FindPendingByEmployee lists the pending requests of an employee, oldest first
func (r *GormRequestRepository) FindPendingByEmployee(ctx context.Context, employeeID uuid.UUID) ([]workflow.ProductRequest, error) {
	var rows []models.ProductRequestModel
	if err := r.db.WithContext(ctx).
		Where("employee_id = ? AND status = ?", employeeID, workflow.RequestStatusPending).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	requests := make([]workflow.ProductRequest, len(rows))
	for i := range rows {
		requests[i] = *rows[i].ToDomain()
	}
	return requests, nil
}

var _ workflow.RequestRepository = (*GormRequestRepository)(nil)
