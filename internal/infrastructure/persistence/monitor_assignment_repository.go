package persistence

import (
	"context"

	"github.com/assetflow/backend/internal/domain/identity"
	"github.com/assetflow/backend/internal/domain/shared"
	"github.com/assetflow/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormMonitorAssignmentRepository implements identity.MonitorAssignmentRepository using GORM
type GormMonitorAssignmentRepository struct {
	db *gorm.DB
}

// NewGormMonitorAssignmentRepository creates a new GormMonitorAssignmentRepository
func NewGormMonitorAssignmentRepository(db *gorm.DB) *GormMonitorAssignmentRepository {
	return &GormMonitorAssignmentRepository{db: db}
}

// Create links a monitor to a department
func (r *GormMonitorAssignmentRepository) Create(ctx context.Context, m *identity.MonitorAssignment) error {
	return translateError(r.db.WithContext(ctx).Create(models.MonitorAssignmentModelFromDomain(m)).Error, "monitor assignment")
}

// Delete unlinks a monitor from a department
func (r *GormMonitorAssignmentRepository) Delete(ctx context.Context, monitorID, departmentID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("monitor_id = ? AND department_id = ?", monitorID, departmentID).
		Delete(&models.MonitorAssignmentModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError("monitor assignment")
	}
	return nil
}

// DeleteByMonitor removes every department link of a monitor
func (r *GormMonitorAssignmentRepository) DeleteByMonitor(ctx context.Context, monitorID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("monitor_id = ?", monitorID).
		Delete(&models.MonitorAssignmentModel{}).Error
}

// FindByDepartment lists monitors responsible for a department
func (r *GormMonitorAssignmentRepository) FindByDepartment(ctx context.Context, departmentID uuid.UUID) ([]identity.MonitorAssignment, error) {
	return r.find(r.db.WithContext(ctx).Where("department_id = ?", departmentID))
}

// FindByMonitor lists departments a monitor is responsible for
func (r *GormMonitorAssignmentRepository) FindByMonitor(ctx context.Context, monitorID uuid.UUID) ([]identity.MonitorAssignment, error) {
	return r.find(r.db.WithContext(ctx).Where("monitor_id = ?", monitorID))
}

// FindAll lists every link
func (r *GormMonitorAssignmentRepository) FindAll(ctx context.Context) ([]identity.MonitorAssignment, error) {
	return r.find(r.db.WithContext(ctx))
}

func (r *GormMonitorAssignmentRepository) find(query *gorm.DB) ([]identity.MonitorAssignment, error) {
	var rows []models.MonitorAssignmentModel
	if err := query.Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	links := make([]identity.MonitorAssignment, len(rows))
	for i := range rows {
		links[i] = *rows[i].ToDomain()
	}
	return links, nil
}

var _ identity.MonitorAssignmentRepository = (*GormMonitorAssignmentRepository)(nil)
