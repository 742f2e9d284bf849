package persistence

import (
	"context"
	"time"

	"github.com/assetflow/backend/internal/domain/report"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormReportRepository implements report.Repository using GORM
type GormReportRepository struct {
	db *gorm.DB
}

// NewGormReportRepository creates a new GormReportRepository
func NewGormReportRepository(db *gorm.DB) *GormReportRepository {
	return &GormReportRepository{db: db}
}

// RequestCounts counts requests by status, optionally for one department
func (r *GormReportRepository) RequestCounts(ctx context.Context, departmentID *uuid.UUID) (map[string]int64, error) {
	type statusCount struct {
		Status string
		Total  int64
	}

	query := r.db.WithContext(ctx).Table("product_requests pr").
		Select("pr.status AS status, COUNT(*) AS total").
		Group("pr.status")
	if departmentID != nil {
		query = query.Joins("JOIN employees e ON e.id = pr.employee_id").
			Where("e.department_id = ?", *departmentID)
	}

	var rows []statusCount
	if err := query.Scan(&rows).Error; err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Total
	}
	return counts, nil
}

type assignmentRowResult struct {
	AssignmentID    uuid.UUID
	ProductID       uuid.UUID
	ProductName     string
	Category        string
	SerialNumber    string
	UnitCost        decimal.Decimal
	EmployeeID      uuid.UUID
	EmployeeName    string
	DepartmentID    uuid.UUID
	DepartmentName  string
	Quantity        int
	AssignedAt      time.Time
	DueDate         *time.Time
	ReturnStatus    string
	ExtensionStatus string
}

// OutstandingAssignments lists unreturned assignments, earliest due first
func (r *GormReportRepository) OutstandingAssignments(ctx context.Context, filter report.AssignmentRowFilter) ([]report.AssignmentRow, error) {
	query := r.db.WithContext(ctx).Table("product_assignments pa").
		Select(`
			pa.id AS assignment_id,
			pa.product_id AS product_id,
			p.name AS product_name,
			p.category AS category,
			p.serial_number AS serial_number,
			p.unit_cost AS unit_cost,
			pa.employee_id AS employee_id,
			e.full_name AS employee_name,
			e.department_id AS department_id,
			d.name AS department_name,
			pa.quantity AS quantity,
			pa.assigned_at AS assigned_at,
			pa.due_date AS due_date,
			pa.return_status AS return_status,
			pa.extension_status AS extension_status
		`).
		Joins("JOIN products p ON p.id = pa.product_id").
		Joins("JOIN employees e ON e.id = pa.employee_id").
		Joins("JOIN departments d ON d.id = e.department_id").
		Where("pa.is_returned = ?", false)

	if filter.DepartmentID != nil {
		query = query.Where("e.department_id = ?", *filter.DepartmentID)
	}
	if filter.EmployeeID != nil {
		query = query.Where("pa.employee_id = ?", *filter.EmployeeID)
	}
	if filter.OverdueAt != nil {
		query = query.Where("pa.due_date IS NOT NULL AND pa.due_date < ?", *filter.OverdueAt)
	}

	var rows []assignmentRowResult
	if err := query.Order("pa.due_date IS NULL, pa.due_date ASC, pa.assigned_at ASC").Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]report.AssignmentRow, len(rows))
	for i, row := range rows {
		out[i] = report.AssignmentRow(row)
	}
	return out, nil
}

// StockLines lists the on-hand position of every active product
func (r *GormReportRepository) StockLines(ctx context.Context) ([]report.StockLine, error) {
	type stockResult struct {
		ProductID uuid.UUID
		Name      string
		Category  string
		Quantity  int
		UnitCost  decimal.Decimal
	}

	var rows []stockResult
	err := r.db.WithContext(ctx).Table("products").
		Select("id AS product_id, name, category, quantity, unit_cost").
		Where("active = ?", true).
		Order("name ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]report.StockLine, len(rows))
	for i, row := range rows {
		out[i] = report.StockLine(row)
	}
	return out, nil
}

// Ledger lists stock history lines in chronological order
func (r *GormReportRepository) Ledger(ctx context.Context, filter report.LedgerFilter) ([]report.LedgerRow, error) {
	type ledgerResult struct {
		CreatedAt     time.Time
		ProductID     uuid.UUID
		ProductName   string
		Action        string
		QuantityDelta int
		QuantityAfter int
		ActorName     string
		Note          string
	}

	query := r.db.WithContext(ctx).Table("stock_history sh").
		Select(`
			sh.created_at AS created_at,
			sh.product_id AS product_id,
			p.name AS product_name,
			sh.action AS action,
			sh.quantity_delta AS quantity_delta,
			sh.quantity_after AS quantity_after,
			COALESCE(e.full_name, u.username, '') AS actor_name,
			sh.note AS note
		`).
		Joins("JOIN products p ON p.id = sh.product_id").
		Joins("LEFT JOIN users u ON u.id = sh.actor_id").
		Joins("LEFT JOIN employees e ON e.user_id = sh.actor_id")

	if !filter.From.IsZero() {
		query = query.Where("sh.created_at >= ?", filter.From)
	}
	if !filter.To.IsZero() {
		query = query.Where("sh.created_at < ?", filter.To)
	}
	if filter.ProductID != nil {
		query = query.Where("sh.product_id = ?", *filter.ProductID)
	}

	var rows []ledgerResult
	if err := query.Order("sh.created_at ASC").Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]report.LedgerRow, len(rows))
	for i, row := range rows {
		out[i] = report.LedgerRow(row)
	}
	return out, nil
}

var _ report.Repository = (*GormReportRepository)(nil)
