package report

import (
	"time"

	"github.com/assetflow/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ScopeFilter restricts a report to one department
type ScopeFilter struct {
	DepartmentID string `form:"department_id" binding:"omitempty,uuid"`
}

func (f ScopeFilter) department() (*uuid.UUID, error) {
	return shared.ParseOptionalID("department_id", f.DepartmentID)
}

// LedgerExportFilter selects stock history lines for export
type LedgerExportFilter struct {
	From      *time.Time `form:"from" time_format:"2006-01-02"`
	To        *time.Time `form:"to" time_format:"2006-01-02"`
	ProductID string     `form:"product_id" binding:"omitempty,uuid"`
}

// DashboardResponse summarises workflow and stock state
type DashboardResponse struct {
	GeneratedAt            time.Time        `json:"generated_at"`
	Requests               map[string]int64 `json:"requests"`
	Products               int              `json:"products"`
	UnitsOnHand            int64            `json:"units_on_hand"`
	OnHandValue            decimal.Decimal  `json:"on_hand_value"`
	OutstandingAssignments int              `json:"outstanding_assignments"`
	OutstandingUnits       int64            `json:"outstanding_units"`
	OutstandingValue       decimal.Decimal  `json:"outstanding_value"`
	OverdueAssignments     int              `json:"overdue_assignments"`
	PendingReturns         int              `json:"pending_returns"`
	PendingExtensions      int              `json:"pending_extensions"`
}

// AssignmentReportItem is one outstanding assignment in a report
type AssignmentReportItem struct {
	AssignmentID    uuid.UUID       `json:"assignment_id"`
	ProductID       uuid.UUID       `json:"product_id"`
	ProductName     string          `json:"product_name"`
	Category        string          `json:"category"`
	SerialNumber    string          `json:"serial_number,omitempty"`
	EmployeeID      uuid.UUID       `json:"employee_id"`
	EmployeeName    string          `json:"employee_name"`
	DepartmentName  string          `json:"department_name"`
	Quantity        int             `json:"quantity"`
	Value           decimal.Decimal `json:"value"`
	AssignedAt      time.Time       `json:"assigned_at"`
	DueDate         *time.Time      `json:"due_date,omitempty"`
	DaysOverdue     int             `json:"days_overdue"`
	ReturnStatus    string          `json:"return_status"`
	ExtensionStatus string          `json:"extension_status"`
}

// HoldingResponse is what one employee currently holds
type HoldingResponse struct {
	EmployeeID     uuid.UUID              `json:"employee_id"`
	EmployeeName   string                 `json:"employee_name"`
	DepartmentName string                 `json:"department_name"`
	Assignments    int                    `json:"assignments"`
	Units          int64                  `json:"units"`
	Overdue        int                    `json:"overdue"`
	Value          decimal.Decimal        `json:"value"`
	Items          []AssignmentReportItem `json:"items"`
}
