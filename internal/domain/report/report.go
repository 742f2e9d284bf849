// Package report holds the read models behind dashboards and exports.
// Nothing here mutates workflow or catalog state.
package report

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AssignmentRow is one unreturned assignment joined with its product and holder
type AssignmentRow struct {
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

// Value is quantity times unit cost
func (r AssignmentRow) Value() decimal.Decimal {
	return r.UnitCost.Mul(decimal.NewFromInt(int64(r.Quantity)))
}

// DaysOverdue is the number of whole days past the due date, or 0
func (r AssignmentRow) DaysOverdue(now time.Time) int {
	if r.DueDate == nil || !r.DueDate.Before(now) {
		return 0
	}
	return int(now.Sub(*r.DueDate).Hours() / 24)
}

// IsOverdue reports whether the due date has passed
func (r AssignmentRow) IsOverdue(now time.Time) bool {
	return r.DueDate != nil && r.DueDate.Before(now)
}

// StockLine is the on-hand position of one active product
type StockLine struct {
	ProductID uuid.UUID
	Name      string
	Category  string
	Quantity  int
	UnitCost  decimal.Decimal
}

// LedgerRow is a stock history line with product and actor names resolved
type LedgerRow struct {
	CreatedAt     time.Time
	ProductID     uuid.UUID
	ProductName   string
	Action        string
	QuantityDelta int
	QuantityAfter int
	ActorName     string
	Note          string
}

// AssignmentRowFilter narrows outstanding assignment rows
type AssignmentRowFilter struct {
	DepartmentID *uuid.UUID
	EmployeeID   *uuid.UUID
	// OverdueAt keeps only rows whose due date is before this instant
	OverdueAt *time.Time
}

// LedgerFilter narrows stock history rows. Zero times are open bounds.
type LedgerFilter struct {
	From      time.Time
	To        time.Time
	ProductID *uuid.UUID
}

// Repository reads report data
type Repository interface {
	RequestCounts(ctx context.Context, departmentID *uuid.UUID) (map[string]int64, error)
	OutstandingAssignments(ctx context.Context, filter AssignmentRowFilter) ([]AssignmentRow, error)
	StockLines(ctx context.Context) ([]StockLine, error)
	Ledger(ctx context.Context, filter LedgerFilter) ([]LedgerRow, error)
}
