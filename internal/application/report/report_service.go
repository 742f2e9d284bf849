package report

import (
	"context"
	"sort"
	"time"

	"github.com/assetflow/backend/internal/domain/report"
	"github.com/assetflow/backend/internal/domain/shared"
	"github.com/assetflow/backend/internal/domain/workflow"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ReportService builds read-only views over workflow and stock state for
// monitors and admins.
type ReportService struct {
	repo   report.Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewReportService creates a new ReportService
func NewReportService(repo report.Repository, logger *zap.Logger) *ReportService {
	return &ReportService{repo: repo, logger: logger, now: time.Now}
}

// SetClock overrides the time source
func (s *ReportService) SetClock(now func() time.Time) {
	s.now = now
}

func requireReader(actor shared.Actor) error {
	return actor.RequireRole(shared.RoleMonitor, shared.RoleAdmin)
}

// Dashboard summarises request counts, stock on hand and outstanding assignments
func (s *ReportService) Dashboard(ctx context.Context, actor shared.Actor, filter ScopeFilter) (*DashboardResponse, error) {
	if err := requireReader(actor); err != nil {
		return nil, err
	}
	deptID, err := filter.department()
	if err != nil {
		return nil, err
	}
	now := s.now()

	counts, err := s.repo.RequestCounts(ctx, deptID)
	if err != nil {
		return nil, err
	}
	requests := map[string]int64{
		string(workflow.RequestStatusPending):  0,
		string(workflow.RequestStatusApproved): 0,
		string(workflow.RequestStatusRejected): 0,
	}
	for status, n := range counts {
		requests[status] = n
	}

	stock, err := s.repo.StockLines(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.OutstandingAssignments(ctx, report.AssignmentRowFilter{DepartmentID: deptID})
	if err != nil {
		return nil, err
	}

	resp := &DashboardResponse{
		GeneratedAt:            now,
		Requests:               requests,
		Products:               len(stock),
		OnHandValue:            decimal.Zero,
		OutstandingAssignments: len(rows),
		OutstandingValue:       decimal.Zero,
	}
	for _, line := range stock {
		resp.UnitsOnHand += int64(line.Quantity)
		resp.OnHandValue = resp.OnHandValue.Add(line.UnitCost.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	for _, row := range rows {
		resp.OutstandingUnits += int64(row.Quantity)
		resp.OutstandingValue = resp.OutstandingValue.Add(row.Value())
		if row.IsOverdue(now) {
			resp.OverdueAssignments++
		}
		if row.ReturnStatus == string(workflow.LifecycleRequested) {
			resp.PendingReturns++
		}
		if row.ExtensionStatus == string(workflow.LifecycleRequested) {
			resp.PendingExtensions++
		}
	}
	return resp, nil
}

// Overdue lists outstanding assignments past their due date, most overdue first
func (s *ReportService) Overdue(ctx context.Context, actor shared.Actor, filter ScopeFilter) ([]AssignmentReportItem, error) {
	if err := requireReader(actor); err != nil {
		return nil, err
	}
	deptID, err := filter.department()
	if err != nil {
		return nil, err
	}
	now := s.now()
	rows, err := s.repo.OutstandingAssignments(ctx, report.AssignmentRowFilter{
		DepartmentID: deptID,
		OverdueAt:    &now,
	})
	if err != nil {
		return nil, err
	}
	items := toItems(rows, now)
	sort.SliceStable(items, func(i, j int) bool { return items[i].DaysOverdue > items[j].DaysOverdue })
	return items, nil
}

// Holdings groups outstanding assignments by employee
func (s *ReportService) Holdings(ctx context.Context, actor shared.Actor, filter ScopeFilter) ([]HoldingResponse, error) {
	if err := requireReader(actor); err != nil {
		return nil, err
	}
	deptID, err := filter.department()
	if err != nil {
		return nil, err
	}
	now := s.now()
	rows, err := s.repo.OutstandingAssignments(ctx, report.AssignmentRowFilter{DepartmentID: deptID})
	if err != nil {
		return nil, err
	}

	byEmployee := make(map[uuid.UUID]*HoldingResponse)
	var order []uuid.UUID
	for _, item := range toItems(rows, now) {
		h, ok := byEmployee[item.EmployeeID]
		if !ok {
			h = &HoldingResponse{
				EmployeeID:     item.EmployeeID,
				EmployeeName:   item.EmployeeName,
				DepartmentName: item.DepartmentName,
				Value:          decimal.Zero,
			}
			byEmployee[item.EmployeeID] = h
			order = append(order, item.EmployeeID)
		}
		h.Assignments++
		h.Units += int64(item.Quantity)
		h.Value = h.Value.Add(item.Value)
		if item.DueDate != nil && item.DueDate.Before(now) {
			h.Overdue++
		}
		h.Items = append(h.Items, item)
	}

	out := make([]HoldingResponse, 0, len(order))
	for _, id := range order {
		out = append(out, *byEmployee[id])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].EmployeeName < out[j].EmployeeName })
	return out, nil
}

func toItems(rows []report.AssignmentRow, now time.Time) []AssignmentReportItem {
	items := make([]AssignmentReportItem, len(rows))
	for i, row := range rows {
		items[i] = AssignmentReportItem{
			AssignmentID:    row.AssignmentID,
			ProductID:       row.ProductID,
			ProductName:     row.ProductName,
			Category:        row.Category,
			SerialNumber:    row.SerialNumber,
			EmployeeID:      row.EmployeeID,
			EmployeeName:    row.EmployeeName,
			DepartmentName:  row.DepartmentName,
			Quantity:        row.Quantity,
			Value:           row.Value(),
			AssignedAt:      row.AssignedAt,
			DueDate:         row.DueDate,
			DaysOverdue:     row.DaysOverdue(now),
			ReturnStatus:    row.ReturnStatus,
			ExtensionStatus: row.ExtensionStatus,
		}
	}
	return items
}
