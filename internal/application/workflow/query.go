package workflow

import (
	"context"

	"github.com/assetflow/backend/internal/domain/shared"
	"github.com/assetflow/backend/internal/domain/workflow"
	"github.com/google/uuid"
)

func pageFilter(page, pageSize int, orderBy, orderDir string) shared.Filter {
	f := shared.DefaultFilter()
	if page > 0 {
		f.Page = page
	}
	if pageSize > 0 {
		f.PageSize = pageSize
	}
	if orderBy != "" {
		f.OrderBy = orderBy
	}
	if orderDir != "" {
		f.OrderDir = orderDir
	}
	return f
}

type listIDs struct {
	employee, product, department *uuid.UUID
}

func parseListIDs(employee, product, department string) (listIDs, error) {
	var (
		ids listIDs
		err error
	)
	if ids.employee, err = shared.ParseOptionalID("employee_id", employee); err != nil {
		return ids, err
	}
	if ids.product, err = shared.ParseOptionalID("product_id", product); err != nil {
		return ids, err
	}
	ids.department, err = shared.ParseOptionalID("department_id", department)
	return ids, err
}

// scopeToActor pins employees to their own records. Monitors and admins see everything.
func scopeToActor(actor shared.Actor, mine bool, requested *uuid.UUID) (*uuid.UUID, error) {
	if actor.HasRole(shared.RoleMonitor, shared.RoleAdmin) && !mine {
		return requested, nil
	}
	own, err := actor.RequireEmployee()
	if err != nil {
		return nil, err
	}
	if requested != nil && *requested != own && !actor.HasRole(shared.RoleMonitor, shared.RoleAdmin) {
		return nil, shared.NewPermissionError("employees can only view their own records")
	}
	return &own, nil
}

func canView(actor shared.Actor, employeeID uuid.UUID) error {
	if actor.HasRole(shared.RoleMonitor, shared.RoleAdmin) {
		return nil
	}
	if actor.EmployeeID != nil && *actor.EmployeeID == employeeID {
		return nil
	}
	return shared.NewPermissionError("employees can only view their own records")
}

// GetRequest returns one request
func (s *Service) GetRequest(ctx context.Context, actor shared.Actor, id uuid.UUID) (*RequestResponse, error) {
	r, err := s.requests.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := canView(actor, r.EmployeeID); err != nil {
		return nil, err
	}
	out := ToRequestResponse(r)
	return &out, nil
}

// ListRequests lists requests visible to the actor
func (s *Service) ListRequests(ctx context.Context, actor shared.Actor, filter RequestListFilter) (*shared.Paginated[RequestResponse], error) {
	ids, err := parseListIDs(filter.EmployeeID, filter.ProductID, filter.DepartmentID)
	if err != nil {
		return nil, err
	}
	employeeID, err := scopeToActor(actor, filter.Mine, ids.employee)
	if err != nil {
		return nil, err
	}
	query := workflow.RequestFilter{
		Filter:       pageFilter(filter.Page, filter.PageSize, filter.OrderBy, filter.OrderDir),
		EmployeeID:   employeeID,
		ProductID:    ids.product,
		DepartmentID: ids.department,
		Status:       workflow.RequestStatus(filter.Status),
	}
	requests, total, err := s.requests.FindAll(ctx, query)
	if err != nil {
		return nil, err
	}
	items := make([]RequestResponse, len(requests))
	for i := range requests {
		items[i] = ToRequestResponse(&requests[i])
	}
	page := shared.NewPaginated(items, total, query.Page, query.Limit())
	return &page, nil
}

// GetAssignment returns one assignment
func (s *Service) GetAssignment(ctx context.Context, actor shared.Actor, id uuid.UUID) (*AssignmentResponse, error) {
	a, err := s.assignments.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := canView(actor, a.EmployeeID); err != nil {
		return nil, err
	}
	out := ToAssignmentResponse(a, s.now())
	return &out, nil
}

// ListAssignments lists assignments visible to the actor
func (s *Service) ListAssignments(ctx context.Context, actor shared.Actor, filter AssignmentListFilter) (*shared.Paginated[AssignmentResponse], error) {
	ids, err := parseListIDs(filter.EmployeeID, filter.ProductID, filter.DepartmentID)
	if err != nil {
		return nil, err
	}
	employeeID, err := scopeToActor(actor, filter.Mine, ids.employee)
	if err != nil {
		return nil, err
	}
	now := s.now()
	query := workflow.AssignmentFilter{
		Filter:       pageFilter(filter.Page, filter.PageSize, filter.OrderBy, filter.OrderDir),
		EmployeeID:   employeeID,
		ProductID:    ids.product,
		DepartmentID: ids.department,
		Outstanding:  filter.Outstanding,
	}
	if filter.Overdue {
		outstanding := true
		query.Outstanding = &outstanding
		query.DueBefore = &now
	}
	if filter.PendingReturns {
		query.ReturnStatus = workflow.LifecycleRequested
	}
	if filter.PendingExtensions {
		query.ExtensionStatus = workflow.LifecycleRequested
	}

	assignments, total, err := s.assignments.FindAll(ctx, query)
	if err != nil {
		return nil, err
	}
	items := make([]AssignmentResponse, len(assignments))
	for i := range assignments {
		items[i] = ToAssignmentResponse(&assignments[i], now)
	}
	page := shared.NewPaginated(items, total, query.Page, query.Limit())
	return &page, nil
}
