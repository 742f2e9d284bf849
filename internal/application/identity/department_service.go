package identity

import (
	"context"
	"errors"

	"github.com/assetflow/backend/internal/domain/identity"
	"github.com/assetflow/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DepartmentService manages departments and which monitors look after them
type DepartmentService struct {
	scope       TransactionScope
	departments identity.DepartmentRepository
	monitors    identity.MonitorAssignmentRepository
	logger      *zap.Logger
}

// NewDepartmentService creates a new DepartmentService
func NewDepartmentService(scope TransactionScope, departments identity.DepartmentRepository, monitors identity.MonitorAssignmentRepository, logger *zap.Logger) *DepartmentService {
	return &DepartmentService{
		scope:       scope,
		departments: departments,
		monitors:    monitors,
		logger:      logger,
	}
}

// CreateDepartment adds a department (admin)
func (s *DepartmentService) CreateDepartment(ctx context.Context, actor shared.Actor, input DepartmentInput) (*DepartmentResponse, error) {
	if err := actor.RequireRole(shared.RoleAdmin); err != nil {
		return nil, err
	}
	dept, err := identity.NewDepartment(input.Code, input.Name, input.Description)
	if err != nil {
		return nil, err
	}
	exists, err := s.departments.ExistsByCode(ctx, dept.Code)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError(shared.CodeAlreadyExists, "department code "+dept.Code+" is already in use")
	}
	if err := s.departments.Create(ctx, dept); err != nil {
		return nil, err
	}
	s.logger.Info("Department created", zap.String("code", dept.Code))
	resp := ToDepartmentResponse(dept)
	return &resp, nil
}

// ListDepartments returns every department. Public so the sign-up form can offer them.
func (s *DepartmentService) ListDepartments(ctx context.Context) ([]DepartmentResponse, error) {
	depts, err := s.departments.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]DepartmentResponse, len(depts))
	for i := range depts {
		out[i] = ToDepartmentResponse(&depts[i])
	}
	return out, nil
}

// AssignMonitor makes a monitor responsible for a department (admin)
func (s *DepartmentService) AssignMonitor(ctx context.Context, actor shared.Actor, input MonitorLinkInput) (*MonitorLinkResponse, error) {
	if err := actor.RequireRole(shared.RoleAdmin); err != nil {
		return nil, err
	}

	var link *identity.MonitorAssignment
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		monitor, err := repos.Users().FindByID(ctx, input.MonitorID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return shared.NewValidationError("user %s does not exist", input.MonitorID)
			}
			return err
		}
		if _, err := repos.Departments().FindByID(ctx, input.DepartmentID); err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return shared.NewValidationError("department %s does not exist", input.DepartmentID)
			}
			return err
		}
		m, err := identity.NewMonitorAssignment(monitor, input.DepartmentID, actor.UserID)
		if err != nil {
			return err
		}
		if err := repos.MonitorAssignments().Create(ctx, m); err != nil {
			return err
		}
		link = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	resp := ToMonitorLinkResponse(link)
	return &resp, nil
}

// UnassignMonitor removes a monitor-department link (admin)
func (s *DepartmentService) UnassignMonitor(ctx context.Context, actor shared.Actor, monitorID, departmentID uuid.UUID) error {
	if err := actor.RequireRole(shared.RoleAdmin); err != nil {
		return err
	}
	return s.monitors.Delete(ctx, monitorID, departmentID)
}

// ListMonitorLinks returns monitor-department links, optionally for one department
func (s *DepartmentService) ListMonitorLinks(ctx context.Context, departmentID *uuid.UUID) ([]MonitorLinkResponse, error) {
	var (
		links []identity.MonitorAssignment
		err   error
	)
	if departmentID != nil {
		links, err = s.monitors.FindByDepartment(ctx, *departmentID)
	} else {
		links, err = s.monitors.FindAll(ctx)
	}
	if err != nil {
		return nil, err
	}
	out := make([]MonitorLinkResponse, len(links))
	for i := range links {
		out[i] = ToMonitorLinkResponse(&links[i])
	}
	return out, nil
}
