package identity

import (
	"context"
	"errors"
	"time"

	"github.com/assetflow/backend/internal/domain/identity"
	"github.com/assetflow/backend/internal/domain/shared"
	"github.com/assetflow/backend/internal/domain/workflow"
	"github.com/assetflow/backend/internal/infrastructure/auth"
	"github.com/assetflow/backend/internal/infrastructure/config"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func publish(ctx context.Context, publisher shared.EventPublisher, aggregates ...shared.AggregateRoot) {
	events := shared.DrainEvents(aggregates...)
	if publisher == nil || len(events) == 0 {
		return
	}
	_ = publisher.Publish(ctx, events...)
}

// UserService manages accounts: listing, role changes and deactivation
type UserService struct {
	scope      TransactionScope
	users      identity.UserRepository
	employees  identity.EmployeeRepository
	blacklist  auth.TokenBlacklist
	sessionTTL time.Duration
	publisher  shared.EventPublisher
	logger     *zap.Logger
}

// NewUserService creates a new UserService
func NewUserService(scope TransactionScope, users identity.UserRepository, employees identity.EmployeeRepository, logger *zap.Logger) *UserService {
	return &UserService{
		scope:     scope,
		users:     users,
		employees: employees,
		logger:    logger,
	}
}

// SetEventPublisher sets the publisher for post-commit side effects
func (s *UserService) SetEventPublisher(publisher shared.EventPublisher) {
	s.publisher = publisher
}

// SetSessionRevoker makes role changes and deactivation end the user's
// open sessions. ttl should cover the access token lifetime.
func (s *UserService) SetSessionRevoker(blacklist auth.TokenBlacklist, ttl time.Duration) {
	s.blacklist = blacklist
	s.sessionTTL = ttl
}

func (s *UserService) revokeSessions(ctx context.Context, userID uuid.UUID) {
	if s.blacklist == nil {
		return
	}
	if err := s.blacklist.RevokeUser(ctx, userID.String(), s.sessionTTL); err != nil {
		s.logger.Warn("side effect failed",
			zap.String("effect", "revoke_sessions"),
			zap.String("user_id", userID.String()),
			zap.Error(err))
	}
}

// ListUsers lists accounts (admin)
func (s *UserService) ListUsers(ctx context.Context, actor shared.Actor, filter UserListFilter) (*shared.Paginated[UserResponse], error) {
	if err := actor.RequireRole(shared.RoleAdmin); err != nil {
		return nil, err
	}
	deptID, err := shared.ParseOptionalID("department_id", filter.DepartmentID)
	if err != nil {
		return nil, err
	}
	query := identity.UserFilter{
		Filter:       shared.DefaultFilter(),
		Role:         shared.Role(filter.Role),
		Active:       filter.Active,
		DepartmentID: deptID,
	}
	query.Search = filter.Search
	if filter.Page > 0 {
		query.Page = filter.Page
	}
	if filter.PageSize > 0 {
		query.PageSize = filter.PageSize
	}
	if filter.OrderBy != "" {
		query.OrderBy = filter.OrderBy
	}
	if filter.OrderDir != "" {
		query.OrderDir = filter.OrderDir
	}

	users, total, err := s.users.FindAll(ctx, query)
	if err != nil {
		return nil, err
	}
	items := make([]UserResponse, len(users))
	for i := range users {
		employee, err := findEmployee(ctx, s.employees, users[i].ID)
		if err != nil {
			return nil, err
		}
		items[i] = ToUserResponse(&users[i], employee)
	}
	page := shared.NewPaginated(items, total, query.Page, query.Limit())
	return &page, nil
}

// GetUser returns one account. Non-admins may only read their own.
func (s *UserService) GetUser(ctx context.Context, actor shared.Actor, id uuid.UUID) (*UserResponse, error) {
	if actor.UserID != id && !actor.HasRole(shared.RoleAdmin, shared.RoleMonitor) {
		return nil, shared.NewPermissionError("cannot view another user's account")
	}
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	employee, err := findEmployee(ctx, s.employees, id)
	if err != nil {
		return nil, err
	}
	resp := ToUserResponse(user, employee)
	return &resp, nil
}

// ChangeRole moves a user between employee and monitor. Demotion drops the
// user's monitor-department links.
func (s *UserService) ChangeRole(ctx context.Context, actor shared.Actor, id uuid.UUID, input ChangeRoleInput) (*UserResponse, error) {
	if err := actor.RequireRole(shared.RoleAdmin); err != nil {
		return nil, err
	}

	var user *identity.User
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		u, err := repos.Users().FindByID(ctx, id)
		if err != nil {
			return err
		}
		if err := u.ChangeRole(shared.Role(input.Role), actor.UserID); err != nil {
			return err
		}
		if err := repos.Users().Update(ctx, u); err != nil {
			return err
		}
		if u.Role == shared.RoleEmployee {
			if err := repos.MonitorAssignments().DeleteByMonitor(ctx, u.ID); err != nil {
				return err
			}
		}
		user = u
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("User role changed",
		zap.String("user_id", user.ID.String()),
		zap.String("role", string(user.Role)),
		zap.String("by", actor.UserID.String()))
	publish(ctx, s.publisher, user)
	s.revokeSessions(ctx, user.ID)
	return s.GetUser(ctx, actor, user.ID)
}

// DeactivationRemark is recorded on pending requests closed by a deactivation
const DeactivationRemark = "requester account deactivated"

// Deactivate disables an account. It is refused while the user still holds
// unreturned products; the error carries the exact count. Pending requests
// of the user are rejected in the same transaction.
func (s *UserService) Deactivate(ctx context.Context, actor shared.Actor, id uuid.UUID) (*UserResponse, error) {
	if err := actor.RequireRole(shared.RoleAdmin); err != nil {
		return nil, err
	}

	var (
		user     *identity.User
		rejected []workflow.ProductRequest
	)
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		// Approvals lock the same row before assigning, so the clearance
		// count cannot miss an assignment committed in between.
		u, err := repos.Users().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := workflow.RequireClearance(ctx, repos.Employees(), repos.Assignments(), u.ID); err != nil {
			return err
		}
		if err := u.Deactivate(actor.UserID); err != nil {
			return err
		}
		if err := repos.Users().Update(ctx, u); err != nil {
			return err
		}
		if err := repos.MonitorAssignments().DeleteByMonitor(ctx, u.ID); err != nil {
			return err
		}
		rejected, err = rejectPendingRequests(ctx, repos, actor, u.ID)
		if err != nil {
			return err
		}
		user = u
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("User deactivated",
		zap.String("user_id", user.ID.String()),
		zap.String("by", actor.UserID.String()),
		zap.Int("requests_rejected", len(rejected)))
	publish(ctx, s.publisher, user)
	for i := range rejected {
		publish(ctx, s.publisher, &rejected[i])
	}
	s.revokeSessions(ctx, user.ID)
	return s.GetUser(ctx, actor, user.ID)
}

func rejectPendingRequests(ctx context.Context, repos TransactionalRepositories, actor shared.Actor, userID uuid.UUID) ([]workflow.ProductRequest, error) {
	emp, err := repos.Employees().FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	pending, err := repos.Requests().FindPendingByEmployee(ctx, emp.ID)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	for i := range pending {
		if err := pending[i].Process(workflow.DecisionRejected, actor, DeactivationRemark, now); err != nil {
			return nil, err
		}
		if err := repos.Requests().Update(ctx, &pending[i]); err != nil {
			return nil, err
		}
	}
	return pending, nil
}

// Reactivate re-enables a deactivated account
func (s *UserService) Reactivate(ctx context.Context, actor shared.Actor, id uuid.UUID) (*UserResponse, error) {
	if err := actor.RequireRole(shared.RoleAdmin); err != nil {
		return nil, err
	}

	var user *identity.User
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		u, err := repos.Users().FindByID(ctx, id)
		if err != nil {
			return err
		}
		if err := u.Activate(actor.UserID); err != nil {
			return err
		}
		if err := repos.Users().Update(ctx, u); err != nil {
			return err
		}
		user = u
		return nil
	})
	if err != nil {
		return nil, err
	}

	publish(ctx, s.publisher, user)
	return s.GetUser(ctx, actor, user.ID)
}

// EnsureAdmin creates the bootstrap admin when no admin account exists.
// It is a no-op when an admin exists or no credentials are configured.
func (s *UserService) EnsureAdmin(ctx context.Context, cfg config.BootstrapConfig) error {
	count, err := s.users.CountByRole(ctx, shared.RoleAdmin)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	if cfg.AdminUsername == "" || cfg.AdminPassword == "" {
		s.logger.Warn("No admin account exists and no bootstrap credentials are configured")
		return nil
	}

	admin, err := identity.NewUser(cfg.AdminUsername, cfg.AdminEmail, cfg.AdminPassword, shared.RoleAdmin)
	if err != nil {
		return err
	}
	if err := s.users.Create(ctx, admin); err != nil {
		return err
	}
	s.logger.Info("Bootstrap admin created", zap.String("username", admin.Username))
	return nil
}
