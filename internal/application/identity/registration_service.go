package identity

import (
	"context"
	"errors"
	"time"

	"github.com/assetflow/backend/internal/domain/identity"
	"github.com/assetflow/backend/internal/domain/shared"
	"github.com/assetflow/backend/internal/domain/workflow"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var errIdentityTaken = shared.NewDomainError(shared.CodeAlreadyExists, "username or email is already taken")

// RegistrationService handles self-service sign-up and its admin review
type RegistrationService struct {
	scope         TransactionScope
	registrations identity.RegistrationRepository
	publisher     shared.EventPublisher
	logger        *zap.Logger
	now           func() time.Time
}

// NewRegistrationService creates a new RegistrationService
func NewRegistrationService(scope TransactionScope, registrations identity.RegistrationRepository, logger *zap.Logger) *RegistrationService {
	return &RegistrationService{
		scope:         scope,
		registrations: registrations,
		logger:        logger,
		now:           time.Now,
	}
}

// SetEventPublisher sets the publisher for post-commit side effects
func (s *RegistrationService) SetEventPublisher(publisher shared.EventPublisher) {
	s.publisher = publisher
}

// Submit files a sign-up. Username and email must be unused by accounts and
// by other pending sign-ups.
func (s *RegistrationService) Submit(ctx context.Context, input RegistrationInput) (*RegistrationResponse, error) {
	reg, err := identity.NewRegistrationRequest(input.Username, input.Email, input.Password, input.FullName, input.Phone, input.DepartmentID)
	if err != nil {
		return nil, err
	}

	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		if _, err := repos.Departments().FindByID(ctx, reg.DepartmentID); err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return shared.NewValidationError("department %s does not exist", reg.DepartmentID)
			}
			return err
		}
		taken, err := repos.Users().ExistsByUsernameOrEmail(ctx, reg.Username, reg.Email)
		if err != nil {
			return err
		}
		if !taken {
			taken, err = repos.Registrations().ExistsPending(ctx, reg.Username, reg.Email)
			if err != nil {
				return err
			}
		}
		if taken {
			return errIdentityTaken
		}
		return repos.Registrations().Create(ctx, reg)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Registration submitted", zap.String("username", reg.Username))
	publish(ctx, s.publisher, reg)
	resp := ToRegistrationResponse(reg)
	return &resp, nil
}

// Process approves or rejects a pending sign-up (admin). Approval creates the
// employee account.
func (s *RegistrationService) Process(ctx context.Context, actor shared.Actor, id uuid.UUID, input RegistrationDecisionInput) (*RegistrationResponse, error) {
	decision, err := workflow.ParseDecision(input.Action)
	if err != nil {
		return nil, err
	}
	if err := actor.RequireRole(shared.RoleAdmin); err != nil {
		return nil, err
	}

	now := s.now()
	var reg *identity.RegistrationRequest
	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		r, err := repos.Registrations().FindByID(ctx, id)
		if err != nil {
			return err
		}
		if decision == workflow.DecisionRejected {
			if err := r.Reject(actor, input.Remarks, now); err != nil {
				return err
			}
			reg = r
			return repos.Registrations().Update(ctx, r)
		}

		if err := r.Approve(actor, now); err != nil {
			return err
		}
		if err := repos.Registrations().Update(ctx, r); err != nil {
			return err
		}
		taken, err := repos.Users().ExistsByUsernameOrEmail(ctx, r.Username, r.Email)
		if err != nil {
			return err
		}
		if taken {
			return errIdentityTaken
		}
		user, err := identity.NewUserWithHash(r.Username, r.Email, r.PasswordHash, shared.RoleEmployee)
		if err != nil {
			return err
		}
		if err := repos.Users().Create(ctx, user); err != nil {
			return err
		}
		employee, err := identity.NewEmployee(user.ID, r.FullName, r.Phone, r.DepartmentID)
		if err != nil {
			return err
		}
		if err := repos.Employees().Create(ctx, employee); err != nil {
			return err
		}
		reg = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Registration processed",
		zap.String("registration_id", reg.ID.String()),
		zap.String("status", string(reg.Status)))
	publish(ctx, s.publisher, reg)
	resp := ToRegistrationResponse(reg)
	return &resp, nil
}

// List returns sign-ups, newest first (admin)
func (s *RegistrationService) List(ctx context.Context, actor shared.Actor, filter RegistrationListFilter) (*shared.Paginated[RegistrationResponse], error) {
	if err := actor.RequireRole(shared.RoleAdmin); err != nil {
		return nil, err
	}
	query := shared.DefaultFilter()
	if filter.Page > 0 {
		query.Page = filter.Page
	}
	if filter.PageSize > 0 {
		query.PageSize = filter.PageSize
	}
	regs, total, err := s.registrations.FindAll(ctx, identity.RegistrationStatus(filter.Status), query)
	if err != nil {
		return nil, err
	}
	items := make([]RegistrationResponse, len(regs))
	for i := range regs {
		items[i] = ToRegistrationResponse(&regs[i])
	}
	page := shared.NewPaginated(items, total, query.Page, query.Limit())
	return &page, nil
}
