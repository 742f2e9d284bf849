package identity

import (
	"context"
	"errors"
	"time"

	"github.com/assetflow/backend/internal/domain/identity"
	"github.com/assetflow/backend/internal/domain/shared"
	"github.com/assetflow/backend/internal/infrastructure/auth"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var errInvalidCredentials = shared.NewDomainError(shared.CodeUnauthorized, "invalid username or password")

// AuthService handles login, logout and the current user's account
type AuthService struct {
	users     identity.UserRepository
	employees identity.EmployeeRepository
	tokens    *auth.JWTService
	blacklist auth.TokenBlacklist
	logger    *zap.Logger
	now       func() time.Time
}

// NewAuthService creates a new authentication service
func NewAuthService(
	users identity.UserRepository,
	employees identity.EmployeeRepository,
	tokens *auth.JWTService,
	blacklist auth.TokenBlacklist,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		employees: employees,
		tokens:    tokens,
		blacklist: blacklist,
		logger:    logger,
		now:       time.Now,
	}
}

// findEmployee returns the user's employee record, or nil for admins without one
func findEmployee(ctx context.Context, employees identity.EmployeeRepository, userID uuid.UUID) (*identity.Employee, error) {
	e, err := employees.FindByUserID(ctx, userID)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, nil
	}
	return e, err
}

// Login verifies credentials and issues an access token
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	user, err := s.users.FindByUsername(ctx, input.Username)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.logger.Warn("Login for unknown user", zap.String("username", input.Username))
			return nil, errInvalidCredentials
		}
		return nil, err
	}
	if !user.VerifyPassword(input.Password) {
		s.logger.Warn("Invalid password attempt", zap.String("username", input.Username))
		return nil, errInvalidCredentials
	}
	if !user.Active {
		s.logger.Warn("Login attempt for deactivated account", zap.String("username", input.Username))
		return nil, shared.NewDomainError(shared.CodeUnauthorized, "account has been deactivated")
	}

	employee, err := findEmployee(ctx, s.employees, user.ID)
	if err != nil {
		return nil, err
	}
	tokenInput := auth.TokenInput{UserID: user.ID, Username: user.Username, Role: user.Role}
	if employee != nil {
		tokenInput.EmployeeID = &employee.ID
		tokenInput.DepartmentID = &employee.DepartmentID
	}
	token, err := s.tokens.Issue(tokenInput)
	if err != nil {
		s.logger.Error("Failed to issue access token", zap.Error(err))
		return nil, err
	}

	now := s.now()
	if err := s.users.RecordLogin(ctx, user.ID, now); err != nil {
		s.logger.Warn("Failed to record login", zap.Error(err))
	}
	user.RecordLogin(now)

	s.logger.Info("User logged in",
		zap.String("user_id", user.ID.String()),
		zap.String("role", string(user.Role)))

	return &LoginResult{
		AccessToken: token.Token,
		TokenType:   token.TokenType,
		ExpiresAt:   token.ExpiresAt,
		User:        ToUserResponse(user, employee),
	}, nil
}

// Logout revokes the presented token for the rest of its lifetime
func (s *AuthService) Logout(ctx context.Context, claims *auth.Claims) error {
	if claims == nil || claims.ID == "" {
		return nil
	}
	ttl := claims.RemainingTTL(s.now())
	if ttl <= 0 {
		return nil
	}
	if err := s.blacklist.Revoke(ctx, claims.ID, ttl); err != nil {
		return err
	}
	s.logger.Info("User logged out", zap.String("user_id", claims.UserID))
	return nil
}

// Authenticate validates a bearer token and resolves the actor it speaks for.
// Revoked tokens and tokens predating a session revocation are rejected.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*auth.Claims, shared.Actor, error) {
	claims, err := s.tokens.Validate(token)
	if err != nil {
		return nil, shared.Actor{}, err
	}
	revoked, err := s.blacklist.IsRevoked(ctx, claims.ID)
	if err != nil {
		s.logger.Warn("Token blacklist unavailable", zap.Error(err))
	} else if revoked {
		return nil, shared.Actor{}, auth.ErrTokenRevoked
	}
	revoked, err = s.blacklist.IsUserRevoked(ctx, claims.UserID, claims.IssuedAtTime())
	if err != nil {
		s.logger.Warn("Token blacklist unavailable", zap.Error(err))
	} else if revoked {
		return nil, shared.Actor{}, auth.ErrTokenRevoked
	}
	actor, err := claims.Actor()
	if err != nil {
		return nil, shared.Actor{}, err
	}
	return claims, actor, nil
}

// CurrentUser returns the authenticated user's account
func (s *AuthService) CurrentUser(ctx context.Context, actor shared.Actor) (*UserResponse, error) {
	user, err := s.users.FindByID(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	employee, err := findEmployee(ctx, s.employees, user.ID)
	if err != nil {
		return nil, err
	}
	resp := ToUserResponse(user, employee)
	return &resp, nil
}

// ChangePassword replaces the actor's password after verifying the old one
func (s *AuthService) ChangePassword(ctx context.Context, actor shared.Actor, input ChangePasswordInput) error {
	user, err := s.users.FindByID(ctx, actor.UserID)
	if err != nil {
		return err
	}
	if err := user.ChangePassword(input.OldPassword, input.NewPassword); err != nil {
		return err
	}
	if err := s.users.Update(ctx, user); err != nil {
		return err
	}
	s.logger.Info("User password changed", zap.String("user_id", user.ID.String()))
	return nil
}
