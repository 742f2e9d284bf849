package identity

import (
	"regexp"
	"strings"
	"time"

	"github.com/assetflow/backend/internal/domain/shared"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// PasswordCost is the bcrypt cost used for new hashes
var PasswordCost = 12

var (
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_\-.]+$`)
	emailPattern    = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	letterPattern   = regexp.MustCompile(`[a-zA-Z]`)
	digitPattern    = regexp.MustCompile(`[0-9]`)
)

// User is an identity that can log in. Users are deactivated, never deleted.
type User struct {
	shared.BaseAggregateRoot
	Username     string
	Email        string
	PasswordHash string
	Role         shared.Role
	Active       bool
	LastLoginAt  *time.Time
}

// NewUser creates an active user with a freshly hashed password
func NewUser(username, email, password string, role shared.Role) (*User, error) {
	if err := ValidatePassword(password); err != nil {
		return nil, err
	}
	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}
	return NewUserWithHash(username, email, hash, role)
}

// NewUserWithHash creates an active user from an existing bcrypt hash,
// used when a registration request is approved.
func NewUserWithHash(username, email, passwordHash string, role shared.Role) (*User, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))
	if err := ValidateUsername(username); err != nil {
		return nil, err
	}
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}
	if !role.IsValid() {
		return nil, shared.NewValidationError("unknown role %q", role)
	}
	if passwordHash == "" {
		return nil, shared.NewValidationError("password is required")
	}

	u := &User{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Username:          username,
		Email:             email,
		PasswordHash:      passwordHash,
		Role:              role,
		Active:            true,
	}
	return u, nil
}

// VerifyPassword checks a plain-text password against the stored hash
func (u *User) VerifyPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// ChangePassword replaces the password after verifying the old one
func (u *User) ChangePassword(oldPassword, newPassword string) error {
	if !u.VerifyPassword(oldPassword) {
		return shared.NewValidationError("current password is incorrect")
	}
	if err := ValidatePassword(newPassword); err != nil {
		return err
	}
	hash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	u.touch()
	return nil
}

// ChangeRole reassigns between employee and monitor. Admin accounts are not
// reassigned through this path.
func (u *User) ChangeRole(target shared.Role, actorID uuid.UUID) error {
	if u.Role == shared.RoleAdmin {
		return shared.NewPermissionError("admin accounts cannot be reassigned")
	}
	if target != shared.RoleEmployee && target != shared.RoleMonitor {
		return shared.NewValidationError("role can only be changed to employee or monitor")
	}
	if !u.Active {
		return shared.NewInvalidStateError("cannot change the role of an inactive user")
	}
	if u.Role == target {
		return shared.NewInvalidStateError("user already has role %s", target)
	}

	from := u.Role
	u.Role = target
	u.touch()
	u.AddDomainEvent(&UserRoleChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventUserRoleChanged, AggregateTypeUser, u.ID, actorID),
		UserID:          u.ID,
		From:            from,
		To:              target,
	})
	return nil
}

// Deactivate disables login. The clearance check is the caller's duty.
func (u *User) Deactivate(actorID uuid.UUID) error {
	if !u.Active {
		return shared.NewInvalidStateError("user is already inactive")
	}
	if u.ID == actorID {
		return shared.NewPermissionError("cannot deactivate your own account")
	}
	u.Active = false
	u.touch()
	u.AddDomainEvent(newUserStatusEvent(EventUserDeactivated, u, actorID))
	return nil
}

// Activate re-enables login
func (u *User) Activate(actorID uuid.UUID) error {
	if u.Active {
		return shared.NewInvalidStateError("user is already active")
	}
	u.Active = true
	u.touch()
	u.AddDomainEvent(newUserStatusEvent(EventUserActivated, u, actorID))
	return nil
}

// RecordLogin stamps the last successful login
func (u *User) RecordLogin(at time.Time) {
	u.LastLoginAt = &at
}

func (u *User) touch() {
	u.UpdatedAt = time.Now()
	u.IncrementVersion()
}

// ValidateUsername checks username format
func ValidateUsername(username string) error {
	if len(username) < 3 {
		return shared.NewValidationError("username must be at least 3 characters")
	}
	if len(username) > 100 {
		return shared.NewValidationError("username cannot exceed 100 characters")
	}
	if !usernamePattern.MatchString(username) {
		return shared.NewValidationError("username can only contain letters, numbers, underscores, hyphens, and dots")
	}
	return nil
}

// ValidateEmail checks email format
func ValidateEmail(email string) error {
	if len(email) > 200 {
		return shared.NewValidationError("email cannot exceed 200 characters")
	}
	if !emailPattern.MatchString(email) {
		return shared.NewValidationError("invalid email format")
	}
	return nil
}

// ValidatePassword enforces the password policy
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return shared.NewValidationError("password must be at least 8 characters")
	}
	if len(password) > 72 {
		return shared.NewValidationError("password cannot exceed 72 characters")
	}
	if !letterPattern.MatchString(password) || !digitPattern.MatchString(password) {
		return shared.NewValidationError("password must contain at least one letter and one number")
	}
	return nil
}

// HashPassword hashes a password with bcrypt
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), PasswordCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
