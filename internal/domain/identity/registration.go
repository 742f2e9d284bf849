package identity

import (
	"strings"
	"time"

	"github.com/assetflow/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// RegistrationStatus represents the review state of a sign-up
type RegistrationStatus string

const (
	RegistrationPending  RegistrationStatus = "pending"
	RegistrationApproved RegistrationStatus = "approved"
	RegistrationRejected RegistrationStatus = "rejected"
)

// RegistrationRequest is a self-service sign-up awaiting admin review
type RegistrationRequest struct {
	shared.BaseAggregateRoot
	Username     string
	Email        string
	FullName     string
	Phone        string
	DepartmentID uuid.UUID
	PasswordHash string
	Status       RegistrationStatus
	ProcessedBy  *uuid.UUID
	ProcessedAt  *time.Time
	Remarks      string
}

// NewRegistrationRequest validates the sign-up and hashes the password
func NewRegistrationRequest(username, email, password, fullName, phone string, departmentID uuid.UUID) (*RegistrationRequest, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))
	fullName = strings.TrimSpace(fullName)

	if err := ValidateUsername(username); err != nil {
		return nil, err
	}
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := ValidatePassword(password); err != nil {
		return nil, err
	}
	if fullName == "" {
		return nil, shared.NewValidationError("full name cannot be empty")
	}
	if departmentID == uuid.Nil {
		return nil, shared.NewValidationError("department is required")
	}
	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	r := &RegistrationRequest{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Username:          username,
		Email:             email,
		FullName:          fullName,
		Phone:             strings.TrimSpace(phone),
		DepartmentID:      departmentID,
		PasswordHash:      hash,
		Status:            RegistrationPending,
	}
	r.AddDomainEvent(newRegistrationEvent(EventRegistrationSubmitted, r, uuid.Nil))
	return r, nil
}

// Approve accepts the sign-up. The caller creates the User and Employee records.
func (r *RegistrationRequest) Approve(admin shared.Actor, now time.Time) error {
	return r.process(RegistrationApproved, admin, "", now)
}

// Reject declines the sign-up
func (r *RegistrationRequest) Reject(admin shared.Actor, remarks string, now time.Time) error {
	return r.process(RegistrationRejected, admin, remarks, now)
}

func (r *RegistrationRequest) process(target RegistrationStatus, admin shared.Actor, remarks string, now time.Time) error {
	if err := admin.RequireRole(shared.RoleAdmin); err != nil {
		return err
	}
	if r.Status != RegistrationPending {
		return shared.NewInvalidStateError("registration has already been %s", r.Status)
	}
	r.Status = target
	r.ProcessedBy = &admin.UserID
	r.ProcessedAt = &now
	r.Remarks = strings.TrimSpace(remarks)
	r.UpdatedAt = now
	r.IncrementVersion()

	eventType := EventRegistrationApproved
	if target == RegistrationRejected {
		eventType = EventRegistrationRejected
	}
	r.AddDomainEvent(newRegistrationEvent(eventType, r, admin.UserID))
	return nil
}
