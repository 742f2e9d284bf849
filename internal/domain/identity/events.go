package identity

import (
	"github.com/assetflow/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Aggregate type constants
const (
	AggregateTypeUser         = "User"
	AggregateTypeRegistration = "RegistrationRequest"
)

// Identity event types
const (
	EventUserRoleChanged       = "user_role_changed"
	EventUserDeactivated       = "user_deactivated"
	EventUserActivated         = "user_activated"
	EventRegistrationSubmitted = "registration_submitted"
	EventRegistrationApproved  = "registration_approved"
	EventRegistrationRejected  = "registration_rejected"
)

// UserRoleChangedEvent is raised when a user moves between employee and monitor
type UserRoleChangedEvent struct {
	shared.BaseDomainEvent
	UserID uuid.UUID   `json:"user_id"`
	From   shared.Role `json:"from"`
	To     shared.Role `json:"to"`
}

// UserStatusEvent is raised on activation and deactivation
type UserStatusEvent struct {
	shared.BaseDomainEvent
	UserID   uuid.UUID `json:"user_id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
}

func newUserStatusEvent(eventType string, u *User, actorID uuid.UUID) *UserStatusEvent {
	return &UserStatusEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, AggregateTypeUser, u.ID, actorID),
		UserID:          u.ID,
		Username:        u.Username,
		Email:           u.Email,
	}
}

// RegistrationEvent is raised on registration lifecycle changes
type RegistrationEvent struct {
	shared.BaseDomainEvent
	RegistrationID uuid.UUID          `json:"registration_id"`
	Username       string             `json:"username"`
	Email          string             `json:"email"`
	FullName       string             `json:"full_name"`
	Status         RegistrationStatus `json:"status"`
	Remarks        string             `json:"remarks,omitempty"`
}

func newRegistrationEvent(eventType string, r *RegistrationRequest, actorID uuid.UUID) *RegistrationEvent {
	return &RegistrationEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, AggregateTypeRegistration, r.ID, actorID),
		RegistrationID:  r.ID,
		Username:        r.Username,
		Email:           r.Email,
		FullName:        r.FullName,
		Status:          r.Status,
		Remarks:         r.Remarks,
	}
}
