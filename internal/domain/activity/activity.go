// Package activity models the audit trail of workflow and administrative actions.
package activity

import (
	"context"
	"time"

	"github.com/assetflow/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Entry is one line of the activity log. Entries are append-only.
type Entry struct {
	ID         uuid.UUID      `json:"id"`
	ActorID    uuid.UUID      `json:"actor_id"`
	Action     string         `json:"action"`
	EntityType string         `json:"entity_type"`
	EntityID   uuid.UUID      `json:"entity_id"`
	Summary    string         `json:"summary"`
	Details    map[string]any `json:"details,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// NewEntry creates an entry stamped now
func NewEntry(actorID uuid.UUID, action, entityType string, entityID uuid.UUID, summary string) *Entry {
	return &Entry{
		ID:         uuid.New(),
		ActorID:    actorID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Summary:    summary,
		CreatedAt:  time.Now(),
	}
}

// FromEvent derives an entry from a domain event
func FromEvent(event shared.DomainEvent, summary string) *Entry {
	return &Entry{
		ID:         event.EventID(),
		ActorID:    event.ActorID(),
		Action:     event.EventType(),
		EntityType: event.AggregateType(),
		EntityID:   event.AggregateID(),
		Summary:    summary,
		CreatedAt:  event.OccurredAt(),
	}
}

// Filter narrows activity listings
type Filter struct {
	shared.Filter
	ActorID    *uuid.UUID
	EntityType string
	EntityID   *uuid.UUID
	Since      *time.Time
}

// Store records and lists activity entries
type Store interface {
	Record(ctx context.Context, e *Entry) error
	FindAll(ctx context.Context, filter Filter) ([]Entry, int64, error)
}
