package feed

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/assetflow/backend/internal/domain/catalog"
	"github.com/assetflow/backend/internal/domain/identity"
	"github.com/assetflow/backend/internal/domain/shared"
	"github.com/assetflow/backend/internal/domain/workflow"
	"github.com/google/uuid"
)

var processors = []shared.Role{shared.RoleMonitor, shared.RoleAdmin}

// EventForwarder turns committed domain events into feed messages
type EventForwarder struct {
	broadcaster Broadcaster
}

// NewEventForwarder creates a new EventForwarder
func NewEventForwarder(broadcaster Broadcaster) *EventForwarder {
	return &EventForwarder{broadcaster: broadcaster}
}

// EventTypes returns an empty slice: every event is considered
func (f *EventForwarder) EventTypes() []string {
	return nil
}

// Handle broadcasts the event to its audience
func (f *EventForwarder) Handle(ctx context.Context, event shared.DomainEvent) error {
	msg, ok, err := ToMessage(event)
	if err != nil || !ok {
		return err
	}
	return f.broadcaster.Broadcast(ctx, msg)
}

// ToMessage builds the feed message for an event. ok is false for events
// that are not shown on the feed.
func ToMessage(event shared.DomainEvent) (msg Message, ok bool, err error) {
	msg = Message{
		ID:     event.EventID().String(),
		Event:  event.EventType(),
		SentAt: event.OccurredAt(),
	}
	switch e := event.(type) {
	case *workflow.RequestEvent:
		msg.Roles = processors
		msg.EmployeeIDs = []uuid.UUID{e.EmployeeID}
	case *workflow.AssignmentEvent:
		msg.Roles = processors
		msg.EmployeeIDs = []uuid.UUID{e.EmployeeID}
	case *catalog.ProductEvent:
		// everyone sees catalog changes
	case *identity.RegistrationEvent:
		msg.Roles = []shared.Role{shared.RoleAdmin}
	case *identity.UserStatusEvent:
		msg.Roles = []shared.Role{shared.RoleAdmin}
		msg.UserIDs = []uuid.UUID{e.UserID}
	case *identity.UserRoleChangedEvent:
		msg.Roles = []shared.Role{shared.RoleAdmin}
		msg.UserIDs = []uuid.UUID{e.UserID}
	default:
		return Message{}, false, nil
	}

	data, err := json.Marshal(event)
	if err != nil {
		return Message{}, false, fmt.Errorf("marshal %s: %w", event.EventType(), err)
	}
	msg.Data = data
	return msg, true, nil
}
