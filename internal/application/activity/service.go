// Package activity records committed events in the activity log and serves
// the log to admins and monitors.
package activity

import (
	"context"
	"fmt"
	"time"

	"github.com/assetflow/backend/internal/domain/activity"
	"github.com/assetflow/backend/internal/domain/catalog"
	"github.com/assetflow/backend/internal/domain/identity"
	"github.com/assetflow/backend/internal/domain/shared"
	"github.com/assetflow/backend/internal/domain/workflow"
	"go.uber.org/zap"
)

// Recorder appends an activity entry for every committed event. Store
// failures are logged and swallowed.
type Recorder struct {
	store  activity.Store
	logger *zap.Logger
}

// NewRecorder creates a new Recorder
func NewRecorder(store activity.Store, logger *zap.Logger) *Recorder {
	return &Recorder{store: store, logger: logger}
}

// EventTypes returns nil so the recorder sees every event
func (r *Recorder) EventTypes() []string {
	return nil
}

// Handle records the event
func (r *Recorder) Handle(ctx context.Context, event shared.DomainEvent) error {
	entry := activity.FromEvent(event, Summarize(event))
	entry.Details = details(event)
	if err := r.store.Record(ctx, entry); err != nil {
		r.logger.Warn("Failed to record activity",
			zap.String("event_type", event.EventType()),
			zap.String("event_id", event.EventID().String()),
			zap.Error(err))
	}
	return nil
}

// Summarize renders a one-line description of an event
func Summarize(event shared.DomainEvent) string {
	switch e := event.(type) {
	case *workflow.RequestEvent:
		return fmt.Sprintf("request for %d unit(s) %s", e.Quantity, e.Status)
	case *workflow.AssignmentEvent:
		switch e.EventType() {
		case workflow.EventProductAssigned:
			return fmt.Sprintf("%d unit(s) assigned", e.Quantity)
		case workflow.EventReturnRequested:
			return "return requested"
		case workflow.EventReturnApproved:
			return fmt.Sprintf("%d unit(s) returned", e.Quantity)
		case workflow.EventReturnRejected:
			return "return rejected"
		case workflow.EventExtensionRequested:
			return "extension requested"
		case workflow.EventExtensionApproved:
			return "extension approved"
		case workflow.EventExtensionRejected:
			return "extension rejected"
		}
	case *catalog.ProductEvent:
		if e.Delta != 0 {
			return fmt.Sprintf("%s stock changed by %+d to %d", e.Name, e.Delta, e.Quantity)
		}
		return fmt.Sprintf("%s %s", e.Name, e.EventType())
	case *identity.RegistrationEvent:
		return fmt.Sprintf("registration of %s %s", e.Username, e.Status)
	case *identity.UserStatusEvent:
		return fmt.Sprintf("%s %s", e.Username, e.EventType())
	case *identity.UserRoleChangedEvent:
		return fmt.Sprintf("role changed from %s to %s", e.From, e.To)
	}
	return event.EventType()
}

func details(event shared.DomainEvent) map[string]any {
	switch e := event.(type) {
	case *workflow.RequestEvent:
		return map[string]any{"employee_id": e.EmployeeID.String(), "product_id": e.ProductID.String(), "quantity": e.Quantity}
	case *workflow.AssignmentEvent:
		d := map[string]any{"employee_id": e.EmployeeID.String(), "product_id": e.ProductID.String(), "quantity": e.Quantity}
		if e.DueDate != nil {
			d["due_date"] = e.DueDate.Format(time.RFC3339)
		}
		if e.Remarks != "" {
			d["remarks"] = e.Remarks
		}
		return d
	case *catalog.ProductEvent:
		return map[string]any{"quantity": e.Quantity, "delta": e.Delta}
	}
	return nil
}

// ListFilter narrows the activity listing
type ListFilter struct {
	ActorID    string     `form:"actor_id" binding:"omitempty,uuid"`
	EntityType string     `form:"entity_type"`
	EntityID   string     `form:"entity_id" binding:"omitempty,uuid"`
	Since      *time.Time `form:"since" time_format:"2006-01-02"`
	Page       int        `form:"page" binding:"omitempty,min=1"`
	PageSize   int        `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// Service reads the activity log
type Service struct {
	store activity.Store
}

// NewService creates a new Service
func NewService(store activity.Store) *Service {
	return &Service{store: store}
}

// List returns entries newest first. Monitors and admins only.
func (s *Service) List(ctx context.Context, actor shared.Actor, f ListFilter) (*shared.Paginated[activity.Entry], error) {
	if err := actor.RequireRole(shared.RoleMonitor, shared.RoleAdmin); err != nil {
		return nil, err
	}
	actorID, err := shared.ParseOptionalID("actor_id", f.ActorID)
	if err != nil {
		return nil, err
	}
	entityID, err := shared.ParseOptionalID("entity_id", f.EntityID)
	if err != nil {
		return nil, err
	}
	filter := activity.Filter{
		Filter:     shared.DefaultFilter(),
		ActorID:    actorID,
		EntityType: f.EntityType,
		EntityID:   entityID,
		Since:      f.Since,
	}
	if f.Page > 0 {
		filter.Page = f.Page
	}
	if f.PageSize > 0 {
		filter.PageSize = f.PageSize
	}
	entries, total, err := s.store.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	page := shared.NewPaginated(entries, total, filter.Page, filter.Limit())
	return &page, nil
}
