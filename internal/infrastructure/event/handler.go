package event

import (
	"context"

	"github.com/assetflow/backend/internal/domain/shared"
)

// HandlerFunc adapts a function into a shared.EventHandler
type HandlerFunc struct {
	types []string
	fn    func(ctx context.Context, event shared.DomainEvent) error
}

// NewHandlerFunc creates a handler for the given event types; none means all events
func NewHandlerFunc(fn func(ctx context.Context, event shared.DomainEvent) error, eventTypes ...string) *HandlerFunc {
	return &HandlerFunc{types: eventTypes, fn: fn}
}

// Handle calls the wrapped function
func (h *HandlerFunc) Handle(ctx context.Context, event shared.DomainEvent) error {
	return h.fn(ctx, event)
}

// EventTypes returns the subscribed types
func (h *HandlerFunc) EventTypes() []string {
	return h.types
}
