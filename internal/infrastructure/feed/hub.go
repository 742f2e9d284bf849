// Package feed fans live workflow updates out to connected browsers. Delivery
// is best-effort: a listener whose buffer is full misses the message.
package feed

import (
	"context"
	"encoding/json"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/assetflow/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Message is one live-feed event. An empty audience reaches every listener;
// otherwise a listener receives it when its role, user or employee is named.
type Message struct {
	ID          string          `json:"id"`
	Event       string          `json:"event"`
	Data        json.RawMessage `json:"data"`
	Roles       []shared.Role   `json:"roles,omitempty"`
	UserIDs     []uuid.UUID     `json:"user_ids,omitempty"`
	EmployeeIDs []uuid.UUID     `json:"employee_ids,omitempty"`
	SentAt      time.Time       `json:"sent_at"`
}

// Broadcaster delivers messages to live listeners
type Broadcaster interface {
	Broadcast(ctx context.Context, msg Message) error
}

// Listener is one connected client
type Listener struct {
	ID         string
	UserID     uuid.UUID
	Role       shared.Role
	EmployeeID *uuid.UUID
	C          chan Message
	dropped    atomic.Int64
}

// Dropped returns how many messages the listener missed
func (l *Listener) Dropped() int64 {
	return l.dropped.Load()
}

// Accepts reports whether msg is addressed to the listener
func (l *Listener) Accepts(msg Message) bool {
	if len(msg.Roles) == 0 && len(msg.UserIDs) == 0 && len(msg.EmployeeIDs) == 0 {
		return true
	}
	if slices.Contains(msg.Roles, l.Role) || slices.Contains(msg.UserIDs, l.UserID) {
		return true
	}
	return l.EmployeeID != nil && slices.Contains(msg.EmployeeIDs, *l.EmployeeID)
}

// Hub keeps the listeners of this process
type Hub struct {
	mu         sync.RWMutex
	listeners  map[string]*Listener
	bufferSize int
	logger     *zap.Logger
}

// NewHub creates a new Hub; bufferSize is the per-listener queue length
func NewHub(bufferSize int, logger *zap.Logger) *Hub {
	if bufferSize <= 0 {
		bufferSize = 32
	}
	return &Hub{listeners: make(map[string]*Listener), bufferSize: bufferSize, logger: logger}
}

// Subscribe registers a listener for the actor
func (h *Hub) Subscribe(actor shared.Actor) *Listener {
	l := &Listener{
		ID:         uuid.NewString(),
		UserID:     actor.UserID,
		Role:       actor.Role,
		EmployeeID: actor.EmployeeID,
		C:          make(chan Message, h.bufferSize),
	}
	h.mu.Lock()
	h.listeners[l.ID] = l
	h.mu.Unlock()
	h.logger.Debug("Feed listener subscribed", zap.String("listener_id", l.ID), zap.String("role", string(l.Role)))
	return l
}

// Unsubscribe removes the listener and closes its channel
func (h *Hub) Unsubscribe(l *Listener) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.listeners[l.ID]; !ok {
		return
	}
	delete(h.listeners, l.ID)
	close(l.C)
}

// Broadcast delivers msg to every matching local listener
func (h *Hub) Broadcast(_ context.Context, msg Message) error {
	h.Deliver(msg)
	return nil
}

// Deliver hands msg to the matching listeners without blocking
func (h *Hub) Deliver(msg Message) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for _, l := range h.listeners {
		if !l.Accepts(msg) {
			continue
		}
		select {
		case l.C <- msg:
			delivered++
		default:
			l.dropped.Add(1)
			h.logger.Warn("Feed listener buffer full, dropping message",
				zap.String("listener_id", l.ID),
				zap.String("event", msg.Event))
		}
	}
	return delivered
}

// Count returns the number of connected listeners
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.listeners)
}

// Close disconnects every listener
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, l := range h.listeners {
		delete(h.listeners, id)
		close(l.C)
	}
}
