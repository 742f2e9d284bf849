package event

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/assetflow/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type testEvent struct {
	shared.BaseDomainEvent
}

func newTestEvent(eventType string) *testEvent {
	return &testEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, "TestAggregate", uuid.New(), uuid.New()),
	}
}

type recordingHandler struct {
	mu      sync.Mutex
	handled []shared.DomainEvent
	err     error
	panics  bool
}

func (h *recordingHandler) Handle(_ context.Context, event shared.DomainEvent) error {
	if h.panics {
		panic("boom")
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handled = append(h.handled, event)
	return h.err
}

func (h *recordingHandler) EventTypes() []string { return nil }

func (h *recordingHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.handled)
}

func TestInMemoryEventBus_Publish(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	approved := &recordingHandler{}
	all := &recordingHandler{}
	bus.Subscribe(approved, "request_approved")
	bus.Subscribe(all)

	require.NoError(t, bus.Publish(context.Background(),
		newTestEvent("request_approved"),
		newTestEvent("request_rejected"),
	))

	assert.Equal(t, 1, approved.count())
	assert.Equal(t, 2, all.count())
}

func TestInMemoryEventBus_HandlerFailuresAreContained(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	bus := NewInMemoryEventBus(zap.New(core))

	failing := &recordingHandler{err: errors.New("smtp down")}
	panicking := &recordingHandler{panics: true}
	healthy := &recordingHandler{}
	bus.Subscribe(failing, "x")
	bus.Subscribe(panicking, "x")
	bus.Subscribe(healthy, "x")

	err := bus.Publish(context.Background(), newTestEvent("x"))

	require.NoError(t, err)
	assert.Equal(t, 1, healthy.count())
	assert.Equal(t, 1, logs.FilterMessage("side effect failed").Len())
	assert.Equal(t, 1, logs.FilterMessage("handler panicked").Len())
}

func TestInMemoryEventBus_AsyncStopWaits(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop(), WithAsyncDispatch())
	var mu sync.Mutex
	var seen int
	bus.Subscribe(NewHandlerFunc(func(context.Context, shared.DomainEvent) error {
		time.Sleep(20 * time.Millisecond)
		mu.Lock()
		seen++
		mu.Unlock()
		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, bus.Publish(ctx, newTestEvent("a"), newTestEvent("b")))
	cancel()

	stopCtx, stopCancel := context.WithTimeout(context.Background(), time.Second)
	defer stopCancel()
	require.NoError(t, bus.Stop(stopCtx))

	mu.Lock()
	assert.Equal(t, 2, seen)
	mu.Unlock()

	// Stopped bus drops new events.
	require.NoError(t, bus.Publish(context.Background(), newTestEvent("c")))
	assert.NoError(t, bus.Stop(stopCtx))
	mu.Lock()
	assert.Equal(t, 2, seen)
	mu.Unlock()
}

func TestHandlerRegistry_Unregister(t *testing.T) {
	r := NewHandlerRegistry()
	h := &recordingHandler{}
	r.Register(h, "a", "b")
	r.Register(h)

	assert.Len(t, r.GetHandlers("a"), 2)
	r.Unregister(h)
	assert.Empty(t, r.GetHandlers("a"))
	assert.Empty(t, r.GetHandlers("b"))
}
