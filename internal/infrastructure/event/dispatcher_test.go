package event

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/erp/salestax/internal/domain/salestax"
	"github.com/erp/salestax/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	commitType = salestax.EventTypeCommitTransactionRequested
	cancelType = salestax.EventTypeCancelTransactionRequested
)

// testEvent is a task with an arbitrary type
type testEvent struct {
	shared.BaseDomainEvent
	Data string `json:"data"`
}

func newTestEvent(eventType string, organizationID uuid.UUID) *testEvent {
	return &testEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, salestax.AggregateTypeInvoice, uuid.New(), organizationID),
		Data:            "INV/2026/0001",
	}
}

// testHandler records what it receives and returns err
type testHandler struct {
	eventTypes []string
	mu         sync.Mutex
	handled    []shared.DomainEvent
	err        error
}

func newTestHandler(eventTypes ...string) *testHandler {
	return &testHandler{eventTypes: eventTypes}
}

func (h *testHandler) Handle(_ context.Context, event shared.DomainEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handled = append(h.handled, event)
	return h.err
}

func (h *testHandler) EventTypes() []string { return h.eventTypes }

func (h *testHandler) setError(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.err = err
}

func (h *testHandler) getHandled() []shared.DomainEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]shared.DomainEvent(nil), h.handled...)
}

type panickingHandler struct{}

func (panickingHandler) Handle(context.Context, shared.DomainEvent) error { panic("nil gateway") }
func (panickingHandler) EventTypes() []string                            { return []string{commitType} }

func TestDispatcher_Routing(t *testing.T) {
	bus := NewDispatcher(zap.NewNop())
	commits := newTestHandler(commitType)
	cancels := newTestHandler(cancelType)
	both := newTestHandler(commitType, cancelType)
	everything := newTestHandler()
	bus.Subscribe(commits)
	bus.Subscribe(cancels)
	bus.Subscribe(both)
	bus.Subscribe(everything)

	org := uuid.New()
	require.NoError(t, bus.Publish(context.Background(),
		newTestEvent(commitType, org),
		newTestEvent(commitType, org),
		newTestEvent(cancelType, org),
		newTestEvent("salestax.Unrouted", org),
	))

	assert.Len(t, commits.getHandled(), 2)
	assert.Len(t, cancels.getHandled(), 1)
	assert.Len(t, both.getHandled(), 3)
	assert.Len(t, everything.getHandled(), 4)
}

func TestDispatcher_ExplicitTypesOverrideHandler(t *testing.T) {
	bus := NewDispatcher(zap.NewNop())
	handler := newTestHandler(commitType, cancelType)
	bus.Subscribe(handler, cancelType)

	assert.True(t, bus.HasHandlers(cancelType))
	assert.False(t, bus.HasHandlers(commitType))
}

func TestDispatcher_FailuresAreJoined(t *testing.T) {
	bus := NewDispatcher(zap.NewNop())
	failing := newTestHandler(commitType)
	failing.setError(errors.New("error on create_order(): 500. Reason: Internal Server Error"))
	after := newTestHandler(commitType)
	bus.Subscribe(failing)
	bus.Subscribe(panickingHandler{})
	bus.Subscribe(after)

	err := bus.Publish(context.Background(), newTestEvent(commitType, uuid.New()))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "create_order")
	assert.Contains(t, err.Error(), "panicked")
	assert.Len(t, after.getHandled(), 1, "later handlers still run")
}

func TestDispatcher_Unsubscribe(t *testing.T) {
	bus := NewDispatcher(zap.NewNop())
	handler := newTestHandler(commitType, cancelType)
	keep := newTestHandler(commitType)
	bus.Subscribe(handler)
	bus.Subscribe(keep)

	bus.Unsubscribe(handler)
	require.NoError(t, bus.Publish(context.Background(), newTestEvent(commitType, uuid.New())))

	assert.Empty(t, handler.getHandled())
	assert.Len(t, keep.getHandled(), 1)
	assert.True(t, bus.HasHandlers(commitType))
	assert.False(t, bus.HasHandlers(cancelType))
}

func TestDispatcher_StopRefusesPublish(t *testing.T) {
	bus := NewDispatcher(zap.NewNop())
	handler := newTestHandler(commitType)
	bus.Subscribe(handler)
	ctx := context.Background()

	require.NoError(t, bus.Stop(ctx))
	err := bus.Publish(ctx, newTestEvent(commitType, uuid.New()))
	assert.ErrorIs(t, err, ErrDispatcherStopped)
	assert.Empty(t, handler.getHandled())

	require.NoError(t, bus.Start(ctx))
	require.NoError(t, bus.Publish(ctx, newTestEvent(commitType, uuid.New())))
	assert.Len(t, handler.getHandled(), 1)
}
