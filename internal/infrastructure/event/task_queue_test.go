package event

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/erp/salestax/internal/domain/salestax"
	"github.com/erp/salestax/internal/domain/shared"
	"github.com/erp/salestax/internal/domain/shared/valueobject"
	"github.com/erp/salestax/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupOutboxSQLite(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&models.OutboxEntryModel{}))
	return db
}

func newCommitTask(t *testing.T) *salestax.CommitTransactionRequested {
	order, err := salestax.NewSalesOrder(uuid.New(), "SO001", valueobject.USD,
		salestax.NewPartner(uuid.New(), "Customer", valueobject.Address{}))
	require.NoError(t, err)
	return salestax.NewCommitTransactionRequested(order)
}

// countingHandler fails the first failures calls and records the rest
type countingHandler struct {
	failures int32
	calls    atomic.Int32
	handled  chan shared.DomainEvent
}

func (h *countingHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	if n := h.calls.Add(1); n <= h.failures {
		return errors.New("temporarily unavailable")
	}
	h.handled <- event
	return nil
}

func (h *countingHandler) EventTypes() []string {
	return []string{salestax.EventTypeCommitTransactionRequested}
}

func TestOutboxTaskQueue_EndToEnd(t *testing.T) {
	ctx := context.Background()
	logger := zap.NewNop()
	db := setupOutboxSQLite(t)
	repo := NewGormOutboxRepository(db)

	serializer := NewEventSerializer()
	RegisterSalesTaxTasks(serializer)

	bus := NewDispatcher(logger)
	handler := &countingHandler{failures: 1, handled: make(chan shared.DomainEvent, 1)}
	bus.Subscribe(handler)

	queue := NewOutboxTaskQueue(repo, serializer, 3)
	task := newCommitTask(t)
	require.NoError(t, queue.Enqueue(ctx, task))

	counts, err := repo.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts[shared.OutboxStatusPending])

	processor := NewOutboxProcessor(repo, bus, serializer, DefaultOutboxProcessorConfig(), logger)

	// First delivery fails and is rescheduled
	processor.ProcessOnce(ctx)
	pending, err := repo.FindRetryable(ctx, time.Now().Add(time.Minute), 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, 1, pending[0].RetryCount)
	assert.Equal(t, 3, pending[0].MaxRetries)
	assert.Equal(t, task.OrganizationID(), pending[0].OrganizationID)

	// Make the retry due now and deliver again
	require.NoError(t, db.Model(&models.OutboxEntryModel{}).
		Where("id = ?", pending[0].ID).
		Update("next_retry_at", time.Now().Add(-time.Second)).Error)
	processor.ProcessOnce(ctx)

	select {
	case got := <-handler.handled:
		delivered, ok := got.(*salestax.CommitTransactionRequested)
		require.True(t, ok)
		assert.Equal(t, task.DocumentID, delivered.DocumentID)
	default:
		t.Fatal("task was not delivered")
	}

	entry, err := repo.FindByID(ctx, pending[0].ID)
	require.NoError(t, err)
	assert.Equal(t, shared.OutboxStatusSent, entry.Status)
	assert.NotNil(t, entry.ProcessedAt)
}

func TestOutboxTaskQueue_RejectsUnregisteredTasks(t *testing.T) {
	queue := NewOutboxTaskQueue(newMemoryOutbox(), NewEventSerializer(), 0)

	err := queue.Enqueue(context.Background(), newTestEvent("Unknown", uuid.New()))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "not registered")
}

func TestChannelTaskQueue_RetriesUntilSuccess(t *testing.T) {
	logger := zap.NewNop()
	bus := NewDispatcher(logger)
	handler := &countingHandler{failures: 2, handled: make(chan shared.DomainEvent, 1)}
	bus.Subscribe(handler)

	queue := NewChannelTaskQueue(bus, ChannelTaskQueueConfig{
		Workers: 1, Buffer: 4, MaxAttempts: 3, BaseBackoff: time.Millisecond,
	}, logger)
	require.NoError(t, queue.Start(context.Background()))

	require.NoError(t, queue.Enqueue(context.Background(), newCommitTask(t)))

	select {
	case <-handler.handled:
	case <-time.After(2 * time.Second):
		t.Fatal("task was not delivered")
	}
	assert.Equal(t, int32(3), handler.calls.Load())

	stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, queue.Stop(stopCtx))

	assert.ErrorIs(t, queue.Enqueue(context.Background(), newCommitTask(t)), ErrQueueStopped)
}

func TestChannelTaskQueue_GivesUpAfterMaxAttempts(t *testing.T) {
	logger := zap.NewNop()
	bus := NewDispatcher(logger)
	handler := &countingHandler{failures: 100, handled: make(chan shared.DomainEvent, 1)}
	bus.Subscribe(handler)

	queue := NewChannelTaskQueue(bus, ChannelTaskQueueConfig{
		Workers: 1, Buffer: 1, MaxAttempts: 2, BaseBackoff: time.Millisecond,
	}, logger)
	require.NoError(t, queue.Start(context.Background()))
	require.NoError(t, queue.Enqueue(context.Background(), newCommitTask(t)))

	stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, queue.Stop(stopCtx))

	assert.Equal(t, int32(2), handler.calls.Load())
}
