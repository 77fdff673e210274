package event

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/erp/salestax/internal/domain/salestax"
	"github.com/erp/salestax/internal/domain/shared"
	"github.com/erp/salestax/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// memoryOutbox is an in-memory outbox with injectable failures
type memoryOutbox struct {
	mu        sync.Mutex
	entries   map[uuid.UUID]*shared.OutboxEntry
	retryable []*shared.OutboxEntry
	updateErr error
	deleted   time.Time
}

func newMemoryOutbox(entries ...*shared.OutboxEntry) *memoryOutbox {
	o := &memoryOutbox{entries: make(map[uuid.UUID]*shared.OutboxEntry)}
	_ = o.Save(context.Background(), entries...)
	return o
}

func (o *memoryOutbox) Save(_ context.Context, entries ...*shared.OutboxEntry) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, e := range entries {
		o.entries[e.ID] = e
	}
	return nil
}

func (o *memoryOutbox) FindPending(_ context.Context, limit int) ([]*shared.OutboxEntry, error) {
	return o.withStatus(shared.OutboxStatusPending, limit), nil
}

func (o *memoryOutbox) FindRetryable(context.Context, time.Time, int) ([]*shared.OutboxEntry, error) {
	return o.retryable, nil
}

func (o *memoryOutbox) MarkProcessing(_ context.Context, ids []uuid.UUID) ([]*shared.OutboxEntry, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	var claimed []*shared.OutboxEntry
	for _, id := range ids {
		if e, ok := o.entries[id]; ok && e.MarkProcessing() == nil {
			claimed = append(claimed, e)
		}
	}
	return claimed, nil
}

func (o *memoryOutbox) Update(_ context.Context, entry *shared.OutboxEntry) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.updateErr != nil {
		return o.updateErr
	}
	o.entries[entry.ID] = entry
	return nil
}

func (o *memoryOutbox) DeleteOlderThan(_ context.Context, before time.Time) (int64, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.deleted = before
	return 0, nil
}

func (o *memoryOutbox) FindDead(_ context.Context, _, pageSize int) ([]*shared.OutboxEntry, int64, error) {
	dead := o.withStatus(shared.OutboxStatusDead, pageSize)
	return dead, int64(len(dead)), nil
}

func (o *memoryOutbox) FindByID(_ context.Context, id uuid.UUID) (*shared.OutboxEntry, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if e, ok := o.entries[id]; ok {
		return e, nil
	}
	return nil, shared.ErrNotFound
}

func (o *memoryOutbox) status(id uuid.UUID) shared.OutboxStatus {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.entries[id].Status
}

func (o *memoryOutbox) withStatus(status shared.OutboxStatus, limit int) []*shared.OutboxEntry {
	o.mu.Lock()
	defer o.mu.Unlock()
	var out []*shared.OutboxEntry
	for _, e := range o.entries {
		if e.Status == status {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// processorFixture wires a processor to a bus with one commit task handler
type processorFixture struct {
	outbox     *memoryOutbox
	handler    *testHandler
	serializer *EventSerializer
	processor  *OutboxProcessor
}

func newProcessorFixture(t *testing.T, config OutboxProcessorConfig) *processorFixture {
	t.Helper()
	f := &processorFixture{
		outbox:     newMemoryOutbox(),
		handler:    newTestHandler(salestax.EventTypeCommitTransactionRequested),
		serializer: NewEventSerializer(),
	}
	RegisterSalesTaxTasks(f.serializer)
	bus := NewDispatcher(zap.NewNop())
	bus.Subscribe(f.handler)
	f.processor = NewOutboxProcessor(f.outbox, bus, f.serializer, config, zap.NewNop())
	return f
}

func (f *processorFixture) queue(t *testing.T) *shared.OutboxEntry {
	t.Helper()
	task := newCommitTask(t)
	payload, err := f.serializer.Serialize(task)
	require.NoError(t, err)
	entry := shared.NewOutboxEntry(task, payload)
	require.NoError(t, f.outbox.Save(context.Background(), entry))
	return entry
}

func TestOutboxProcessor_StartDeliversInBackground(t *testing.T) {
	config := DefaultOutboxProcessorConfig()
	config.PollInterval = 10 * time.Millisecond
	config.CleanupEnabled = false
	f := newProcessorFixture(t, config)
	entry := f.queue(t)

	require.NoError(t, f.processor.Start(context.Background()))
	require.Eventually(t, func() bool {
		return f.outbox.status(entry.ID) == shared.OutboxStatusSent
	}, 2*time.Second, 10*time.Millisecond)

	stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, f.processor.Stop(stopCtx))

	handled := f.handler.getHandled()
	require.Len(t, handled, 1)
	commit, ok := handled[0].(*salestax.CommitTransactionRequested)
	require.True(t, ok)
	assert.Equal(t, entry.AggregateID, commit.DocumentID)
}

func TestOutboxProcessor_StopWithoutStart(t *testing.T) {
	f := newProcessorFixture(t, DefaultOutboxProcessorConfig())
	assert.NoError(t, f.processor.Stop(context.Background()))
}

func TestOutboxProcessor_ProcessOnceCountsDeliveries(t *testing.T) {
	f := newProcessorFixture(t, DefaultOutboxProcessorConfig())
	first, second := f.queue(t), f.queue(t)

	assert.Equal(t, 2, f.processor.ProcessOnce(context.Background()))
	assert.Equal(t, shared.OutboxStatusSent, f.outbox.status(first.ID))
	assert.Equal(t, shared.OutboxStatusSent, f.outbox.status(second.ID))
	assert.Zero(t, f.processor.ProcessOnce(context.Background()), "sent tasks are not delivered twice")
}

func TestOutboxProcessor_UnknownTaskTypeFails(t *testing.T) {
	f := newProcessorFixture(t, DefaultOutboxProcessorConfig())
	entry := f.queue(t)
	entry.EventType = "salestax.RecomputeRequested"

	assert.Zero(t, f.processor.ProcessOnce(context.Background()))

	stored, err := f.outbox.FindByID(context.Background(), entry.ID)
	require.NoError(t, err)
	assert.Equal(t, shared.OutboxStatusFailed, stored.Status)
	assert.Contains(t, stored.LastError, "unknown event type")
	assert.Empty(t, f.handler.getHandled())
}

func TestOutboxProcessor_HandlerFailureSchedulesRetry(t *testing.T) {
	f := newProcessorFixture(t, DefaultOutboxProcessorConfig())
	f.handler.setError(errors.New("error on create_order(): 503. Reason: Service Unavailable"))
	entry := f.queue(t)

	assert.Zero(t, f.processor.ProcessOnce(context.Background()))

	stored, err := f.outbox.FindByID(context.Background(), entry.ID)
	require.NoError(t, err)
	assert.Equal(t, shared.OutboxStatusFailed, stored.Status)
	assert.Equal(t, 1, stored.RetryCount)
	assert.Contains(t, stored.LastError, "create_order")
	require.NotNil(t, stored.NextRetryAt)
	assert.True(t, stored.NextRetryAt.After(time.Now()))
}

func TestOutboxProcessor_LastAttemptDeadLetters(t *testing.T) {
	f := newProcessorFixture(t, DefaultOutboxProcessorConfig())
	f.handler.setError(errors.New("error on create_order(): 400. Reason: Bad Request"))
	entry := f.queue(t)
	entry.Status = shared.OutboxStatusFailed
	entry.RetryCount = entry.MaxRetries - 1
	f.outbox.retryable = []*shared.OutboxEntry{entry}

	f.processor.ProcessOnce(context.Background())

	dead, total, err := f.outbox.FindDead(context.Background(), 1, 10)
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	assert.Equal(t, entry.ID, dead[0].ID)
	assert.Nil(t, dead[0].NextRetryAt)
}

func TestOutboxProcessor_UnrecordedDeliveryIsNotCounted(t *testing.T) {
	f := newProcessorFixture(t, DefaultOutboxProcessorConfig())
	f.queue(t)
	f.outbox.updateErr = errors.New("connection reset")

	assert.Zero(t, f.processor.ProcessOnce(context.Background()))
	assert.Len(t, f.handler.getHandled(), 1)
}

func TestOutboxProcessor_Cleanup(t *testing.T) {
	config := DefaultOutboxProcessorConfig()
	config.CleanupRetention = 48 * time.Hour
	f := newProcessorFixture(t, config)

	f.processor.cleanup(context.Background())
	assert.WithinDuration(t, time.Now().Add(-48*time.Hour), f.outbox.deleted, time.Minute)
}

func TestOutboxProcessor_ReleasesStaleClaims(t *testing.T) {
	ctx := context.Background()
	db := setupOutboxSQLite(t)
	repo := NewGormOutboxRepository(db)
	serializer := NewEventSerializer()
	RegisterSalesTaxTasks(serializer)

	task := newCommitTask(t)
	payload, err := serializer.Serialize(task)
	require.NoError(t, err)
	stale := shared.NewOutboxEntry(task, payload)
	stale.Status = shared.OutboxStatusProcessing
	require.NoError(t, repo.Save(ctx, stale))
	require.NoError(t, db.Model(&models.OutboxEntryModel{}).
		Where("id = ?", stale.ID).
		Update("updated_at", time.Now().Add(-time.Hour)).Error)

	bus := NewDispatcher(zap.NewNop())
	handler := newTestHandler(salestax.EventTypeCommitTransactionRequested)
	bus.Subscribe(handler)

	t.Run("disabled", func(t *testing.T) {
		config := DefaultOutboxProcessorConfig()
		config.ClaimTimeout = 0
		assert.Zero(t, NewOutboxProcessor(repo, bus, serializer, config, zap.NewNop()).ProcessOnce(ctx))
	})

	t.Run("redelivers after the claim timeout", func(t *testing.T) {
		processor := NewOutboxProcessor(repo, bus, serializer, DefaultOutboxProcessorConfig(), zap.NewNop())
		assert.Equal(t, 1, processor.ProcessOnce(ctx))

		entry, err := repo.FindByID(ctx, stale.ID)
		require.NoError(t, err)
		assert.Equal(t, shared.OutboxStatusSent, entry.Status)
		assert.Len(t, handler.getHandled(), 1)
	})
}

func TestDefaultOutboxProcessorConfig(t *testing.T) {
	config := DefaultOutboxProcessorConfig()
	assert.Equal(t, 100, config.BatchSize)
	assert.Equal(t, 5*time.Second, config.PollInterval)
	assert.True(t, config.CleanupEnabled)
	assert.Equal(t, 7*24*time.Hour, config.CleanupRetention)
	assert.Equal(t, 5*time.Minute, config.ClaimTimeout)
}
