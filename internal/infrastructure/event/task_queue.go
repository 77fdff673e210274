package event

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/erp/salestax/internal/domain/shared"
	"go.uber.org/zap"
)

// OutboxTaskQueue durably queues tasks in the outbox table.
// The OutboxProcessor later delivers them with retries.
type OutboxTaskQueue struct {
	repo       shared.OutboxRepository
	serializer *EventSerializer
	maxRetries int
}

// NewOutboxTaskQueue creates a new outbox-backed task queue.
// A non-positive maxRetries keeps the entry default.
func NewOutboxTaskQueue(repo shared.OutboxRepository, serializer *EventSerializer, maxRetries int) *OutboxTaskQueue {
	return &OutboxTaskQueue{
		repo:       repo,
		serializer: serializer,
		maxRetries: maxRetries,
	}
}

// Enqueue serializes the tasks and stores them as pending outbox entries
func (q *OutboxTaskQueue) Enqueue(ctx context.Context, tasks ...shared.DomainEvent) error {
	if len(tasks) == 0 {
		return nil
	}

	entries := make([]*shared.OutboxEntry, 0, len(tasks))
	for _, task := range tasks {
		if !q.serializer.IsRegistered(task.EventType()) {
			return fmt.Errorf("task type %s is not registered", task.EventType())
		}
		payload, err := q.serializer.Serialize(task)
		if err != nil {
			return fmt.Errorf("serialize %s: %w", task.EventType(), err)
		}
		entry := shared.NewOutboxEntry(task, payload)
		if q.maxRetries > 0 {
			entry.MaxRetries = q.maxRetries
		}
		entries = append(entries, entry)
	}
	return q.repo.Save(ctx, entries...)
}

// ErrQueueStopped is returned when enqueueing on a stopped ChannelTaskQueue
var ErrQueueStopped = errors.New("task queue is stopped")

// ChannelTaskQueueConfig holds configuration for the in-process queue
type ChannelTaskQueueConfig struct {
	Workers     int
	Buffer      int
	MaxAttempts int
	BaseBackoff time.Duration
}

// DefaultChannelTaskQueueConfig returns default configuration
func DefaultChannelTaskQueueConfig() ChannelTaskQueueConfig {
	return ChannelTaskQueueConfig{
		Workers:     2,
		Buffer:      128,
		MaxAttempts: shared.DefaultMaxRetries,
		BaseBackoff: shared.DefaultBaseBackoff,
	}
}

// ChannelTaskQueue runs tasks in-process on a worker pool.
// Tasks are lost on shutdown, so it serves tests and single-node setups without a database.
type ChannelTaskQueue struct {
	publisher shared.EventPublisher
	config    ChannelTaskQueueConfig
	logger    *zap.Logger

	tasks   chan shared.DomainEvent
	mu      sync.RWMutex
	stopped bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewChannelTaskQueue creates a new in-process task queue
func NewChannelTaskQueue(publisher shared.EventPublisher, config ChannelTaskQueueConfig, logger *zap.Logger) *ChannelTaskQueue {
	if config.Workers <= 0 {
		config.Workers = 1
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 1
	}
	return &ChannelTaskQueue{
		publisher: publisher,
		config:    config,
		logger:    logger,
		tasks:     make(chan shared.DomainEvent, config.Buffer),
	}
}

// Start launches the workers
func (q *ChannelTaskQueue) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	q.cancel = cancel
	for i := 0; i < q.config.Workers; i++ {
		q.wg.Add(1)
		go q.work(ctx)
	}
	q.logger.Info("task queue started", zap.Int("workers", q.config.Workers))
	return nil
}

// Enqueue hands the tasks to the workers, blocking while the buffer is full
func (q *ChannelTaskQueue) Enqueue(ctx context.Context, tasks ...shared.DomainEvent) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.stopped {
		return ErrQueueStopped
	}
	for _, task := range tasks {
		select {
		case q.tasks <- task:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Stop refuses new tasks, lets the workers drain the buffer and waits for them
func (q *ChannelTaskQueue) Stop(ctx context.Context) error {
	q.mu.Lock()
	if !q.stopped {
		q.stopped = true
		close(q.tasks)
	}
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		if q.cancel != nil {
			q.cancel()
		}
		q.logger.Info("task queue stopped")
		return nil
	case <-ctx.Done():
		if q.cancel != nil {
			q.cancel()
		}
		return ctx.Err()
	}
}

func (q *ChannelTaskQueue) work(ctx context.Context) {
	defer q.wg.Done()
	for task := range q.tasks {
		q.run(ctx, task)
	}
}

func (q *ChannelTaskQueue) run(ctx context.Context, task shared.DomainEvent) {
	backoff := q.config.BaseBackoff
	for attempt := 1; ; attempt++ {
		err := q.publisher.Publish(ctx, task)
		if err == nil {
			return
		}
		if attempt >= q.config.MaxAttempts {
			q.logger.Error("task failed permanently",
				zap.String("event_type", task.EventType()),
				zap.String("aggregate_id", task.AggregateID().String()),
				zap.Int("attempts", attempt),
				zap.Error(err),
			)
			return
		}
		q.logger.Warn("task failed, retrying",
			zap.String("event_type", task.EventType()),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", backoff),
			zap.Error(err),
		)
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return
		}
		backoff *= 2
	}
}

var (
	_ shared.TaskQueue = (*OutboxTaskQueue)(nil)
	_ shared.TaskQueue = (*ChannelTaskQueue)(nil)
)
