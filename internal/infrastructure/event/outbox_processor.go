package event

import (
	"context"
	"sync"
	"time"

	"github.com/erp/salestax/internal/domain/shared"
	"github.com/erp/salestax/internal/infrastructure/logger"
	"github.com/erp/salestax/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OutboxProcessorConfig tunes polling and retention of the task outbox
type OutboxProcessorConfig struct {
	BatchSize        int
	PollInterval     time.Duration
	CleanupEnabled   bool
	CleanupRetention time.Duration // sent tasks older than this are deleted
	CleanupInterval  time.Duration
	ClaimTimeout     time.Duration // claims older than this are released; zero disables
}

// staleReleaser is implemented by stores that can recover claims of a crashed processor
type staleReleaser interface {
	ReleaseStale(ctx context.Context, claimedBefore time.Time) (int64, error)
}

func DefaultOutboxProcessorConfig() OutboxProcessorConfig {
	return OutboxProcessorConfig{
		BatchSize:        100,
		PollInterval:     5 * time.Second,
		CleanupEnabled:   true,
		CleanupRetention: 7 * 24 * time.Hour,
		CleanupInterval:  time.Hour,
		ClaimTimeout:     5 * time.Minute,
	}
}

// OutboxProcessor delivers queued transaction tasks to their handlers.
// A task whose handler fails is retried with exponential backoff until it
// runs out of attempts and is dead-lettered for the task admin API.
type OutboxProcessor struct {
	repo       shared.OutboxRepository
	publisher  shared.EventPublisher
	serializer *EventSerializer
	config     OutboxProcessorConfig
	logger     *zap.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewOutboxProcessor(
	repo shared.OutboxRepository,
	publisher shared.EventPublisher,
	serializer *EventSerializer,
	config OutboxProcessorConfig,
	logger *zap.Logger,
) *OutboxProcessor {
	return &OutboxProcessor{
		repo:       repo,
		publisher:  publisher,
		serializer: serializer,
		config:     config,
		logger:     logger.Named("outbox"),
	}
}

// Start polls the outbox in the background until Stop
func (p *OutboxProcessor) Start(ctx context.Context) error {
	ctx, p.cancel = context.WithCancel(ctx)

	p.every(ctx, p.config.PollInterval, func(ctx context.Context) { p.ProcessOnce(ctx) })
	if p.config.CleanupEnabled {
		p.every(ctx, p.config.CleanupInterval, p.cleanup)
	}

	p.logger.Info("outbox processor started",
		zap.Int("batch_size", p.config.BatchSize),
		zap.Duration("poll_interval", p.config.PollInterval),
		zap.Bool("cleanup", p.config.CleanupEnabled),
	)
	return nil
}

// Stop cancels polling and waits for the task in flight, bounded by ctx
func (p *OutboxProcessor) Stop(ctx context.Context) error {
	if p.cancel != nil {
		p.cancel()
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		p.logger.Info("outbox processor stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *OutboxProcessor) every(ctx context.Context, interval time.Duration, fn func(context.Context)) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				fn(ctx)
			}
		}
	}()
}

// ProcessOnce delivers one batch of new tasks and one batch of tasks due for
// retry. It returns how many were delivered successfully.
func (p *OutboxProcessor) ProcessOnce(ctx context.Context) int {
	p.releaseStale(ctx)
	delivered := 0

	pending, err := p.repo.FindPending(ctx, p.config.BatchSize)
	if err != nil {
		p.logger.Error("failed to load pending tasks", zap.Error(err))
		return delivered
	}
	delivered += p.deliverBatch(ctx, pending)

	due, err := p.repo.FindRetryable(ctx, time.Now(), p.config.BatchSize)
	if err != nil {
		p.logger.Error("failed to load tasks due for retry", zap.Error(err))
		return delivered
	}
	return delivered + p.deliverBatch(ctx, due)
}

func (p *OutboxProcessor) releaseStale(ctx context.Context) {
	releaser, ok := p.repo.(staleReleaser)
	if !ok || p.config.ClaimTimeout <= 0 {
		return
	}
	released, err := releaser.ReleaseStale(ctx, time.Now().Add(-p.config.ClaimTimeout))
	if err != nil {
		p.logger.Error("failed to release stale tasks", zap.Error(err))
		return
	}
	if released > 0 {
		p.logger.Warn("released stale task claims", zap.Int64("released", released))
	}
}

func (p *OutboxProcessor) deliverBatch(ctx context.Context, entries []*shared.OutboxEntry) int {
	if len(entries) == 0 {
		return 0
	}
	ids := make([]uuid.UUID, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}

	// Another processor may have claimed some of them already.
	claimed, err := p.repo.MarkProcessing(ctx, ids)
	if err != nil {
		p.logger.Error("failed to claim tasks", zap.Error(err))
		return 0
	}

	delivered := 0
	for _, entry := range claimed {
		telemetry.WithProfileLabels(ctx, func(ctx context.Context) {
			if p.deliver(ctx, entry) {
				delivered++
			}
		}, "task_type", entry.EventType, "document_type", entry.AggregateType)
	}
	return delivered
}

func (p *OutboxProcessor) deliver(ctx context.Context, entry *shared.OutboxEntry) bool {
	ctx = logger.WithOrganizationID(ctx, entry.OrganizationID.String())
	ctx = logger.WithDocument(ctx, entry.AggregateType, entry.AggregateID.String())
	ctx, span := telemetry.StartSpan(ctx, "outbox.deliver",
		telemetry.WithAttribute(telemetry.SpanAttrDocumentID, entry.AggregateID.String()),
		telemetry.WithAttribute(telemetry.SpanAttrDocumentType, entry.AggregateType),
		telemetry.WithAttribute(telemetry.SpanAttrOrganizationID, entry.OrganizationID.String()),
		telemetry.WithAttribute("task.type", entry.EventType),
		telemetry.WithAttribute("task.attempt", entry.RetryCount+1),
	)
	defer span.End()

	log := logger.WithTraceContext(ctx, p.logger).With(
		zap.String("task_id", entry.ID.String()),
		zap.String("task_type", entry.EventType),
		zap.String("document_type", entry.AggregateType),
		zap.String("document_id", entry.AggregateID.String()),
	)

	task, err := p.serializer.Deserialize(entry.EventType, entry.Payload)
	if err == nil {
		err = p.publisher.Publish(ctx, task)
	}
	if err != nil {
		telemetry.RecordError(span, err)
		p.fail(ctx, log, entry, err)
		return false
	}

	entry.MarkSent()
	if err := p.repo.Update(ctx, entry); err != nil {
		// The task ran; it is delivered again once its claim goes stale.
		log.Error("failed to mark task sent", zap.Error(err))
		return false
	}
	telemetry.SetOK(span)
	log.Debug("task delivered")
	return true
}

func (p *OutboxProcessor) fail(ctx context.Context, log *zap.Logger, entry *shared.OutboxEntry, cause error) {
	entry.MarkFailed(cause.Error())
	if entry.IsDead() {
		log.Warn("task dead-lettered",
			zap.Int("attempts", entry.RetryCount),
			zap.String("last_error", entry.LastError),
		)
	} else {
		log.Warn("task failed, retry scheduled",
			zap.Int("attempt", entry.RetryCount),
			zap.Timep("next_retry_at", entry.NextRetryAt),
			zap.Error(cause),
		)
	}
	if err := p.repo.Update(ctx, entry); err != nil {
		log.Error("failed to record task failure", zap.Error(err))
	}
}

func (p *OutboxProcessor) cleanup(ctx context.Context) {
	cutoff := time.Now().Add(-p.config.CleanupRetention)
	deleted, err := p.repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		p.logger.Error("failed to delete old tasks", zap.Error(err))
		return
	}
	if deleted > 0 {
		p.logger.Info("deleted old tasks", zap.Int64("deleted", deleted), zap.Time("cutoff", cutoff))
	}
}
