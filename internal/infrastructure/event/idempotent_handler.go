package event

import (
	"context"

	"github.com/erp/salestax/internal/domain/shared"
	"github.com/erp/salestax/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// Task outcomes reported by IdempotentHandler
const (
	OutcomeCompleted = "completed"
	OutcomeDuplicate = "duplicate"
	OutcomeFailed    = "failed"
)

// IdempotentHandler skips transaction tasks that already completed, so an
// outbox redelivery does not commit or cancel a TaxJar transaction twice.
// A task is recorded only after its handler succeeds; failures stay retryable.
type IdempotentHandler struct {
	next    shared.EventHandler
	store   shared.IdempotencyStore
	config  shared.IdempotencyConfig
	logger  *zap.Logger
	outcome *telemetry.Counter
}

type IdempotentHandlerOption func(*IdempotentHandler)

func WithIdempotencyConfig(config shared.IdempotencyConfig) IdempotentHandlerOption {
	return func(h *IdempotentHandler) { h.config = config }
}

// WithOutcomeCounter counts handled tasks by type and outcome
func WithOutcomeCounter(counter *telemetry.Counter) IdempotentHandlerOption {
	return func(h *IdempotentHandler) { h.outcome = counter }
}

func NewIdempotentHandler(next shared.EventHandler, store shared.IdempotencyStore, logger *zap.Logger, opts ...IdempotentHandlerOption) *IdempotentHandler {
	h := &IdempotentHandler{
		next:   next,
		store:  store,
		config: shared.DefaultIdempotencyConfig(),
		logger: logger.Named("idempotency"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *IdempotentHandler) EventTypes() []string {
	return h.next.EventTypes()
}

func (h *IdempotentHandler) Handle(ctx context.Context, task shared.DomainEvent) error {
	if !h.config.Enabled {
		return h.next.Handle(ctx, task)
	}

	key := task.EventID().String()
	log := h.logger.With(
		zap.String("task_id", key),
		zap.String("task_type", task.EventType()),
		zap.String("document_id", task.AggregateID().String()),
	)

	done, err := h.store.IsProcessed(ctx, key)
	switch {
	case err != nil:
		// a store outage must not drop work
		log.Warn("idempotency check failed, running task", zap.Error(err))
	case done:
		log.Debug("task already completed, skipping")
		h.count(ctx, task, OutcomeDuplicate)
		return nil
	}

	if err := h.next.Handle(ctx, task); err != nil {
		log.Error("task failed", zap.Error(err))
		h.count(ctx, task, OutcomeFailed)
		return err
	}

	if _, err := h.store.MarkProcessed(ctx, key, h.config.TTL); err != nil {
		log.Warn("could not record completed task", zap.Error(err))
	}
	log.Debug("task completed")
	h.count(ctx, task, OutcomeCompleted)
	return nil
}

func (h *IdempotentHandler) count(ctx context.Context, task shared.DomainEvent, outcome string) {
	if h.outcome == nil {
		return
	}
	h.outcome.Inc(ctx,
		telemetry.AttrOperation.String(task.EventType()),
		telemetry.AttrOutcome.String(outcome),
	)
}

var _ shared.EventHandler = (*IdempotentHandler)(nil)
