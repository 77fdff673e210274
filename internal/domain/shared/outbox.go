package shared

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type OutboxStatus string

// A task moves PENDING -> PROCESSING -> SENT on success. A failed attempt
// goes to FAILED until MaxRetries is spent, then DEAD. DEAD tasks wait for
// an operator to requeue them.
const (
	OutboxStatusPending    OutboxStatus = "PENDING"
	OutboxStatusProcessing OutboxStatus = "PROCESSING"
	OutboxStatusSent       OutboxStatus = "SENT"
	OutboxStatusFailed     OutboxStatus = "FAILED"
	OutboxStatusDead       OutboxStatus = "DEAD"
)

const (
	DefaultMaxRetries  = 5
	DefaultBaseBackoff = time.Second
)

// RetryBackoff is the delay before retry n (1-based): 1s, 2s, 4s, 8s, ...
func RetryBackoff(n int) time.Duration {
	return DefaultBaseBackoff << max(n-1, 0)
}

// OutboxEntry is a stored task together with its delivery bookkeeping
type OutboxEntry struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	EventID        uuid.UUID
	EventType      string
	AggregateID    uuid.UUID
	AggregateType  string
	Payload        []byte
	Status         OutboxStatus
	RetryCount     int
	MaxRetries     int
	LastError      string
	NextRetryAt    *time.Time
	ProcessedAt    *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func NewOutboxEntry(task DomainEvent, payload []byte) *OutboxEntry {
	now := time.Now()
	return &OutboxEntry{
		ID:             uuid.New(),
		OrganizationID: task.OrganizationID(),
		EventID:        task.EventID(),
		EventType:      task.EventType(),
		AggregateID:    task.AggregateID(),
		AggregateType:  task.AggregateType(),
		Payload:        payload,
		Status:         OutboxStatusPending,
		MaxRetries:     DefaultMaxRetries,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func (e *OutboxEntry) IsDead() bool { return e.Status == OutboxStatusDead }

func (e *OutboxEntry) CanRetry() bool {
	return e.Status == OutboxStatusFailed && e.RetryCount < e.MaxRetries
}

func (e *OutboxEntry) transition(to OutboxStatus, from ...OutboxStatus) error {
	for _, s := range from {
		if e.Status == s {
			e.Status = to
			e.UpdatedAt = time.Now()
			return nil
		}
	}
	return NewDomainError(ErrInvalidState.Code, fmt.Sprintf("outbox entry %s is %s, cannot move to %s", e.ID, e.Status, to))
}

// MarkProcessing claims a pending or failed entry
func (e *OutboxEntry) MarkProcessing() error {
	return e.transition(OutboxStatusProcessing, OutboxStatusPending, OutboxStatusFailed)
}

func (e *OutboxEntry) MarkSent() {
	now := time.Now()
	e.Status = OutboxStatusSent
	e.ProcessedAt = &now
	e.UpdatedAt = now
}

// MarkFailed records a failed attempt. The entry is scheduled for retry
// after RetryBackoff, or dead-lettered once MaxRetries attempts failed.
func (e *OutboxEntry) MarkFailed(reason string) {
	e.RetryCount++
	e.LastError = reason
	e.UpdatedAt = time.Now()

	if e.RetryCount >= e.MaxRetries {
		e.Status = OutboxStatusDead
		e.NextRetryAt = nil
		return
	}
	e.Status = OutboxStatusFailed
	next := e.UpdatedAt.Add(RetryBackoff(e.RetryCount))
	e.NextRetryAt = &next
}

// ResetForRetry requeues a dead entry with a fresh retry budget
func (e *OutboxEntry) ResetForRetry() error {
	if err := e.transition(OutboxStatusPending, OutboxStatusDead); err != nil {
		return err
	}
	e.RetryCount = 0
	e.LastError = ""
	e.NextRetryAt = nil
	return nil
}

// OutboxRepository persists queued tasks. Lookups of a missing entry
// return ErrNotFound.
type OutboxRepository interface {
	Save(ctx context.Context, entries ...*OutboxEntry) error
	FindPending(ctx context.Context, limit int) ([]*OutboxEntry, error)
	// FindRetryable returns failed entries whose NextRetryAt is not after before
	FindRetryable(ctx context.Context, before time.Time, limit int) ([]*OutboxEntry, error)
	FindDead(ctx context.Context, page, pageSize int) ([]*OutboxEntry, int64, error)
	FindByID(ctx context.Context, id uuid.UUID) (*OutboxEntry, error)
	// MarkProcessing claims entries atomically; entries claimed elsewhere are left out of the result
	MarkProcessing(ctx context.Context, ids []uuid.UUID) ([]*OutboxEntry, error)
	Update(ctx context.Context, entry *OutboxEntry) error
	// DeleteOlderThan purges sent entries processed before the cutoff
	DeleteOlderThan(ctx context.Context, before time.Time) (int64, error)
}
