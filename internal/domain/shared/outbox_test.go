package shared

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type commitTask struct {
	BaseDomainEvent
}

func newCommitTask() *commitTask {
	return &commitTask{
		BaseDomainEvent: NewBaseDomainEvent("salestax.CommitTransactionRequested", "Invoice", uuid.New(), uuid.New()),
	}
}

func TestNewOutboxEntry(t *testing.T) {
	task := newCommitTask()
	entry := NewOutboxEntry(task, []byte(`{"document_type":"invoice"}`))

	assert.NotEqual(t, uuid.Nil, entry.ID)
	assert.Equal(t, task.EventID(), entry.EventID)
	assert.Equal(t, task.OrganizationID(), entry.OrganizationID)
	assert.Equal(t, task.AggregateID(), entry.AggregateID)
	assert.Equal(t, "salestax.CommitTransactionRequested", entry.EventType)
	assert.Equal(t, OutboxStatusPending, entry.Status)
	assert.Equal(t, DefaultMaxRetries, entry.MaxRetries)
}

func TestRetryBackoff(t *testing.T) {
	for n, want := range map[int]time.Duration{
		0: time.Second,
		1: time.Second,
		2: 2 * time.Second,
		3: 4 * time.Second,
		5: 16 * time.Second,
	} {
		assert.Equal(t, want, RetryBackoff(n), "retry %d", n)
	}
}

func TestOutboxEntry_Lifecycle(t *testing.T) {
	entry := NewOutboxEntry(newCommitTask(), nil)
	entry.MaxRetries = 3

	require.NoError(t, entry.MarkProcessing())
	entry.MarkFailed("error on create_order(): 503. Reason: Service Unavailable")
	require.NotNil(t, entry.NextRetryAt)
	assert.Equal(t, entry.UpdatedAt.Add(time.Second), *entry.NextRetryAt)
	assert.True(t, entry.CanRetry())

	require.NoError(t, entry.MarkProcessing())
	entry.MarkFailed("error on create_order(): 503. Reason: Service Unavailable")
	assert.Equal(t, entry.UpdatedAt.Add(2*time.Second), *entry.NextRetryAt)

	require.NoError(t, entry.MarkProcessing())
	entry.MarkFailed("error on create_order(): 401. Reason: Unauthorized")
	assert.True(t, entry.IsDead())
	assert.Nil(t, entry.NextRetryAt)
	assert.False(t, entry.CanRetry())
	assert.Equal(t, 3, entry.RetryCount)
	assert.Contains(t, entry.LastError, "401")

	require.NoError(t, entry.ResetForRetry())
	assert.Equal(t, OutboxStatusPending, entry.Status)
	assert.Zero(t, entry.RetryCount)
	assert.Empty(t, entry.LastError)

	require.NoError(t, entry.MarkProcessing())
	entry.MarkSent()
	assert.Equal(t, OutboxStatusSent, entry.Status)
	assert.NotNil(t, entry.ProcessedAt)
}

func TestOutboxEntry_RejectedTransitions(t *testing.T) {
	t.Run("claim", func(t *testing.T) {
		for _, status := range []OutboxStatus{OutboxStatusProcessing, OutboxStatusSent, OutboxStatusDead} {
			entry := &OutboxEntry{Status: status}
			err := entry.MarkProcessing()
			assert.ErrorIs(t, err, ErrInvalidState, status)
			assert.Equal(t, status, entry.Status)
		}
	})

	t.Run("requeue", func(t *testing.T) {
		for _, status := range []OutboxStatus{OutboxStatusPending, OutboxStatusProcessing, OutboxStatusSent, OutboxStatusFailed} {
			entry := &OutboxEntry{Status: status}
			err := entry.ResetForRetry()
			assert.ErrorIs(t, err, ErrInvalidState, status)
			assert.ErrorContains(t, err, "cannot move to PENDING")
		}
	})
}

func TestDomainError_Is(t *testing.T) {
	err := NewDomainError("NOT_FOUND", "invoice INV/2024/0001 not found")

	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrInvalidState)
}

func TestOrganizationAggregateRoot(t *testing.T) {
	org := uuid.New()
	root := NewOrganizationAggregateRoot(org)
	assert.Equal(t, org, root.OrganizationID)
	assert.Equal(t, 1, root.Version)

	root.IncrementVersion()
	root.AddDomainEvent(newCommitTask())
	assert.Equal(t, 2, root.Version)
	assert.Len(t, root.GetDomainEvents(), 1)

	root.ClearDomainEvents()
	assert.Empty(t, root.GetDomainEvents())
}
