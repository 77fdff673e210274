package event

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/erp/salestax/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var outboxColumns = []string{
	"id", "organization_id", "event_id", "event_type", "aggregate_id",
	"aggregate_type", "payload", "status", "retry_count", "max_retries",
	"last_error", "next_retry_at", "processed_at", "created_at", "updated_at",
}

func newSQLMockRepo(t *testing.T) (*GormOutboxRepository, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: conn, DriverName: "postgres"}),
		&gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	return NewGormOutboxRepository(db), mock
}

func q(sql string) string { return regexp.QuoteMeta(sql) }

func TestGormOutboxRepository_Save(t *testing.T) {
	repo, mock := newSQLMockRepo(t)
	task := newCommitTask(t)
	first := shared.NewOutboxEntry(task, []byte(`{}`))
	second := shared.NewOutboxEntry(newTestEvent(cancelType, task.OrganizationID()), []byte(`{}`))

	mock.ExpectBegin()
	mock.ExpectExec(q(`INSERT INTO "outbox_events"`)).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	require.NoError(t, repo.Save(context.Background(), first, second))
	require.NoError(t, repo.Save(context.Background()), "nothing to save issues no statement")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormOutboxRepository_FindPending(t *testing.T) {
	repo, mock := newSQLMockRepo(t)
	id, org, doc := uuid.New(), uuid.New(), uuid.New()
	now := time.Now()

	mock.ExpectQuery(q(`SELECT * FROM "outbox_events" WHERE status = $1 ORDER BY created_at ASC LIMIT $2`)).
		WithArgs(shared.OutboxStatusPending, 25).
		WillReturnRows(sqlmock.NewRows(outboxColumns).AddRow(
			id, org, uuid.New(), commitType, doc,
			"Invoice", []byte(`{}`), "PENDING", 0, 5,
			"", nil, nil, now, now,
		))

	entries, err := repo.FindPending(context.Background(), 25)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, id, entries[0].ID)
	assert.Equal(t, org, entries[0].OrganizationID)
	assert.Equal(t, doc, entries[0].AggregateID)
	assert.Equal(t, commitType, entries[0].EventType)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormOutboxRepository_FindRetryable(t *testing.T) {
	repo, mock := newSQLMockRepo(t)
	due := time.Now()

	mock.ExpectQuery(q(`SELECT * FROM "outbox_events" WHERE status = $1 AND next_retry_at <= $2 ORDER BY next_retry_at ASC LIMIT $3`)).
		WithArgs(shared.OutboxStatusFailed, due, 10).
		WillReturnRows(sqlmock.NewRows(outboxColumns))

	entries, err := repo.FindRetryable(context.Background(), due, 10)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormOutboxRepository_MarkProcessing(t *testing.T) {
	t.Run("claims unlocked rows", func(t *testing.T) {
		repo, mock := newSQLMockRepo(t)
		won, lost := uuid.New(), uuid.New()
		now := time.Now()

		mock.ExpectBegin()
		mock.ExpectQuery(q(`SELECT * FROM "outbox_events" WHERE id IN ($1,$2) AND status IN ($3,$4) FOR UPDATE SKIP LOCKED`)).
			WithArgs(won, lost, shared.OutboxStatusPending, shared.OutboxStatusFailed).
			WillReturnRows(sqlmock.NewRows([]string{"id", "organization_id", "event_type", "status", "created_at", "updated_at"}).
				AddRow(won, uuid.New(), commitType, "FAILED", now, now))
		mock.ExpectExec(q(`UPDATE "outbox_events" SET "status"=$1,"updated_at"=$2 WHERE id IN ($3)`)).
			WithArgs(shared.OutboxStatusProcessing, sqlmock.AnyArg(), won).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		entries, err := repo.MarkProcessing(context.Background(), []uuid.UUID{won, lost})
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, won, entries[0].ID)
		assert.Equal(t, shared.OutboxStatusProcessing, entries[0].Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("nothing left to claim", func(t *testing.T) {
		repo, mock := newSQLMockRepo(t)
		mock.ExpectBegin()
		mock.ExpectQuery(q(`FOR UPDATE SKIP LOCKED`)).WillReturnRows(sqlmock.NewRows(outboxColumns))
		mock.ExpectCommit()

		entries, err := repo.MarkProcessing(context.Background(), []uuid.UUID{uuid.New()})
		require.NoError(t, err)
		assert.Empty(t, entries)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no ids", func(t *testing.T) {
		repo, mock := newSQLMockRepo(t)
		entries, err := repo.MarkProcessing(context.Background(), nil)
		require.NoError(t, err)
		assert.Nil(t, entries)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormOutboxRepository_ReleaseStale(t *testing.T) {
	repo, mock := newSQLMockRepo(t)
	cutoff := time.Now().Add(-5 * time.Minute)

	mock.ExpectBegin()
	mock.ExpectExec(q(`UPDATE "outbox_events" SET "status"=$1,"updated_at"=$2 WHERE status = $3 AND updated_at < $4`)).
		WithArgs(shared.OutboxStatusPending, sqlmock.AnyArg(), shared.OutboxStatusProcessing, cutoff).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	released, err := repo.ReleaseStale(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(3), released)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormOutboxRepository_DeleteOlderThan(t *testing.T) {
	repo, mock := newSQLMockRepo(t)
	cutoff := time.Now().Add(-7 * 24 * time.Hour)

	mock.ExpectBegin()
	mock.ExpectExec(q(`DELETE FROM "outbox_events" WHERE status = $1 AND processed_at < $2`)).
		WithArgs(shared.OutboxStatusSent, cutoff).
		WillReturnResult(sqlmock.NewResult(0, 5))
	mock.ExpectCommit()

	deleted, err := repo.DeleteOlderThan(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(5), deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormOutboxRepository_FindDead(t *testing.T) {
	repo, mock := newSQLMockRepo(t)
	now := time.Now()

	mock.ExpectQuery(q(`SELECT count(*) FROM "outbox_events" WHERE status = $1`)).
		WithArgs(shared.OutboxStatusDead).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(21))
	mock.ExpectQuery(q(`SELECT * FROM "outbox_events" WHERE status = $1 ORDER BY updated_at DESC LIMIT $2 OFFSET $3`)).
		WithArgs(shared.OutboxStatusDead, 10, 20).
		WillReturnRows(sqlmock.NewRows(outboxColumns).AddRow(
			uuid.New(), uuid.New(), uuid.New(), cancelType, uuid.New(),
			"Invoice", []byte(`{}`), "DEAD", 5, 5,
			"error on delete_order(): 404. Reason: Not Found", nil, nil, now, now,
		))

	entries, total, err := repo.FindDead(context.Background(), 3, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(21), total)
	require.Len(t, entries, 1)
	assert.True(t, entries[0].IsDead())
	assert.Contains(t, entries[0].LastError, "delete_order")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormOutboxRepository_FindByID_NotFound(t *testing.T) {
	repo, mock := newSQLMockRepo(t)
	id := uuid.New()

	mock.ExpectQuery(q(`SELECT * FROM "outbox_events" WHERE id = $1 ORDER BY "outbox_events"."id" LIMIT $2`)).
		WithArgs(id, 1).
		WillReturnRows(sqlmock.NewRows(outboxColumns))

	_, err := repo.FindByID(context.Background(), id)
	assert.ErrorIs(t, err, shared.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormOutboxRepository_CountByStatus(t *testing.T) {
	repo, mock := newSQLMockRepo(t)

	mock.ExpectQuery(q(`SELECT status, count(*) AS count FROM "outbox_events" GROUP BY`)).
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).
			AddRow("PENDING", 4).
			AddRow("DEAD", 1))

	counts, err := repo.CountByStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[shared.OutboxStatus]int64{
		shared.OutboxStatusPending: 4,
		shared.OutboxStatusDead:    1,
	}, counts)
	assert.NoError(t, mock.ExpectationsWereMet())
}
