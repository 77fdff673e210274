package salestax

import (
	"context"
	"time"

	"github.com/erp/salestax/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultTaskPageSize = 20
	maxTaskPageSize     = 100
)

// TaskStore is the outbox as seen by the task administration
type TaskStore interface {
	shared.OutboxRepository
	CountByStatus(ctx context.Context) (map[shared.OutboxStatus]int64, error)
}

// TaskService inspects queued transaction tasks and requeues dead ones
type TaskService struct {
	store  TaskStore
	logger *zap.Logger
}

// NewTaskService creates a new TaskService
func NewTaskService(store TaskStore, logger *zap.Logger) *TaskService {
	return &TaskService{store: store, logger: logger}
}

// TaskDTO is a queued task
type TaskDTO struct {
	ID             uuid.UUID  `json:"id"`
	OrganizationID uuid.UUID  `json:"organization_id"`
	TaskType       string     `json:"task_type"`
	DocumentID     uuid.UUID  `json:"document_id"`
	DocumentType   string     `json:"document_type"`
	Status         string     `json:"status"`
	RetryCount     int        `json:"retry_count"`
	MaxRetries     int        `json:"max_retries"`
	LastError      string     `json:"last_error,omitempty"`
	NextRetryAt    *time.Time `json:"next_retry_at,omitempty"`
	ProcessedAt    *time.Time `json:"processed_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// TaskFilter pages through task lists
type TaskFilter struct {
	Page     int `form:"page" binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// TaskListResult is one page of tasks
type TaskListResult struct {
	Tasks      []TaskDTO `json:"tasks"`
	Total      int64     `json:"total"`
	Page       int       `json:"page"`
	PageSize   int       `json:"page_size"`
	TotalPages int       `json:"total_pages"`
}

// TaskStats counts tasks per status
type TaskStats struct {
	Pending    int64 `json:"pending"`
	Processing int64 `json:"processing"`
	Sent       int64 `json:"sent"`
	Failed     int64 `json:"failed"`
	Dead       int64 `json:"dead"`
	Total      int64 `json:"total"`
}

// ListDead returns the tasks that exhausted their retries, newest first
func (s *TaskService) ListDead(ctx context.Context, filter TaskFilter) (*TaskListResult, error) {
	page := max(filter.Page, 1)
	pageSize := filter.PageSize
	if pageSize < 1 {
		pageSize = defaultTaskPageSize
	}
	pageSize = min(pageSize, maxTaskPageSize)

	entries, total, err := s.store.FindDead(ctx, page, pageSize)
	if err != nil {
		return nil, err
	}

	tasks := make([]TaskDTO, len(entries))
	for i, entry := range entries {
		tasks[i] = toTaskDTO(entry)
	}
	totalPages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		totalPages++
	}
	return &TaskListResult{
		Tasks:      tasks,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}, nil
}

// Get returns a single task
func (s *TaskService) Get(ctx context.Context, id uuid.UUID) (*TaskDTO, error) {
	entry, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	task := toTaskDTO(entry)
	return &task, nil
}

// Retry puts a dead task back into the queue
func (s *TaskService) Retry(ctx context.Context, id uuid.UUID) (*TaskDTO, error) {
	entry, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := entry.ResetForRetry(); err != nil {
		return nil, err
	}
	if err := s.store.Update(ctx, entry); err != nil {
		return nil, err
	}

	s.logger.Info("dead task requeued",
		zap.String("task_id", id.String()),
		zap.String("task_type", entry.EventType),
		zap.String("document_id", entry.AggregateID.String()),
	)
	task := toTaskDTO(entry)
	return &task, nil
}

// RetryAllDead requeues every dead task and returns how many were requeued.
// Requeued tasks leave the dead list, so the first page is read until empty.
func (s *TaskService) RetryAllDead(ctx context.Context) (int64, error) {
	var count int64
	for {
		entries, _, err := s.store.FindDead(ctx, 1, maxTaskPageSize)
		if err != nil {
			return count, err
		}
		requeued := 0
		for _, entry := range entries {
			if entry.ResetForRetry() != nil {
				continue
			}
			if err := s.store.Update(ctx, entry); err != nil {
				s.logger.Error("failed to requeue dead task",
					zap.String("task_id", entry.ID.String()),
					zap.Error(err),
				)
				continue
			}
			requeued++
		}
		count += int64(requeued)
		if len(entries) < maxTaskPageSize || requeued == 0 {
			break
		}
	}

	s.logger.Info("dead tasks requeued", zap.Int64("count", count))
	return count, nil
}

// Stats counts the tasks in each status
func (s *TaskService) Stats(ctx context.Context) (*TaskStats, error) {
	counts, err := s.store.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}

	var total int64
	for _, n := range counts {
		total += n
	}
	return &TaskStats{
		Pending:    counts[shared.OutboxStatusPending],
		Processing: counts[shared.OutboxStatusProcessing],
		Sent:       counts[shared.OutboxStatusSent],
		Failed:     counts[shared.OutboxStatusFailed],
		Dead:       counts[shared.OutboxStatusDead],
		Total:      total,
	}, nil
}

func toTaskDTO(entry *shared.OutboxEntry) TaskDTO {
	return TaskDTO{
		ID:             entry.ID,
		OrganizationID: entry.OrganizationID,
		TaskType:       entry.EventType,
		DocumentID:     entry.AggregateID,
		DocumentType:   entry.AggregateType,
		Status:         string(entry.Status),
		RetryCount:     entry.RetryCount,
		MaxRetries:     entry.MaxRetries,
		LastError:      entry.LastError,
		NextRetryAt:    entry.NextRetryAt,
		ProcessedAt:    entry.ProcessedAt,
		CreatedAt:      entry.CreatedAt,
		UpdatedAt:      entry.UpdatedAt,
	}
}
