package handler

import (
	"context"

	salestaxapp "github.com/erp/salestax/internal/application/salestax"
	"github.com/erp/salestax/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// TaskOperations administer the queued transaction tasks
type TaskOperations interface {
	ListDead(ctx context.Context, filter salestaxapp.TaskFilter) (*salestaxapp.TaskListResult, error)
	Get(ctx context.Context, id uuid.UUID) (*salestaxapp.TaskDTO, error)
	Retry(ctx context.Context, id uuid.UUID) (*salestaxapp.TaskDTO, error)
	RetryAllDead(ctx context.Context) (int64, error)
	Stats(ctx context.Context) (*salestaxapp.TaskStats, error)
}

// TaskHandler exposes the transaction task queue
type TaskHandler struct {
	BaseHandler
	tasks TaskOperations
}

// NewTaskHandler creates a new TaskHandler
func NewTaskHandler(tasks TaskOperations) *TaskHandler {
	return &TaskHandler{tasks: tasks}
}

// RetryAllResponse reports how many tasks were requeued
type RetryAllResponse struct {
	Count int64 `json:"count"`
}

// ListDead godoc
// @Summary      List dead transaction tasks
// @Description  Tasks that exhausted their retries, newest first
// @Tags         salestax-tasks
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Items per page" default(20) maximum(100)
// @Success      200 {object} dto.Response
// @Failure      400 {object} dto.Response
// @Router       /salestax/tasks/dead [get]
func (h *TaskHandler) ListDead(c *gin.Context) {
	var filter salestaxapp.TaskFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	result, err := h.tasks.ListDead(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Get godoc
// @Summary      Get a transaction task
// @Tags         salestax-tasks
// @Param        id path string true "Task ID"
// @Success      200 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Router       /salestax/tasks/{id} [get]
func (h *TaskHandler) Get(c *gin.Context) {
	id, ok := h.BindID(c)
	if !ok {
		return
	}

	task, err := h.tasks.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, task)
}

// Retry godoc
// @Summary      Requeue a dead transaction task
// @Tags         salestax-tasks
// @Param        id path string true "Task ID"
// @Success      200 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Router       /salestax/tasks/{id}/retry [post]
func (h *TaskHandler) Retry(c *gin.Context) {
	id, ok := h.BindID(c)
	if !ok {
		return
	}

	task, err := h.tasks.Retry(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, task)
}

// RetryAllDead godoc
// @Summary      Requeue every dead transaction task
// @Tags         salestax-tasks
// @Success      200 {object} dto.Response
// @Router       /salestax/tasks/dead/retry [post]
func (h *TaskHandler) RetryAllDead(c *gin.Context) {
	count, err := h.tasks.RetryAllDead(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, RetryAllResponse{Count: count})
}

// Stats godoc
// @Summary      Count transaction tasks per status
// @Tags         salestax-tasks
// @Success      200 {object} dto.Response
// @Router       /salestax/tasks/stats [get]
func (h *TaskHandler) Stats(c *gin.Context) {
	stats, err := h.tasks.Stats(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, stats)
}
