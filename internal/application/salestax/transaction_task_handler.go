package salestax

import (
	"context"
	"fmt"

	"github.com/erp/salestax/internal/domain/salestax"
	"github.com/erp/salestax/internal/domain/shared"
	"go.uber.org/zap"
)

// TransactionTaskHandler executes queued commit and cancel tasks.
// A returned error fails the task so the queue retries it.
type TransactionTaskHandler struct {
	documents    *DocumentLoader
	transactions *TransactionService
	logger       *zap.Logger
}

// NewTransactionTaskHandler creates a new TransactionTaskHandler
func NewTransactionTaskHandler(documents *DocumentLoader, transactions *TransactionService, logger *zap.Logger) *TransactionTaskHandler {
	return &TransactionTaskHandler{
		documents:    documents,
		transactions: transactions,
		logger:       logger,
	}
}

// EventTypes returns the task types this handler executes
func (h *TransactionTaskHandler) EventTypes() []string {
	return []string{
		salestax.EventTypeCommitTransactionRequested,
		salestax.EventTypeCancelTransactionRequested,
	}
}

// Handle runs one task
func (h *TransactionTaskHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	switch task := event.(type) {
	case *salestax.CommitTransactionRequested:
		doc, err := h.documents.Load(ctx, task.DocumentType, task.DocumentID)
		if err != nil {
			return fmt.Errorf("load %s %s: %w", task.DocumentType, task.DocumentID, err)
		}
		return h.transactions.Commit(ctx, doc)
	case *salestax.CancelTransactionRequested:
		doc, err := h.documents.Load(ctx, task.DocumentType, task.DocumentID)
		if err != nil {
			return fmt.Errorf("load %s %s: %w", task.DocumentType, task.DocumentID, err)
		}
		return h.transactions.Cancel(ctx, doc, task.IsRefund)
	}
	h.logger.Error("unexpected task type", zap.String("actual", event.EventType()))
	return fmt.Errorf("unexpected task type: %s", event.EventType())
}

var _ shared.EventHandler = (*TransactionTaskHandler)(nil)
