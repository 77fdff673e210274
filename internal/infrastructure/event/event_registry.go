package event

import (
	"github.com/erp/salestax/internal/domain/salestax"
	"github.com/erp/salestax/internal/domain/shared"
)

// RegisterSalesTaxTasks registers the deferred transaction tasks with the serializer.
// The outbox processor needs them to rebuild tasks from stored payloads.
func RegisterSalesTaxTasks(serializer *EventSerializer) {
	serializer.Register(salestax.EventTypeCommitTransactionRequested, func() shared.DomainEvent {
		return &salestax.CommitTransactionRequested{}
	})
	serializer.Register(salestax.EventTypeCancelTransactionRequested, func() shared.DomainEvent {
		return &salestax.CancelTransactionRequested{}
	})
}
