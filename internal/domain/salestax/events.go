package salestax

import (
	"github.com/erp/salestax/internal/domain/shared"
	"github.com/google/uuid"
)

// Event types of deferred transaction tasks
const (
	EventTypeCommitTransactionRequested = "salestax.CommitTransactionRequested"
	EventTypeCancelTransactionRequested = "salestax.CancelTransactionRequested"
)

// CommitTransactionRequested asks a worker to report a finalized document
type CommitTransactionRequested struct {
	shared.BaseDomainEvent
	DocumentID   uuid.UUID    `json:"document_id"`
	DocumentType DocumentType `json:"document_type"`
}

// NewCommitTransactionRequested creates the commit task for a document
func NewCommitTransactionRequested(doc Document) *CommitTransactionRequested {
	return &CommitTransactionRequested{
		BaseDomainEvent: shared.NewBaseDomainEvent(
			EventTypeCommitTransactionRequested, aggregateType(doc), doc.DocumentID(), doc.Organization()),
		DocumentID:   doc.DocumentID(),
		DocumentType: doc.DocumentType(),
	}
}

// CancelTransactionRequested asks a worker to delete a reported transaction
type CancelTransactionRequested struct {
	shared.BaseDomainEvent
	DocumentID   uuid.UUID    `json:"document_id"`
	DocumentType DocumentType `json:"document_type"`
	IsRefund     bool         `json:"is_refund"`
}

// NewCancelTransactionRequested creates the cancel task for a document
func NewCancelTransactionRequested(doc Document, isRefund bool) *CancelTransactionRequested {
	return &CancelTransactionRequested{
		BaseDomainEvent: shared.NewBaseDomainEvent(
			EventTypeCancelTransactionRequested, aggregateType(doc), doc.DocumentID(), doc.Organization()),
		DocumentID:   doc.DocumentID(),
		DocumentType: doc.DocumentType(),
		IsRefund:     isRefund,
	}
}

func aggregateType(doc Document) string {
	if doc.DocumentType() == DocumentTypeInvoice {
		return AggregateTypeInvoice
	}
	return AggregateTypeSalesOrder
}
