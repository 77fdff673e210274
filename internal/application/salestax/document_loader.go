package salestax

import (
	"context"

	"github.com/erp/salestax/internal/domain/salestax"
	"github.com/erp/salestax/internal/domain/shared"
	"github.com/google/uuid"
)

// DocumentLoader loads and saves either document variant by type
type DocumentLoader struct {
	orders   salestax.SalesOrderRepository
	invoices salestax.InvoiceRepository
}

// NewDocumentLoader creates a new DocumentLoader
func NewDocumentLoader(orders salestax.SalesOrderRepository, invoices salestax.InvoiceRepository) *DocumentLoader {
	return &DocumentLoader{orders: orders, invoices: invoices}
}

// Load fetches a document
func (l *DocumentLoader) Load(ctx context.Context, docType salestax.DocumentType, id uuid.UUID) (salestax.Document, error) {
	switch docType {
	case salestax.DocumentTypeSalesOrder:
		return l.orders.FindByID(ctx, id)
	case salestax.DocumentTypeInvoice:
		return l.invoices.FindByID(ctx, id)
	}
	return nil, shared.NewDomainError("INVALID_INPUT", "unknown document type: "+string(docType))
}

// Save persists a document
func (l *DocumentLoader) Save(ctx context.Context, doc salestax.Document) error {
	switch d := doc.(type) {
	case *salestax.SalesOrder:
		return l.orders.Save(ctx, d)
	case *salestax.Invoice:
		return l.invoices.Save(ctx, d)
	}
	return shared.NewDomainError("INVALID_INPUT", "unknown document type: "+string(doc.DocumentType()))
}
