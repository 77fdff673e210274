package salestax

import (
	"context"
	"fmt"

	"github.com/erp/salestax/internal/domain/salestax"
	"github.com/erp/salestax/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DocumentService drives the document state changes that involve external tax.
// Calculation runs inline; reporting is handed to the task queue after the
// state change has been saved.
type DocumentService struct {
	orders     salestax.SalesOrderRepository
	invoices   salestax.InvoiceRepository
	documents  *DocumentLoader
	reconciler *Reconciler
	queue      shared.TaskQueue
	logger     *zap.Logger
}

// NewDocumentService creates a new DocumentService
func NewDocumentService(
	orders salestax.SalesOrderRepository,
	invoices salestax.InvoiceRepository,
	reconciler *Reconciler,
	queue shared.TaskQueue,
	logger *zap.Logger,
) *DocumentService {
	return &DocumentService{
		orders:     orders,
		invoices:   invoices,
		documents:  NewDocumentLoader(orders, invoices),
		reconciler: reconciler,
		queue:      queue,
		logger:     logger,
	}
}

// ConfirmOrder recomputes the order's tax and confirms it
func (s *DocumentService) ConfirmOrder(ctx context.Context, orderID uuid.UUID) (*TaxResult, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if _, err := s.reconciler.Recompute(ctx, order); err != nil {
		return nil, err
	}
	if err := order.Confirm(); err != nil {
		return nil, err
	}
	if err := s.orders.Save(ctx, order); err != nil {
		return nil, fmt.Errorf("save order: %w", err)
	}
	s.logger.Info("order confirmed",
		zap.String("order_id", order.ID.String()),
		zap.String("external_tax", order.ExternalTax.String()),
	)
	return ToTaxResult(order), nil
}

// UpdateTaxes recomputes a document's tax without changing its state
func (s *DocumentService) UpdateTaxes(ctx context.Context, docType salestax.DocumentType, id uuid.UUID) (*TaxResult, error) {
	doc, err := s.documents.Load(ctx, docType, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.reconciler.Recompute(ctx, doc); err != nil {
		return nil, err
	}
	if err := s.documents.Save(ctx, doc); err != nil {
		return nil, fmt.Errorf("save %s: %w", docType, err)
	}
	return ToTaxResult(doc), nil
}

// OpenInvoice recomputes the invoice's tax, validates it and schedules the
// transaction report when the invoice is under external tax control
func (s *DocumentService) OpenInvoice(ctx context.Context, invoiceID uuid.UUID, number string) (*TaxResult, error) {
	invoice, err := s.invoices.FindByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if _, err := s.reconciler.Recompute(ctx, invoice); err != nil {
		return nil, err
	}
	if err := invoice.Open(number); err != nil {
		return nil, err
	}
	applies, err := s.reconciler.Applies(ctx, invoice)
	if err != nil {
		return nil, err
	}
	if applies {
		invoice.RequestCommit()
	}
	if err := s.saveAndEnqueue(ctx, invoice); err != nil {
		return nil, err
	}
	return ToTaxResult(invoice), nil
}

// CancelInvoice cancels the invoice and schedules deletion of its reported
// transaction when it was an open or paid customer document
func (s *DocumentService) CancelInvoice(ctx context.Context, invoiceID uuid.UUID) (*TaxResult, error) {
	invoice, err := s.invoices.FindByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	wasFinalized, err := invoice.Cancel()
	if err != nil {
		return nil, err
	}
	if wasFinalized && invoice.EligibleForExternalTax() {
		applies, err := s.reconciler.Applies(ctx, invoice)
		if err != nil {
			return nil, err
		}
		if applies {
			invoice.RequestCancel()
		}
	}
	if err := s.saveAndEnqueue(ctx, invoice); err != nil {
		return nil, err
	}
	return ToTaxResult(invoice), nil
}

func (s *DocumentService) saveAndEnqueue(ctx context.Context, invoice *salestax.Invoice) error {
	if err := s.invoices.Save(ctx, invoice); err != nil {
		return fmt.Errorf("save invoice: %w", err)
	}
	tasks := invoice.GetDomainEvents()
	invoice.ClearDomainEvents()
	if len(tasks) == 0 {
		return nil
	}
	if err := s.queue.Enqueue(ctx, tasks...); err != nil {
		s.logger.Error("failed to enqueue transaction tasks",
			zap.String("invoice_id", invoice.ID.String()),
			zap.Int("tasks", len(tasks)),
			zap.Error(err),
		)
		return fmt.Errorf("enqueue transaction tasks: %w", err)
	}
	return nil
}
