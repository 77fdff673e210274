package salestax

import (
	"context"
	"errors"
	"testing"

	"github.com/erp/salestax/internal/domain/salestax"
	"github.com/erp/salestax/internal/domain/shared"
	"github.com/erp/salestax/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func (env *testEnv) draftInvoice(t *testing.T) *salestax.Invoice {
	t.Helper()
	inv, err := salestax.NewInvoice(env.orgID, salestax.InvoiceTypeOutInvoice, valueobject.USD, env.order.ShippingPartner)
	require.NoError(t, err)
	inv.Order = env.order
	inv.AddLine(salestax.NewLine(env.productLine.Product, "Desk", dec("1"), dec("450"), decimal.Zero))
	inv.AddLine(salestax.NewLine(env.shippingLine.Product, "Shipping", dec("1"), dec("100"), decimal.Zero))
	return inv
}

func TestDocumentService_ConfirmOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("computes tax and confirms", func(t *testing.T) {
		env := newTestEnv(t)
		env.orders.On("FindByID", mock.Anything, env.order.ID).Return(env.order, nil)
		env.orders.On("Save", mock.Anything, env.order).Return(nil).Once()
		env.gateway.On("TaxForOrder", mock.Anything, env.cfg, mock.Anything).
			Return(breakdown39(env.productLine.ID.String(), ""), nil).Once()

		result, err := env.documents.ConfirmOrder(ctx, env.order.ID)
		require.NoError(t, err)

		assert.Equal(t, salestax.OrderStateConfirmed, env.order.State)
		assert.True(t, dec("39").Equal(result.ExternalTaxAmount))
		assert.Len(t, result.Lines, 2)
		assert.Empty(t, env.queue.tasks)
		env.orders.AssertExpectations(t)
	})

	t.Run("calculation failure aborts confirmation", func(t *testing.T) {
		env := newTestEnv(t)
		env.productLine.AttachTax(uuid.New())
		env.orders.On("FindByID", mock.Anything, env.order.ID).Return(env.order, nil)

		_, err := env.documents.ConfirmOrder(ctx, env.order.ID)
		require.Error(t, err)
		var domainErr *shared.DomainError
		require.True(t, errors.As(err, &domainErr))
		assert.Equal(t, salestax.AdditionalTaxesCode, domainErr.Code)
		assert.Equal(t, salestax.OrderStateDraft, env.order.State)
		env.orders.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})
}

func TestDocumentService_OpenInvoice(t *testing.T) {
	ctx := context.Background()

	t.Run("enqueues the commit after saving", func(t *testing.T) {
		env := newTestEnv(t)
		inv := env.draftInvoice(t)
		env.invoices.On("FindByID", mock.Anything, inv.ID).Return(inv, nil)
		env.invoices.On("Save", mock.Anything, inv).Return(nil).Once()
		env.gateway.On("TaxForOrder", mock.Anything, env.cfg, mock.Anything).
			Return(breakdown39(inv.InvoiceLines[0].ID.String(), ""), nil).Once()

		result, err := env.documents.OpenInvoice(ctx, inv.ID, "INV/2024/0007")
		require.NoError(t, err)

		assert.Equal(t, "open", result.State)
		assert.Equal(t, "INV/2024/0007", result.Name)
		require.Len(t, env.queue.tasks, 1)
		task, ok := env.queue.tasks[0].(*salestax.CommitTransactionRequested)
		require.True(t, ok)
		assert.Equal(t, inv.ID, task.DocumentID)
		assert.Empty(t, inv.GetDomainEvents())
	})

	t.Run("uncovered invoices are not reported", func(t *testing.T) {
		env := newTestEnv(t)
		inv := env.draftInvoice(t)
		inv.Order = nil
		inv.Partner = partnerIn(t, env.orgID, "Abroad", "MX", "JAL", "44100")
		env.invoices.On("FindByID", mock.Anything, inv.ID).Return(inv, nil)
		env.invoices.On("Save", mock.Anything, inv).Return(nil).Once()

		_, err := env.documents.OpenInvoice(ctx, inv.ID, "INV/2024/0008")
		require.NoError(t, err)
		assert.Empty(t, env.queue.tasks)
	})

	t.Run("save failure does not enqueue", func(t *testing.T) {
		env := newTestEnv(t)
		inv := env.draftInvoice(t)
		env.invoices.On("FindByID", mock.Anything, inv.ID).Return(inv, nil)
		env.invoices.On("Save", mock.Anything, inv).Return(errors.New("db down")).Once()
		env.gateway.On("TaxForOrder", mock.Anything, env.cfg, mock.Anything).
			Return(breakdown39(inv.InvoiceLines[0].ID.String(), ""), nil).Once()

		_, err := env.documents.OpenInvoice(ctx, inv.ID, "INV/2024/0009")
		require.Error(t, err)
		assert.Empty(t, env.queue.tasks)
	})
}

func TestDocumentService_CancelInvoice(t *testing.T) {
	ctx := context.Background()

	t.Run("open refund enqueues a refund cancel", func(t *testing.T) {
		env := newTestEnv(t)
		refund := env.refundOf(t)
		require.NoError(t, refund.Open("RINV/001"))
		env.invoices.On("FindByID", mock.Anything, refund.ID).Return(refund, nil)
		env.invoices.On("Save", mock.Anything, refund).Return(nil).Once()

		_, err := env.documents.CancelInvoice(ctx, refund.ID)
		require.NoError(t, err)

		require.Len(t, env.queue.tasks, 1)
		task, ok := env.queue.tasks[0].(*salestax.CancelTransactionRequested)
		require.True(t, ok)
		assert.True(t, task.IsRefund)
	})

	t.Run("draft invoice cancels without task", func(t *testing.T) {
		env := newTestEnv(t)
		inv := env.draftInvoice(t)
		env.invoices.On("FindByID", mock.Anything, inv.ID).Return(inv, nil)
		env.invoices.On("Save", mock.Anything, inv).Return(nil).Once()

		_, err := env.documents.CancelInvoice(ctx, inv.ID)
		require.NoError(t, err)
		assert.Equal(t, salestax.InvoiceStateCancelled, inv.State)
		assert.Empty(t, env.queue.tasks)
	})

	t.Run("vendor bill cancels without task", func(t *testing.T) {
		env := newTestEnv(t)
		bill, err := salestax.NewInvoice(env.orgID, salestax.InvoiceTypeInInvoice, valueobject.USD, env.order.ShippingPartner)
		require.NoError(t, err)
		bill.AddLine(salestax.NewLine(nil, "Paper", dec("1"), dec("5"), decimal.Zero))
		require.NoError(t, bill.Open("BILL/001"))
		env.invoices.On("FindByID", mock.Anything, bill.ID).Return(bill, nil)
		env.invoices.On("Save", mock.Anything, bill).Return(nil).Once()

		_, err = env.documents.CancelInvoice(ctx, bill.ID)
		require.NoError(t, err)
		assert.Empty(t, env.queue.tasks)
	})
}

func TestDocumentService_UpdateTaxes(t *testing.T) {
	env := newTestEnv(t)
	env.orders.On("FindByID", mock.Anything, env.order.ID).Return(env.order, nil)
	env.orders.On("Save", mock.Anything, env.order).Return(nil).Once()
	env.gateway.On("TaxForOrder", mock.Anything, env.cfg, mock.Anything).
		Return(breakdown39(env.productLine.ID.String(), ""), nil).Once()

	result, err := env.documents.UpdateTaxes(context.Background(), salestax.DocumentTypeSalesOrder, env.order.ID)
	require.NoError(t, err)
	assert.Equal(t, "draft", result.State)
	assert.True(t, dec("26.60").Equal(result.Lines[1].TaxAmount))

	_, err = env.documents.UpdateTaxes(context.Background(), salestax.DocumentType("quote"), env.order.ID)
	assert.Error(t, err)
}

func TestTransactionTaskHandler(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.cfg.SetReportingEnabled(true)
	inv := env.openInvoice(t, valueobject.USD)
	env.invoices.On("FindByID", mock.Anything, inv.ID).Return(inv, nil)
	handler := NewTransactionTaskHandler(NewDocumentLoader(env.orders, env.invoices), env.transactions, zapNop())

	assert.ElementsMatch(t, []string{
		salestax.EventTypeCommitTransactionRequested,
		salestax.EventTypeCancelTransactionRequested,
	}, handler.EventTypes())

	env.gateway.On("CreateOrder", mock.Anything, env.cfg, mock.Anything).Return(nil).Once()
	require.NoError(t, handler.Handle(ctx, salestax.NewCommitTransactionRequested(inv)))

	env.gateway.On("DeleteOrder", mock.Anything, env.cfg, "INV_2024_0001").
		Return(&salestax.GatewayError{Method: salestax.MethodDeleteOrder, Reason: "boom"}).Once()
	err := handler.Handle(ctx, salestax.NewCancelTransactionRequested(inv, false))
	assert.True(t, salestax.IsGatewayError(err))

	missing := uuid.New()
	env.invoices.On("FindByID", mock.Anything, missing).Return(nil, shared.ErrNotFound)
	task := salestax.NewCommitTransactionRequested(inv)
	task.DocumentID = missing
	assert.ErrorIs(t, handler.Handle(ctx, task), shared.ErrNotFound)

	env.gateway.AssertExpectations(t)
}
