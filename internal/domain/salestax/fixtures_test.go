package salestax

import (
	"testing"

	"github.com/erp/salestax/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func usPartner(t *testing.T, name, state, zip string) *Partner {
	t.Helper()
	addr, err := valueobject.NewAddress(
		valueobject.WithStreet("1 Main St"),
		valueobject.WithCity("Springfield"),
		valueobject.WithState(state),
		valueobject.WithZip(zip),
		valueobject.WithCountry("US"),
	)
	require.NoError(t, err)
	return NewPartner(uuid.New(), name, addr)
}

type orderFixture struct {
	cfg          *Configuration
	order        *SalesOrder
	productLine  *Line
	shippingLine *Line
}

// newOrderFixture builds an order with one 450 product line and one 100 shipping line
func newOrderFixture(t *testing.T) orderFixture {
	t.Helper()
	cfg, err := NewConfiguration(nil, "secret")
	require.NoError(t, err)

	shippingProduct := &Product{ID: uuid.New(), Name: "Shipping", DefaultCode: "SHIP"}
	cfg.ShippingProductIDs = []uuid.UUID{shippingProduct.ID}
	product := &Product{
		ID:          uuid.New(),
		Name:        "Desk",
		DefaultCode: "DESK-01",
		TaxCode:     &ProductTaxCode{Code: "30070"},
	}

	customer := usPartner(t, "Customer", "CA", "90002")
	order, err := NewSalesOrder(customer.OrganizationID, "SO001", valueobject.USD, customer)
	require.NoError(t, err)
	order.Warehouse = &Warehouse{ID: uuid.New(), Name: "WH", Partner: usPartner(t, "Warehouse", "CA", "92093")}

	productLine := NewLine(product, "Desk", dec("1"), dec("450"), decimal.Zero)
	shippingLine := NewLine(shippingProduct, "Shipping", dec("1"), dec("100"), decimal.Zero)
	order.AddLine(productLine)
	order.AddLine(shippingLine)

	return orderFixture{cfg: cfg, order: order, productLine: productLine, shippingLine: shippingLine}
}

func newRefundFixture(t *testing.T) (orderFixture, *Invoice) {
	t.Helper()
	f := newOrderFixture(t)
	refund, err := NewInvoice(f.order.OrganizationID, InvoiceTypeOutRefund, valueobject.USD, f.order.ShippingPartner)
	require.NoError(t, err)
	refund.Order = f.order
	refund.AddLine(NewLine(f.productLine.Product, "Desk", dec("1"), dec("450"), decimal.Zero))
	refund.AddLine(NewLine(f.shippingLine.Product, "Shipping", dec("1"), dec("100"), decimal.Zero))
	return f, refund
}
