package salestax

import (
	"testing"

	"github.com/erp/salestax/internal/domain/salestax"
	"github.com/erp/salestax/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func partnerIn(t *testing.T, orgID uuid.UUID, name, country, state, zip string) *salestax.Partner {
	t.Helper()
	addr, err := valueobject.NewAddress(
		valueobject.WithStreet("1 Main St"),
		valueobject.WithCity("Springfield"),
		valueobject.WithState(state),
		valueobject.WithZip(zip),
		valueobject.WithCountry(country),
	)
	require.NoError(t, err)
	return salestax.NewPartner(orgID, name, addr)
}

// testEnv wires the services against mocks. The order has a 450 product line
// and a 100 shipping line shipped from a California warehouse to Los Angeles.
type testEnv struct {
	orgID        uuid.UUID
	cfg          *salestax.Configuration
	placeholder  *salestax.Tax
	configRepo   *MockConfigurationRepository
	taxRepo      *MockTaxRepository
	gateway      *MockGateway
	orders       *MockSalesOrderRepository
	invoices     *MockInvoiceRepository
	queue        *recordingQueue
	metrics      *recordingMetrics
	converter    *fixedRateConverter
	order        *salestax.SalesOrder
	productLine  *salestax.Line
	shippingLine *salestax.Line

	configs      *ConfigurationService
	reconciler   *Reconciler
	transactions *TransactionService
	documents    *DocumentService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		orgID:      uuid.New(),
		configRepo: new(MockConfigurationRepository),
		taxRepo:    new(MockTaxRepository),
		gateway:    new(MockGateway),
		orders:     new(MockSalesOrderRepository),
		invoices:   new(MockInvoiceRepository),
		queue:      &recordingQueue{},
		metrics:    &recordingMetrics{},
		converter:  &fixedRateConverter{rates: map[valueobject.Currency]decimal.Decimal{valueobject.EUR: dec("1.1")}},
	}

	cfg, err := salestax.NewConfiguration(&env.orgID, "secret")
	require.NoError(t, err)
	env.cfg = cfg
	env.placeholder = &salestax.Tax{ID: uuid.New(), OrganizationID: env.orgID, Name: salestax.PlaceholderTaxName}

	shippingProduct := &salestax.Product{ID: uuid.New(), Name: "Shipping", DefaultCode: "SHIP"}
	cfg.ShippingProductIDs = []uuid.UUID{shippingProduct.ID}
	product := &salestax.Product{ID: uuid.New(), Name: "Desk", DefaultCode: "DESK-01"}

	customer := partnerIn(t, env.orgID, "Customer", "US", "CA", "90002")
	order, err := salestax.NewSalesOrder(env.orgID, "SO001", valueobject.USD, customer)
	require.NoError(t, err)
	order.Warehouse = &salestax.Warehouse{ID: uuid.New(), Partner: partnerIn(t, env.orgID, "WH", "US", "CA", "92093")}
	env.productLine = salestax.NewLine(product, "Desk", dec("1"), dec("450"), decimal.Zero)
	env.shippingLine = salestax.NewLine(shippingProduct, "Shipping", dec("1"), dec("100"), decimal.Zero)
	order.AddLine(env.productLine)
	order.AddLine(env.shippingLine)
	env.order = order

	env.configRepo.On("FindApplicable", mock.Anything, env.orgID).
		Return([]*salestax.Configuration{cfg}, nil).Maybe()
	env.configRepo.On("FindByID", mock.Anything, cfg.ID).Return(cfg, nil).Maybe()
	env.taxRepo.On("FindPlaceholder", mock.Anything, env.orgID).Return(env.placeholder, nil).Maybe()

	logger := zap.NewNop()
	env.configs = NewConfigurationService(env.configRepo)
	env.reconciler = NewReconciler(env.configs, env.taxRepo, env.gateway, logger).WithMetrics(env.metrics)
	env.transactions = NewTransactionService(env.configs, env.gateway, env.converter, valueobject.USD, logger).
		WithMetrics(env.metrics)
	env.documents = NewDocumentService(env.orders, env.invoices, env.reconciler, env.queue, logger)
	return env
}

// refundOf builds an open customer refund mirroring the fixture order
func (env *testEnv) refundOf(t *testing.T) *salestax.Invoice {
	t.Helper()
	refund, err := salestax.NewInvoice(env.orgID, salestax.InvoiceTypeOutRefund, valueobject.USD, env.order.ShippingPartner)
	require.NoError(t, err)
	refund.Order = env.order
	refund.AddLine(salestax.NewLine(env.productLine.Product, "Desk", dec("1"), dec("450"), decimal.Zero))
	refund.AddLine(salestax.NewLine(env.shippingLine.Product, "Shipping", dec("1"), dec("100"), decimal.Zero))
	return refund
}

// breakdown39 is the service answer for the fixture: 12.40 on the desk and 26.60 on shipping
func breakdown39(lineID string, sign string) *salestax.TaxBreakdown {
	return &salestax.TaxBreakdown{
		AmountToCollect:        dec(sign + "39"),
		LineItems:              []salestax.LineTax{{ID: lineID, TaxCollectable: dec(sign + "12.40")}},
		ShippingTaxCollectable: dec(sign + "26.60"),
	}
}

func zapNop() *zap.Logger {
	return zap.NewNop()
}
