package salestax

import (
	"context"
	"time"

	"github.com/erp/salestax/internal/domain/salestax"
	"github.com/erp/salestax/internal/domain/shared"
	"github.com/erp/salestax/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// MockConfigurationRepository is a mock implementation of salestax.ConfigurationRepository
type MockConfigurationRepository struct {
	mock.Mock
}

func (m *MockConfigurationRepository) FindByID(ctx context.Context, id uuid.UUID) (*salestax.Configuration, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*salestax.Configuration), args.Error(1)
}

func (m *MockConfigurationRepository) FindApplicable(ctx context.Context, organizationID uuid.UUID) ([]*salestax.Configuration, error) {
	args := m.Called(ctx, organizationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*salestax.Configuration), args.Error(1)
}

func (m *MockConfigurationRepository) Save(ctx context.Context, cfg *salestax.Configuration) error {
	return m.Called(ctx, cfg).Error(0)
}

// MockTaxRepository is a mock implementation of salestax.TaxRepository
type MockTaxRepository struct {
	mock.Mock
}

func (m *MockTaxRepository) FindPlaceholder(ctx context.Context, organizationID uuid.UUID) (*salestax.Tax, error) {
	args := m.Called(ctx, organizationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*salestax.Tax), args.Error(1)
}

// MockGateway is a mock implementation of salestax.Gateway
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) TaxForOrder(ctx context.Context, cfg *salestax.Configuration, req salestax.TaxForOrderRequest) (*salestax.TaxBreakdown, error) {
	args := m.Called(ctx, cfg, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*salestax.TaxBreakdown), args.Error(1)
}

func (m *MockGateway) CreateOrder(ctx context.Context, cfg *salestax.Configuration, req salestax.TransactionRequest) error {
	return m.Called(ctx, cfg, req).Error(0)
}

func (m *MockGateway) CreateRefund(ctx context.Context, cfg *salestax.Configuration, req salestax.TransactionRequest) error {
	return m.Called(ctx, cfg, req).Error(0)
}

func (m *MockGateway) DeleteOrder(ctx context.Context, cfg *salestax.Configuration, transactionID string) error {
	return m.Called(ctx, cfg, transactionID).Error(0)
}

func (m *MockGateway) DeleteRefund(ctx context.Context, cfg *salestax.Configuration, transactionID string) error {
	return m.Called(ctx, cfg, transactionID).Error(0)
}

func (m *MockGateway) ValidateAddress(ctx context.Context, cfg *salestax.Configuration, req salestax.AddressValidationRequest) ([]salestax.ValidatedAddress, error) {
	args := m.Called(ctx, cfg, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]salestax.ValidatedAddress), args.Error(1)
}

func (m *MockGateway) Categories(ctx context.Context, cfg *salestax.Configuration) ([]salestax.Category, error) {
	args := m.Called(ctx, cfg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]salestax.Category), args.Error(1)
}

// MockSalesOrderRepository is a mock implementation of salestax.SalesOrderRepository
type MockSalesOrderRepository struct {
	mock.Mock
}

func (m *MockSalesOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*salestax.SalesOrder, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*salestax.SalesOrder), args.Error(1)
}

func (m *MockSalesOrderRepository) FindByName(ctx context.Context, organizationID uuid.UUID, name string) (*salestax.SalesOrder, error) {
	args := m.Called(ctx, organizationID, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*salestax.SalesOrder), args.Error(1)
}

func (m *MockSalesOrderRepository) Save(ctx context.Context, order *salestax.SalesOrder) error {
	return m.Called(ctx, order).Error(0)
}

// MockInvoiceRepository is a mock implementation of salestax.InvoiceRepository
type MockInvoiceRepository struct {
	mock.Mock
}

func (m *MockInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*salestax.Invoice, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*salestax.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) Save(ctx context.Context, invoice *salestax.Invoice) error {
	return m.Called(ctx, invoice).Error(0)
}

// MockPartnerRepository is a mock implementation of salestax.PartnerRepository
type MockPartnerRepository struct {
	mock.Mock
}

func (m *MockPartnerRepository) FindByID(ctx context.Context, id uuid.UUID) (*salestax.Partner, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*salestax.Partner), args.Error(1)
}

func (m *MockPartnerRepository) Save(ctx context.Context, partner *salestax.Partner) error {
	return m.Called(ctx, partner).Error(0)
}

// MockProductTaxCodeRepository is a mock implementation of salestax.ProductTaxCodeRepository
type MockProductTaxCodeRepository struct {
	mock.Mock
}

func (m *MockProductTaxCodeRepository) FindByCode(ctx context.Context, code string) (*salestax.ProductTaxCode, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*salestax.ProductTaxCode), args.Error(1)
}

func (m *MockProductTaxCodeRepository) FindAll(ctx context.Context) ([]*salestax.ProductTaxCode, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*salestax.ProductTaxCode), args.Error(1)
}

func (m *MockProductTaxCodeRepository) Save(ctx context.Context, code *salestax.ProductTaxCode) error {
	return m.Called(ctx, code).Error(0)
}

// fixedRateConverter converts with constant rates keyed by source currency
type fixedRateConverter struct {
	rates map[valueobject.Currency]decimal.Decimal
	dates []time.Time
}

func (c *fixedRateConverter) Convert(_ context.Context, amount decimal.Decimal, from, to valueobject.Currency, date time.Time) (decimal.Decimal, error) {
	c.dates = append(c.dates, date)
	if from == to {
		return to.Round(amount), nil
	}
	return to.Round(amount.Mul(c.rates[from])), nil
}

// recordingQueue collects enqueued tasks
type recordingQueue struct {
	tasks []shared.DomainEvent
	err   error
}

func (q *recordingQueue) Enqueue(_ context.Context, tasks ...shared.DomainEvent) error {
	if q.err != nil {
		return q.err
	}
	q.tasks = append(q.tasks, tasks...)
	return nil
}

// recordingMetrics collects recorded outcomes
type recordingMetrics struct {
	reconciliations []string
	transactions    []string
}

func (m *recordingMetrics) RecordReconciliation(_ context.Context, _ string, outcome string, _ time.Duration) {
	m.reconciliations = append(m.reconciliations, outcome)
}

func (m *recordingMetrics) RecordTransaction(_ context.Context, operation, outcome string) {
	m.transactions = append(m.transactions, operation+":"+outcome)
}
