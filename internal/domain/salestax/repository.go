package salestax

import (
	"context"
	"time"

	"github.com/erp/salestax/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ConfigurationRepository stores external tax configurations
type ConfigurationRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Configuration, error)
	// FindApplicable returns the configurations of the organization and the
	// global defaults, organization-specific first.
	FindApplicable(ctx context.Context, organizationID uuid.UUID) ([]*Configuration, error)
	Save(ctx context.Context, cfg *Configuration) error
}

// SalesOrderRepository stores sales orders with their lines
type SalesOrderRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*SalesOrder, error)
	FindByName(ctx context.Context, organizationID uuid.UUID, name string) (*SalesOrder, error)
	Save(ctx context.Context, order *SalesOrder) error
}

// InvoiceRepository stores invoices with their lines. FindByID resolves the
// linked order, including legacy source document references.
type InvoiceRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Invoice, error)
	Save(ctx context.Context, invoice *Invoice) error
}

// PartnerRepository stores partners
type PartnerRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Partner, error)
	Save(ctx context.Context, partner *Partner) error
}

// TaxRepository looks up the organization's placeholder tax
type TaxRepository interface {
	// FindPlaceholder returns nil without error when the organization has none
	FindPlaceholder(ctx context.Context, organizationID uuid.UUID) (*Tax, error)
}

// ProductTaxCodeRepository stores product tax codes
type ProductTaxCodeRepository interface {
	FindByCode(ctx context.Context, code string) (*ProductTaxCode, error)
	FindAll(ctx context.Context) ([]*ProductTaxCode, error)
	Save(ctx context.Context, code *ProductTaxCode) error
}

// CurrencyConverter converts amounts at the rate effective on a date
type CurrencyConverter interface {
	Convert(ctx context.Context, amount decimal.Decimal, from, to valueobject.Currency, date time.Time) (decimal.Decimal, error)
}
