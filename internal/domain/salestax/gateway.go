package salestax

import (
	"context"

	"github.com/shopspring/decimal"
)

// Gateway method names, used in errors, logs and metrics
const (
	MethodTaxForOrder     = "tax_for_order"
	MethodCreateOrder     = "create_order"
	MethodCreateRefund    = "create_refund"
	MethodDeleteOrder     = "delete_order"
	MethodDeleteRefund    = "delete_refund"
	MethodValidateAddress = "validate_address"
	MethodCategories      = "categories"
)

// TaxForOrderRequest asks the service for the tax due on a document
type TaxForOrderRequest struct {
	From      AddressFields
	To        AddressFields
	LineItems []LineItem
	Shipping  decimal.Decimal
}

// TaxBreakdown is the service's calculation result
type TaxBreakdown struct {
	AmountToCollect        decimal.Decimal
	LineItems              []LineTax
	ShippingTaxCollectable decimal.Decimal
}

// TransactionRequest reports a finalized document. Amounts are in the
// reporting currency. ReferenceID is set for refunds of a known transaction.
type TransactionRequest struct {
	TransactionID   string
	TransactionDate string
	ReferenceID     string
	From            AddressFields
	To              AddressFields
	Amount          decimal.Decimal
	Shipping        decimal.Decimal
	SalesTax        decimal.Decimal
	LineItems       []LineItem
}

// Category is a product tax category offered by the service
type Category struct {
	ProductTaxCode string
	Name           string
	Description    string
}

// Gateway is the external tax service. Failures are *GatewayError, except
// ErrAddressNotFound from ValidateAddress.
type Gateway interface {
	TaxForOrder(ctx context.Context, cfg *Configuration, req TaxForOrderRequest) (*TaxBreakdown, error)
	CreateOrder(ctx context.Context, cfg *Configuration, req TransactionRequest) error
	CreateRefund(ctx context.Context, cfg *Configuration, req TransactionRequest) error
	DeleteOrder(ctx context.Context, cfg *Configuration, transactionID string) error
	DeleteRefund(ctx context.Context, cfg *Configuration, transactionID string) error
	ValidateAddress(ctx context.Context, cfg *Configuration, req AddressValidationRequest) ([]ValidatedAddress, error)
	Categories(ctx context.Context, cfg *Configuration) ([]Category, error)
}
