package salestax

import (
	"strings"
	"time"

	"github.com/erp/salestax/internal/domain/shared"
	"github.com/erp/salestax/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AggregateTypeInvoice is the aggregate type name of invoices
const AggregateTypeInvoice = "Invoice"

// InvoiceType distinguishes customer and vendor invoices and refunds
type InvoiceType string

const (
	InvoiceTypeOutInvoice InvoiceType = "out_invoice"
	InvoiceTypeOutRefund  InvoiceType = "out_refund"
	InvoiceTypeInInvoice  InvoiceType = "in_invoice"
	InvoiceTypeInRefund   InvoiceType = "in_refund"
)

// IsValid reports whether the type is known
func (t InvoiceType) IsValid() bool {
	switch t {
	case InvoiceTypeOutInvoice, InvoiceTypeOutRefund, InvoiceTypeInInvoice, InvoiceTypeInRefund:
		return true
	}
	return false
}

// IsCustomer reports whether the type is a customer invoice or refund
func (t InvoiceType) IsCustomer() bool {
	return t == InvoiceTypeOutInvoice || t == InvoiceTypeOutRefund
}

// IsRefund reports whether the type is a credit note
func (t InvoiceType) IsRefund() bool {
	return t == InvoiceTypeOutRefund || t == InvoiceTypeInRefund
}

// InvoiceState is the invoice status
type InvoiceState string

const (
	InvoiceStateDraft     InvoiceState = "draft"
	InvoiceStateOpen      InvoiceState = "open"
	InvoiceStatePaid      InvoiceState = "paid"
	InvoiceStateCancelled InvoiceState = "cancelled"
)

// Invoice is a customer or vendor invoice or refund
type Invoice struct {
	shared.OrganizationAggregateRoot
	Type           InvoiceType
	State          InvoiceState
	Number         string
	SourceDocument string
	CurrencyCode   valueobject.Currency
	InvoiceDate    time.Time
	Partner        *Partner
	Order          *SalesOrder
	RefundOf       *Invoice
	Warehouse      *Warehouse
	CompanyPartner *Partner
	InvoiceLines   []*Line
	ExternalTax    decimal.Decimal
	Shipping       decimal.Decimal
}

// NewInvoice creates a draft invoice
func NewInvoice(organizationID uuid.UUID, invoiceType InvoiceType, currency valueobject.Currency, partner *Partner) (*Invoice, error) {
	if !invoiceType.IsValid() {
		return nil, shared.NewDomainError("INVALID_TYPE", "Unknown invoice type")
	}
	if partner == nil {
		return nil, shared.NewDomainError("INVALID_PARTNER", "Invoice requires a partner")
	}
	if currency == "" {
		currency = valueobject.DefaultCurrency
	}
	return &Invoice{
		OrganizationAggregateRoot: shared.NewOrganizationAggregateRoot(organizationID),
		Type:                      invoiceType,
		State:                     InvoiceStateDraft,
		CurrencyCode:              currency,
		InvoiceDate:               time.Now(),
		Partner:                   partner,
	}, nil
}

// AddLine appends a line and assigns its sequence
func (i *Invoice) AddLine(line *Line) {
	line.Sequence = len(i.InvoiceLines) + 1
	i.InvoiceLines = append(i.InvoiceLines, line)
}

// Open validates a draft invoice and assigns its number if it has none
func (i *Invoice) Open(number string) error {
	if i.State != InvoiceStateDraft {
		return shared.NewDomainError("INVALID_STATE", "Only draft invoices can be opened")
	}
	if len(i.InvoiceLines) == 0 {
		return shared.NewDomainError("NO_ITEMS", "Cannot open invoice without lines")
	}
	if i.Number == "" {
		number = strings.TrimSpace(number)
		if number == "" {
			return shared.NewDomainError("INVALID_NUMBER", "Invoice number cannot be empty")
		}
		i.Number = number
	}
	i.State = InvoiceStateOpen
	i.Touch()
	i.IncrementVersion()
	return nil
}

// MarkPaid moves an open invoice to paid
func (i *Invoice) MarkPaid() error {
	if i.State != InvoiceStateOpen {
		return shared.NewDomainError("INVALID_STATE", "Only open invoices can be marked paid")
	}
	i.State = InvoiceStatePaid
	i.Touch()
	i.IncrementVersion()
	return nil
}

// Cancel cancels the invoice and reports whether it had been finalized before
func (i *Invoice) Cancel() (wasFinalized bool, err error) {
	if i.State == InvoiceStateCancelled {
		return false, shared.NewDomainError("INVALID_STATE", "Invoice is already cancelled")
	}
	wasFinalized = i.IsFinalized()
	i.State = InvoiceStateCancelled
	i.Touch()
	i.IncrementVersion()
	return wasFinalized, nil
}

// RequestCommit records that the invoice must be reported to the tax service
func (i *Invoice) RequestCommit() {
	i.AddDomainEvent(NewCommitTransactionRequested(i))
}

// RequestCancel records that the reported transaction must be deleted
func (i *Invoice) RequestCancel() {
	i.AddDomainEvent(NewCancelTransactionRequested(i, i.Type == InvoiceTypeOutRefund))
}

// SourceOrder returns the sales order the invoice (or the invoice it refunds) was created from
func (i *Invoice) SourceOrder() *SalesOrder {
	if i.Order != nil {
		return i.Order
	}
	if i.RefundOf != nil {
		return i.RefundOf.Order
	}
	return nil
}

// ParseOrderReference extracts the order name from a legacy source reference.
// "prefix:SO001" yields "SO001"; a reference without a colon is returned trimmed.
func ParseOrderReference(ref string) string {
	parts := strings.Split(ref, ":")
	if len(parts) > 1 {
		return strings.TrimSpace(parts[1])
	}
	return strings.TrimSpace(parts[0])
}

func (i *Invoice) DocumentID() uuid.UUID          { return i.ID }
func (i *Invoice) DocumentType() DocumentType     { return DocumentTypeInvoice }
func (i *Invoice) Organization() uuid.UUID        { return i.OrganizationID }
func (i *Invoice) Currency() valueobject.Currency { return i.CurrencyCode }
func (i *Invoice) EffectiveDate() time.Time       { return i.InvoiceDate }
func (i *Invoice) IsRefund() bool                 { return i.Type.IsRefund() }
func (i *Invoice) Lines() []*Line                 { return i.InvoiceLines }
func (i *Invoice) EligibleForExternalTax() bool   { return i.Type.IsCustomer() }
func (i *Invoice) StateName() string              { return string(i.State) }
func (i *Invoice) TransactionNumber() string      { return i.Number }

func (i *Invoice) ExternalTaxAmount() decimal.Decimal { return i.ExternalTax }

func (i *Invoice) SetExternalTaxAmount(amount decimal.Decimal) { i.ExternalTax = amount }

func (i *Invoice) ShippingAmount() decimal.Decimal { return i.Shipping }

func (i *Invoice) SetShippingAmount(amount decimal.Decimal) { i.Shipping = amount }

// DisplayName is the invoice number, or a draft label before numbering
func (i *Invoice) DisplayName() string {
	if i.Number != "" {
		return i.Number
	}
	return "Draft Invoice " + i.ID.String()[:8]
}

// UntaxedAmount is the sum of the rounded line subtotals
func (i *Invoice) UntaxedAmount() decimal.Decimal {
	return untaxedAmount(i.InvoiceLines, i.CurrencyCode)
}

// IsFinalized reports whether the invoice is open or paid
func (i *Invoice) IsFinalized() bool {
	return i.State == InvoiceStateOpen || i.State == InvoiceStatePaid
}

// RefundReference is the number of the refunded invoice
func (i *Invoice) RefundReference() string {
	if !i.IsRefund() || i.RefundOf == nil {
		return ""
	}
	return i.RefundOf.Number
}

// Destination follows the linked order's destination policy, else the invoice partner
func (i *Invoice) Destination() (*Partner, bool) {
	if order := i.SourceOrder(); order != nil {
		return order.Destination()
	}
	return i.Partner, false
}

// Origin is the order's warehouse partner, then the invoice warehouse partner,
// then the company partner.
func (i *Invoice) Origin() *Partner {
	if order := i.SourceOrder(); order != nil {
		if p := order.Warehouse.PartnerOrNil(); p != nil {
			return p
		}
	}
	if p := i.Warehouse.PartnerOrNil(); p != nil {
		return p
	}
	return i.CompanyPartner
}

var _ Document = (*Invoice)(nil)
