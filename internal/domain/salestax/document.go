package salestax

import (
	"strings"
	"time"

	"github.com/erp/salestax/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DocumentType distinguishes the two document variants
type DocumentType string

const (
	DocumentTypeSalesOrder DocumentType = "sales_order"
	DocumentTypeInvoice    DocumentType = "invoice"
)

// ParseDocumentType parses a document type name
func ParseDocumentType(s string) (DocumentType, bool) {
	switch DocumentType(strings.ToLower(strings.TrimSpace(s))) {
	case DocumentTypeSalesOrder, "order", "orders":
		return DocumentTypeSalesOrder, true
	case DocumentTypeInvoice, "invoices":
		return DocumentTypeInvoice, true
	}
	return "", false
}

// Document is a commercial transaction with lines, a currency, a destination
// party, an origin address and an external tax total. Sales orders and
// invoices implement it and share the reconciliation algorithm.
type Document interface {
	DocumentID() uuid.UUID
	DocumentType() DocumentType
	DisplayName() string
	Organization() uuid.UUID
	Currency() valueobject.Currency
	// EffectiveDate is the date used for currency rate lookups and the transaction date
	EffectiveDate() time.Time
	IsRefund() bool
	Lines() []*Line
	// Destination resolves the ship-to party. fellBack is true when the
	// document's policy could not be honored and the default destination was used.
	Destination() (partner *Partner, fellBack bool)
	Origin() *Partner
	// EligibleForExternalTax excludes document kinds the service never handles, e.g. vendor bills
	EligibleForExternalTax() bool
	ExternalTaxAmount() decimal.Decimal
	SetExternalTaxAmount(amount decimal.Decimal)
	ShippingAmount() decimal.Decimal
	SetShippingAmount(amount decimal.Decimal)
	UntaxedAmount() decimal.Decimal
	// IsFinalized reports whether the document may be reported as a transaction
	IsFinalized() bool
	StateName() string
	TransactionNumber() string
	// RefundReference is the transaction number of the refunded document, if any
	RefundReference() string
}

// Sign returns -1 for refund documents and +1 otherwise
func Sign(doc Document) decimal.Decimal {
	if doc.IsRefund() {
		return decimal.NewFromInt(-1)
	}
	return decimal.NewFromInt(1)
}

// ResetExternalTax zeroes every external tax field on the document
func ResetExternalTax(doc Document) {
	for _, line := range doc.Lines() {
		line.ExternalTaxAmount = decimal.Zero
	}
	doc.SetExternalTaxAmount(decimal.Zero)
	doc.SetShippingAmount(decimal.Zero)
}

// CheckOnlyPlaceholderTax fails when a line carries any tax other than the placeholder.
// A nil placeholder means no tax may be present at all.
func CheckOnlyPlaceholderTax(doc Document, placeholder *Tax) error {
	placeholderID := uuid.Nil
	if placeholder != nil {
		placeholderID = placeholder.ID
	}
	for _, line := range doc.Lines() {
		if line.HasTaxOtherThan(placeholderID) {
			return NewAdditionalTaxesError(doc.DisplayName())
		}
	}
	return nil
}

// untaxedAmount sums currency-rounded line subtotals
func untaxedAmount(lines []*Line, currency valueobject.Currency) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(currency.Round(line.Subtotal()))
	}
	return total
}
