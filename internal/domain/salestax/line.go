package salestax

import (
	"slices"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Line is a commercial line of an order or invoice.
// ExternalTaxAmount is added on top of any native tax the host computes.
type Line struct {
	ID                uuid.UUID
	Sequence          int
	Product           *Product
	Description       string
	Quantity          decimal.Decimal
	UnitPrice         decimal.Decimal
	DiscountPercent   decimal.Decimal
	TaxIDs            []uuid.UUID
	ExternalTaxAmount decimal.Decimal
}

// NewLine creates a line with a generated ID
func NewLine(product *Product, description string, quantity, unitPrice, discountPercent decimal.Decimal) *Line {
	return &Line{
		ID:              uuid.New(),
		Product:         product,
		Description:     description,
		Quantity:        quantity,
		UnitPrice:       unitPrice,
		DiscountPercent: discountPercent,
	}
}

// ProductID returns the product ID or uuid.Nil for lines without product
func (l *Line) ProductID() uuid.UUID {
	if l.Product == nil {
		return uuid.Nil
	}
	return l.Product.ID
}

// Subtotal is the unrounded line amount after discount: (1 - d/100) * price * qty
func (l *Line) Subtotal() decimal.Decimal {
	factor := decimal.NewFromInt(1).Sub(l.DiscountPercent.Div(hundred))
	return factor.Mul(l.UnitPrice).Mul(l.Quantity)
}

// HasTax reports whether the tax is attached to the line
func (l *Line) HasTax(taxID uuid.UUID) bool {
	return slices.Contains(l.TaxIDs, taxID)
}

// AttachTax attaches a tax unless already present
func (l *Line) AttachTax(taxID uuid.UUID) {
	if taxID == uuid.Nil || l.HasTax(taxID) {
		return
	}
	l.TaxIDs = append(l.TaxIDs, taxID)
}

// HasTaxOtherThan reports whether any tax besides the given one is attached
func (l *Line) HasTaxOtherThan(taxID uuid.UUID) bool {
	for _, id := range l.TaxIDs {
		if id != taxID {
			return true
		}
	}
	return false
}
