package salestax

import (
	"github.com/shopspring/decimal"
)

// LineItem is a document line in the service's request vocabulary.
// ProductIdentifier, Description and SalesTax are only sent when committing.
type LineItem struct {
	ID                string
	Quantity          decimal.Decimal
	UnitPrice         decimal.Decimal
	Discount          decimal.Decimal
	ProductTaxCode    string
	ProductIdentifier string
	Description       string
	SalesTax          decimal.Decimal
}

// IsShippingLine reports whether the line's product is a shipping marker
func IsShippingLine(line *Line, cfg *Configuration) bool {
	return line.Product != nil && cfg.IsShippingProduct(line.Product.ID)
}

// ShippingLines returns the document lines whose product is a shipping marker
func ShippingLines(doc Document, cfg *Configuration) []*Line {
	var lines []*Line
	for _, line := range doc.Lines() {
		if IsShippingLine(line, cfg) {
			lines = append(lines, line)
		}
	}
	return lines
}

// CalculationLines builds the line items sent for tax calculation.
// Shipping lines are excluded; refunds negate unit prices and discounts.
func CalculationLines(doc Document, cfg *Configuration) []LineItem {
	sign := Sign(doc)
	currency := doc.Currency()
	items := make([]LineItem, 0, len(doc.Lines()))
	for _, line := range doc.Lines() {
		if IsShippingLine(line, cfg) {
			continue
		}
		unitPrice := line.UnitPrice.Mul(sign)
		item := LineItem{
			ID:        line.ID.String(),
			Quantity:  line.Quantity,
			UnitPrice: unitPrice,
			Discount:  currency.Round(line.Quantity.Mul(unitPrice).Mul(line.DiscountPercent).Div(hundred)),
		}
		if line.Product != nil {
			item.ProductTaxCode = line.Product.ResolveTaxCode()
		}
		items = append(items, item)
	}
	return items
}

// CommitLines builds the line items reported with a transaction. Stored refund
// line taxes are negative like the calculation that produced them, so they are
// sign-adjusted back to the collected amount.
func CommitLines(doc Document, cfg *Configuration) []LineItem {
	sign := Sign(doc)
	items := CalculationLines(doc, cfg)
	byID := make(map[string]*Line, len(doc.Lines()))
	for _, line := range doc.Lines() {
		byID[line.ID.String()] = line
	}
	for i := range items {
		line := byID[items[i].ID]
		if line.Product != nil {
			items[i].ProductIdentifier = line.Product.DefaultCode
		}
		items[i].Description = line.Description
		items[i].SalesTax = line.ExternalTaxAmount.Mul(sign)
	}
	return items
}

// ShippingAmount sums the rounded subtotals of the shipping lines, sign-adjusted for refunds
func ShippingAmount(doc Document, cfg *Configuration) decimal.Decimal {
	currency := doc.Currency()
	total := decimal.Zero
	for _, line := range ShippingLines(doc, cfg) {
		total = total.Add(currency.Round(line.Subtotal()))
	}
	return total.Mul(Sign(doc))
}
