package salestax

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PlaceholderTaxName is the name of the tax whose amounts come from the service
const PlaceholderTaxName = "taxjar"

// Tax is a locally recorded tax. Only the placeholder tax may appear on
// documents under external tax control.
type Tax struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	Name           string
	Amount         decimal.Decimal
	PriceInclude   bool
}

// IsPlaceholder reports whether the tax is the external-tax placeholder
func (t *Tax) IsPlaceholder() bool {
	return t != nil && strings.EqualFold(t.Name, PlaceholderTaxName)
}

// CheckPlaceholder verifies the placeholder carries no rate of its own and is not price-inclusive
func (t *Tax) CheckPlaceholder() error {
	if t == nil {
		return nil
	}
	if !t.Amount.IsZero() {
		return ErrPlaceholderTaxHasAmount
	}
	if t.PriceInclude {
		return ErrPlaceholderTaxPriceIncluded
	}
	return nil
}
