package currency

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/salestax/internal/domain/salestax"
	"github.com/erp/salestax/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// Converter converts amounts between currencies and rounds to the target's precision
type Converter struct {
	rates RateProvider
}

// NewConverter creates a converter backed by rates
func NewConverter(rates RateProvider) *Converter {
	return &Converter{rates: rates}
}

// Convert converts amount from one currency into another at the rate effective on date.
// Amounts already in the target currency are only rounded.
func (c *Converter) Convert(ctx context.Context, amount decimal.Decimal, from, to valueobject.Currency, date time.Time) (decimal.Decimal, error) {
	if from == to {
		return to.Round(amount), nil
	}
	rate, err := c.rates.RateAt(ctx, from, to, date)
	if err != nil {
		return decimal.Zero, err
	}
	if !rate.IsPositive() {
		return decimal.Zero, fmt.Errorf("invalid exchange rate %s for %s/%s", rate, from, to)
	}
	return to.Round(amount.Mul(rate)), nil
}

var _ salestax.CurrencyConverter = (*Converter)(nil)
