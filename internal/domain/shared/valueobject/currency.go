package valueobject

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Currency is an ISO 4217 code. Tax amounts are reported to TaxJar in USD
// and converted back into the document currency.
type Currency string

const (
	USD Currency = "USD"
	EUR Currency = "EUR"
	JPY Currency = "JPY"
)

const DefaultCurrency = USD

// currencies without a minor unit
var wholeUnit = map[Currency]struct{}{
	JPY:   {},
	"KRW": {},
	"VND": {},
	"CLP": {},
	"ISK": {},
}

// ParseCurrency upper-cases and trims code. Only the shape is checked;
// whether a rate exists is up to the rate provider.
func ParseCurrency(code string) (Currency, error) {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	if len(normalized) != 3 || strings.Trim(normalized, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") != "" {
		return "", fmt.Errorf("invalid currency code %q", code)
	}
	return Currency(normalized), nil
}

func (c Currency) decimals() int32 {
	if _, ok := wholeUnit[c]; ok {
		return 0
	}
	return 2
}

// Round rounds half away from zero to the currency's minor unit
func (c Currency) Round(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(c.decimals())
}

func (c Currency) String() string { return string(c) }
