package salestax

import (
	"sort"

	"github.com/erp/salestax/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// LineTax is the tax collectable for one line item
type LineTax struct {
	ID             string
	TaxCollectable decimal.Decimal
}

// AllocateLineTax rounds each item's tax and moves the rounding difference
// onto the item with the largest absolute unrounded amount, so that the items plus the
// rounded shipping tax add up to the rounded reported total. Ties keep input
// order. The result preserves the input order.
func AllocateLineTax(items []LineTax, reportedTotal, shippingTax decimal.Decimal, currency valueobject.Currency) []LineTax {
	allocated := make([]LineTax, len(items))
	sum := currency.Round(shippingTax)
	for i, item := range items {
		allocated[i] = LineTax{ID: item.ID, TaxCollectable: currency.Round(item.TaxCollectable)}
		sum = sum.Add(allocated[i].TaxCollectable)
	}
	if len(allocated) == 0 {
		return allocated
	}
	delta := currency.Round(reportedTotal).Sub(sum)
	if delta.IsZero() {
		return allocated
	}
	order := make([]int, len(allocated))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return items[order[a]].TaxCollectable.Abs().GreaterThan(items[order[b]].TaxCollectable.Abs())
	})
	largest := order[0]
	allocated[largest].TaxCollectable = allocated[largest].TaxCollectable.Add(delta)
	return allocated
}

// DistributeShippingTax splits the shipping tax over n shipping lines. All but
// the last line get the rounded even share; the last gets the remainder.
// A non-zero tax with no shipping lines is ErrNoShippingLines.
func DistributeShippingTax(total decimal.Decimal, n int, currency valueobject.Currency) ([]decimal.Decimal, error) {
	total = currency.Round(total)
	if n <= 0 {
		if !total.IsZero() {
			return nil, ErrNoShippingLines
		}
		return nil, nil
	}
	shares := make([]decimal.Decimal, n)
	share := currency.Round(total.Div(decimal.NewFromInt(int64(n))))
	assigned := decimal.Zero
	for i := 0; i < n-1; i++ {
		shares[i] = share
		assigned = assigned.Add(share)
	}
	shares[n-1] = total.Sub(assigned)
	return shares, nil
}
