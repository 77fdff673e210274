package taxjar

import (
	"github.com/erp/salestax/internal/domain/salestax"
	"github.com/shopspring/decimal"
)

// Amount is a decimal that encodes as a bare JSON number
type Amount struct {
	decimal.Decimal
}

// MarshalJSON writes the amount without quotes
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.String()), nil
}

func amount(d decimal.Decimal) Amount {
	return Amount{Decimal: d}
}

type lineItem struct {
	ID                string  `json:"id"`
	Quantity          Amount  `json:"quantity"`
	UnitPrice         Amount  `json:"unit_price"`
	Discount          Amount  `json:"discount"`
	ProductTaxCode    string  `json:"product_tax_code,omitempty"`
	ProductIdentifier string  `json:"product_identifier,omitempty"`
	Description       string  `json:"description,omitempty"`
	SalesTax          *Amount `json:"sales_tax,omitempty"`
}

func taxLineItems(items []salestax.LineItem) []lineItem {
	out := make([]lineItem, len(items))
	for i, item := range items {
		out[i] = lineItem{
			ID:             item.ID,
			Quantity:       amount(item.Quantity),
			UnitPrice:      amount(item.UnitPrice),
			Discount:       amount(item.Discount),
			ProductTaxCode: item.ProductTaxCode,
		}
	}
	return out
}

func transactionLineItems(items []salestax.LineItem) []lineItem {
	out := make([]lineItem, len(items))
	for i, item := range items {
		tax := amount(item.SalesTax)
		out[i] = lineItem{
			ID:                item.ID,
			Quantity:          amount(item.Quantity),
			UnitPrice:         amount(item.UnitPrice),
			Discount:          amount(item.Discount),
			ProductTaxCode:    item.ProductTaxCode,
			ProductIdentifier: item.ProductIdentifier,
			Description:       item.Description,
			SalesTax:          &tax,
		}
	}
	return out
}

// withAddresses flattens both parties into from_* and to_* keys; unset fields stay null
func withAddresses(body map[string]any, parties ...salestax.AddressFields) map[string]any {
	for _, party := range parties {
		for k, v := range party.Map() {
			body[k] = v
		}
	}
	return body
}

type taxResponse struct {
	Tax struct {
		AmountToCollect Amount `json:"amount_to_collect"`
		Breakdown       *struct {
			LineItems []struct {
				ID             string `json:"id"`
				TaxCollectable Amount `json:"tax_collectable"`
			} `json:"line_items"`
			Shipping *struct {
				TaxCollectable Amount `json:"tax_collectable"`
			} `json:"shipping"`
		} `json:"breakdown"`
	} `json:"tax"`
}

func (r taxResponse) toDomain() *salestax.TaxBreakdown {
	out := &salestax.TaxBreakdown{AmountToCollect: r.Tax.AmountToCollect.Decimal}
	if r.Tax.Breakdown == nil {
		return out
	}
	for _, item := range r.Tax.Breakdown.LineItems {
		out.LineItems = append(out.LineItems, salestax.LineTax{
			ID:             item.ID,
			TaxCollectable: item.TaxCollectable.Decimal,
		})
	}
	if r.Tax.Breakdown.Shipping != nil {
		out.ShippingTaxCollectable = r.Tax.Breakdown.Shipping.TaxCollectable.Decimal
	}
	return out
}

type validateAddressRequest struct {
	Country string `json:"country,omitempty"`
	State   string `json:"state,omitempty"`
	Zip     string `json:"zip,omitempty"`
	City    string `json:"city,omitempty"`
	Street  string `json:"street,omitempty"`
}

type validateAddressResponse struct {
	Addresses []struct {
		Country string `json:"country"`
		State   string `json:"state"`
		Zip     string `json:"zip"`
		City    string `json:"city"`
		Street  string `json:"street"`
	} `json:"addresses"`
}

type categoriesResponse struct {
	Categories []struct {
		Name           string `json:"name"`
		ProductTaxCode string `json:"product_tax_code"`
		Description    string `json:"description"`
	} `json:"categories"`
}

type errorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail"`
	Status int    `json:"status"`
}
