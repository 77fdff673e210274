package salestax

import (
	"time"

	"github.com/erp/salestax/internal/domain/shared"
	"github.com/erp/salestax/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AggregateTypeSalesOrder is the aggregate type name of sales orders
const AggregateTypeSalesOrder = "SalesOrder"

// DestinationPolicy selects which party's address a sales order ships to
type DestinationPolicy string

const (
	PolicyShipping DestinationPolicy = "shipping"
	PolicyPickup   DestinationPolicy = "pickup"
)

// OrderState is the sales order status
type OrderState string

const (
	OrderStateDraft     OrderState = "draft"
	OrderStateSent      OrderState = "sent"
	OrderStateConfirmed OrderState = "confirmed"
	OrderStateDone      OrderState = "done"
	OrderStateCancelled OrderState = "cancelled"
)

// SalesOrder is a customer order
type SalesOrder struct {
	shared.OrganizationAggregateRoot
	Name            string
	State           OrderState
	Policy          DestinationPolicy
	CurrencyCode    valueobject.Currency
	OrderDate       time.Time
	ShippingPartner *Partner
	Warehouse       *Warehouse
	CompanyPartner  *Partner
	OrderLines      []*Line
	ExternalTax     decimal.Decimal
	Shipping        decimal.Decimal
}

// NewSalesOrder creates a draft order shipped to the given partner
func NewSalesOrder(organizationID uuid.UUID, name string, currency valueobject.Currency, shippingPartner *Partner) (*SalesOrder, error) {
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Order name cannot be empty")
	}
	if shippingPartner == nil {
		return nil, shared.NewDomainError("INVALID_PARTNER", "Order requires a shipping partner")
	}
	if currency == "" {
		currency = valueobject.DefaultCurrency
	}
	return &SalesOrder{
		OrganizationAggregateRoot: shared.NewOrganizationAggregateRoot(organizationID),
		Name:                      name,
		State:                     OrderStateDraft,
		Policy:                    PolicyShipping,
		CurrencyCode:              currency,
		OrderDate:                 time.Now(),
		ShippingPartner:           shippingPartner,
	}, nil
}

// AddLine appends a line and assigns its sequence
func (o *SalesOrder) AddLine(line *Line) {
	line.Sequence = len(o.OrderLines) + 1
	o.OrderLines = append(o.OrderLines, line)
}

// Confirm moves a draft or sent order to confirmed
func (o *SalesOrder) Confirm() error {
	if o.State != OrderStateDraft && o.State != OrderStateSent {
		return shared.NewDomainError("INVALID_STATE", "Only draft or sent orders can be confirmed")
	}
	if len(o.OrderLines) == 0 {
		return shared.NewDomainError("NO_ITEMS", "Cannot confirm order without lines")
	}
	o.State = OrderStateConfirmed
	o.Touch()
	o.IncrementVersion()
	return nil
}

func (o *SalesOrder) DocumentID() uuid.UUID          { return o.ID }
func (o *SalesOrder) DocumentType() DocumentType     { return DocumentTypeSalesOrder }
func (o *SalesOrder) DisplayName() string            { return o.Name }
func (o *SalesOrder) Organization() uuid.UUID        { return o.OrganizationID }
func (o *SalesOrder) Currency() valueobject.Currency { return o.CurrencyCode }
func (o *SalesOrder) EffectiveDate() time.Time       { return o.OrderDate }
func (o *SalesOrder) IsRefund() bool                 { return false }
func (o *SalesOrder) Lines() []*Line                 { return o.OrderLines }
func (o *SalesOrder) EligibleForExternalTax() bool   { return true }
func (o *SalesOrder) StateName() string              { return string(o.State) }
func (o *SalesOrder) TransactionNumber() string      { return o.Name }
func (o *SalesOrder) RefundReference() string        { return "" }

func (o *SalesOrder) ExternalTaxAmount() decimal.Decimal { return o.ExternalTax }

func (o *SalesOrder) SetExternalTaxAmount(amount decimal.Decimal) { o.ExternalTax = amount }

func (o *SalesOrder) ShippingAmount() decimal.Decimal { return o.Shipping }

func (o *SalesOrder) SetShippingAmount(amount decimal.Decimal) { o.Shipping = amount }

// UntaxedAmount is the sum of the rounded line subtotals
func (o *SalesOrder) UntaxedAmount() decimal.Decimal {
	return untaxedAmount(o.OrderLines, o.CurrencyCode)
}

// IsFinalized reports whether the order is confirmed or done
func (o *SalesOrder) IsFinalized() bool {
	return o.State == OrderStateConfirmed || o.State == OrderStateDone
}

// Destination resolves the ship-to party. Pickup orders use the warehouse
// partner when it carries a postal address; otherwise they fall back to the
// shipping partner and report the fallback.
func (o *SalesOrder) Destination() (*Partner, bool) {
	if o.Policy == PolicyPickup {
		if pickup := o.Warehouse.PartnerOrNil(); pickup.HasPostalAddress() {
			return pickup, false
		}
		return o.ShippingPartner, true
	}
	return o.ShippingPartner, false
}

// Origin is the warehouse partner, or the company partner when the warehouse has none
func (o *SalesOrder) Origin() *Partner {
	if p := o.Warehouse.PartnerOrNil(); p != nil {
		return p
	}
	return o.CompanyPartner
}

var _ Document = (*SalesOrder)(nil)
