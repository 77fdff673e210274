package models

import (
	"time"

	"github.com/erp/salestax/internal/domain/salestax"
	"github.com/erp/salestax/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SalesOrderModel is the persistence model for the SalesOrder aggregate root.
type SalesOrderModel struct {
	OrganizationAggregateModel
	Name              string                     `gorm:"type:varchar(64);not null;index"`
	State             salestax.OrderState        `gorm:"type:varchar(20);not null;default:'draft'"`
	Policy            salestax.DestinationPolicy `gorm:"type:varchar(20);not null;default:'shipping'"`
	CurrencyCode      string                     `gorm:"type:varchar(3);not null"`
	OrderDate         time.Time                  `gorm:"not null"`
	ShippingPartnerID uuid.UUID                  `gorm:"type:uuid;not null"`
	ShippingPartner   *PartnerModel              `gorm:"foreignKey:ShippingPartnerID"`
	WarehouseID       *uuid.UUID                 `gorm:"type:uuid"`
	Warehouse         *WarehouseModel            `gorm:"foreignKey:WarehouseID"`
	CompanyPartnerID  *uuid.UUID                 `gorm:"type:uuid"`
	CompanyPartner    *PartnerModel              `gorm:"foreignKey:CompanyPartnerID"`
	ExternalTax       decimal.Decimal            `gorm:"type:decimal(18,4);not null;default:0"`
	Shipping          decimal.Decimal            `gorm:"type:decimal(18,4);not null;default:0"`
	Lines             []SalesOrderLineModel      `gorm:"foreignKey:OrderID"`
}

// TableName returns the table name for GORM
func (SalesOrderModel) TableName() string {
	return "sales_orders"
}

// ToDomain converts the persistence model to a domain SalesOrder
func (m *SalesOrderModel) ToDomain() *salestax.SalesOrder {
	order := &salestax.SalesOrder{
		OrganizationAggregateRoot: m.ToDomainAggregateRoot(),
		Name:                      m.Name,
		State:                     m.State,
		Policy:                    m.Policy,
		CurrencyCode:              valueobject.Currency(m.CurrencyCode),
		OrderDate:                 m.OrderDate,
		ShippingPartner:           m.ShippingPartner.ToDomain(),
		Warehouse:                 m.Warehouse.ToDomain(),
		CompanyPartner:            m.CompanyPartner.ToDomain(),
		ExternalTax:               m.ExternalTax,
		Shipping:                  m.Shipping,
		OrderLines:                make([]*salestax.Line, 0, len(m.Lines)),
	}
	for i := range m.Lines {
		order.OrderLines = append(order.OrderLines, m.Lines[i].ToDomain())
	}
	return order
}

// SalesOrderModelFromDomain creates a persistence model from a domain SalesOrder.
// Related partners and warehouses are referenced by ID only.
func SalesOrderModelFromDomain(o *salestax.SalesOrder) *SalesOrderModel {
	m := &SalesOrderModel{
		Name:             o.Name,
		State:            o.State,
		Policy:           o.Policy,
		CurrencyCode:     o.CurrencyCode.String(),
		OrderDate:        o.OrderDate,
		WarehouseID:      warehouseID(o.Warehouse),
		CompanyPartnerID: partnerID(o.CompanyPartner),
		ExternalTax:      o.ExternalTax,
		Shipping:         o.Shipping,
	}
	m.FromDomainAggregateRoot(o.OrganizationAggregateRoot)
	if o.ShippingPartner != nil {
		m.ShippingPartnerID = o.ShippingPartner.ID
	}
	m.Lines = make([]SalesOrderLineModel, 0, len(o.OrderLines))
	for _, line := range o.OrderLines {
		m.Lines = append(m.Lines, SalesOrderLineModel{OrderID: o.ID, LineFields: lineFieldsFromDomain(line)})
	}
	return m
}

// SalesOrderLineModel is the persistence model for a sales order line
type SalesOrderLineModel struct {
	OrderID uuid.UUID `gorm:"type:uuid;not null;index"`
	LineFields
	Product *ProductModel `gorm:"foreignKey:ProductID"`
}

// TableName returns the table name for GORM
func (SalesOrderLineModel) TableName() string {
	return "sales_order_lines"
}

// ToDomain converts the persistence model to a domain Line
func (m *SalesOrderLineModel) ToDomain() *salestax.Line {
	return m.LineFields.toDomain(m.Product)
}

// InvoiceModel is the persistence model for the Invoice aggregate root.
// The linked order and refunded invoice are loaded by the repository.
type InvoiceModel struct {
	OrganizationAggregateModel
	Type             salestax.InvoiceType  `gorm:"type:varchar(20);not null"`
	State            salestax.InvoiceState `gorm:"type:varchar(20);not null;default:'draft'"`
	Number           string                `gorm:"type:varchar(64);index"`
	SourceDocument   string                `gorm:"type:varchar(255)"`
	CurrencyCode     string                `gorm:"type:varchar(3);not null"`
	InvoiceDate      time.Time             `gorm:"not null"`
	PartnerID        uuid.UUID             `gorm:"type:uuid;not null"`
	Partner          *PartnerModel         `gorm:"foreignKey:PartnerID"`
	OrderID          *uuid.UUID            `gorm:"type:uuid;index"`
	RefundOfID       *uuid.UUID            `gorm:"type:uuid"`
	WarehouseID      *uuid.UUID            `gorm:"type:uuid"`
	Warehouse        *WarehouseModel       `gorm:"foreignKey:WarehouseID"`
	CompanyPartnerID *uuid.UUID            `gorm:"type:uuid"`
	CompanyPartner   *PartnerModel         `gorm:"foreignKey:CompanyPartnerID"`
	ExternalTax      decimal.Decimal       `gorm:"type:decimal(18,4);not null;default:0"`
	Shipping         decimal.Decimal       `gorm:"type:decimal(18,4);not null;default:0"`
	Lines            []InvoiceLineModel    `gorm:"foreignKey:InvoiceID"`
}

// TableName returns the table name for GORM
func (InvoiceModel) TableName() string {
	return "invoices"
}

// ToDomain converts the persistence model to a domain Invoice without its order links
func (m *InvoiceModel) ToDomain() *salestax.Invoice {
	inv := &salestax.Invoice{
		OrganizationAggregateRoot: m.ToDomainAggregateRoot(),
		Type:                      m.Type,
		State:                     m.State,
		Number:                    m.Number,
		SourceDocument:            m.SourceDocument,
		CurrencyCode:              valueobject.Currency(m.CurrencyCode),
		InvoiceDate:               m.InvoiceDate,
		Partner:                   m.Partner.ToDomain(),
		Warehouse:                 m.Warehouse.ToDomain(),
		CompanyPartner:            m.CompanyPartner.ToDomain(),
		ExternalTax:               m.ExternalTax,
		Shipping:                  m.Shipping,
		InvoiceLines:              make([]*salestax.Line, 0, len(m.Lines)),
	}
	for i := range m.Lines {
		inv.InvoiceLines = append(inv.InvoiceLines, m.Lines[i].ToDomain())
	}
	return inv
}

// InvoiceModelFromDomain creates a persistence model from a domain Invoice
func InvoiceModelFromDomain(i *salestax.Invoice) *InvoiceModel {
	m := &InvoiceModel{
		Type:             i.Type,
		State:            i.State,
		Number:           i.Number,
		SourceDocument:   i.SourceDocument,
		CurrencyCode:     i.CurrencyCode.String(),
		InvoiceDate:      i.InvoiceDate,
		WarehouseID:      warehouseID(i.Warehouse),
		CompanyPartnerID: partnerID(i.CompanyPartner),
		ExternalTax:      i.ExternalTax,
		Shipping:         i.Shipping,
	}
	m.FromDomainAggregateRoot(i.OrganizationAggregateRoot)
	if i.Partner != nil {
		m.PartnerID = i.Partner.ID
	}
	if i.Order != nil {
		m.OrderID = &i.Order.ID
	}
	if i.RefundOf != nil {
		m.RefundOfID = &i.RefundOf.ID
	}
	m.Lines = make([]InvoiceLineModel, 0, len(i.InvoiceLines))
	for _, line := range i.InvoiceLines {
		m.Lines = append(m.Lines, InvoiceLineModel{InvoiceID: i.ID, LineFields: lineFieldsFromDomain(line)})
	}
	return m
}

// InvoiceLineModel is the persistence model for an invoice line
type InvoiceLineModel struct {
	InvoiceID uuid.UUID `gorm:"type:uuid;not null;index"`
	LineFields
	Product *ProductModel `gorm:"foreignKey:ProductID"`
}

// TableName returns the table name for GORM
func (InvoiceLineModel) TableName() string {
	return "invoice_lines"
}

// ToDomain converts the persistence model to a domain Line
func (m *InvoiceLineModel) ToDomain() *salestax.Line {
	return m.LineFields.toDomain(m.Product)
}

// LineFields holds the columns shared by order and invoice lines
type LineFields struct {
	ID                uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Sequence          int             `gorm:"not null;default:0"`
	ProductID         *uuid.UUID      `gorm:"type:uuid"`
	Description       string          `gorm:"type:varchar(255)"`
	Quantity          decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitPrice         decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	DiscountPercent   decimal.Decimal `gorm:"type:decimal(7,4);not null;default:0"`
	TaxIDs            []uuid.UUID     `gorm:"type:jsonb;serializer:json"`
	ExternalTaxAmount decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
}

func (f *LineFields) toDomain(product *ProductModel) *salestax.Line {
	return &salestax.Line{
		ID:                f.ID,
		Sequence:          f.Sequence,
		Product:           product.ToDomain(),
		Description:       f.Description,
		Quantity:          f.Quantity,
		UnitPrice:         f.UnitPrice,
		DiscountPercent:   f.DiscountPercent,
		TaxIDs:            f.TaxIDs,
		ExternalTaxAmount: f.ExternalTaxAmount,
	}
}

func lineFieldsFromDomain(l *salestax.Line) LineFields {
	f := LineFields{
		ID:                l.ID,
		Sequence:          l.Sequence,
		Description:       l.Description,
		Quantity:          l.Quantity,
		UnitPrice:         l.UnitPrice,
		DiscountPercent:   l.DiscountPercent,
		TaxIDs:            l.TaxIDs,
		ExternalTaxAmount: l.ExternalTaxAmount,
	}
	if id := l.ProductID(); id != uuid.Nil {
		f.ProductID = &id
	}
	return f
}

func partnerID(p *salestax.Partner) *uuid.UUID {
	if p == nil {
		return nil
	}
	id := p.ID
	return &id
}

func warehouseID(w *salestax.Warehouse) *uuid.UUID {
	if w == nil {
		return nil
	}
	id := w.ID
	return &id
}
