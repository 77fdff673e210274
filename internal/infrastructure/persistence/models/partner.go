package models

import (
	"github.com/erp/salestax/internal/domain/salestax"
	"github.com/erp/salestax/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// PartnerModel is the persistence model for the Partner domain entity.
type PartnerModel struct {
	BaseModel
	OrganizationID  uuid.UUID `gorm:"type:uuid;not null;index"`
	Name            string    `gorm:"type:varchar(200);not null"`
	Street          string    `gorm:"type:varchar(255)"`
	Street2         string    `gorm:"type:varchar(255)"`
	City            string    `gorm:"type:varchar(100)"`
	StateCode       string    `gorm:"type:varchar(3)"`
	Zip             string    `gorm:"type:varchar(20)"`
	CountryCode     string    `gorm:"type:varchar(2)"`
	ValidationError bool      `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (PartnerModel) TableName() string {
	return "partners"
}

// ToDomain converts the persistence model to a domain Partner.
// Malformed stored address parts are dropped rather than failing the load.
func (m *PartnerModel) ToDomain() *salestax.Partner {
	if m == nil {
		return nil
	}
	addr, err := valueobject.NewAddress(
		valueobject.WithStreet(m.Street),
		valueobject.WithStreet2(m.Street2),
		valueobject.WithCity(m.City),
		valueobject.WithState(m.StateCode),
		valueobject.WithZip(m.Zip),
		valueobject.WithCountry(m.CountryCode),
	)
	if err != nil {
		addr = valueobject.MustNewAddress(
			valueobject.WithStreet(m.Street),
			valueobject.WithStreet2(m.Street2),
			valueobject.WithCity(m.City),
			valueobject.WithZip(m.Zip),
		)
	}
	return &salestax.Partner{
		BaseEntity:      m.BaseModel.ToDomain(),
		OrganizationID:  m.OrganizationID,
		Name:            m.Name,
		Address:         addr,
		ValidationError: m.ValidationError,
	}
}

// PartnerModelFromDomain creates a persistence model from a domain Partner
func PartnerModelFromDomain(p *salestax.Partner) *PartnerModel {
	m := &PartnerModel{
		OrganizationID:  p.OrganizationID,
		Name:            p.Name,
		Street:          p.Address.Street(),
		Street2:         p.Address.Street2(),
		City:            p.Address.City(),
		StateCode:       p.Address.StateCode(),
		Zip:             p.Address.Zip(),
		CountryCode:     p.Address.CountryCode(),
		ValidationError: p.ValidationError,
	}
	m.FromDomainBaseEntity(p.BaseEntity)
	return m
}

// WarehouseModel is a stock location. Its partner acts as origin and pickup address.
type WarehouseModel struct {
	ID             uuid.UUID     `gorm:"type:uuid;primaryKey"`
	OrganizationID uuid.UUID     `gorm:"type:uuid;not null;index"`
	Name           string        `gorm:"type:varchar(100);not null"`
	PartnerID      *uuid.UUID    `gorm:"type:uuid"`
	Partner        *PartnerModel `gorm:"foreignKey:PartnerID"`
}

// TableName returns the table name for GORM
func (WarehouseModel) TableName() string {
	return "warehouses"
}

// ToDomain converts the persistence model to a domain Warehouse
func (m *WarehouseModel) ToDomain() *salestax.Warehouse {
	if m == nil {
		return nil
	}
	return &salestax.Warehouse{
		ID:      m.ID,
		Name:    m.Name,
		Partner: m.Partner.ToDomain(),
	}
}
