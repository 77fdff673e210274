package models

import (
	"time"

	"github.com/erp/salestax/internal/domain/salestax"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ConfigurationModel is the persistence model for an external tax configuration.
// A NULL organization marks the global default.
type ConfigurationModel struct {
	BaseModel
	OrganizationID     *uuid.UUID  `gorm:"type:uuid;index"`
	Name               string      `gorm:"type:varchar(100)"`
	APIKey             string      `gorm:"type:varchar(255);not null"`
	Sandbox            bool        `gorm:"not null;default:false"`
	RequestTimeoutMS   int64       `gorm:"not null;default:30000"`
	VerboseLogging     bool        `gorm:"not null;default:false"`
	AddressValidation  bool        `gorm:"not null;default:true"`
	CalculationEnabled bool        `gorm:"not null;default:true"`
	ReportingEnabled   bool        `gorm:"not null;default:false"`
	Countries          []string    `gorm:"type:jsonb;serializer:json"`
	ShippingProductIDs []uuid.UUID `gorm:"type:jsonb;serializer:json"`
}

// TableName returns the table name for GORM
func (ConfigurationModel) TableName() string {
	return "salestax_configurations"
}

// ToDomain converts the persistence model to a domain Configuration
func (m *ConfigurationModel) ToDomain() *salestax.Configuration {
	return &salestax.Configuration{
		BaseEntity:         m.BaseModel.ToDomain(),
		OrganizationID:     m.OrganizationID,
		Name:               m.Name,
		APIKey:             m.APIKey,
		Sandbox:            m.Sandbox,
		RequestTimeout:     time.Duration(m.RequestTimeoutMS) * time.Millisecond,
		VerboseLogging:     m.VerboseLogging,
		AddressValidation:  m.AddressValidation,
		CalculationEnabled: m.CalculationEnabled,
		ReportingEnabled:   m.ReportingEnabled,
		Countries:          m.Countries,
		ShippingProductIDs: m.ShippingProductIDs,
	}
}

// ConfigurationModelFromDomain creates a persistence model from a domain Configuration
func ConfigurationModelFromDomain(c *salestax.Configuration) *ConfigurationModel {
	m := &ConfigurationModel{
		OrganizationID:     c.OrganizationID,
		Name:               c.Name,
		APIKey:             c.APIKey,
		Sandbox:            c.Sandbox,
		RequestTimeoutMS:   c.RequestTimeout.Milliseconds(),
		VerboseLogging:     c.VerboseLogging,
		AddressValidation:  c.AddressValidation,
		CalculationEnabled: c.CalculationEnabled,
		ReportingEnabled:   c.ReportingEnabled,
		Countries:          c.Countries,
		ShippingProductIDs: c.ShippingProductIDs,
	}
	m.FromDomainBaseEntity(c.BaseEntity)
	return m
}

// TaxModel is the persistence model for a locally recorded tax
type TaxModel struct {
	BaseModel
	OrganizationID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Name           string          `gorm:"type:varchar(100);not null"`
	Amount         decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	PriceInclude   bool            `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (TaxModel) TableName() string {
	return "taxes"
}

// ToDomain converts the persistence model to a domain Tax
func (m *TaxModel) ToDomain() *salestax.Tax {
	return &salestax.Tax{
		ID:             m.ID,
		OrganizationID: m.OrganizationID,
		Name:           m.Name,
		Amount:         m.Amount,
		PriceInclude:   m.PriceInclude,
	}
}
