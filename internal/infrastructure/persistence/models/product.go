package models

import (
	"github.com/erp/salestax/internal/domain/salestax"
	"github.com/google/uuid"
)

// ProductTaxCodeModel is the persistence model for a service tax category
type ProductTaxCodeModel struct {
	BaseModel
	Code        string `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name        string `gorm:"type:varchar(255);not null"`
	Description string `gorm:"type:text"`
	Active      bool   `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (ProductTaxCodeModel) TableName() string {
	return "product_tax_codes"
}

// ToDomain converts the persistence model to a domain ProductTaxCode
func (m *ProductTaxCodeModel) ToDomain() *salestax.ProductTaxCode {
	if m == nil {
		return nil
	}
	return &salestax.ProductTaxCode{
		BaseEntity:  m.BaseModel.ToDomain(),
		Code:        m.Code,
		Name:        m.Name,
		Description: m.Description,
		Active:      m.Active,
	}
}

// ProductTaxCodeModelFromDomain creates a persistence model from a domain ProductTaxCode
func ProductTaxCodeModelFromDomain(c *salestax.ProductTaxCode) *ProductTaxCodeModel {
	m := &ProductTaxCodeModel{
		Code:        c.Code,
		Name:        c.Name,
		Description: c.Description,
		Active:      c.Active,
	}
	m.FromDomainBaseEntity(c.BaseEntity)
	return m
}

// ProductCategoryModel groups products and can carry a default tax code
type ProductCategoryModel struct {
	ID             uuid.UUID            `gorm:"type:uuid;primaryKey"`
	OrganizationID uuid.UUID            `gorm:"type:uuid;not null;index"`
	Name           string               `gorm:"type:varchar(100);not null"`
	TaxCodeID      *uuid.UUID           `gorm:"type:uuid"`
	TaxCode        *ProductTaxCodeModel `gorm:"foreignKey:TaxCodeID"`
}

// TableName returns the table name for GORM
func (ProductCategoryModel) TableName() string {
	return "product_categories"
}

// ToDomain converts the persistence model to a domain ProductCategory
func (m *ProductCategoryModel) ToDomain() *salestax.ProductCategory {
	if m == nil {
		return nil
	}
	return &salestax.ProductCategory{
		ID:      m.ID,
		Name:    m.Name,
		TaxCode: m.TaxCode.ToDomain(),
	}
}

// ProductModel is a sellable item
type ProductModel struct {
	ID             uuid.UUID             `gorm:"type:uuid;primaryKey"`
	OrganizationID uuid.UUID             `gorm:"type:uuid;not null;index"`
	Name           string                `gorm:"type:varchar(200);not null"`
	DefaultCode    string                `gorm:"type:varchar(50);index"`
	TaxCodeID      *uuid.UUID            `gorm:"type:uuid"`
	TaxCode        *ProductTaxCodeModel  `gorm:"foreignKey:TaxCodeID"`
	CategoryID     *uuid.UUID            `gorm:"type:uuid"`
	Category       *ProductCategoryModel `gorm:"foreignKey:CategoryID"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model to a domain Product
func (m *ProductModel) ToDomain() *salestax.Product {
	if m == nil {
		return nil
	}
	return &salestax.Product{
		ID:          m.ID,
		Name:        m.Name,
		DefaultCode: m.DefaultCode,
		TaxCode:     m.TaxCode.ToDomain(),
		Category:    m.Category.ToDomain(),
	}
}
