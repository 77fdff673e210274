package salestax

import (
	"strings"

	"github.com/erp/salestax/internal/domain/shared"
	"github.com/google/uuid"
)

// ProductTaxCode tags products with the service's tax category
type ProductTaxCode struct {
	shared.BaseEntity
	Code        string
	Name        string
	Description string
	Active      bool
}

// NewProductTaxCode creates an active tax code
func NewProductTaxCode(code, name, description string) (*ProductTaxCode, error) {
	code = strings.TrimSpace(code)
	name = strings.TrimSpace(name)
	if code == "" {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "product tax code cannot be empty")
	}
	if name == "" {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "product tax code name cannot be empty")
	}
	return &ProductTaxCode{
		BaseEntity:  shared.NewBaseEntity(),
		Code:        code,
		Name:        name,
		Description: description,
		Active:      true,
	}, nil
}

// Rename updates the display fields, keeping the code
func (c *ProductTaxCode) Rename(name, description string) {
	c.Name = name
	c.Description = description
	c.Touch()
}

// ProductCategory groups products and can carry a default tax code
type ProductCategory struct {
	ID      uuid.UUID
	Name    string
	TaxCode *ProductTaxCode
}

// Product is a sellable item
type Product struct {
	ID          uuid.UUID
	Name        string
	DefaultCode string
	TaxCode     *ProductTaxCode
	Category    *ProductCategory
}

// ResolveTaxCode returns the product's tax code, falling back to its category's,
// or "" when neither is set.
func (p *Product) ResolveTaxCode() string {
	if p == nil {
		return ""
	}
	if p.TaxCode != nil && p.TaxCode.Code != "" {
		return p.TaxCode.Code
	}
	if p.Category != nil && p.Category.TaxCode != nil {
		return p.Category.TaxCode.Code
	}
	return ""
}
