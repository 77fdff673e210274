package salestax

import (
	"github.com/erp/salestax/internal/domain/shared"
	"github.com/erp/salestax/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// Partner is a customer, company or warehouse contact with a postal address
type Partner struct {
	shared.BaseEntity
	OrganizationID  uuid.UUID
	Name            string
	Address         valueobject.Address
	ValidationError bool
}

// NewPartner creates a partner
func NewPartner(organizationID uuid.UUID, name string, address valueobject.Address) *Partner {
	return &Partner{
		BaseEntity:     shared.NewBaseEntity(),
		OrganizationID: organizationID,
		Name:           name,
		Address:        address,
	}
}

// CountryCode returns the partner's country code, or "" for a nil partner
func (p *Partner) CountryCode() string {
	if p == nil {
		return ""
	}
	return p.Address.CountryCode()
}

// HasPostalAddress reports whether the partner carries a usable address
func (p *Partner) HasPostalAddress() bool {
	return p != nil && !p.Address.IsEmpty()
}

// ChangeAddress replaces the address and reports whether it differs from the
// current one. A new address drops the verdict of any earlier validation.
func (p *Partner) ChangeAddress(address valueobject.Address) bool {
	if p.Address == address {
		return false
	}
	p.Address = address
	p.ValidationError = false
	p.Touch()
	return true
}

// ApplyValidatedAddress replaces the address with the service's corrected version
// and clears the validation flag.
func (p *Partner) ApplyValidatedAddress(v ValidatedAddress) {
	p.Address = p.Address.WithCorrection(v.Street, v.City, v.State, v.Zip)
	p.ValidationError = false
	p.Touch()
}

// MarkValidationFailed flags the partner's address as not found by the service
func (p *Partner) MarkValidationFailed() {
	p.ValidationError = true
	p.Touch()
}

// Warehouse is a stock location whose partner acts as origin and pickup address
type Warehouse struct {
	ID      uuid.UUID
	Name    string
	Partner *Partner
}

// PartnerOrNil returns the warehouse partner, tolerating a nil warehouse
func (w *Warehouse) PartnerOrNil() *Partner {
	if w == nil {
		return nil
	}
	return w.Partner
}
