package salestax

import (
	"fmt"
)

// Address prefixes understood by the service
const (
	PrefixFrom = "from"
	PrefixTo   = "to"
)

// AddressFields is a party address in the service's request vocabulary.
// Nil fields are sent as JSON null.
type AddressFields struct {
	Prefix  string
	Country *string
	Zip     *string
	City    *string
	State   *string
}

// NewAddressFields maps a partner address to the origin ("from") or destination ("to") fields
func NewAddressFields(partner *Partner, prefix string) (AddressFields, error) {
	if prefix != PrefixFrom && prefix != PrefixTo {
		name := ""
		if partner != nil {
			name = partner.Name
		}
		return AddressFields{}, fmt.Errorf("%w: unknown prefix %q when extracting address data from partner %q",
			ErrInvalidAddressPrefix, prefix, name)
	}
	fields := AddressFields{Prefix: prefix}
	if partner == nil {
		return fields, nil
	}
	addr := partner.Address
	fields.Country = optional(addr.CountryCode())
	fields.Zip = optional(addr.Zip())
	fields.City = optional(addr.City())
	fields.State = optional(addr.StateCode())
	return fields, nil
}

// Map returns the fields keyed the way the service names them, e.g. "to_zip"
func (f AddressFields) Map() map[string]*string {
	return map[string]*string{
		f.Prefix + "_country": f.Country,
		f.Prefix + "_zip":     f.Zip,
		f.Prefix + "_city":    f.City,
		f.Prefix + "_state":   f.State,
	}
}

// AddressValidationRequest is the payload for address validation. Empty fields are omitted.
type AddressValidationRequest struct {
	Country string
	State   string
	Zip     string
	City    string
	Street  string
}

// NewAddressValidationRequest builds the validation payload, joining both street lines
func NewAddressValidationRequest(partner *Partner) AddressValidationRequest {
	addr := partner.Address
	return AddressValidationRequest{
		Country: addr.CountryCode(),
		State:   addr.StateCode(),
		Zip:     addr.Zip(),
		City:    addr.City(),
		Street:  addr.FullStreet(),
	}
}

// ValidatedAddress is one candidate returned by address validation
type ValidatedAddress struct {
	Country string
	State   string
	Zip     string
	City    string
	Street  string
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
