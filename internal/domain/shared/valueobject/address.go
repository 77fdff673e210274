package valueobject

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Address is a postal address value object.
// It is immutable - all With* operations return new Address instances.
type Address struct {
	street      string
	street2     string
	city        string
	stateCode   string
	zip         string
	countryCode string
}

// AddressOption is a functional option for configuring Address
type AddressOption func(*Address)

// WithStreet sets the first street line
func WithStreet(street string) AddressOption {
	return func(a *Address) {
		a.street = strings.TrimSpace(street)
	}
}

// WithStreet2 sets the second street line
func WithStreet2(street2 string) AddressOption {
	return func(a *Address) {
		a.street2 = strings.TrimSpace(street2)
	}
}

// WithCity sets the city
func WithCity(city string) AddressOption {
	return func(a *Address) {
		a.city = strings.TrimSpace(city)
	}
}

// WithState sets the state/province code (e.g. "CA")
func WithState(code string) AddressOption {
	return func(a *Address) {
		a.stateCode = strings.ToUpper(strings.TrimSpace(code))
	}
}

// WithZip sets the postal code
func WithZip(zip string) AddressOption {
	return func(a *Address) {
		a.zip = strings.TrimSpace(zip)
	}
}

// WithCountry sets the ISO 3166-1 alpha-2 country code
func WithCountry(code string) AddressOption {
	return func(a *Address) {
		a.countryCode = strings.ToUpper(strings.TrimSpace(code))
	}
}

// NewAddress builds an address from options. All fields are optional, but a
// country code, when given, must be two letters.
func NewAddress(opts ...AddressOption) (Address, error) {
	var addr Address
	for _, opt := range opts {
		opt(&addr)
	}
	if addr.countryCode != "" && len(addr.countryCode) != 2 {
		return Address{}, fmt.Errorf("country code must be 2 letters, got %q", addr.countryCode)
	}
	if len(addr.stateCode) > 3 {
		return Address{}, fmt.Errorf("state code cannot exceed 3 characters, got %q", addr.stateCode)
	}
	return addr, nil
}

// MustNewAddress creates a new Address, panics on error
func MustNewAddress(opts ...AddressOption) Address {
	addr, err := NewAddress(opts...)
	if err != nil {
		panic(err)
	}
	return addr
}

// Street returns the first street line
func (a Address) Street() string { return a.street }

// Street2 returns the second street line
func (a Address) Street2() string { return a.street2 }

// City returns the city
func (a Address) City() string { return a.city }

// StateCode returns the state code
func (a Address) StateCode() string { return a.stateCode }

// Zip returns the postal code
func (a Address) Zip() string { return a.zip }

// CountryCode returns the country code
func (a Address) CountryCode() string { return a.countryCode }

// IsEmpty returns true if no field is set
func (a Address) IsEmpty() bool {
	return a == Address{}
}

// FullStreet joins both street lines with a single space
func (a Address) FullStreet() string {
	return strings.TrimSpace(strings.Join([]string{a.street, a.street2}, " "))
}

// WithCorrection returns a copy with the validated fields replaced and street2 cleared.
// Empty replacement values keep the current value.
func (a Address) WithCorrection(street, city, stateCode, zip string) Address {
	out := a
	if s := strings.TrimSpace(street); s != "" {
		out.street = s
	}
	if c := strings.TrimSpace(city); c != "" {
		out.city = c
	}
	if st := strings.TrimSpace(stateCode); st != "" {
		out.stateCode = strings.ToUpper(st)
	}
	if z := strings.TrimSpace(zip); z != "" {
		out.zip = z
	}
	out.street2 = ""
	return out
}

// String returns a single-line representation
func (a Address) String() string {
	parts := make([]string, 0, 5)
	for _, p := range []string{a.FullStreet(), a.city, strings.TrimSpace(a.stateCode + " " + a.zip), a.countryCode} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// AddressDTO is the serializable form of Address
type AddressDTO struct {
	Street  string `json:"street,omitempty"`
	Street2 string `json:"street2,omitempty"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	Zip     string `json:"zip,omitempty"`
	Country string `json:"country,omitempty"`
}

// ToDTO converts to the serializable form
func (a Address) ToDTO() AddressDTO {
	return AddressDTO{
		Street:  a.street,
		Street2: a.street2,
		City:    a.city,
		State:   a.stateCode,
		Zip:     a.zip,
		Country: a.countryCode,
	}
}

// ToAddress converts the DTO back into a validated Address
func (d AddressDTO) ToAddress() (Address, error) {
	return NewAddress(
		WithStreet(d.Street),
		WithStreet2(d.Street2),
		WithCity(d.City),
		WithState(d.State),
		WithZip(d.Zip),
		WithCountry(d.Country),
	)
}

// MarshalJSON implements json.Marshaler
func (a Address) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.ToDTO())
}

// UnmarshalJSON implements json.Unmarshaler
func (a *Address) UnmarshalJSON(data []byte) error {
	var dto AddressDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		return err
	}
	addr, err := dto.ToAddress()
	if err != nil {
		return err
	}
	*a = addr
	return nil
}
