package salestax

import (
	"slices"
	"strings"
	"time"

	"github.com/erp/salestax/internal/domain/shared"
	"github.com/google/uuid"
)

// DefaultRequestTimeout applies when a configuration does not set one
const DefaultRequestTimeout = 30 * time.Second

// DefaultCountries are covered by a new configuration
var DefaultCountries = []string{"US", "CA"}

// Configuration holds the credentials and feature flags for one external tax account.
// A configuration without an organization is the global default.
type Configuration struct {
	shared.BaseEntity
	OrganizationID     *uuid.UUID
	Name               string
	APIKey             string
	Sandbox            bool
	RequestTimeout     time.Duration
	VerboseLogging     bool
	AddressValidation  bool
	CalculationEnabled bool
	ReportingEnabled   bool
	Countries          []string
	ShippingProductIDs []uuid.UUID
}

// NewConfiguration creates a configuration with the default flags:
// calculation and address validation on, reporting off, US and CA covered.
func NewConfiguration(organizationID *uuid.UUID, apiKey string) (*Configuration, error) {
	cfg := &Configuration{
		BaseEntity:         shared.NewBaseEntity(),
		OrganizationID:     organizationID,
		APIKey:             strings.TrimSpace(apiKey),
		RequestTimeout:     DefaultRequestTimeout,
		AddressValidation:  true,
		CalculationEnabled: true,
		Countries:          slices.Clone(DefaultCountries),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration invariants
func (c *Configuration) Validate() error {
	if c.APIKey == "" {
		return shared.NewDomainError("VALIDATION_ERROR", "API key is required")
	}
	if c.RequestTimeout < 0 {
		return shared.NewDomainError("VALIDATION_ERROR", "request timeout cannot be negative")
	}
	if c.ReportingEnabled && !c.CalculationEnabled {
		return shared.NewDomainError("VALIDATION_ERROR", "tax reporting requires tax calculation to be enabled")
	}
	for _, code := range c.Countries {
		if len(code) != 2 {
			return shared.NewDomainError("VALIDATION_ERROR", "country codes must be ISO 3166-1 alpha-2: "+code)
		}
	}
	return nil
}

// SetCalculationEnabled toggles calculation. Disabling it also disables reporting.
func (c *Configuration) SetCalculationEnabled(enabled bool) {
	c.CalculationEnabled = enabled
	if !enabled {
		c.ReportingEnabled = false
	}
	c.Touch()
}

// SetReportingEnabled toggles reporting. Enabling it also enables calculation.
func (c *Configuration) SetReportingEnabled(enabled bool) {
	c.ReportingEnabled = enabled
	if enabled {
		c.CalculationEnabled = true
	}
	c.Touch()
}

// SetSandbox switches environments. The sandbox cannot validate addresses, so
// enabling it turns address validation off. It reports whether that happened.
func (c *Configuration) SetSandbox(sandbox bool) (addressValidationDisabled bool) {
	c.Sandbox = sandbox
	if sandbox && c.AddressValidation {
		c.AddressValidation = false
		addressValidationDisabled = true
	}
	c.Touch()
	return addressValidationDisabled
}

// BaseURL picks the endpoint for the configured environment
func (c *Configuration) BaseURL(live, sandbox string) string {
	if c.Sandbox {
		return sandbox
	}
	return live
}

// Timeout returns the request timeout, falling back to the default
func (c *Configuration) Timeout() time.Duration {
	if c.RequestTimeout <= 0 {
		return DefaultRequestTimeout
	}
	return c.RequestTimeout
}

// CoversCountry reports whether documents shipping to the country are under external tax control
func (c *Configuration) CoversCountry(code string) bool {
	if code == "" {
		return false
	}
	code = strings.ToUpper(code)
	return slices.Contains(c.Countries, code)
}

// IsShippingProduct reports whether lines with this product represent shipping cost
func (c *Configuration) IsShippingProduct(productID uuid.UUID) bool {
	return slices.Contains(c.ShippingProductIDs, productID)
}

// IsGlobalDefault reports whether the configuration applies to every organization
func (c *Configuration) IsGlobalDefault() bool {
	return c.OrganizationID == nil
}

// ResolveConfiguration picks the configuration that applies to an organization.
// Only configurations with calculation enabled are considered. An
// organization-specific configuration wins over the global default; among equals
// the input order is kept. Returns nil when nothing applies.
func ResolveConfiguration(organizationID uuid.UUID, configs []*Configuration) *Configuration {
	var fallback *Configuration
	for _, cfg := range configs {
		if cfg == nil || !cfg.CalculationEnabled {
			continue
		}
		switch {
		case cfg.OrganizationID != nil && *cfg.OrganizationID == organizationID:
			return cfg
		case cfg.IsGlobalDefault() && fallback == nil:
			fallback = cfg
		}
	}
	return fallback
}

// ConfigurationChanges is a partial update. Nil fields are left unchanged.
type ConfigurationChanges struct {
	Name               *string
	APIKey             *string
	Sandbox            *bool
	RequestTimeout     *time.Duration
	VerboseLogging     *bool
	AddressValidation  *bool
	CalculationEnabled *bool
	ReportingEnabled   *bool
	Countries          []string
	ShippingProductIDs []uuid.UUID
}

// Apply updates the configuration through its coupled setters and validates
// the result. Asking for reporting without calculation in the same update is
// rejected rather than resolved in either direction. It reports whether
// switching to the sandbox turned address validation off.
func (c *Configuration) Apply(changes ConfigurationChanges) (addressValidationDisabled bool, err error) {
	if changes.CalculationEnabled != nil && changes.ReportingEnabled != nil &&
		*changes.ReportingEnabled && !*changes.CalculationEnabled {
		return false, shared.NewDomainError("VALIDATION_ERROR", "tax reporting requires tax calculation to be enabled")
	}
	if changes.Name != nil {
		c.Name = strings.TrimSpace(*changes.Name)
	}
	if changes.APIKey != nil {
		c.APIKey = strings.TrimSpace(*changes.APIKey)
	}
	if changes.RequestTimeout != nil {
		c.RequestTimeout = *changes.RequestTimeout
	}
	if changes.VerboseLogging != nil {
		c.VerboseLogging = *changes.VerboseLogging
	}
	if changes.AddressValidation != nil {
		c.AddressValidation = *changes.AddressValidation
	}
	if changes.Countries != nil {
		countries := make([]string, 0, len(changes.Countries))
		for _, code := range changes.Countries {
			countries = append(countries, strings.ToUpper(strings.TrimSpace(code)))
		}
		c.Countries = countries
	}
	if changes.ShippingProductIDs != nil {
		c.ShippingProductIDs = slices.Clone(changes.ShippingProductIDs)
	}
	if changes.CalculationEnabled != nil {
		c.SetCalculationEnabled(*changes.CalculationEnabled)
	}
	if changes.ReportingEnabled != nil {
		c.SetReportingEnabled(*changes.ReportingEnabled)
	}
	if changes.Sandbox != nil {
		addressValidationDisabled = c.SetSandbox(*changes.Sandbox)
	} else if c.Sandbox && c.AddressValidation {
		c.AddressValidation = false
		addressValidationDisabled = true
	}
	c.Touch()
	return addressValidationDisabled, c.Validate()
}
