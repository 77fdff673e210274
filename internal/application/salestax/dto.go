package salestax

import (
	"github.com/erp/salestax/internal/domain/salestax"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LineTaxResult is the external tax stored on one line
type LineTaxResult struct {
	LineID      uuid.UUID       `json:"line_id"`
	Description string          `json:"description"`
	TaxAmount   decimal.Decimal `json:"tax_amount"`
}

// TaxResult describes a document's external tax after an operation
type TaxResult struct {
	DocumentID        uuid.UUID             `json:"document_id"`
	DocumentType      salestax.DocumentType `json:"document_type"`
	Name              string                `json:"name"`
	State             string                `json:"state"`
	Currency          string                `json:"currency"`
	ExternalTaxAmount decimal.Decimal       `json:"external_tax_amount"`
	ShippingAmount    decimal.Decimal       `json:"shipping_amount"`
	Lines             []LineTaxResult       `json:"lines"`
}

// ToTaxResult converts a document to its tax result
func ToTaxResult(doc salestax.Document) *TaxResult {
	result := &TaxResult{
		DocumentID:        doc.DocumentID(),
		DocumentType:      doc.DocumentType(),
		Name:              doc.DisplayName(),
		State:             doc.StateName(),
		Currency:          doc.Currency().String(),
		ExternalTaxAmount: doc.ExternalTaxAmount(),
		ShippingAmount:    doc.ShippingAmount(),
		Lines:             make([]LineTaxResult, 0, len(doc.Lines())),
	}
	for _, line := range doc.Lines() {
		result.Lines = append(result.Lines, LineTaxResult{
			LineID:      line.ID,
			Description: line.Description,
			TaxAmount:   line.ExternalTaxAmount,
		})
	}
	return result
}

// AddressValidationResult reports the outcome of validating a partner address
type AddressValidationResult struct {
	PartnerID       uuid.UUID `json:"partner_id"`
	Validated       bool      `json:"validated"`
	ValidationError bool      `json:"validation_error"`
	SkippedReason   string    `json:"skipped_reason,omitempty"`
	Street          string    `json:"street,omitempty"`
	City            string    `json:"city,omitempty"`
	State           string    `json:"state,omitempty"`
	Zip             string    `json:"zip,omitempty"`
	Country         string    `json:"country,omitempty"`
}

// CategoryImportResult counts the tax codes touched by an import
type CategoryImportResult struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
}

// ConnectionTestResult reports whether the service accepted the credentials
type ConnectionTestResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ConfigurationResult is a configuration as returned by the API. The API key is never included.
type ConfigurationResult struct {
	ID                 uuid.UUID   `json:"id"`
	OrganizationID     *uuid.UUID  `json:"organization_id,omitempty"`
	Name               string      `json:"name"`
	Sandbox            bool        `json:"sandbox"`
	RequestTimeoutMs   int64       `json:"request_timeout_ms"`
	VerboseLogging     bool        `json:"verbose_logging"`
	AddressValidation  bool        `json:"address_validation"`
	CalculationEnabled bool        `json:"calculation_enabled"`
	ReportingEnabled   bool        `json:"reporting_enabled"`
	Countries          []string    `json:"countries"`
	ShippingProductIDs []uuid.UUID `json:"shipping_product_ids"`
	Warnings           []string    `json:"warnings,omitempty"`
}

// ToConfigurationResult converts a configuration to its API form
func ToConfigurationResult(cfg *salestax.Configuration) *ConfigurationResult {
	return &ConfigurationResult{
		ID:                 cfg.ID,
		OrganizationID:     cfg.OrganizationID,
		Name:               cfg.Name,
		Sandbox:            cfg.Sandbox,
		RequestTimeoutMs:   cfg.Timeout().Milliseconds(),
		VerboseLogging:     cfg.VerboseLogging,
		AddressValidation:  cfg.AddressValidation,
		CalculationEnabled: cfg.CalculationEnabled,
		ReportingEnabled:   cfg.ReportingEnabled,
		Countries:          cfg.Countries,
		ShippingProductIDs: cfg.ShippingProductIDs,
	}
}
