package salestax

import (
	"errors"
	"fmt"

	"github.com/erp/salestax/internal/domain/shared"
)

// Sales tax errors
var (
	ErrInvalidAddressPrefix = shared.NewDomainError("INVALID_ADDRESS_PREFIX",
		"address prefix must be either \"from\" or \"to\"")
	ErrEmptyTransaction = shared.NewDomainError("EMPTY_TRANSACTION",
		"an order without any lines cannot be created in the tax service")
	ErrNoShippingLines = shared.NewDomainError("NO_SHIPPING_LINES",
		"the tax service returned shipping tax but the document has no shipping lines")
	ErrUnknownLineItem = shared.NewDomainError("UNKNOWN_LINE_ITEM",
		"the tax service returned a line item that is not on the document")
	ErrPlaceholderTaxHasAmount = shared.NewDomainError("PLACEHOLDER_TAX_MISCONFIGURED",
		"a tax amount is configured on the placeholder tax; amounts are fetched externally")
	ErrPlaceholderTaxPriceIncluded = shared.NewDomainError("PLACEHOLDER_TAX_MISCONFIGURED",
		"the placeholder tax is configured as included in the sales price; this is not supported")
	ErrAddressNotFound = shared.NewDomainError("ADDRESS_NOT_FOUND",
		"the address could not be validated")
	ErrDocumentNotFound = shared.NewDomainError("NOT_FOUND", "document not found")
	ErrPartnerNotFound  = shared.NewDomainError("NOT_FOUND", "partner not found")
	ErrConfigNotFound   = shared.NewDomainError("NOT_FOUND", "tax configuration not found")
)

// AdditionalTaxesCode is the error code raised when native taxes are mixed in
const AdditionalTaxesCode = "ADDITIONAL_TAXES"

// NewAdditionalTaxesError reports native taxes on a document under external tax control
func NewAdditionalTaxesError(documentName string) *shared.DomainError {
	return shared.NewDomainError(AdditionalTaxesCode, fmt.Sprintf(
		"taxes on %s are fetched from the tax service; additional taxes are not supported, "+
			"please remove them from the lines", documentName))
}

// NewDocumentNotFinalizedError reports a commit for a document in the wrong state
func NewDocumentNotFinalizedError(documentName, state string) *shared.DomainError {
	return shared.NewDomainError("INVALID_STATE", fmt.Sprintf(
		"cannot commit %s to the tax service: it is not in a finalized state (%s)", documentName, state))
}

// GatewayError is a failed call to the tax service. Its message is safe to show to users.
type GatewayError struct {
	Method     string
	StatusCode int
	Status     string
	Reason     string
	Err        error
}

// Error implements the error interface
func (e *GatewayError) Error() string {
	status := e.Status
	if status == "" && e.Err != nil {
		status = e.Err.Error()
	}
	return fmt.Sprintf("error on %s(): %s. Reason: %s", e.Method, status, e.Reason)
}

// Unwrap returns the transport error, if any
func (e *GatewayError) Unwrap() error {
	return e.Err
}

// IsGatewayError reports whether err is a classified tax service failure
func IsGatewayError(err error) bool {
	var gwErr *GatewayError
	return errors.As(err, &gwErr)
}
