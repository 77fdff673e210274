package dto

import "net/http"

// Error codes returned in ErrorInfo.Code. Format: ERR_<DESCRIPTION>
const (
	ErrCodeInternal   = "ERR_INTERNAL"
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	ErrCodeValidation = "ERR_VALIDATION"
	ErrCodeNotFound   = "ERR_NOT_FOUND"
	ErrCodeConflict   = "ERR_CONFLICT"

	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	ErrCodeForbidden    = "ERR_FORBIDDEN"

	ErrCodeInvalidState  = "ERR_INVALID_STATE"
	ErrCodeBusinessRule  = "ERR_BUSINESS_RULE"
	ErrCodeRateLimited   = "ERR_RATE_LIMITED"
	ErrCodeTooLarge      = "ERR_REQUEST_TOO_LARGE"
	ErrCodeUnavailable   = "ERR_SERVICE_UNAVAILABLE"
	ErrCodeTaxService    = "ERR_TAX_SERVICE"
	ErrCodeTaxConfig     = "ERR_TAX_CONFIGURATION"
	ErrCodeAdditionalTax = "ERR_ADDITIONAL_TAXES"
	ErrCodeAddressLookup = "ERR_ADDRESS_NOT_FOUND"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:      http.StatusInternalServerError,
	ErrCodeBadRequest:    http.StatusBadRequest,
	ErrCodeValidation:    http.StatusBadRequest,
	ErrCodeNotFound:      http.StatusNotFound,
	ErrCodeConflict:      http.StatusConflict,
	ErrCodeUnauthorized:  http.StatusUnauthorized,
	ErrCodeForbidden:     http.StatusForbidden,
	ErrCodeInvalidState:  http.StatusUnprocessableEntity,
	ErrCodeBusinessRule:  http.StatusUnprocessableEntity,
	ErrCodeRateLimited:   http.StatusTooManyRequests,
	ErrCodeTooLarge:      http.StatusRequestEntityTooLarge,
	ErrCodeUnavailable:   http.StatusServiceUnavailable,
	ErrCodeTaxService:    http.StatusBadGateway,
	ErrCodeTaxConfig:     http.StatusUnprocessableEntity,
	ErrCodeAdditionalTax: http.StatusUnprocessableEntity,
	ErrCodeAddressLookup: http.StatusUnprocessableEntity,
}

// GetHTTPStatus returns the HTTP status for code, 500 when unknown
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DomainErrorCodes maps domain error codes to API codes
var DomainErrorCodes = map[string]string{
	"NOT_FOUND":                     ErrCodeNotFound,
	"ALREADY_EXISTS":                ErrCodeConflict,
	"INVALID_INPUT":                 ErrCodeBadRequest,
	"VALIDATION_ERROR":              ErrCodeValidation,
	"INVALID_STATE":                 ErrCodeInvalidState,
	"NO_ITEMS":                      ErrCodeBusinessRule,
	"INVALID_NUMBER":                ErrCodeValidation,
	"INVALID_NAME":                  ErrCodeValidation,
	"INVALID_TYPE":                  ErrCodeValidation,
	"INVALID_PARTNER":               ErrCodeValidation,
	"EMPTY_TRANSACTION":             ErrCodeBusinessRule,
	"NO_SHIPPING_LINES":             ErrCodeBusinessRule,
	"UNKNOWN_LINE_ITEM":             ErrCodeTaxService,
	"INVALID_ADDRESS_PREFIX":        ErrCodeInternal,
	"PLACEHOLDER_TAX_MISCONFIGURED": ErrCodeTaxConfig,
	"ADDITIONAL_TAXES":              ErrCodeAdditionalTax,
	"ADDRESS_NOT_FOUND":             ErrCodeAddressLookup,
	"EXTERNAL_SERVICE_ERROR":        ErrCodeTaxService,
	"RATE_NOT_FOUND":                ErrCodeTaxConfig,
}

// NormalizeErrorCode converts a domain error code to its API code. Unknown codes pass through.
func NormalizeErrorCode(code string) string {
	if apiCode, ok := DomainErrorCodes[code]; ok {
		return apiCode
	}
	return code
}
