package dto

// Response is the envelope of every API response
type Response struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorInfo `json:"error,omitempty"`
}

// ErrorInfo describes a failed request
type ErrorInfo struct {
	Code      string             `json:"code"`
	Message   string             `json:"message"`
	RequestID string             `json:"request_id,omitempty"`
	Details   []ValidationDetail `json:"details,omitempty"`
}

// ValidationDetail is one rejected request field
type ValidationDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// NewSuccessResponse creates a success response
func NewSuccessResponse(data any) Response {
	return Response{Success: true, Data: data}
}

// NewErrorResponse creates an error response
func NewErrorResponse(code, message string) Response {
	return Response{
		Success: false,
		Error:   &ErrorInfo{Code: code, Message: message},
	}
}

// NewErrorResponseWithRequestID creates an error response carrying the request ID
func NewErrorResponseWithRequestID(code, message, requestID string) Response {
	resp := NewErrorResponse(code, message)
	resp.Error.RequestID = requestID
	return resp
}

// NewValidationErrorResponse creates a 400 response listing the rejected fields
func NewValidationErrorResponse(message, requestID string, details []ValidationDetail) Response {
	resp := NewErrorResponseWithRequestID(ErrCodeValidation, message, requestID)
	resp.Error.Details = details
	return resp
}

// IDRequest binds the :id path parameter
type IDRequest struct {
	ID string `uri:"id" binding:"required,uuid"`
}

// OpenInvoiceRequest is the optional body of the open invoice call.
// An empty number keeps the invoice's existing one.
type OpenInvoiceRequest struct {
	Number string `json:"number" binding:"omitempty,max=64,docnumber"`
}

// UpdatePartnerAddressRequest replaces a partner's postal address
type UpdatePartnerAddressRequest struct {
	Street  string `json:"street" binding:"max=128"`
	Street2 string `json:"street2" binding:"max=128"`
	City    string `json:"city" binding:"max=64"`
	State   string `json:"state" binding:"omitempty,max=3"`
	Zip     string `json:"zip" binding:"max=16"`
	Country string `json:"country" binding:"omitempty,len=2,alpha"`
}

// UpdateConfigurationRequest changes a tax service configuration. Omitted fields keep their value.
type UpdateConfigurationRequest struct {
	Name               *string  `json:"name" binding:"omitempty,max=128"`
	APIKey             *string  `json:"api_key" binding:"omitempty,max=256"`
	Sandbox            *bool    `json:"sandbox"`
	RequestTimeoutMs   *int64   `json:"request_timeout_ms" binding:"omitempty,min=0,max=600000"`
	VerboseLogging     *bool    `json:"verbose_logging"`
	AddressValidation  *bool    `json:"address_validation"`
	CalculationEnabled *bool    `json:"calculation_enabled"`
	ReportingEnabled   *bool    `json:"reporting_enabled"`
	Countries          []string `json:"countries" binding:"omitempty,dive,len=2,alpha"`
	ShippingProductIDs []string `json:"shipping_product_ids" binding:"omitempty,dive,uuid"`
}

// HealthResponse reports the status of each dependency
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}
