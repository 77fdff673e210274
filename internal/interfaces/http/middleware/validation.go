package middleware

import (
	"errors"
	"net/http"
	"reflect"
	"strings"
	"sync"
	"unicode"

	"github.com/erp/salestax/internal/infrastructure/logger"
	"github.com/erp/salestax/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var setupOnce sync.Once

// SetupValidator registers the custom tags on gin's validator and makes
// field errors carry the JSON, URI or form name. Safe to call repeatedly.
func SetupValidator() {
	setupOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(wireName)
		// registration only fails on an empty tag
		_ = v.RegisterValidation("docnumber", validDocumentNumber)
	})
}

func wireName(field reflect.StructField) string {
	for _, tag := range []string{"json", "uri", "form"} {
		name, _, _ := strings.Cut(field.Tag.Get(tag), ",")
		switch name {
		case "-":
			return ""
		case "":
			continue
		}
		return name
	}
	return field.Name
}

// validDocumentNumber accepts numbers like INV/2026/0001. The number becomes
// the TaxJar transaction ID, so it may not carry surrounding blanks or
// control characters.
func validDocumentNumber(fl validator.FieldLevel) bool {
	number := fl.Field().String()
	if number != strings.TrimSpace(number) {
		return false
	}
	return strings.IndexFunc(number, unicode.IsControl) < 0
}

// HandleValidationError answers 400 for a failed bind. Field errors are
// listed under ERR_VALIDATION, anything else is a malformed request.
func HandleValidationError(c *gin.Context, err error) {
	requestID := logger.GetRequestID(c.Request.Context())

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponseWithRequestID(dto.ErrCodeBadRequest, "Malformed request", requestID))
		return
	}

	details := make([]dto.ValidationDetail, len(fieldErrs))
	for i, fe := range fieldErrs {
		details[i] = dto.ValidationDetail{Field: fe.Field(), Message: describe(fe)}
	}
	c.JSON(http.StatusBadRequest, dto.NewValidationErrorResponse("Request validation failed", requestID, details))
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "uuid":
		return "Invalid UUID format"
	case "docnumber":
		return "Must not have surrounding spaces or control characters"
	case "max":
		if fe.Kind() == reflect.String {
			return "Must be at most " + fe.Param() + " characters"
		}
		return "Must be at most " + fe.Param()
	case "min":
		return "Must be at least " + fe.Param()
	case "len":
		return "Must be exactly " + fe.Param() + " characters"
	case "alpha":
		return "Must contain only letters"
	case "oneof":
		return "Must be one of: " + fe.Param()
	}
	return "Invalid value"
}
