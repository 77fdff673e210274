package salestax

import (
	"strings"
	"time"
)

// TransactionDateLayout is the service's YYYY/DD/MM date layout
const TransactionDateLayout = "2006/02/01"

// TransactionID derives the external transaction ID from a document number.
// The service's URL paths cannot carry slashes.
func TransactionID(number string) string {
	return strings.ReplaceAll(number, "/", "_")
}

// FormatTransactionDate renders a document date in the service's layout
func FormatTransactionDate(t time.Time) string {
	return t.Format(TransactionDateLayout)
}
