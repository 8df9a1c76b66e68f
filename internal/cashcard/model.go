package cashcard

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// CashCard is a stored amount owned by exactly one user.
type CashCard struct {
	ID     int64
	Amount decimal.Decimal
	Owner  string
}

// ErrNotFound covers both missing records and records owned by someone else.
var ErrNotFound = errors.New("cash card not found")

// ValidationError reports a malformed listing request or write.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
