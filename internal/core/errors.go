package core

import "errors"

// ValidationError rejects a write intent before anything is sent to a store.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError returns a *ValidationError for field.
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// IsValidation reports whether err is or wraps a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

var (
	ErrTypeRequired        = NewValidationError("type", "type required")
	ErrTitleAndDateMissing = NewValidationError("title", "title and date required")
	ErrNameRequired        = NewValidationError("name", "name required")
	ErrTitleRequired       = NewValidationError("title", "title required")
)
