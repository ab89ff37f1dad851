package apperr

import "fmt"

// ValidationError marks a client mistake. The HTTP layer maps it to 400.
type ValidationError struct {
	Message string
	// Field is the offending request field, empty when the error is not tied to one.
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func NewValidation(msg string) *ValidationError {
	return &ValidationError{Message: msg}
}

func NewValidationf(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

func NewValidationWrap(msg string, err error) *ValidationError {
	return &ValidationError{Message: msg, Err: err}
}

// NewFieldValidation reports a problem with a single request field.
func NewFieldValidation(field, msg string) *ValidationError {
	return &ValidationError{Message: msg, Field: field}
}
