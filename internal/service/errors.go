package service

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrConfirmationRequired = errors.New("confirmation required")
	ErrDemoUnavailable      = errors.New("demo data is only available while the store is unreachable")
	ErrImageTooLarge        = errors.New("image must not exceed 5MB")
	ErrImageNotImage        = errors.New("file is not an image")
	ErrUnknownFilter        = errors.New("unknown status filter")
	ErrUnknownStatus        = errors.New("unknown order status")
	ErrMissingContact       = errors.New("a discord username or an email is required")
)

// FieldError describes one invalid form field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError is returned when a form is rejected before any store call
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = fmt.Sprintf("%s: %s", f.Field, f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// IsValidationError reports whether err carries field errors
func IsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
