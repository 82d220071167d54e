package core

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a payable document does not exist.
	// Registry and budget lookups never return it: a miss there is an empty result.
	ErrNotFound = errors.New("not found")

	// ErrNotPayable is returned when a settlement targets a cancelled document.
	ErrNotPayable = errors.New("document is not payable")
)

// InputError is a request the caller must correct and resubmit.
type InputError struct {
	Field   string
	Message string
}

func (e *InputError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func newInputError(field, format string, args ...any) *InputError {
	return &InputError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// NewInputError builds an InputError for adapters that validate their own inputs.
func NewInputError(field, format string, args ...any) error {
	return newInputError(field, format, args...)
}

// IsInputError reports whether err wraps an *InputError.
func IsInputError(err error) bool {
	var ie *InputError
	return errors.As(err, &ie)
}
