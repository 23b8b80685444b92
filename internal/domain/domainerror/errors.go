package domainerror

import (
	"errors"
	"fmt"
)

// Sentinels matched through errors.Is so callers do not need the concrete types.
var (
	ErrValidation = errors.New("validation failed")
	ErrInvariant  = errors.New("domain invariant violated")
)

// ValidationError is returned when a value object or aggregate input is rejected
// at construction time. Reason is safe to show to clients.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// InvariantError is returned when an operation would leave the aggregate in a
// state the domain forbids.
type InvariantError struct {
	Rule string
}

func (e *InvariantError) Error() string {
	return "invariant violated: " + e.Rule
}

func (e *InvariantError) Is(target error) bool { return target == ErrInvariant }

func Validation(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func Invariant(rule string) *InvariantError {
	return &InvariantError{Rule: rule}
}

// FieldOf returns the offending field of a validation error, or "" when err is
// not one.
func FieldOf(err error) string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Field
	}
	return ""
}
