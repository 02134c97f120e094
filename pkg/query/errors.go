package query

import (
	"errors"
	"fmt"
)

// ErrInvalidArgument matches every *InvalidArgumentError through errors.Is.
var ErrInvalidArgument = errors.New("invalid argument")

// InvalidArgumentError is returned when query options violate the caller contract.
type InvalidArgumentError struct {
	Field  string
	Value  any
	Reason string
}

// NewInvalidArgumentError creates a new InvalidArgumentError
func NewInvalidArgumentError(field string, value any, reason string) *InvalidArgumentError {
	return &InvalidArgumentError{
		Field:  field,
		Value:  value,
		Reason: reason,
	}
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("invalid %s %v: %s", e.Field, e.Value, e.Reason)
}

// Is lets errors.Is(err, ErrInvalidArgument) match.
func (e *InvalidArgumentError) Is(target error) bool {
	return target == ErrInvalidArgument
}
