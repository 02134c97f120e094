package repository

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound matches every *NotFoundError through errors.Is.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateID matches every *DuplicateIDError through errors.Is.
	ErrDuplicateID = errors.New("duplicate record id")
	// ErrConflict matches every *ConflictError through errors.Is.
	ErrConflict = errors.New("conflict")
)

// NotFoundError is returned when an operation targets an ID the store does not hold.
type NotFoundError struct {
	Entity string
	ID     string
}

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(entity, id string) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: id}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// Is lets errors.Is(err, ErrNotFound) match.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// DuplicateIDError is returned when Add receives a record whose ID is already stored.
type DuplicateIDError struct {
	Entity string
	ID     string
}

// NewDuplicateIDError creates a new DuplicateIDError
func NewDuplicateIDError(entity, id string) *DuplicateIDError {
	return &DuplicateIDError{Entity: entity, ID: id}
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("%s %s already exists", e.Entity, e.ID)
}

// Is lets errors.Is(err, ErrDuplicateID) match.
func (e *DuplicateIDError) Is(target error) bool {
	return target == ErrDuplicateID
}

// ConflictError reports a mutation refused because of the state of other records,
// for example a unique field already in use.
type ConflictError struct {
	Entity string
	Field  string
	Value  any
	Reason string
}

// NewConflictError creates a new ConflictError
func NewConflictError(entity, field string, value any, reason string) *ConflictError {
	return &ConflictError{Entity: entity, Field: field, Value: value, Reason: reason}
}

func (e *ConflictError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s conflict: %s", e.Entity, e.Reason)
	}
	return fmt.Sprintf("%s conflict on %s %v: %s", e.Entity, e.Field, e.Value, e.Reason)
}

// Is lets errors.Is(err, ErrConflict) match.
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}
