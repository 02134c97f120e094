// Package repository holds the generic in-memory record store every admin domain
// keeps its collection in, together with the error taxonomy for store operations.
package repository

import (
	"context"
	"time"
)

// BaseModel carries the fields every stored record has.
type BaseModel struct {
	ID        string    `json:"id" yaml:"id"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

// GetBase returns the embedded base fields so the store can manage them.
func (b *BaseModel) GetBase() *BaseModel {
	return b
}

// Record is implemented by the pointer types kept in a store. Clone must return a
// deep copy; the store hands out clones only, so callers never alias its state.
type Record[T any] interface {
	GetBase() *BaseModel
	Clone() T
}

// Reader provides read operations for records
type Reader[T any] interface {
	GetByID(ctx context.Context, id string) (T, bool)
	Exists(ctx context.Context, id string) bool
	Snapshot(ctx context.Context) []T
	Find(ctx context.Context, match func(T) bool) []T
	Count(ctx context.Context, match func(T) bool) int
	Len() int
}

// Writer provides write operations for records
type Writer[T any] interface {
	Add(ctx context.Context, rec T) (T, error)
	Update(ctx context.Context, id string, patch func(T) error) (T, error)
	Remove(ctx context.Context, id string) (T, error)
	RemoveIf(ctx context.Context, id string, check func(T) error) (T, error)
	RemoveFunc(ctx context.Context, match func(T) bool) []T
}

// Repository combines Reader and Writer for complete CRUD over one collection.
type Repository[T any] interface {
	Reader[T]
	Writer[T]
	Subscribe(fn Subscriber[T])
	Entity() string
}
