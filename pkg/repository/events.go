package repository

import "time"

// EventType names the mutation that produced an Event.
type EventType string

// Event types
const (
	EventCreated EventType = "created"
	EventUpdated EventType = "updated"
	EventDeleted EventType = "deleted"
)

// Event describes one committed mutation. Record is a clone of the record after
// the mutation, or of the removed record for EventDeleted.
type Event[T any] struct {
	Type   EventType
	Entity string
	ID     string
	Record T
	At     time.Time
}

// Subscriber receives store events synchronously, after the mutation is visible.
// A subscriber may read the store but must not block.
type Subscriber[T any] func(Event[T])
