package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/btree"
	"github.com/google/uuid"
)

const btreeDegree = 16

// entry is one record in the insertion-order index.
type entry[T any] struct {
	seq uint64
	rec T
}

func lessEntry[T any](a, b entry[T]) bool {
	return a.seq < b.seq
}

// Option configures a MemoryStore.
type Option func(*storeOptions)

type storeOptions struct {
	clock func() time.Time
	newID func() string
}

// WithClock replaces time.Now as the store's time source.
func WithClock(clock func() time.Time) Option {
	return func(o *storeOptions) {
		o.clock = clock
	}
}

// WithIDGenerator replaces uuid.NewString for records added without an ID.
func WithIDGenerator(newID func() string) Option {
	return func(o *storeOptions) {
		o.newID = newID
	}
}

// MemoryStore is an in-memory Repository keyed by record ID. Snapshots are
// returned in insertion order. It is safe for concurrent use.
type MemoryStore[T Record[T]] struct {
	entity string
	opts   storeOptions

	mu      sync.RWMutex
	order   *btree.BTreeG[entry[T]]
	seqByID map[string]uint64
	nextSeq uint64

	subMu       sync.RWMutex
	subscribers []Subscriber[T]
}

// NewMemoryStore creates an empty store for the named entity.
func NewMemoryStore[T Record[T]](entity string, opts ...Option) *MemoryStore[T] {
	o := storeOptions{
		clock: time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &MemoryStore[T]{
		entity:  entity,
		opts:    o,
		order:   btree.NewG(btreeDegree, lessEntry[T]),
		seqByID: make(map[string]uint64),
	}
}

// Entity returns the entity name used in errors and events.
func (s *MemoryStore[T]) Entity() string {
	return s.entity
}

// Subscribe registers fn for every subsequent mutation.
func (s *MemoryStore[T]) Subscribe(fn Subscriber[T]) {
	if fn == nil {
		return
	}
	s.subMu.Lock()
	defer s.subMu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

// Add stores a copy of rec. An empty ID is replaced by a generated one and zero
// timestamps are set to now. Adding an ID that is already stored returns a
// *DuplicateIDError and leaves the store unchanged.
func (s *MemoryStore[T]) Add(ctx context.Context, rec T) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	stored := rec.Clone()
	base := stored.GetBase()

	s.mu.Lock()
	if base.ID == "" {
		base.ID = s.opts.newID()
	}
	if _, exists := s.seqByID[base.ID]; exists {
		s.mu.Unlock()
		return zero, NewDuplicateIDError(s.entity, base.ID)
	}
	now := s.opts.clock()
	if base.CreatedAt.IsZero() {
		base.CreatedAt = now
	}
	if base.UpdatedAt.IsZero() {
		base.UpdatedAt = now
	}
	s.nextSeq++
	s.seqByID[base.ID] = s.nextSeq
	s.order.ReplaceOrInsert(entry[T]{seq: s.nextSeq, rec: stored})
	out := stored.Clone()
	s.mu.Unlock()

	s.publish(EventCreated, base.ID, out, now)
	return out.Clone(), nil
}

// GetByID returns a copy of the record with id. Absence is reported through the
// boolean, not an error.
func (s *MemoryStore[T]) GetByID(ctx context.Context, id string) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.lookup(id)
	if !ok {
		var zero T
		return zero, false
	}
	return e.rec.Clone(), true
}

// Exists reports whether a record with id is stored.
func (s *MemoryStore[T]) Exists(ctx context.Context, id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.seqByID[id]
	return ok
}

// Update applies patch to a copy of the stored record and replaces it. The patch
// may not change the ID or CreatedAt; UpdatedAt is always moved forward. If patch
// returns an error the store is unchanged and that error is returned.
//
// patch runs while the store is locked and must not call back into the store.
func (s *MemoryStore[T]) Update(ctx context.Context, id string, patch func(T) error) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	s.mu.Lock()
	e, ok := s.lookup(id)
	if !ok {
		s.mu.Unlock()
		return zero, NewNotFoundError(s.entity, id)
	}

	prev := *e.rec.GetBase()
	next := e.rec.Clone()
	if patch != nil {
		if err := patch(next); err != nil {
			s.mu.Unlock()
			return zero, err
		}
	}

	base := next.GetBase()
	base.ID = prev.ID
	base.CreatedAt = prev.CreatedAt
	now := s.opts.clock()
	if !now.After(prev.UpdatedAt) {
		now = prev.UpdatedAt.Add(time.Nanosecond)
	}
	base.UpdatedAt = now

	s.order.ReplaceOrInsert(entry[T]{seq: e.seq, rec: next})
	out := next.Clone()
	s.mu.Unlock()

	s.publish(EventUpdated, id, out, now)
	return out.Clone(), nil
}

// Remove deletes the record with id and returns it. Related records in other
// stores are left alone.
func (s *MemoryStore[T]) Remove(ctx context.Context, id string) (T, error) {
	return s.RemoveIf(ctx, id, nil)
}

// RemoveIf deletes the record with id when check accepts it. A check error
// leaves the store unchanged and is returned as is. The check and the removal
// happen under one lock.
func (s *MemoryStore[T]) RemoveIf(ctx context.Context, id string, check func(T) error) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	s.mu.Lock()
	e, ok := s.lookup(id)
	if !ok {
		s.mu.Unlock()
		return zero, NewNotFoundError(s.entity, id)
	}
	if check != nil {
		if err := check(e.rec.Clone()); err != nil {
			s.mu.Unlock()
			return zero, err
		}
	}
	s.order.Delete(e)
	delete(s.seqByID, id)
	s.mu.Unlock()

	s.publish(EventDeleted, id, e.rec.Clone(), s.opts.clock())
	return e.rec, nil
}

// RemoveFunc deletes every record match accepts in one atomic step and returns
// them in insertion order.
func (s *MemoryStore[T]) RemoveFunc(ctx context.Context, match func(T) bool) []T {
	s.mu.Lock()
	var victims []entry[T]
	s.order.Ascend(func(e entry[T]) bool {
		if match(e.rec) {
			victims = append(victims, e)
		}
		return true
	})
	for _, e := range victims {
		s.order.Delete(e)
		delete(s.seqByID, e.rec.GetBase().ID)
	}
	s.mu.Unlock()

	now := s.opts.clock()
	removed := make([]T, 0, len(victims))
	for _, e := range victims {
		s.publish(EventDeleted, e.rec.GetBase().ID, e.rec.Clone(), now)
		removed = append(removed, e.rec)
	}
	return removed
}

// Snapshot returns copies of every record in insertion order.
func (s *MemoryStore[T]) Snapshot(ctx context.Context) []T {
	return s.Find(ctx, nil)
}

// Find returns copies of the records match accepts, in insertion order.
// A nil match accepts every record.
func (s *MemoryStore[T]) Find(ctx context.Context, match func(T) bool) []T {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]T, 0, s.order.Len())
	s.order.Ascend(func(e entry[T]) bool {
		if match == nil || match(e.rec) {
			out = append(out, e.rec.Clone())
		}
		return true
	})
	return out
}

// Count returns how many records match accepts. A nil match counts every record.
func (s *MemoryStore[T]) Count(ctx context.Context, match func(T) bool) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if match == nil {
		return s.order.Len()
	}
	n := 0
	s.order.Ascend(func(e entry[T]) bool {
		if match(e.rec) {
			n++
		}
		return true
	})
	return n
}

// Len returns the number of stored records.
func (s *MemoryStore[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.order.Len()
}

// lookup must be called with mu held.
func (s *MemoryStore[T]) lookup(id string) (entry[T], bool) {
	seq, ok := s.seqByID[id]
	if !ok {
		return entry[T]{}, false
	}
	return s.order.Get(entry[T]{seq: seq})
}

func (s *MemoryStore[T]) publish(kind EventType, id string, rec T, at time.Time) {
	s.subMu.RLock()
	subs := append([]Subscriber[T](nil), s.subscribers...)
	s.subMu.RUnlock()

	for _, fn := range subs {
		fn(Event[T]{Type: kind, Entity: s.entity, ID: id, Record: rec.Clone(), At: at})
	}
}
