package requeststate

import (
	"context"
	"sync"

	"github.com/nimburion/tutoradmin/pkg/query"
)

// Loader fetches one page for the given options.
type Loader[T any] func(ctx context.Context, opts query.Options) (query.Page[T], error)

// ListView is the caller-side state of a paginated list: the cursor being
// browsed and the last page accepted for it. Results overtaken by a newer
// Refresh never replace the page.
type ListView[T any] struct {
	key     string
	load    Loader[T]
	tracker *Tracker

	mu      sync.Mutex
	cursor  *query.Cursor
	page    query.Page[T]
	lastErr error
	applied uint64
}

// NewListView creates a view that loads through load and records its lifecycle
// in tracker under key.
func NewListView[T any](key string, tracker *Tracker, cursor *query.Cursor, load Loader[T]) *ListView[T] {
	return &ListView[T]{
		key:     key,
		load:    load,
		tracker: tracker,
		cursor:  cursor,
	}
}

// Update changes the cursor under the view's lock, for example
// v.Update(func(c *query.Cursor) { c.SetSearch("unable") }).
func (v *ListView[T]) Update(change func(c *query.Cursor)) {
	v.mu.Lock()
	defer v.mu.Unlock()
	change(v.cursor)
}

// Options returns the options the next Refresh will load.
func (v *ListView[T]) Options() query.Options {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.cursor.Options()
}

// Refresh loads the page for the current cursor. A superseded call returns
// ErrSuperseded and leaves the view unchanged.
func (v *ListView[T]) Refresh(ctx context.Context) (query.Page[T], error) {
	opts := v.Options()

	callCtx, ticket := v.tracker.BeginContext(ctx, v.key)
	page, err := v.load(callCtx, opts)
	if !v.tracker.Complete(ticket, err) {
		return query.Page[T]{}, ErrSuperseded
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	// A newer call may have completed between Complete and here.
	if ticket.Seq < v.applied {
		return query.Page[T]{}, ErrSuperseded
	}
	v.applied = ticket.Seq
	v.lastErr = err
	if err == nil {
		v.page = page
	}
	return page, err
}

// Page returns the last accepted page.
func (v *ListView[T]) Page() query.Page[T] {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.page
}

// Err returns the error of the last accepted call, if it failed.
func (v *ListView[T]) Err() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.lastErr
}

// Status returns the lifecycle status of the view's key.
func (v *ListView[T]) Status() Status {
	return v.tracker.State(v.key)
}
