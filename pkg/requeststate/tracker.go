// Package requeststate tracks the lifecycle of asynchronous operations per
// operation key and rejects results that were overtaken by a newer call.
//
// Each key moves idle -> in_flight -> success | failure. Every Begin hands out
// a ticket carrying a per-key sequence number; only the ticket with the latest
// sequence number may complete the key. Older tickets are stale and their
// results are dropped.
//
// Track records calls from independent callers that share a key. Tracked
// calls never supersede each other and never count as stale.
package requeststate

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

// State is the lifecycle state of one operation key.
type State string

// Lifecycle states
const (
	StateIdle     State = "idle"
	StateInFlight State = "in_flight"
	StateSuccess  State = "success"
	StateFailure  State = "failure"
)

// ErrSuperseded is returned by Do when a newer call for the same key started
// before this one finished.
var ErrSuperseded = errors.New("request superseded by a newer call")

// Ticket identifies one call for an operation key.
type Ticket struct {
	Key string
	Seq uint64
}

// Status is the observable state of an operation key.
type Status struct {
	Key       string    `json:"key"`
	State     State     `json:"state"`
	Seq       uint64    `json:"seq"`
	Error     string    `json:"error,omitempty"`
	Stale     uint64    `json:"stale_results"`
	InFlight  int       `json:"in_flight"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Observer is notified of transitions and stale rejections.
type Observer interface {
	Transition(operation, state string)
	Stale(operation string)
}

type slot struct {
	status Status
	cancel context.CancelFunc
	active int
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithObserver reports transitions to o.
func WithObserver(o Observer) Option {
	return func(t *Tracker) {
		t.observer = o
	}
}

// WithClock replaces time.Now.
func WithClock(clock func() time.Time) Option {
	return func(t *Tracker) {
		t.clock = clock
	}
}

// Tracker holds the lifecycle state of every operation key it has seen.
// It is safe for concurrent use.
type Tracker struct {
	mu       sync.Mutex
	slots    map[string]*slot
	observer Observer
	clock    func() time.Time
}

// NewTracker creates an empty tracker.
func NewTracker(opts ...Option) *Tracker {
	t := &Tracker{
		slots: make(map[string]*slot),
		clock: time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Begin moves key to in_flight and returns the ticket that may complete it.
// Any earlier ticket for key becomes stale.
func (t *Tracker) Begin(key string) Ticket {
	_, ticket := t.begin(context.Background(), key, false)
	return ticket
}

// BeginContext is Begin for cancellable work: it returns a context derived from
// ctx that is cancelled when a newer call for key begins, so superseded work can
// stop early.
func (t *Tracker) BeginContext(ctx context.Context, key string) (context.Context, Ticket) {
	return t.begin(ctx, key, true)
}

func (t *Tracker) begin(ctx context.Context, key string, cancellable bool) (context.Context, Ticket) {
	t.mu.Lock()
	s := t.slotLocked(key)
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.status.Seq++
	s.status.State = StateInFlight
	s.status.Error = ""
	s.status.UpdatedAt = t.clock()
	ticket := Ticket{Key: key, Seq: s.status.Seq}

	if cancellable {
		var cancel context.CancelFunc
		ctx, cancel = context.WithCancel(ctx)
		s.cancel = cancel
	}
	t.mu.Unlock()

	t.notifyTransition(key, StateInFlight)
	return ctx, ticket
}

// Complete records the outcome of ticket. It returns false, leaving the key
// untouched, when ticket is stale.
func (t *Tracker) Complete(ticket Ticket, err error) bool {
	t.mu.Lock()
	s, ok := t.slots[ticket.Key]
	if !ok || s.status.Seq != ticket.Seq || s.status.State != StateInFlight {
		if ok {
			s.status.Stale++
		}
		t.mu.Unlock()
		if t.observer != nil {
			t.observer.Stale(ticket.Key)
		}
		return false
	}

	state := StateSuccess
	s.status.Error = ""
	if err != nil {
		state = StateFailure
		s.status.Error = err.Error()
	}
	s.status.State = state
	s.status.UpdatedAt = t.clock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	t.mu.Unlock()

	t.notifyTransition(ticket.Key, state)
	return true
}

// Track records the start of one independent call for key and returns the
// function that records its outcome. The key stays in_flight while any tracked
// call runs and takes the outcome of the last one to finish. Calling the
// returned function more than once has no effect.
func (t *Tracker) Track(key string) func(err error) {
	t.mu.Lock()
	s := t.slotLocked(key)
	s.active++
	s.status.InFlight = s.active
	s.status.State = StateInFlight
	s.status.Error = ""
	s.status.UpdatedAt = t.clock()
	t.mu.Unlock()
	t.notifyTransition(key, StateInFlight)

	var once sync.Once
	return func(err error) {
		once.Do(func() { t.finishTracked(key, err) })
	}
}

func (t *Tracker) finishTracked(key string, err error) {
	t.mu.Lock()
	s := t.slotLocked(key)
	if s.active > 0 {
		s.active--
	}
	s.status.InFlight = s.active
	s.status.UpdatedAt = t.clock()
	if s.active > 0 {
		t.mu.Unlock()
		return
	}

	state := StateSuccess
	s.status.Error = ""
	if err != nil {
		state = StateFailure
		s.status.Error = err.Error()
	}
	s.status.State = state
	t.mu.Unlock()

	t.notifyTransition(key, state)
}

// IsCurrent reports whether ticket is still the latest call for its key.
func (t *Tracker) IsCurrent(ticket Ticket) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.slots[ticket.Key]
	return ok && s.status.Seq == ticket.Seq
}

// State returns the status of key. Keys never begun are idle.
func (t *Tracker) State(key string) Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	if s, ok := t.slots[key]; ok {
		return s.status
	}
	return Status{Key: key, State: StateIdle}
}

// Snapshot returns the status of every known key, sorted by key.
func (t *Tracker) Snapshot() []Status {
	t.mu.Lock()
	out := make([]Status, 0, len(t.slots))
	for _, s := range t.slots {
		out = append(out, s.status)
	}
	t.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Reset returns key to idle, cancelling any in-flight call.
func (t *Tracker) Reset(key string) {
	t.mu.Lock()
	s, ok := t.slots[key]
	if ok {
		if s.cancel != nil {
			s.cancel()
			s.cancel = nil
		}
		s.status.State = StateIdle
		s.status.Error = ""
		s.status.UpdatedAt = t.clock()
	}
	t.mu.Unlock()

	if ok {
		t.notifyTransition(key, StateIdle)
	}
}

func (t *Tracker) slotLocked(key string) *slot {
	s, ok := t.slots[key]
	if !ok {
		s = &slot{status: Status{Key: key, State: StateIdle}}
		t.slots[key] = s
	}
	return s
}

func (t *Tracker) notifyTransition(key string, state State) {
	if t.observer != nil {
		t.observer.Transition(key, string(state))
	}
}

// Do runs fn as the latest call for key. If another call for key begins before
// fn returns, fn's context is cancelled and Do returns ErrSuperseded instead of
// fn's result.
func Do[T any](ctx context.Context, t *Tracker, key string, fn func(context.Context) (T, error)) (T, error) {
	callCtx, ticket := t.BeginContext(ctx, key)
	v, err := fn(callCtx)
	if !t.Complete(ticket, err) {
		var zero T
		return zero, ErrSuperseded
	}
	return v, err
}
