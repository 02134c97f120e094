// Package service holds the plumbing shared by the domain services: simulated
// backend latency, request lifecycle tracking, spans, metrics and logging
// around every query and mutation.
package service

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/nimburion/tutoradmin/pkg/observability/logger"
	"github.com/nimburion/tutoradmin/pkg/observability/metrics"
	"github.com/nimburion/tutoradmin/pkg/observability/tracing"
	"github.com/nimburion/tutoradmin/pkg/query"
	"github.com/nimburion/tutoradmin/pkg/requeststate"
)

// Default pagination bounds used when Deps leaves them unset.
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Deps are the collaborators every domain service is built from.
type Deps struct {
	Logger          logger.Logger
	Tracker         *requeststate.Tracker
	Metrics         metrics.DomainRecorder
	Latency         time.Duration
	Clock           func() time.Time
	DefaultPageSize int
	MaxPageSize     int
}

func (d Deps) withDefaults() Deps {
	if d.Logger == nil {
		d.Logger = logger.NewNop()
	}
	if d.Tracker == nil {
		d.Tracker = requeststate.NewTracker()
	}
	if d.Metrics == nil {
		d.Metrics = metrics.NopRecorder{}
	}
	if d.Clock == nil {
		d.Clock = time.Now
	}
	if d.Latency < 0 {
		d.Latency = 0
	}
	if d.DefaultPageSize <= 0 {
		d.DefaultPageSize = DefaultPageSize
	}
	if d.MaxPageSize <= 0 {
		d.MaxPageSize = MaxPageSize
	}
	if d.DefaultPageSize > d.MaxPageSize {
		d.DefaultPageSize = d.MaxPageSize
	}
	return d
}

// Base is embedded by domain services. Entity names the collection in logs,
// spans, metrics and request keys.
type Base struct {
	entity string
	deps   Deps
	log    logger.Logger
}

// NewBase creates the shared plumbing for entity.
func NewBase(entity string, deps Deps) Base {
	deps = deps.withDefaults()
	return Base{
		entity: entity,
		deps:   deps,
		log:    deps.Logger.With("entity", entity),
	}
}

// Entity returns the collection name.
func (b *Base) Entity() string {
	return b.entity
}

// Logger returns the entity-scoped logger.
func (b *Base) Logger() logger.Logger {
	return b.log
}

// Tracker returns the request lifecycle tracker.
func (b *Base) Tracker() *requeststate.Tracker {
	return b.deps.Tracker
}

// Now returns the current time from the configured clock.
func (b *Base) Now() time.Time {
	return b.deps.Clock()
}

// Key returns the request lifecycle key for operation on this entity.
func (b *Base) Key(operation string) string {
	return b.entity + "." + operation
}

// Wait blocks for the simulated backend latency or until ctx is done.
func (b *Base) Wait(ctx context.Context) error {
	if b.deps.Latency <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(b.deps.Latency)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// PrepareOptions fills the default page and page size, rejects page sizes
// above the configured maximum and validates fields against schema.
func PrepareOptions[T any](b *Base, schema *query.Schema[T], opts query.Options) (query.Options, error) {
	if opts.Pagination.Page == 0 {
		opts.Pagination.Page = 1
	}
	if opts.Pagination.PageSize == 0 {
		opts.Pagination.PageSize = b.deps.DefaultPageSize
	}
	if opts.Pagination.PageSize > b.deps.MaxPageSize {
		return opts, query.NewInvalidArgumentError("page_size", opts.Pagination.PageSize, "must not exceed the maximum page size")
	}
	if err := schema.Validate(opts); err != nil {
		return opts, err
	}
	return opts, nil
}

// recordPanic marks a panicking call as failed before the panic continues.
func recordPanic(done func(error)) {
	if r := recover(); r != nil {
		done(fmt.Errorf("panic: %v", r))
		panic(r)
	}
}

// List runs a paginated query over the records returned by load. The call is
// tracked under "<entity>.list".
func List[T any](ctx context.Context, b *Base, schema *query.Schema[T], opts query.Options, load func(context.Context) []T) (page query.Page[T], err error) {
	start := time.Now()
	done := b.deps.Tracker.Track(b.Key("list"))
	ctx, span := tracing.StartSpan(ctx, b.entity, tracing.SpanOperationQuery,
		tracing.QueryAttributes(opts.Pagination.Page, opts.Pagination.PageSize, opts.Search.Term, opts.Sort.Field, string(opts.Sort.Order))...)
	defer func() {
		tracing.End(span, err)
		done(err)
	}()
	defer recordPanic(done)

	opts, err = PrepareOptions(b, schema, opts)
	if err != nil {
		b.log.WithContext(ctx).Warn("rejected query", "error", err)
		return query.Page[T]{}, err
	}
	if err = b.Wait(ctx); err != nil {
		return query.Page[T]{}, err
	}

	page = query.Run(load(ctx), schema, opts)
	b.deps.Metrics.ObserveQuery(b.entity, opts.Pagination.PageSize, page.Total, time.Since(start))
	b.log.WithContext(ctx).Debug("query served",
		"page", page.Page, "page_size", page.PageSize, "total", page.Total)
	return page, nil
}

// Read runs a non-mutating operation such as a lookup or a statistics
// aggregate, tracked under "<entity>.<operation>".
func Read[T any](ctx context.Context, b *Base, operation string, fn func(context.Context) (T, error)) (result T, err error) {
	done := b.deps.Tracker.Track(b.Key(operation))
	ctx, span := tracing.StartSpan(ctx, b.entity, tracing.SpanOperationGet)
	defer func() {
		tracing.End(span, err)
		done(err)
	}()
	defer recordPanic(done)

	if err = b.Wait(ctx); err != nil {
		return result, err
	}
	return fn(ctx)
}

// Mutate runs a create, update or delete operation. The mutation is counted,
// traced and logged, and tracked under "<entity>.<operation>".
func Mutate[T any](ctx context.Context, b *Base, kind tracing.SpanOperation, operation, id string, fn func(context.Context) (T, error)) (result T, err error) {
	done := b.deps.Tracker.Track(b.Key(operation))
	ctx, span := tracing.StartSpan(ctx, b.entity, kind)
	if id != "" {
		tracing.RecordID(span, id)
	}
	defer func() {
		tracing.End(span, err)
		b.deps.Metrics.ObserveMutation(b.entity, operation, err)
		done(err)
		logMutation(b.log.WithContext(ctx), span, operation, id, err)
	}()
	defer recordPanic(done)

	if err = b.Wait(ctx); err != nil {
		return result, err
	}
	return fn(ctx)
}

func logMutation(log logger.Logger, span trace.Span, operation, id string, err error) {
	args := []any{"operation", operation}
	if id != "" {
		args = append(args, "id", id)
	}
	if sc := span.SpanContext(); sc.HasTraceID() {
		args = append(args, "trace_id", sc.TraceID().String())
	}
	if err != nil {
		log.Warn("mutation failed", append(args, "error", err)...)
		return
	}
	log.Info("mutation applied", args...)
}
