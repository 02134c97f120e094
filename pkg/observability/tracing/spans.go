package tracing

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationScope = "github.com/nimburion/tutoradmin"

// SpanOperation represents a traced operation type.
type SpanOperation string

// Span operations
const (
	SpanOperationQuery  SpanOperation = "query"
	SpanOperationGet    SpanOperation = "get"
	SpanOperationCreate SpanOperation = "create"
	SpanOperationUpdate SpanOperation = "update"
	SpanOperationDelete SpanOperation = "delete"
)

// StartSpan starts an internal span named "<entity> <operation>".
func StartSpan(ctx context.Context, entity string, operation SpanOperation, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := otel.Tracer(instrumentationScope)
	ctx, span := tracer.Start(ctx, fmt.Sprintf("%s %s", entity, operation), trace.WithSpanKind(trace.SpanKindInternal))
	span.SetAttributes(
		attribute.String("tutoradmin.entity", entity),
		attribute.String("tutoradmin.operation", string(operation)),
	)
	span.SetAttributes(attrs...)
	return ctx, span
}

// QueryAttributes describes the query options on a query span.
func QueryAttributes(page, pageSize int, search, sortField, sortOrder string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int("query.page", page),
		attribute.Int("query.page_size", pageSize),
		attribute.Bool("query.search", search != ""),
		attribute.String("query.sort.field", sortField),
		attribute.String("query.sort.order", sortOrder),
	}
}

// RecordID attaches the record ID to span.
func RecordID(span trace.Span, id string) {
	span.SetAttributes(attribute.String("tutoradmin.record_id", id))
}

// RecordError records an error in the span and sets the span status to error.
func RecordError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// RecordSuccess sets the span status to OK.
func RecordSuccess(span trace.Span) {
	span.SetStatus(codes.Ok, "")
}

// End finishes span with a status derived from err.
func End(span trace.Span, err error) {
	if err != nil {
		RecordError(span, err)
	} else {
		RecordSuccess(span)
	}
	span.End()
}
