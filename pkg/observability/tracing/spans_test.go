package tracing

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func setupTestTracer(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()

	previous := otel.GetTracerProvider()
	recorder := tracetest.NewSpanRecorder()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)))
	t.Cleanup(func() { otel.SetTracerProvider(previous) })
	return recorder
}

func attrMap(attrs []attribute.KeyValue) map[string]attribute.Value {
	out := make(map[string]attribute.Value, len(attrs))
	for _, kv := range attrs {
		out[string(kv.Key)] = kv.Value
	}
	return out
}

func TestStartSpan_QueryAttributes(t *testing.T) {
	recorder := setupTestTracer(t)

	_, span := StartSpan(context.Background(), "complaint", SpanOperationQuery,
		QueryAttributes(2, 10, "unable", "created_at", "desc")...)
	End(span, nil)

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	got := spans[0]
	if got.Name() != "complaint query" {
		t.Errorf("name = %q", got.Name())
	}
	if got.Status().Code != codes.Ok {
		t.Errorf("status = %v, want Ok", got.Status().Code)
	}
	attrs := attrMap(got.Attributes())
	if attrs["tutoradmin.entity"].AsString() != "complaint" {
		t.Errorf("entity attribute = %v", attrs["tutoradmin.entity"])
	}
	if attrs["query.page"].AsInt64() != 2 || attrs["query.page_size"].AsInt64() != 10 {
		t.Errorf("pagination attributes = %v / %v", attrs["query.page"], attrs["query.page_size"])
	}
	if !attrs["query.search"].AsBool() {
		t.Error("search attribute should be true")
	}
}

func TestEnd_RecordsError(t *testing.T) {
	recorder := setupTestTracer(t)

	_, span := StartSpan(context.Background(), "plan", SpanOperationDelete)
	RecordID(span, "plan-1")
	End(span, errors.New("default plan cannot be deleted"))

	got := recorder.Ended()[0]
	if got.Status().Code != codes.Error {
		t.Fatalf("status = %v, want Error", got.Status().Code)
	}
	if len(got.Events()) == 0 {
		t.Error("expected an exception event")
	}
	if attrMap(got.Attributes())["tutoradmin.record_id"].AsString() != "plan-1" {
		t.Error("record id attribute missing")
	}
}

func TestTracerConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     TracerConfig
		wantErr bool
	}{
		{name: "disabled needs nothing", cfg: TracerConfig{}},
		{name: "enabled complete", cfg: TracerConfig{Enabled: true, ServiceName: "svc", Endpoint: "localhost:4317", SampleRate: 0.5}},
		{name: "missing service", cfg: TracerConfig{Enabled: true, Endpoint: "localhost:4317"}, wantErr: true},
		{name: "missing endpoint", cfg: TracerConfig{Enabled: true, ServiceName: "svc"}, wantErr: true},
		{name: "sample rate above one", cfg: TracerConfig{Enabled: true, ServiceName: "svc", Endpoint: "x", SampleRate: 1.5}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewTracerProvider_Disabled(t *testing.T) {
	tp, err := NewTracerProvider(context.Background(), TracerConfig{Enabled: false})
	if err != nil {
		t.Fatalf("NewTracerProvider() error = %v", err)
	}
	_, span := tp.Tracer("test").Start(context.Background(), "noop")
	if span.SpanContext().IsSampled() {
		t.Error("disabled provider should not sample")
	}
	span.End()
	if err := tp.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
}
