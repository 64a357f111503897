package tracing

import (
	"context"
	"errors"
	"testing"
	"time"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestInitDisabled(t *testing.T) {
	called := false
	orig := newTraceExporter
	defer func() { newTraceExporter = orig }()
	newTraceExporter = func(ctx context.Context, endpoint string) (sdktrace.SpanExporter, error) {
		called = true
		return &stubExporter{}, nil
	}

	tp, tracer, err := Init(context.Background(), Options{Enabled: false, Component: "analyze"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tp == nil || tracer == nil {
		t.Fatal("expected tracer provider")
	}
	if called {
		t.Fatal("exporter must not be created when tracing is disabled")
	}
	if err := Shutdown(tp, time.Second); err != nil {
		t.Fatalf("shutdown error: %v", err)
	}
}

func TestInitEnabledWithStubExporter(t *testing.T) {
	orig := newTraceExporter
	defer func() { newTraceExporter = orig }()

	stub := &stubExporter{}
	newTraceExporter = func(ctx context.Context, endpoint string) (sdktrace.SpanExporter, error) {
		stub.endpoint = endpoint
		return stub, nil
	}

	tp, tracer, err := Init(context.Background(), Options{Enabled: true, Endpoint: "collector:4317"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tracer == nil {
		t.Fatal("expected tracer")
	}
	if stub.endpoint != "collector:4317" {
		t.Fatalf("expected endpoint to be propagated, got %s", stub.endpoint)
	}
	if err := Shutdown(tp, time.Millisecond); err != nil {
		t.Fatalf("shutdown error: %v", err)
	}
}

func TestInitDefaultEndpointAndExporterError(t *testing.T) {
	orig := newTraceExporter
	defer func() { newTraceExporter = orig }()

	var got string
	newTraceExporter = func(ctx context.Context, endpoint string) (sdktrace.SpanExporter, error) {
		got = endpoint
		return nil, errors.New("dial failed")
	}

	if _, _, err := Init(context.Background(), Options{Enabled: true}); err == nil {
		t.Fatal("expected exporter error")
	}
	if got != "localhost:4317" {
		t.Fatalf("expected default endpoint, got %s", got)
	}
}

func TestShutdownNil(t *testing.T) {
	if err := Shutdown(nil, time.Second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

type stubExporter struct {
	endpoint string
}

func (s *stubExporter) ExportSpans(ctx context.Context, spans []sdktrace.ReadOnlySpan) error {
	return nil
}

func (s *stubExporter) Shutdown(ctx context.Context) error {
	return nil
}
