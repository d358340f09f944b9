package tracing

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	tracesdk "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.ServiceName != "streamie" {
		t.Errorf("expected service name 'streamie', got '%s'", cfg.ServiceName)
	}
	if cfg.Enabled {
		t.Error("expected tracing disabled by default")
	}
	if cfg.SampleRate != 1.0 {
		t.Errorf("expected sample rate 1.0, got %f", cfg.SampleRate)
	}
}

func TestInit_Disabled(t *testing.T) {
	tp, err := Init(DefaultConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := tp.Shutdown(context.Background()); err != nil {
		t.Errorf("unexpected shutdown error: %v", err)
	}
}

func TestSpansWithoutProvider(t *testing.T) {
	ctx, span := TraceHTTPRequest(context.Background(), "GET", "/sessions")
	if span == nil {
		t.Fatal("expected non-nil span")
	}
	AddSpanAttributes(ctx, attribute.String("k", "v"))
	RecordError(ctx, errors.New("ignored"))
	if TraceID(ctx) != "" {
		t.Error("expected no trace id from no-op provider")
	}
	span.End()
}

func TestSpansAreRecorded(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := tracesdk.NewTracerProvider(tracesdk.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	defer otel.SetTracerProvider(prev)

	ctx, span := TraceStoreOperation(context.Background(), "find", "sessions")
	if TraceID(ctx) == "" {
		t.Error("expected trace id on recorded span")
	}
	End(span, errors.New("no documents"))

	_, chatSpan := TraceChat(context.Background(), "publish", "lobby")
	End(chatSpan, nil)

	ended := recorder.Ended()
	if len(ended) != 2 {
		t.Fatalf("expected 2 ended spans, got %d", len(ended))
	}
	if ended[0].Name() != "db.find" {
		t.Errorf("unexpected span name %q", ended[0].Name())
	}
	if ended[0].Status().Description != "no documents" {
		t.Errorf("expected error status, got %+v", ended[0].Status())
	}
	if ended[1].Name() != "chat.publish" {
		t.Errorf("unexpected span name %q", ended[1].Name())
	}
}
