package tracing

import (
	"bytes"
	"context"
	"strings"
	"testing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestNewExporter(t *testing.T) {
	exp, err := NewExporter("none", nil)
	if err != nil || exp != nil {
		t.Fatalf("none: got %v, %v", exp, err)
	}

	if _, err := NewExporter("zipkin", nil); err == nil {
		t.Fatalf("expected error for unknown exporter")
	}

	var buf bytes.Buffer
	exp, err = NewExporter("stdout", &buf)
	if err != nil {
		t.Fatalf("stdout: %v", err)
	}

	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exp))
	_, span := tp.Tracer(InstrumentationName).Start(context.Background(), "qr.render")
	span.End()
	if err := tp.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}

	if !strings.Contains(buf.String(), "qr.render") {
		t.Fatalf("expected span in exporter output, got %q", buf.String())
	}
}

func TestSetupNone(t *testing.T) {
	shutdown, err := Setup("none")
	if err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown failed: %v", err)
	}
}
