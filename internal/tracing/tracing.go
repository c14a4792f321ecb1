// Package tracing installs the OpenTelemetry tracer provider.
package tracing

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentationName is the tracer name used by qrgate packages.
const InstrumentationName = "qrgate"

// Tracer returns the qrgate tracer from the global provider.
func Tracer() trace.Tracer {
	return otel.Tracer(InstrumentationName)
}

// NewExporter creates a span exporter by name. Supported: stdout, none.
func NewExporter(name string, w io.Writer) (sdktrace.SpanExporter, error) {
	switch name {
	case "stdout":
		if w == nil {
			w = os.Stdout
		}
		return stdouttrace.New(stdouttrace.WithWriter(w))
	case "none", "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown trace exporter: %q", name)
	}
}

// Setup installs a global tracer provider for the named exporter and returns
// its shutdown function. With "none" the global no-op provider is left in
// place and shutdown does nothing.
func Setup(name string) (func(context.Context) error, error) {
	exp, err := NewExporter(name, nil)
	if err != nil {
		return nil, err
	}
	if exp == nil {
		return func(context.Context) error { return nil }, nil
	}

	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exp))
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}
