// Package telemetry sets up OpenTelemetry tracing.
//
// Spans are always created so every request log line can carry a trace ID.
// They are exported over OTLP/gRPC only when telemetry.opentelemetry is set.
package telemetry

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/serroba/shortlink/internal/config"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// TracerName identifies spans created by this module.
const TracerName = "github.com/serroba/shortlink"

const (
	exportTimeout   = 3 * time.Second
	shutdownTimeout = 5 * time.Second
)

// Tracing owns the tracer provider and flushes it on shutdown.
type Tracing struct {
	provider *sdktrace.TracerProvider
}

// New builds tracing from cfg.
func New(ctx context.Context, cfg config.TelemetryConfig) (*Tracing, error) {
	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(resource.NewSchemaless(
			attribute.String("service.name", cfg.ServiceName),
		)),
	}

	if cfg.OpenTelemetry {
		exporter, err := otlptracegrpc.New(ctx, exporterOptions(cfg.OpenTelemetryEndpoint)...)
		if err != nil {
			return nil, fmt.Errorf("create otlp exporter: %w", err)
		}

		opts = append(opts, sdktrace.WithBatcher(exporter))
	}

	return NewWithOptions(opts...), nil
}

// NewWithOptions builds tracing from raw provider options, e.g. a custom exporter.
func NewWithOptions(opts ...sdktrace.TracerProviderOption) *Tracing {
	return &Tracing{provider: sdktrace.NewTracerProvider(opts...)}
}

// exporterOptions accepts either a URL ("http://collector:4317", plaintext
// for http) or a bare host:port, which is dialled without TLS.
func exporterOptions(endpoint string) []otlptracegrpc.Option {
	opts := []otlptracegrpc.Option{otlptracegrpc.WithTimeout(exportTimeout)}

	if strings.Contains(endpoint, "://") {
		return append(opts, otlptracegrpc.WithEndpointURL(endpoint))
	}

	return append(opts, otlptracegrpc.WithEndpoint(endpoint), otlptracegrpc.WithInsecure())
}

// Tracer returns the module's tracer.
func (t *Tracing) Tracer() trace.Tracer {
	return t.provider.Tracer(TracerName)
}

// Shutdown flushes pending spans and stops the exporter.
func (t *Tracing) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return t.provider.Shutdown(ctx)
}

// TraceID returns the hex trace ID of the span in ctx, or "".
func TraceID(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.HasTraceID() {
		return ""
	}

	return sc.TraceID().String()
}
