package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/shortlink/internal/logging"
	"github.com/serroba/shortlink/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// RequestIDHeader carries the request ID on requests and responses.
const RequestIDHeader = "X-Request-ID"

const maxRequestIDLength = 64

var propagator = propagation.TraceContext{}

// RequestLog wraps every request in an "http-request" span, assigns it an ID
// and stores a logger tagged with both in the context. One line is logged
// once the response has been written.
// An incoming X-Request-ID is reused when it is short enough, and an incoming
// traceparent header continues the caller's trace.
func RequestLog(logger *zap.Logger, newID func() string, tracer trace.Tracer) func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		start := time.Now()

		id := ctx.Header(RequestIDHeader)
		if id == "" || len(id) > maxRequestIDLength {
			id = newID()
		}

		ctx.SetHeader(RequestIDHeader, id)

		parent := propagator.Extract(ctx.Context(), headerCarrier{ctx: ctx})

		spanCtx, span := tracer.Start(parent, "http-request",
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.request.method", ctx.Method()),
				attribute.String("url.path", ctx.URL().Path),
				attribute.String("request.id", id),
			),
		)
		defer span.End()

		reqLogger := logger.With(zap.String("request_id", id))
		if traceID := telemetry.TraceID(spanCtx); traceID != "" {
			reqLogger = reqLogger.With(zap.String("trace_id", traceID))
		}

		newCtx := logging.WithRequestID(spanCtx, id)
		newCtx = logging.WithContext(newCtx, reqLogger)

		next(huma.WithContext(ctx, newCtx))

		status := ctx.Status()

		span.SetAttributes(attribute.Int("http.response.status_code", status))

		if status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(status))
		}

		reqLogger.Info("request",
			zap.String("method", ctx.Method()),
			zap.String("path", ctx.URL().Path),
			zap.Int("status", status),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", clientIP(ctx)),
			zap.String("user_agent", ctx.Header("User-Agent")),
		)
	}
}

// headerCarrier reads trace context from request headers.
type headerCarrier struct {
	ctx huma.Context
}

func (c headerCarrier) Get(key string) string {
	return c.ctx.Header(key)
}

// Set is a no-op: request headers are read-only here.
func (c headerCarrier) Set(string, string) {}

func (c headerCarrier) Keys() []string {
	var keys []string

	c.ctx.EachHeader(func(name, _ string) {
		keys = append(keys, name)
	})

	return keys
}

// clientIP prefers proxy headers over the connection's remote address.
func clientIP(ctx huma.Context) string {
	if xff := ctx.Header("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")

		return strings.TrimSpace(first)
	}

	if xri := ctx.Header("X-Real-IP"); xri != "" {
		return xri
	}

	host := ctx.RemoteAddr()
	if idx := strings.LastIndex(host, ":"); idx != -1 {
		return host[:idx]
	}

	return host
}
