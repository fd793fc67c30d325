package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/serroba/shortlink/internal/logging"
	"github.com/serroba/shortlink/internal/middleware"
	"github.com/serroba/shortlink/internal/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type testOutput struct {
	Body string `json:"body"`
}

func fixedID() string { return "generated-id" }

func setupTestAPI(t *testing.T) (*chi.Mux, huma.API, *observer.ObservedLogs) {
	t.Helper()

	router, api, logs, _ := setupTracedAPI(t)

	return router, api, logs
}

func setupTracedAPI(t *testing.T) (*chi.Mux, huma.API, *observer.ObservedLogs, *tracetest.InMemoryExporter) {
	t.Helper()

	core, logs := observer.New(zapcore.DebugLevel)
	exporter := tracetest.NewInMemoryExporter()
	tracing := telemetry.NewWithOptions(sdktrace.WithSyncer(exporter))
	t.Cleanup(func() { _ = tracing.Shutdown() })

	router := chi.NewMux()
	api := humachi.New(router, huma.DefaultConfig("Test", "1.0.0"))
	api.UseMiddleware(middleware.RequestLog(zap.New(core), fixedID, tracing.Tracer()))

	return router, api, logs, exporter
}

func spanAttr(span tracetest.SpanStub, key attribute.Key) attribute.Value {
	for _, kv := range span.Attributes {
		if kv.Key == key {
			return kv.Value
		}
	}

	return attribute.Value{}
}

func requestEntry(t *testing.T, logs *observer.ObservedLogs) map[string]any {
	t.Helper()

	entries := logs.FilterMessage("request").All()
	require.Len(t, entries, 1)

	return entries[0].ContextMap()
}

func TestRequestLog(t *testing.T) {
	t.Run("assigns a request id and logs the request", func(t *testing.T) {
		router, api, logs := setupTestAPI(t)

		huma.Get(api, "/test", func(_ context.Context, _ *struct{}) (*testOutput, error) {
			return &testOutput{Body: "ok"}, nil
		})

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "generated-id", w.Header().Get(middleware.RequestIDHeader))

		fields := requestEntry(t, logs)
		assert.Equal(t, "generated-id", fields["request_id"])
		assert.Equal(t, http.MethodGet, fields["method"])
		assert.Equal(t, "/test", fields["path"])
		assert.EqualValues(t, http.StatusOK, fields["status"])
	})

	t.Run("reuses an incoming request id", func(t *testing.T) {
		router, api, logs := setupTestAPI(t)

		huma.Get(api, "/test", func(_ context.Context, _ *struct{}) (*testOutput, error) {
			return &testOutput{Body: "ok"}, nil
		})

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set(middleware.RequestIDHeader, "upstream-id")

		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, "upstream-id", w.Header().Get(middleware.RequestIDHeader))
		assert.Equal(t, "upstream-id", requestEntry(t, logs)["request_id"])
	})

	t.Run("replaces an oversized incoming request id", func(t *testing.T) {
		router, api, _ := setupTestAPI(t)

		huma.Get(api, "/test", func(_ context.Context, _ *struct{}) (*testOutput, error) {
			return &testOutput{Body: "ok"}, nil
		})

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set(middleware.RequestIDHeader, strings.Repeat("x", 100))

		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, "generated-id", w.Header().Get(middleware.RequestIDHeader))
	})

	t.Run("exposes the id and a tagged logger to handlers", func(t *testing.T) {
		router, api, logs := setupTestAPI(t)

		huma.Get(api, "/test", func(ctx context.Context, _ *struct{}) (*testOutput, error) {
			assert.Equal(t, "generated-id", logging.RequestIDFromContext(ctx))
			logging.FromContext(ctx, zap.NewNop()).Info("inside handler")

			return &testOutput{Body: "ok"}, nil
		})

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		entries := logs.FilterMessage("inside handler").All()
		require.Len(t, entries, 1)
		assert.Equal(t, "generated-id", entries[0].ContextMap()["request_id"])
	})

	t.Run("logs error statuses", func(t *testing.T) {
		router, api, logs := setupTestAPI(t)

		huma.Get(api, "/test", func(_ context.Context, _ *struct{}) (*testOutput, error) {
			return nil, huma.Error500InternalServerError("boom")
		})

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.EqualValues(t, http.StatusInternalServerError, requestEntry(t, logs)["status"])
	})

	t.Run("logs the first forwarded client ip", func(t *testing.T) {
		router, api, logs := setupTestAPI(t)

		huma.Get(api, "/test", func(_ context.Context, _ *struct{}) (*testOutput, error) {
			return &testOutput{Body: "ok"}, nil
		})

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("X-Forwarded-For", "192.168.1.1, 10.0.0.1")

		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, "192.168.1.1", requestEntry(t, logs)["client_ip"])
	})
}

func TestRequestLog_Tracing(t *testing.T) {
	t.Run("records a span and logs its trace id", func(t *testing.T) {
		router, api, logs, exporter := setupTracedAPI(t)

		var handlerTraceID string

		huma.Get(api, "/test", func(ctx context.Context, _ *struct{}) (*testOutput, error) {
			handlerTraceID = telemetry.TraceID(ctx)

			return &testOutput{Body: "ok"}, nil
		})

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		spans := exporter.GetSpans()
		require.Len(t, spans, 1)
		assert.Equal(t, "http-request", spans[0].Name)
		assert.Equal(t, int64(http.StatusOK), spanAttr(spans[0], "http.response.status_code").AsInt64())
		assert.Equal(t, "generated-id", spanAttr(spans[0], "request.id").AsString())
		assert.Equal(t, codes.Unset, spans[0].Status.Code)

		traceID := spans[0].SpanContext.TraceID().String()
		assert.Equal(t, traceID, handlerTraceID)
		assert.Equal(t, traceID, requestEntry(t, logs)["trace_id"])
	})

	t.Run("marks server errors on the span", func(t *testing.T) {
		router, api, _, exporter := setupTracedAPI(t)

		huma.Get(api, "/test", func(_ context.Context, _ *struct{}) (*testOutput, error) {
			return nil, huma.Error500InternalServerError("boom")
		})

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		spans := exporter.GetSpans()
		require.Len(t, spans, 1)
		assert.Equal(t, codes.Error, spans[0].Status.Code)
	})

	t.Run("continues an incoming trace", func(t *testing.T) {
		router, api, logs, exporter := setupTracedAPI(t)

		huma.Get(api, "/test", func(_ context.Context, _ *struct{}) (*testOutput, error) {
			return &testOutput{Body: "ok"}, nil
		})

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")

		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		spans := exporter.GetSpans()
		require.Len(t, spans, 1)
		assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", spans[0].SpanContext.TraceID().String())
		assert.Equal(t, "00f067aa0ba902b7", spans[0].Parent.SpanID().String())
		assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", requestEntry(t, logs)["trace_id"])
	})
}
