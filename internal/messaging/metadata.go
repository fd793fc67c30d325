package messaging

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/serroba/shortlink/internal/logging"
	"go.opentelemetry.io/otel/propagation"
)

const (
	metadataContentType = "content_type"
	metadataRequestID   = "request_id"
)

var propagator = propagation.TraceContext{}

// injectMetadata copies the request ID and the W3C trace context of ctx onto msg.
func injectMetadata(ctx context.Context, msg *message.Message) {
	msg.Metadata.Set(metadataContentType, "application/json")

	if id := logging.RequestIDFromContext(ctx); id != "" {
		msg.Metadata.Set(metadataRequestID, id)
	}

	propagator.Inject(ctx, propagation.MapCarrier(msg.Metadata))
}

// extractMetadata returns ctx carrying the request ID and remote span context
// found on msg.
func extractMetadata(ctx context.Context, msg *message.Message) context.Context {
	ctx = propagator.Extract(ctx, propagation.MapCarrier(msg.Metadata))

	if id := msg.Metadata.Get(metadataRequestID); id != "" {
		ctx = logging.WithRequestID(ctx, id)
	}

	return ctx
}
