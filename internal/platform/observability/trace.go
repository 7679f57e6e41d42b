package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/hanko-field/product-editor/internal/platform/requestctx"
)

var tracer = otel.Tracer("github.com/hanko-field/product-editor/internal/platform/observability")

// StartSpan starts an internal span and records its identifiers on the returned context. The
// editing session id, when present on ctx, is attached as an attribute.
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if ctx == nil {
		ctx = context.Background()
	}
	if id := requestctx.SessionID(ctx); id != "" {
		attrs = append(attrs, attribute.String("editor.session_id", id))
	}
	ctx, span := tracer.Start(ctx, name, trace.WithSpanKind(trace.SpanKindInternal), trace.WithAttributes(attrs...))

	spanCtx := span.SpanContext()
	if spanCtx.IsValid() {
		ctx = requestctx.WithTrace(ctx, requestctx.TraceInfo{
			TraceID: spanCtx.TraceID().String(),
			SpanID:  spanCtx.SpanID().String(),
			Sampled: spanCtx.IsSampled(),
		})
	}
	return ctx, span
}
