package instrumentation

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation scope for chronocall spans.
const TracerName = "github.com/wayward-wolves/chronocall"

// Span names.
const (
	SpanTurn          = "turn"
	SpanModelGenerate = "model.generate"
)

// Span attribute keys.
const (
	SpanAttrTool       = "mcp.tool"
	SpanAttrService    = "google.service"
	SpanAttrOperation  = "google.operation"
	SpanAttrSession    = "chronocall.session"
	SpanAttrActionKind = "chronocall.action.kind"
	SpanAttrOutcome    = "chronocall.outcome"
	SpanAttrCalendarID = "google.calendar_id"
)

func tracer() trace.Tracer {
	return otel.GetTracerProvider().Tracer(TracerName)
}

// StartSpan starts a span with the given name and attributes.
// The caller ends it with defer span.End().
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer().Start(ctx, name, trace.WithAttributes(attrs...))
}

// StartTurnSpan starts the root span of one conversation turn.
func StartTurnSpan(ctx context.Context, sessionID string) (context.Context, trace.Span) {
	return tracer().Start(ctx, SpanTurn,
		trace.WithAttributes(attribute.String(SpanAttrSession, sessionID)),
		trace.WithSpanKind(trace.SpanKindServer),
	)
}

// StartModelSpan starts a client span around a model service call.
func StartModelSpan(ctx context.Context) (context.Context, trace.Span) {
	return tracer().Start(ctx, SpanModelGenerate, trace.WithSpanKind(trace.SpanKindClient))
}

// StartToolSpan starts a span for an MCP tool invocation.
func StartToolSpan(ctx context.Context, toolName string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	all := append([]attribute.KeyValue{attribute.String(SpanAttrTool, toolName)}, attrs...)
	return tracer().Start(ctx, "tool."+toolName,
		trace.WithAttributes(all...),
		trace.WithSpanKind(trace.SpanKindServer),
	)
}

// StartGoogleAPISpan starts a span named google.<service>.<operation>.
func StartGoogleAPISpan(ctx context.Context, service, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	all := make([]attribute.KeyValue, 0, len(attrs)+2)
	all = append(all,
		attribute.String(SpanAttrService, service),
		attribute.String(SpanAttrOperation, operation),
	)
	all = append(all, attrs...)

	return tracer().Start(ctx, "google."+service+"."+operation,
		trace.WithAttributes(all...),
		trace.WithSpanKind(trace.SpanKindClient),
	)
}

// SetSpanError records err on the span and marks it failed. A nil err is a no-op.
func SetSpanError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// SetSpanSuccess sets the span status to OK.
func SetSpanSuccess(span trace.Span) {
	span.SetStatus(codes.Ok, "")
}

// GetTraceID returns the trace ID of the span in ctx, or "".
func GetTraceID(ctx context.Context) string {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if sc.IsValid() {
		return sc.TraceID().String()
	}
	return ""
}

// GetSpanID returns the span ID of the span in ctx, or "".
func GetSpanID(ctx context.Context) string {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if sc.IsValid() {
		return sc.SpanID().String()
	}
	return ""
}
