package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName names the tracer behind StartServiceSpan
const TracerName = "cotiza-backend"

// Attribute keys set by the application services
const (
	SpanAttrQuotationID     = "quotation.id"
	SpanAttrQuotationNumber = "quotation.number"
	SpanAttrQuotationStatus = "quotation.status"
	SpanAttrItemsCount      = "quotation.items_count"
	SpanAttrProductCode     = "product.code"
	SpanAttrImportRows      = "import.rows"
	SpanAttrUserID          = "enduser.id"
	SpanAttrAttempt         = "retry.attempt"
)

// StartServiceSpan starts an internal span named service.method, with
// alternating key, value attributes. The caller ends it.
//
//	ctx, span := telemetry.StartServiceSpan(ctx, "quotation", "create", telemetry.SpanAttrUserID, actor.ID)
//	defer span.End()
func StartServiceSpan(ctx context.Context, service, method string, keyValues ...any) (context.Context, trace.Span) {
	return otel.Tracer(TracerName).Start(ctx, service+"."+method,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs(keyValues)...))
}

// SetAttributes is a no-op on a nil span
func SetAttributes(span trace.Span, keyValues ...any) {
	if span != nil {
		span.SetAttributes(attrs(keyValues)...)
	}
}

// AddEvent records an event on the span carried by ctx, if any
func AddEvent(ctx context.Context, name string, keyValues ...any) {
	trace.SpanFromContext(ctx).AddEvent(name, trace.WithAttributes(attrs(keyValues)...))
}

// RecordError marks span failed with err. Nil span or err are ignored.
func RecordError(span trace.Span, err error) {
	if span == nil || err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// attrs pairs up keyValues. A pair whose key is not a string is dropped, as
// is a trailing key without value.
func attrs(keyValues []any) []attribute.KeyValue {
	out := make([]attribute.KeyValue, 0, len(keyValues)/2)
	for i := 1; i < len(keyValues); i += 2 {
		if key, ok := keyValues[i-1].(string); ok {
			out = append(out, attr(attribute.Key(key), keyValues[i]))
		}
	}
	return out
}

func attr(key attribute.Key, value any) attribute.KeyValue {
	switch v := value.(type) {
	case string:
		return key.String(v)
	case bool:
		return key.Bool(v)
	case int:
		return key.Int(v)
	case int64:
		return key.Int64(v)
	case float64:
		return key.Float64(v)
	case []string:
		return key.StringSlice(v)
	case fmt.Stringer:
		return key.String(v.String())
	}
	return key.String(fmt.Sprint(value))
}
