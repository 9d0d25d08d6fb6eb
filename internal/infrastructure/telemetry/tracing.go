package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName names the tracer used for service spans
const TracerName = "shopcart-backend"

// Span attribute keys used by the services
const (
	AttrUserID      = attribute.Key("user.id")
	AttrOrderID     = attribute.Key("order.id")
	AttrProductID   = attribute.Key("product.id")
	AttrLineCount   = attribute.Key("order.lines")
	AttrReplayed    = attribute.Key("order.replayed")
	AttrPricingMode = attribute.Key("order.pricing_mode")
)

// StartSpan starts an internal span named {service}.{method}. The caller
// must end it.
//
//	ctx, span := telemetry.StartSpan(ctx, "order", "place", telemetry.AttrUserID.String(id))
//	defer span.End()
func StartSpan(ctx context.Context, service, method string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(TracerName).Start(ctx, service+"."+method,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
}

// End records err on span, if any, and ends it
func End(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
