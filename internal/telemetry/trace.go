package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// StartSpan creates a new span for a service operation.
//
//	ctx, span := telemetry.StartSpan(ctx, TracerAccess, "access.Authorize",
//	    attribute.StringSlice(AttrRequiredApps, apps),
//	)
//	defer span.End()
func StartSpan(ctx context.Context, tracerName, spanName string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := otel.Tracer(tracerName)
	return tracer.Start(ctx, spanName, trace.WithAttributes(attrs...))
}

// RecordError records err on the span and marks the span as failed.
func RecordError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// Tracer names
const (
	TracerAccess       = "accessgate/services/access"
	TracerEntitlements = "accessgate/services/entitlements"
)

// Common attribute keys
const (
	AttrProfileID      = "access.profile_id"
	AttrRequiredApps   = "access.required_apps"
	AttrDecisionKind   = "access.decision.kind"
	AttrDecisionReason = "access.decision.reason"
	AttrCacheResult    = "entitlements.cache.result"
)
