package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// AccessMetrics holds the instruments of the access engine and the entitlement
// cache. It implements access.DecisionRecorder and entitlements.Observer.
type AccessMetrics struct {
	DecisionCounter metric.Int64Counter     // Decisions by kind and reason
	CacheLookups    metric.Int64Counter     // Entitlement lookups by result
	RefreshDuration metric.Float64Histogram // Entitlement refresh latency
	RefreshErrors   metric.Int64Counter     // Failed refreshes
}

// NewAccessMetrics creates the instruments on the global meter provider.
func NewAccessMetrics() (*AccessMetrics, error) {
	return NewAccessMetricsWithMeter(otel.Meter("accessgate/access"))
}

// NewAccessMetricsWithMeter creates the instruments on meter.
func NewAccessMetricsWithMeter(meter metric.Meter) (*AccessMetrics, error) {
	decisions, err := meter.Int64Counter(
		"accessgate.access.decisions",
		metric.WithDescription("Access decisions by kind and reason"),
		metric.WithUnit("{decision}"),
	)
	if err != nil {
		return nil, err
	}

	lookups, err := meter.Int64Counter(
		"accessgate.entitlements.cache.lookups",
		metric.WithDescription("Entitlement cache lookups by result"),
		metric.WithUnit("{lookup}"),
	)
	if err != nil {
		return nil, err
	}

	// Buckets: 1ms .. 2.5s
	refreshDuration, err := meter.Float64Histogram(
		"accessgate.entitlements.refresh.duration",
		metric.WithDescription("Entitlement refresh duration"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500),
	)
	if err != nil {
		return nil, err
	}

	refreshErrors, err := meter.Int64Counter(
		"accessgate.entitlements.refresh.errors",
		metric.WithDescription("Failed entitlement refreshes"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	return &AccessMetrics{
		DecisionCounter: decisions,
		CacheLookups:    lookups,
		RefreshDuration: refreshDuration,
		RefreshErrors:   refreshErrors,
	}, nil
}

// RecordDecision counts one access decision.
func (m *AccessMetrics) RecordDecision(ctx context.Context, kind, reason string) {
	m.DecisionCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrDecisionKind, kind),
		attribute.String(AttrDecisionReason, reason),
	))
}

// RecordCacheLookup counts one entitlement cache lookup.
func (m *AccessMetrics) RecordCacheLookup(ctx context.Context, result string) {
	m.CacheLookups.Add(ctx, 1, metric.WithAttributes(attribute.String(AttrCacheResult, result)))
}

// RecordRefresh records one refresh and its outcome.
func (m *AccessMetrics) RecordRefresh(ctx context.Context, duration time.Duration, err error) {
	m.RefreshDuration.Record(ctx, float64(duration.Microseconds())/1000.0)
	if err != nil {
		m.RefreshErrors.Add(ctx, 1)
	}
}
