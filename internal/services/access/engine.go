package access

import (
	"context"
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/grantsuite/accessgate/internal/auth"
	"github.com/grantsuite/accessgate/internal/services/entitlements"
	"github.com/grantsuite/accessgate/internal/telemetry"
)

// AuthGate reports whether enforcement is on. *auth.KillSwitch satisfies it.
type AuthGate interface {
	IsAuthRequired() bool
}

// OriginValidator performs the CSRF check. *auth.OriginGuard satisfies it.
type OriginValidator interface {
	ValidateOrigin(r *http.Request) auth.OriginResult
}

// EntitlementSource returns fresh entitlements. *entitlements.Cache satisfies it.
type EntitlementSource interface {
	GetEntry(ctx context.Context, profileID int64) (*entitlements.Entry, error)
}

// ActiveChecker answers the revocation question. *RevocationChecker satisfies it.
type ActiveChecker interface {
	CheckActive(ctx context.Context, profileID int64) bool
}

// DecisionRecorder receives every decision. telemetry.AccessMetrics implements it.
type DecisionRecorder interface {
	RecordDecision(ctx context.Context, kind, reason string)
}

type nopRecorder struct{}

func (nopRecorder) RecordDecision(context.Context, string, string) {}

// Engine evaluates access decisions. It holds no mutable state of its own.
type Engine struct {
	gate         AuthGate
	origin       OriginValidator
	sessions     auth.SessionResolver
	entitlements EntitlementSource
	revocation   ActiveChecker
	logger       *zap.Logger
	recorder     DecisionRecorder
}

// EngineOption customises an Engine.
type EngineOption func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(logger *zap.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithRecorder reports decisions to recorder.
func WithRecorder(recorder DecisionRecorder) EngineOption {
	return func(e *Engine) {
		if recorder != nil {
			e.recorder = recorder
		}
	}
}

// NewEngine wires the collaborators.
func NewEngine(
	gate AuthGate,
	origin OriginValidator,
	sessions auth.SessionResolver,
	source EntitlementSource,
	revocation ActiveChecker,
	opts ...EngineOption,
) *Engine {
	e := &Engine{
		gate:         gate,
		origin:       origin,
		sessions:     sessions,
		entitlements: source,
		revocation:   revocation,
		logger:       zap.NewNop(),
		recorder:     nopRecorder{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// AuthRequired exposes the kill switch state.
func (e *Engine) AuthRequired() bool {
	return e.gate.IsAuthRequired()
}

// Authorize decides whether the request may use at least one of requiredApps. With
// no required apps any active, linked identity is authorized.
//
// A non-nil error means the decision could not be made (entitlement refresh
// failed) and maps to HTTP 500; the returned Decision is then meaningless.
func (e *Engine) Authorize(ctx context.Context, r *http.Request, requiredApps ...string) (Decision, error) {
	ctx, span := telemetry.StartSpan(ctx, telemetry.TracerAccess, "access.Authorize",
		attribute.StringSlice(telemetry.AttrRequiredApps, requiredApps),
	)
	defer span.End()

	d, profileID, done := e.identify(ctx, r)
	if done {
		e.record(ctx, span, d)
		return d, nil
	}

	entry, err := e.entitlements.GetEntry(ctx, profileID)
	if err != nil {
		e.logger.Error("entitlement lookup failed",
			zap.Int64("profile_id", profileID), zap.Error(err))
		telemetry.RecordError(span, err)
		return Decision{}, auth.DependencyError(err, "unable to load entitlements")
	}

	switch {
	case !entry.IsActive:
		d = forbidden(ReasonAccountDisabled, d.Session)
	case entry.IsSuperuser:
		d = authorized(profileID, d.Session, entry)
	case len(requiredApps) == 0 || entry.HasAnyApp(requiredApps):
		d = authorized(profileID, d.Session, entry)
	default:
		d = forbidden(ReasonAppAccessDenied, d.Session)
		d.Entry = entry
	}

	e.record(ctx, span, d)
	return d, nil
}

// Authenticate validates identity only: kill switch, CSRF, session, profile link,
// then the active flag read directly from the store.
func (e *Engine) Authenticate(ctx context.Context, r *http.Request) (Decision, error) {
	ctx, span := telemetry.StartSpan(ctx, telemetry.TracerAccess, "access.Authenticate")
	defer span.End()

	d, profileID, done := e.identify(ctx, r)
	if done {
		e.record(ctx, span, d)
		return d, nil
	}

	if !e.revocation.CheckActive(ctx, profileID) {
		d = forbidden(ReasonAccountDisabled, d.Session)
	} else {
		d = authorized(profileID, d.Session, nil)
	}

	e.record(ctx, span, d)
	return d, nil
}

// identify runs steps 1 to 4. When done is false the returned decision carries the
// resolved session and profileID is linked.
func (e *Engine) identify(ctx context.Context, r *http.Request) (d Decision, profileID int64, done bool) {
	if !e.gate.IsAuthRequired() {
		return bypassed(), 0, true
	}

	if result := e.origin.ValidateOrigin(r); !result.Valid {
		e.logger.Warn("csrf origin check failed",
			zap.String("reason", result.Reason),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path))
		return forbidden(ReasonCSRF, auth.NoSession()), 0, true
	}

	session, err := e.sessions.ResolveSession(ctx, r)
	if err != nil {
		e.logger.Debug("session credential rejected", zap.Error(err))
		return unauthenticated(), 0, true
	}
	if session.Kind != auth.SessionResolved {
		return unauthenticated(), 0, true
	}

	profileID, linked := auth.GetProfileID(session)
	if !linked {
		return forbidden(ReasonNoProfileLinked, session), 0, true
	}

	return Decision{Session: session}, profileID, false
}

func (e *Engine) record(ctx context.Context, span trace.Span, d Decision) {
	span.SetAttributes(
		attribute.String(telemetry.AttrDecisionKind, d.Kind.String()),
		attribute.String(telemetry.AttrDecisionReason, d.Reason),
	)
	if d.Kind == Authorized {
		span.SetAttributes(attribute.Int64(telemetry.AttrProfileID, d.ProfileID))
	}
	e.recorder.RecordDecision(ctx, d.Kind.String(), d.Reason)
}
