package access

import (
	"context"

	"github.com/grantsuite/accessgate/internal/auth"
	"github.com/grantsuite/accessgate/internal/services/entitlements"
)

// Kind tags the Decision variant.
type Kind int

const (
	Bypassed Kind = iota
	Unauthenticated
	Forbidden
	Authorized
)

func (k Kind) String() string {
	switch k {
	case Bypassed:
		return "bypassed"
	case Unauthenticated:
		return "unauthenticated"
	case Forbidden:
		return "forbidden"
	case Authorized:
		return "authorized"
	default:
		return "unknown"
	}
}

// Forbidden reasons.
const (
	ReasonCSRF            = "csrf"
	ReasonNoProfileLinked = "no-profile-linked"
	ReasonAccountDisabled = "account-disabled"
	ReasonAppAccessDenied = "app-access-denied"
)

// Decision is the outcome of Authorize or Authenticate.
type Decision struct {
	Kind Kind
	// Reason is set for Forbidden decisions.
	Reason string
	// ProfileID is set for Authorized decisions.
	ProfileID int64
	Session   auth.Session
	// Entry is the entitlement snapshot an Authorize decision was made from. It is
	// nil for Authenticate and for decisions that stopped before step 5.
	Entry *entitlements.Entry
}

func bypassed() Decision { return Decision{Kind: Bypassed, Session: auth.BypassSession()} }

func unauthenticated() Decision { return Decision{Kind: Unauthenticated, Session: auth.NoSession()} }

func forbidden(reason string, session auth.Session) Decision {
	return Decision{Kind: Forbidden, Reason: reason, Session: session}
}

func authorized(profileID int64, session auth.Session, entry *entitlements.Entry) Decision {
	return Decision{Kind: Authorized, ProfileID: profileID, Session: session, Entry: entry}
}

// Allowed reports whether the request may proceed.
func (d Decision) Allowed() bool {
	return d.Kind == Bypassed || d.Kind == Authorized
}

// Err converts a denial to its HTTP error: 401 for Unauthenticated, 403 for
// Forbidden. Allowed decisions return nil.
func (d Decision) Err() error {
	switch d.Kind {
	case Unauthenticated:
		return auth.AuthenticationError("authentication required")
	case Forbidden:
		return auth.AuthorizationError(d.Reason)
	default:
		return nil
	}
}

type decisionContextKey struct{}

// WithDecision stores the decision on the context for downstream handlers.
func WithDecision(ctx context.Context, d Decision) context.Context {
	ctx = auth.SetSessionContext(ctx, d.Session)
	return context.WithValue(ctx, decisionContextKey{}, d)
}

// DecisionFromContext returns the decision stored by WithDecision.
func DecisionFromContext(ctx context.Context) (Decision, bool) {
	d, ok := ctx.Value(decisionContextKey{}).(Decision)
	return d, ok
}
