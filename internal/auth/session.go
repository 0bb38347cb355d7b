package auth

import (
	"context"
	"fmt"
	"net/http"

	"github.com/mitchellh/mapstructure"
)

// SessionKind tags the Session variant.
type SessionKind int

const (
	// SessionNone: no (valid) credential was presented.
	SessionNone SessionKind = iota
	// SessionBypass: enforcement is off and no identity was resolved.
	SessionBypass
	// SessionResolved: a verified identity, possibly not yet linked to a profile.
	SessionResolved
)

func (k SessionKind) String() string {
	switch k {
	case SessionBypass:
		return "bypass"
	case SessionResolved:
		return "resolved"
	default:
		return "none"
	}
}

// CredentialMethod names the credential that produced a resolved session.
type CredentialMethod string

const (
	MethodCookie CredentialMethod = "cookie"
	MethodBearer CredentialMethod = "bearer"
)

// Session is the per-request identity. It is never persisted.
type Session struct {
	Kind      SessionKind
	UserID    string
	ProfileID *int64 // nil until the identity is linked to a profile
	Method    CredentialMethod
}

// NoSession is returned when no credential is present or a credential is invalid.
func NoSession() Session { return Session{Kind: SessionNone} }

// BypassSession is attached to requests admitted while enforcement is off.
func BypassSession() Session { return Session{Kind: SessionBypass} }

// ResolvedSession builds a resolved session for userID.
func ResolvedSession(userID string, profileID *int64, method CredentialMethod) Session {
	return Session{Kind: SessionResolved, UserID: userID, ProfileID: profileID, Method: method}
}

// GetProfileID returns the linked profile id of a resolved session.
func GetProfileID(s Session) (int64, bool) {
	if s.Kind != SessionResolved || s.ProfileID == nil {
		return 0, false
	}
	return *s.ProfileID, true
}

// SessionResolver extracts the identity of a request.
//
// Contract:
//   - (NoSession(), nil): no credential present
//   - (NoSession(), err): credential present but invalid or expired
//   - (resolved, nil): identity verified
type SessionResolver interface {
	ResolveSession(ctx context.Context, r *http.Request) (Session, error)
}

// SessionResolverFunc adapts a function to SessionResolver.
type SessionResolverFunc func(ctx context.Context, r *http.Request) (Session, error)

// ResolveSession calls f.
func (f SessionResolverFunc) ResolveSession(ctx context.Context, r *http.Request) (Session, error) {
	return f(ctx, r)
}

// ChainResolver tries resolvers in order and returns the first resolved session.
// An invalid credential stops the chain.
type ChainResolver struct {
	resolvers []SessionResolver
}

// NewChainResolver skips nil resolvers so optional credential sources can be passed
// unconditionally.
func NewChainResolver(resolvers ...SessionResolver) *ChainResolver {
	chain := &ChainResolver{}
	for _, r := range resolvers {
		if r != nil {
			chain.resolvers = append(chain.resolvers, r)
		}
	}
	return chain
}

// ResolveSession implements SessionResolver.
func (c *ChainResolver) ResolveSession(ctx context.Context, r *http.Request) (Session, error) {
	for _, resolver := range c.resolvers {
		session, err := resolver.ResolveSession(ctx, r)
		if err != nil {
			return NoSession(), err
		}
		if session.Kind == SessionResolved {
			return session, nil
		}
	}
	return NoSession(), nil
}

// identityClaims is the subset of token claims a session is built from.
type identityClaims struct {
	Subject   string `mapstructure:"sub"`
	ProfileID *int64 `mapstructure:"profile_id"`
}

// decodeIdentity reads the subject and the configured profile claim. Profile ids may
// arrive as JSON numbers or strings; zero, negative or absent ids mean "not linked".
func decodeIdentity(claims map[string]any, profileClaim string) (string, *int64, error) {
	var out identityClaims
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &out,
	})
	if err != nil {
		return "", nil, fmt.Errorf("build claims decoder: %w", err)
	}

	input := map[string]any{"sub": claims["sub"]}
	if raw, ok := claims[profileClaim]; ok && raw != nil {
		input["profile_id"] = raw
	}
	if err := decoder.Decode(input); err != nil {
		return "", nil, fmt.Errorf("%w: decode claims: %v", ErrInvalidCredential, err)
	}

	if out.Subject == "" {
		return "", nil, fmt.Errorf("%w: token missing sub claim", ErrInvalidCredential)
	}
	if out.ProfileID != nil && *out.ProfileID <= 0 {
		out.ProfileID = nil
	}

	return out.Subject, out.ProfileID, nil
}
