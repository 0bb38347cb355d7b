package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/xenitab/go-oidc-middleware/oidctoken"
	"github.com/xenitab/go-oidc-middleware/options"
)

// TokenParser verifies a raw token and returns its claims.
// *oidctoken.TokenHandler[map[string]any] satisfies it.
type TokenParser interface {
	ParseToken(ctx context.Context, tokenString string) (map[string]any, error)
}

// BearerSessionResolver verifies identity provider tokens sent as
// "Authorization: Bearer <jwt>".
type BearerSessionResolver struct {
	parser       TokenParser
	profileClaim string
	tokenStrings [][]options.TokenStringOption
}

// NewOIDCTokenParser builds a JWKS-backed parser requiring audience = clientID.
// Keys are fetched lazily so startup does not depend on the identity provider.
func NewOIDCTokenParser(issuer, clientID string) (TokenParser, error) {
	if issuer == "" {
		return nil, errors.New("oidc issuer is required")
	}
	if clientID == "" {
		return nil, errors.New("oidc client id is required")
	}

	handler, err := oidctoken.New[map[string]any](nil,
		options.WithIssuer(issuer),
		options.WithRequiredAudience(clientID),
		options.WithLazyLoadJwks(true),
	)
	if err != nil {
		return nil, fmt.Errorf("initialise oidc token handler: %w", err)
	}
	return handler, nil
}

// NewBearerSessionResolver wraps parser.
func NewBearerSessionResolver(parser TokenParser, profileClaim string) *BearerSessionResolver {
	if profileClaim == "" {
		profileClaim = "profile_id"
	}
	return &BearerSessionResolver{
		parser:       parser,
		profileClaim: profileClaim,
		tokenStrings: [][]options.TokenStringOption{{}}, // Authorization: Bearer
	}
}

// ResolveSession implements SessionResolver.
func (b *BearerSessionResolver) ResolveSession(ctx context.Context, r *http.Request) (Session, error) {
	header := r.Header.Get("Authorization")
	if len(header) < len("Bearer ") || !strings.EqualFold(header[:len("Bearer ")], "Bearer ") {
		return NoSession(), nil
	}

	token, err := oidctoken.GetTokenString(r.Header.Get, b.tokenStrings)
	if err != nil || strings.TrimSpace(token) == "" {
		return NoSession(), fmt.Errorf("%w: unable to extract bearer token", ErrInvalidCredential)
	}

	claims, err := b.parser.ParseToken(ctx, strings.TrimSpace(token))
	if err != nil {
		return NoSession(), fmt.Errorf("%w: bearer token: %v", ErrInvalidCredential, err)
	}

	subject, profileID, err := decodeIdentity(claims, b.profileClaim)
	if err != nil {
		return NoSession(), err
	}

	return ResolvedSession(subject, profileID, MethodBearer), nil
}
