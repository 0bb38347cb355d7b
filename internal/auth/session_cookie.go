package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultSessionCookieName is used when no cookie name is configured.
const DefaultSessionCookieName = "accessgate.session"

// CookieSessionResolver verifies the HS256 session token minted at sign-in and
// carried in a cookie.
type CookieSessionResolver struct {
	cookieName   string
	secret       []byte
	issuer       string
	profileClaim string
}

// NewCookieSessionResolver returns an error when the signing secret is empty.
// An empty issuer disables the issuer check.
func NewCookieSessionResolver(cookieName, secret, issuer, profileClaim string) (*CookieSessionResolver, error) {
	if secret == "" {
		return nil, errors.New("session secret is required")
	}
	if cookieName == "" {
		cookieName = DefaultSessionCookieName
	}
	if profileClaim == "" {
		profileClaim = "profile_id"
	}
	return &CookieSessionResolver{
		cookieName:   cookieName,
		secret:       []byte(secret),
		issuer:       issuer,
		profileClaim: profileClaim,
	}, nil
}

// ResolveSession implements SessionResolver.
func (c *CookieSessionResolver) ResolveSession(_ context.Context, r *http.Request) (Session, error) {
	cookie, err := r.Cookie(c.cookieName)
	if err != nil || cookie.Value == "" {
		return NoSession(), nil
	}

	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(5 * time.Second),
	}
	if c.issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(c.issuer))
	}

	claims := jwt.MapClaims{}
	_, err = jwt.ParseWithClaims(cookie.Value, claims, func(*jwt.Token) (any, error) {
		return c.secret, nil
	}, parserOpts...)
	if err != nil {
		return NoSession(), fmt.Errorf("%w: session cookie: %v", ErrInvalidCredential, err)
	}

	subject, profileID, err := decodeIdentity(claims, c.profileClaim)
	if err != nil {
		return NoSession(), err
	}

	return ResolvedSession(subject, profileID, MethodCookie), nil
}

// SignSessionToken mints a session token accepted by a resolver built with the same
// secret, issuer and profile claim. A nil profileID mints an unlinked identity.
func (c *CookieSessionResolver) SignSessionToken(subject string, profileID *int64, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": subject,
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	}
	if c.issuer != "" {
		claims["iss"] = c.issuer
	}
	if profileID != nil {
		claims[c.profileClaim] = *profileID
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return token, nil
}

// CookieName is the name of the cookie the resolver reads.
func (c *CookieSessionResolver) CookieName() string {
	return c.cookieName
}
