package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func int64Ptr(v int64) *int64 { return &v }

func TestGetProfileID(t *testing.T) {
	id, ok := GetProfileID(ResolvedSession("user-1", int64Ptr(42), MethodCookie))
	assert.True(t, ok)
	assert.Equal(t, int64(42), id)

	_, ok = GetProfileID(ResolvedSession("user-1", nil, MethodCookie))
	assert.False(t, ok, "identity never linked")

	_, ok = GetProfileID(NoSession())
	assert.False(t, ok)

	_, ok = GetProfileID(BypassSession())
	assert.False(t, ok)
}

func TestDecodeIdentity(t *testing.T) {
	tests := []struct {
		name    string
		claims  map[string]any
		subject string
		profile *int64
		wantErr bool
	}{
		{name: "numeric profile", claims: map[string]any{"sub": "u1", "profile_id": float64(42)}, subject: "u1", profile: int64Ptr(42)},
		{name: "string profile", claims: map[string]any{"sub": "u1", "profile_id": "42"}, subject: "u1", profile: int64Ptr(42)},
		{name: "absent profile", claims: map[string]any{"sub": "u1"}, subject: "u1"},
		{name: "null profile", claims: map[string]any{"sub": "u1", "profile_id": nil}, subject: "u1"},
		{name: "zero profile", claims: map[string]any{"sub": "u1", "profile_id": 0}, subject: "u1"},
		{name: "garbage profile", claims: map[string]any{"sub": "u1", "profile_id": "abc"}, wantErr: true},
		{name: "missing subject", claims: map[string]any{"profile_id": 42}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			subject, profile, err := decodeIdentity(tt.claims, "profile_id")
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidCredential)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.subject, subject)
			assert.Equal(t, tt.profile, profile)
		})
	}
}

func TestCookieSessionResolver(t *testing.T) {
	resolver, err := NewCookieSessionResolver("", "session-secret", "https://grants.example.org", "")
	require.NoError(t, err)
	assert.Equal(t, DefaultSessionCookieName, resolver.CookieName())
	ctx := context.Background()

	requestWithCookie := func(value string) *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/api/app-access", nil)
		req.AddCookie(&http.Cookie{Name: DefaultSessionCookieName, Value: value})
		return req
	}

	t.Run("no cookie", func(t *testing.T) {
		session, err := resolver.ResolveSession(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
		require.NoError(t, err)
		assert.Equal(t, SessionNone, session.Kind)
	})

	t.Run("valid linked token", func(t *testing.T) {
		token, err := resolver.SignSessionToken("user-1", int64Ptr(42), time.Hour)
		require.NoError(t, err)

		session, err := resolver.ResolveSession(ctx, requestWithCookie(token))
		require.NoError(t, err)
		assert.Equal(t, SessionResolved, session.Kind)
		assert.Equal(t, "user-1", session.UserID)
		assert.Equal(t, MethodCookie, session.Method)
		id, ok := GetProfileID(session)
		assert.True(t, ok)
		assert.Equal(t, int64(42), id)
	})

	t.Run("valid unlinked token", func(t *testing.T) {
		token, err := resolver.SignSessionToken("user-2", nil, time.Hour)
		require.NoError(t, err)

		session, err := resolver.ResolveSession(ctx, requestWithCookie(token))
		require.NoError(t, err)
		assert.Equal(t, SessionResolved, session.Kind)
		assert.Nil(t, session.ProfileID)
	})

	t.Run("expired token", func(t *testing.T) {
		token, err := resolver.SignSessionToken("user-1", int64Ptr(42), -time.Hour)
		require.NoError(t, err)

		session, err := resolver.ResolveSession(ctx, requestWithCookie(token))
		assert.ErrorIs(t, err, ErrInvalidCredential)
		assert.Equal(t, SessionNone, session.Kind)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other, err := NewCookieSessionResolver("", "other-secret", "https://grants.example.org", "")
		require.NoError(t, err)
		token, err := other.SignSessionToken("user-1", int64Ptr(42), time.Hour)
		require.NoError(t, err)

		_, err = resolver.ResolveSession(ctx, requestWithCookie(token))
		assert.ErrorIs(t, err, ErrInvalidCredential)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other, err := NewCookieSessionResolver("", "session-secret", "https://elsewhere.example.org", "")
		require.NoError(t, err)
		token, err := other.SignSessionToken("user-1", int64Ptr(42), time.Hour)
		require.NoError(t, err)

		_, err = resolver.ResolveSession(ctx, requestWithCookie(token))
		assert.ErrorIs(t, err, ErrInvalidCredential)
	})

	t.Run("missing expiry", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"sub": "user-1",
			"iss": "https://grants.example.org",
		}).SignedString([]byte("session-secret"))
		require.NoError(t, err)

		_, err = resolver.ResolveSession(ctx, requestWithCookie(token))
		assert.ErrorIs(t, err, ErrInvalidCredential)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := resolver.ResolveSession(ctx, requestWithCookie("not-a-jwt"))
		assert.ErrorIs(t, err, ErrInvalidCredential)
	})
}

func TestNewCookieSessionResolver_RequiresSecret(t *testing.T) {
	_, err := NewCookieSessionResolver("cookie", "", "", "")
	assert.Error(t, err)
}

type fakeTokenParser struct {
	claims map[string]any
	err    error
	tokens []string
}

func (f *fakeTokenParser) ParseToken(_ context.Context, token string) (map[string]any, error) {
	f.tokens = append(f.tokens, token)
	return f.claims, f.err
}

func TestBearerSessionResolver(t *testing.T) {
	ctx := context.Background()

	t.Run("no authorization header", func(t *testing.T) {
		parser := &fakeTokenParser{}
		resolver := NewBearerSessionResolver(parser, "")

		session, err := resolver.ResolveSession(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
		require.NoError(t, err)
		assert.Equal(t, SessionNone, session.Kind)
		assert.Empty(t, parser.tokens)
	})

	t.Run("non-bearer scheme", func(t *testing.T) {
		parser := &fakeTokenParser{}
		resolver := NewBearerSessionResolver(parser, "")

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
		session, err := resolver.ResolveSession(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, SessionNone, session.Kind)
	})

	t.Run("valid token with custom claim", func(t *testing.T) {
		parser := &fakeTokenParser{claims: map[string]any{"sub": "idp-user", "extension_profileId": "7"}}
		resolver := NewBearerSessionResolver(parser, "extension_profileId")

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer abc.def.ghi")
		session, err := resolver.ResolveSession(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, SessionResolved, session.Kind)
		assert.Equal(t, MethodBearer, session.Method)
		assert.Equal(t, []string{"abc.def.ghi"}, parser.tokens)
		id, ok := GetProfileID(session)
		assert.True(t, ok)
		assert.Equal(t, int64(7), id)
	})

	t.Run("rejected token", func(t *testing.T) {
		parser := &fakeTokenParser{err: errors.New("signature invalid")}
		resolver := NewBearerSessionResolver(parser, "")

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer abc.def.ghi")
		session, err := resolver.ResolveSession(ctx, req)
		assert.ErrorIs(t, err, ErrInvalidCredential)
		assert.Equal(t, SessionNone, session.Kind)
	})
}

func TestNewOIDCTokenParser_Validation(t *testing.T) {
	_, err := NewOIDCTokenParser("", "client")
	assert.Error(t, err)

	_, err = NewOIDCTokenParser("https://idp.example.com", "")
	assert.Error(t, err)
}

func TestChainResolver(t *testing.T) {
	ctx := context.Background()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	none := SessionResolverFunc(func(context.Context, *http.Request) (Session, error) {
		return NoSession(), nil
	})
	resolved := SessionResolverFunc(func(context.Context, *http.Request) (Session, error) {
		return ResolvedSession("user-1", int64Ptr(1), MethodBearer), nil
	})
	invalid := SessionResolverFunc(func(context.Context, *http.Request) (Session, error) {
		return NoSession(), ErrInvalidCredential
	})

	t.Run("first resolved wins", func(t *testing.T) {
		calls := 0
		counting := SessionResolverFunc(func(context.Context, *http.Request) (Session, error) {
			calls++
			return NoSession(), nil
		})
		session, err := NewChainResolver(none, resolved, counting).ResolveSession(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, "user-1", session.UserID)
		assert.Zero(t, calls)
	})

	t.Run("invalid credential stops the chain", func(t *testing.T) {
		session, err := NewChainResolver(invalid, resolved).ResolveSession(ctx, req)
		assert.ErrorIs(t, err, ErrInvalidCredential)
		assert.Equal(t, SessionNone, session.Kind)
	})

	t.Run("nothing resolved", func(t *testing.T) {
		session, err := NewChainResolver(none, nil).ResolveSession(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, SessionNone, session.Kind)
	})
}

func TestSessionContext(t *testing.T) {
	_, ok := GetSessionFromContext(context.Background())
	assert.False(t, ok)

	ctx := SetSessionContext(context.Background(), ResolvedSession("u", nil, MethodCookie))
	session, ok := GetSessionFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, "u", session.UserID)
}
