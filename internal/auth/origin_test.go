package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newRequest(method string, headers map[string]string) *http.Request {
	req := httptest.NewRequest(method, "/api/admin/profiles/42/apps", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return req
}

func TestOriginGuard_SafeMethodsAlwaysPass(t *testing.T) {
	guard := NewOriginGuard("https://grants.example.org", FailClosed, FailClosed, nil)

	for _, method := range []string{http.MethodGet, http.MethodHead, http.MethodOptions} {
		result := guard.ValidateOrigin(newRequest(method, map[string]string{"Origin": "https://evil.example.com"}))
		assert.True(t, result.Valid, method)
		assert.Empty(t, result.Reason, method)
	}
}

func TestOriginGuard_ValidateOrigin(t *testing.T) {
	guard := NewOriginGuard("https://grants.example.org", FailOpen, FailOpen, nil)

	tests := []struct {
		name    string
		headers map[string]string
		valid   bool
		reason  string
	}{
		{name: "matching origin", headers: map[string]string{"Origin": "https://grants.example.org"}, valid: true},
		{name: "explicit default port", headers: map[string]string{"Origin": "https://grants.example.org:443"}, valid: true},
		{name: "host case-insensitive", headers: map[string]string{"Origin": "https://Grants.Example.org"}, valid: true},
		{name: "different origin", headers: map[string]string{"Origin": "https://evil.example.com"}, reason: ReasonOriginMismatch},
		{name: "different scheme", headers: map[string]string{"Origin": "http://grants.example.org"}, reason: ReasonOriginMismatch},
		{name: "different port", headers: map[string]string{"Origin": "https://grants.example.org:8443"}, reason: ReasonOriginMismatch},
		{name: "referer fallback match", headers: map[string]string{"Referer": "https://grants.example.org/apps/reviewer-finder?x=1"}, valid: true},
		{name: "referer fallback mismatch", headers: map[string]string{"Referer": "https://evil.example.com/page"}, reason: ReasonOriginMismatch},
		{name: "origin wins over referer", headers: map[string]string{"Origin": "https://evil.example.com", "Referer": "https://grants.example.org/"}, reason: ReasonOriginMismatch},
		{name: "opaque origin", headers: map[string]string{"Origin": "null"}, reason: ReasonInvalidOrigin},
		{name: "unparsable origin", headers: map[string]string{"Origin": "://bad"}, reason: ReasonInvalidOrigin},
		{name: "no headers", headers: nil, valid: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := guard.ValidateOrigin(newRequest(http.MethodPost, tt.headers))
			assert.Equal(t, tt.valid, result.Valid)
			assert.Equal(t, tt.reason, result.Reason)
		})
	}
}

func TestOriginGuard_MissingHeadersFailClosed(t *testing.T) {
	guard := NewOriginGuard("https://grants.example.org", FailOpen, FailClosed, nil)

	result := guard.ValidateOrigin(newRequest(http.MethodDelete, nil))
	assert.False(t, result.Valid)
	assert.Equal(t, ReasonMissingOrigin, result.Reason)
}

func TestOriginGuard_Unconfigured(t *testing.T) {
	headers := map[string]string{"Origin": "https://anything.example.com"}

	t.Run("empty allowed origin fails open by default", func(t *testing.T) {
		guard := NewOriginGuard("", FailOpen, FailOpen, nil)
		assert.False(t, guard.Configured())
		assert.True(t, guard.ValidateOrigin(newRequest(http.MethodPost, headers)).Valid)
	})

	t.Run("unparsable allowed origin fails open by default", func(t *testing.T) {
		guard := NewOriginGuard("not a url", FailOpen, FailOpen, nil)
		assert.False(t, guard.Configured())
		assert.True(t, guard.ValidateOrigin(newRequest(http.MethodPost, headers)).Valid)
	})

	t.Run("fail closed", func(t *testing.T) {
		guard := NewOriginGuard("", FailClosed, FailOpen, nil)
		result := guard.ValidateOrigin(newRequest(http.MethodPut, headers))
		assert.False(t, result.Valid)
		assert.Equal(t, ReasonOriginUnconfigured, result.Reason)
	})
}

func TestNormalizeOrigin(t *testing.T) {
	got, ok := normalizeOrigin("HTTP://Example.com")
	assert.True(t, ok)
	assert.Equal(t, "http://example.com:80", got)

	got, ok = normalizeOrigin("https://example.com:8443/path")
	assert.True(t, ok)
	assert.Equal(t, "https://example.com:8443", got)

	_, ok = normalizeOrigin("ftp://example.com")
	assert.False(t, ok)
}
