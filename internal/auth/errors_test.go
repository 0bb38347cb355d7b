package auth

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(ConfigurationError("x")))
	assert.Equal(t, http.StatusUnauthorized, HTTPStatus(AuthenticationError("x")))
	assert.Equal(t, http.StatusForbidden, HTTPStatus(AuthorizationError("csrf")))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(DependencyError(errors.New("db down"), "load entitlements")))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("plain")))
}

func TestPublicMessage(t *testing.T) {
	err := DependencyError(errors.New("dial tcp: refused"), "load entitlements")

	assert.Equal(t, "load entitlements", PublicMessage(err, true))
	assert.Equal(t, "load entitlements: dial tcp: refused", PublicMessage(err, false))

	assert.Equal(t, "forbidden: csrf", PublicMessage(AuthorizationError("csrf"), true))

	plain := errors.New("boom")
	assert.Equal(t, "Internal Server Error", PublicMessage(plain, true))
	assert.Equal(t, "boom", PublicMessage(plain, false))
}
