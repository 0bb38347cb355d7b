package auth

import (
	"errors"
	"net/http"

	goerrors "github.com/goliatone/go-errors"
)

// Text codes carried on the rich errors returned by the guards and the access engine.
const (
	TextCodeConfiguration   = "CONFIGURATION_ERROR"
	TextCodeUnauthenticated = "UNAUTHENTICATED"
	TextCodeDependency      = "DEPENDENCY_UNAVAILABLE"
)

// ErrInvalidCredential is wrapped by resolvers when a credential is present but
// cannot be verified. A missing credential is not an error.
var ErrInvalidCredential = errors.New("invalid credential")

// ConfigurationError reports a deployment misconfiguration (HTTP 500).
func ConfigurationError(message string) *goerrors.Error {
	return goerrors.New(message, goerrors.CategoryInternal).
		WithCode(http.StatusInternalServerError).
		WithTextCode(TextCodeConfiguration)
}

// AuthenticationError reports a missing or invalid credential (HTTP 401).
func AuthenticationError(message string) *goerrors.Error {
	return goerrors.New(message, goerrors.CategoryAuth).
		WithCode(http.StatusUnauthorized).
		WithTextCode(TextCodeUnauthenticated)
}

// AuthorizationError reports an authenticated caller lacking a permission (HTTP 403).
// The reason doubles as the text code.
func AuthorizationError(reason string) *goerrors.Error {
	return goerrors.New("forbidden: "+reason, goerrors.CategoryAuthz).
		WithCode(http.StatusForbidden).
		WithTextCode(reason)
}

// DependencyError wraps a failure of the relational store or the shared cache (HTTP 500).
func DependencyError(err error, message string) *goerrors.Error {
	return goerrors.Wrap(err, goerrors.CategoryExternal, message).
		WithCode(http.StatusInternalServerError).
		WithTextCode(TextCodeDependency)
}

// HTTPStatus maps an error to its response status. Unclassified errors are 500.
func HTTPStatus(err error) int {
	var rich *goerrors.Error
	if goerrors.As(err, &rich) && rich.Code != 0 {
		return rich.Code
	}
	return http.StatusInternalServerError
}

// PublicMessage returns the message written to clients. Wrapped detail is only
// exposed outside production.
func PublicMessage(err error, production bool) string {
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		if production {
			return http.StatusText(http.StatusInternalServerError)
		}
		return err.Error()
	}
	if production || rich.Source == nil {
		return rich.Message
	}
	return rich.Message + ": " + rich.Source.Error()
}
