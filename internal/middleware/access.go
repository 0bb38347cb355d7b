package middleware

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/grantsuite/accessgate/internal/auth"
	"github.com/grantsuite/accessgate/internal/services/access"
)

// Authorizer is the part of access.Engine the middleware depends on.
type Authorizer interface {
	Authorize(ctx context.Context, r *http.Request, requiredApps ...string) (access.Decision, error)
	Authenticate(ctx context.Context, r *http.Request) (access.Decision, error)
}

// AccessDependencies provides the collaborators of the access middleware.
type AccessDependencies struct {
	Engine    Authorizer
	Responder Responder
}

// RequireAccess admits requests authorized for at least one of apps. With no apps,
// any active linked identity is admitted. The decision is stored on the context.
func RequireAccess(deps AccessDependencies, apps ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			decision, err := deps.Engine.Authorize(r.Context(), r, apps...)
			admit(deps.Responder, next, w, r, decision, err)
		})
	}
}

// RequireAppParam is RequireAccess with the app key taken from a chi URL parameter.
func RequireAppParam(deps AccessDependencies, param string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			decision, err := deps.Engine.Authorize(r.Context(), r, chi.URLParam(r, param))
			admit(deps.Responder, next, w, r, decision, err)
		})
	}
}

// RequireAuthentication admits requests carrying a valid identity of an active
// profile, without consulting app grants.
func RequireAuthentication(deps AccessDependencies) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			decision, err := deps.Engine.Authenticate(r.Context(), r)
			admit(deps.Responder, next, w, r, decision, err)
		})
	}
}

// RequireSuperuser admits superusers, and every request while enforcement is off.
func RequireSuperuser(deps AccessDependencies) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			decision, err := deps.Engine.Authorize(r.Context(), r)
			if err == nil && decision.Kind == access.Authorized && !decision.Entry.IsSuperuser {
				deps.Responder.WriteError(w, r, auth.AuthorizationError("superuser-required"))
				return
			}
			admit(deps.Responder, next, w, r, decision, err)
		})
	}
}

// RequireMachineSecret admits callers presenting the configured machine secret.
func RequireMachineSecret(guard *auth.MachineSecretGuard, responder Responder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := guard.Check(r); err != nil {
				responder.WriteError(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func admit(responder Responder, next http.Handler, w http.ResponseWriter, r *http.Request, decision access.Decision, err error) {
	if err != nil {
		responder.WriteError(w, r, err)
		return
	}
	if !decision.Allowed() {
		responder.WriteError(w, r, decision.Err())
		return
	}
	next.ServeHTTP(w, r.WithContext(access.WithDecision(r.Context(), decision)))
}
