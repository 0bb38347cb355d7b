package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/grantsuite/accessgate/internal/auth"
	"github.com/grantsuite/accessgate/internal/config"
	gatemiddleware "github.com/grantsuite/accessgate/internal/middleware"
	"github.com/grantsuite/accessgate/internal/services/access"
)

// RouterOptions controls the construction of the HTTP router.
type RouterOptions struct {
	Cfg           *config.Config
	Engine        gatemiddleware.Authorizer
	AuthGate      access.AuthGate
	Admin         EntitlementAdmin
	Entitlements  access.EntitlementSource
	MachineSecret *auth.MachineSecretGuard
	Logger        *zap.Logger
	CORSOptions   *cors.Options
	Middleware    []func(http.Handler) http.Handler
}

// DefaultCORSOptions returns the CORS policy for allowedOrigin, or the local
// development origins when none is configured.
func DefaultCORSOptions(allowedOrigin string) cors.Options {
	origins := []string{
		"http://localhost:3000",
		"http://127.0.0.1:3000",
		"http://localhost:5173",
		"http://127.0.0.1:5173",
	}
	if allowedOrigin != "" {
		origins = []string{allowedOrigin}
	}

	return cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{
			"Content-Type",
			"Authorization",
			access.ProfileIDHeader,
		},
		AllowCredentials: true,
		MaxAge:           300,
	}
}

// NewRouter assembles the chi router with shared middleware and every route.
func NewRouter(opts RouterOptions) chi.Router {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	corsCfg := DefaultCORSOptions(opts.Cfg.Auth.AllowedOrigin)
	if opts.CORSOptions != nil {
		corsCfg = *opts.CORSOptions
	}
	r.Use(cors.Handler(corsCfg))

	for _, mw := range opts.Middleware {
		if mw != nil {
			r.Use(mw)
		}
	}

	responder := gatemiddleware.Responder{
		Production: opts.Cfg.Environment.IsProduction(),
		Logger:     logger,
	}
	deps := gatemiddleware.AccessDependencies{Engine: opts.Engine, Responder: responder}
	h := &handlers{
		env:          opts.Cfg.Environment,
		gate:         opts.AuthGate,
		admin:        opts.Admin,
		entitlements: opts.Entitlements,
		responder:    responder,
		logger:       logger,
	}

	r.Get("/health", h.health)

	r.Route("/api", func(r chi.Router) {
		r.With(gatemiddleware.RequireAuthentication(deps)).Get("/auth/session", h.session)
		r.With(gatemiddleware.RequireAccess(deps)).Get("/app-access", h.appAccess)
		r.With(gatemiddleware.RequireAppParam(deps, "appKey")).Get("/apps/{appKey}/access", h.appCheck)

		r.Route("/admin", func(r chi.Router) {
			r.Use(gatemiddleware.RequireSuperuser(deps))
			r.Post("/profiles/{id}/apps", h.grantApp)
			r.Delete("/profiles/{id}/apps/{appKey}", h.revokeApp)
			r.Put("/profiles/{id}/active", h.setActive)
			r.Put("/profiles/{id}/superuser", h.setSuperuser)
			r.Post("/entitlements/invalidate", h.invalidate)
		})

		if opts.MachineSecret != nil {
			r.With(gatemiddleware.RequireMachineSecret(opts.MachineSecret, responder)).
				Post("/cron/entitlements/flush", h.flush)
		} else {
			logger.Warn("machine secret guard not configured, cron routes disabled")
		}
	})

	return r
}

// NewH2CHandler wraps the router with OpenTelemetry instrumentation and h2c.
func NewH2CHandler(opts RouterOptions) http.Handler {
	router := NewRouter(opts)
	return h2c.NewHandler(otelhttp.NewHandler(router, "accessgate"), &http2.Server{})
}
