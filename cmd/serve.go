package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/grantsuite/accessgate/cmd/cmdutil"
	"github.com/grantsuite/accessgate/internal/auth"
	"github.com/grantsuite/accessgate/internal/logging"
	"github.com/grantsuite/accessgate/internal/server"
	"github.com/grantsuite/accessgate/internal/services/access"
	"github.com/grantsuite/accessgate/internal/telemetry"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the access gate HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		logger, err := logging.New(cfg)
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		shutdownTelemetry, err := telemetry.Init(ctx, cfg.Observability, logger)
		if err != nil {
			return fmt.Errorf("initialize telemetry: %w", err)
		}
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdownTelemetry(sctx); err != nil {
				logger.Warn("telemetry shutdown failed", zap.Error(err))
			}
		}()

		metrics, err := telemetry.NewAccessMetrics()
		if err != nil {
			return fmt.Errorf("create access metrics: %w", err)
		}

		bundle, err := cmdutil.NewEntitlementBundle(ctx, cfg, cmdutil.BundleOptions{
			Logger:   logger,
			Observer: metrics,
		})
		if err != nil {
			return err
		}
		defer bundle.Close()
		logger.Info("connected to database")

		policy, err := access.PolicyFromConfig(cfg.Auth.Policy)
		if err != nil {
			return err
		}

		sessions, err := buildSessionResolver(logger)
		if err != nil {
			return err
		}

		gate := auth.NewKillSwitch(cfg, logger)
		engine := access.NewEngine(
			gate,
			auth.NewOriginGuard(cfg.Auth.AllowedOrigin, policy.OnOriginUnconfigured, policy.OnMissingOriginHeaders, logger),
			sessions,
			bundle.Cache,
			access.NewRevocationChecker(bundle.Profiles, policy.OnRevocationStoreError, logger),
			access.WithLogger(logger),
			access.WithRecorder(metrics),
		)
		logger.Info("access engine ready",
			zap.Bool("auth_enforced", gate.IsAuthRequired()),
			zap.String("environment", string(cfg.Environment)),
			zap.Duration("cache_ttl", bundle.Cache.TTL()))

		if cfg.Environment.IsDevelopment() {
			logger.Warn("machine secret check skipped in development, cron routes are open")
		} else if cfg.Auth.CronSecret == "" {
			logger.Warn("auth.cron_secret not set, cron routes will fail with 500")
		}

		handler := server.NewH2CHandler(server.RouterOptions{
			Cfg:           cfg,
			Engine:        engine,
			AuthGate:      gate,
			Admin:         bundle.Manager,
			Entitlements:  bundle.Cache,
			MachineSecret: auth.NewMachineSecretGuard(cfg.Environment, cfg.Auth.CronSecret),
			Logger:        logger,
		})

		srv := &http.Server{
			Addr:         cfg.ServerAddr,
			Handler:      handler,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		}

		serverErrors := make(chan error, 1)
		go func() {
			logger.Info("starting server", zap.String("addr", cfg.ServerAddr))
			serverErrors <- srv.ListenAndServe()
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		// SIGHUP drops every cached entitlement entry.
		flush := make(chan os.Signal, 1)
		signal.Notify(flush, syscall.SIGHUP)

		for {
			select {
			case err := <-serverErrors:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return fmt.Errorf("server error: %w", err)

			case sig := <-flush:
				fctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				if err := bundle.Manager.InvalidateAll(fctx); err != nil {
					logger.Error("entitlement cache flush failed", zap.Stringer("signal", sig), zap.Error(err))
				} else {
					logger.Info("entitlement cache flushed", zap.Stringer("signal", sig))
				}
				cancel()

			case sig := <-shutdown:
				logger.Info("shutting down gracefully", zap.Stringer("signal", sig))

				sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()

				if err := srv.Shutdown(sctx); err != nil {
					_ = srv.Close()
					return fmt.Errorf("graceful shutdown failed: %w", err)
				}

				logger.Info("server stopped")
				return nil
			}
		}
	},
}

// buildSessionResolver chains the cookie resolver and, when the identity provider is
// configured, the bearer resolver. With neither available every request resolves to
// no session, which only matters while enforcement is on.
func buildSessionResolver(logger *zap.Logger) (auth.SessionResolver, error) {
	var resolvers []auth.SessionResolver

	if cfg.Auth.SessionSecret != "" {
		cookies, err := auth.NewCookieSessionResolver(cfg.Auth.SessionCookie, cfg.Auth.SessionSecret, "", cfg.Auth.ProfileClaim)
		if err != nil {
			return nil, fmt.Errorf("configure session cookie: %w", err)
		}
		resolvers = append(resolvers, cookies)
	} else {
		logger.Warn("session cookie disabled (auth.session_secret not set)")
	}

	if cfg.Auth.IdP.Issuer != "" && cfg.Auth.IdP.ClientID != "" {
		parser, err := auth.NewOIDCTokenParser(cfg.Auth.IdP.Issuer, cfg.Auth.IdP.ClientID)
		if err != nil {
			return nil, fmt.Errorf("configure bearer tokens: %w", err)
		}
		resolvers = append(resolvers, auth.NewBearerSessionResolver(parser, cfg.Auth.ProfileClaim))
	}

	return auth.NewChainResolver(resolvers...), nil
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
