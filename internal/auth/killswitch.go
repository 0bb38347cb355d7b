package auth

import (
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/grantsuite/accessgate/internal/config"
)

// KillSwitch decides whether authentication is enforced at all.
//
// Enforcement requires the explicit enforce flag AND a complete identity provider
// credential set. The flag alone never enables enforcement, so a half-configured
// deployment runs open; in production that state is logged once per process.
type KillSwitch struct {
	cfg    *config.Config
	logger *zap.Logger
	warned atomic.Bool
}

// NewKillSwitch reads cfg on every call, so later changes to cfg.Auth take effect
// without rebuilding the switch.
func NewKillSwitch(cfg *config.Config, logger *zap.Logger) *KillSwitch {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KillSwitch{cfg: cfg, logger: logger}
}

// IsAuthRequired reports whether requests must be authenticated.
func (k *KillSwitch) IsAuthRequired() bool {
	required := k.cfg.Auth.Enforce && k.cfg.Auth.CredentialsComplete()

	if !required && k.cfg.Environment.IsProduction() && k.warned.CompareAndSwap(false, true) {
		k.logger.Warn("authentication is not enforced in production",
			zap.Bool("enforce_flag", k.cfg.Auth.Enforce),
			zap.Bool("credentials_complete", k.cfg.Auth.CredentialsComplete()),
		)
	}

	return required
}
