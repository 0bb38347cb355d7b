package auth

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/grantsuite/accessgate/internal/config"
)

// MachineSecretGuard authenticates scheduled and maintenance callers that present
// "Authorization: Bearer <secret>".
type MachineSecretGuard struct {
	env    config.Environment
	secret string
}

// NewMachineSecretGuard builds a guard for the configured cron secret.
func NewMachineSecretGuard(env config.Environment, secret string) *MachineSecretGuard {
	return &MachineSecretGuard{env: env, secret: secret}
}

// Check returns nil when the caller is admitted. The check is skipped in development.
// A missing secret in any other environment is a configuration error (500); a
// missing or wrong credential is an authentication error (401).
func (g *MachineSecretGuard) Check(r *http.Request) error {
	if g.env.IsDevelopment() {
		return nil
	}
	if g.secret == "" {
		return ConfigurationError("machine secret is not configured")
	}

	header := r.Header.Get("Authorization")
	presented, found := strings.CutPrefix(header, "Bearer ")
	if !found || presented == "" {
		return AuthenticationError("missing machine credential")
	}

	if subtle.ConstantTimeCompare([]byte(presented), []byte(g.secret)) != 1 {
		return AuthenticationError("invalid machine credential")
	}

	return nil
}
