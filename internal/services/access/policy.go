package access

import (
	"fmt"

	"github.com/grantsuite/accessgate/internal/auth"
	"github.com/grantsuite/accessgate/internal/config"
)

// Policy collects the fail-open/fail-closed choices of the engine's collaborators
// so they are made in one place.
type Policy struct {
	// OnRevocationStoreError applies when the active flag cannot be read.
	OnRevocationStoreError auth.FailureMode
	// OnOriginUnconfigured applies when no usable allowed origin is configured.
	OnOriginUnconfigured auth.FailureMode
	// OnMissingOriginHeaders applies when a state-changing request carries neither
	// Origin nor Referer.
	OnMissingOriginHeaders auth.FailureMode
}

// DefaultPolicy fails open everywhere.
func DefaultPolicy() Policy {
	return Policy{
		OnRevocationStoreError: auth.FailOpen,
		OnOriginUnconfigured:   auth.FailOpen,
		OnMissingOriginHeaders: auth.FailOpen,
	}
}

// PolicyFromConfig parses the configured failure modes.
func PolicyFromConfig(cfg config.PolicyConfig) (Policy, error) {
	var (
		p   Policy
		err error
	)
	if p.OnRevocationStoreError, err = auth.ParseFailureMode(cfg.RevocationStoreError); err != nil {
		return Policy{}, fmt.Errorf("auth.policy.revocation_store_error: %w", err)
	}
	if p.OnOriginUnconfigured, err = auth.ParseFailureMode(cfg.OriginUnconfigured); err != nil {
		return Policy{}, fmt.Errorf("auth.policy.origin_unconfigured: %w", err)
	}
	if p.OnMissingOriginHeaders, err = auth.ParseFailureMode(cfg.MissingOriginHeaders); err != nil {
		return Policy{}, fmt.Errorf("auth.policy.missing_origin_headers: %w", err)
	}
	return p, nil
}
