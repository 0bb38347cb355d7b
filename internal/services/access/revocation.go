package access

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/grantsuite/accessgate/internal/auth"
	"github.com/grantsuite/accessgate/internal/repository"
)

// ActiveFlagReader reads profiles.is_active. repository.ProfileRepository satisfies it.
type ActiveFlagReader interface {
	IsActive(ctx context.Context, profileID int64) (bool, error)
}

// RevocationChecker reads the active flag on every call, independent of the
// entitlement cache.
type RevocationChecker struct {
	reader       ActiveFlagReader
	onStoreError auth.FailureMode
	logger       *zap.Logger
}

// NewRevocationChecker builds a checker. onStoreError decides the answer when the
// store cannot be read.
func NewRevocationChecker(reader ActiveFlagReader, onStoreError auth.FailureMode, logger *zap.Logger) *RevocationChecker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RevocationChecker{reader: reader, onStoreError: onStoreError, logger: logger}
}

// CheckActive reports whether the profile may act. Unknown profiles are inactive.
func (c *RevocationChecker) CheckActive(ctx context.Context, profileID int64) bool {
	active, err := c.reader.IsActive(ctx, profileID)
	switch {
	case err == nil:
		return active
	case errors.Is(err, repository.ErrNotFound):
		return false
	case c.onStoreError == auth.FailClosed:
		c.logger.Error("revocation check failed, denying",
			zap.Int64("profile_id", profileID), zap.Error(err))
		return false
	default:
		c.logger.Warn("revocation check failed, allowing",
			zap.Int64("profile_id", profileID), zap.Error(err))
		return true
	}
}
