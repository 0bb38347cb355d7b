package entitlements

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"

	goerrors "github.com/goliatone/go-errors"
	"go.uber.org/zap"

	"github.com/grantsuite/accessgate/internal/db/models"
	"github.com/grantsuite/accessgate/internal/repository"
)

var appKeyPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// ValidateAppKey accepts lower-case kebab-case keys such as "reviewer-finder".
func ValidateAppKey(appKey string) error {
	if len(appKey) > 64 || !appKeyPattern.MatchString(appKey) {
		return goerrors.New(fmt.Sprintf("invalid app key %q: expected lower-case kebab-case", appKey), goerrors.CategoryBadInput).
			WithCode(http.StatusBadRequest).
			WithTextCode("INVALID_APP_KEY")
	}
	return nil
}

func profileNotFound(profileID int64, cause error) error {
	return goerrors.Wrap(cause, goerrors.CategoryNotFound, fmt.Sprintf("profile %d not found", profileID)).
		WithCode(http.StatusNotFound).
		WithTextCode("PROFILE_NOT_FOUND")
}

// Invalidator is the part of Cache writers depend on.
type Invalidator interface {
	Invalidate(ctx context.Context, profileID int64) error
	InvalidateAll(ctx context.Context) error
}

// ProfileSummary describes a profile with its grants and roles.
type ProfileSummary struct {
	Profile models.Profile
	Apps    []string
	Roles   []string
}

// Manager applies entitlement writes and invalidates the affected cache entry after
// each successful write.
type Manager struct {
	profiles      repository.ProfileRepository
	grants        repository.AppGrantRepository
	roles         repository.ProfileRoleRepository
	cache         Invalidator
	superuserRole string
	logger        *zap.Logger
}

// NewManager wires the repositories to cache.
func NewManager(
	profiles repository.ProfileRepository,
	grants repository.AppGrantRepository,
	roles repository.ProfileRoleRepository,
	cache Invalidator,
	superuserRole string,
	logger *zap.Logger,
) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		profiles:      profiles,
		grants:        grants,
		roles:         roles,
		cache:         cache,
		superuserRole: superuserRole,
		logger:        logger,
	}
}

// GrantApp grants appKey to a profile. grantedBy is nil for system or CLI writes.
func (m *Manager) GrantApp(ctx context.Context, profileID int64, appKey string, grantedBy *int64) error {
	if err := ValidateAppKey(appKey); err != nil {
		return err
	}
	if err := m.ensureProfile(ctx, profileID); err != nil {
		return err
	}

	err := m.grants.Grant(ctx, &models.ProfileApp{
		ProfileID: profileID,
		AppKey:    appKey,
		GrantedBy: grantedBy,
	})
	if err != nil {
		return err
	}

	m.logger.Info("app granted", zap.Int64("profile_id", profileID), zap.String("app_key", appKey))
	return m.cache.Invalidate(ctx, profileID)
}

// RevokeApp removes a grant. Revoking a key that was never granted succeeds.
func (m *Manager) RevokeApp(ctx context.Context, profileID int64, appKey string) error {
	if err := ValidateAppKey(appKey); err != nil {
		return err
	}
	if err := m.grants.Revoke(ctx, profileID, appKey); err != nil {
		return err
	}

	m.logger.Info("app revoked", zap.Int64("profile_id", profileID), zap.String("app_key", appKey))
	return m.cache.Invalidate(ctx, profileID)
}

// SetActive enables or disables a profile.
func (m *Manager) SetActive(ctx context.Context, profileID int64, active bool) error {
	if err := m.profiles.SetActive(ctx, profileID, active); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return profileNotFound(profileID, err)
		}
		return err
	}

	m.logger.Info("profile active flag changed", zap.Int64("profile_id", profileID), zap.Bool("active", active))
	return m.cache.Invalidate(ctx, profileID)
}

// SetSuperuser assigns or removes the superuser role.
func (m *Manager) SetSuperuser(ctx context.Context, profileID int64, superuser bool) error {
	if err := m.ensureProfile(ctx, profileID); err != nil {
		return err
	}

	var err error
	if superuser {
		err = m.roles.Assign(ctx, profileID, m.superuserRole)
	} else {
		err = m.roles.Remove(ctx, profileID, m.superuserRole)
	}
	if err != nil {
		return err
	}

	m.logger.Info("superuser role changed", zap.Int64("profile_id", profileID), zap.Bool("superuser", superuser))
	return m.cache.Invalidate(ctx, profileID)
}

// Invalidate drops one cached entry without a write.
func (m *Manager) Invalidate(ctx context.Context, profileID int64) error {
	return m.cache.Invalidate(ctx, profileID)
}

// InvalidateAll drops every cached entry.
func (m *Manager) InvalidateAll(ctx context.Context) error {
	return m.cache.InvalidateAll(ctx)
}

// ListProfiles returns every profile with its grants and roles.
func (m *Manager) ListProfiles(ctx context.Context) ([]ProfileSummary, error) {
	profiles, err := m.profiles.List(ctx)
	if err != nil {
		return nil, err
	}

	summaries := make([]ProfileSummary, 0, len(profiles))
	for _, p := range profiles {
		apps, err := m.grants.ListAppKeys(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		roles, err := m.roles.ListRoles(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, ProfileSummary{Profile: p, Apps: apps, Roles: roles})
	}
	return summaries, nil
}

func (m *Manager) ensureProfile(ctx context.Context, profileID int64) error {
	if _, err := m.profiles.GetByID(ctx, profileID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return profileNotFound(profileID, err)
		}
		return err
	}
	return nil
}
