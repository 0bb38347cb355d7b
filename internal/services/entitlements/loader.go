package entitlements

import (
	"context"
	"errors"

	"github.com/grantsuite/accessgate/internal/repository"
)

// Loader performs the three reads a refresh is built from.
type Loader interface {
	GrantedApps(ctx context.Context, profileID int64) ([]string, error)
	IsSuperuser(ctx context.Context, profileID int64) (bool, error)
	// IsActive reports false, without error, for a profile that does not exist.
	IsActive(ctx context.Context, profileID int64) (bool, error)
}

// RepositoryLoader reads entitlements from the relational store.
type RepositoryLoader struct {
	profiles      repository.ProfileRepository
	grants        repository.AppGrantRepository
	roles         repository.ProfileRoleRepository
	superuserRole string
}

// NewRepositoryLoader derives IsSuperuser from membership in superuserRole.
func NewRepositoryLoader(
	profiles repository.ProfileRepository,
	grants repository.AppGrantRepository,
	roles repository.ProfileRoleRepository,
	superuserRole string,
) *RepositoryLoader {
	return &RepositoryLoader{
		profiles:      profiles,
		grants:        grants,
		roles:         roles,
		superuserRole: superuserRole,
	}
}

// GrantedApps implements Loader.
func (l *RepositoryLoader) GrantedApps(ctx context.Context, profileID int64) ([]string, error) {
	return l.grants.ListAppKeys(ctx, profileID)
}

// IsSuperuser implements Loader.
func (l *RepositoryLoader) IsSuperuser(ctx context.Context, profileID int64) (bool, error) {
	return l.roles.HasRole(ctx, profileID, l.superuserRole)
}

// IsActive implements Loader.
func (l *RepositoryLoader) IsActive(ctx context.Context, profileID int64) (bool, error) {
	active, err := l.profiles.IsActive(ctx, profileID)
	if errors.Is(err, repository.ErrNotFound) {
		return false, nil
	}
	return active, err
}
