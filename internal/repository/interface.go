package repository

import (
	"context"
	"errors"

	"github.com/grantsuite/accessgate/internal/db/models"
)

// ErrNotFound is returned when the requested row does not exist.
var ErrNotFound = errors.New("not found")

// ProfileRepository exposes persistence operations for profiles.
type ProfileRepository interface {
	Create(ctx context.Context, profile *models.Profile) error
	GetByID(ctx context.Context, id int64) (*models.Profile, error)
	GetByEmail(ctx context.Context, email string) (*models.Profile, error)
	List(ctx context.Context) ([]models.Profile, error)

	// IsActive reads only the active flag. Returns ErrNotFound for unknown profiles.
	IsActive(ctx context.Context, id int64) (bool, error)
	SetActive(ctx context.Context, id int64, active bool) error
}

// AppGrantRepository exposes persistence operations for per-profile app grants.
type AppGrantRepository interface {
	// ListAppKeys returns the granted app keys for a profile (empty, never nil).
	ListAppKeys(ctx context.Context, profileID int64) ([]string, error)

	// Grant is idempotent: granting an existing key is a no-op.
	Grant(ctx context.Context, grant *models.ProfileApp) error

	// Revoke is idempotent: revoking a missing key is a no-op.
	Revoke(ctx context.Context, profileID int64, appKey string) error
}

// ProfileRoleRepository exposes persistence operations for profile roles.
type ProfileRoleRepository interface {
	HasRole(ctx context.Context, profileID int64, role string) (bool, error)
	ListRoles(ctx context.Context, profileID int64) ([]string, error)
	Assign(ctx context.Context, profileID int64, role string) error
	Remove(ctx context.Context, profileID int64, role string) error
}
