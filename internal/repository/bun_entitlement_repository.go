package repository

import (
	"context"
	"fmt"

	"github.com/grantsuite/accessgate/internal/db/bunx"
	"github.com/grantsuite/accessgate/internal/db/models"
	"github.com/uptrace/bun"
)

// ========================================
// App Grant Repository
// ========================================

// BunAppGrantRepository implements AppGrantRepository using Bun ORM
type BunAppGrantRepository struct {
	db bun.IDB
}

// NewBunAppGrantRepository creates a new Bun-based app grant repository
func NewBunAppGrantRepository(db bun.IDB) *BunAppGrantRepository {
	return &BunAppGrantRepository{db: db}
}

// ListAppKeys returns the app keys granted to a profile, ordered by key
func (r *BunAppGrantRepository) ListAppKeys(ctx context.Context, profileID int64) ([]string, error) {
	keys := make([]string, 0)
	err := r.db.NewSelect().
		Model((*models.ProfileApp)(nil)).
		Column("app_key").
		Where("profile_id = ?", profileID).
		Order("app_key ASC").
		Scan(ctx, &keys)
	if err != nil {
		return nil, fmt.Errorf("list app keys: %w", err)
	}
	return keys, nil
}

// Grant inserts a grant row, ignoring duplicates
func (r *BunAppGrantRepository) Grant(ctx context.Context, grant *models.ProfileApp) error {
	if grant.ID == "" {
		grant.ID = bunx.NewUUIDv7()
	}

	_, err := r.db.NewInsert().
		Model(grant).
		On("CONFLICT (profile_id, app_key) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("grant app %s: %w", grant.AppKey, err)
	}
	return nil
}

// Revoke deletes a grant row
func (r *BunAppGrantRepository) Revoke(ctx context.Context, profileID int64, appKey string) error {
	_, err := r.db.NewDelete().
		Model((*models.ProfileApp)(nil)).
		Where("profile_id = ?", profileID).
		Where("app_key = ?", appKey).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("revoke app %s: %w", appKey, err)
	}
	return nil
}

// ========================================
// Profile Role Repository
// ========================================

// BunProfileRoleRepository implements ProfileRoleRepository using Bun ORM
type BunProfileRoleRepository struct {
	db bun.IDB
}

// NewBunProfileRoleRepository creates a new Bun-based profile role repository
func NewBunProfileRoleRepository(db bun.IDB) *BunProfileRoleRepository {
	return &BunProfileRoleRepository{db: db}
}

// HasRole checks role membership with SELECT EXISTS
func (r *BunProfileRoleRepository) HasRole(ctx context.Context, profileID int64, role string) (bool, error) {
	exists, err := r.db.NewSelect().
		Model((*models.ProfileRole)(nil)).
		Where("profile_id = ?", profileID).
		Where("role = ?", role).
		Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("check profile role: %w", err)
	}
	return exists, nil
}

// ListRoles returns role names for a profile, ordered by name
func (r *BunProfileRoleRepository) ListRoles(ctx context.Context, profileID int64) ([]string, error) {
	roles := make([]string, 0)
	err := r.db.NewSelect().
		Model((*models.ProfileRole)(nil)).
		Column("role").
		Where("profile_id = ?", profileID).
		Order("role ASC").
		Scan(ctx, &roles)
	if err != nil {
		return nil, fmt.Errorf("list profile roles: %w", err)
	}
	return roles, nil
}

// Assign adds a role, ignoring duplicates
func (r *BunProfileRoleRepository) Assign(ctx context.Context, profileID int64, role string) error {
	row := &models.ProfileRole{
		ID:        bunx.NewUUIDv7(),
		ProfileID: profileID,
		Role:      role,
	}
	_, err := r.db.NewInsert().
		Model(row).
		On("CONFLICT (profile_id, role) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("assign role %s: %w", role, err)
	}
	return nil
}

// Remove deletes a role assignment
func (r *BunProfileRoleRepository) Remove(ctx context.Context, profileID int64, role string) error {
	_, err := r.db.NewDelete().
		Model((*models.ProfileRole)(nil)).
		Where("profile_id = ?", profileID).
		Where("role = ?", role).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("remove role %s: %w", role, err)
	}
	return nil
}
