package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/grantsuite/accessgate/internal/db/models"
	"github.com/uptrace/bun"
)

// BunProfileRepository implements ProfileRepository using Bun ORM
type BunProfileRepository struct {
	db bun.IDB
}

// NewBunProfileRepository creates a new Bun-based profile repository
func NewBunProfileRepository(db bun.IDB) *BunProfileRepository {
	return &BunProfileRepository{db: db}
}

// Create inserts a new profile
func (r *BunProfileRepository) Create(ctx context.Context, profile *models.Profile) error {
	_, err := r.db.NewInsert().
		Model(profile).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("create profile: %w", err)
	}
	return nil
}

// GetByID retrieves a profile by its ID
func (r *BunProfileRepository) GetByID(ctx context.Context, id int64) (*models.Profile, error) {
	profile := new(models.Profile)
	err := r.db.NewSelect().
		Model(profile).
		Where("id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("profile %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get profile by ID: %w", err)
	}
	return profile, nil
}

// GetByEmail retrieves a profile by email
func (r *BunProfileRepository) GetByEmail(ctx context.Context, email string) (*models.Profile, error) {
	profile := new(models.Profile)
	err := r.db.NewSelect().
		Model(profile).
		Where("email = ?", email).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("profile with email %s: %w", email, ErrNotFound)
		}
		return nil, fmt.Errorf("get profile by email: %w", err)
	}
	return profile, nil
}

// List returns all profiles ordered by ID
func (r *BunProfileRepository) List(ctx context.Context) ([]models.Profile, error) {
	var profiles []models.Profile
	err := r.db.NewSelect().
		Model(&profiles).
		Order("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	return profiles, nil
}

// IsActive selects only the is_active column
func (r *BunProfileRepository) IsActive(ctx context.Context, id int64) (bool, error) {
	var active bool
	err := r.db.NewSelect().
		Model((*models.Profile)(nil)).
		Column("is_active").
		Where("id = ?", id).
		Scan(ctx, &active)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, fmt.Errorf("profile %d: %w", id, ErrNotFound)
		}
		return false, fmt.Errorf("get profile active flag: %w", err)
	}
	return active, nil
}

// SetActive enables or disables a profile
func (r *BunProfileRepository) SetActive(ctx context.Context, id int64, active bool) error {
	result, err := r.db.NewUpdate().
		Model((*models.Profile)(nil)).
		Set("is_active = ?", active).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("set profile active flag: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("profile %d: %w", id, ErrNotFound)
	}

	return nil
}
