package migrations

import (
	"context"
	"fmt"

	"github.com/grantsuite/accessgate/internal/db/models"
	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(up_20260301000000, down_20260301000000)
}

// up_20260301000000 creates the profile, app grant and role tables read by the
// entitlement cache.
func up_20260301000000(ctx context.Context, db *bun.DB) error {
	fmt.Print(" [up] creating profiles table...")
	_, err := db.NewCreateTable().
		Model((*models.Profile)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create profiles table: %w", err)
	}
	fmt.Println(" OK")

	fmt.Print(" [up] creating profile_apps table...")
	_, err = db.NewCreateTable().
		Model((*models.ProfileApp)(nil)).
		IfNotExists().
		ForeignKey(`("profile_id") REFERENCES "profiles" ("id") ON DELETE CASCADE`).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create profile_apps table: %w", err)
	}
	fmt.Println(" OK")

	fmt.Print(" [up] creating profile_roles table...")
	_, err = db.NewCreateTable().
		Model((*models.ProfileRole)(nil)).
		IfNotExists().
		ForeignKey(`("profile_id") REFERENCES "profiles" ("id") ON DELETE CASCADE`).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create profile_roles table: %w", err)
	}

	// Superuser lookups filter on role first
	_, err = db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_profile_roles_role ON profile_roles(role)`)
	if err != nil {
		return fmt.Errorf("failed to create profile_roles role index: %w", err)
	}
	fmt.Println(" OK")

	return nil
}

// down_20260301000000 drops the entitlement tables in dependency order
func down_20260301000000(ctx context.Context, db *bun.DB) error {
	fmt.Print(" [down] dropping entitlement tables...")

	for _, model := range []any{
		(*models.ProfileRole)(nil),
		(*models.ProfileApp)(nil),
		(*models.Profile)(nil),
	} {
		if _, err := db.NewDropTable().Model(model).IfExists().Exec(ctx); err != nil {
			return fmt.Errorf("failed to drop table: %w", err)
		}
	}
	fmt.Println(" OK")

	return nil
}
