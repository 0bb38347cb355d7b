package migrations

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun/migrate"

	"github.com/grantsuite/accessgate/internal/db/bunx"
	"github.com/grantsuite/accessgate/internal/db/models"
)

func TestMigrations_UpAndDown(t *testing.T) {
	db, err := bunx.NewDB("file::memory:", 1)
	require.NoError(t, err)
	defer bunx.Close(db)

	ctx := context.Background()
	migrator := migrate.NewMigrator(db, Migrations)
	require.NoError(t, migrator.Init(ctx))

	group, err := migrator.Migrate(ctx)
	require.NoError(t, err)
	assert.NotZero(t, group.ID)

	profile := &models.Profile{Email: "reviewer@example.org", IsActive: true}
	_, err = db.NewInsert().Model(profile).Exec(ctx)
	require.NoError(t, err)
	assert.NotZero(t, profile.ID)

	grant := &models.ProfileApp{ID: bunx.NewUUIDv7(), ProfileID: profile.ID, AppKey: "reviewer-finder"}
	_, err = db.NewInsert().Model(grant).Exec(ctx)
	require.NoError(t, err)

	duplicate := &models.ProfileApp{ID: bunx.NewUUIDv7(), ProfileID: profile.ID, AppKey: "reviewer-finder"}
	_, err = db.NewInsert().Model(duplicate).Exec(ctx)
	assert.Error(t, err, "profile_id/app_key must be unique")

	_, err = migrator.Rollback(ctx)
	require.NoError(t, err)

	_, err = db.NewSelect().Model((*models.Profile)(nil)).Count(ctx)
	assert.Error(t, err, "profiles table should be dropped")
}
