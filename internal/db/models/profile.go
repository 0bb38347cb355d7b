package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Profile is the application-side record an identity is linked to at sign-in.
// Authorization only reads IsActive; the rest is owned by account management.
type Profile struct {
	bun.BaseModel `bun:"table:profiles,alias:p"`

	ID        int64     `bun:"id,pk,autoincrement"`
	UserID    *string   `bun:"user_id,unique"` // Identity provider subject, nil until linked
	Email     string    `bun:"email,notnull,unique"`
	Name      string    `bun:"name"`
	IsActive  bool      `bun:"is_active,notnull,default:true"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

// ProfileApp grants one application key to a profile.
type ProfileApp struct {
	bun.BaseModel `bun:"table:profile_apps,alias:pa"`

	ID        string    `bun:"id,pk"`                                 // UUIDv7
	ProfileID int64     `bun:"profile_id,notnull,unique:profile_app"` // FK to profiles(id)
	AppKey    string    `bun:"app_key,notnull,unique:profile_app"`    // e.g. "reviewer-finder"
	GrantedAt time.Time `bun:"granted_at,nullzero,notnull,default:current_timestamp"`
	GrantedBy *int64    `bun:"granted_by"` // Profile that issued the grant, nil for CLI/system
}

// ProfileRole maps a profile to a named role. Membership in the superuser role
// bypasses per-app entitlement checks.
type ProfileRole struct {
	bun.BaseModel `bun:"table:profile_roles,alias:pr"`

	ID         string    `bun:"id,pk"`                                  // UUIDv7
	ProfileID  int64     `bun:"profile_id,notnull,unique:profile_role"` // FK to profiles(id)
	Role       string    `bun:"role,notnull,unique:profile_role"`
	AssignedAt time.Time `bun:"assigned_at,nullzero,notnull,default:current_timestamp"`
}
