package cmdutil

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/uptrace/bun"
	"go.uber.org/zap"

	"github.com/grantsuite/accessgate/internal/config"
	"github.com/grantsuite/accessgate/internal/db/bunx"
	"github.com/grantsuite/accessgate/internal/repository"
	"github.com/grantsuite/accessgate/internal/services/entitlements"
)

// BundleOptions controls how the entitlement stack is constructed.
type BundleOptions struct {
	Logger *zap.Logger

	// Observer receives cache lookup and refresh events. Nil disables them.
	Observer entitlements.Observer
}

// EntitlementBundle groups the database, the repositories and the entitlement
// cache so the server and the CLI share one construction path. CLI writes therefore
// invalidate the same store the server reads from when Redis is configured.
type EntitlementBundle struct {
	DB       *bun.DB
	Redis    *redis.Client
	Profiles *repository.BunProfileRepository
	Grants   *repository.BunAppGrantRepository
	Roles    *repository.BunProfileRoleRepository
	Store    entitlements.Store
	Cache    *entitlements.Cache
	Manager  *entitlements.Manager
}

// Close releases the database connection and the Redis client.
func (b *EntitlementBundle) Close() {
	if b == nil {
		return
	}
	if b.Redis != nil {
		_ = b.Redis.Close()
	}
	if b.DB != nil {
		_ = bunx.Close(b.DB)
	}
}

// NewEntitlementBundle connects to the database and selects the Redis store when
// redis.addr is set, the in-process LRU store otherwise.
func NewEntitlementBundle(ctx context.Context, cfg *config.Config, opts BundleOptions) (*EntitlementBundle, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := bunx.NewDB(cfg.DatabaseURL, cfg.MaxDBConnections)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	b := &EntitlementBundle{
		DB:       db,
		Profiles: repository.NewBunProfileRepository(db),
		Grants:   repository.NewBunAppGrantRepository(db),
		Roles:    repository.NewBunProfileRoleRepository(db),
	}

	if cfg.Redis.Addr != "" {
		b.Redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := b.Redis.Ping(ctx).Err(); err != nil {
			b.Close()
			return nil, fmt.Errorf("connect to redis %s: %w", cfg.Redis.Addr, err)
		}
		b.Store = entitlements.NewRedisStore(b.Redis, "")
		logger.Info("using redis entitlement store", zap.String("addr", cfg.Redis.Addr))
	} else {
		store, err := entitlements.NewMemoryStore(cfg.Entitlements.CacheSize)
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("create entitlement store: %w", err)
		}
		b.Store = store
		logger.Info("using in-process entitlement store", zap.Int("size", cfg.Entitlements.CacheSize))
	}

	loader := entitlements.NewRepositoryLoader(b.Profiles, b.Grants, b.Roles, cfg.Entitlements.SuperuserRole)
	cacheOpts := []entitlements.CacheOption{entitlements.WithLogger(logger)}
	if opts.Observer != nil {
		cacheOpts = append(cacheOpts, entitlements.WithObserver(opts.Observer))
	}
	b.Cache = entitlements.NewCache(b.Store, loader, cfg.Entitlements.CacheTTL, cacheOpts...)
	b.Manager = entitlements.NewManager(b.Profiles, b.Grants, b.Roles, b.Cache, cfg.Entitlements.SuperuserRole, logger)

	return b, nil
}
