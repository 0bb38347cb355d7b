package entitlements

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/grantsuite/accessgate/internal/telemetry"
)

// DefaultTTL is the maximum age of a served entry.
const DefaultTTL = 120 * time.Second

// DefaultRefreshTimeout bounds a shared refresh once its initiator has gone away.
const DefaultRefreshTimeout = 10 * time.Second

// Lookup results reported to the Observer.
const (
	LookupHit   = "hit"
	LookupMiss  = "miss"
	LookupStale = "stale"
	LookupError = "store_error"
)

// Observer receives cache events. telemetry.AccessMetrics implements it.
type Observer interface {
	RecordCacheLookup(ctx context.Context, result string)
	RecordRefresh(ctx context.Context, duration time.Duration, err error)
}

type nopObserver struct{}

func (nopObserver) RecordCacheLookup(context.Context, string)           {}
func (nopObserver) RecordRefresh(context.Context, time.Duration, error) {}

// Cache serves per-profile entries and refreshes them on expiry.
//
// Concurrent refreshes of the same profile share one load. Each caller waits on its
// own context and may give up early; the shared load continues under
// DefaultRefreshTimeout and publishes a complete entry or nothing.
//
// Invalidation bumps an epoch. A load that started before the latest invalidation is
// still returned to its waiters but is not published, and callers arriving after the
// invalidation start a new load. Publishing holds publishMu shared across the epoch
// check and the store write; invalidation holds it exclusively across the bump and
// the delete, so a stale entry can never land after the delete. The epoch is local to
// the process: an invalidation issued by another instance only removes the stored entry.
type Cache struct {
	store          Store
	loader         Loader
	ttl            time.Duration
	refreshTimeout time.Duration
	now            func() time.Time
	logger         *zap.Logger
	observer       Observer

	group     singleflight.Group
	epoch     atomic.Uint64
	publishMu sync.RWMutex
}

// CacheOption customises a Cache.
type CacheOption func(*Cache)

// WithClock replaces time.Now for freshness checks and LoadedAt stamps.
func WithClock(now func() time.Time) CacheOption {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

// WithLogger sets the logger used for store failures.
func WithLogger(logger *zap.Logger) CacheOption {
	return func(c *Cache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithObserver reports lookups and refreshes.
func WithObserver(observer Observer) CacheOption {
	return func(c *Cache) {
		if observer != nil {
			c.observer = observer
		}
	}
}

// WithRefreshTimeout overrides DefaultRefreshTimeout.
func WithRefreshTimeout(timeout time.Duration) CacheOption {
	return func(c *Cache) {
		if timeout > 0 {
			c.refreshTimeout = timeout
		}
	}
}

// NewCache creates a cache over store. A non-positive ttl selects DefaultTTL.
func NewCache(store Store, loader Loader, ttl time.Duration, opts ...CacheOption) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := &Cache{
		store:          store,
		loader:         loader,
		ttl:            ttl,
		refreshTimeout: DefaultRefreshTimeout,
		now:            time.Now,
		logger:         zap.NewNop(),
		observer:       nopObserver{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TTL returns the configured maximum entry age.
func (c *Cache) TTL() time.Duration {
	return c.ttl
}

// GetEntry returns a fresh entry for profileID, refreshing when none is stored or the
// stored entry has expired. Refresh failures are returned and never cached.
func (c *Cache) GetEntry(ctx context.Context, profileID int64) (*Entry, error) {
	entry, found, err := c.store.Get(ctx, profileID)
	switch {
	case err != nil:
		c.logger.Warn("entitlement store read failed, treating as miss",
			zap.Int64("profile_id", profileID), zap.Error(err))
		c.observer.RecordCacheLookup(ctx, LookupError)
	case !found:
		c.observer.RecordCacheLookup(ctx, LookupMiss)
	case entry.IsFresh(c.now(), c.ttl):
		c.observer.RecordCacheLookup(ctx, LookupHit)
		return entry, nil
	default:
		c.observer.RecordCacheLookup(ctx, LookupStale)
	}

	epoch := c.epoch.Load()
	key := strconv.FormatInt(profileID, 10) + "/" + strconv.FormatUint(epoch, 10)

	results := c.group.DoChan(key, func() (any, error) {
		refreshCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.refreshTimeout)
		defer cancel()
		return c.refresh(refreshCtx, profileID, epoch)
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("waiting for entitlements of profile %d: %w", profileID, ctx.Err())
	case res := <-results:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Entry), nil
	}
}

// refresh performs the three reads concurrently and publishes the joined result.
func (c *Cache) refresh(ctx context.Context, profileID int64, epoch uint64) (*Entry, error) {
	ctx, span := telemetry.StartSpan(ctx, telemetry.TracerEntitlements, "entitlements.refresh",
		attribute.Int64(telemetry.AttrProfileID, profileID),
	)
	defer span.End()

	start := time.Now()

	var (
		apps      []string
		superuser bool
		active    bool
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if apps, err = c.loader.GrantedApps(gctx, profileID); err != nil {
			return fmt.Errorf("load granted apps: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if superuser, err = c.loader.IsSuperuser(gctx, profileID); err != nil {
			return fmt.Errorf("load superuser flag: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if active, err = c.loader.IsActive(gctx, profileID); err != nil {
			return fmt.Errorf("load active flag: %w", err)
		}
		return nil
	})

	err := g.Wait()
	c.observer.RecordRefresh(ctx, time.Since(start), err)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("refresh entitlements of profile %d: %w", profileID, err)
	}

	entry := NewEntry(profileID, apps, superuser, active, c.now())

	c.publishMu.RLock()
	defer c.publishMu.RUnlock()

	if c.epoch.Load() != epoch {
		c.logger.Debug("entitlements invalidated during refresh, not publishing",
			zap.Int64("profile_id", profileID))
		return entry, nil
	}

	if err := c.store.Set(ctx, entry, c.ttl); err != nil {
		c.logger.Warn("entitlement store write failed",
			zap.Int64("profile_id", profileID), zap.Error(err))
	}

	return entry, nil
}

// Invalidate removes the entry of one profile.
func (c *Cache) Invalidate(ctx context.Context, profileID int64) error {
	c.publishMu.Lock()
	defer c.publishMu.Unlock()

	c.epoch.Add(1)
	if err := c.store.Delete(ctx, profileID); err != nil {
		return fmt.Errorf("invalidate entitlements of profile %d: %w", profileID, err)
	}
	c.logger.Debug("entitlements invalidated", zap.Int64("profile_id", profileID))
	return nil
}

// InvalidateAll removes every entry.
func (c *Cache) InvalidateAll(ctx context.Context) error {
	c.publishMu.Lock()
	defer c.publishMu.Unlock()

	c.epoch.Add(1)
	if err := c.store.Clear(ctx); err != nil {
		return fmt.Errorf("invalidate all entitlements: %w", err)
	}
	c.logger.Info("all entitlements invalidated")
	return nil
}
