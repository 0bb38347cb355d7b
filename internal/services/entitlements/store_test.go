package entitlements

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	store, err := NewMemoryStore(2)
	require.NoError(t, err)
	ctx := context.Background()

	_, found, err := store.Get(ctx, 1)
	require.NoError(t, err)
	assert.False(t, found)

	first := NewEntry(1, []string{"reviewer-finder"}, false, true, time.Now())
	require.NoError(t, store.Set(ctx, first, time.Minute))

	got, found, err := store.Get(ctx, 1)
	require.NoError(t, err)
	require.True(t, found)
	assert.Same(t, first, got)

	replacement := NewEntry(1, nil, false, true, time.Now())
	require.NoError(t, store.Set(ctx, replacement, time.Minute))
	got, _, _ = store.Get(ctx, 1)
	assert.Same(t, replacement, got, "entries are replaced wholesale")

	require.NoError(t, store.Set(ctx, NewEntry(2, nil, false, true, time.Now()), time.Minute))
	require.NoError(t, store.Set(ctx, NewEntry(3, nil, false, true, time.Now()), time.Minute))
	assert.Equal(t, 2, store.Len(), "bounded by size")

	require.NoError(t, store.Delete(ctx, 3))
	_, found, _ = store.Get(ctx, 3)
	assert.False(t, found)

	require.NoError(t, store.Clear(ctx))
	assert.Zero(t, store.Len())
}

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client, ""), mr, client
}

func TestRedisStore_SetGet(t *testing.T) {
	store, mr, _ := newRedisStore(t)
	ctx := context.Background()

	_, found, err := store.Get(ctx, 42)
	require.NoError(t, err)
	assert.False(t, found)

	loadedAt := time.Date(2026, 3, 1, 8, 30, 0, 0, time.UTC)
	require.NoError(t, store.Set(ctx, NewEntry(42, []string{"reviewer-finder"}, false, true, loadedAt), 2*time.Minute))
	assert.True(t, mr.Exists("accessgate:entitlements:42"))
	assert.Equal(t, 2*time.Minute, mr.TTL("accessgate:entitlements:42"))

	got, found, err := store.Get(ctx, 42)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, int64(42), got.ProfileID)
	assert.True(t, got.HasApp("reviewer-finder"))
	assert.True(t, got.IsActive)
	assert.True(t, got.LoadedAt.Equal(loadedAt))

	mr.FastForward(3 * time.Minute)
	_, found, err = store.Get(ctx, 42)
	require.NoError(t, err)
	assert.False(t, found, "redis expiry removes abandoned entries")
}

func TestRedisStore_DeleteAndClear(t *testing.T) {
	store, mr, client := newRedisStore(t)
	ctx := context.Background()

	for id := int64(1); id <= 3; id++ {
		require.NoError(t, store.Set(ctx, NewEntry(id, nil, false, true, time.Now()), time.Minute))
	}
	require.NoError(t, client.Set(ctx, "unrelated:key", "keep", 0).Err())

	require.NoError(t, store.Delete(ctx, 1))
	assert.False(t, mr.Exists("accessgate:entitlements:1"))
	assert.True(t, mr.Exists("accessgate:entitlements:2"))

	require.NoError(t, store.Clear(ctx))
	assert.False(t, mr.Exists("accessgate:entitlements:2"))
	assert.False(t, mr.Exists("accessgate:entitlements:3"))
	assert.True(t, mr.Exists("unrelated:key"))
}

func TestRedisStore_CorruptValue(t *testing.T) {
	store, mr, _ := newRedisStore(t)
	require.NoError(t, mr.Set("accessgate:entitlements:9", "{not json"))

	_, found, err := store.Get(context.Background(), 9)
	assert.Error(t, err)
	assert.False(t, found)
}

func TestRedisStore_Unavailable(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	store := NewRedisStore(client, "")
	mr.Close()

	_, _, err = store.Get(context.Background(), 1)
	assert.Error(t, err)
}
