package entitlements

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisKeyPrefix namespaces entry keys.
const DefaultRedisKeyPrefix = "accessgate:entitlements:"

// RedisStore shares entries between instances. Each entry is one JSON value written
// with a single SET, so readers never observe a partially written entry.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisStore wraps client. An empty prefix selects DefaultRedisKeyPrefix.
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = DefaultRedisKeyPrefix
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key(profileID int64) string {
	return s.prefix + strconv.FormatInt(profileID, 10)
}

// Get implements Store.
func (s *RedisStore) Get(ctx context.Context, profileID int64) (*Entry, bool, error) {
	data, err := s.client.Get(ctx, s.key(profileID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get entitlements %d: %w", profileID, err)
	}

	entry := new(Entry)
	if err := json.Unmarshal(data, entry); err != nil {
		return nil, false, fmt.Errorf("decode entitlements %d: %w", profileID, err)
	}
	return entry, true, nil
}

// Set implements Store. The Redis expiry is ttl, so abandoned entries age out.
func (s *RedisStore) Set(ctx context.Context, entry *Entry, ttl time.Duration) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode entitlements %d: %w", entry.ProfileID, err)
	}
	if err := s.client.Set(ctx, s.key(entry.ProfileID), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set entitlements %d: %w", entry.ProfileID, err)
	}
	return nil
}

// Delete implements Store.
func (s *RedisStore) Delete(ctx context.Context, profileID int64) error {
	if err := s.client.Del(ctx, s.key(profileID)).Err(); err != nil {
		return fmt.Errorf("redis del entitlements %d: %w", profileID, err)
	}
	return nil
}

// Clear implements Store by scanning the key prefix and deleting in batches.
func (s *RedisStore) Clear(ctx context.Context) error {
	var cursor uint64
	for {
		keys, next, err := s.client.Scan(ctx, cursor, s.prefix+"*", 500).Result()
		if err != nil {
			return fmt.Errorf("redis scan entitlements: %w", err)
		}
		if len(keys) > 0 {
			if err := s.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("redis del entitlements: %w", err)
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}
