package entitlements

import (
	"context"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Store holds published entries. Implementations must replace entries wholesale.
type Store interface {
	// Get returns (nil, false, nil) on a miss.
	Get(ctx context.Context, profileID int64) (*Entry, bool, error)
	// Set publishes entry. ttl is a retention hint; freshness is decided by the Cache.
	Set(ctx context.Context, entry *Entry, ttl time.Duration) error
	Delete(ctx context.Context, profileID int64) error
	Clear(ctx context.Context) error
}

// DefaultMemoryStoreSize bounds the in-process store.
const DefaultMemoryStoreSize = 10000

// MemoryStore is a bounded in-process LRU of entries.
type MemoryStore struct {
	entries *lru.Cache[int64, *Entry]
}

// NewMemoryStore creates a store holding at most size entries.
func NewMemoryStore(size int) (*MemoryStore, error) {
	if size <= 0 {
		size = DefaultMemoryStoreSize
	}
	entries, err := lru.New[int64, *Entry](size)
	if err != nil {
		return nil, fmt.Errorf("create lru: %w", err)
	}
	return &MemoryStore{entries: entries}, nil
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, profileID int64) (*Entry, bool, error) {
	entry, ok := s.entries.Get(profileID)
	return entry, ok, nil
}

// Set implements Store.
func (s *MemoryStore) Set(_ context.Context, entry *Entry, _ time.Duration) error {
	s.entries.Add(entry.ProfileID, entry)
	return nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(_ context.Context, profileID int64) error {
	s.entries.Remove(profileID)
	return nil
}

// Clear implements Store.
func (s *MemoryStore) Clear(_ context.Context) error {
	s.entries.Purge()
	return nil
}

// Len returns the number of stored entries, fresh or stale.
func (s *MemoryStore) Len() int {
	return s.entries.Len()
}
