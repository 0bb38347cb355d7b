package entitlements

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// fakeLoader serves entitlements from maps. When gate is set, GrantedApps blocks
// until the gate is closed and signals started on entry.
type fakeLoader struct {
	mu         sync.Mutex
	apps       map[int64][]string
	superusers map[int64]bool
	active     map[int64]bool
	err        error

	appCalls    atomic.Int32
	roleCalls   atomic.Int32
	activeCalls atomic.Int32

	gate    chan struct{}
	started chan struct{}
}

func newFakeLoader() *fakeLoader {
	return &fakeLoader{
		apps:       map[int64][]string{},
		superusers: map[int64]bool{},
		active:     map[int64]bool{},
	}
}

func (l *fakeLoader) withGate() *fakeLoader {
	l.gate = make(chan struct{})
	l.started = make(chan struct{}, 16)
	return l
}

func (l *fakeLoader) setProfile(id int64, apps []string, superuser, active bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.apps[id] = apps
	l.superusers[id] = superuser
	l.active[id] = active
}

func (l *fakeLoader) setErr(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.err = err
}

func (l *fakeLoader) GrantedApps(ctx context.Context, id int64) ([]string, error) {
	l.appCalls.Add(1)
	if l.gate != nil {
		l.started <- struct{}{}
		select {
		case <-l.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return nil, l.err
	}
	return append([]string(nil), l.apps[id]...), nil
}

func (l *fakeLoader) IsSuperuser(_ context.Context, id int64) (bool, error) {
	l.roleCalls.Add(1)
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.superusers[id], nil
}

func (l *fakeLoader) IsActive(_ context.Context, id int64) (bool, error) {
	l.activeCalls.Add(1)
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.active[id], nil
}

// failingStore wraps a store and fails selected operations.
type failingStore struct {
	Store
	getErr error
	setErr error
}

func (s *failingStore) Get(ctx context.Context, id int64) (*Entry, bool, error) {
	if s.getErr != nil {
		return nil, false, s.getErr
	}
	return s.Store.Get(ctx, id)
}

func (s *failingStore) Set(ctx context.Context, entry *Entry, ttl time.Duration) error {
	if s.setErr != nil {
		return s.setErr
	}
	return s.Store.Set(ctx, entry, ttl)
}

type recordingObserver struct {
	mu       sync.Mutex
	lookups  []string
	refreshs int
}

func (o *recordingObserver) RecordCacheLookup(_ context.Context, result string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.lookups = append(o.lookups, result)
}

func (o *recordingObserver) RecordRefresh(context.Context, time.Duration, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.refreshs++
}

// blockingStore holds every Set until release is closed and signals started on entry.
type blockingStore struct {
	Store
	started chan struct{}
	release chan struct{}
}

func newBlockingStore(inner Store) *blockingStore {
	return &blockingStore{Store: inner, started: make(chan struct{}, 1), release: make(chan struct{})}
}

func (s *blockingStore) Set(ctx context.Context, entry *Entry, ttl time.Duration) error {
	select {
	case s.started <- struct{}{}:
	default:
	}
	<-s.release
	return s.Store.Set(ctx, entry, ttl)
}
