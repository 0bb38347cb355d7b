package access

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/grantsuite/accessgate/internal/auth"
	"github.com/grantsuite/accessgate/internal/services/entitlements"
)

type stubGate struct{ required bool }

func (g stubGate) IsAuthRequired() bool { return g.required }

type stubOrigin struct {
	result auth.OriginResult
	calls  atomic.Int32
}

func (o *stubOrigin) ValidateOrigin(*http.Request) auth.OriginResult {
	o.calls.Add(1)
	return o.result
}

type stubResolver struct {
	session auth.Session
	err     error
	calls   atomic.Int32
}

func (s *stubResolver) ResolveSession(context.Context, *http.Request) (auth.Session, error) {
	s.calls.Add(1)
	return s.session, s.err
}

type stubSource struct {
	entry *entitlements.Entry
	err   error
	calls atomic.Int32
}

func (s *stubSource) GetEntry(context.Context, int64) (*entitlements.Entry, error) {
	s.calls.Add(1)
	return s.entry, s.err
}

type stubChecker struct {
	active bool
	calls  atomic.Int32
}

func (c *stubChecker) CheckActive(context.Context, int64) bool {
	c.calls.Add(1)
	return c.active
}

type stubActiveReader struct {
	active bool
	err    error
}

func (r stubActiveReader) IsActive(context.Context, int64) (bool, error) {
	return r.active, r.err
}

type recorder struct {
	mu        sync.Mutex
	decisions []string
}

func (r *recorder) RecordDecision(_ context.Context, kind, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.decisions = append(r.decisions, kind+":"+reason)
}

// memLoader serves entitlements from maps for end-to-end engine tests.
type memLoader struct {
	mu         sync.Mutex
	apps       map[int64][]string
	superusers map[int64]bool
	active     map[int64]bool
}

func newMemLoader() *memLoader {
	return &memLoader{apps: map[int64][]string{}, superusers: map[int64]bool{}, active: map[int64]bool{}}
}

func (l *memLoader) grant(id int64, app string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.apps[id] = append(l.apps[id], app)
}

func (l *memLoader) GrantedApps(_ context.Context, id int64) ([]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.apps[id]...), nil
}

func (l *memLoader) IsSuperuser(_ context.Context, id int64) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.superusers[id], nil
}

func (l *memLoader) IsActive(_ context.Context, id int64) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.active[id], nil
}
