package entitlements

import (
	"encoding/json"
	"sort"
	"time"
)

// Entry is a point-in-time snapshot of one profile's entitlements.
// It must not be modified after it is published to a Store.
type Entry struct {
	ProfileID   int64
	GrantedApps map[string]struct{}
	IsSuperuser bool
	IsActive    bool
	LoadedAt    time.Time
}

// NewEntry builds an entry from the loaded facts.
func NewEntry(profileID int64, apps []string, superuser, active bool, loadedAt time.Time) *Entry {
	granted := make(map[string]struct{}, len(apps))
	for _, app := range apps {
		granted[app] = struct{}{}
	}
	return &Entry{
		ProfileID:   profileID,
		GrantedApps: granted,
		IsSuperuser: superuser,
		IsActive:    active,
		LoadedAt:    loadedAt,
	}
}

// IsFresh reports whether the entry may still be served: now - LoadedAt < ttl.
func (e *Entry) IsFresh(now time.Time, ttl time.Duration) bool {
	return now.Sub(e.LoadedAt) < ttl
}

// HasApp reports whether appKey is granted.
func (e *Entry) HasApp(appKey string) bool {
	_, ok := e.GrantedApps[appKey]
	return ok
}

// HasAnyApp reports whether at least one of apps is granted.
func (e *Entry) HasAnyApp(apps []string) bool {
	for _, app := range apps {
		if e.HasApp(app) {
			return true
		}
	}
	return false
}

// AppKeys returns the granted app keys in sorted order.
func (e *Entry) AppKeys() []string {
	keys := make([]string, 0, len(e.GrantedApps))
	for key := range e.GrantedApps {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// entryJSON is the wire form stored in Redis.
type entryJSON struct {
	ProfileID   int64     `json:"profile_id"`
	GrantedApps []string  `json:"granted_apps"`
	IsSuperuser bool      `json:"is_superuser"`
	IsActive    bool      `json:"is_active"`
	LoadedAt    time.Time `json:"loaded_at"`
}

// MarshalJSON encodes GrantedApps as a sorted array.
func (e *Entry) MarshalJSON() ([]byte, error) {
	return json.Marshal(entryJSON{
		ProfileID:   e.ProfileID,
		GrantedApps: e.AppKeys(),
		IsSuperuser: e.IsSuperuser,
		IsActive:    e.IsActive,
		LoadedAt:    e.LoadedAt,
	})
}

// UnmarshalJSON decodes the form written by MarshalJSON.
func (e *Entry) UnmarshalJSON(data []byte) error {
	var wire entryJSON
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	*e = *NewEntry(wire.ProfileID, wire.GrantedApps, wire.IsSuperuser, wire.IsActive, wire.LoadedAt)
	return nil
}
