// Package entitlements caches, per profile, the set of granted app keys, the
// superuser flag and the active flag.
//
// Entries are immutable. A refresh loads all three facts concurrently, builds a
// new Entry and publishes it with a single Store.Set; readers observe either the
// previous entry or the new one, never a mix. Freshness is judged by
// Entry.LoadedAt against the cache TTL using an injectable clock.
//
// Writers (Manager, admin handlers, CLI) change the relational store first and
// then invalidate the affected entry, so the next read reloads.
package entitlements
