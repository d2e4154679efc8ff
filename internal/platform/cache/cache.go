// Copyright (c) 2026 SaveState. All rights reserved.
// Author: dev@savestate.social

/*
Package cache implements the process-wide keyed response cache shared by all
resource services.

Entries are keyed by a stable (resource, id, cursor) tuple. The cache is the
only cross-service consistency mechanism: a mutation performed by one service
invalidates whole resource groups so that any other service (or screen)
reading the same entity refetches.

Concurrency notes:

  - Writes are last-writer-wins by completion order. A later successful
    response for a key supersedes an earlier one; there is no transaction
    between a mutation's network round trip and its invalidation.
  - Per-key generation counters let a caller cancel in-flight reads:
    [Cache.CancelInflight] bumps the generation, after which a read that
    started earlier fails its [Cache.SetIfCurrent] and its stale result is
    discarded. Only the rating flow uses this.
*/
package cache

import "sync"

// Key identifies one cached resource response.
type Key struct {
	// Resource is the cache group name (e.g. "rating", "custom_lists").
	Resource string
	// ID narrows the group to one entity. Empty for aggregate reads.
	ID string
	// Cursor distinguishes pages of the same resource. Empty for unpaged reads.
	Cursor string
}

// entry is a stored value plus its generation counter.
//
// The generation survives invalidation and deletion so a cancelled reader
// can never resurrect a stale value.
type entry struct {
	value any
	ok    bool
	gen   uint64
}

// Cache is a mutex-guarded keyed store. The zero value is not usable; use [New].
type Cache struct {
	mu      sync.Mutex
	entries map[Key]*entry
}

// New creates an empty cache.
func New() *Cache {
	return &Cache{entries: make(map[Key]*entry)}
}

// Get returns the cached value for key and whether one is present.
func (cache *Cache) Get(key Key) (any, bool) {
	cache.mu.Lock()
	defer cache.mu.Unlock()

	e, exists := cache.entries[key]
	if !exists || !e.ok {
		return nil, false
	}
	return e.value, true
}

// Set stores value under key unconditionally (authoritative write).
func (cache *Cache) Set(key Key, value any) {
	cache.mu.Lock()
	defer cache.mu.Unlock()

	e := cache.ensure(key)
	e.value = value
	e.ok = true
}

// Generation returns the current generation for key. A reader captures this
// before issuing its request and passes it back to [Cache.SetIfCurrent].
func (cache *Cache) Generation(key Key) uint64 {
	cache.mu.Lock()
	defer cache.mu.Unlock()

	return cache.ensure(key).gen
}

// CancelInflight bumps the generation for key so that reads issued before
// the call cannot write their result. Returns the new generation.
func (cache *Cache) CancelInflight(key Key) uint64 {
	cache.mu.Lock()
	defer cache.mu.Unlock()

	e := cache.ensure(key)
	e.gen++
	return e.gen
}

// SetIfCurrent stores value only if the key's generation still equals gen.
// Reports whether the write happened.
func (cache *Cache) SetIfCurrent(key Key, gen uint64, value any) bool {
	cache.mu.Lock()
	defer cache.mu.Unlock()

	e := cache.ensure(key)
	if e.gen != gen {
		return false
	}
	e.value = value
	e.ok = true
	return true
}

// Invalidate drops every entry belonging to any of the named resource
// groups. Generations are preserved.
func (cache *Cache) Invalidate(resources ...string) {
	cache.mu.Lock()
	defer cache.mu.Unlock()

	for _, resource := range resources {
		for key, e := range cache.entries {
			if key.Resource == resource {
				e.value = nil
				e.ok = false
			}
		}
	}
}

// InvalidateKey drops a single entry, preserving its generation.
func (cache *Cache) InvalidateKey(key Key) {
	cache.mu.Lock()
	defer cache.mu.Unlock()

	if e, exists := cache.entries[key]; exists {
		e.value = nil
		e.ok = false
	}
}

// ensure returns the entry for key, creating it if absent. Caller holds mu.
func (cache *Cache) ensure(key Key) *entry {
	e, exists := cache.entries[key]
	if !exists {
		e = &entry{}
		cache.entries[key] = e
	}
	return e
}
