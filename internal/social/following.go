// Copyright (c) 2026 SaveState. All rights reserved.
// Author: dev@savestate.social

/*
Package social holds the cross-screen follow registry.

The registry is an in-memory set of user IDs the viewer follows, shared by
every view that renders a follow button. Views read membership through the
registry rather than trusting their own fetch payloads, so following a user
from a search result is immediately visible on that user's profile screen.

The registry holds no relationship to server truth until some view fetches
ground truth and calls [Registry.SetFollowing]; until then an optimistic
[Registry.Toggle] is the only source of truth. Nothing is persisted; a
process restart starts empty.

It is an explicit context object created at the application root and
injected into consumers, not an ambient singleton.
*/
package social

import (
	"sort"
	"sync"
)

// Registry is the in-memory followed-user set. Safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	following map[int64]struct{}
}

// NewRegistry creates an empty follow registry.
func NewRegistry() *Registry {
	return &Registry{following: make(map[int64]struct{})}
}

// Toggle flips membership for the user ID and returns the new state.
//
// Toggling is idempotent per logical action, but the registry does not
// deduplicate concurrent toggles: two rapid toggles for the same ID can
// drift from server truth until ground truth is set again.
func (registry *Registry) Toggle(userID int64) bool {
	registry.mu.Lock()
	defer registry.mu.Unlock()

	if _, exists := registry.following[userID]; exists {
		delete(registry.following, userID)
		return false
	}

	registry.following[userID] = struct{}{}
	return true
}

// SetFollowing sets membership authoritatively, used when a fetch returns
// the server's ground-truth follow status.
func (registry *Registry) SetFollowing(userID int64, isFollowing bool) {
	registry.mu.Lock()
	defer registry.mu.Unlock()

	if isFollowing {
		registry.following[userID] = struct{}{}
		return
	}
	delete(registry.following, userID)
}

// IsFollowing reports membership for the user ID.
func (registry *Registry) IsFollowing(userID int64) bool {
	registry.mu.RLock()
	defer registry.mu.RUnlock()

	_, exists := registry.following[userID]
	return exists
}

// Following returns the followed user IDs in ascending order.
func (registry *Registry) Following() []int64 {
	registry.mu.RLock()
	defer registry.mu.RUnlock()

	ids := make([]int64, 0, len(registry.following))
	for id := range registry.following {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
