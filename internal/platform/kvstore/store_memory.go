// Copyright (c) 2026 SaveState. All rights reserved.
// Author: dev@savestate.social

package kvstore

import (
	"context"
	"sync"
)

// MemoryStore implements [Store] with a mutex-guarded map.
//
// Values do not survive process restart. Intended for tests and for
// sessions the caller explicitly does not want persisted.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

// Get returns the value for key, or [ErrNotFound].
func (store *MemoryStore) Get(_ context.Context, key string) (string, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	value, ok := store.values[key]
	if !ok {
		return "", ErrNotFound
	}
	return value, nil
}

// Set writes value under key.
func (store *MemoryStore) Set(_ context.Context, key string, value string) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	store.values[key] = value
	return nil
}

// Delete removes key.
func (store *MemoryStore) Delete(_ context.Context, key string) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	delete(store.values, key)
	return nil
}
