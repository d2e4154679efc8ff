// Copyright (c) 2026 SaveState. All rights reserved.
// Author: dev@savestate.social

/*
Package kvstore is the device storage boundary of the client.

It abstracts the persistent key-value storage the mobile app gets for free
(secure credential storage, SQLite-backed KV store) behind a small [Store]
interface with three implementations:

  - Memory: process-lifetime only, used in tests and throwaway sessions.
  - File: a JSON file on disk, the default for a local client.
  - Redis: for server-side deployments of the client (bots, bridges) that
    share credentials across processes.

Core Responsibilities:

  - Durability: The persisted session and catalog token survive restarts.
  - Atomicity: A Set is an atomic replace; readers never observe a torn value.

Only two keys are in active use, [KeySession] and [KeyCatalogToken]; both
hold small JSON blobs.
*/
package kvstore

import (
	"context"
	"errors"
)

const (
	// KeySession is the storage key for the persisted auth session blob.
	KeySession = "auth_session"

	// KeyCatalogToken is the storage key for the IGDB token blob.
	// The '@' prefix is kept for compatibility with the mobile client's store.
	KeyCatalogToken = "@igdb_tokens"
)

// ErrNotFound is returned by [Store.Get] when the key has no value.
var ErrNotFound = errors.New("kvstore: key not found")

// Store is the contract for durable key-value storage.
type Store interface {
	// Get returns the value for key, or [ErrNotFound].
	Get(ctx context.Context, key string) (string, error)

	// Set writes value under key, replacing any previous value atomically.
	Set(ctx context.Context, key string, value string) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}
