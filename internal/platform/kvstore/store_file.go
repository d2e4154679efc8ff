// Copyright (c) 2026 SaveState. All rights reserved.
// Author: dev@savestate.social

package kvstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileStore implements [Store] as a single JSON file on disk.
//
// It stands in for the mobile app's device key-value storage. The whole
// file is rewritten on every Set via an atomic rename, so a crash mid-write
// leaves the previous contents intact.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore creates a store backed by the JSON file at path.
// Parent directories are created on first write, not here.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

/*
Get returns the value for key, or [ErrNotFound].

Parameters:
  - context: context.Context
  - key: string

Returns:
  - string: Stored value
  - error: ErrNotFound or file read/decode failures
*/
func (store *FileStore) Get(_ context.Context, key string) (string, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	values, err := store.read()
	if err != nil {
		return "", err
	}

	value, ok := values[key]
	if !ok {
		return "", ErrNotFound
	}
	return value, nil
}

/*
Set writes value under key, replacing the file atomically.

Parameters:
  - context: context.Context
  - key: string
  - value: string

Returns:
  - error: File write failures
*/
func (store *FileStore) Set(_ context.Context, key string, value string) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	values, err := store.read()
	if err != nil {
		return err
	}

	values[key] = value
	return store.write(values)
}

/*
Delete removes key. Deleting an absent key is not an error.

Parameters:
  - context: context.Context
  - key: string

Returns:
  - error: File write failures
*/
func (store *FileStore) Delete(_ context.Context, key string) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	values, err := store.read()
	if err != nil {
		return err
	}

	if _, ok := values[key]; !ok {
		return nil
	}

	delete(values, key)
	return store.write(values)
}

// read loads the backing file. A missing file reads as an empty store.
func (store *FileStore) read() (map[string]string, error) {
	raw, err := os.ReadFile(store.path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]string), nil
		}
		return nil, fmt.Errorf("kvstore_file_read_failed: %w", err)
	}

	values := make(map[string]string)
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil, fmt.Errorf("kvstore_file_decode_failed: %w", err)
	}
	return values, nil
}

// write persists values with write-to-temp + rename so the replace is atomic.
func (store *FileStore) write(values map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(store.path), 0o700); err != nil {
		return fmt.Errorf("kvstore_file_mkdir_failed: %w", err)
	}

	raw, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return fmt.Errorf("kvstore_file_encode_failed: %w", err)
	}

	tmp := store.path + ".tmp"
	// Credentials live here. Owner-only permissions.
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("kvstore_file_write_failed: %w", err)
	}

	if err := os.Rename(tmp, store.path); err != nil {
		return fmt.Errorf("kvstore_file_rename_failed: %w", err)
	}
	return nil
}
