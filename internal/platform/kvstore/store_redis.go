// Copyright (c) 2026 SaveState. All rights reserved.
// Author: dev@savestate.social

package kvstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore implements [Store] on Redis.
//
// Used when the client runs server-side (Discord bots, chat bridges) and
// several processes need to share one set of credentials. Keys are
// namespaced under "savestate:" to coexist with other tenants.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a Redis-backed store from a connection URL.
// The connection is verified with a PING before the store is returned.
func NewRedisStore(ctx context.Context, url string) (*RedisStore, error) {

	// Parse the URL into client options (host, auth, db index)
	options, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("kvstore_redis_parse_url_failed: %w", err)
	}

	client := redis.NewClient(options)

	// Fail fast on unreachable Redis rather than at first Get
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("kvstore_redis_ping_failed: %w", err)
	}

	return &RedisStore{client: client}, nil
}

// Close releases the underlying connection pool.
func (store *RedisStore) Close() error {
	return store.client.Close()
}

/*
Get returns the value for key, or [ErrNotFound].

Parameters:
  - context: context.Context
  - key: string

Returns:
  - string: Stored value
  - error: ErrNotFound or connectivity errors
*/
func (store *RedisStore) Get(ctx context.Context, key string) (string, error) {
	value, err := store.client.Get(ctx, namespaced(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("kvstore_redis_get_failed: %w", err)
	}
	return value, nil
}

/*
Set writes value under key. No TTL: expiry of the stored blobs is decided
by their contents (token expires_at), not by the store.

Parameters:
  - context: context.Context
  - key: string
  - value: string

Returns:
  - error: Connectivity errors
*/
func (store *RedisStore) Set(ctx context.Context, key string, value string) error {
	if err := store.client.Set(ctx, namespaced(key), value, 0).Err(); err != nil {
		return fmt.Errorf("kvstore_redis_set_failed: %w", err)
	}
	return nil
}

/*
Delete removes key.

Parameters:
  - context: context.Context
  - key: string

Returns:
  - error: Connectivity errors
*/
func (store *RedisStore) Delete(ctx context.Context, key string) error {
	if err := store.client.Del(ctx, namespaced(key)).Err(); err != nil {
		return fmt.Errorf("kvstore_redis_delete_failed: %w", err)
	}
	return nil
}

// namespaced prefixes key with the client's Redis namespace.
func namespaced(key string) string {
	return "savestate:" + key
}
