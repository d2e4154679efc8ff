// Copyright (c) 2026 SaveState. All rights reserved.
// Author: dev@savestate.social

package igdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/savestate/savestate-go/internal/api"
	"github.com/savestate/savestate-go/internal/platform/ctxutil"
	"github.com/savestate/savestate-go/internal/platform/kvstore"
)

// ExpiryBuffer is subtracted from the token's expiry when judging validity,
// so a token is refreshed before it actually dies mid-request.
const ExpiryBuffer = 300 * time.Second

// Token is the catalog credential blob issued by the backend's /search-token
// endpoint and persisted to device storage verbatim.
type Token struct {
	AccessToken string `json:"access_token"`
	ClientID    string `json:"client_id"`
	ExpiresAt   int64  `json:"expires_at"`
}

// Valid reports whether the token is usable at the given time, applying
// [ExpiryBuffer]. A token without an expiry is never considered valid.
func (token *Token) Valid(now time.Time) bool {
	if token.ExpiresAt == 0 {
		return false
	}
	return now.Unix() < token.ExpiresAt-int64(ExpiryBuffer.Seconds())
}

// # Token Cache

// TokenCache owns acquisition, persistence, expiry checking and refresh of
// the catalog bearer token.
//
// Refresh is demand-driven only: either the expiry check here fails, or a
// downstream caller observes a 401 and invokes [TokenCache.ForceRefresh].
// There is no proactive timer and no retry/backoff; a failed fetch
// propagates to the caller, who retries explicitly.
//
// There is deliberately no mutual exclusion around the fetch: concurrent
// callers racing past an expired check issue duplicate fetches, both
// succeed, and the last persisted write wins. The write is an atomic
// replace, so the duplicate costs a network call, not correctness.
type TokenCache struct {
	store   kvstore.Store
	backend *api.Client
	now     func() time.Time
}

// NewTokenCache constructs a [TokenCache] reading and writing device storage.
func NewTokenCache(store kvstore.Store, backend *api.Client) *TokenCache {
	return &TokenCache{
		store:   store,
		backend: backend,
		now:     time.Now,
	}
}

/*
GetValidToken returns a token guaranteed (at read time) to live past the
expiry buffer.

Description: Reads the persisted token; when absent, undecodable, or within
the 300-second buffer of expiry, fetches a fresh token from the backend and
persists it.

Parameters:
  - context: context.Context

Returns:
  - *Token: A valid catalog token
  - error: Fetch or persistence failures
*/
func (cache *TokenCache) GetValidToken(context context.Context) (*Token, error) {

	stored, err := cache.stored(context)
	if err == nil && stored != nil && stored.Valid(cache.now()) {
		return stored, nil
	}

	return cache.ForceRefresh(context)
}

/*
ForceRefresh fetches a fresh token unconditionally and persists it.

Description: Invoked by the catalog client when the API rejects the current
token with a 401 despite the local expiry check passing.

Parameters:
  - context: context.Context

Returns:
  - *Token: The freshly issued token
  - error: Fetch or persistence failures
*/
func (cache *TokenCache) ForceRefresh(context context.Context) (*Token, error) {

	ctxutil.GetLogger(context).Debug("igdb_token_fetching")

	// The token endpoint returns the raw blob, not the standard envelope.
	token := &Token{}
	if err := cache.backend.Do(context, http.MethodGet, "/search-token", nil, nil, token); err != nil {
		return nil, fmt.Errorf("igdb_token_fetch_failed: %w", err)
	}

	raw, err := json.Marshal(token)
	if err != nil {
		return nil, fmt.Errorf("igdb_token_encode_failed: %w", err)
	}

	if err := cache.store.Set(context, kvstore.KeyCatalogToken, string(raw)); err != nil {
		return nil, fmt.Errorf("igdb_token_persist_failed: %w", err)
	}

	ctxutil.GetLogger(context).Info("igdb_token_refreshed",
		slog.Int64("expires_at", token.ExpiresAt),
	)

	return token, nil
}

// stored loads the persisted token. (nil, nil) when none is stored.
func (cache *TokenCache) stored(ctx context.Context) (*Token, error) {
	raw, err := cache.store.Get(ctx, kvstore.KeyCatalogToken)
	if err != nil {
		if errors.Is(err, kvstore.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	token := &Token{}
	if err := json.Unmarshal([]byte(raw), token); err != nil {
		// A corrupt blob behaves like an absent one; the next fetch replaces it.
		return nil, nil
	}

	return token, nil
}
