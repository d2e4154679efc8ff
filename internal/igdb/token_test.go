// Copyright (c) 2026 SaveState. All rights reserved.
// Author: dev@savestate.social

package igdb

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/savestate/savestate-go/internal/api"
	"github.com/savestate/savestate-go/internal/platform/kvstore"
)

// anonymousSession satisfies the request client without a signed-in user.
type anonymousSession struct{}

func (anonymousSession) Token(context.Context) string { return "" }

// newTokenFixture wires a TokenCache against a stub /search-token endpoint
// counting fetches, with the clock pinned to now.
func newTokenFixture(t *testing.T, now time.Time, fetches *int32, issued Token) (*TokenCache, kvstore.Store) {
	t.Helper()

	router := chi.NewRouter()
	router.Get("/search-token", func(writer http.ResponseWriter, request *http.Request) {
		atomic.AddInt32(fetches, 1)
		_, _ = fmt.Fprintf(writer,
			`{"access_token":%q,"client_id":%q,"expires_at":%d}`,
			issued.AccessToken, issued.ClientID, issued.ExpiresAt,
		)
	})

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	store := kvstore.NewMemoryStore()
	backend := api.NewClient(server.URL, server.Client(), anonymousSession{}, slog.Default())

	cache := NewTokenCache(store, backend)
	cache.now = func() time.Time { return now }

	return cache, store
}

/*
TestTokenCache_StoredValidToken verifies a stored token outside the expiry
buffer is served without a fetch.
*/
func TestTokenCache_StoredValidToken(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	var fetches int32

	cache, store := newTokenFixture(t, now, &fetches, Token{})

	stored := fmt.Sprintf(
		`{"access_token":"tok-stored","client_id":"cid","expires_at":%d}`,
		now.Add(time.Hour).Unix(),
	)
	require.NoError(t, store.Set(context.Background(), kvstore.KeyCatalogToken, stored))

	token, err := cache.GetValidToken(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "tok-stored", token.AccessToken)
	assert.Equal(t, int32(0), atomic.LoadInt32(&fetches))
}

/*
TestTokenCache_ExpiryBuffer verifies a token inside the 300-second buffer is
treated as expired and refetched, even though it is technically still live.
*/
func TestTokenCache_ExpiryBuffer(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	var fetches int32

	fresh := Token{
		AccessToken: "tok-fresh",
		ClientID:    "cid",
		ExpiresAt:   now.Add(2 * time.Hour).Unix(),
	}
	cache, store := newTokenFixture(t, now, &fetches, fresh)

	// Live for another 2 minutes, but inside the 5-minute buffer
	stored := fmt.Sprintf(
		`{"access_token":"tok-dying","client_id":"cid","expires_at":%d}`,
		now.Add(2*time.Minute).Unix(),
	)
	require.NoError(t, store.Set(context.Background(), kvstore.KeyCatalogToken, stored))

	token, err := cache.GetValidToken(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "tok-fresh", token.AccessToken)
	assert.Equal(t, int32(1), atomic.LoadInt32(&fetches))

	// The fresh token was persisted for the next process
	raw, err := store.Get(context.Background(), kvstore.KeyCatalogToken)
	require.NoError(t, err)
	assert.Contains(t, raw, "tok-fresh")
}

/*
TestTokenCache_EmptyStorage verifies a cold cache fetches and persists.
*/
func TestTokenCache_EmptyStorage(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	var fetches int32

	fresh := Token{AccessToken: "tok-first", ClientID: "cid", ExpiresAt: now.Add(time.Hour).Unix()}
	cache, _ := newTokenFixture(t, now, &fetches, fresh)

	token, err := cache.GetValidToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-first", token.AccessToken)

	// A second call inside the validity window serves the persisted copy
	_, err = cache.GetValidToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&fetches))
}

/*
TestTokenCache_CorruptBlob verifies an undecodable stored blob behaves like
an absent one.
*/
func TestTokenCache_CorruptBlob(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	var fetches int32

	fresh := Token{AccessToken: "tok-replaced", ClientID: "cid", ExpiresAt: now.Add(time.Hour).Unix()}
	cache, store := newTokenFixture(t, now, &fetches, fresh)

	require.NoError(t, store.Set(context.Background(), kvstore.KeyCatalogToken, "{garbage"))

	token, err := cache.GetValidToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-replaced", token.AccessToken)
	assert.Equal(t, int32(1), atomic.LoadInt32(&fetches))
}

/*
TestToken_Valid verifies the buffer arithmetic at its edges.
*/
func TestToken_Valid(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name      string
		expiresAt int64
		valid     bool
	}{
		{"well past buffer", now.Add(time.Hour).Unix(), true},
		{"one second past buffer", now.Add(ExpiryBuffer + time.Second).Unix(), true},
		{"exactly at buffer", now.Add(ExpiryBuffer).Unix(), false},
		{"inside buffer", now.Add(time.Minute).Unix(), false},
		{"already expired", now.Add(-time.Minute).Unix(), false},
		{"no expiry", 0, false},
	}

	for _, testCase := range cases {
		t.Run(testCase.name, func(t *testing.T) {
			token := &Token{ExpiresAt: testCase.expiresAt}
			assert.Equal(t, testCase.valid, token.Valid(now))
		})
	}
}
