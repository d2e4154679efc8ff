// Copyright (c) 2026 SaveState. All rights reserved.
// Author: dev@savestate.social

package library_test

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/savestate/savestate-go/internal/api"
	"github.com/savestate/savestate-go/internal/library"
	"github.com/savestate/savestate-go/internal/platform/apperr"
	"github.com/savestate/savestate-go/internal/platform/cache"
)

type staticSession struct{}

func (staticSession) Token(context.Context) string { return "tok" }

type staticSlug string

func (slug staticSlug) Slug(context.Context) string { return string(slug) }

// libraryBackend is a stub list backend with a single-game wishlist flag.
type libraryBackend struct {
	mu          sync.Mutex
	wishlisted  bool
	statusReads int
	listReads   int
}

func (backend *libraryBackend) router() http.Handler {
	router := chi.NewRouter()

	router.Get("/u/{slug}/checklists/{gameID}", func(writer http.ResponseWriter, request *http.Request) {
		backend.mu.Lock()
		defer backend.mu.Unlock()

		backend.statusReads++
		_, _ = fmt.Fprintf(writer, `{"success":true,"data":{"wishlist":%t}}`, backend.wishlisted)
	})

	router.Post("/lists/items", func(writer http.ResponseWriter, request *http.Request) {
		backend.mu.Lock()
		defer backend.mu.Unlock()

		backend.wishlisted = true
		_, _ = writer.Write([]byte(`{"id":77,"user_id":"u1","list_id":5,"game_id":42}`))
	})

	router.Delete("/lists/items/{gameID}/{type}", func(writer http.ResponseWriter, request *http.Request) {
		backend.mu.Lock()
		defer backend.mu.Unlock()

		backend.wishlisted = false
		writer.WriteHeader(http.StatusOK)
	})

	router.Get("/lists", func(writer http.ResponseWriter, request *http.Request) {
		backend.mu.Lock()
		defer backend.mu.Unlock()

		backend.listReads++
		_, _ = writer.Write([]byte(`{"success":true,"data":[
			{"id":5,"user_id":"u1","type":"wishlist","visibility":"private","created_at":"2026-01-01","updated_at":"2026-01-01",
			 "items":[{"id":77,"user_id":"u1","list_id":5,"game_id":42}]},
			{"id":6,"user_id":"u1","type":"backlog","visibility":"private","created_at":"2026-01-01","updated_at":"2026-01-01"}
		]}`))
	})

	return router
}

func newLibraryFixture(t *testing.T, backend *libraryBackend) (*library.Service, *libraryBackend) {
	t.Helper()

	server := httptest.NewServer(backend.router())
	t.Cleanup(server.Close)

	client := api.NewClient(server.URL, server.Client(), staticSession{}, slog.Default())
	return library.NewService(client, cache.New(), staticSlug("sam")), backend
}

/*
TestService_ListStatusesCached verifies the statuses read is served from
cache until invalidated.
*/
func TestService_ListStatusesCached(t *testing.T) {
	service, backend := newLibraryFixture(t, &libraryBackend{wishlisted: true})
	ctx := context.Background()

	statuses, err := service.ListStatuses(ctx, 42)
	require.NoError(t, err)
	assert.True(t, statuses.Wishlist)

	// Second read hits the cache
	_, err = service.ListStatuses(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, 1, backend.statusReads)
}

/*
TestService_ListStatusesSignedOut verifies membership reads require a session.
*/
func TestService_ListStatusesSignedOut(t *testing.T) {
	backend := &libraryBackend{}
	server := httptest.NewServer(backend.router())
	t.Cleanup(server.Close)

	client := api.NewClient(server.URL, server.Client(), staticSession{}, slog.Default())
	service := library.NewService(client, cache.New(), staticSlug(""))

	_, err := service.ListStatuses(context.Background(), 42)
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_ERROR", apperr.As(err).Code)
	assert.Equal(t, 0, backend.statusReads)
}

/*
TestService_AddInvalidatesStatuses verifies membership reflects an add after
the mutation drops the cached statuses.
*/
func TestService_AddInvalidatesStatuses(t *testing.T) {
	service, backend := newLibraryFixture(t, &libraryBackend{})
	ctx := context.Background()

	// 1. Cold read: not wishlisted
	statuses, err := service.ListStatuses(ctx, 42)
	require.NoError(t, err)
	assert.False(t, statuses.Wishlist)

	// 2. Add to wishlist
	item, err := service.AddToList(ctx, library.AddParams{GameID: 42, Type: library.ListWishlist})
	require.NoError(t, err)
	assert.Equal(t, int64(77), item.ID)

	// 3. The next read refetches and sees the confirmed membership
	statuses, err = service.ListStatuses(ctx, 42)
	require.NoError(t, err)
	assert.True(t, statuses.Wishlist)
	assert.Equal(t, 2, backend.statusReads)
}

/*
TestService_RemoveInvalidatesStatuses verifies a remove drops the cached
membership as well.
*/
func TestService_RemoveInvalidatesStatuses(t *testing.T) {
	service, _ := newLibraryFixture(t, &libraryBackend{wishlisted: true})
	ctx := context.Background()

	statuses, err := service.ListStatuses(ctx, 42)
	require.NoError(t, err)
	require.True(t, statuses.Wishlist)

	require.NoError(t, service.RemoveFromList(ctx, 42, library.ListWishlist))

	statuses, err = service.ListStatuses(ctx, 42)
	require.NoError(t, err)
	assert.False(t, statuses.Wishlist)
}

/*
TestService_UserListsCached verifies the aggregate read caches until a list
mutation invalidates it.
*/
func TestService_UserListsCached(t *testing.T) {
	service, backend := newLibraryFixture(t, &libraryBackend{})
	ctx := context.Background()

	lists, err := service.UserLists(ctx)
	require.NoError(t, err)
	require.Len(t, lists, 2)

	// Cached
	_, err = service.UserLists(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, backend.listReads)

	// Any list mutation drops the aggregate
	_, err = service.AddToList(ctx, library.AddParams{GameID: 42, Type: library.ListBacklog})
	require.NoError(t, err)

	_, err = service.UserLists(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, backend.listReads)
}

/*
TestService_ItemsByType verifies the helper lookups over the aggregate read.
*/
func TestService_ItemsByType(t *testing.T) {
	service, _ := newLibraryFixture(t, &libraryBackend{})
	ctx := context.Background()

	items, err := service.ItemsByType(ctx, library.ListWishlist)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, int64(42), items[0].GameID)

	// Present list, no items
	items, err = service.ItemsByType(ctx, library.ListBacklog)
	require.NoError(t, err)
	assert.Empty(t, items)

	// Absent list yields an empty slice
	items, err = service.ItemsByType(ctx, library.ListCollection)
	require.NoError(t, err)
	assert.Empty(t, items)

	list, err := service.ListByType(ctx, library.ListCollection)
	require.NoError(t, err)
	assert.Nil(t, list)
}
