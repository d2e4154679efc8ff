// Copyright (c) 2026 SaveState. All rights reserved.
// Author: dev@savestate.social

package review_test

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/savestate/savestate-go/internal/api"
	"github.com/savestate/savestate-go/internal/platform/apperr"
	"github.com/savestate/savestate-go/internal/platform/cache"
	"github.com/savestate/savestate-go/internal/review"
)

type staticSession struct{}

func (staticSession) Token(context.Context) string { return "tok" }

func newReviewFixture(t *testing.T, handler http.Handler) *review.Service {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := api.NewClient(server.URL, server.Client(), staticSession{}, slog.Default())
	return review.NewService(client, cache.New())
}

/*
TestService_ReviewMissing verifies a 404 surfaces as (nil, nil): an absent
review is a state, not a failure.
*/
func TestService_ReviewMissing(t *testing.T) {
	router := chi.NewRouter()
	router.Get("/games/{gameID}/review", func(writer http.ResponseWriter, request *http.Request) {
		writer.WriteHeader(http.StatusNotFound)
		_, _ = writer.Write([]byte(`{"message":"Review not found"}`))
	})

	service := newReviewFixture(t, router)

	stored, err := service.Review(context.Background(), 42)
	require.NoError(t, err)
	assert.Nil(t, stored)
}

/*
TestService_ReviewCached verifies the read caches per game.
*/
func TestService_ReviewCached(t *testing.T) {
	var reads int32

	router := chi.NewRouter()
	router.Get("/games/{gameID}/review", func(writer http.ResponseWriter, request *http.Request) {
		atomic.AddInt32(&reads, 1)
		_, _ = writer.Write([]byte(`{"id":9,"game_id":42,"user_id":"u1","rating":4.5,"created_at":"2026-01-01","updated_at":"2026-01-01"}`))
	})

	service := newReviewFixture(t, router)
	ctx := context.Background()

	stored, err := service.Review(ctx, 42)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, 4.5, stored.Rating)

	_, err = service.Review(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&reads))
}

/*
TestService_UpsertInvalidatesOnlyThatGame verifies the upsert drops the
mutated game's cache entry and no other.
*/
func TestService_UpsertInvalidatesOnlyThatGame(t *testing.T) {
	var reads int32

	router := chi.NewRouter()
	router.Get("/games/{gameID}/review", func(writer http.ResponseWriter, request *http.Request) {
		atomic.AddInt32(&reads, 1)
		_, _ = writer.Write([]byte(`{"id":9,"game_id":42,"user_id":"u1","rating":3,"created_at":"2026-01-01","updated_at":"2026-01-01"}`))
	})
	router.Post("/games/{gameID}/review", func(writer http.ResponseWriter, request *http.Request) {
		_, _ = writer.Write([]byte(`{"id":9,"game_id":42,"user_id":"u1","rating":5,"created_at":"2026-01-01","updated_at":"2026-01-02"}`))
	})

	service := newReviewFixture(t, router)
	ctx := context.Background()

	// Warm both games
	_, err := service.Review(ctx, 42)
	require.NoError(t, err)
	_, err = service.Review(ctx, 43)
	require.NoError(t, err)
	require.Equal(t, int32(2), atomic.LoadInt32(&reads))

	stored, err := service.Upsert(ctx, 42, 5, nil)
	require.NoError(t, err)
	assert.Equal(t, 5.0, stored.Rating)

	// Game 42 refetches, game 43 is still cached
	_, err = service.Review(ctx, 42)
	require.NoError(t, err)
	_, err = service.Review(ctx, 43)
	require.NoError(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&reads))
}

/*
TestService_ReviewFailure verifies non-404 failures propagate.
*/
func TestService_ReviewFailure(t *testing.T) {
	router := chi.NewRouter()
	router.Get("/games/{gameID}/review", func(writer http.ResponseWriter, request *http.Request) {
		writer.WriteHeader(http.StatusInternalServerError)
	})

	service := newReviewFixture(t, router)

	_, err := service.Review(context.Background(), 42)
	require.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, apperr.As(err).HTTPStatus)
}
