// Copyright (c) 2026 SaveState. All rights reserved.
// Author: dev@savestate.social

/*
Package review implements per-game review reads and upserts.

A user has at most one review per game. A missing review is an expected
state (404 from the backend) and surfaces as (nil, nil), not an error.
*/
package review

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/savestate/savestate-go/internal/api"
	"github.com/savestate/savestate-go/internal/platform/apperr"
	"github.com/savestate/savestate-go/internal/platform/cache"
)

// Resource is the cache group for review reads.
const Resource = "review"

// Review is the viewer's review of one game.
type Review struct {
	ID        int64   `json:"id"`
	GameID    int64   `json:"game_id"`
	UserID    string  `json:"user_id"`
	Rating    float64 `json:"rating"`
	Content   *string `json:"content,omitempty"`
	CreatedAt string  `json:"created_at"`
	UpdatedAt string  `json:"updated_at"`
}

// Service implements review reads and upserts.
type Service struct {
	client *api.Client
	cache  *cache.Cache
}

// NewService constructs a review [Service].
func NewService(client *api.Client, responseCache *cache.Cache) *Service {
	return &Service{client: client, cache: responseCache}
}

/*
Review returns the viewer's review for a game, or nil when none exists.

Parameters:
  - context: context.Context
  - gameID: int64

Returns:
  - *Review: The review, or nil when the backend reports 404
  - error: Request failures other than 404
*/
func (service *Service) Review(context context.Context, gameID int64) (*Review, error) {

	key := reviewKey(gameID)
	if cached, ok := service.cache.Get(key); ok {
		review := cached.(Review)
		return &review, nil
	}

	path := fmt.Sprintf("/games/%d/review", gameID)

	fetched := &Review{}
	if err := service.client.Do(context, http.MethodGet, path, nil, nil, fetched); err != nil {
		if apperr.IsStatus(err, http.StatusNotFound) {
			// Absent review is a normal state, not a failure.
			return nil, nil
		}
		return nil, err
	}

	service.cache.Set(key, *fetched)
	return fetched, nil
}

/*
Upsert creates or replaces the viewer's review for a game.

Parameters:
  - context: context.Context
  - gameID: int64
  - rating: float64
  - content: optional review text (*string, may be nil)

Returns:
  - *Review: The stored review
  - error: Request failures
*/
func (service *Service) Upsert(context context.Context, gameID int64, rating float64, content *string) (*Review, error) {

	path := fmt.Sprintf("/games/%d/review", gameID)
	body := map[string]any{"rating": rating}
	if content != nil {
		body["content"] = *content
	}

	stored := &Review{}
	if err := service.client.Do(context, http.MethodPost, path, nil, body, stored); err != nil {
		return nil, err
	}

	// Only this game's review key is stale, not the whole group.
	service.cache.InvalidateKey(reviewKey(gameID))

	return stored, nil
}

// reviewKey is the cache key for one game's review.
func reviewKey(gameID int64) cache.Key {
	return cache.Key{Resource: Resource, ID: strconv.FormatInt(gameID, 10)}
}
