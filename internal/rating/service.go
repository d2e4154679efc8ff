// Copyright (c) 2026 SaveState. All rights reserved.
// Author: dev@savestate.social

/*
Package rating implements the optimistic, debounced game rating flow.

A rating is a scalar in [0,5] at half-step granularity, keyed by (user,
game). The mutation protocol, per update:

 1. Cancel any in-flight read for the game's cache key (generation bump).
 2. Snapshot the current cached value.
 3. Write the new value into the cache immediately (optimistic).
 4. Issue the network call. Success overwrites the cache with the
    server-returned value; failure restores the snapshot.
 5. Either way, schedule a background reconciliation refetch on a fixed
    delay, so local state converges on server truth.

Every mutation is observable as an explicit three-state result —
Pending(snapshot) → Committed(value) | RolledBack(snapshot) — rather than
an ad hoc cache overwrite.

Updates are debounced per game in a 1000 ms window: rapid slider drags
collapse into one network call carrying only the final value. The raw
mutation is unexported; the debounced entry point is the only public write
path, so the coalescing guarantee cannot be bypassed.
*/
package rating

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/savestate/savestate-go/internal/api"
	"github.com/savestate/savestate-go/internal/platform/apperr"
	"github.com/savestate/savestate-go/internal/platform/cache"
	"github.com/savestate/savestate-go/internal/platform/ctxutil"
)

// Resource is the cache group for rating reads.
const Resource = "rating"

const (
	// DebounceWindow is the per-game quiet period before a pending update
	// is sent. Only the last value set within the window goes out.
	DebounceWindow = 1000 * time.Millisecond

	// reconcileDelay is how long after a mutation settles the background
	// refetch runs.
	reconcileDelay = 500 * time.Millisecond
)

// # Mutation Result

// MutationState is the lifecycle of one optimistic rating mutation.
type MutationState int

const (
	// StatePending: the optimistic value is in the cache, network call in flight.
	StatePending MutationState = iota
	// StateCommitted: the server acknowledged; cache holds the server value.
	StateCommitted
	// StateRolledBack: the call failed; the snapshot was restored.
	StateRolledBack
)

// Mutation is the observable record of a rating mutation.
type Mutation struct {
	State MutationState
	// Snapshot is the cached value captured before the optimistic write.
	Snapshot float64
	// HadSnapshot distinguishes "snapshot was 0" from "nothing was cached".
	HadSnapshot bool
	// Value is the rating the mutation carries (optimistic, then confirmed).
	Value float64
}

// SlugSource supplies the signed-in user's slug for the read endpoint path.
type SlugSource interface {
	Slug(ctx context.Context) string
}

// # Service

// Service implements rating reads and the debounced optimistic mutation.
type Service struct {
	client *api.Client
	cache  *cache.Cache
	slugs  SlugSource

	// Test seams; production values are the package constants.
	debounce  time.Duration
	reconcile time.Duration

	mu      sync.Mutex
	pending map[int64]*pendingUpdate
	last    map[int64]Mutation
}

// pendingUpdate is one game's coalescing slot in the debounce queue.
type pendingUpdate struct {
	timer *time.Timer
	value float64
}

// NewService constructs a rating [Service].
func NewService(client *api.Client, responseCache *cache.Cache, slugs SlugSource) *Service {
	return &Service{
		client:    client,
		cache:     responseCache,
		slugs:     slugs,
		debounce:  DebounceWindow,
		reconcile: reconcileDelay,
		pending:   make(map[int64]*pendingUpdate),
		last:      make(map[int64]Mutation),
	}
}

// ratingPayload is the backend envelope for rating reads and writes.
type ratingPayload struct {
	Success bool    `json:"success"`
	Message *string `json:"message"`
	Data    struct {
		Rating float64 `json:"rating"`
	} `json:"data"`
}

// # Reads

/*
Rating returns the viewer's rating for a game, 0 when unrated.

Description: Read-through cache. The read captures the key's generation
before issuing the request; if a mutation cancels in-flight reads while
this one is pending, its late result is discarded instead of clobbering
the optimistic value.

Parameters:
  - context: context.Context
  - gameID: int64

Returns:
  - float64: The rating in [0,5], 0 when unrated
  - error: apperr.Validation when signed out, or request failures
*/
func (service *Service) Rating(context context.Context, gameID int64) (float64, error) {

	slug := service.slugs.Slug(context)
	if slug == "" {
		return 0, apperr.Validation("Sign in to read ratings")
	}

	key := ratingKey(gameID)
	if cached, ok := service.cache.Get(key); ok {
		return cached.(float64), nil
	}

	// Capture the generation before the suspension point.
	generation := service.cache.Generation(key)

	path := fmt.Sprintf("/u/%s/games/%d/rating", slug, gameID)

	payload := &ratingPayload{}
	if err := service.client.Do(context, http.MethodGet, path, nil, nil, payload); err != nil {
		return 0, err
	}

	value := 0.0
	if payload.Success {
		value = payload.Data.Rating
	}

	// Discarded when a mutation bumped the generation mid-flight.
	service.cache.SetIfCurrent(key, generation, value)

	return value, nil
}

// # Debounced Mutation

/*
UpdateRating schedules a rating write for the game, debounced per game.

Description: Returns immediately after validation. Successive calls for the
same game within the debounce window replace the pending value and restart
the timer; when the window elapses, one network call carrying the final
value runs the optimistic mutation protocol.

Parameters:
  - gameID: int64
  - value: float64 in [0,5], half-step granularity

Returns:
  - error: apperr.Validation for an out-of-domain value
*/
func (service *Service) UpdateRating(gameID int64, value float64) error {

	if err := validateRating(value); err != nil {
		return err
	}

	service.mu.Lock()
	defer service.mu.Unlock()

	if update, exists := service.pending[gameID]; exists {
		// Coalesce: replace the value, restart the quiet period.
		update.value = value
		update.timer.Reset(service.debounce)
		return nil
	}

	update := &pendingUpdate{value: value}
	update.timer = time.AfterFunc(service.debounce, func() {
		service.fire(gameID)
	})
	service.pending[gameID] = update

	return nil
}

/*
Flush sends the game's pending update immediately, bypassing the remainder
of the quiet period. A no-op when nothing is pending.

Description: Used by short-lived callers (the CLI) that would otherwise
exit before the window elapses. The coalescing guarantee holds: whatever
value is pending at flush time is the one sent.

Parameters:
  - context: context.Context
  - gameID: int64

Returns:
  - error: The mutation's network failure, if any
*/
func (service *Service) Flush(context context.Context, gameID int64) error {

	service.mu.Lock()
	update, exists := service.pending[gameID]
	if !exists {
		service.mu.Unlock()
		return nil
	}
	update.timer.Stop()
	delete(service.pending, gameID)
	value := update.value
	service.mu.Unlock()

	return service.mutate(context, gameID, value)
}

// LastMutation returns the most recent mutation record for the game.
func (service *Service) LastMutation(gameID int64) (Mutation, bool) {
	service.mu.Lock()
	defer service.mu.Unlock()

	mutation, ok := service.last[gameID]
	return mutation, ok
}

// fire is the debounce timer callback: pop the pending value and mutate.
func (service *Service) fire(gameID int64) {
	service.mu.Lock()
	update, exists := service.pending[gameID]
	if !exists {
		service.mu.Unlock()
		return
	}
	delete(service.pending, gameID)
	value := update.value
	service.mu.Unlock()

	// Detached from any caller context: the debounced write outlives the
	// call that scheduled it.
	if err := service.mutate(context.Background(), gameID, value); err != nil {
		slog.Default().Error("rating_update_failed",
			slog.Int64("game_id", gameID),
			slog.Any("error", err),
		)
	}
}

// mutate runs the optimistic update protocol for one (game, value) pair.
func (service *Service) mutate(ctx context.Context, gameID int64, value float64) error {

	key := ratingKey(gameID)

	// 1. Cancel in-flight reads so a stale result cannot overwrite the
	//    optimistic value.
	service.cache.CancelInflight(key)

	// 2. Snapshot the current cached value.
	snapshot := 0.0
	hadSnapshot := false
	if cached, ok := service.cache.Get(key); ok {
		snapshot = cached.(float64)
		hadSnapshot = true
	}

	// 3. Optimistic write.
	service.cache.Set(key, value)
	service.record(gameID, Mutation{
		State:       StatePending,
		Snapshot:    snapshot,
		HadSnapshot: hadSnapshot,
		Value:       value,
	})

	// 4. Network call.
	path := fmt.Sprintf("/games/%d/rating", gameID)
	body := map[string]float64{"rating": value}

	payload := &ratingPayload{}
	err := service.client.Do(ctx, http.MethodPost, path, nil, body, payload)

	if err == nil && !payload.Success {
		message := "Failed to update rating"
		if payload.Message != nil && *payload.Message != "" {
			message = *payload.Message
		}
		err = apperr.API(http.StatusOK, message)
	}

	if err != nil {
		// Roll back to the pre-optimistic state.
		if hadSnapshot {
			service.cache.Set(key, snapshot)
		} else {
			service.cache.InvalidateKey(key)
		}
		service.record(gameID, Mutation{
			State:       StateRolledBack,
			Snapshot:    snapshot,
			HadSnapshot: hadSnapshot,
			Value:       value,
		})
		service.settle(ctx, gameID)
		return err
	}

	// Commit the server's value (normally identical to the optimistic one).
	service.cache.Set(key, payload.Data.Rating)
	service.record(gameID, Mutation{
		State:       StateCommitted,
		Snapshot:    snapshot,
		HadSnapshot: hadSnapshot,
		Value:       payload.Data.Rating,
	})
	service.settle(ctx, gameID)

	ctxutil.GetLogger(ctx).Debug("rating_committed",
		slog.Int64("game_id", gameID),
		slog.Float64("rating", payload.Data.Rating),
	)

	return nil
}

// settle schedules the unconditional background reconciliation refetch.
// Runs after success AND failure, on a fixed delay.
func (service *Service) settle(ctx context.Context, gameID int64) {
	slug := service.slugs.Slug(ctx)

	time.AfterFunc(service.reconcile, func() {
		reconcileCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if slug == "" {
			return
		}

		key := ratingKey(gameID)
		generation := service.cache.Generation(key)

		path := fmt.Sprintf("/u/%s/games/%d/rating", slug, gameID)
		payload := &ratingPayload{}
		if err := service.client.Do(reconcileCtx, http.MethodGet, path, nil, nil, payload); err != nil {
			return
		}

		value := 0.0
		if payload.Success {
			value = payload.Data.Rating
		}
		service.cache.SetIfCurrent(key, generation, value)
	})
}

// record stores the game's latest mutation state. Callers must NOT hold mu.
func (service *Service) record(gameID int64, mutation Mutation) {
	service.mu.Lock()
	defer service.mu.Unlock()

	service.last[gameID] = mutation
}

// ratingKey is the cache key for one game's rating.
func ratingKey(gameID int64) cache.Key {
	return cache.Key{Resource: Resource, ID: strconv.FormatInt(gameID, 10)}
}

// validateRating enforces the [0,5] half-step domain.
func validateRating(value float64) error {
	if value < 0 || value > 5 {
		return apperr.Validation("Rating must be between 0 and 5")
	}

	// Half-step granularity: doubling must land on an integer.
	doubled := value * 2
	if math.Abs(doubled-math.Round(doubled)) > 1e-9 {
		return apperr.Validation("Rating must use half-step increments")
	}

	return nil
}
