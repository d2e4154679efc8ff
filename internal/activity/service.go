// Copyright (c) 2026 SaveState. All rights reserved.
// Author: dev@savestate.social

/*
Package activity implements the activity feed service.

Two independent feeds are maintained: the viewer's own activity and the
activity of followed users. Each feed is an ordered sequence of items plus
an opaque server cursor, driven by an explicit state machine:

	Idle ──Refresh──▶ LoadingInitial ──▶ Idle | Exhausted | Errored
	Idle ──LoadMore──▶ LoadingMore   ──▶ Idle | Exhausted | Errored

A Refresh REPLACES the sequence and resets the cursor baseline; a LoadMore
APPENDS the next page. Because LoadMore is only a legal transition out of
Idle (or Errored, for manual retry), at most one load per feed is ever in
flight and out-of-order appends are unrepresentable, not merely guarded.
*/
package activity

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"sync"

	"github.com/savestate/savestate-go/internal/api"
	"github.com/savestate/savestate-go/internal/platform/ctxutil"
	"github.com/savestate/savestate-go/pkg/feedcursor"
)

// pageSize is the fixed feed page length requested from the backend.
const pageSize = 20

// FeedType selects one of the two parallel feeds.
type FeedType string

const (
	// FeedYou is the viewer's own activity.
	FeedYou FeedType = "you"
	// FeedFollowing is the activity of users the viewer follows.
	FeedFollowing FeedType = "following"
)

// endpoint maps the feed type to its backend path.
func (feedType FeedType) endpoint() string {
	if feedType == FeedFollowing {
		return "/activity/following"
	}
	return "/activity/user"
}

// # Feed State Machine

// Phase is the lifecycle state of one feed.
type Phase int

const (
	// PhaseIdle: the feed is at rest and more pages may exist.
	PhaseIdle Phase = iota
	// PhaseLoadingInitial: a refresh is in flight; the next page replaces.
	PhaseLoadingInitial
	// PhaseLoadingMore: a load-more is in flight; the next page appends.
	PhaseLoadingMore
	// PhaseExhausted: the server reported no further pages.
	PhaseExhausted
	// PhaseErrored: the last load failed; refresh or load-more retries.
	PhaseErrored
)

// feed is the state of one feed. All fields are guarded by Service.mu.
type feed struct {
	items  []Activity
	cursor string
	phase  Phase
}

// # Service

// Service owns both activity feeds plus the stats/search/per-user reads.
type Service struct {
	client *api.Client

	mu    sync.Mutex
	feeds map[FeedType]*feed
}

// NewService constructs an activity [Service] with both feeds Idle and empty.
func NewService(client *api.Client) *Service {
	return &Service{
		client: client,
		feeds: map[FeedType]*feed{
			FeedYou:       {},
			FeedFollowing: {},
		},
	}
}

/*
Refresh reloads a feed from the top.

Description: Issues a cursorless request; on success the returned page
REPLACES the feed and becomes the new cursor baseline. A refresh already in
flight for the feed makes this call a no-op.

Parameters:
  - context: context.Context
  - feedType: FeedYou or FeedFollowing

Returns:
  - error: The load failure, also recorded as PhaseErrored
*/
func (service *Service) Refresh(context context.Context, feedType FeedType) error {

	service.mu.Lock()
	state := service.feeds[feedType]
	if state.phase == PhaseLoadingInitial || state.phase == PhaseLoadingMore {
		service.mu.Unlock()
		return nil
	}
	state.phase = PhaseLoadingInitial
	service.mu.Unlock()

	// Network outside the lock; other feed operations may interleave.
	page, err := service.fetchPage(context, feedType, "")

	service.mu.Lock()
	defer service.mu.Unlock()

	if err != nil {
		state.phase = PhaseErrored
		return err
	}

	state.items = page.Data
	state.cursor = page.Cursor
	state.phase = phaseAfterLoad(page.HasMore)

	ctxutil.GetLogger(context).Debug("activity_feed_refreshed",
		slog.String("feed", string(feedType)),
		slog.Int("items", len(page.Data)),
	)

	return nil
}

/*
LoadMore fetches the next page of a feed.

Description: A no-op when a load for the feed is already in flight or the
feed is exhausted — both are illegal transitions, so no second request is
issued and no duplicate page can be appended. On success the page APPENDS
in request order and the cursor advances.

Parameters:
  - context: context.Context
  - feedType: FeedYou or FeedFollowing

Returns:
  - error: The load failure, also recorded as PhaseErrored
*/
func (service *Service) LoadMore(context context.Context, feedType FeedType) error {

	service.mu.Lock()
	state := service.feeds[feedType]
	// Only Idle (or Errored, for a manual retry) may start a load-more.
	if state.phase != PhaseIdle && state.phase != PhaseErrored {
		service.mu.Unlock()
		return nil
	}
	state.phase = PhaseLoadingMore
	cursor := state.cursor
	service.mu.Unlock()

	page, err := service.fetchPage(context, feedType, cursor)

	service.mu.Lock()
	defer service.mu.Unlock()

	if err != nil {
		state.phase = PhaseErrored
		return err
	}

	state.items = append(state.items, page.Data...)
	state.cursor = page.Cursor
	state.phase = phaseAfterLoad(page.HasMore)

	return nil
}

// Feed returns a copy of the feed's current items in order.
func (service *Service) Feed(feedType FeedType) []Activity {
	service.mu.Lock()
	defer service.mu.Unlock()

	state := service.feeds[feedType]
	items := make([]Activity, len(state.items))
	copy(items, state.items)
	return items
}

// HasMore reports whether the feed may have further pages.
func (service *Service) HasMore(feedType FeedType) bool {
	service.mu.Lock()
	defer service.mu.Unlock()

	return service.feeds[feedType].phase != PhaseExhausted
}

// Phase returns the feed's current lifecycle state.
func (service *Service) Phase(feedType FeedType) Phase {
	service.mu.Lock()
	defer service.mu.Unlock()

	return service.feeds[feedType].phase
}

// Initialize refreshes both feeds. The first failure is returned but both
// refreshes are always attempted.
func (service *Service) Initialize(context context.Context) error {
	errYou := service.Refresh(context, FeedYou)
	errFollowing := service.Refresh(context, FeedFollowing)

	if errYou != nil {
		return errYou
	}
	return errFollowing
}

// # Reads Outside the Feeds

/*
Stats fetches the viewer's aggregate activity counters.

Parameters:
  - context: context.Context

Returns:
  - *Stats: Aggregate counters
  - error: Request failures
*/
func (service *Service) Stats(context context.Context) (*Stats, error) {
	stats := &Stats{}
	if err := service.client.Do(context, http.MethodGet, "/activity/stats", nil, nil, stats); err != nil {
		return nil, err
	}
	return stats, nil
}

/*
SearchActivities runs a full-text search over the viewer's visible activities.

Parameters:
  - context: context.Context
  - query: Search text

Returns:
  - []Activity: Matches, server order
  - error: Request failures
*/
func (service *Service) SearchActivities(context context.Context, query string) ([]Activity, error) {

	params := url.Values{}
	params.Set("q", query)
	params.Set("limit", strconv.Itoa(pageSize))

	response := &searchResponse{}
	if err := service.client.Do(context, http.MethodGet, "/activity/search", params, nil, response); err != nil {
		return nil, err
	}

	return response.Data, nil
}

/*
UserActivities fetches the public activity listing of one user.

Parameters:
  - context: context.Context
  - userID: int64

Returns:
  - *UserActivities: Items plus the subject user
  - error: Request failures
*/
func (service *Service) UserActivities(context context.Context, userID int64) (*UserActivities, error) {

	path := fmt.Sprintf("/users/%d/activities", userID)

	response := &UserActivities{}
	if err := service.client.Do(context, http.MethodGet, path, nil, nil, response); err != nil {
		return nil, err
	}

	return response, nil
}

// fetchPage performs one feed page request. An empty cursor asks for the top.
func (service *Service) fetchPage(ctx context.Context, feedType FeedType, cursor string) (*feedResponse, error) {

	params := feedcursor.Params{Cursor: cursor, Limit: pageSize}

	page := &feedResponse{}
	if err := service.client.Do(ctx, http.MethodGet, feedType.endpoint(), params.Values(), nil, page); err != nil {
		return nil, err
	}

	return page, nil
}

// phaseAfterLoad maps the server's has_more flag to the resting phase.
func phaseAfterLoad(hasMore bool) Phase {
	if !hasMore {
		return PhaseExhausted
	}
	return PhaseIdle
}
