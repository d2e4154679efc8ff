// Copyright (c) 2026 SaveState. All rights reserved.
// Author: dev@savestate.social

/*
Package search holds the search registry: the shared state of the search
UI, scoped to its lifetime.

The registry carries the active query text, the active result-kind tab
(games vs users), the result slices for BOTH kinds, and a loading flag.
Submitting a search dispatches to the third-party catalog or the backend
user search depending on the active tab; the other tab's results are left
untouched. There is no per-keystroke debouncing — a search runs only on
explicit submit.

Like the follow registry, this is an explicit context object injected at
the application root, not an ambient singleton.
*/
package search

import (
	"context"
	"strings"
	"sync"

	"github.com/savestate/savestate-go/internal/igdb"
	"github.com/savestate/savestate-go/internal/social"
	"github.com/savestate/savestate-go/internal/users"
)

// Tab selects which result kind a search targets.
type Tab string

const (
	TabGames Tab = "games"
	TabUsers Tab = "users"
)

// gameLimit is the fixed catalog result cap, matching the search screen.
const gameLimit = 20

// UserSearcher is the slice of the users service this registry needs.
type UserSearcher interface {
	SearchUsers(ctx context.Context, query string, limit int) ([]users.User, error)
}

// GameSearcher is the slice of the catalog client this registry needs.
type GameSearcher interface {
	SearchGames(ctx context.Context, query string, limit int) ([]igdb.Game, error)
}

// Registry is the search UI's shared state. Safe for concurrent use.
type Registry struct {
	games     GameSearcher
	users     UserSearcher
	following *social.Registry

	mu          sync.Mutex
	query       string
	activeTab   Tab
	gameResults []igdb.Game
	userResults []users.User
	loading     bool
}

// NewRegistry creates a search registry with the games tab active.
func NewRegistry(games GameSearcher, userSearch UserSearcher, following *social.Registry) *Registry {
	return &Registry{
		games:     games,
		users:     userSearch,
		following: following,
		activeTab: TabGames,
	}
}

// # State Accessors

// SetQuery replaces the active query text. Does not trigger a search.
func (registry *Registry) SetQuery(query string) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	registry.query = query
}

// Query returns the active query text.
func (registry *Registry) Query() string {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	return registry.query
}

// SetActiveTab switches the result-kind tab. Existing results on both tabs
// are preserved.
func (registry *Registry) SetActiveTab(tab Tab) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	registry.activeTab = tab
}

// ActiveTab returns the active result-kind tab.
func (registry *Registry) ActiveTab() Tab {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	return registry.activeTab
}

// Games returns the current game results.
func (registry *Registry) Games() []igdb.Game {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	return registry.gameResults
}

// Users returns the current user results.
func (registry *Registry) Users() []users.User {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	return registry.userResults
}

// Loading reports whether a search is in flight.
func (registry *Registry) Loading() bool {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	return registry.loading
}

// # Actions

/*
Search runs the active query against the active tab's source.

Description: A blank query is a no-op. Only the active tab's result slice
is replaced; the other tab keeps its previous results. User results seed
the follow registry with ground-truth follow status (the users service
does this as part of the search).

Parameters:
  - context: context.Context

Returns:
  - error: The underlying search failure; previous results are kept on error
*/
func (registry *Registry) Search(context context.Context) error {

	registry.mu.Lock()
	query := strings.TrimSpace(registry.query)
	tab := registry.activeTab
	if query == "" {
		registry.mu.Unlock()
		return nil
	}
	registry.loading = true
	registry.mu.Unlock()

	defer func() {
		registry.mu.Lock()
		registry.loading = false
		registry.mu.Unlock()
	}()

	if tab == TabUsers {
		results, err := registry.users.SearchUsers(context, query, users.DefaultSearchLimit)
		if err != nil {
			return err
		}

		registry.mu.Lock()
		registry.userResults = results
		registry.mu.Unlock()
		return nil
	}

	results, err := registry.games.SearchGames(context, query, gameLimit)
	if err != nil {
		return err
	}

	registry.mu.Lock()
	registry.gameResults = results
	registry.mu.Unlock()
	return nil
}

// Clear resets the query and BOTH result slices.
func (registry *Registry) Clear() {
	registry.mu.Lock()
	defer registry.mu.Unlock()

	registry.query = ""
	registry.gameResults = nil
	registry.userResults = nil
}
