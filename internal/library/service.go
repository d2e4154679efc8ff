// Copyright (c) 2026 SaveState. All rights reserved.
// Author: dev@savestate.social

/*
Package library implements game list membership and custom list curation.

It covers the four built-in lists (wishlist, collection, backlog, game) and
user-curated custom lists. Membership for a game across all built-in lists
is a single batched read. Mutations invalidate whole cache groups — a
successful add/remove drops every cached statuses read and the aggregate
user-lists read, so the next reader refetches confirmed state.

Unlike the rating flow, list mutations apply NO optimistic update: the UI
reflects only server-confirmed membership.
*/
package library

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/savestate/savestate-go/internal/api"
	"github.com/savestate/savestate-go/internal/platform/apperr"
	"github.com/savestate/savestate-go/internal/platform/cache"
)

// Cache resource groups owned (and invalidated) by this package.
const (
	ResourceGameListStatus = "game_list_status"
	ResourceCustomLists    = "custom_lists"
	ResourceUserLists      = "user_lists"
)

// SlugSource supplies the signed-in user's slug for /u/{slug}/... paths.
type SlugSource interface {
	Slug(ctx context.Context) string
}

// Service implements list reads and mutations.
type Service struct {
	client *api.Client
	cache  *cache.Cache
	slugs  SlugSource
}

// NewService constructs a library [Service].
func NewService(client *api.Client, responseCache *cache.Cache, slugs SlugSource) *Service {
	return &Service{client: client, cache: responseCache, slugs: slugs}
}

// # Built-In List Membership

/*
ListStatuses reports which built-in lists contain the game.

Description: One batched read against /u/{slug}/checklists/{gameID}; the
result is cached under the game's status key until a mutation invalidates
the group.

Parameters:
  - context: context.Context
  - gameID: int64

Returns:
  - *Statuses: Membership across wishlist/collection/backlog/game
  - error: apperr.Validation when signed out, or request failures
*/
func (service *Service) ListStatuses(context context.Context, gameID int64) (*Statuses, error) {

	slug := service.slugs.Slug(context)
	if slug == "" {
		return nil, apperr.Validation("Sign in to read list membership")
	}

	key := cache.Key{Resource: ResourceGameListStatus, ID: strconv.FormatInt(gameID, 10)}
	if cached, ok := service.cache.Get(key); ok {
		statuses := cached.(Statuses)
		return &statuses, nil
	}

	path := fmt.Sprintf("/u/%s/checklists/%d", slug, gameID)

	payload := &statusesPayload{}
	if err := service.client.Do(context, http.MethodGet, path, nil, nil, payload); err != nil {
		return nil, err
	}

	service.cache.Set(key, payload.Data)
	return &payload.Data, nil
}

/*
AddToList adds a game to a built-in (or, with ListID set, custom) list.

Description: No optimistic update; on success the statuses and user-lists
cache groups are invalidated so readers refetch confirmed membership.

Parameters:
  - context: context.Context
  - params: AddParams

Returns:
  - *Item: The created list item
  - error: Request failures
*/
func (service *Service) AddToList(context context.Context, params AddParams) (*Item, error) {

	item := &Item{}
	if err := service.client.Do(context, http.MethodPost, "/lists/items", nil, params, item); err != nil {
		return nil, err
	}

	service.cache.Invalidate(ResourceGameListStatus, ResourceUserLists)
	if params.ListID != nil {
		service.cache.Invalidate(ResourceCustomLists)
	}

	return item, nil
}

/*
RemoveFromList removes a game from one built-in list.

Parameters:
  - context: context.Context
  - gameID: int64
  - listType: ListType

Returns:
  - error: Request failures
*/
func (service *Service) RemoveFromList(context context.Context, gameID int64, listType ListType) error {

	path := fmt.Sprintf("/lists/items/%d/%s", gameID, listType)

	if err := service.client.Do(context, http.MethodDelete, path, nil, nil, nil); err != nil {
		return err
	}

	service.cache.Invalidate(ResourceGameListStatus, ResourceUserLists)
	return nil
}

// # Custom Lists

/*
CustomLists returns the viewer's custom lists, cached until a mutation.

Parameters:
  - context: context.Context

Returns:
  - []CustomList: All custom lists with items
  - error: Request failures
*/
func (service *Service) CustomLists(context context.Context) ([]CustomList, error) {

	key := cache.Key{Resource: ResourceCustomLists}
	if cached, ok := service.cache.Get(key); ok {
		return cached.([]CustomList), nil
	}

	payload := &customListsPayload{}
	if err := service.client.Do(context, http.MethodGet, "/lists/custom", nil, nil, payload); err != nil {
		return nil, err
	}

	service.cache.Set(key, payload.Data)
	return payload.Data, nil
}

// CreateList creates a custom list and invalidates the list cache groups.
func (service *Service) CreateList(context context.Context, input CustomListInput) (*CustomList, error) {

	created := &CustomList{}
	if err := service.client.Do(context, http.MethodPost, "/lists/custom", nil, input, created); err != nil {
		return nil, err
	}

	service.cache.Invalidate(ResourceCustomLists, ResourceUserLists)
	return created, nil
}

// UpdateList updates a custom list's title, description, or visibility.
func (service *Service) UpdateList(context context.Context, listID int64, input CustomListInput) (*CustomList, error) {

	path := fmt.Sprintf("/lists/custom/%d", listID)

	updated := &CustomList{}
	if err := service.client.Do(context, http.MethodPut, path, nil, input, updated); err != nil {
		return nil, err
	}

	service.cache.Invalidate(ResourceCustomLists, ResourceUserLists)
	return updated, nil
}

// DeleteList deletes a custom list.
func (service *Service) DeleteList(context context.Context, listID int64) error {

	path := fmt.Sprintf("/lists/custom/%d", listID)

	if err := service.client.Do(context, http.MethodDelete, path, nil, nil, nil); err != nil {
		return err
	}

	service.cache.Invalidate(ResourceCustomLists, ResourceUserLists)
	return nil
}

/*
AddGameToList adds a game to a specific custom list.

Parameters:
  - context: context.Context
  - listID: int64
  - gameID: int64
  - note: optional note (*string, may be nil)
  - rank: optional rank (*int, may be nil)

Returns:
  - *Item: The created item
  - error: Request failures
*/
func (service *Service) AddGameToList(context context.Context, listID, gameID int64, note *string, rank *int) (*Item, error) {

	params := AddParams{
		GameID: gameID,
		Type:   ListGame,
		ListID: &listID,
		Note:   note,
		Rank:   rank,
	}

	item := &Item{}
	if err := service.client.Do(context, http.MethodPost, "/lists/items", nil, params, item); err != nil {
		return nil, err
	}

	service.cache.Invalidate(ResourceCustomLists, ResourceUserLists)
	return item, nil
}

// RemoveGameFromList removes a game from a specific custom list.
func (service *Service) RemoveGameFromList(context context.Context, listID, gameID int64) error {

	path := fmt.Sprintf("/lists/custom/%d/games/%d", listID, gameID)

	if err := service.client.Do(context, http.MethodDelete, path, nil, nil, nil); err != nil {
		return err
	}

	service.cache.Invalidate(ResourceCustomLists, ResourceUserLists)
	return nil
}

// Reorder submits the full new ordering of a custom list's items.
func (service *Service) Reorder(context context.Context, listID int64, input ReorderInput) error {

	path := fmt.Sprintf("/lists/custom/%d/reorder", listID)

	if err := service.client.Do(context, http.MethodPost, path, nil, input, nil); err != nil {
		return err
	}

	service.cache.Invalidate(ResourceCustomLists, ResourceUserLists)
	return nil
}

// # Aggregate User Lists

/*
UserLists returns the viewer's built-in lists with items, cached until a
mutation anywhere in this package invalidates the group.

Parameters:
  - context: context.Context

Returns:
  - []List: The built-in lists
  - error: Request failures
*/
func (service *Service) UserLists(context context.Context) ([]List, error) {

	key := cache.Key{Resource: ResourceUserLists}
	if cached, ok := service.cache.Get(key); ok {
		return cached.([]List), nil
	}

	payload := &userListsPayload{}
	if err := service.client.Do(context, http.MethodGet, "/lists", nil, nil, payload); err != nil {
		return nil, err
	}

	service.cache.Set(key, payload.Data)
	return payload.Data, nil
}

// ListByType returns the built-in list of the given type, or nil.
func (service *Service) ListByType(context context.Context, listType ListType) (*List, error) {
	lists, err := service.UserLists(context)
	if err != nil {
		return nil, err
	}

	for index := range lists {
		if lists[index].Type == listType {
			return &lists[index], nil
		}
	}
	return nil, nil
}

// ItemsByType returns the items of the built-in list of the given type.
// A missing list yields an empty slice, not an error.
func (service *Service) ItemsByType(context context.Context, listType ListType) ([]Item, error) {
	list, err := service.ListByType(context, listType)
	if err != nil {
		return nil, err
	}
	if list == nil {
		return []Item{}, nil
	}
	return list.Items, nil
}
