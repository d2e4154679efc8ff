// Copyright (c) 2026 SaveState. All rights reserved.
// Author: dev@savestate.social

/*
Package users implements user search, public profiles, and follow actions.

Every operation that learns a user's ground-truth follow status pushes it
into the shared follow registry, keeping follow buttons consistent across
independently-fetched views.
*/
package users

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/savestate/savestate-go/internal/api"
	"github.com/savestate/savestate-go/internal/social"
)

// DefaultSearchLimit is the result cap when the caller does not specify one.
const DefaultSearchLimit = 20

// # Types

// User is a user search result.
type User struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Username    string `json:"username"`
	Slug        string `json:"slug"`
	CreatedAt   string `json:"created_at"`
	IsFollowing bool   `json:"isFollowing"`
}

// Profile is a user's public profile page payload.
type Profile struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	Username       string `json:"username"`
	Slug           string `json:"slug"`
	CreatedAt      string `json:"created_at"`
	IsFollowing    bool   `json:"isFollowing"`
	FollowersCount int64  `json:"followers_count"`
	FollowingCount int64  `json:"following_count"`
}

// searchPayload is the user search envelope.
type searchPayload struct {
	Users []User `json:"users"`
}

// followPayload is the follow toggle response.
type followPayload struct {
	Following bool `json:"following"`
}

// # Service

// Service implements user operations.
type Service struct {
	client    *api.Client
	following *social.Registry
}

// NewService constructs a users [Service].
func NewService(client *api.Client, following *social.Registry) *Service {
	return &Service{client: client, following: following}
}

/*
SearchUsers searches users by name or username.

Description: Each result's follow status is pushed into the follow registry
as ground truth, so follow buttons elsewhere update immediately.

Parameters:
  - context: context.Context
  - query: Search text
  - limit: Result cap; values < 1 fall back to DefaultSearchLimit

Returns:
  - []User: Matches, server order
  - error: Request failures
*/
func (service *Service) SearchUsers(context context.Context, query string, limit int) ([]User, error) {

	if limit < 1 {
		limit = DefaultSearchLimit
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("limit", strconv.Itoa(limit))

	payload := &searchPayload{}
	if err := service.client.Do(context, http.MethodGet, "/users/search", params, nil, payload); err != nil {
		return nil, err
	}

	// Seed the registry with server truth for every result.
	for _, user := range payload.Users {
		service.following.SetFollowing(user.ID, user.IsFollowing)
	}

	return payload.Users, nil
}

/*
Profile fetches a user's public profile by slug.

Description: The profile's follow status is ground truth and overwrites any
optimistic registry state for that user.

Parameters:
  - context: context.Context
  - slug: string

Returns:
  - *Profile: The profile
  - error: apperr.API 404 for unknown slugs, or request failures
*/
func (service *Service) Profile(context context.Context, slug string) (*Profile, error) {

	path := fmt.Sprintf("/users/%s", slug)

	profile := &Profile{}
	if err := service.client.Do(context, http.MethodGet, path, nil, nil, profile); err != nil {
		return nil, err
	}

	service.following.SetFollowing(profile.ID, profile.IsFollowing)

	return profile, nil
}

/*
ToggleFollow follows or unfollows a user and records the server's answer in
the follow registry.

Parameters:
  - context: context.Context
  - slug: string
  - userID: int64 (registry key; the endpoint addresses by slug)

Returns:
  - bool: Whether the viewer now follows the user
  - error: Request failures (registry state is left untouched on failure)
*/
func (service *Service) ToggleFollow(context context.Context, slug string, userID int64) (bool, error) {

	path := fmt.Sprintf("/users/%s/follow", slug)

	payload := &followPayload{}
	if err := service.client.Do(context, http.MethodPost, path, nil, nil, payload); err != nil {
		return service.following.IsFollowing(userID), err
	}

	service.following.SetFollowing(userID, payload.Following)

	return payload.Following, nil
}
