// Copyright (c) 2026 SaveState. All rights reserved.
// Author: dev@savestate.social

package activity

import "github.com/savestate/savestate-go/pkg/feedcursor"

// # Types

// User is the actor attached to an activity item.
type User struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
	Slug     string `json:"slug"`
}

// Game is the optional game a feed item refers to.
type Game struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	IGDBID      string  `json:"igdb_id"`
	CoverURL    *string `json:"cover_url,omitempty"`
	ReleaseDate *string `json:"release_date,omitempty"`
}

// Activity is one feed item: a user action with optional game context and
// free-form metadata (counts, list titles, rating values).
type Activity struct {
	ID         int64          `json:"id"`
	UserID     int64          `json:"user_id"`
	GameID     *int64         `json:"game_id,omitempty"`
	Type       string         `json:"type"`
	Content    string         `json:"content"`
	Visibility string         `json:"visibility"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	CreatedAt  string         `json:"created_at"`
	UpdatedAt  string         `json:"updated_at"`
	User       User           `json:"user"`
	Game       *Game          `json:"game,omitempty"`
}

// Stats are the viewer's aggregate activity counters.
type Stats struct {
	TotalActivities int64   `json:"total_activities"`
	GamesAdded      int64   `json:"games_added"`
	ReviewsWritten  int64   `json:"reviews_written"`
	RatingsGiven    int64   `json:"ratings_given"`
	ListsCreated    int64   `json:"lists_created"`
	UsersFollowed   int64   `json:"users_followed"`
	MostActiveDay   *string `json:"most_active_day,omitempty"`
}

// feedResponse is the backend's cursor-paginated feed envelope.
type feedResponse struct {
	Data []Activity `json:"data"`
	feedcursor.PageInfo
}

// searchResponse is the backend's activity search envelope.
type searchResponse struct {
	Data  []Activity `json:"data"`
	Query string     `json:"query"`
}

// UserActivities is the per-user activity listing with its subject.
type UserActivities struct {
	Data []Activity `json:"data"`
	User User       `json:"user"`
}
