// Copyright (c) 2026 SaveState. All rights reserved.
// Author: dev@savestate.social

package library

// # Types

// ListType is one of the four built-in list kinds a game can belong to.
type ListType string

const (
	ListWishlist   ListType = "wishlist"
	ListGame       ListType = "game"
	ListCollection ListType = "collection"
	ListBacklog    ListType = "backlog"
)

// Statuses is the batched membership answer for one game across all four
// built-in lists. It comes from a single read, not four.
type Statuses struct {
	Wishlist   bool `json:"wishlist"`
	Collection bool `json:"collection"`
	Backlog    bool `json:"backlog"`
	Game       bool `json:"game"`
}

// ItemGame is the denormalized game payload embedded in list items.
type ItemGame struct {
	ID          int64    `json:"id"`
	IGDBID      int64    `json:"igdb_id,omitempty"`
	Name        string   `json:"name"`
	CoverURL    *string  `json:"cover_url,omitempty"`
	ReleaseDate *string  `json:"release_date,omitempty"`
	Rating      *float64 `json:"rating,omitempty"`
}

// Item is one game's entry in a list.
type Item struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"user_id"`
	ListID    int64     `json:"list_id"`
	GameID    int64     `json:"game_id"`
	Note      *string   `json:"note,omitempty"`
	Rank      *int      `json:"rank,omitempty"`
	Order     *int      `json:"order,omitempty"`
	CreatedAt *string   `json:"created_at,omitempty"`
	UpdatedAt *string   `json:"updated_at,omitempty"`
	Game      *ItemGame `json:"game,omitempty"`
}

// List is one of the viewer's built-in lists with its items.
type List struct {
	ID         int64    `json:"id"`
	UserID     string   `json:"user_id"`
	Type       ListType `json:"type"`
	Title      *string  `json:"title,omitempty"`
	Visibility string   `json:"visibility"`
	CreatedAt  string   `json:"created_at"`
	UpdatedAt  string   `json:"updated_at"`
	Items      []Item   `json:"items,omitempty"`
}

// CustomList is a user-curated list with free-form title and description.
type CustomList struct {
	ID          int64   `json:"id"`
	UserID      string  `json:"user_id"`
	Type        string  `json:"type"`
	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"`
	Visibility  string  `json:"visibility"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
	Items       []Item  `json:"items,omitempty"`
}

// # Inputs

// AddParams adds a game to a built-in or custom list.
type AddParams struct {
	GameID int64    `json:"game_id"`
	Type   ListType `json:"type"`
	ListID *int64   `json:"list_id,omitempty"`
	Note   *string  `json:"note,omitempty"`
	Rank   *int     `json:"rank,omitempty"`
}

// CustomListInput creates or updates a custom list.
type CustomListInput struct {
	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"`
	Visibility  string  `json:"visibility"`
}

// ItemOrder is one item's target position in a reorder.
type ItemOrder struct {
	ID    int64 `json:"id"`
	Order int   `json:"order"`
}

// ReorderInput is the full new ordering of a custom list.
type ReorderInput struct {
	ItemOrders []ItemOrder `json:"item_orders"`
}

// # Wire Shapes

// statusesPayload is the checklist endpoint envelope.
type statusesPayload struct {
	Data    Statuses `json:"data"`
	Message *string  `json:"message"`
	Success bool     `json:"success"`
}

// customListsPayload is the custom lists envelope.
type customListsPayload struct {
	Data    []CustomList `json:"data"`
	Message *string      `json:"message"`
	Success bool         `json:"success"`
}

// userListsPayload is the aggregate built-in lists envelope.
type userListsPayload struct {
	Data    []List  `json:"data"`
	Message *string `json:"message"`
	Success bool    `json:"success"`
}
