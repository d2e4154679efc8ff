// Copyright (c) 2026 SaveState. All rights reserved.
// Author: dev@savestate.social

// Package feedcursor provides shared types and helpers for cursor-paginated
// feed endpoints.
//
// # Overview
//
// The backend paginates feeds with an opaque position marker rather than a
// numeric offset: each page carries the cursor for the next one plus a
// has-more flag. This package standardizes how that protocol is requested
// via query parameters and decoded from responses.
package feedcursor

import (
	"net/url"
	"strconv"
)

const (
	// DefaultLimit is the number of items per page if not specified.
	DefaultLimit = 20
	// MaxLimit is the upper bound for items per page.
	MaxLimit = 100
)

// Params holds the cursor and limit for one page request.
type Params struct {
	// Cursor is the opaque marker from the previous page. Empty requests
	// the top of the feed.
	Cursor string
	Limit  int
}

// Values encodes the params as query parameters, clamping the limit.
//
// # Clamping
//
// Invalid, negative, or excessive limits are replaced with [DefaultLimit].
// An empty cursor is omitted entirely.
func (p Params) Values() url.Values {
	limit := p.Limit
	if limit < 1 || limit > MaxLimit {
		limit = DefaultLimit
	}

	values := url.Values{}
	values.Set("limit", strconv.Itoa(limit))
	if p.Cursor != "" {
		values.Set("cursor", p.Cursor)
	}
	return values
}

// PageInfo is the pagination trailer every feed response carries.
type PageInfo struct {
	Cursor  string `json:"cursor"`
	HasMore bool   `json:"has_more"`
}
