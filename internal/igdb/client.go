// Copyright (c) 2026 SaveState. All rights reserved.
// Author: dev@savestate.social

/*
Package igdb implements the client for the third-party game catalog API.

The catalog (IGDB) is queried with a small query language POSTed as the
request body, authenticated with a Client-ID header plus a bearer token.
The bearer is not a user credential: the SaveState backend brokers it via
its /search-token endpoint, and this package caches it in device storage
with a 300-second expiry buffer (see [TokenCache]).

Architecture:

  - TokenCache: Demand-driven token acquisition, persistence and refresh.
  - Client: Query execution with client-side rate limiting and centralized
    401 recovery (forced token refetch + single retry).
*/
package igdb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/time/rate"

	"github.com/savestate/savestate-go/internal/platform/apperr"
	"github.com/savestate/savestate-go/internal/platform/ctxutil"
)

// requestsPerSecond matches the catalog's documented per-client limit.
const requestsPerSecond = 4

// # Types

// Cover is a game's cover art reference.
type Cover struct {
	URL string `json:"url"`
}

// Game is a catalog search result.
type Game struct {
	ID     int64   `json:"id"`
	Name   string  `json:"name"`
	Cover  *Cover  `json:"cover,omitempty"`
	Rating float64 `json:"rating,omitempty"`
}

// # Client

// Client executes catalog queries.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  *TokenCache
	limiter *rate.Limiter
}

// NewClient constructs a catalog [Client].
func NewClient(baseURL string, httpClient *http.Client, tokens *TokenCache) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		tokens:  tokens,
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond),
	}
}

/*
SearchGames runs a full-text game search against the catalog.

Parameters:
  - context: context.Context
  - query: Raw user query text
  - limit: Maximum results (clamped to 1..50)

Returns:
  - []Game: Matching games, catalog relevance order
  - error: apperr.Network, apperr.API, or token acquisition failures
*/
func (client *Client) SearchGames(context context.Context, query string, limit int) ([]Game, error) {

	body := fmt.Sprintf(
		`search "%s"; fields name,rating,cover.url; limit %d; where version_parent = null;`,
		escapeQuery(query), clampLimit(limit),
	)

	games := []Game{}
	if err := client.do(context, "/games", body, &games); err != nil {
		return nil, err
	}

	return games, nil
}

/*
PopularGames returns the catalog's most-rated games, used by the trending view.

Parameters:
  - context: context.Context
  - limit: Maximum results (clamped to 1..50)

Returns:
  - []Game: Games ordered by rating volume
  - error: apperr.Network, apperr.API, or token acquisition failures
*/
func (client *Client) PopularGames(context context.Context, limit int) ([]Game, error) {

	body := fmt.Sprintf(
		`fields name,rating,cover.url; sort total_rating_count desc; where rating != null; limit %d;`,
		clampLimit(limit),
	)

	games := []Game{}
	if err := client.do(context, "/games", body, &games); err != nil {
		return nil, err
	}

	return games, nil
}

// do executes one catalog query with rate limiting and 401 recovery.
//
// On a 401 the cached token is force-refreshed and the query retried once;
// a second 401 surfaces as apperr.Unauthorized.
func (client *Client) do(ctx context.Context, endpoint, body string, out any) error {

	// Client-side throttle; blocks until a slot is available or ctx dies.
	if err := client.limiter.Wait(ctx); err != nil {
		return apperr.Network(err)
	}

	token, err := client.tokens.GetValidToken(ctx)
	if err != nil {
		return err
	}

	status, err := client.once(ctx, endpoint, body, token, out)
	if err != nil {
		return err
	}

	if status == http.StatusUnauthorized {
		ctxutil.GetLogger(ctx).Debug("igdb_token_rejected_refreshing")

		token, err = client.tokens.ForceRefresh(ctx)
		if err != nil {
			return err
		}

		status, err = client.once(ctx, endpoint, body, token, out)
		if err != nil {
			return err
		}
		if status == http.StatusUnauthorized {
			return apperr.Unauthorized("Catalog rejected a freshly issued token")
		}
	}

	return nil
}

// once performs a single query attempt. A 401 is reported via the status
// with a nil error so the caller can run the refresh protocol.
func (client *Client) once(ctx context.Context, endpoint, body string, token *Token, out any) (int, error) {

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, client.baseURL+endpoint, strings.NewReader(body))
	if err != nil {
		return 0, apperr.Internal(fmt.Errorf("igdb_build_request_failed: %w", err))
	}

	request.Header.Set("Accept", "application/json")
	request.Header.Set("Client-ID", token.ClientID)
	request.Header.Set("Authorization", "Bearer "+token.AccessToken)

	response, err := client.http.Do(request)
	if err != nil {
		return 0, apperr.Network(err)
	}
	defer func() { _ = response.Body.Close() }()

	if response.StatusCode == http.StatusUnauthorized {
		return response.StatusCode, nil
	}

	if response.StatusCode < 200 || response.StatusCode > 299 {
		ctxutil.GetLogger(ctx).Error("igdb_query_failed",
			slog.Int("status", response.StatusCode),
			slog.String("endpoint", endpoint),
		)
		return response.StatusCode, apperr.API(response.StatusCode, "Failed to fetch games")
	}

	raw, err := io.ReadAll(response.Body)
	if err != nil {
		return response.StatusCode, apperr.Network(err)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return response.StatusCode, apperr.Internal(fmt.Errorf("igdb_decode_response_failed: %w", err))
	}

	return response.StatusCode, nil
}

// escapeQuery neutralizes double quotes so user text cannot break out of
// the quoted search term in the query body.
func escapeQuery(query string) string {
	return strings.ReplaceAll(query, `"`, `\"`)
}

// clampLimit bounds a caller-supplied limit to the catalog's accepted range.
func clampLimit(limit int) int {
	if limit < 1 || limit > 50 {
		return 20
	}
	return limit
}
