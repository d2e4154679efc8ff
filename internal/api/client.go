// Copyright (c) 2026 SaveState. All rights reserved.
// Author: dev@savestate.social

/*
Package api implements the authenticated request client for the SaveState
backend REST API.

Every service in the client funnels its backend traffic through [Client.Do],
which is the single point of:

  - Session bearer attachment (Authorization header, when a session exists).
  - Correlation (X-Request-ID header, uuid per request).
  - Failure translation into the [apperr] taxonomy: transport failures,
    structured API errors, bodyless API errors.
  - 401 handling: one session refresh through the injected [TokenRefresher]
    followed by one retry. Call sites never implement their own refresh.

The client does not retry on transport failure, rate-limit, or
circuit-break. Callers decide whether a failed operation is retried.
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/savestate/savestate-go/internal/platform/apperr"
	"github.com/savestate/savestate-go/internal/platform/ctxutil"
)

// # Contracts

// SessionSource supplies the current session bearer token.
// An empty string means "no session"; the request goes out unauthenticated.
type SessionSource interface {
	Token(ctx context.Context) string
}

// TokenRefresher exchanges the stored refresh token for a new access token.
// Invoked by [Client.Do] exactly once per request when a 401 is observed.
type TokenRefresher interface {
	RefreshSession(ctx context.Context) error
}

// # Client

// Client is the authenticated HTTP client for the backend API.
type Client struct {
	baseURL   string
	http      *http.Client
	sessions  SessionSource
	refresher TokenRefresher
	log       *slog.Logger
}

// NewClient constructs a [Client]. The refresher is attached separately via
// [Client.SetRefresher] because the auth service that provides it also
// depends on this client.
func NewClient(baseURL string, httpClient *http.Client, sessions SessionSource, log *slog.Logger) *Client {
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		http:     httpClient,
		sessions: sessions,
		log:      log,
	}
}

// SetRefresher wires the session refresher used for centralized 401 recovery.
func (client *Client) SetRefresher(refresher TokenRefresher) {
	client.refresher = refresher
}

// errorBody is the shape probed for a server-provided failure message.
// The backend uses both "message" and "error" fields depending on endpoint.
type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

/*
Do issues a JSON request against the backend and decodes the response into out.

Description: Attaches the session bearer when one exists, adds a correlation
ID, and normalizes every failure into an [*apperr.AppError]. On a 401 with a
wired refresher it refreshes the session once and retries once; the refresh
endpoint itself is exempt to avoid recursion.

Parameters:
  - ctx: context.Context
  - method: HTTP verb
  - path: API path starting with "/" (e.g. "/auth/login")
  - query: optional query parameters (may be nil)
  - body: request payload, JSON-encoded (may be nil)
  - out: destination for the decoded response body (may be nil)

Returns:
  - error: apperr.Network, apperr.API, apperr.Unauthorized, or apperr.Internal
*/
func (client *Client) Do(ctx context.Context, method, path string, query url.Values, body any, out any) error {

	// Encode once so a retry can resend the identical payload.
	var payload []byte
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return apperr.Internal(fmt.Errorf("api_encode_request_failed: %w", err))
		}
		payload = encoded
	}

	status, err := client.once(ctx, method, path, query, payload, out)
	if err != nil {
		return err
	}

	// Centralized 401 recovery: refresh the session once and retry once.
	// The refresh endpoint is exempt; a 401 there means the session is dead.
	if status == http.StatusUnauthorized {
		if client.refresher == nil || path == "/auth/refresh" {
			return apperr.Unauthorized("Session expired")
		}

		ctxutil.GetLogger(ctx).Debug("api_session_refresh_triggered", slog.String("path", path))

		if refreshErr := client.refresher.RefreshSession(ctx); refreshErr != nil {
			return apperr.Unauthorized("Session expired")
		}

		status, err = client.once(ctx, method, path, query, payload, out)
		if err != nil {
			return err
		}
		if status == http.StatusUnauthorized {
			return apperr.Unauthorized("Session expired")
		}
	}

	return nil
}

// once performs a single request attempt.
//
// A 401 response is reported via the returned status with a nil error so
// [Client.Do] can run the refresh-and-retry protocol; every other non-2xx
// status is translated into an [*apperr.AppError] here.
func (client *Client) once(ctx context.Context, method, path string, query url.Values, payload []byte, out any) (int, error) {

	// Build the full URL
	target := client.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	request, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return 0, apperr.Internal(fmt.Errorf("api_build_request_failed: %w", err))
	}

	request.Header.Set("Accept", "application/json")
	if payload != nil {
		request.Header.Set("Content-Type", "application/json")
	}

	// Correlation ID: reuse the one in context (so one logical operation
	// shares an ID across calls) or mint a fresh one.
	requestID := ctxutil.GetRequestID(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	request.Header.Set("X-Request-ID", requestID)

	// Attach the session bearer if a session exists
	if token := client.sessions.Token(ctx); token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}

	response, err := client.http.Do(request)
	if err != nil {
		return 0, apperr.Network(err)
	}
	defer func() { _ = response.Body.Close() }()

	raw, err := io.ReadAll(response.Body)
	if err != nil {
		return response.StatusCode, apperr.Network(err)
	}

	// Surface 401 to the caller for the refresh protocol
	if response.StatusCode == http.StatusUnauthorized {
		return response.StatusCode, nil
	}

	if response.StatusCode < 200 || response.StatusCode > 299 {
		return response.StatusCode, apperr.API(response.StatusCode, serverMessage(raw))
	}

	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return response.StatusCode, apperr.Internal(fmt.Errorf("api_decode_response_failed: %w", err))
		}
	}

	return response.StatusCode, nil
}

// serverMessage extracts a usable failure message from a response body.
// Returns "" when the body is empty or not decodable, in which case the
// caller substitutes a generic message.
func serverMessage(raw []byte) string {
	if len(raw) == 0 {
		return ""
	}

	var body errorBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}

	if body.Message != "" {
		return body.Message
	}
	return body.Error
}
