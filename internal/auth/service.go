// Copyright (c) 2026 SaveState. All rights reserved.
// Author: dev@savestate.social

/*
Package auth implements the client side of the SaveState identity lifecycle.

It handles login, registration, logout, profile updates and session
persistence. The session (user identity + access token) is created on
successful login or registration, held in device storage for the
authenticated lifetime of the client, destroyed on logout, and re-derived
from storage on cold start.

Architecture:

  - SessionStore: Persistence of the session blob in device storage.
  - Service: Orchestrates the /auth/* endpoints and keeps storage in sync.
  - Refresh: The service implements the request client's TokenRefresher
    contract, so 401 recovery is centralized rather than per call site.
*/
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/savestate/savestate-go/internal/api"
	"github.com/savestate/savestate-go/internal/platform/apperr"
	"github.com/savestate/savestate-go/internal/platform/ctxutil"
)

// Service implements authentication use cases against the backend.
type Service struct {
	client   *api.Client
	sessions *SessionStore
}

// NewService constructs an auth [Service].
func NewService(client *api.Client, sessions *SessionStore) *Service {
	return &Service{client: client, sessions: sessions}
}

// # Wire Shapes

// authPayload is the backend envelope for login/register responses.
type authPayload struct {
	Data struct {
		Token        string `json:"token"`
		RefreshToken string `json:"refresh_token"`
		User         User   `json:"user"`
	} `json:"data"`
}

// userPayload is the backend envelope for single-user responses.
type userPayload struct {
	Data User `json:"data"`
}

// profilePayload is the backend envelope for profile update responses.
type profilePayload struct {
	Data struct {
		User User `json:"user"`
	} `json:"data"`
}

// refreshPayload is the backend envelope for token refresh responses.
type refreshPayload struct {
	Data struct {
		Token string `json:"token"`
	} `json:"data"`
}

// # Sign-In Flow

/*
Login authenticates with email and password and persists the session.

Parameters:
  - context: context.Context
  - email: string
  - password: string

Returns:
  - *Session: The new persisted session
  - error: apperr.API with the server message, or transport/storage errors
*/
func (service *Service) Login(context context.Context, email, password string) (*Session, error) {

	body := map[string]string{"email": email, "password": password}

	payload := &authPayload{}
	if err := service.client.Do(context, http.MethodPost, "/auth/login", nil, body, payload); err != nil {
		return nil, err
	}

	session := &Session{
		User:         payload.Data.User,
		AccessToken:  payload.Data.Token,
		RefreshToken: payload.Data.RefreshToken,
	}

	// Persist before returning so the bearer is visible to every service
	if err := service.sessions.Save(context, session); err != nil {
		return nil, err
	}

	ctxutil.GetLogger(context).Info("auth_login_succeeded",
		slog.String("user_slug", session.User.Slug),
	)

	return session, nil
}

/*
Register enrolls a new account and persists the resulting session.

Parameters:
  - context: context.Context
  - name: string
  - email: string
  - password: string
  - passwordConfirmation: string

Returns:
  - *Session: The new persisted session
  - error: apperr.API (validation/conflict) or transport/storage errors
*/
func (service *Service) Register(context context.Context, name, email, password, passwordConfirmation string) (*Session, error) {

	body := map[string]string{
		"name":                  name,
		"email":                 email,
		"password":              password,
		"password_confirmation": passwordConfirmation,
	}

	payload := &authPayload{}
	if err := service.client.Do(context, http.MethodPost, "/auth/register", nil, body, payload); err != nil {
		return nil, err
	}

	session := &Session{
		User:         payload.Data.User,
		AccessToken:  payload.Data.Token,
		RefreshToken: payload.Data.RefreshToken,
	}

	if err := service.sessions.Save(context, session); err != nil {
		return nil, err
	}

	ctxutil.GetLogger(context).Info("auth_register_succeeded",
		slog.String("user_slug", session.User.Slug),
	)

	return session, nil
}

// # Session Lifetime

/*
Logout tells the backend to revoke the session, then clears local storage.

Description: Storage is cleared even when the revoke call fails; a dead
server must not leave the device signed in.

Parameters:
  - context: context.Context

Returns:
  - error: Storage failures only; revoke failures are logged and swallowed
*/
func (service *Service) Logout(context context.Context) error {

	if err := service.client.Do(context, http.MethodPost, "/auth/logout", nil, nil, nil); err != nil {
		ctxutil.GetLogger(context).Warn("auth_logout_revoke_failed", slog.Any("error", err))
	}

	return service.sessions.Clear(context)
}

/*
CurrentUser fetches the authenticated account from the backend.

Description: Used on cold start to validate the persisted session. A 401
that survives the client's centralized refresh-retry clears the session.

Parameters:
  - context: context.Context

Returns:
  - *User: The authenticated user
  - error: apperr.Unauthorized after the session is cleared, or other failures
*/
func (service *Service) CurrentUser(context context.Context) (*User, error) {

	payload := &userPayload{}
	if err := service.client.Do(context, http.MethodGet, "/auth/user", nil, nil, payload); err != nil {
		if ae := apperr.As(err); ae != nil && ae.Code == "UNAUTHORIZED" {
			// The refresh path already failed; the stored session is dead.
			_ = service.sessions.Clear(context)
		}
		return nil, err
	}

	return &payload.Data, nil
}

/*
UpdateProfile patches the account profile and refreshes the stored identity.

Parameters:
  - context: context.Context
  - input: ProfileInput (nil fields are omitted from the request)

Returns:
  - *User: The updated user
  - error: apperr.API or transport/storage errors
*/
func (service *Service) UpdateProfile(context context.Context, input ProfileInput) (*User, error) {

	payload := &profilePayload{}
	if err := service.client.Do(context, http.MethodPut, "/auth/profile", nil, input, payload); err != nil {
		return nil, err
	}

	// Keep the persisted identity in sync with the server copy
	session, err := service.sessions.Load(context)
	if err == nil && session != nil {
		session.User = payload.Data.User
		_ = service.sessions.Save(context, session)
	}

	return &payload.Data.User, nil
}

// ProfileInput holds the optional profile fields for [Service.UpdateProfile].
type ProfileInput struct {
	Name     *string `json:"name,omitempty"`
	Username *string `json:"username,omitempty"`
	Email    *string `json:"email,omitempty"`
}

// Session returns the persisted session, or nil when signed out.
func (service *Service) Session(context context.Context) (*Session, error) {
	return service.sessions.Load(context)
}

// # Token Refresh

/*
RefreshSession exchanges the stored refresh token for a new access token.

Description: Implements the request client's TokenRefresher contract. The
request client calls this once when it observes a 401, then retries the
original request.

Parameters:
  - context: context.Context

Returns:
  - error: When no refresh token is stored or the exchange is rejected
*/
func (service *Service) RefreshSession(context context.Context) error {

	session, err := service.sessions.Load(context)
	if err != nil {
		return err
	}
	if session == nil || session.RefreshToken == "" {
		return apperr.Unauthorized("No refresh token available")
	}

	body := map[string]string{"refresh_token": session.RefreshToken}

	payload := &refreshPayload{}
	if err := service.client.Do(context, http.MethodPost, "/auth/refresh", nil, body, payload); err != nil {
		return fmt.Errorf("auth_refresh_failed: %w", err)
	}

	session.AccessToken = payload.Data.Token
	return service.sessions.Save(context, session)
}
