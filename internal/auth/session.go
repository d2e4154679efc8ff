// Copyright (c) 2026 SaveState. All rights reserved.
// Author: dev@savestate.social

package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/savestate/savestate-go/internal/platform/kvstore"
)

// # Types

// User is the authenticated account as returned by the backend.
type User struct {
	ID              int64   `json:"id"`
	Name            string  `json:"name"`
	Username        string  `json:"username"`
	Slug            string  `json:"slug"`
	Email           string  `json:"email"`
	EmailVerifiedAt *string `json:"email_verified_at"`
}

// Session is the authenticated state of the client: the user identity plus
// the access token attached to every backend request. It is persisted to
// device storage on login and re-derived from there on cold start.
type Session struct {
	User         User   `json:"user"`
	AccessToken  string `json:"token"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

// TokenExpired reports whether the session's access token carries an "exp"
// claim in the past. The token is parsed WITHOUT signature verification:
// the client holds no signing keys and only wants an early expiry signal;
// the server remains the authority.
func (session *Session) TokenExpired(now time.Time) bool {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()

	if _, _, err := parser.ParseUnverified(session.AccessToken, claims); err != nil {
		// Opaque (non-JWT) tokens carry no expiry signal.
		return false
	}

	expiry, err := claims.GetExpirationTime()
	if err != nil || expiry == nil {
		return false
	}

	return now.After(expiry.Time)
}

// # Session Storage

// SessionStore persists the session blob under [kvstore.KeySession].
//
// It is the single reader the request client consults for the bearer token,
// so a session written here is immediately visible to every service.
type SessionStore struct {
	store kvstore.Store
}

// NewSessionStore creates a session store on top of device storage.
func NewSessionStore(store kvstore.Store) *SessionStore {
	return &SessionStore{store: store}
}

/*
Load reads the persisted session.

Description: An absent session is not an error; (nil, nil) is returned so
callers can distinguish "signed out" from storage failures.

Parameters:
  - context: context.Context

Returns:
  - *Session: The persisted session, or nil when signed out
  - error: Storage or decode failures
*/
func (sessions *SessionStore) Load(context context.Context) (*Session, error) {
	raw, err := sessions.store.Get(context, kvstore.KeySession)
	if err != nil {
		if errors.Is(err, kvstore.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("session_load_failed: %w", err)
	}

	session := &Session{}
	if err := json.Unmarshal([]byte(raw), session); err != nil {
		return nil, fmt.Errorf("session_decode_failed: %w", err)
	}

	return session, nil
}

/*
Save persists the session, replacing any previous one.

Parameters:
  - context: context.Context
  - session: *Session

Returns:
  - error: Storage failures
*/
func (sessions *SessionStore) Save(context context.Context, session *Session) error {
	raw, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("session_encode_failed: %w", err)
	}

	if err := sessions.store.Set(context, kvstore.KeySession, string(raw)); err != nil {
		return fmt.Errorf("session_save_failed: %w", err)
	}

	return nil
}

// Clear deletes the persisted session. Clearing an absent session is a no-op.
func (sessions *SessionStore) Clear(context context.Context) error {
	if err := sessions.store.Delete(context, kvstore.KeySession); err != nil {
		return fmt.Errorf("session_clear_failed: %w", err)
	}
	return nil
}

// Token implements the request client's SessionSource contract.
// Returns "" when no session is persisted or storage is unreadable, in
// which case the request goes out unauthenticated.
func (sessions *SessionStore) Token(context context.Context) string {
	session, err := sessions.Load(context)
	if err != nil || session == nil {
		return ""
	}
	return session.AccessToken
}

// Slug returns the signed-in user's slug, used by services whose endpoints
// embed it in the path (/u/{slug}/...). Returns "" when signed out.
func (sessions *SessionStore) Slug(context context.Context) string {
	session, err := sessions.Load(context)
	if err != nil || session == nil {
		return ""
	}
	return session.User.Slug
}
