// Copyright (c) 2026 SaveState. All rights reserved.
// Author: dev@savestate.social

package auth_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/savestate/savestate-go/internal/api"
	"github.com/savestate/savestate-go/internal/auth"
	"github.com/savestate/savestate-go/internal/platform/apperr"
	"github.com/savestate/savestate-go/internal/platform/kvstore"
)

// authFixture wires a service against a stub backend and shared storage.
type authFixture struct {
	service  *auth.Service
	sessions *auth.SessionStore
	store    kvstore.Store
}

func newAuthFixture(t *testing.T, handler http.Handler) *authFixture {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	store := kvstore.NewMemoryStore()
	sessions := auth.NewSessionStore(store)
	client := api.NewClient(server.URL, server.Client(), sessions, slog.Default())
	service := auth.NewService(client, sessions)
	client.SetRefresher(service)

	return &authFixture{service: service, sessions: sessions, store: store}
}

/*
TestService_Login verifies a successful login persists the session so the
bearer is immediately available.
*/
func TestService_Login(t *testing.T) {
	router := chi.NewRouter()
	router.Post("/auth/login", func(writer http.ResponseWriter, request *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(request.Body).Decode(&body))
		assert.Equal(t, "sam@savestate.social", body["email"])

		_, _ = writer.Write([]byte(`{"data":{
			"token":"tok-login",
			"refresh_token":"refresh-login",
			"user":{"id":1,"name":"Sam","username":"sam","slug":"sam","email":"sam@savestate.social"}
		}}`))
	})

	fixture := newAuthFixture(t, router)
	ctx := context.Background()

	session, err := fixture.service.Login(ctx, "sam@savestate.social", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, "sam", session.User.Slug)
	assert.Equal(t, "tok-login", session.AccessToken)

	// The session is persisted, not just returned
	assert.Equal(t, "tok-login", fixture.sessions.Token(ctx))
}

/*
TestService_LoginRejected verifies a 422 surfaces the server's message and
persists nothing.
*/
func TestService_LoginRejected(t *testing.T) {
	router := chi.NewRouter()
	router.Post("/auth/login", func(writer http.ResponseWriter, request *http.Request) {
		writer.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = writer.Write([]byte(`{"message":"These credentials do not match our records."}`))
	})

	fixture := newAuthFixture(t, router)
	ctx := context.Background()

	_, err := fixture.service.Login(ctx, "sam@savestate.social", "wrong")
	require.Error(t, err)
	assert.Equal(t, "These credentials do not match our records.", apperr.As(err).Message)
	assert.Empty(t, fixture.sessions.Token(ctx))
}

/*
TestService_ColdStart verifies the session written by one process is usable
by a fresh service over the same storage.
*/
func TestService_ColdStart(t *testing.T) {
	router := chi.NewRouter()
	router.Get("/auth/user", func(writer http.ResponseWriter, request *http.Request) {
		if request.Header.Get("Authorization") != "Bearer tok-persisted" {
			writer.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = writer.Write([]byte(`{"data":{"id":1,"name":"Sam","username":"sam","slug":"sam"}}`))
	})

	fixture := newAuthFixture(t, router)
	ctx := context.Background()

	// Simulate a previous run having persisted a session
	require.NoError(t, fixture.sessions.Save(ctx, &auth.Session{
		User:        auth.User{ID: 1, Slug: "sam"},
		AccessToken: "tok-persisted",
	}))

	user, err := fixture.service.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, "sam", user.Slug)
}

/*
TestService_CurrentUserDeadSession verifies a 401 that survives refresh
clears the stored session.
*/
func TestService_CurrentUserDeadSession(t *testing.T) {
	router := chi.NewRouter()
	router.Get("/auth/user", func(writer http.ResponseWriter, request *http.Request) {
		writer.WriteHeader(http.StatusUnauthorized)
	})
	router.Post("/auth/refresh", func(writer http.ResponseWriter, request *http.Request) {
		writer.WriteHeader(http.StatusUnauthorized)
	})

	fixture := newAuthFixture(t, router)
	ctx := context.Background()

	require.NoError(t, fixture.sessions.Save(ctx, &auth.Session{
		AccessToken:  "tok-dead",
		RefreshToken: "refresh-dead",
	}))

	_, err := fixture.service.CurrentUser(ctx)
	require.Error(t, err)
	assert.Equal(t, "UNAUTHORIZED", apperr.As(err).Code)

	// The dead session was purged from storage
	session, err := fixture.sessions.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, session)
}

/*
TestService_LogoutClearsDespiteServerError verifies a failed revoke still
signs the device out.
*/
func TestService_LogoutClearsDespiteServerError(t *testing.T) {
	router := chi.NewRouter()
	router.Post("/auth/logout", func(writer http.ResponseWriter, request *http.Request) {
		writer.WriteHeader(http.StatusInternalServerError)
	})

	fixture := newAuthFixture(t, router)
	ctx := context.Background()

	require.NoError(t, fixture.sessions.Save(ctx, &auth.Session{AccessToken: "tok"}))

	require.NoError(t, fixture.service.Logout(ctx))

	session, err := fixture.sessions.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, session)
}

/*
TestService_RefreshSession verifies the refresh exchange rewrites the stored
access token and keeps the refresh token.
*/
func TestService_RefreshSession(t *testing.T) {
	router := chi.NewRouter()
	router.Post("/auth/refresh", func(writer http.ResponseWriter, request *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(request.Body).Decode(&body))
		assert.Equal(t, "refresh-abc", body["refresh_token"])

		_, _ = writer.Write([]byte(`{"data":{"token":"tok-renewed"}}`))
	})

	fixture := newAuthFixture(t, router)
	ctx := context.Background()

	require.NoError(t, fixture.sessions.Save(ctx, &auth.Session{
		AccessToken:  "tok-stale",
		RefreshToken: "refresh-abc",
	}))

	require.NoError(t, fixture.service.RefreshSession(ctx))

	session, err := fixture.sessions.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Equal(t, "tok-renewed", session.AccessToken)
	assert.Equal(t, "refresh-abc", session.RefreshToken)
}

/*
TestService_RefreshSessionSignedOut verifies refresh without a stored token
fails fast without touching the network.
*/
func TestService_RefreshSessionSignedOut(t *testing.T) {
	fixture := newAuthFixture(t, chi.NewRouter())

	err := fixture.service.RefreshSession(context.Background())
	require.Error(t, err)
	assert.Equal(t, "UNAUTHORIZED", apperr.As(err).Code)
}
