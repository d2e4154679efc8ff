// Copyright (c) 2026 SaveState. All rights reserved.
// Author: dev@savestate.social

// Command savestate is the terminal client for the SaveState game-tracking
// service.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Open the device key-value store (JSON file, or Redis when configured).
//  4. Wire the response cache, request clients, services and registries.
//  5. Dispatch the subcommand.
//
// No business logic lives here. All wiring is explicit constructor injection;
// the follow and search registries are created here and injected, never
// reached through globals.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/savestate/savestate-go/internal/activity"
	"github.com/savestate/savestate-go/internal/api"
	"github.com/savestate/savestate-go/internal/auth"
	"github.com/savestate/savestate-go/internal/igdb"
	"github.com/savestate/savestate-go/internal/library"
	"github.com/savestate/savestate-go/internal/platform/cache"
	"github.com/savestate/savestate-go/internal/platform/config"
	"github.com/savestate/savestate-go/internal/platform/kvstore"
	"github.com/savestate/savestate-go/internal/rating"
	"github.com/savestate/savestate-go/internal/review"
	"github.com/savestate/savestate-go/internal/search"
	"github.com/savestate/savestate-go/internal/social"
	"github.com/savestate/savestate-go/internal/users"
	"github.com/savestate/savestate-go/pkg/pointer"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	rawLog := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	log := rawLog.With(slog.String("app", "savestate"))
	slog.SetDefault(log)

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		debugLog := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
		log = debugLog.With(slog.String("app", "savestate"))
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	// Root context: cancelled on Ctrl-C so in-flight requests abort cleanly.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── 3. Device Storage ─────────────────────────────────────────────────
	var store kvstore.Store
	if cfg.UseRedis() {
		redisStore, err := kvstore.NewRedisStore(ctx, cfg.RedisURL)
		must(log, err, "connect to redis")
		defer func() {
			if cerr := redisStore.Close(); cerr != nil {
				log.Error("redis close error", slog.Any("error", cerr))
			}
		}()
		store = redisStore
	} else {
		store = kvstore.NewFileStore(cfg.CredentialsPath)
	}

	// ── 4. Wiring ─────────────────────────────────────────────────────────
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout()}
	responseCache := cache.New()

	sessions := auth.NewSessionStore(store)
	backend := api.NewClient(cfg.APIBaseURL, httpClient, sessions, log)

	authService := auth.NewService(backend, sessions)
	backend.SetRefresher(authService)

	catalogTokens := igdb.NewTokenCache(store, backend)
	catalog := igdb.NewClient(cfg.CatalogBaseURL, httpClient, catalogTokens)

	followRegistry := social.NewRegistry()
	userService := users.NewService(backend, followRegistry)
	activityService := activity.NewService(backend)
	libraryService := library.NewService(backend, responseCache, sessions)
	ratingService := rating.NewService(backend, responseCache, sessions)
	reviewService := review.NewService(backend, responseCache)
	searchRegistry := search.NewRegistry(catalog, userService, followRegistry)

	app := &app{
		auth:     authService,
		activity: activityService,
		library:  libraryService,
		rating:   ratingService,
		review:   reviewService,
		users:    userService,
		catalog:  catalog,
		search:   searchRegistry,
	}

	// ── 5. Dispatch ───────────────────────────────────────────────────────
	if err := app.run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// app bundles the wired services for subcommand handlers.
type app struct {
	auth     *auth.Service
	activity *activity.Service
	library  *library.Service
	rating   *rating.Service
	review   *review.Service
	users    *users.Service
	catalog  *igdb.Client
	search   *search.Registry
}

// run dispatches one subcommand.
func (app *app) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		usage()
		return nil
	}

	switch args[0] {
	case "login":
		return app.login(ctx, args[1:])
	case "logout":
		return app.auth.Logout(ctx)
	case "whoami":
		return app.whoami(ctx)
	case "search":
		return app.runSearch(ctx, args[1:])
	case "feed":
		return app.feed(ctx, args[1:])
	case "rate":
		return app.rate(ctx, args[1:])
	case "review":
		return app.runReview(ctx, args[1:])
	case "lists":
		return app.lists(ctx)
	case "trending":
		return app.trending(ctx)
	default:
		usage()
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func (app *app) login(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: savestate login <email> <password>")
	}

	session, err := app.auth.Login(ctx, args[0], args[1])
	if err != nil {
		return err
	}

	fmt.Printf("signed in as %s (@%s)\n", session.User.Name, session.User.Username)
	return nil
}

func (app *app) whoami(ctx context.Context) error {
	session, err := app.auth.Session(ctx)
	if err != nil {
		return err
	}
	if session == nil {
		fmt.Println("not signed in")
		return nil
	}

	// Validate the persisted session against the server.
	user, err := app.auth.CurrentUser(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("%s (@%s) <%s>\n", user.Name, user.Username, user.Email)
	return nil
}

func (app *app) runSearch(ctx context.Context, args []string) error {
	tab := search.TabGames
	if len(args) > 1 && args[0] == "users" {
		tab = search.TabUsers
		args = args[1:]
	} else if len(args) > 1 && args[0] == "games" {
		args = args[1:]
	}
	if len(args) != 1 {
		return fmt.Errorf("usage: savestate search [games|users] <query>")
	}

	app.search.SetActiveTab(tab)
	app.search.SetQuery(args[0])
	if err := app.search.Search(ctx); err != nil {
		return err
	}

	if tab == search.TabUsers {
		for _, user := range app.search.Users() {
			fmt.Printf("@%-20s %s\n", user.Username, user.Name)
		}
		return nil
	}
	for _, game := range app.search.Games() {
		fmt.Printf("%8d  %s\n", game.ID, game.Name)
	}
	return nil
}

func (app *app) feed(ctx context.Context, args []string) error {
	feedType := activity.FeedYou
	if len(args) > 0 && args[0] == "following" {
		feedType = activity.FeedFollowing
	}

	if err := app.activity.Refresh(ctx, feedType); err != nil {
		return err
	}

	for _, item := range app.activity.Feed(feedType) {
		fmt.Printf("%s  @%s  %s\n", item.CreatedAt, item.User.Username, item.Content)
	}
	return nil
}

func (app *app) rate(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: savestate rate <game-id> <rating>")
	}

	gameID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid game id %q", args[0])
	}
	value, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return fmt.Errorf("invalid rating %q", args[1])
	}

	if err := app.rating.UpdateRating(gameID, value); err != nil {
		return err
	}

	// The CLI exits immediately, so drain the debounce queue now.
	if err := app.rating.Flush(ctx, gameID); err != nil {
		return err
	}

	fmt.Printf("rated game %d: %.1f\n", gameID, value)
	return nil
}

func (app *app) runReview(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: savestate review <game-id> [rating [text]]")
	}

	gameID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid game id %q", args[0])
	}

	// No further args: show the stored review.
	if len(args) == 1 {
		stored, err := app.review.Review(ctx, gameID)
		if err != nil {
			return err
		}
		if stored == nil {
			fmt.Println("no review")
			return nil
		}
		fmt.Printf("%.1f  %s\n", stored.Rating, pointer.Val(stored.Content))
		return nil
	}

	value, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return fmt.Errorf("invalid rating %q", args[1])
	}

	var content *string
	if len(args) > 2 {
		content = pointer.To(strings.Join(args[2:], " "))
	}

	stored, err := app.review.Upsert(ctx, gameID, value, content)
	if err != nil {
		return err
	}

	fmt.Printf("reviewed game %d: %.1f\n", stored.GameID, stored.Rating)
	return nil
}

func (app *app) lists(ctx context.Context) error {
	lists, err := app.library.UserLists(ctx)
	if err != nil {
		return err
	}

	for _, list := range lists {
		title := pointer.Fallback(list.Title, string(list.Type))
		fmt.Printf("%-12s %d games\n", title, len(list.Items))
	}
	return nil
}

func (app *app) trending(ctx context.Context) error {
	games, err := app.catalog.PopularGames(ctx, 20)
	if err != nil {
		return err
	}

	for _, game := range games {
		fmt.Printf("%8d  %-40s %.0f\n", game.ID, game.Name, game.Rating)
	}
	return nil
}

func usage() {
	fmt.Println(`usage: savestate <command>

commands:
  login <email> <password>   sign in and persist the session
  logout                     revoke and clear the session
  whoami                     show the signed-in user
  search [games|users] <q>   search the catalog or users
  feed [you|following]       show an activity feed
  rate <game-id> <rating>    rate a game (0-5, half steps)
  review <game-id> [r [txt]] show or write a game review
  lists                      show your game lists
  trending                   show popular catalog games`)
}

// must aborts startup with a structured log entry when err is non-nil.
func must(log *slog.Logger, err error, step string) {
	if err != nil {
		log.Error("startup_failed", slog.String("step", step), slog.Any("error", err))
		os.Exit(1)
	}
}
