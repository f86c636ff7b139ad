// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GameVault Contributors

// Package api serves the GameVault HTTP API.
package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/oklog/ulid/v2"

	"github.com/gamevault/gamevault/internal/asset"
	"github.com/gamevault/gamevault/internal/auth"
	"github.com/gamevault/gamevault/internal/catalog"
	"github.com/gamevault/gamevault/internal/observability"
)

// Accounts is the account lifecycle used by the auth routes.
type Accounts interface {
	Register(ctx context.Context, email, password string, profile auth.Profile) (*auth.Account, error)
	Login(ctx context.Context, email, password string) (*auth.Account, error)
	RenewByUpdateToken(ctx context.Context, token string) (*auth.Account, error)
	Authenticate(ctx context.Context, sessionToken string) (*auth.Account, error)
}

// Catalog is the catalog service used by the catalog routes.
type Catalog interface {
	ListUsers(ctx context.Context) ([]catalog.UserView, error)
	GetUser(ctx context.Context, id ulid.ULID) (*catalog.UserView, error)
	DeleteUser(ctx context.Context, id ulid.ULID) (*catalog.UserView, error)
	ListCategories(ctx context.Context) ([]catalog.CategoryRef, error)
	CreateCategory(ctx context.Context, title string) (*catalog.CategoryView, error)
	GetCategory(ctx context.Context, id ulid.ULID) (*catalog.CategoryView, error)
	ListGames(ctx context.Context) ([]catalog.GameSummary, error)
	CreateGame(ctx context.Context, in catalog.NewGame) (*catalog.GameView, error)
	GetGame(ctx context.Context, id ulid.ULID) (*catalog.GameView, error)
	AddFavorite(ctx context.Context, gameID, userID ulid.ULID) (*catalog.UserView, error)
}

// Assets ingests uploaded images.
type Assets interface {
	Ingest(ctx context.Context, imageData string) (*asset.Asset, error)
}

// Deps are the services behind the router. Assets, Limiter and Metrics are
// optional.
type Deps struct {
	Accounts Accounts
	Catalog  Catalog
	Assets   Assets
	Limiter  Limiter
	Metrics  *observability.Metrics
	Logger   *slog.Logger

	// MaxUploadBytes bounds the decoded image size; the request body limit
	// is derived from it.
	MaxUploadBytes int64
}

const maxJSONBodyBytes = 1 << 20

type handler struct {
	accounts      Accounts
	catalog       Catalog
	assets        Assets
	limiter       Limiter
	metrics       *observability.Metrics
	logger        *slog.Logger
	maxUploadBody int64
}

// NewRouter builds the HTTP handler for deps.
func NewRouter(deps Deps) http.Handler {
	h := &handler{
		accounts: deps.Accounts,
		catalog:  deps.Catalog,
		assets:   deps.Assets,
		limiter:  deps.Limiter,
		metrics:  deps.Metrics,
		logger:   deps.Logger,
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	maxUpload := deps.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = asset.DefaultMaxBytes
	}
	// base64 grows the payload by 4/3; allow room for the JSON wrapper.
	h.maxUploadBody = maxUpload/3*4 + 8 + maxJSONBodyBytes

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(h.instrument)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.StripSlashes)

	r.Route("/api", func(r chi.Router) {
		r.With(h.limit("register")).Post("/register", h.register)
		r.With(h.limit("login")).Post("/login", h.login)
		r.Post("/session", h.renewSession)
		r.Get("/secret", h.secret)

		r.Get("/users", h.listUsers)
		r.Post("/users", h.createUser)
		r.Get("/users/{id}", h.getUser)
		r.Delete("/users/{id}", h.deleteUser)

		r.Get("/categories", h.listCategories)
		r.Post("/categories", h.createCategory)
		r.Get("/categories/{id}", h.getCategory)

		r.Get("/games", h.listGames)
		r.Post("/games", h.createGame)
		r.Get("/games/{id}", h.getGame)
		r.Post("/games/{id}/add", h.addFavorite)

		r.Post("/upload", h.upload)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, envelope{Success: false, Error: "route not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, envelope{Success: false, Error: "method not allowed"})
	})
	return r
}
