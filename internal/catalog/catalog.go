// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GameVault Contributors

// Package catalog manages categories, games and per-user favorites.
package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/oklog/ulid/v2"
)

// ErrNotFound is returned by repositories when a row does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned by repositories when an insert violates a
// uniqueness constraint.
var ErrDuplicate = errors.New("already exists")

// User is the catalog's view of an account.
type User struct {
	ID       ulid.ULID
	Name     string
	Username string
}

// Category groups games.
type Category struct {
	ID        ulid.ULID
	Title     string
	CreatedAt time.Time
}

// Game is a catalog entry. CategoryTitle is filled by reads.
type Game struct {
	ID            ulid.ULID
	Title         string
	Platform      string
	Publisher     string
	ReleaseDate   string
	CategoryID    ulid.ULID
	CategoryTitle string
	CreatedAt     time.Time
}

// Repository persists catalog data. Implementations join the transaction
// carried in ctx, if any.
type Repository interface {
	ListUsers(ctx context.Context) ([]User, error)
	GetUser(ctx context.Context, id ulid.ULID) (*User, error)
	DeleteUser(ctx context.Context, id ulid.ULID) error

	ListCategories(ctx context.Context) ([]Category, error)
	GetCategory(ctx context.Context, id ulid.ULID) (*Category, error)
	GetCategoryByTitle(ctx context.Context, title string) (*Category, error)
	// CreateCategory returns an error wrapping ErrDuplicate when the title
	// is taken.
	CreateCategory(ctx context.Context, category *Category) error

	ListGames(ctx context.Context) ([]Game, error)
	GetGame(ctx context.Context, id ulid.ULID) (*Game, error)
	GamesInCategory(ctx context.Context, categoryID ulid.ULID) ([]Game, error)
	// CreateGame returns an error wrapping ErrDuplicate when (title, platform)
	// is taken and one wrapping ErrNotFound when the category is missing.
	CreateGame(ctx context.Context, game *Game) error

	// FavoriteGames returns the user's favorites in the order they were added.
	FavoriteGames(ctx context.Context, userID ulid.ULID) ([]Game, error)
	// GamePlayers returns the users who favorited the game.
	GamePlayers(ctx context.Context, gameID ulid.ULID) ([]User, error)
	// AddFavorite links user and game. Adding an existing link is a no-op.
	AddFavorite(ctx context.Context, userID, gameID ulid.ULID) error
}

// Transactor runs fn inside a single database transaction.
type Transactor interface {
	InTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
