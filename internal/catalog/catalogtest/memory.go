// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GameVault Contributors

// Package catalogtest provides an in-memory catalog repository for tests.
package catalogtest

import (
	"context"
	"sync"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/gamevault/gamevault/internal/catalog"
)

type favorite struct {
	userID, gameID ulid.ULID
}

// Store is an in-memory catalog.Repository. Slices keep insertion order,
// which stands in for created_at ordering.
type Store struct {
	mu         sync.Mutex
	users      []catalog.User
	categories []catalog.Category
	games      []catalog.Game
	favorites  []favorite

	txMu sync.Mutex
}

var _ catalog.Repository = (*Store)(nil)

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{}
}

// AddUser seeds a user, standing in for a registered account.
func (s *Store) AddUser(u catalog.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = append(s.users, u)
}

// InTransaction serializes fn against other transactions.
func (s *Store) InTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	return fn(ctx)
}

func notFound(kind string) error {
	return oops.Code(kind + "_NOT_FOUND").Wrap(catalog.ErrNotFound)
}

// ListUsers returns all users.
func (s *Store) ListUsers(context.Context) ([]catalog.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]catalog.User(nil), s.users...), nil
}

// GetUser returns one user.
func (s *Store) GetUser(_ context.Context, id ulid.ULID) (*catalog.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.ID == id {
			return &u, nil
		}
	}
	return nil, notFound("USER")
}

// DeleteUser removes a user and its favorites.
func (s *Store) DeleteUser(_ context.Context, id ulid.ULID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, u := range s.users {
		if u.ID != id {
			continue
		}
		s.users = append(s.users[:i], s.users[i+1:]...)
		kept := s.favorites[:0]
		for _, f := range s.favorites {
			if f.userID != id {
				kept = append(kept, f)
			}
		}
		s.favorites = kept
		return nil
	}
	return notFound("USER")
}

// ListCategories returns all categories.
func (s *Store) ListCategories(context.Context) ([]catalog.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]catalog.Category(nil), s.categories...), nil
}

// GetCategory returns one category.
func (s *Store) GetCategory(_ context.Context, id ulid.ULID) (*catalog.Category, error) {
	return s.findCategory(func(c catalog.Category) bool { return c.ID == id })
}

// GetCategoryByTitle returns the category with title.
func (s *Store) GetCategoryByTitle(_ context.Context, title string) (*catalog.Category, error) {
	return s.findCategory(func(c catalog.Category) bool { return c.Title == title })
}

func (s *Store) findCategory(match func(catalog.Category) bool) (*catalog.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.categories {
		if match(c) {
			return &c, nil
		}
	}
	return nil, notFound("CATEGORY")
}

// CreateCategory inserts a category with a unique title.
func (s *Store) CreateCategory(_ context.Context, c *catalog.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.categories {
		if existing.Title == c.Title {
			return oops.Code("CATEGORY_DUPLICATE").Wrap(catalog.ErrDuplicate)
		}
	}
	s.categories = append(s.categories, *c)
	return nil
}

// ListGames returns all games.
func (s *Store) ListGames(context.Context) ([]catalog.Game, error) {
	return s.filterGames(func(catalog.Game) bool { return true }), nil
}

// GetGame returns one game.
func (s *Store) GetGame(_ context.Context, id ulid.ULID) (*catalog.Game, error) {
	games := s.filterGames(func(g catalog.Game) bool { return g.ID == id })
	if len(games) == 0 {
		return nil, notFound("GAME")
	}
	return &games[0], nil
}

// GamesInCategory returns the games of a category.
func (s *Store) GamesInCategory(_ context.Context, categoryID ulid.ULID) ([]catalog.Game, error) {
	return s.filterGames(func(g catalog.Game) bool { return g.CategoryID == categoryID }), nil
}

// filterGames returns matching games with CategoryTitle filled in.
func (s *Store) filterGames(match func(catalog.Game) bool) []catalog.Game {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []catalog.Game
	for _, g := range s.games {
		if !match(g) {
			continue
		}
		for _, c := range s.categories {
			if c.ID == g.CategoryID {
				g.CategoryTitle = c.Title
			}
		}
		out = append(out, g)
	}
	return out
}

// CreateGame inserts a game with a unique (title, platform) into an existing
// category.
func (s *Store) CreateGame(_ context.Context, g *catalog.Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var categoryExists bool
	for _, c := range s.categories {
		if c.ID == g.CategoryID {
			categoryExists = true
		}
	}
	if !categoryExists {
		return notFound("CATEGORY")
	}
	for _, existing := range s.games {
		if existing.Title == g.Title && existing.Platform == g.Platform {
			return oops.Code("GAME_DUPLICATE").Wrap(catalog.ErrDuplicate)
		}
	}
	s.games = append(s.games, *g)
	return nil
}

// FavoriteGames returns the user's favorites in insertion order.
func (s *Store) FavoriteGames(ctx context.Context, userID ulid.ULID) ([]catalog.Game, error) {
	s.mu.Lock()
	var ids []ulid.ULID
	for _, f := range s.favorites {
		if f.userID == userID {
			ids = append(ids, f.gameID)
		}
	}
	s.mu.Unlock()

	games := make([]catalog.Game, 0, len(ids))
	for _, id := range ids {
		g, err := s.GetGame(ctx, id)
		if err != nil {
			return nil, err
		}
		games = append(games, *g)
	}
	return games, nil
}

// GamePlayers returns the users who favorited the game.
func (s *Store) GamePlayers(_ context.Context, gameID ulid.ULID) ([]catalog.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []catalog.User
	for _, f := range s.favorites {
		if f.gameID != gameID {
			continue
		}
		for _, u := range s.users {
			if u.ID == f.userID {
				out = append(out, u)
			}
		}
	}
	return out, nil
}

// AddFavorite links user and game once.
func (s *Store) AddFavorite(_ context.Context, userID, gameID ulid.ULID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range s.favorites {
		if f.userID == userID && f.gameID == gameID {
			return nil
		}
	}
	s.favorites = append(s.favorites, favorite{userID: userID, gameID: gameID})
	return nil
}
