// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GameVault Contributors

package catalog

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/gamevault/gamevault/pkg/errutil"
)

// Service implements the catalog operations behind the HTTP API.
type Service struct {
	repo Repository
	tx   Transactor
}

// NewService creates a Service.
func NewService(repo Repository, tx Transactor) *Service {
	return &Service{repo: repo, tx: tx}
}

func notFound(what string, id ulid.ULID) error {
	return oops.Code(errutil.CodeNotFound).
		With("id", id.String()).
		Errorf("%s not found", what)
}

func missingField(field string) error {
	return oops.Code(errutil.CodeValidation).
		With("field", field).
		Errorf("%s cannot be empty", field)
}

// ListUsers returns every user with favorites.
func (s *Service) ListUsers(ctx context.Context) ([]UserView, error) {
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, oops.With("operation", "list users").Wrap(err)
	}
	views := make([]UserView, 0, len(users))
	for _, u := range users {
		v, err := s.userView(ctx, u)
		if err != nil {
			return nil, err
		}
		views = append(views, *v)
	}
	return views, nil
}

// GetUser returns one user with favorites.
func (s *Service) GetUser(ctx context.Context, id ulid.ULID) (*UserView, error) {
	u, err := s.repo.GetUser(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, notFound("user", id)
		}
		return nil, oops.With("operation", "get user").Wrap(err)
	}
	return s.userView(ctx, *u)
}

// DeleteUser removes a user and returns its last view. Favorites go with it.
func (s *Service) DeleteUser(ctx context.Context, id ulid.ULID) (*UserView, error) {
	var view *UserView
	err := s.tx.InTransaction(ctx, func(ctx context.Context) error {
		v, err := s.GetUser(ctx, id)
		if err != nil {
			return err
		}
		if err := s.repo.DeleteUser(ctx, id); err != nil {
			if errors.Is(err, ErrNotFound) {
				return notFound("user", id)
			}
			return oops.With("operation", "delete user").Wrap(err)
		}
		view = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

func (s *Service) userView(ctx context.Context, u User) (*UserView, error) {
	games, err := s.repo.FavoriteGames(ctx, u.ID)
	if err != nil {
		return nil, oops.With("operation", "list favorites").With("user_id", u.ID.String()).Wrap(err)
	}
	favorites := make([]GameView, 0, len(games))
	for _, g := range games {
		gv, err := s.gameView(ctx, g)
		if err != nil {
			return nil, err
		}
		favorites = append(favorites, *gv)
	}
	return &UserView{
		UserSummary: userSummary(u),
		Favorites:   favorites,
		Publishers:  distinctPublishers(favorites),
	}, nil
}

// ListCategories returns every category without games.
func (s *Service) ListCategories(ctx context.Context) ([]CategoryRef, error) {
	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, oops.With("operation", "list categories").Wrap(err)
	}
	refs := make([]CategoryRef, 0, len(categories))
	for _, c := range categories {
		refs = append(refs, categoryRef(c))
	}
	return refs, nil
}

// CreateCategory adds a category with a unique, non-empty title.
func (s *Service) CreateCategory(ctx context.Context, title string) (*CategoryView, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, missingField("title")
	}
	c := &Category{ID: ulid.Make(), Title: title, CreatedAt: time.Now().UTC()}
	if err := s.repo.CreateCategory(ctx, c); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return nil, oops.Code(errutil.CodeAlreadyExists).
				With("title", title).
				Errorf("category already exists")
		}
		return nil, oops.With("operation", "create category").Wrap(err)
	}
	return &CategoryView{CategoryRef: categoryRef(*c), Games: []GameSummary{}}, nil
}

// GetCategory returns a category with its games.
func (s *Service) GetCategory(ctx context.Context, id ulid.ULID) (*CategoryView, error) {
	c, err := s.repo.GetCategory(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, notFound("category", id)
		}
		return nil, oops.With("operation", "get category").Wrap(err)
	}
	games, err := s.repo.GamesInCategory(ctx, id)
	if err != nil {
		return nil, oops.With("operation", "list category games").Wrap(err)
	}
	view := &CategoryView{CategoryRef: categoryRef(*c), Games: make([]GameSummary, 0, len(games))}
	for _, g := range games {
		view.Games = append(view.Games, gameSummary(g))
	}
	return view, nil
}

// ListGames returns every game without category or players.
func (s *Service) ListGames(ctx context.Context) ([]GameSummary, error) {
	games, err := s.repo.ListGames(ctx)
	if err != nil {
		return nil, oops.With("operation", "list games").Wrap(err)
	}
	out := make([]GameSummary, 0, len(games))
	for _, g := range games {
		out = append(out, gameSummary(g))
	}
	return out, nil
}

// NewGame holds the fields of a game to create. CategoryID must already be
// parsed by the caller.
type NewGame struct {
	Title       string
	Platform    string
	Publisher   string
	ReleaseDate string
	CategoryID  ulid.ULID
}

// Validate reports the first missing field.
func (g NewGame) Validate() error {
	switch {
	case strings.TrimSpace(g.Title) == "":
		return missingField("title")
	case strings.TrimSpace(g.Platform) == "":
		return missingField("platform")
	case strings.TrimSpace(g.Publisher) == "":
		return missingField("publisher")
	case strings.TrimSpace(g.ReleaseDate) == "":
		return missingField("release_date")
	case g.CategoryID.IsZero():
		return missingField("category_id")
	}
	return nil
}

// CreateGame adds a game to an existing category.
func (s *Service) CreateGame(ctx context.Context, in NewGame) (*GameView, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var created *Game
	err := s.tx.InTransaction(ctx, func(ctx context.Context) error {
		category, err := s.repo.GetCategory(ctx, in.CategoryID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return notFound("category", in.CategoryID)
			}
			return oops.With("operation", "get category").Wrap(err)
		}

		g := &Game{
			ID:            ulid.Make(),
			Title:         strings.TrimSpace(in.Title),
			Platform:      strings.TrimSpace(in.Platform),
			Publisher:     strings.TrimSpace(in.Publisher),
			ReleaseDate:   strings.TrimSpace(in.ReleaseDate),
			CategoryID:    category.ID,
			CategoryTitle: category.Title,
			CreatedAt:     time.Now().UTC(),
		}
		if err := s.repo.CreateGame(ctx, g); err != nil {
			switch {
			case errors.Is(err, ErrDuplicate):
				return oops.Code(errutil.CodeAlreadyExists).
					With("title", g.Title).
					With("platform", g.Platform).
					Errorf("game already exists on this platform")
			case errors.Is(err, ErrNotFound):
				return notFound("category", in.CategoryID)
			}
			return oops.With("operation", "create game").Wrap(err)
		}
		created = g
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &GameView{
		GameSummary: gameSummary(*created),
		Publisher:   created.Publisher,
		ReleaseDate: created.ReleaseDate,
		Category:    CategoryRef{ID: created.CategoryID, Title: created.CategoryTitle},
		Players:     []UserSummary{},
	}, nil
}

// GetGame returns a game with its category and players.
func (s *Service) GetGame(ctx context.Context, id ulid.ULID) (*GameView, error) {
	g, err := s.repo.GetGame(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, notFound("game", id)
		}
		return nil, oops.With("operation", "get game").Wrap(err)
	}
	return s.gameView(ctx, *g)
}

func (s *Service) gameView(ctx context.Context, g Game) (*GameView, error) {
	players, err := s.repo.GamePlayers(ctx, g.ID)
	if err != nil {
		return nil, oops.With("operation", "list players").With("game_id", g.ID.String()).Wrap(err)
	}
	view := &GameView{
		GameSummary: gameSummary(g),
		Publisher:   g.Publisher,
		ReleaseDate: g.ReleaseDate,
		Category:    CategoryRef{ID: g.CategoryID, Title: g.CategoryTitle},
		Players:     make([]UserSummary, 0, len(players)),
	}
	for _, p := range players {
		view.Players = append(view.Players, userSummary(p))
	}
	return view, nil
}

// AddFavorite marks gameID as a favorite of userID and returns the user.
func (s *Service) AddFavorite(ctx context.Context, gameID, userID ulid.ULID) (*UserView, error) {
	var view *UserView
	err := s.tx.InTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.repo.GetGame(ctx, gameID); err != nil {
			if errors.Is(err, ErrNotFound) {
				return notFound("game", gameID)
			}
			return oops.With("operation", "get game").Wrap(err)
		}
		user, err := s.repo.GetUser(ctx, userID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return notFound("user", userID)
			}
			return oops.With("operation", "get user").Wrap(err)
		}
		if err := s.repo.AddFavorite(ctx, userID, gameID); err != nil {
			return oops.With("operation", "add favorite").Wrap(err)
		}
		view, err = s.userView(ctx, *user)
		return err
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}
