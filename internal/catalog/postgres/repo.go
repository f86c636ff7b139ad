// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GameVault Contributors

// Package postgres implements the catalog repository on PostgreSQL.
package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/gamevault/gamevault/internal/catalog"
	"github.com/gamevault/gamevault/internal/store"
)

const selectGame = `
	SELECT g.id, g.title, g.platform, g.publisher, g.release_date,
	       g.category_id, c.title, g.created_at
	FROM games g
	JOIN categories c ON c.id = g.category_id`

// Repository implements catalog.Repository using PostgreSQL.
type Repository struct {
	pool store.Pool
}

var _ catalog.Repository = (*Repository)(nil)

// NewRepository creates a new Repository.
func NewRepository(pool store.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListUsers returns all users ordered by creation.
func (r *Repository) ListUsers(ctx context.Context) ([]catalog.User, error) {
	rows, err := store.Conn(ctx, r.pool).Query(ctx,
		`SELECT id, name, username FROM users ORDER BY created_at, id`)
	if err != nil {
		return nil, oops.Code("USER_LIST_FAILED").With("operation", "list users").Wrap(err)
	}
	return collectUsers(rows)
}

// GetUser retrieves a user by ID.
func (r *Repository) GetUser(ctx context.Context, id ulid.ULID) (*catalog.User, error) {
	row := store.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT id, name, username FROM users WHERE id = $1`, id.String())
	u, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("USER_NOT_FOUND").With("id", id.String()).Wrap(catalog.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("USER_GET_FAILED").With("id", id.String()).Wrap(err)
	}
	return u, nil
}

// DeleteUser removes a user. Favorites are removed by cascade.
func (r *Repository) DeleteUser(ctx context.Context, id ulid.ULID) error {
	result, err := store.Conn(ctx, r.pool).Exec(ctx, `DELETE FROM users WHERE id = $1`, id.String())
	if err != nil {
		return oops.Code("USER_DELETE_FAILED").
			With("operation", "delete user").
			With("id", id.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("USER_NOT_FOUND").With("id", id.String()).Wrap(catalog.ErrNotFound)
	}
	return nil
}

// ListCategories returns all categories ordered by creation.
func (r *Repository) ListCategories(ctx context.Context) ([]catalog.Category, error) {
	rows, err := store.Conn(ctx, r.pool).Query(ctx,
		`SELECT id, title, created_at FROM categories ORDER BY created_at, id`)
	if err != nil {
		return nil, oops.Code("CATEGORY_LIST_FAILED").With("operation", "list categories").Wrap(err)
	}
	defer rows.Close()

	var categories []catalog.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		categories = append(categories, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("CATEGORY_LIST_FAILED").With("operation", "iterate categories").Wrap(err)
	}
	return categories, nil
}

// GetCategory retrieves a category by ID.
func (r *Repository) GetCategory(ctx context.Context, id ulid.ULID) (*catalog.Category, error) {
	row := store.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT id, title, created_at FROM categories WHERE id = $1`, id.String())
	return getCategory(row, "id", id.String())
}

// GetCategoryByTitle retrieves a category by exact title.
func (r *Repository) GetCategoryByTitle(ctx context.Context, title string) (*catalog.Category, error) {
	row := store.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT id, title, created_at FROM categories WHERE title = $1`, title)
	return getCategory(row, "title", title)
}

func getCategory(row pgx.Row, key, value string) (*catalog.Category, error) {
	c, err := scanCategory(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("CATEGORY_NOT_FOUND").With(key, value).Wrap(catalog.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("CATEGORY_GET_FAILED").With(key, value).Wrap(err)
	}
	return c, nil
}

// CreateCategory stores a new category.
func (r *Repository) CreateCategory(ctx context.Context, c *catalog.Category) error {
	_, err := store.Conn(ctx, r.pool).Exec(ctx,
		`INSERT INTO categories (id, title, created_at) VALUES ($1, $2, $3)`,
		c.ID.String(), c.Title, c.CreatedAt)
	if err != nil {
		if constraint, ok := store.UniqueViolation(err); ok && constraint == "categories_title_key" {
			return oops.Code("CATEGORY_DUPLICATE").With("title", c.Title).Wrap(catalog.ErrDuplicate)
		}
		return oops.Code("CATEGORY_CREATE_FAILED").
			With("operation", "insert category").
			With("title", c.Title).
			Wrap(err)
	}
	return nil
}

// ListGames returns all games ordered by creation.
func (r *Repository) ListGames(ctx context.Context) ([]catalog.Game, error) {
	return r.queryGames(ctx, "list games", selectGame+` ORDER BY g.created_at, g.id`)
}

// GetGame retrieves a game by ID.
func (r *Repository) GetGame(ctx context.Context, id ulid.ULID) (*catalog.Game, error) {
	row := store.Conn(ctx, r.pool).QueryRow(ctx, selectGame+` WHERE g.id = $1`, id.String())
	g, err := scanGame(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("GAME_NOT_FOUND").With("id", id.String()).Wrap(catalog.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("GAME_GET_FAILED").With("id", id.String()).Wrap(err)
	}
	return g, nil
}

// GamesInCategory returns the games of one category ordered by creation.
func (r *Repository) GamesInCategory(ctx context.Context, categoryID ulid.ULID) ([]catalog.Game, error) {
	return r.queryGames(ctx, "list category games",
		selectGame+` WHERE g.category_id = $1 ORDER BY g.created_at, g.id`, categoryID.String())
}

// CreateGame stores a new game.
func (r *Repository) CreateGame(ctx context.Context, g *catalog.Game) error {
	_, err := store.Conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO games (id, title, platform, publisher, release_date, category_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		g.ID.String(),
		g.Title,
		g.Platform,
		g.Publisher,
		g.ReleaseDate,
		g.CategoryID.String(),
		g.CreatedAt,
	)
	if err == nil {
		return nil
	}
	if constraint, ok := store.UniqueViolation(err); ok && constraint == "games_title_platform_key" {
		return oops.Code("GAME_DUPLICATE").
			With("title", g.Title).
			With("platform", g.Platform).
			Wrap(catalog.ErrDuplicate)
	}
	if _, ok := store.ForeignKeyViolation(err); ok {
		return oops.Code("CATEGORY_NOT_FOUND").
			With("category_id", g.CategoryID.String()).
			Wrap(catalog.ErrNotFound)
	}
	return oops.Code("GAME_CREATE_FAILED").
		With("operation", "insert game").
		With("title", g.Title).
		Wrap(err)
}

// FavoriteGames returns a user's favorites in the order they were added.
func (r *Repository) FavoriteGames(ctx context.Context, userID ulid.ULID) ([]catalog.Game, error) {
	return r.queryGames(ctx, "list favorites", selectGame+`
		JOIN favorites f ON f.game_id = g.id
		WHERE f.user_id = $1
		ORDER BY f.created_at, g.id`, userID.String())
}

// GamePlayers returns the users who favorited a game.
func (r *Repository) GamePlayers(ctx context.Context, gameID ulid.ULID) ([]catalog.User, error) {
	rows, err := store.Conn(ctx, r.pool).Query(ctx, `
		SELECT u.id, u.name, u.username
		FROM users u
		JOIN favorites f ON f.user_id = u.id
		WHERE f.game_id = $1
		ORDER BY f.created_at, u.id
	`, gameID.String())
	if err != nil {
		return nil, oops.Code("USER_LIST_FAILED").
			With("operation", "list game players").
			With("game_id", gameID.String()).
			Wrap(err)
	}
	return collectUsers(rows)
}

// AddFavorite links a user and a game. An existing link is left alone.
func (r *Repository) AddFavorite(ctx context.Context, userID, gameID ulid.ULID) error {
	_, err := store.Conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO favorites (user_id, game_id) VALUES ($1, $2)
		ON CONFLICT (user_id, game_id) DO NOTHING
	`, userID.String(), gameID.String())
	if err != nil {
		if _, ok := store.ForeignKeyViolation(err); ok {
			return oops.Code("FAVORITE_TARGET_NOT_FOUND").
				With("user_id", userID.String()).
				With("game_id", gameID.String()).
				Wrap(catalog.ErrNotFound)
		}
		return oops.Code("FAVORITE_ADD_FAILED").
			With("user_id", userID.String()).
			With("game_id", gameID.String()).
			Wrap(err)
	}
	return nil
}

func (r *Repository) queryGames(ctx context.Context, operation, sql string, args ...any) ([]catalog.Game, error) {
	rows, err := store.Conn(ctx, r.pool).Query(ctx, sql, args...)
	if err != nil {
		return nil, oops.Code("GAME_LIST_FAILED").With("operation", operation).Wrap(err)
	}
	defer rows.Close()

	var games []catalog.Game
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		games = append(games, *g)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("GAME_LIST_FAILED").With("operation", operation).Wrap(err)
	}
	return games, nil
}

func collectUsers(rows pgx.Rows) ([]catalog.User, error) {
	defer rows.Close()

	var users []catalog.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("USER_LIST_FAILED").With("operation", "iterate users").Wrap(err)
	}
	return users, nil
}

func parseID(kind, s string) (ulid.ULID, error) {
	id, err := ulid.Parse(s)
	if err != nil {
		return ulid.ULID{}, oops.Code("CATALOG_INVALID_ID").
			With("operation", "parse "+kind+" id").
			With("id", s).
			Wrap(err)
	}
	return id, nil
}

// The scan helpers pass pgx.ErrNoRows through unchanged.

func scanUser(row pgx.Row) (*catalog.User, error) {
	var (
		idStr string
		u     catalog.User
	)
	if err := row.Scan(&idStr, &u.Name, &u.Username); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err //nolint:wrapcheck // callers wrap with lookup context
		}
		return nil, oops.Code("USER_SCAN_FAILED").Wrap(err)
	}
	id, err := parseID("user", idStr)
	if err != nil {
		return nil, err
	}
	u.ID = id
	return &u, nil
}

func scanCategory(row pgx.Row) (*catalog.Category, error) {
	var (
		idStr string
		c     catalog.Category
	)
	if err := row.Scan(&idStr, &c.Title, &c.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err //nolint:wrapcheck // callers wrap with lookup context
		}
		return nil, oops.Code("CATEGORY_SCAN_FAILED").Wrap(err)
	}
	id, err := parseID("category", idStr)
	if err != nil {
		return nil, err
	}
	c.ID = id
	c.CreatedAt = c.CreatedAt.UTC()
	return &c, nil
}

func scanGame(row pgx.Row) (*catalog.Game, error) {
	var (
		idStr, categoryIDStr string
		g                    catalog.Game
	)
	err := row.Scan(
		&idStr,
		&g.Title,
		&g.Platform,
		&g.Publisher,
		&g.ReleaseDate,
		&categoryIDStr,
		&g.CategoryTitle,
		&g.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err //nolint:wrapcheck // callers wrap with lookup context
		}
		return nil, oops.Code("GAME_SCAN_FAILED").Wrap(err)
	}
	if g.ID, err = parseID("game", idStr); err != nil {
		return nil, err
	}
	if g.CategoryID, err = parseID("category", categoryIDStr); err != nil {
		return nil, err
	}
	g.CreatedAt = g.CreatedAt.UTC()
	return &g, nil
}
