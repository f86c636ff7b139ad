// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GameVault Contributors

//go:build integration

package postgres_test

import (
	"context"
	"strings"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gamevault/gamevault/internal/catalog"
	"github.com/gamevault/gamevault/internal/catalog/postgres"
	"github.com/gamevault/gamevault/internal/store"
	"github.com/gamevault/gamevault/internal/testutil/pgtest"
	"github.com/gamevault/gamevault/pkg/errutil"
)

func insertUser(ctx context.Context, t *testing.T, name string) ulid.ULID {
	t.Helper()
	id := ulid.Make()
	_, err := testPool.Exec(ctx, `
		INSERT INTO users (id, email, password_hash, session_token, session_expiration, update_token, name, username)
		VALUES ($1, $2, 'x', $3, now(), $4, $5, $6)
	`, id.String(), name+"@x.com", "s-"+id.String(), "u-"+id.String(), name, strings.ToLower(name))
	require.NoError(t, err)
	return id
}

func TestCatalog_Postgres(t *testing.T) {
	ctx := context.Background()
	pgtest.Truncate(ctx, t, testPool, "favorites", "games", "categories", "users")

	svc := catalog.NewService(postgres.NewRepository(testPool), store.NewTransactor(testPool))

	records, err := catalog.ParseCSV(strings.NewReader(`title,platform,release_date,category,publisher
Halo,Xbox,2001,Shooter,Microsoft
Doom,PC,1993,Shooter,id Software
Forza,Xbox,2012,Racing,Microsoft
`))
	require.NoError(t, err)

	result, err := svc.Import(ctx, records)
	require.NoError(t, err)
	assert.Equal(t, catalog.ImportResult{CategoriesCreated: 2, GamesCreated: 3}, *result)

	again, err := svc.Import(ctx, records)
	require.NoError(t, err)
	assert.Equal(t, 3, again.GamesSkipped)

	games, err := svc.ListGames(ctx)
	require.NoError(t, err)
	require.Len(t, games, 3)

	annID := insertUser(ctx, t, "Ann")
	for _, g := range games {
		_, err := svc.AddFavorite(ctx, g.ID, annID)
		require.NoError(t, err)
	}
	view, err := svc.AddFavorite(ctx, games[0].ID, annID)
	require.NoError(t, err)
	assert.Len(t, view.Favorites, 3)
	assert.Equal(t, []string{"Microsoft", "id Software"}, view.Publishers)

	halo, err := svc.GetGame(ctx, games[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "Shooter", halo.Category.Title)
	require.Len(t, halo.Players, 1)
	assert.Equal(t, "ann", halo.Players[0].Username)

	_, err = svc.DeleteUser(ctx, annID)
	require.NoError(t, err)

	var favorites int
	require.NoError(t, testPool.QueryRow(ctx, `SELECT count(*) FROM favorites`).Scan(&favorites))
	assert.Zero(t, favorites)

	_, err = svc.CreateGame(ctx, catalog.NewGame{
		Title: "Quake", Platform: "PC", Publisher: "id", ReleaseDate: "1996", CategoryID: ulid.Make(),
	})
	errutil.AssertErrorCode(t, err, errutil.CodeNotFound)
}
