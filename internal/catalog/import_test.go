// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GameVault Contributors

package catalog_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gamevault/gamevault/internal/catalog"
	"github.com/gamevault/gamevault/pkg/errutil"
)

const seedCSV = `title,platform,release_date,category,publisher
Halo,Xbox,2001-11-15,Shooter,Microsoft
Doom,PC,1993-12-10,Shooter,id Software
"Forza Horizon, Deluxe",Xbox,2012-10-23,Racing,Microsoft
`

func TestParseCSV(t *testing.T) {
	t.Run("skips header and maps columns", func(t *testing.T) {
		records, err := catalog.ParseCSV(strings.NewReader(seedCSV))
		require.NoError(t, err)
		require.Len(t, records, 3)
		assert.Equal(t, catalog.Record{
			Title:       "Halo",
			Platform:    "Xbox",
			ReleaseDate: "2001-11-15",
			Category:    "Shooter",
			Publisher:   "Microsoft",
		}, records[0])
		assert.Equal(t, "Forza Horizon, Deluxe", records[2].Title)
	})

	t.Run("header only", func(t *testing.T) {
		records, err := catalog.ParseCSV(strings.NewReader("title,platform,release_date,category,publisher\n"))
		require.NoError(t, err)
		assert.Empty(t, records)
	})

	t.Run("short row names line", func(t *testing.T) {
		_, err := catalog.ParseCSV(strings.NewReader(seedCSV + "Tetris,GameBoy\n"))
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, errutil.CodeValidation)
		errutil.AssertErrorContext(t, err, "line", 5)
		assert.Contains(t, err.Error(), "line 5")
	})

	t.Run("malformed quoting", func(t *testing.T) {
		_, err := catalog.ParseCSV(strings.NewReader("h\n\"unterminated,a,b,c,d\n"))
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, errutil.CodeValidation)
	})
}

func TestService_Import(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	records, err := catalog.ParseCSV(strings.NewReader(seedCSV))
	require.NoError(t, err)

	first, err := svc.Import(ctx, records)
	require.NoError(t, err)
	assert.Equal(t, catalog.ImportResult{CategoriesCreated: 2, GamesCreated: 3}, *first)

	second, err := svc.Import(ctx, records)
	require.NoError(t, err)
	assert.Equal(t, catalog.ImportResult{GamesSkipped: 3}, *second)

	categories, err := svc.ListCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, categories, 2)

	t.Run("cancelled context stops import", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := svc.Import(cctx, records)
		require.ErrorIs(t, err, context.Canceled)
	})

	t.Run("invalid record", func(t *testing.T) {
		_, err := svc.Import(ctx, []catalog.Record{{Title: "Pong", Category: "Arcade"}})
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, errutil.CodeValidation)
	})
}
