// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GameVault Contributors

//go:build integration

package postgres_test

import (
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gamevault/gamevault/internal/testutil/pgtest"
)

// testPool is the shared database pool for integration tests.
var testPool *pgxpool.Pool

func TestMain(m *testing.M) {
	pgtest.Main(m, &testPool)
}
