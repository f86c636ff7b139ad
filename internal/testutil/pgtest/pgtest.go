// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GameVault Contributors

//go:build integration

// Package pgtest starts a migrated PostgreSQL container for repository
// integration tests.
package pgtest

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/gamevault/gamevault/internal/store"
)

// Start runs a postgres:16-alpine container, applies all migrations and
// returns a pool plus a cleanup that closes it and terminates the container.
func Start(ctx context.Context) (*pgxpool.Pool, func(), error) {
	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("gamevault_test"),
		postgres.WithUsername("gamevault"),
		postgres.WithPassword("gamevault"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		return nil, nil, oops.Code("PGTEST_CONTAINER_FAILED").Wrap(err)
	}
	terminate := func() { _ = container.Terminate(ctx) } //nolint:errcheck // best effort

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		terminate()
		return nil, nil, oops.Code("PGTEST_CONTAINER_FAILED").With("operation", "connection string").Wrap(err)
	}

	migrator, err := store.NewMigrator(connStr)
	if err != nil {
		terminate()
		return nil, nil, err
	}
	if err := migrator.Up(); err != nil {
		_ = migrator.Close() //nolint:errcheck // migration error takes precedence
		terminate()
		return nil, nil, err
	}
	if err := migrator.Close(); err != nil {
		terminate()
		return nil, nil, err
	}

	pool, err := store.Connect(ctx, connStr, 10*time.Second)
	if err != nil {
		terminate()
		return nil, nil, err
	}

	return pool, func() {
		pool.Close()
		terminate()
	}, nil
}

// Main is a TestMain body: it starts the database, stores the pool in
// *pool, runs the tests and exits.
func Main(m *testing.M, pool **pgxpool.Pool) {
	ctx := context.Background()
	p, cleanup, err := Start(ctx)
	if err != nil {
		panic("failed to start postgres: " + err.Error())
	}
	*pool = p

	code := m.Run()
	cleanup()
	os.Exit(code)
}

// Truncate empties the given tables between tests.
func Truncate(ctx context.Context, tb testing.TB, pool *pgxpool.Pool, tables ...string) {
	tb.Helper()
	for _, table := range tables {
		if _, err := pool.Exec(ctx, "TRUNCATE "+table+" CASCADE"); err != nil {
			tb.Fatalf("truncate %s: %v", table, err)
		}
	}
}
