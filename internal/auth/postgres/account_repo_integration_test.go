// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GameVault Contributors

//go:build integration

package postgres_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/gamevault/gamevault/internal/auth"
	"github.com/gamevault/gamevault/internal/auth/postgres"
	"github.com/gamevault/gamevault/internal/store"
	"github.com/gamevault/gamevault/internal/testutil/pgtest"
	"github.com/gamevault/gamevault/pkg/errutil"
)

func newRegistry(t *testing.T) (*auth.Registry, *postgres.AccountRepository) {
	t.Helper()
	pgtest.Truncate(context.Background(), t, testPool, "users")

	repo := postgres.NewAccountRepository(testPool)
	hasher, err := auth.NewBcryptHasher(bcrypt.MinCost)
	require.NoError(t, err)
	r, err := auth.NewRegistry(repo, store.NewTransactor(testPool), hasher, auth.NewTokenManager(time.Hour))
	require.NoError(t, err)
	return r, repo
}

func TestRegistry_PostgresLifecycle(t *testing.T) {
	ctx := context.Background()
	registry, repo := newRegistry(t)

	registered, err := registry.Register(ctx, "a@x.com", "secret123", auth.Profile{Name: "Ann", Username: "ann"})
	require.NoError(t, err)

	stored, err := repo.GetByID(ctx, registered.ID)
	require.NoError(t, err)
	assert.Equal(t, "ann", stored.Username)
	assert.WithinDuration(t, registered.SessionExpiration, stored.SessionExpiration, time.Millisecond)

	_, err = registry.Login(ctx, "a@x.com", "wrong")
	errutil.AssertErrorCode(t, err, auth.CodeInvalidCredentials)

	loggedIn, err := registry.Login(ctx, "a@x.com", "secret123")
	require.NoError(t, err)
	assert.NotEqual(t, registered.SessionToken, loggedIn.SessionToken)

	renewed, err := registry.RenewByUpdateToken(ctx, loggedIn.UpdateToken)
	require.NoError(t, err)

	_, err = registry.RenewByUpdateToken(ctx, loggedIn.UpdateToken)
	errutil.AssertErrorCode(t, err, auth.CodeInvalidToken)

	acc, err := registry.Authenticate(ctx, renewed.SessionToken)
	require.NoError(t, err)
	assert.Equal(t, registered.ID, acc.ID)
}

func TestRegistry_PostgresConcurrentRegistration(t *testing.T) {
	ctx := context.Background()
	registry, _ := newRegistry(t)

	const workers = 6
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = registry.Register(ctx, "race@x.com", "secret123", auth.Profile{})
		}()
	}
	wg.Wait()

	var succeeded int
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.True(t, errutil.HasCode(err, auth.CodeAlreadyExists), "unexpected error: %v", err)
	}
	assert.Equal(t, 1, succeeded)

	var count int
	require.NoError(t, testPool.QueryRow(ctx, `SELECT count(*) FROM users WHERE email = 'race@x.com'`).Scan(&count))
	assert.Equal(t, 1, count)
}
