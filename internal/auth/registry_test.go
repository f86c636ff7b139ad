// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GameVault Contributors

package auth_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gamevault/gamevault/internal/auth"
	"github.com/gamevault/gamevault/internal/auth/authtest"
	"github.com/gamevault/gamevault/pkg/errutil"
)

type registryFixture struct {
	registry *auth.Registry
	store    *authtest.Store
	clock    *fakeClock
}

func newRegistryFixture(t *testing.T) *registryFixture {
	t.Helper()
	store := authtest.NewStore()
	clock := newFakeClock()
	return &registryFixture{
		registry: newRegistryWith(t, store, store.Transactor(), clock),
		store:    store,
		clock:    clock,
	}
}

func newRegistryWith(t *testing.T, repo auth.AccountRepository, tx auth.Transactor, clock *fakeClock) *auth.Registry {
	t.Helper()
	tokens := auth.NewTokenManager(24*time.Hour, auth.WithClock(clock.Now))
	r, err := auth.NewRegistry(repo, tx, newTestHasher(t), tokens)
	require.NoError(t, err)
	return r
}

func TestNewRegistry_RequiresDependencies(t *testing.T) {
	store := authtest.NewStore()
	hasher := newTestHasher(t)
	tokens := auth.NewTokenManager(time.Hour)

	tests := []struct {
		name   string
		repo   auth.AccountRepository
		tx     auth.Transactor
		hasher auth.PasswordHasher
		tokens *auth.TokenManager
	}{
		{name: "nil repository", tx: store.Transactor(), hasher: hasher, tokens: tokens},
		{name: "nil transactor", repo: store, hasher: hasher, tokens: tokens},
		{name: "nil hasher", repo: store, tx: store.Transactor(), tokens: tokens},
		{name: "nil token manager", repo: store, tx: store.Transactor(), hasher: hasher},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := auth.NewRegistry(tt.repo, tt.tx, tt.hasher, tt.tokens)
			require.Error(t, err)
			errutil.AssertErrorCode(t, err, "REGISTRY_INVALID_CONFIG")
		})
	}
}

func TestRegistry_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("creates account with session", func(t *testing.T) {
		f := newRegistryFixture(t)
		acc, err := f.registry.Register(ctx, "  A@X.com ", "secret123", auth.Profile{Name: "Ann", Username: "ann"})
		require.NoError(t, err)

		assert.Equal(t, "a@x.com", acc.Email)
		assert.Regexp(t, hexToken, acc.SessionToken)
		assert.Regexp(t, hexToken, acc.UpdateToken)
		assert.Equal(t, f.clock.Now().Add(24*time.Hour), acc.SessionExpiration)
		assert.NotEqual(t, "secret123", acc.PasswordHash)
		assert.Equal(t, "ann", acc.Username)

		stored, err := f.store.GetByID(ctx, acc.ID)
		require.NoError(t, err)
		assert.Equal(t, acc.SessionToken, stored.SessionToken)
	})

	t.Run("validation", func(t *testing.T) {
		tests := []struct {
			name      string
			email     string
			password  string
			wantField string
		}{
			{name: "missing email", email: "", password: "pw", wantField: "email"},
			{name: "invalid email", email: "nope", password: "pw", wantField: "email"},
			{name: "missing password", email: "a@x.com", password: "", wantField: "password"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				f := newRegistryFixture(t)
				_, err := f.registry.Register(ctx, tt.email, tt.password, auth.Profile{})
				require.Error(t, err)
				errutil.AssertErrorCode(t, err, auth.CodeValidation)
				errutil.AssertErrorContext(t, err, "field", tt.wantField)
				assert.Zero(t, f.store.Len())
			})
		}
	})

	t.Run("duplicate email is rejected", func(t *testing.T) {
		f := newRegistryFixture(t)
		_, err := f.registry.Register(ctx, "a@x.com", "secret123", auth.Profile{})
		require.NoError(t, err)

		_, err = f.registry.Register(ctx, "A@X.COM", "other-password", auth.Profile{})
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, auth.CodeAlreadyExists)
		assert.Equal(t, 1, f.store.Len())
	})

	t.Run("concurrent registrations create one account", func(t *testing.T) {
		f := newRegistryFixture(t)
		const workers = 8

		var wg sync.WaitGroup
		errs := make([]error, workers)
		for i := range workers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, errs[i] = f.registry.Register(ctx, "race@x.com", "secret123", auth.Profile{})
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
		assert.Equal(t, 1, f.store.Len())
	})

	t.Run("unique violation on insert maps to already exists", func(t *testing.T) {
		store := authtest.NewStore()
		repo := &racingRepo{Store: store}
		r := newRegistryWith(t, repo, store.Transactor(), newFakeClock())

		_, err := r.Register(ctx, "a@x.com", "secret123", auth.Profile{})
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, auth.CodeAlreadyExists)
	})

	t.Run("storage failure rolls back", func(t *testing.T) {
		store := authtest.NewStore()
		repo := &failingRepo{Store: store, createErr: errors.New("connection reset")}
		r := newRegistryWith(t, repo, store.Transactor(), newFakeClock())

		_, err := r.Register(ctx, "a@x.com", "secret123", auth.Profile{})
		require.Error(t, err)
		errutil.AssertErrorContext(t, err, "operation", "create account")
		assert.Zero(t, store.Len())
	})
}

func TestRegistry_Login(t *testing.T) {
	ctx := context.Background()

	t.Run("issues a new session", func(t *testing.T) {
		f := newRegistryFixture(t)
		registered, err := f.registry.Register(ctx, "a@x.com", "secret123", auth.Profile{})
		require.NoError(t, err)

		loggedIn, err := f.registry.Login(ctx, "A@x.com", "secret123")
		require.NoError(t, err)
		assert.Equal(t, registered.ID, loggedIn.ID)
		assert.NotEqual(t, registered.SessionToken, loggedIn.SessionToken)
		assert.NotEqual(t, registered.UpdateToken, loggedIn.UpdateToken)

		stored, err := f.store.GetByID(ctx, registered.ID)
		require.NoError(t, err)
		assert.Equal(t, loggedIn.SessionToken, stored.SessionToken)
	})

	t.Run("wrong password and unknown email fail identically", func(t *testing.T) {
		f := newRegistryFixture(t)
		_, err := f.registry.Register(ctx, "a@x.com", "secret123", auth.Profile{})
		require.NoError(t, err)

		_, wrongPassword := f.registry.Login(ctx, "a@x.com", "wrong")
		_, unknownEmail := f.registry.Login(ctx, "nobody@x.com", "secret123")

		require.Error(t, wrongPassword)
		require.Error(t, unknownEmail)
		errutil.AssertErrorCode(t, wrongPassword, auth.CodeInvalidCredentials)
		errutil.AssertErrorCode(t, unknownEmail, auth.CodeInvalidCredentials)
		assert.Equal(t, wrongPassword.Error(), unknownEmail.Error())
	})

	t.Run("validation", func(t *testing.T) {
		f := newRegistryFixture(t)
		_, err := f.registry.Login(ctx, " ", "pw")
		errutil.AssertErrorCode(t, err, auth.CodeValidation)

		_, err = f.registry.Login(ctx, "a@x.com", "")
		errutil.AssertErrorCode(t, err, auth.CodeValidation)
	})

	t.Run("failed token write leaves stored tokens unchanged", func(t *testing.T) {
		store := authtest.NewStore()
		good := newRegistryWith(t, store, store.Transactor(), newFakeClock())
		registered, err := good.Register(ctx, "a@x.com", "secret123", auth.Profile{})
		require.NoError(t, err)

		repo := &failingRepo{Store: store, updateErr: errors.New("disk full")}
		r := newRegistryWith(t, repo, store.Transactor(), newFakeClock())
		_, err = r.Login(ctx, "a@x.com", "secret123")
		require.Error(t, err)
		errutil.AssertErrorContext(t, err, "operation", "persist tokens")

		stored, err := store.GetByID(ctx, registered.ID)
		require.NoError(t, err)
		assert.Equal(t, registered.SessionToken, stored.SessionToken)
	})
}

func TestRegistry_RenewByUpdateToken(t *testing.T) {
	ctx := context.Background()

	t.Run("rotates all tokens", func(t *testing.T) {
		f := newRegistryFixture(t)
		registered, err := f.registry.Register(ctx, "a@x.com", "secret123", auth.Profile{})
		require.NoError(t, err)

		f.clock.Advance(time.Hour)
		renewed, err := f.registry.RenewByUpdateToken(ctx, registered.UpdateToken)
		require.NoError(t, err)
		assert.NotEqual(t, registered.SessionToken, renewed.SessionToken)
		assert.NotEqual(t, registered.UpdateToken, renewed.UpdateToken)
		assert.True(t, renewed.SessionExpiration.After(registered.SessionExpiration))
	})

	t.Run("superseded update token fails", func(t *testing.T) {
		f := newRegistryFixture(t)
		registered, err := f.registry.Register(ctx, "a@x.com", "secret123", auth.Profile{})
		require.NoError(t, err)

		_, err = f.registry.RenewByUpdateToken(ctx, registered.UpdateToken)
		require.NoError(t, err)

		_, err = f.registry.RenewByUpdateToken(ctx, registered.UpdateToken)
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, auth.CodeInvalidToken)
	})

	t.Run("empty and unknown tokens fail", func(t *testing.T) {
		f := newRegistryFixture(t)
		for _, token := range []string{"", "deadbeef"} {
			_, err := f.registry.RenewByUpdateToken(ctx, token)
			require.Error(t, err)
			errutil.AssertErrorCode(t, err, auth.CodeInvalidToken)
		}
	})
}

func TestRegistry_FindBySessionToken(t *testing.T) {
	ctx := context.Background()
	f := newRegistryFixture(t)
	registered, err := f.registry.Register(ctx, "a@x.com", "secret123", auth.Profile{})
	require.NoError(t, err)

	found, err := f.registry.FindBySessionToken(ctx, registered.SessionToken)
	require.NoError(t, err)
	assert.Equal(t, registered.ID, found.ID)

	for _, token := range []string{"", "unknown"} {
		_, err = f.registry.FindBySessionToken(ctx, token)
		require.ErrorIs(t, err, auth.ErrNotFound)
		errutil.AssertErrorCode(t, err, "ACCOUNT_NOT_FOUND")
	}
}

func TestRegistry_Authenticate(t *testing.T) {
	ctx := context.Background()
	f := newRegistryFixture(t)
	registered, err := f.registry.Register(ctx, "a@x.com", "secret123", auth.Profile{})
	require.NoError(t, err)

	t.Run("live session", func(t *testing.T) {
		acc, err := f.registry.Authenticate(ctx, registered.SessionToken)
		require.NoError(t, err)
		assert.Equal(t, registered.ID, acc.ID)
	})

	t.Run("unknown token", func(t *testing.T) {
		_, err := f.registry.Authenticate(ctx, "unknown")
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, auth.CodeInvalidToken)
		assert.NotErrorIs(t, err, auth.ErrNotFound)
	})

	t.Run("expired session", func(t *testing.T) {
		f.clock.Advance(24 * time.Hour)
		_, err := f.registry.Authenticate(ctx, registered.SessionToken)
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, auth.CodeInvalidToken)
		errutil.AssertErrorContext(t, err, "reason", "expired")
	})
}

func TestRegistry_RegisterLoginScenario(t *testing.T) {
	ctx := context.Background()
	f := newRegistryFixture(t)

	registered, err := f.registry.Register(ctx, "a@x.com", "secret123", auth.Profile{})
	require.NoError(t, err)
	assert.NotEmpty(t, registered.SessionToken)
	assert.NotEmpty(t, registered.UpdateToken)
	assert.False(t, registered.SessionExpiration.IsZero())

	_, err = f.registry.Login(ctx, "a@x.com", "wrong")
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, auth.CodeInvalidCredentials)

	loggedIn, err := f.registry.Login(ctx, "a@x.com", "secret123")
	require.NoError(t, err)
	assert.NotEqual(t, registered.SessionToken, loggedIn.SessionToken)

	_, err = f.registry.Authenticate(ctx, registered.SessionToken)
	errutil.AssertErrorCode(t, err, auth.CodeInvalidToken)
	_, err = f.registry.Authenticate(ctx, loggedIn.SessionToken)
	require.NoError(t, err)
}

// racingRepo behaves as if another transaction inserted the same email
// between the lookup and the insert.
type racingRepo struct {
	*authtest.Store
}

func (r *racingRepo) Create(context.Context, *auth.Account) error {
	return oops.Code("ACCOUNT_DUPLICATE").Wrap(auth.ErrDuplicate)
}

// failingRepo injects write failures into an in-memory store.
type failingRepo struct {
	*authtest.Store
	createErr error
	updateErr error
}

func (r *failingRepo) Create(ctx context.Context, account *auth.Account) error {
	if r.createErr != nil {
		return r.createErr
	}
	return r.Store.Create(ctx, account)
}

func (r *failingRepo) UpdateTokens(ctx context.Context, account *auth.Account) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	return r.Store.UpdateTokens(ctx, account)
}
