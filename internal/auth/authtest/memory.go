// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GameVault Contributors

// Package authtest provides in-memory auth dependencies for tests.
package authtest

import (
	"context"
	"sync"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/gamevault/gamevault/internal/auth"
)

type txKey struct{}

// Store is an in-memory auth.AccountRepository. Its Transactor serializes
// transactions and restores the previous contents when one fails.
type Store struct {
	mu       sync.Mutex // guards accounts
	accounts map[ulid.ULID]auth.Account

	txMu sync.Mutex // held for the duration of a transaction
}

var _ auth.AccountRepository = (*Store)(nil)

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{accounts: make(map[ulid.ULID]auth.Account)}
}

// Transactor returns an auth.Transactor backed by the store.
func (s *Store) Transactor() auth.Transactor {
	return transactor{s: s}
}

// Len returns the number of stored accounts.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.accounts)
}

// Put stores account directly, bypassing uniqueness checks.
func (s *Store) Put(account *auth.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[account.ID] = *account
}

// Create inserts account.
func (s *Store) Create(_ context.Context, account *auth.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.accounts {
		if existing.Email == account.Email {
			return oops.Code("ACCOUNT_DUPLICATE").With("email", account.Email).Wrap(auth.ErrDuplicate)
		}
	}
	s.accounts[account.ID] = *account
	return nil
}

// GetByID returns the account with id.
func (s *Store) GetByID(_ context.Context, id ulid.ULID) (*auth.Account, error) {
	return s.find(func(a *auth.Account) bool { return a.ID == id })
}

// GetByEmail returns the account with email.
func (s *Store) GetByEmail(_ context.Context, email string, _ bool) (*auth.Account, error) {
	return s.find(func(a *auth.Account) bool { return a.Email == email })
}

// GetBySessionToken returns the account owning token.
func (s *Store) GetBySessionToken(_ context.Context, token string) (*auth.Account, error) {
	return s.find(func(a *auth.Account) bool { return a.SessionToken == token })
}

// GetByUpdateToken returns the account owning token.
func (s *Store) GetByUpdateToken(_ context.Context, token string, _ bool) (*auth.Account, error) {
	return s.find(func(a *auth.Account) bool { return a.UpdateToken == token })
}

// UpdateTokens replaces the stored token triple.
func (s *Store) UpdateTokens(_ context.Context, account *auth.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.accounts[account.ID]
	if !ok {
		return oops.Code("ACCOUNT_NOT_FOUND").With("id", account.ID.String()).Wrap(auth.ErrNotFound)
	}
	stored.SessionToken = account.SessionToken
	stored.SessionExpiration = account.SessionExpiration
	stored.UpdateToken = account.UpdateToken
	stored.UpdatedAt = account.UpdatedAt
	s.accounts[account.ID] = stored
	return nil
}

func (s *Store) find(match func(*auth.Account) bool) (*auth.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.accounts {
		if match(&a) {
			found := a
			return &found, nil
		}
	}
	return nil, oops.Code("ACCOUNT_NOT_FOUND").Wrap(auth.ErrNotFound)
}

func (s *Store) snapshot() map[ulid.ULID]auth.Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := make(map[ulid.ULID]auth.Account, len(s.accounts))
	for id, a := range s.accounts {
		snap[id] = a
	}
	return snap
}

func (s *Store) restore(snap map[ulid.ULID]auth.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts = snap
}

type transactor struct {
	s *Store
}

func (t transactor) InTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}

	t.s.txMu.Lock()
	defer t.s.txMu.Unlock()

	snap := t.s.snapshot()
	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		t.s.restore(snap)
		return err
	}
	return nil
}
