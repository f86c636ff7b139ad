// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GameVault Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// dummyPassword is hashed once at construction. Logins for unknown emails
// verify against its digest so they cost the same as real ones.
const dummyPassword = "gamevault-timing-equalizer"

// Registry creates accounts and manages their session lifecycle.
type Registry struct {
	accounts    AccountRepository
	tx          Transactor
	hasher      PasswordHasher
	tokens      *TokenManager
	dummyDigest string
}

// NewRegistry creates a Registry. All dependencies are required.
func NewRegistry(accounts AccountRepository, tx Transactor, hasher PasswordHasher, tokens *TokenManager) (*Registry, error) {
	if accounts == nil {
		return nil, oops.Code("REGISTRY_INVALID_CONFIG").Errorf("account repository is required")
	}
	if tx == nil {
		return nil, oops.Code("REGISTRY_INVALID_CONFIG").Errorf("transactor is required")
	}
	if hasher == nil {
		return nil, oops.Code("REGISTRY_INVALID_CONFIG").Errorf("password hasher is required")
	}
	if tokens == nil {
		return nil, oops.Code("REGISTRY_INVALID_CONFIG").Errorf("token manager is required")
	}

	digest, err := hasher.Hash(dummyPassword)
	if err != nil {
		return nil, oops.Code("REGISTRY_INVALID_CONFIG").
			With("operation", "hash dummy password").
			Wrap(err)
	}

	return &Registry{
		accounts:    accounts,
		tx:          tx,
		hasher:      hasher,
		tokens:      tokens,
		dummyDigest: digest,
	}, nil
}

// Register creates an account with a fresh session.
func (r *Registry) Register(ctx context.Context, email, password string, profile Profile) (*Account, error) {
	email = NormalizeEmail(email)
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}
	if password == "" {
		return nil, oops.Code(CodeValidation).With("field", "password").Errorf("password is required")
	}

	digest, err := r.hasher.Hash(password)
	if err != nil {
		return nil, oops.With("operation", "hash password").Wrap(err)
	}

	now := time.Now().UTC()
	account := &Account{
		ID:           ulid.Make(),
		Email:        email,
		PasswordHash: digest,
		Name:         profile.Name,
		Username:     profile.Username,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = r.tx.InTransaction(ctx, func(ctx context.Context) error {
		_, lookupErr := r.accounts.GetByEmail(ctx, email, false)
		switch {
		case lookupErr == nil:
			return errEmailTaken(email)
		case !errors.Is(lookupErr, ErrNotFound):
			return oops.With("operation", "check existing email").Wrap(lookupErr)
		}

		if err := r.tokens.Renew(account); err != nil {
			return err
		}
		if err := r.accounts.Create(ctx, account); err != nil {
			if errors.Is(err, ErrDuplicate) {
				return errEmailTaken(email)
			}
			return oops.With("operation", "create account").Wrap(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "account registered", "account_id", account.ID.String())
	return account, nil
}

func errEmailTaken(email string) error {
	return oops.Code(CodeAlreadyExists).
		With("email", email).
		Errorf("an account with this email already exists")
}

func errInvalidCredentials() error {
	return oops.Code(CodeInvalidCredentials).Errorf("invalid email or password")
}

// Login verifies the credentials and issues a new session. Unknown emails
// and wrong passwords fail identically.
func (r *Registry) Login(ctx context.Context, email, password string) (*Account, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return nil, oops.Code(CodeValidation).With("field", "email").Errorf("email is required")
	}
	if password == "" {
		return nil, oops.Code(CodeValidation).With("field", "password").Errorf("password is required")
	}

	var account *Account
	err := r.tx.InTransaction(ctx, func(ctx context.Context) error {
		found, lookupErr := r.accounts.GetByEmail(ctx, email, true)
		if lookupErr != nil {
			if !errors.Is(lookupErr, ErrNotFound) {
				return oops.With("operation", "get account by email").Wrap(lookupErr)
			}
			r.hasher.Verify(password, r.dummyDigest)
			return errInvalidCredentials()
		}

		if !r.hasher.Verify(password, found.PasswordHash) {
			return errInvalidCredentials()
		}

		if err := r.renew(ctx, found); err != nil {
			return err
		}
		account = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return account, nil
}

// RenewByUpdateToken exchanges a current update token for a new session.
// The presented token is superseded on success.
func (r *Registry) RenewByUpdateToken(ctx context.Context, token string) (*Account, error) {
	if token == "" {
		return nil, oops.Code(CodeInvalidToken).Errorf("invalid update token")
	}

	var account *Account
	err := r.tx.InTransaction(ctx, func(ctx context.Context) error {
		found, lookupErr := r.accounts.GetByUpdateToken(ctx, token, true)
		if lookupErr != nil {
			if errors.Is(lookupErr, ErrNotFound) {
				return oops.Code(CodeInvalidToken).Errorf("invalid update token")
			}
			return oops.With("operation", "get account by update token").Wrap(lookupErr)
		}
		if !r.tokens.IsUpdateValid(found, token) {
			return oops.Code(CodeInvalidToken).Errorf("invalid update token")
		}

		if err := r.renew(ctx, found); err != nil {
			return err
		}
		account = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return account, nil
}

// renew rotates the account tokens and persists them. The in-memory account
// only changes once the write succeeds.
func (r *Registry) renew(ctx context.Context, account *Account) error {
	next := *account
	if err := r.tokens.Renew(&next); err != nil {
		return err
	}
	next.UpdatedAt = time.Now().UTC()
	if err := r.accounts.UpdateTokens(ctx, &next); err != nil {
		return oops.With("operation", "persist tokens").With("account_id", account.ID.String()).Wrap(err)
	}
	*account = next
	return nil
}

// FindBySessionToken returns the account owning token without checking
// expiry.
func (r *Registry) FindBySessionToken(ctx context.Context, token string) (*Account, error) {
	if token == "" {
		return nil, oops.Code("ACCOUNT_NOT_FOUND").Wrap(ErrNotFound)
	}
	account, err := r.accounts.GetBySessionToken(ctx, token)
	if err != nil {
		return nil, err
	}
	return account, nil
}

// Authenticate returns the account for a live session token.
func (r *Registry) Authenticate(ctx context.Context, sessionToken string) (*Account, error) {
	account, err := r.FindBySessionToken(ctx, sessionToken)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, oops.Code(CodeInvalidToken).Errorf("invalid session token")
		}
		return nil, oops.With("operation", "find account by session token").Wrap(err)
	}
	if !r.tokens.IsSessionValid(account, sessionToken) {
		return nil, oops.Code(CodeInvalidToken).
			With("reason", "expired").
			Errorf("invalid session token")
	}
	return account, nil
}
