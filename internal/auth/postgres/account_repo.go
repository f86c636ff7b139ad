// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GameVault Contributors

// Package postgres implements auth repositories on PostgreSQL.
package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/gamevault/gamevault/internal/auth"
	"github.com/gamevault/gamevault/internal/store"
)

const emailConstraint = "users_email_key"

const selectAccount = `
	SELECT id, email, password_hash, session_token, session_expiration,
	       update_token, name, username, created_at, updated_at
	FROM users`

// AccountRepository implements auth.AccountRepository using PostgreSQL.
// Every method joins the transaction carried in ctx, if any.
type AccountRepository struct {
	pool store.Pool
}

var _ auth.AccountRepository = (*AccountRepository)(nil)

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(pool store.Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

// Create stores a new account.
func (r *AccountRepository) Create(ctx context.Context, account *auth.Account) error {
	_, err := store.Conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO users (
			id, email, password_hash, session_token, session_expiration,
			update_token, name, username, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		account.ID.String(),
		account.Email,
		account.PasswordHash,
		account.SessionToken,
		account.SessionExpiration,
		account.UpdateToken,
		account.Name,
		account.Username,
		account.CreatedAt,
		account.UpdatedAt,
	)
	if err != nil {
		if constraint, ok := store.UniqueViolation(err); ok && constraint == emailConstraint {
			return oops.Code("ACCOUNT_DUPLICATE").
				With("email", account.Email).
				Wrap(auth.ErrDuplicate)
		}
		return oops.Code("ACCOUNT_CREATE_FAILED").
			With("operation", "insert account").
			With("id", account.ID.String()).
			Wrap(err)
	}
	return nil
}

// GetByID retrieves an account by ID.
func (r *AccountRepository) GetByID(ctx context.Context, id ulid.ULID) (*auth.Account, error) {
	row := store.Conn(ctx, r.pool).QueryRow(ctx, selectAccount+` WHERE id = $1`, id.String())
	return r.get(row, "id", id.String())
}

// GetByEmail retrieves an account by normalized email.
func (r *AccountRepository) GetByEmail(ctx context.Context, email string, forUpdate bool) (*auth.Account, error) {
	row := store.Conn(ctx, r.pool).QueryRow(ctx, selectAccount+` WHERE email = $1`+lockClause(forUpdate), email)
	return r.get(row, "email", email)
}

// GetBySessionToken retrieves the account owning a session token.
func (r *AccountRepository) GetBySessionToken(ctx context.Context, token string) (*auth.Account, error) {
	row := store.Conn(ctx, r.pool).QueryRow(ctx, selectAccount+` WHERE session_token = $1`, token)
	return r.get(row, "lookup", "session_token")
}

// GetByUpdateToken retrieves the account owning an update token.
func (r *AccountRepository) GetByUpdateToken(ctx context.Context, token string, forUpdate bool) (*auth.Account, error) {
	row := store.Conn(ctx, r.pool).QueryRow(ctx, selectAccount+` WHERE update_token = $1`+lockClause(forUpdate), token)
	return r.get(row, "lookup", "update_token")
}

// UpdateTokens writes the session token, its expiration and the update token
// in one statement.
func (r *AccountRepository) UpdateTokens(ctx context.Context, account *auth.Account) error {
	result, err := store.Conn(ctx, r.pool).Exec(ctx, `
		UPDATE users SET
			session_token = $2,
			session_expiration = $3,
			update_token = $4,
			updated_at = $5
		WHERE id = $1
	`,
		account.ID.String(),
		account.SessionToken,
		account.SessionExpiration,
		account.UpdateToken,
		account.UpdatedAt,
	)
	if err != nil {
		return oops.Code("ACCOUNT_UPDATE_TOKENS_FAILED").
			With("operation", "update tokens").
			With("id", account.ID.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("ACCOUNT_NOT_FOUND").
			With("id", account.ID.String()).
			Wrap(auth.ErrNotFound)
	}
	return nil
}

func lockClause(forUpdate bool) string {
	if forUpdate {
		return ` FOR UPDATE`
	}
	return ""
}

// get scans row and maps pgx.ErrNoRows to auth.ErrNotFound. key/value
// describe the lookup for error context; tokens are never logged.
func (r *AccountRepository) get(row pgx.Row, key, value string) (*auth.Account, error) {
	account, err := scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("ACCOUNT_NOT_FOUND").
			With(key, value).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("ACCOUNT_GET_FAILED").
			With("operation", "get account").
			With(key, value).
			Wrap(err)
	}
	return account, nil
}

// scanAccount scans a single row into an Account.
// Callers are responsible for handling pgx.ErrNoRows.
func scanAccount(row pgx.Row) (*auth.Account, error) {
	var (
		idStr string
		a     auth.Account
	)
	err := row.Scan(
		&idStr,
		&a.Email,
		&a.PasswordHash,
		&a.SessionToken,
		&a.SessionExpiration,
		&a.UpdateToken,
		&a.Name,
		&a.Username,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err //nolint:wrapcheck // callers wrap with lookup context
		}
		return nil, oops.Code("ACCOUNT_SCAN_FAILED").With("operation", "scan account").Wrap(err)
	}

	id, err := ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("ACCOUNT_INVALID_ID").
			With("operation", "parse account id").
			With("id", idStr).
			Wrap(err)
	}
	a.ID = id
	a.SessionExpiration = a.SessionExpiration.UTC()
	a.CreatedAt = a.CreatedAt.UTC()
	a.UpdatedAt = a.UpdatedAt.UTC()
	return &a, nil
}
