// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GameVault Contributors

package auth

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Account is a registered user with its current session credentials.
type Account struct {
	ID                ulid.ULID
	Email             string
	PasswordHash      string
	SessionToken      string
	SessionExpiration time.Time
	UpdateToken       string
	Name              string
	Username          string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Profile holds the optional display fields set at registration.
type Profile struct {
	Name     string
	Username string
}

// NormalizeEmail trims surrounding whitespace and lowercases the address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail checks that email is a bare address without a display name.
func ValidateEmail(email string) error {
	if email == "" {
		return oops.Code(CodeValidation).With("field", "email").Errorf("email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return oops.Code(CodeValidation).With("field", "email").Errorf("email is invalid")
	}
	return nil
}

// AccountRepository manages account persistence. Implementations join the
// transaction carried in ctx, if any.
type AccountRepository interface {
	// Create inserts a new account. It returns an error wrapping ErrDuplicate
	// when the email is taken.
	Create(ctx context.Context, account *Account) error

	// GetByID returns the account or an error wrapping ErrNotFound.
	GetByID(ctx context.Context, id ulid.ULID) (*Account, error)

	// GetByEmail looks up a normalized email. With forUpdate the row is
	// locked until the surrounding transaction ends.
	GetByEmail(ctx context.Context, email string, forUpdate bool) (*Account, error)

	// GetBySessionToken returns the account owning the session token.
	GetBySessionToken(ctx context.Context, token string) (*Account, error)

	// GetByUpdateToken returns the account owning the update token. With
	// forUpdate the row is locked until the surrounding transaction ends.
	GetByUpdateToken(ctx context.Context, token string, forUpdate bool) (*Account, error)

	// UpdateTokens writes the session token, session expiration and update
	// token in a single statement.
	UpdateTokens(ctx context.Context, account *Account) error
}

// Transactor runs fn inside a single database transaction.
type Transactor interface {
	InTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
