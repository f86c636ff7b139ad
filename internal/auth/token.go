// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GameVault Contributors

package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"io"
	"time"

	"github.com/samber/oops"
)

// Token configuration.
const (
	TokenBytes        = 32             // 32 bytes = 64 hex chars
	DefaultSessionTTL = 24 * time.Hour // session token lifetime
)

// GenerateToken returns a random token read from crypto/rand.
func GenerateToken() (string, error) {
	return generateToken(rand.Reader)
}

func generateToken(entropy io.Reader) (string, error) {
	buf := make([]byte, TokenBytes)
	if _, err := io.ReadFull(entropy, buf); err != nil {
		return "", oops.Code("TOKEN_GENERATE_FAILED").
			With("operation", "read entropy").
			With("requested_bytes", TokenBytes).
			Wrap(err)
	}
	return hex.EncodeToString(buf), nil
}

// TokenManager issues session and update tokens and checks their validity.
type TokenManager struct {
	ttl     time.Duration
	now     func() time.Time
	entropy io.Reader
}

// TokenOption configures a TokenManager.
type TokenOption func(*TokenManager)

// WithClock overrides the time source.
func WithClock(now func() time.Time) TokenOption {
	return func(m *TokenManager) { m.now = now }
}

// WithEntropy overrides the random source.
func WithEntropy(r io.Reader) TokenOption {
	return func(m *TokenManager) { m.entropy = r }
}

// NewTokenManager creates a TokenManager issuing sessions that last ttl.
// A non-positive ttl falls back to DefaultSessionTTL.
func NewTokenManager(ttl time.Duration, opts ...TokenOption) *TokenManager {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	m := &TokenManager{
		ttl:     ttl,
		now:     time.Now,
		entropy: rand.Reader,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// TTL returns the session lifetime.
func (m *TokenManager) TTL() time.Duration {
	return m.ttl
}

// Generate returns a fresh random token.
func (m *TokenManager) Generate() (string, error) {
	return generateToken(m.entropy)
}

// Renew replaces the account's session token, session expiration, and
// update token. On error the account is left unchanged.
func (m *TokenManager) Renew(account *Account) error {
	sessionToken, err := m.Generate()
	if err != nil {
		return oops.With("operation", "generate session token").Wrap(err)
	}
	updateToken, err := m.Generate()
	if err != nil {
		return oops.With("operation", "generate update token").Wrap(err)
	}

	account.SessionToken = sessionToken
	account.SessionExpiration = m.now().Add(m.ttl).UTC()
	account.UpdateToken = updateToken
	return nil
}

// IsSessionValid reports whether token is the account's current session
// token and the session has not expired.
func (m *TokenManager) IsSessionValid(account *Account, token string) bool {
	if account == nil || !tokensEqual(account.SessionToken, token) {
		return false
	}
	return m.now().Before(account.SessionExpiration)
}

// IsUpdateValid reports whether token is the account's current update token.
// Update tokens do not expire; they are superseded by the next renewal.
func (m *TokenManager) IsUpdateValid(account *Account, token string) bool {
	return account != nil && tokensEqual(account.UpdateToken, token)
}

func tokensEqual(stored, presented string) bool {
	if stored == "" || presented == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(presented)) == 1
}
