// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GameVault Contributors

// Package auth implements the account credential and session lifecycle.
//
// # Components
//
//   - PasswordHasher (BcryptHasher) turns passwords into salted digests and
//     verifies them.
//   - TokenManager issues opaque session and update tokens, renews them
//     together, and checks session expiry.
//   - Registry creates accounts, logs them in, and renews sessions by update
//     token. Each operation runs in one transaction.
//
// Persistence sits behind AccountRepository; internal/auth/postgres provides
// the PostgreSQL implementation and internal/auth/authtest an in-memory one.
//
// # Errors
//
// Registry operations report failures as oops errors with one of the codes
// CodeValidation, CodeAlreadyExists, CodeInvalidCredentials, or
// CodeInvalidToken. Any other code is a storage or infrastructure failure.
package auth
