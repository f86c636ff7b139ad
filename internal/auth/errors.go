// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GameVault Contributors

package auth

import (
	"errors"

	"github.com/gamevault/gamevault/pkg/errutil"
)

// ErrNotFound is returned when a requested account does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned by repositories when an insert violates the
// account email uniqueness constraint.
var ErrDuplicate = errors.New("already exists")

// Error codes reported by Registry operations.
const (
	CodeValidation         = errutil.CodeValidation
	CodeAlreadyExists      = errutil.CodeAlreadyExists
	CodeInvalidCredentials = errutil.CodeInvalidCredentials
	CodeInvalidToken       = errutil.CodeInvalidToken
)
