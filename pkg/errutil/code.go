// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GameVault Contributors

// Package errutil holds helpers for working with oops errors.
package errutil

import (
	"fmt"

	"github.com/samber/oops"
)

// Codes shared by every service. The HTTP layer maps them to statuses;
// any other code is treated as an internal failure.
const (
	CodeValidation           = "VALIDATION_ERROR"
	CodeAlreadyExists        = "ALREADY_EXISTS"
	CodeInvalidCredentials   = "INVALID_CREDENTIALS"
	CodeInvalidToken         = "INVALID_TOKEN"
	CodeNotFound             = "NOT_FOUND"
	CodeUnsupportedMediaType = "UNSUPPORTED_MEDIA_TYPE"
	CodeStorageUnavailable   = "STORAGE_UNAVAILABLE"
)

// Code returns the error code carried by an oops error, or "" when err is
// nil, not an oops error, or has no code.
func Code(err error) string {
	if err == nil {
		return ""
	}
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return ""
	}
	if code := oopsErr.Code(); code != nil {
		return fmt.Sprint(code)
	}
	return ""
}

// HasCode reports whether err carries the given oops error code.
func HasCode(err error, code string) bool {
	return Code(err) == code
}
