// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GameVault Contributors

package api

import (
	"net/http"
	"strings"

	"github.com/samber/oops"

	"github.com/gamevault/gamevault/pkg/errutil"
)

const bearerPrefix = "Bearer"

// bearerToken extracts the token from an Authorization header. The prefix
// is matched case-sensitively; the remainder is trimmed.
func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", oops.Code(errutil.CodeValidation).Errorf("Missing authorization header.")
	}
	rest, ok := strings.CutPrefix(header, bearerPrefix)
	if !ok {
		return "", oops.Code(errutil.CodeValidation).Errorf("Invalid authorization header.")
	}
	token := strings.TrimSpace(rest)
	if token == "" {
		return "", oops.Code(errutil.CodeValidation).Errorf("Invalid authorization header.")
	}
	return token, nil
}
