// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GameVault Contributors

package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/gamevault/gamevault/pkg/errutil"
)

// decodeJSON reads a JSON body of at most limit bytes into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, limit int64, dst any) error {
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, limit)).Decode(dst)
	if err == nil {
		return nil
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return oops.Code(errutil.CodeValidation).
			With("limit_bytes", limit).
			Errorf("request body too large")
	}
	return oops.Code(errutil.CodeValidation).Errorf("invalid JSON body")
}

// parseID parses a ULID, reporting field in the error.
func parseID(field, raw string) (ulid.ULID, error) {
	id, err := ulid.Parse(raw)
	if err != nil {
		return ulid.ULID{}, oops.Code(errutil.CodeValidation).
			With("field", field).
			Errorf("%s is invalid", field)
	}
	return id, nil
}

func pathID(r *http.Request) (ulid.ULID, error) {
	return parseID("id", chi.URLParam(r, "id"))
}
