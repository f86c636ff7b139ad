// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GameVault Contributors

package api

import (
	"encoding/json"
	"net/http"

	"github.com/gamevault/gamevault/pkg/errutil"
)

const internalErrorMessage = "internal error"

// envelope wraps catalog and asset responses.
type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// flatError is the error body of the auth endpoints.
type flatError struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck // client may have gone away
	json.NewEncoder(w).Encode(v)
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, envelope{Success: true, Data: data})
}

// statusFor maps a taxonomy code to an HTTP status. Unknown codes are 500.
func statusFor(code string) int {
	switch code {
	case errutil.CodeValidation:
		return http.StatusBadRequest
	case errutil.CodeInvalidCredentials, errutil.CodeInvalidToken:
		return http.StatusUnauthorized
	case errutil.CodeNotFound:
		return http.StatusNotFound
	case errutil.CodeAlreadyExists:
		return http.StatusConflict
	case errutil.CodeUnsupportedMediaType:
		return http.StatusUnsupportedMediaType
	case errutil.CodeStorageUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// publicError returns the status and client-safe message for err. Errors
// outside the taxonomy are logged and reported as "internal error".
func (h *handler) publicError(r *http.Request, err error) (int, string) {
	status := statusFor(errutil.Code(err))
	if status == http.StatusInternalServerError {
		errutil.LogErrorContext(r.Context(), h.logger, "request failed", err)
		return status, internalErrorMessage
	}
	return status, err.Error()
}

func (h *handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := h.publicError(r, err)
	writeJSON(w, status, envelope{Success: false, Error: msg})
}

func (h *handler) failFlat(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := h.publicError(r, err)
	writeJSON(w, status, flatError{Error: msg})
}
