// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GameVault Contributors

package api

import (
	"net/http"
	"time"

	"github.com/gamevault/gamevault/internal/auth"
)

const secretMessage = "You have successfully implemented sessions."

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Username string `json:"username"`
}

type sessionResponse struct {
	SessionToken      string `json:"session_token"`
	SessionExpiration string `json:"session_expiration"`
	UpdateToken       string `json:"update_token"`
}

func newSessionResponse(a *auth.Account) sessionResponse {
	return sessionResponse{
		SessionToken:      a.SessionToken,
		SessionExpiration: a.SessionExpiration.UTC().Format(time.RFC3339),
		UpdateToken:       a.UpdateToken,
	}
}

func (h *handler) register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, maxJSONBodyBytes, &req); err != nil {
		h.failFlat(w, r, err)
		return
	}
	account, err := h.accounts.Register(r.Context(), req.Email, req.Password, auth.Profile{
		Name:     req.Name,
		Username: req.Username,
	})
	h.recordAuth("register", err)
	if err != nil {
		h.failFlat(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newSessionResponse(account))
}

func (h *handler) login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, maxJSONBodyBytes, &req); err != nil {
		h.failFlat(w, r, err)
		return
	}
	account, err := h.accounts.Login(r.Context(), req.Email, req.Password)
	h.recordAuth("login", err)
	if err != nil {
		h.failFlat(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newSessionResponse(account))
}

func (h *handler) renewSession(w http.ResponseWriter, r *http.Request) {
	token, err := bearerToken(r)
	if err != nil {
		h.failFlat(w, r, err)
		return
	}
	account, err := h.accounts.RenewByUpdateToken(r.Context(), token)
	h.recordAuth("renew", err)
	if err != nil {
		h.failFlat(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newSessionResponse(account))
}

func (h *handler) secret(w http.ResponseWriter, r *http.Request) {
	token, err := bearerToken(r)
	if err != nil {
		h.failFlat(w, r, err)
		return
	}
	_, err = h.accounts.Authenticate(r.Context(), token)
	h.recordAuth("authenticate", err)
	if err != nil {
		h.failFlat(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": secretMessage})
}
