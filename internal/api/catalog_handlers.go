// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GameVault Contributors

package api

import (
	"net/http"
	"strings"

	"github.com/samber/oops"

	"github.com/gamevault/gamevault/internal/auth"
	"github.com/gamevault/gamevault/internal/catalog"
	"github.com/gamevault/gamevault/pkg/errutil"
)

func (h *handler) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.catalog.ListUsers(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, users)
}

type createUserRequest struct {
	Name     string `json:"name"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *handler) createUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeJSON(w, r, maxJSONBodyBytes, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	for _, f := range []struct{ name, value string }{
		{"name", req.Name},
		{"username", req.Username},
	} {
		if strings.TrimSpace(f.value) == "" {
			h.fail(w, r, oops.Code(errutil.CodeValidation).With("field", f.name).Errorf("%s cannot be empty", f.name))
			return
		}
	}

	account, err := h.accounts.Register(r.Context(), req.Email, req.Password, auth.Profile{
		Name:     strings.TrimSpace(req.Name),
		Username: strings.TrimSpace(req.Username),
	})
	h.recordAuth("register", err)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, catalog.NewUserView(account.ID, account.Name, account.Username))
}

func (h *handler) getUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	user, err := h.catalog.GetUser(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, user)
}

func (h *handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	user, err := h.catalog.DeleteUser(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, user)
}

func (h *handler) listCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalog.ListCategories(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, categories)
}

func (h *handler) createCategory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title string `json:"title"`
	}
	if err := decodeJSON(w, r, maxJSONBodyBytes, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	category, err := h.catalog.CreateCategory(r.Context(), req.Title)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, category)
}

func (h *handler) getCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	category, err := h.catalog.GetCategory(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, category)
}

func (h *handler) listGames(w http.ResponseWriter, r *http.Request) {
	games, err := h.catalog.ListGames(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, games)
}

type createGameRequest struct {
	Title       string `json:"title"`
	Platform    string `json:"platform"`
	Publisher   string `json:"publisher"`
	ReleaseDate string `json:"release_date"`
	CategoryID  string `json:"category_id"`
}

func (h *handler) createGame(w http.ResponseWriter, r *http.Request) {
	var req createGameRequest
	if err := decodeJSON(w, r, maxJSONBodyBytes, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	in := catalog.NewGame{
		Title:       req.Title,
		Platform:    req.Platform,
		Publisher:   req.Publisher,
		ReleaseDate: req.ReleaseDate,
	}
	if raw := strings.TrimSpace(req.CategoryID); raw != "" {
		id, err := parseID("category_id", raw)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		in.CategoryID = id
	}

	game, err := h.catalog.CreateGame(r.Context(), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, game)
}

func (h *handler) getGame(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	game, err := h.catalog.GetGame(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, game)
}

func (h *handler) addFavorite(w http.ResponseWriter, r *http.Request) {
	gameID, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req struct {
		UserID string `json:"user_id"`
	}
	if err := decodeJSON(w, r, maxJSONBodyBytes, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if strings.TrimSpace(req.UserID) == "" {
		h.fail(w, r, oops.Code(errutil.CodeValidation).With("field", "user_id").Errorf("user_id cannot be empty"))
		return
	}
	userID, err := parseID("user_id", strings.TrimSpace(req.UserID))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	user, err := h.catalog.AddFavorite(r.Context(), gameID, userID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, user)
}
