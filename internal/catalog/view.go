// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GameVault Contributors

package catalog

import "github.com/oklog/ulid/v2"

// UserSummary is a user without favorites.
type UserSummary struct {
	ID       ulid.ULID `json:"id"`
	Name     string    `json:"name"`
	Username string    `json:"username"`
}

// UserView is a user with favorites and the distinct publishers of those
// favorites in first-seen order.
type UserView struct {
	UserSummary
	Favorites  []GameView `json:"favorites"`
	Publishers []string   `json:"publishers"`
}

// CategoryRef identifies a category.
type CategoryRef struct {
	ID    ulid.ULID `json:"id"`
	Title string    `json:"title"`
}

// CategoryView is a category with its games.
type CategoryView struct {
	CategoryRef
	Games []GameSummary `json:"games"`
}

// GameSummary is a game without category or players.
type GameSummary struct {
	ID       ulid.ULID `json:"id"`
	Title    string    `json:"title"`
	Platform string    `json:"platform"`
}

// GameView is a game with its category and the users who favorited it.
type GameView struct {
	GameSummary
	Publisher   string        `json:"publisher"`
	ReleaseDate string        `json:"release_date"`
	Category    CategoryRef   `json:"category"`
	Players     []UserSummary `json:"players"`
}

func userSummary(u User) UserSummary {
	return UserSummary{ID: u.ID, Name: u.Name, Username: u.Username}
}

func categoryRef(c Category) CategoryRef {
	return CategoryRef{ID: c.ID, Title: c.Title}
}

func gameSummary(g Game) GameSummary {
	return GameSummary{ID: g.ID, Title: g.Title, Platform: g.Platform}
}

// distinctPublishers returns each publisher once, in first-seen order.
func distinctPublishers(games []GameView) []string {
	seen := make(map[string]struct{}, len(games))
	out := make([]string, 0, len(games))
	for _, g := range games {
		if _, ok := seen[g.Publisher]; ok {
			continue
		}
		seen[g.Publisher] = struct{}{}
		out = append(out, g.Publisher)
	}
	return out
}

// NewUserView returns the view of a user without favorites.
func NewUserView(id ulid.ULID, name, username string) UserView {
	return UserView{
		UserSummary: UserSummary{ID: id, Name: name, Username: username},
		Favorites:   []GameView{},
		Publishers:  []string{},
	}
}
