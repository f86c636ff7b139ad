// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GameVault Contributors

// Package postgres records asset metadata in PostgreSQL.
package postgres

import (
	"context"

	"github.com/samber/oops"

	"github.com/gamevault/gamevault/internal/asset"
	"github.com/gamevault/gamevault/internal/store"
)

// Repository implements asset.Repository using PostgreSQL.
type Repository struct {
	pool store.Pool
}

var _ asset.Repository = (*Repository)(nil)

// NewRepository creates a new Repository.
func NewRepository(pool store.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create stores asset metadata.
func (r *Repository) Create(ctx context.Context, a *asset.Asset) error {
	_, err := store.Conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO assets (id, storage_key, url, content_type, width, height, size_bytes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		a.ID.String(),
		a.StorageKey,
		a.URL,
		a.ContentType,
		a.Width,
		a.Height,
		a.SizeBytes,
		a.CreatedAt,
	)
	if err != nil {
		return oops.Code("ASSET_CREATE_FAILED").
			With("operation", "insert asset").
			With("storage_key", a.StorageKey).
			Wrap(err)
	}
	return nil
}
