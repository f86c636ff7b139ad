// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GameVault Contributors

// Package asset ingests base64 image uploads: it decodes and validates the
// payload, records it in the database and stores the bytes in an
// S3-compatible bucket.
package asset

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
)

// Asset is a stored image.
type Asset struct {
	ID          ulid.ULID `json:"id"`
	StorageKey  string    `json:"-"`
	URL         string    `json:"url"`
	ContentType string    `json:"content_type"`
	Width       int       `json:"width"`
	Height      int       `json:"height"`
	SizeBytes   int64     `json:"size_bytes"`
	CreatedAt   time.Time `json:"created_at"`
}

// Repository persists asset metadata.
type Repository interface {
	Create(ctx context.Context, asset *Asset) error
}

// Transactor runs fn inside a single database transaction.
type Transactor interface {
	InTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// ObjectStore holds asset bytes.
type ObjectStore interface {
	Put(ctx context.Context, key, contentType string, body []byte) error
	Delete(ctx context.Context, key string) error
	// URL returns the public address of key.
	URL(key string) string
}
