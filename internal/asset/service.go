// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GameVault Contributors

package asset

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/gamevault/gamevault/pkg/errutil"
)

// DefaultMaxBytes caps decoded uploads at 10 MiB.
const DefaultMaxBytes int64 = 10 << 20

// extensions lists every media type with a registered image decoder.
var extensions = map[string]string{
	"image/png":  "png",
	"image/jpeg": "jpg",
	"image/gif":  "gif",
}

// StorageKey returns assets/YYYY/MM/DD/<id>.<ext> for an upload at t.
func StorageKey(t time.Time, id uuid.UUID, contentType string) string {
	ext, ok := extensions[contentType]
	if !ok {
		ext = "bin"
	}
	t = t.UTC()
	return fmt.Sprintf("assets/%04d/%02d/%02d/%s.%s", t.Year(), t.Month(), t.Day(), id, ext)
}

// Options configures a Service.
type Options struct {
	AllowedTypes []string
	MaxBytes     int64
	Now          func() time.Time
}

// Service ingests image uploads.
type Service struct {
	repo     Repository
	tx       Transactor
	objects  ObjectStore
	allow    *Allowlist
	maxBytes int64
	now      func() time.Time
}

// NewService creates a Service. objects may be nil when no bucket is
// configured; Ingest then fails with STORAGE_UNAVAILABLE.
func NewService(repo Repository, tx Transactor, objects ObjectStore, opts Options) (*Service, error) {
	allow, err := NewAllowlist(opts.AllowedTypes)
	if err != nil {
		return nil, err
	}
	s := &Service{
		repo:     repo,
		tx:       tx,
		objects:  objects,
		allow:    allow,
		maxBytes: opts.MaxBytes,
		now:      opts.Now,
	}
	if s.maxBytes <= 0 {
		s.maxBytes = DefaultMaxBytes
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s, nil
}

// Available reports whether an object store is configured.
func (s *Service) Available() bool {
	return s.objects != nil
}

// Ingest decodes a data URL, validates the image, records it and uploads
// it. The row is rolled back when the upload fails, and the object is
// removed again when the commit fails after the upload.
func (s *Service) Ingest(ctx context.Context, imageData string) (*Asset, error) {
	if !s.Available() {
		return nil, oops.Code(errutil.CodeStorageUnavailable).Errorf("asset storage is not configured")
	}

	contentType, data, err := DecodeDataURL(imageData, s.maxBytes)
	if err != nil {
		return nil, err
	}
	width, height, err := s.allow.inspect(contentType, data)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	key := StorageKey(now, uuid.New(), contentType)
	a := &Asset{
		ID:          ulid.Make(),
		StorageKey:  key,
		URL:         s.objects.URL(key),
		ContentType: contentType,
		Width:       width,
		Height:      height,
		SizeBytes:   int64(len(data)),
		CreatedAt:   now,
	}

	uploaded := false
	err = s.tx.InTransaction(ctx, func(ctx context.Context) error {
		uploaded = false
		if err := s.repo.Create(ctx, a); err != nil {
			return oops.With("operation", "record asset").Wrap(err)
		}
		if err := s.objects.Put(ctx, key, contentType, data); err != nil {
			errutil.LogErrorContext(ctx, slog.Default(), "asset upload failed", err)
			return oops.Code(errutil.CodeStorageUnavailable).
				With("storage_key", key).
				Errorf("asset storage is unavailable")
		}
		uploaded = true
		return nil
	})
	if err != nil {
		if uploaded {
			s.discard(ctx, key)
		}
		return nil, err
	}

	slog.InfoContext(ctx, "asset stored",
		"asset_id", a.ID.String(),
		"storage_key", key,
		"content_type", contentType,
		"size_bytes", a.SizeBytes)
	return a, nil
}

// discard deletes an object whose row never committed. Failures are logged
// and leave the object orphaned.
func (s *Service) discard(ctx context.Context, key string) {
	ctx = context.WithoutCancel(ctx)
	if err := s.objects.Delete(ctx, key); err != nil {
		errutil.LogErrorContext(ctx, slog.Default(), "orphaned asset cleanup failed",
			oops.With("storage_key", key).Wrap(err))
		return
	}
	slog.WarnContext(ctx, "asset removed after failed commit", "storage_key", key)
}
