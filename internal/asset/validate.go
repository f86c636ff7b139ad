// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GameVault Contributors

package asset

import (
	"bytes"
	"image"
	// Register decoders for image.DecodeConfig.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"strings"

	"github.com/gobwas/glob"
	"github.com/samber/oops"

	"github.com/gamevault/gamevault/pkg/errutil"
)

// DefaultAllowedTypes are the media types accepted when none are configured.
var DefaultAllowedTypes = []string{"image/png", "image/jpeg", "image/gif"}

// Allowlist matches media types against glob patterns such as "image/*".
type Allowlist struct {
	patterns []string
	globs    []glob.Glob
}

// NewAllowlist compiles patterns. An empty list falls back to
// DefaultAllowedTypes.
func NewAllowlist(patterns []string) (*Allowlist, error) {
	if len(patterns) == 0 {
		patterns = DefaultAllowedTypes
	}
	a := &Allowlist{patterns: patterns}
	for _, p := range patterns {
		g, err := glob.Compile(strings.ToLower(p), '/')
		if err != nil {
			return nil, oops.Code("ASSET_INVALID_ALLOWLIST").With("pattern", p).Wrap(err)
		}
		a.globs = append(a.globs, g)
	}
	return a, nil
}

// Allows reports whether mediaType matches any pattern.
func (a *Allowlist) Allows(mediaType string) bool {
	mediaType = strings.ToLower(mediaType)
	for _, g := range a.globs {
		if g.Match(mediaType) {
			return true
		}
	}
	return false
}

// Patterns returns the configured patterns.
func (a *Allowlist) Patterns() []string {
	return append([]string(nil), a.patterns...)
}

// inspect checks declared against the allowlist and the sniffed type of
// data, then reads the image dimensions.
func (a *Allowlist) inspect(declared string, data []byte) (width, height int, err error) {
	if !a.Allows(declared) {
		return 0, 0, oops.Code(errutil.CodeUnsupportedMediaType).
			With("declared", declared).
			Errorf("media type %s is not allowed", declared)
	}
	sniffed := sniff(data)
	if sniffed != declared {
		return 0, 0, oops.Code(errutil.CodeUnsupportedMediaType).
			With("declared", declared).
			With("sniffed", sniffed).
			Errorf("content does not match declared type %s", declared)
	}

	if _, ok := extensions[sniffed]; !ok {
		return 0, 0, oops.Code(errutil.CodeUnsupportedMediaType).
			With("declared", declared).
			Errorf("media type %s cannot be decoded", declared)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, oops.Code(errutil.CodeValidation).
			With("content_type", declared).
			Wrapf(err, "unreadable image header")
	}
	return cfg.Width, cfg.Height, nil
}

// sniff returns the detected media type without parameters.
func sniff(data []byte) string {
	detected := http.DetectContentType(data)
	if i := strings.IndexByte(detected, ';'); i >= 0 {
		detected = detected[:i]
	}
	return strings.TrimSpace(detected)
}
