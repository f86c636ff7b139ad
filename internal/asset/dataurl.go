// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GameVault Contributors

package asset

import (
	"encoding/base64"
	"mime"
	"strings"

	"github.com/samber/oops"

	"github.com/gamevault/gamevault/pkg/errutil"
)

// DecodeDataURL parses data:<mime>;base64,<payload> and returns the declared
// media type and decoded bytes. Payloads over maxBytes are rejected.
func DecodeDataURL(dataURL string, maxBytes int64) (string, []byte, error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(dataURL), "data:")
	if !ok {
		return "", nil, invalidDataURL("missing data: prefix")
	}
	header, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, invalidDataURL("missing payload separator")
	}
	declared, ok := strings.CutSuffix(header, ";base64")
	if !ok {
		return "", nil, invalidDataURL("payload must be base64")
	}
	mediaType, _, err := mime.ParseMediaType(declared)
	if err != nil {
		return "", nil, invalidDataURL("invalid media type")
	}

	// DecodedLen overestimates by at most two padding bytes.
	if int64(base64.StdEncoding.DecodedLen(len(payload))) > maxBytes+2 {
		return "", nil, tooLarge(maxBytes)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, oops.Code(errutil.CodeValidation).Wrapf(err, "invalid base64 payload")
	}
	if int64(len(data)) > maxBytes {
		return "", nil, tooLarge(maxBytes)
	}
	if len(data) == 0 {
		return "", nil, invalidDataURL("empty payload")
	}
	return mediaType, data, nil
}

func invalidDataURL(reason string) error {
	return oops.Code(errutil.CodeValidation).
		With("reason", reason).
		Errorf("invalid data URL: %s", reason)
}

func tooLarge(maxBytes int64) error {
	return oops.Code(errutil.CodeValidation).
		With("max_bytes", maxBytes).
		Errorf("image exceeds %d bytes", maxBytes)
}
