// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GameVault Contributors

package asset

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/require"
)

// encodeImage returns a w×h image encoded as contentType.
func encodeImage(t *testing.T, contentType string, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})

	var buf bytes.Buffer
	switch contentType {
	case "image/png":
		require.NoError(t, png.Encode(&buf, img))
	case "image/jpeg":
		require.NoError(t, jpeg.Encode(&buf, img, nil))
	case "image/gif":
		require.NoError(t, gif.Encode(&buf, img, nil))
	default:
		t.Fatalf("unsupported test content type %s", contentType)
	}
	return buf.Bytes()
}

func dataURL(contentType string, data []byte) string {
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
