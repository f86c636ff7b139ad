// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GameVault Contributors

package api

import (
	"net/http"
	"strings"

	"github.com/samber/oops"

	"github.com/gamevault/gamevault/pkg/errutil"
)

func (h *handler) upload(w http.ResponseWriter, r *http.Request) {
	if h.assets == nil {
		h.fail(w, r, oops.Code(errutil.CodeStorageUnavailable).Errorf("asset storage is not configured"))
		return
	}

	var req struct {
		ImageData string `json:"image_data"`
	}
	if err := decodeJSON(w, r, h.maxUploadBody, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if strings.TrimSpace(req.ImageData) == "" {
		h.fail(w, r, oops.Code(errutil.CodeValidation).With("field", "image_data").Errorf("image_data cannot be empty"))
		return
	}

	a, err := h.assets.Ingest(r.Context(), req.ImageData)
	h.recordUpload(err)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, a)
}

func (h *handler) recordUpload(err error) {
	if h.metrics == nil {
		return
	}
	outcome := "stored"
	if err != nil {
		outcome = strings.ToLower(errutil.Code(err))
		if outcome == "" {
			outcome = "error"
		}
	}
	h.metrics.AssetUploads.WithLabelValues(outcome).Inc()
}
