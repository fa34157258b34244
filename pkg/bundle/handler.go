// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package bundle

import (
	"context"
	"log/slog"
	"mime"
	"net/http"
	"path"
	"strconv"
	"time"

	"github.com/NVIDIA/asset-bundle-cache/pkg/defaults"
	apperrors "github.com/NVIDIA/asset-bundle-cache/pkg/errors"
	"github.com/NVIDIA/asset-bundle-cache/pkg/serializer"
	"github.com/NVIDIA/asset-bundle-cache/pkg/server"
)

// Handler exposes a Registry over HTTP.
type Handler struct {
	registry *Registry
}

// NewHandler returns HTTP handlers backed by r.
func NewHandler(r *Registry) *Handler {
	return &Handler{registry: r}
}

// Routes returns the handler's routes keyed by ServeMux pattern.
func (h *Handler) Routes() map[string]http.HandlerFunc {
	return map[string]http.HandlerFunc{
		"GET /v1/bundles":                          h.HandleList,
		"GET /v1/bundles/{name}":                   h.HandleStatus,
		"POST /v1/bundles/{name}/load":             h.HandleLoad,
		"POST /v1/bundles/{name}/unload":           h.HandleUnload,
		"GET /v1/bundles/{name}/dependencies":      h.HandleDependencies,
		"GET /v1/bundles/{name}/assets/{asset...}": h.HandleAsset,
	}
}

// ListResponse is the body of GET /v1/bundles.
type ListResponse struct {
	ManifestLoaded bool     `json:"manifestLoaded" yaml:"manifestLoaded"`
	Declared       []string `json:"declared,omitempty" yaml:"declared,omitempty"`
	Bundles        []Status `json:"bundles" yaml:"bundles"`
}

// BundleResponse describes one bundle and its loading state.
type BundleResponse struct {
	Status
	Resident        bool     `json:"resident" yaml:"resident"`
	Dependencies    []string `json:"dependencies,omitempty" yaml:"dependencies,omitempty"`
	IsLoadingBundle bool     `json:"isLoadingBundle" yaml:"isLoadingBundle"`
	IsLoadingAsset  bool     `json:"isLoadingAsset" yaml:"isLoadingAsset"`
	IsLoading       bool     `json:"isLoading" yaml:"isLoading"`
}

// DependenciesResponse is the body of GET /v1/bundles/{name}/dependencies.
type DependenciesResponse struct {
	Bundle       string   `json:"bundle" yaml:"bundle"`
	Dependencies []string `json:"dependencies" yaml:"dependencies"`
}

func (h *Handler) describe(name string) BundleResponse {
	resp := BundleResponse{
		Status:          Status{Name: name},
		IsLoadingBundle: h.registry.IsLoadingBundle(name),
		IsLoadingAsset:  h.registry.IsLoadingAsset(name),
		IsLoading:       h.registry.IsLoading(name),
	}
	if st, ok := h.registry.Status(name); ok {
		resp.Status = st
		resp.Resident = true
	}
	if m := h.registry.Manifest(); m != nil {
		resp.Dependencies = m.AllDependencies(name)
	}
	return resp
}

// HandleList handles GET /v1/bundles.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	resp := ListResponse{
		ManifestLoaded: h.registry.ManifestLoaded(),
		Bundles:        h.registry.Statuses(),
	}
	if m := h.registry.Manifest(); m != nil {
		resp.Declared = m.Names()
	}
	serializer.RespondJSON(w, http.StatusOK, resp)
}

// HandleStatus handles GET /v1/bundles/{name}.
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	serializer.RespondJSON(w, http.StatusOK, h.describe(r.PathValue("name")))
}

// HandleLoad handles POST /v1/bundles/{name}/load.
//
// Query parameters:
//   - dir: sub-directory of the base directory holding the bundle files
//   - wait: when true, respond after the bundle and its dependencies are loaded
func (h *Handler) HandleLoad(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	q := r.URL.Query()

	wait := false
	if v := q.Get("wait"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			server.WriteError(w, r, http.StatusBadRequest, apperrors.ErrCodeInvalidRequest,
				"Invalid wait parameter", false, map[string]any{
					"wait": v,
				})
			return
		}
		wait = parsed
	}

	if err := h.registry.LoadBundleIn(q.Get("dir"), name); err != nil {
		server.WriteErrorFromErr(w, r, err, "Failed to load bundle", nil)
		return
	}

	if !wait {
		serializer.RespondJSON(w, http.StatusAccepted, h.describe(name))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), defaults.BundleWaitTimeout)
	defer cancel()

	if err := h.registry.WaitBundle(ctx, name); err != nil {
		server.WriteErrorFromErr(w, r, err, "Failed to load bundle", map[string]any{
			"bundle": name,
		})
		return
	}
	serializer.RespondJSON(w, http.StatusOK, h.describe(name))
}

// HandleUnload handles POST /v1/bundles/{name}/unload.
func (h *Handler) HandleUnload(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if !h.registry.ManifestLoaded() {
		server.WriteError(w, r, http.StatusServiceUnavailable, apperrors.ErrCodeUnavailable,
			"Manifest not loaded", true, map[string]any{
				"bundle": name,
			})
		return
	}
	h.registry.UnloadBundle(name)
	serializer.RespondJSON(w, http.StatusOK, h.describe(name))
}

// HandleDependencies handles GET /v1/bundles/{name}/dependencies.
func (h *Handler) HandleDependencies(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	deps, err := h.registry.Dependencies(name)
	if err != nil {
		server.WriteErrorFromErr(w, r, err, "Failed to resolve dependencies", nil)
		return
	}
	serializer.RespondJSON(w, http.StatusOK, DependenciesResponse{
		Bundle:       name,
		Dependencies: deps,
	})
}

// HandleAsset handles GET /v1/bundles/{name}/assets/{asset...} and returns
// the raw asset bytes.
func (h *Handler) HandleAsset(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), defaults.AssetWaitTimeout)
	defer cancel()

	name := r.PathValue("name")
	asset := r.PathValue("asset")
	if asset == "" {
		server.WriteError(w, r, http.StatusBadRequest, apperrors.ErrCodeInvalidRequest,
			"Asset name is required", false, map[string]any{
				"bundle": name,
			})
		return
	}

	start := time.Now()
	data, err := h.registry.LoadAssetBytes(ctx, name, asset)
	if err != nil {
		server.WriteErrorFromErr(w, r, err, "Failed to load asset", nil)
		return
	}

	contentType := mime.TypeByExtension(path.Ext(asset))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		slog.Warn("asset response write failed",
			"requestID", server.RequestID(r.Context()),
			"bundle", name,
			"asset", asset,
			"error", err,
		)
		return
	}

	slog.Debug("asset served",
		"requestID", server.RequestID(r.Context()),
		"bundle", name,
		"asset", asset,
		"bytes", len(data),
		"duration", time.Since(start),
	)
}
