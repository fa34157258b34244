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

package cli

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/NVIDIA/asset-bundle-cache/pkg/bundle"
	"github.com/NVIDIA/asset-bundle-cache/pkg/container"
	apperrors "github.com/NVIDIA/asset-bundle-cache/pkg/errors"
)

func newTestDaemon(t *testing.T) (*bundle.Registry, string) {
	t.Helper()
	reg := bundle.NewRegistry(container.NewZipLoader(), bundle.WithBaseDir(writeFixture(t)))
	if err := reg.LoadManifest(context.Background()); err != nil {
		t.Fatalf("failed to load manifest: %v", err)
	}

	mux := http.NewServeMux()
	for pattern, h := range bundle.NewHandler(reg).Routes() {
		mux.HandleFunc(pattern, h)
	}
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return reg, srv.URL
}

func TestRemoteLoadStatusUnload(t *testing.T) {
	reg, url := newTestDaemon(t)
	tmp := t.TempDir()

	loadOut := filepath.Join(tmp, "load.json")
	if _, err := run(t, "load", "--server", url, "--wait", "--format", "json", "--output", loadOut, "materials"); err != nil {
		t.Fatalf("load failed: %v", err)
	}
	var loaded bundle.BundleResponse
	readJSON(t, loadOut, &loaded)
	if !loaded.Loaded || loaded.RefCount != 1 {
		t.Errorf("load response = %+v, want loaded with one reference", loaded)
	}
	if reg.Len() != 2 {
		t.Errorf("registry holds %d records, want 2", reg.Len())
	}

	listOut := filepath.Join(tmp, "list.json")
	if _, err := run(t, "status", "--server", url, "--format", "json", "--output", listOut); err != nil {
		t.Fatalf("status failed: %v", err)
	}
	var list bundle.ListResponse
	readJSON(t, listOut, &list)
	if !list.ManifestLoaded || len(list.Bundles) != 2 {
		t.Errorf("list = %+v, want manifest loaded and two records", list)
	}

	if _, err := run(t, "status", "--server", url, "--format", "table"); err != nil {
		t.Errorf("table status failed: %v", err)
	}

	unloadOut := filepath.Join(tmp, "unload.json")
	if _, err := run(t, "unload", "--server", url, "--format", "json", "--output", unloadOut, "materials"); err != nil {
		t.Fatalf("unload failed: %v", err)
	}
	var unloaded bundle.BundleResponse
	readJSON(t, unloadOut, &unloaded)
	if unloaded.Resident {
		t.Errorf("unload response = %+v, want not resident", unloaded)
	}
	if reg.Len() != 0 {
		t.Errorf("registry holds %d records, want 0", reg.Len())
	}
}

func TestRemoteErrorsCarryCode(t *testing.T) {
	_, url := newTestDaemon(t)

	_, err := run(t, "load", "--server", url, "--dir", "../outside", "materials")
	if err == nil {
		t.Fatal("expected error for escaping bundle directory")
	}
	if !apperrors.IsCode(err, apperrors.ErrCodeInvalidRequest) {
		t.Errorf("unexpected error code %q: %v", apperrors.CodeOf(err), err)
	}
}

func TestRemoteUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := run(t, "status", "--server", url)
	if !apperrors.IsCode(err, apperrors.ErrCodeUnavailable) {
		t.Errorf("expected SERVICE_UNAVAILABLE, got %v", err)
	}
}

func TestRemoteErrorWithoutBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	_, err := run(t, "status", "--server", srv.URL)
	if !apperrors.IsCode(err, apperrors.ErrCodeInternal) {
		t.Errorf("expected INTERNAL, got %v", err)
	}
}

func TestBundlePath(t *testing.T) {
	tests := []struct {
		name, bundle, action, want string
	}{
		{"status", "ui", "", "/v1/bundles/ui"},
		{"load", "ui", "load", "/v1/bundles/ui/load"},
		{"escaped", "a b", "unload", "/v1/bundles/a%20b/unload"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := bundlePath(tt.bundle, tt.action); got != tt.want {
				t.Errorf("bundlePath() = %q, want %q", got, tt.want)
			}
		})
	}
}
