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

package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NVIDIA/asset-bundle-cache/pkg/bundle"
	"github.com/NVIDIA/asset-bundle-cache/pkg/config"
	"github.com/NVIDIA/asset-bundle-cache/pkg/container"
	apperrors "github.com/NVIDIA/asset-bundle-cache/pkg/errors"
)

const testManifest = `apiVersion: bundles.nvidia.com/v1alpha1
kind: BundleManifest
bundles:
  - name: fonts
  - name: ui
    dependencies: [fonts]
  - name: broken
`

func testConfig(t *testing.T, preload ...string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	container.WriteTestBundle(t, dir, "bundles", map[string]string{"manifest.yaml": testManifest})
	container.WriteTestBundle(t, dir, "fonts", map[string]string{"mono.json": `{"size":12}`})
	container.WriteTestBundle(t, dir, "ui", map[string]string{"menu.yaml": "title: Main\n"})

	cfg := config.Default()
	cfg.BaseDir = dir
	cfg.Preload = preload
	cfg.Server.Port = 0
	return cfg
}

type notifications struct {
	mu     sync.Mutex
	states []string
}

func (n *notifications) record(state string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.states = append(n.states, state)
}

func (n *notifications) get() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.states...)
}

func newTestDaemon(t *testing.T, cfg *config.Config) (*Daemon, *notifications) {
	t.Helper()
	d := newDaemon(cfg, container.NewZipLoader())
	n := &notifications{}
	d.notify = n.record
	return d, n
}

func TestConstants(t *testing.T) {
	assert.Equal(t, "bundled", name)
	assert.Equal(t, "dev", versionDefault)
	assert.NotEmpty(t, version)
	assert.NotEmpty(t, commit)
	assert.NotEmpty(t, date)
}

func TestDaemon_StartPreloads(t *testing.T) {
	d, n := newTestDaemon(t, testConfig(t, "ui"))

	require.NoError(t, d.start(context.Background()))

	assert.True(t, d.Server().IsReady())
	assert.Equal(t, []string{daemon.SdNotifyReady}, n.get())
	assert.True(t, d.Registry().ManifestLoaded())

	st, ok := d.Registry().Status("ui")
	require.True(t, ok)
	assert.Equal(t, 1, st.RefCount)
	assert.True(t, st.Loaded)

	fonts, ok := d.Registry().Status("fonts")
	require.True(t, ok)
	assert.Equal(t, 1, fonts.RefCount, "dependency of a preload is pinned too")
}

func TestDaemon_PreloadFailureIsNotFatal(t *testing.T) {
	d, _ := newTestDaemon(t, testConfig(t, "broken", "../escape", "fonts"))

	require.NoError(t, d.start(context.Background()))
	assert.True(t, d.Server().IsReady())

	broken, ok := d.Registry().Status("broken")
	require.True(t, ok, "failed preload stays registered")
	assert.NotEmpty(t, broken.Error)

	_, ok = d.Registry().Status("../escape")
	assert.False(t, ok, "rejected name creates no record")

	fonts, ok := d.Registry().Status("fonts")
	require.True(t, ok)
	assert.True(t, fonts.Loaded)
}

func TestDaemon_StartFailsWithoutManifest(t *testing.T) {
	cfg := testConfig(t)
	cfg.ManifestBundle = "missing"
	d, n := newTestDaemon(t, cfg)

	err := d.start(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeUnavailable), "got %v", err)
	assert.False(t, d.Server().IsReady())
	assert.Empty(t, n.get())
}

func TestDaemon_RunReturnsStartupError(t *testing.T) {
	cfg := testConfig(t)
	cfg.ManifestBundle = "missing"
	d, n := newTestDaemon(t, cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := d.Run(ctx)
	require.Error(t, err)
	assert.Equal(t, []string{daemon.SdNotifyStopping}, n.get())
}

func TestDaemon_RunStopsOnCancel(t *testing.T) {
	d, n := newTestDaemon(t, testConfig(t))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	require.Eventually(t, d.Server().IsReady, 5*time.Second, 10*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.Equal(t, []string{daemon.SdNotifyReady, daemon.SdNotifyStopping}, n.get())
}

func TestDaemon_Routes(t *testing.T) {
	d, _ := newTestDaemon(t, testConfig(t))
	h := d.Server().Handler()

	// not ready before the manifest loads
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	require.NoError(t, d.start(context.Background()))

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"manifest":"ok"`)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/v1/bundles/ui/load?wait=true", nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/bundles/ui/assets/menu.yaml", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "title: Main\n", w.Body.String())

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/bundles", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var list bundle.ListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.True(t, list.ManifestLoaded)
	assert.Len(t, list.Bundles, 2)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "bundlecache_")
}

func TestServe_InvalidConfig(t *testing.T) {
	t.Setenv(config.EnvPort, "not-a-port")
	err := Serve("")
	require.Error(t, err)
	assert.False(t, errors.Is(err, context.Canceled))
}
