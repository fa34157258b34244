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

package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestNew_StartsNotReady(t *testing.T) {
	s := New(WithHandler(map[string]http.HandlerFunc{
		"GET /v1/bundles": func(w http.ResponseWriter, _ *http.Request) {},
	}))

	if s.config == nil || s.httpServer == nil || s.rateLimiter == nil {
		t.Fatalf("server not fully initialized: %+v", s)
	}
	if s.IsReady() {
		t.Error("expected new server to start not ready")
	}
}

func TestProbes(t *testing.T) {
	manifestErr := errors.New("manifest not loaded")
	var manifestLoaded bool

	s := New(WithReadinessCheck("manifest", func() error {
		if !manifestLoaded {
			return manifestErr
		}
		return nil
	}))
	h := s.Handler()

	probe := func(target string) (int, ProbeResponse) {
		t.Helper()
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
		var resp ProbeResponse
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to decode %s: %v", target, err)
		}
		return w.Code, resp
	}

	if code, resp := probe("/health"); code != http.StatusOK || resp.Status != "healthy" {
		t.Errorf("/health = %d %+v, want 200 healthy", code, resp)
	}

	code, resp := probe("/ready")
	if code != http.StatusServiceUnavailable || resp.Reason != "startup in progress" {
		t.Errorf("/ready before SetReady = %d %+v", code, resp)
	}

	s.SetReady(true)
	code, resp = probe("/ready")
	if code != http.StatusServiceUnavailable {
		t.Errorf("/ready with failing check = %d, want 503", code)
	}
	if resp.Checks["manifest"] != manifestErr.Error() {
		t.Errorf("checks = %v, want manifest failure", resp.Checks)
	}
	if !strings.HasPrefix(resp.Reason, "manifest: ") {
		t.Errorf("reason = %q, want manifest prefix", resp.Reason)
	}

	manifestLoaded = true
	code, resp = probe("/ready")
	if code != http.StatusOK || resp.Status != "ready" || resp.Checks["manifest"] != "ok" {
		t.Errorf("/ready = %d %+v, want 200 ready", code, resp)
	}
}

func TestRateLimiting(t *testing.T) {
	routes := map[string]http.HandlerFunc{
		"/test": func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		},
	}

	// Create a custom config with very restrictive rate limiting
	cfg := NewConfig()
	cfg.RateLimit = 1      // 1 req/sec
	cfg.RateLimitBurst = 1 // burst of 1
	cfg.Handlers = routes

	s := New(WithConfig(cfg))

	handler := s.withMiddleware(s.config.Handlers["/test"])

	// First request should succeed
	req1 := httptest.NewRequest(http.MethodGet, "/test", nil)
	w1 := httptest.NewRecorder()
	handler(w1, req1)

	if w1.Code != http.StatusOK {
		t.Errorf("expected first request to succeed with status 200, got %d", w1.Code)
	}

	// Second request should be rate limited (bucket is empty)
	req2 := httptest.NewRequest(http.MethodGet, "/test", nil)
	w2 := httptest.NewRecorder()
	handler(w2, req2)

	if w2.Code != http.StatusTooManyRequests {
		t.Errorf("expected rate limit error with status 429, got %d", w2.Code)
	}

	if w2.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header to be set")
	}
}

func TestGracefulShutdown(t *testing.T) {
	cfg := NewConfig()
	cfg.Address = "127.0.0.1"
	cfg.Port = 18080 // Use a different port to avoid conflicts
	cfg.ShutdownTimeout = 100 * time.Millisecond

	s := New(WithConfig(cfg))
	s.SetReady(true)

	ctx, cancel := context.WithCancel(context.TODO())
	defer cancel()

	// Start server in background
	errChan := make(chan error, 1)
	go func() {
		errChan <- s.Run(ctx)
	}()

	// Wait for server to start
	time.Sleep(50 * time.Millisecond)

	// Cancel context to trigger shutdown
	cancel()

	// Wait for shutdown to complete
	select {
	case err := <-errChan:
		if err != nil {
			t.Errorf("expected clean shutdown, got error: %v", err)
		}
	case <-time.After(time.Second):
		t.Error("shutdown timed out")
	}

	if s.IsReady() {
		t.Error("expected server to be marked not ready after shutdown")
	}
}

func TestRoutes(t *testing.T) {
	routes := map[string]http.HandlerFunc{
		"GET /v1/items/{id}": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(r.PathValue("id")))
		},
	}

	s := New(WithHandler(routes))
	h := s.Handler()

	tests := []struct {
		name       string
		method     string
		target     string
		wantStatus int
		wantBody   string
	}{
		{"api route with path value", http.MethodGet, "/v1/items/42", http.StatusOK, "42"},
		{"api route wrong method", http.MethodPost, "/v1/items/42", http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED"},
		{"health", http.MethodGet, "/health", http.StatusOK, "healthy"},
		{"health wrong method", http.MethodPost, "/health", http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED"},
		{"root", http.MethodGet, "/", http.StatusOK, "GET /v1/items/{id}"},
		{"ready before SetReady", http.MethodGet, "/ready", http.StatusServiceUnavailable, "not_ready"},
		{"metrics", http.MethodGet, "/metrics", http.StatusOK, "bundlecache_http_requests_total"},
		{"unknown route", http.MethodGet, "/nope", http.StatusNotFound, "NOT_FOUND"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.target, nil)
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, w.Code)
			}
			if tt.wantBody != "" && !strings.Contains(w.Body.String(), tt.wantBody) {
				t.Errorf("expected body to contain %q, got %q", tt.wantBody, w.Body.String())
			}
		})
	}
}

func TestUnmatchedMethodSetsAllow(t *testing.T) {
	routes := map[string]http.HandlerFunc{
		"POST /v1/items/{id}/load": func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusAccepted)
		},
	}
	h := New(WithHandler(routes)).Handler()

	req := httptest.NewRequest(http.MethodGet, "/v1/items/7/load", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected status %d, got %d", http.StatusMethodNotAllowed, w.Code)
	}
	if got := w.Header().Get("Allow"); got != http.MethodPost {
		t.Errorf("expected Allow %q, got %q", http.MethodPost, got)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Errorf("expected JSON error body, got content type %q", ct)
	}
}

func TestDefaultRootHandler(t *testing.T) {
	routes := map[string]http.HandlerFunc{
		"GET /v1/bundles": func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		},
	}

	s := New(WithName("bundled"), WithVersion("1.2.3"), WithHandler(routes))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	s.handleDefault(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	var resp struct {
		Name    string   `json:"name"`
		Version string   `json:"version"`
		Routes  []string `json:"routes"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}

	if resp.Name != "bundled" || resp.Version != "1.2.3" {
		t.Errorf("unexpected identity %s/%s", resp.Name, resp.Version)
	}
	if len(resp.Routes) == 0 || resp.Routes[0] != "GET /v1/bundles" {
		t.Errorf("expected routes to start with GET /v1/bundles, got %v", resp.Routes)
	}
}

func TestOptions(t *testing.T) {
	cfg := NewConfig()
	cfg.Name = "from-config"
	cfg.RateLimit = 500

	s := New(
		WithConfig(cfg),
		WithName("bundled"),
		WithAddress("127.0.0.1", 9191),
		WithRateLimit(5, 10),
		WithHandler(map[string]http.HandlerFunc{"GET /a": func(http.ResponseWriter, *http.Request) {}}),
		WithHandler(map[string]http.HandlerFunc{"GET /b": func(http.ResponseWriter, *http.Request) {}}),
	)

	if s.config.Name != "bundled" {
		t.Errorf("name = %q, want bundled", s.config.Name)
	}
	if s.Addr() != "127.0.0.1:9191" {
		t.Errorf("address = %q, want 127.0.0.1:9191", s.Addr())
	}
	if s.config.RateLimit != 5 || s.rateLimiter.Burst() != 10 {
		t.Errorf("rate limit = %v/%d, want 5/10", s.config.RateLimit, s.rateLimiter.Burst())
	}
	for _, p := range []string{"GET /a", "GET /b"} {
		if _, ok := s.config.Handlers[p]; !ok {
			t.Errorf("handler %s not registered", p)
		}
	}
}

func TestDefaults(t *testing.T) {
	s := New(WithConfig(nil))
	if s.config.Name != "server" {
		t.Errorf("default name = %q, want server", s.config.Name)
	}
}
