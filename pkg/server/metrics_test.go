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
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"golang.org/x/time/rate"
)

func TestStatusClass(t *testing.T) {
	tests := map[int]string{
		200: "2xx",
		202: "2xx",
		404: "4xx",
		503: "5xx",
		42:  "42",
	}
	for code, want := range tests {
		if got := statusClass(code); got != want {
			t.Errorf("statusClass(%d) = %q, want %q", code, got, want)
		}
	}
}

func TestMetricsMiddleware_LabelsByPattern(t *testing.T) {
	s := newTestServer(rate.NewLimiter(100, 200))
	const pattern = "GET /v1/metrics-test/{name}"

	mux := http.NewServeMux()
	mux.HandleFunc(pattern, s.metricsMiddleware(func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("name") == "missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))

	ok := httpRequestsTotal.WithLabelValues(http.MethodGet, pattern, "2xx")
	notFound := httpRequestsTotal.WithLabelValues(http.MethodGet, pattern, "4xx")
	beforeOK, beforeNotFound := testutil.ToFloat64(ok), testutil.ToFloat64(notFound)

	for _, target := range []string{"/v1/metrics-test/ui", "/v1/metrics-test/fonts", "/v1/metrics-test/missing"} {
		mux.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, target, nil))
	}

	if got := testutil.ToFloat64(ok) - beforeOK; got != 2 {
		t.Errorf("2xx count increased by %v, want 2", got)
	}
	if got := testutil.ToFloat64(notFound) - beforeNotFound; got != 1 {
		t.Errorf("4xx count increased by %v, want 1", got)
	}
	if got := testutil.ToFloat64(httpRequestsInFlight); got != 0 {
		t.Errorf("in-flight gauge = %v, want 0", got)
	}
}
