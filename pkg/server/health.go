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
	"sort"
	"time"

	"github.com/NVIDIA/asset-bundle-cache/pkg/serializer"
)

// ReadinessCheck reports why the process cannot serve traffic yet, or nil.
type ReadinessCheck func() error

// ProbeResponse is the body of /health and /ready.
type ProbeResponse struct {
	Status    string            `json:"status" yaml:"status"`
	Timestamp time.Time         `json:"timestamp" yaml:"timestamp"`
	Reason    string            `json:"reason,omitempty" yaml:"reason,omitempty"`
	Checks    map[string]string `json:"checks,omitempty" yaml:"checks,omitempty"`
}

// WithReadinessCheck registers a named check consulted by /ready.
func WithReadinessCheck(name string, check ReadinessCheck) Option {
	return func(s *Server) {
		if s.checks == nil {
			s.checks = make(map[string]ReadinessCheck)
		}
		s.checks[name] = check
	}
}

// handleHealth handles GET /health. Liveness only; checks are not run.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	serializer.RespondJSON(w, http.StatusOK, ProbeResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
	})
}

// handleReady handles GET /ready.
func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	resp := ProbeResponse{
		Status:    "ready",
		Timestamp: time.Now().UTC(),
	}

	failed := s.runChecks(&resp)
	switch {
	case !s.IsReady():
		resp.Status = "not_ready"
		resp.Reason = "startup in progress"
	case failed != "":
		resp.Status = "not_ready"
		resp.Reason = failed
	default:
		serializer.RespondJSON(w, http.StatusOK, resp)
		return
	}
	serializer.RespondJSON(w, http.StatusServiceUnavailable, resp)
}

// runChecks records every check result in resp and returns the first
// failure in name order.
func (s *Server) runChecks(resp *ProbeResponse) string {
	if len(s.checks) == 0 {
		return ""
	}

	names := make([]string, 0, len(s.checks))
	for n := range s.checks {
		names = append(names, n)
	}
	sort.Strings(names)

	resp.Checks = make(map[string]string, len(names))
	var failed string
	for _, n := range names {
		if err := s.checks[n](); err != nil {
			resp.Checks[n] = err.Error()
			if failed == "" {
				failed = n + ": " + err.Error()
			}
			continue
		}
		resp.Checks[n] = "ok"
	}
	return failed
}
