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

// Package server provides the HTTP server used by the bundle cache daemon.
//
// The server wraps caller-supplied handlers in a fixed middleware chain and
// adds system endpoints:
//
//   - Prometheus RED metrics per route pattern
//   - API version negotiation (X-API-Version)
//   - Request ID tracking (X-Request-Id)
//   - Panic recovery
//   - Token bucket rate limiting (golang.org/x/time/rate)
//   - Request logging (debug, warn for 5xx)
//
// # Usage
//
//	s := server.New(
//	    server.WithName("bundled"),
//	    server.WithVersion(version),
//	    server.WithHandler(map[string]http.HandlerFunc{
//	        "GET /v1/bundles": h.HandleList,
//	    }),
//	)
//	s.SetReady(true)
//	if err := s.Run(ctx); err != nil {
//	    return err
//	}
//
// Handler keys are net/http ServeMux patterns, so method and wildcard
// segments ("GET /v1/bundles/{name}") are supported.
//
// # System Endpoints
//
//   - GET /health: liveness, always 200
//   - GET /ready: 200 once SetReady(true) is called and every check
//     registered with WithReadinessCheck passes, 503 otherwise
//   - GET /metrics: Prometheus exposition
//   - GET /: service name, version and route list
//
// # Errors
//
// Handlers report failures with WriteError or WriteErrorFromErr. The latter
// maps pkg/errors codes to HTTP status with HTTPStatusFromCode:
//
//	{
//	  "code": "NOT_FOUND",
//	  "message": "bundle not loaded",
//	  "details": {"bundle": "characters"},
//	  "requestId": "550e8400-e29b-41d4-a716-446655440000",
//	  "timestamp": "2025-01-01T00:00:00Z",
//	  "retryable": false
//	}
//
// # Configuration
//
// Environment variables:
//   - PORT: listen port (default 8080)
//   - SHUTDOWN_TIMEOUT_SECONDS: graceful shutdown timeout (default 30)
package server
