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

// Package api wires bundled together: configuration, the bundle registry,
// its HTTP handlers and the HTTP server.
//
// Usage:
//
//	func main() {
//	    if err := api.Serve("/etc/bundled/bundled.yaml"); err != nil {
//	        log.Fatalf("server error: %v", err)
//	    }
//	}
//
// # Lifecycle
//
// Serve loads configuration and runs until SIGINT or SIGTERM. Two tasks run
// in an errgroup:
//   - the HTTP server (pkg/server)
//   - startup: load the bundle manifest within defaults.ManifestLoadTimeout,
//     load and pin every configured preload bundle, then mark the server
//     ready and send READY=1 to systemd
//
// A manifest load failure stops the daemon. A preload failure is logged and
// the bundle stays registered so a later request retries it.
//
// # Endpoints
//
// Application endpoints (rate limited):
//   - GET  /v1/bundles
//   - GET  /v1/bundles/{name}
//   - POST /v1/bundles/{name}/load[?wait=true&dir=sub]
//   - POST /v1/bundles/{name}/unload
//   - GET  /v1/bundles/{name}/dependencies
//   - GET  /v1/bundles/{name}/assets/{asset...}
//
// System endpoints:
//   - GET /health  - liveness
//   - GET /ready   - 200 once the manifest is loaded
//   - GET /metrics - Prometheus metrics
//
// Version information is set at build time using ldflags:
//
//	go build -ldflags="-X 'github.com/NVIDIA/asset-bundle-cache/pkg/api.version=1.0.0'"
package api
