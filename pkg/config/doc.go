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

// Package config loads bundled configuration.
//
// Configuration comes from three layers, later layers winning:
//
//  1. Defaults from pkg/defaults
//  2. A YAML or JSON file (local path or http(s) URL)
//  3. Environment variables
//
// Command line flags are applied by the caller on the returned Config.
//
// Example file:
//
//	baseDir: /var/lib/bundles
//	manifestBundle: bundles
//	manifestAsset: manifest.yaml
//	logLevel: info
//	preload:
//	  - ui
//	server:
//	  address: 0.0.0.0
//	  port: 8080
//	  rateLimit: 100
//	  rateLimitBurst: 200
//
// Environment overrides:
//
//	BUNDLE_BASE_DIR           baseDir
//	BUNDLE_MANIFEST           manifestBundle
//	PORT                      server.port
//	LOG_LEVEL                 logLevel
//
// SHUTDOWN_TIMEOUT_SECONDS is read by pkg/server directly.
package config
