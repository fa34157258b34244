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

// Package defaults provides centralized configuration constants for the
// bundle cache.
//
// This package defines timeout values, naming defaults and other configuration
// defaults used across the codebase. Centralizing these values ensures
// consistency and makes tuning easier.
//
// # Timeout Categories
//
// Timeouts are organized by component:
//
//   - Loader timeouts: How long callers wait on manifest, bundle and asset loads
//   - HTTP client timeouts: For bundlectl talking to a running daemon
//   - Server timeouts: For HTTP server configuration
//   - Registry timeouts: For OCI publish/pull operations
//
// # Usage
//
// Import and use constants directly:
//
//	import "github.com/NVIDIA/asset-bundle-cache/pkg/defaults"
//
//	ctx, cancel := context.WithTimeout(ctx, defaults.AssetWaitTimeout)
//	defer cancel()
//
// # Timeout Guidelines
//
// Physical bundle loads are never aborted; wait timeouts only bound how long
// a caller blocks. Wait timeouts used by HTTP handlers stay below the
// server write timeout.
package defaults
