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

package defaults

import "time"

// Naming defaults for the on-disk layout.
const (
	// BaseDir is the default directory holding bundle files.
	BaseDir = "bundles"

	// ManifestBundle is the default name of the container holding the manifest.
	ManifestBundle = "bundles"

	// ManifestAsset is the default name of the manifest asset inside ManifestBundle.
	ManifestAsset = "manifest.yaml"
)

// Server defaults for bundled.
const (
	// ServerPort is the default listen port.
	ServerPort = 8080

	// ServerRateLimit is the sustained request rate in requests per second.
	ServerRateLimit = 100

	// ServerRateLimitBurst is the token bucket size.
	ServerRateLimitBurst = 200
)

// Loader timeouts for bundle cache operations.
const (
	// ManifestLoadTimeout bounds the startup manifest load.
	ManifestLoadTimeout = 30 * time.Second

	// BundleWaitTimeout bounds how long a caller waits for a bundle and its
	// dependencies to finish loading.
	BundleWaitTimeout = 45 * time.Second

	// AssetWaitTimeout bounds how long a caller waits for one asset load,
	// including the wait for its bundle.
	AssetWaitTimeout = 30 * time.Second
)

// Server timeouts for HTTP server configuration.
const (
	// ServerReadTimeout is the maximum duration for reading request headers.
	ServerReadTimeout = 10 * time.Second

	// ServerReadHeaderTimeout prevents slow header attacks.
	ServerReadHeaderTimeout = 5 * time.Second

	// ServerWriteTimeout is the maximum duration for writing a response.
	ServerWriteTimeout = 60 * time.Second

	// ServerIdleTimeout is the maximum duration to wait for the next request.
	ServerIdleTimeout = 120 * time.Second

	// ServerShutdownTimeout is the maximum duration for graceful shutdown.
	ServerShutdownTimeout = 30 * time.Second
)

// HTTP client timeouts for talking to a running daemon.
const (
	// HTTPClientTimeout is the total timeout for one client request.
	HTTPClientTimeout = 30 * time.Second

	// HTTPConnectTimeout bounds TCP connection establishment.
	HTTPConnectTimeout = 5 * time.Second

	// HTTPKeepAlive is the TCP keep-alive period.
	HTTPKeepAlive = 30 * time.Second

	// HTTPTLSHandshakeTimeout bounds the TLS handshake.
	HTTPTLSHandshakeTimeout = 10 * time.Second

	// HTTPResponseHeaderTimeout bounds the wait for response headers.
	HTTPResponseHeaderTimeout = 10 * time.Second

	// HTTPIdleConnTimeout is how long idle connections stay pooled.
	HTTPIdleConnTimeout = 90 * time.Second
)

// Registry timeouts for OCI operations.
const (
	// OCIPushTimeout is the timeout for publishing a bundle directory.
	OCIPushTimeout = 5 * time.Minute

	// OCIPullTimeout is the timeout for pulling a bundle directory.
	OCIPullTimeout = 5 * time.Minute
)
