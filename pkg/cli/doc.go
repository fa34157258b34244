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

// Package cli implements bundlectl, the command-line interface for the
// asset bundle cache.
//
// # Commands
//
// Local commands work directly on a bundle directory:
//
//	bundlectl --base-dir ./bundles deps ui
//	bundlectl --base-dir ./bundles assets ui -t table
//	bundlectl --base-dir ./bundles get ui textures/logo.png -o logo.png
//
// Remote commands talk to a running bundled daemon (--server or BUNDLED_URL):
//
//	bundlectl status
//	bundlectl load ui --wait
//	bundlectl unload ui
//
// Distribution commands move bundle directories through OCI registries:
//
//	bundlectl publish --dir ./bundles oci://ghcr.io/nvidia/game-bundles:v1
//	bundlectl pull --dir /var/lib/bundles oci://ghcr.io/nvidia/game-bundles:v1
//
// serve runs the daemon in the foreground with the same configuration
// handling as the bundled binary.
//
// # Output
//
// Structured output supports yaml (default), json and table via --format,
// written to stdout or --output.
package cli
