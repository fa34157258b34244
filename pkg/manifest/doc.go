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

// Package manifest parses and queries the bundle dependency manifest.
//
// The manifest is a YAML document shipped as an asset inside the manifest
// bundle. It lists every bundle and its direct dependencies:
//
//	apiVersion: bundles.nvidia.com/v1alpha1
//	kind: BundleManifest
//	bundles:
//	  - name: characters
//	    dependencies: [shared-textures, shaders]
//	  - name: shared-textures
//	    dependencies: [shaders]
//	  - name: shaders
//
// Parse validates the document (undeclared dependencies, duplicates, cycles)
// and precomputes the transitive closure of every bundle, so AllDependencies
// is a map lookup:
//
//	m, err := manifest.Parse(data)
//	deps := m.AllDependencies("characters")
//	// [shaders shared-textures]
//
// A Manifest is immutable after Parse and safe for concurrent use.
package manifest
