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

// Package container defines how bundle containers are opened, read and
// released, and ships a zip-archive implementation.
//
// A bundle container is an opaque archive holding named assets. The bundle
// cache never inspects container bytes itself; it calls a Loader:
//
//	loader := container.NewZipLoader()
//	h, err := loader.Open(ctx, "/data/bundles/characters")
//	if err != nil {
//	    return err
//	}
//	defer loader.Release(h, false)
//
//	raw, err := h.LoadAsset(ctx, "hero.yaml")
//
// Typed decoding is layered on top of raw asset bytes:
//
//	hero, err := container.Decode[Hero]("hero.yaml", raw)
//
// # Asset Lookup
//
// ZipHandle resolves asset names in order: exact entry path, case-insensitive
// entry path, case-insensitive base name, and case-insensitive base name
// without extension. The first match wins; ambiguous base-name matches are
// resolved by archive order.
//
// # Paths
//
// Resolver joins a base directory, an optional sub-directory and a bundle
// name, rejecting names that would escape the base directory.
package container
