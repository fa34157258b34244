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

// Package bundle implements the reference-counted bundle cache.
//
// A Registry maps bundle names to Records. LoadBundle acquires a reference
// on a bundle and on every bundle it transitively depends on, according to
// the manifest loaded by LoadManifest. The first reference on a Record
// starts its physical load in the background; later references reuse it.
// UnloadBundle drops the same references, and a Record whose count reaches
// zero is removed from the Registry and its container released.
//
// Basic usage:
//
//	reg := bundle.NewRegistry(container.NewZipLoader(), bundle.WithBaseDir("bundles"))
//	if err := reg.LoadManifest(ctx); err != nil {
//		return err
//	}
//	if err := reg.LoadBundle("characters"); err != nil {
//		return err
//	}
//	defer reg.UnloadBundle("characters")
//
//	hero, err := bundle.LoadAsset[Hero](ctx, reg, "characters", "hero.yaml")
//
// LoadAsset waits for the bundle's physical load, counts itself as a pending
// asset load for the duration, and returns a NOT_FOUND error for bundles
// that were never loaded.
//
// IsLoadingBundle, IsLoadingAsset and IsLoading report in-progress work.
// IsLoadingBundle and IsLoading return true until the manifest has been
// loaded; IsLoadingAsset only reads the named record's pending asset count.
//
// Concurrency:
//
// Registry and Record are safe for concurrent use. The reference count
// check and increment happen under the record lock, so concurrent callers
// never start two physical loads of the same record. Physical loads are
// never cancelled; contexts passed to LoadAsset and WaitBundle bound only
// the caller's wait.
//
// A container whose reference count drops to zero while asset loads are
// still reading it stays open until the last of them finishes.
//
// HTTP:
//
// Handler exposes the registry as a JSON API under /v1/bundles.
package bundle
