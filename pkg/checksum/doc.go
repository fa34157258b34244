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

// Package checksum writes and verifies SHA256 manifests for bundle directories.
//
// Publish writes checksums.txt next to the bundle files before pushing; pull
// verifies it after extraction:
//
//	files, err := checksum.Collect(dir)
//	if err != nil {
//	    return err
//	}
//	if err := checksum.Generate(ctx, dir, files); err != nil {
//	    return err
//	}
//	...
//	if err := checksum.Verify(ctx, dir); err != nil {
//	    return err
//	}
//
// The checksums.txt file format is compatible with sha256sum:
//
//	sha256sum -c checksums.txt
package checksum
