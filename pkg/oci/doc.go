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

// Package oci distributes bundle directories as OCI artifacts using ORAS.
//
// A bundle directory (the bundle container files plus the manifest bundle)
// is packed into a single gzip tar layer under an OCI 1.1 manifest with
// artifact type "application/vnd.nvidia.bundles.artifact". A checksums.txt
// file is written into the directory before packing and verified after
// pulling.
//
// Targets are either registry references or local OCI image layouts:
//
//	ref, err := oci.ParseReference("oci://ghcr.io/nvidia/bundles:v1")
//	res, err := oci.Publish(ctx, oci.PublishOptions{SourceDir: "bundles", Target: ref})
//	res, err = oci.Pull(ctx, oci.PullOptions{Source: ref, DestDir: "/var/lib/bundles"})
//
// A plain path such as "./layout" names a local OCI image layout directory.
//
// Registry credentials come from the Docker configuration
// (~/.docker/config.json) through the ORAS credentials package.
package oci
