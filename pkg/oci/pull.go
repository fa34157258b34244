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

package oci

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"

	ociv1 "github.com/opencontainers/image-spec/specs-go/v1"
	oras "oras.land/oras-go/v2"
	"oras.land/oras-go/v2/content"
	"oras.land/oras-go/v2/content/file"

	"github.com/NVIDIA/asset-bundle-cache/pkg/checksum"
	apperrors "github.com/NVIDIA/asset-bundle-cache/pkg/errors"
)

// PullOptions configures Pull.
type PullOptions struct {
	RegistryOptions
	// Source is the registry reference or local layout to read. Its tag must be set.
	Source *Reference
	// DestDir receives the bundle files.
	DestDir string
	// SkipVerify disables checksums.txt verification after extraction.
	SkipVerify bool
}

// Pull copies a published bundle directory into DestDir and verifies its
// checksums.
func Pull(ctx context.Context, opts PullOptions) (*Result, error) {
	if opts.Source == nil {
		return nil, apperrors.New(apperrors.ErrCodeInvalidRequest, "pull source is required")
	}
	if opts.Source.Tag == "" {
		return nil, apperrors.New(apperrors.ErrCodeInvalidRequest, "tag is required to pull")
	}
	if opts.DestDir == "" {
		return nil, apperrors.New(apperrors.ErrCodeInvalidRequest, "destination directory is required")
	}

	src, err := openTarget(opts.Source, opts.RegistryOptions)
	if err != nil {
		return nil, err
	}

	tag := opts.Source.Tag
	desc, err := src.Resolve(ctx, tag)
	if err != nil {
		return nil, apperrors.WrapWithContext(apperrors.ErrCodeNotFound,
			"artifact not found", err, map[string]any{"reference": opts.Source.ImageReference()})
	}
	if err := checkArtifactType(ctx, src, desc); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(opts.DestDir, 0o755); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, "failed to create destination directory", err)
	}
	dst, err := file.New(opts.DestDir)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, "failed to create file store", err)
	}
	defer func() { _ = dst.Close() }()

	desc, err = oras.Copy(ctx, src, tag, dst, tag, oras.DefaultCopyOptions)
	if err != nil {
		return nil, apperrors.WrapWithContext(apperrors.ErrCodeUnavailable,
			"failed to pull artifact", err, map[string]any{"reference": opts.Source.ImageReference()})
	}

	if !opts.SkipVerify {
		if err := checksum.Verify(ctx, opts.DestDir); err != nil {
			if !apperrors.IsCode(err, apperrors.ErrCodeNotFound) {
				return nil, err
			}
			slog.Warn("artifact has no checksums, skipping verification",
				"reference", opts.Source.ImageReference())
		}
	}

	files, err := checksum.Collect(opts.DestDir)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, "failed to list pulled files", err)
	}

	return &Result{
		Digest:    desc.Digest.String(),
		Reference: opts.Source.ImageReference(),
		Files:     len(files),
	}, nil
}

// checkArtifactType rejects manifests that were not produced by Publish.
func checkArtifactType(ctx context.Context, src content.ReadOnlyStorage, desc ociv1.Descriptor) error {
	if desc.MediaType != ociv1.MediaTypeImageManifest {
		return apperrors.NewWithContext(apperrors.ErrCodeInvalidRequest,
			"unexpected manifest media type", map[string]any{"mediaType": desc.MediaType})
	}
	data, err := content.FetchAll(ctx, src, desc)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrCodeUnavailable, "failed to fetch manifest", err)
	}
	var m ociv1.Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeInvalidRequest, "failed to decode manifest", err)
	}
	if m.ArtifactType != ArtifactType {
		return apperrors.NewWithContext(apperrors.ErrCodeInvalidRequest,
			"artifact is not a bundle directory", map[string]any{"artifactType": m.ArtifactType})
	}
	return nil
}
