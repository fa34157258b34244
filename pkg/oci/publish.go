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
	"crypto/tls"
	"net/http"
	"os"
	"path/filepath"

	ociv1 "github.com/opencontainers/image-spec/specs-go/v1"
	oras "oras.land/oras-go/v2"
	"oras.land/oras-go/v2/content/file"
	"oras.land/oras-go/v2/content/oci"
	"oras.land/oras-go/v2/registry/remote"
	"oras.land/oras-go/v2/registry/remote/auth"
	"oras.land/oras-go/v2/registry/remote/credentials"

	"github.com/NVIDIA/asset-bundle-cache/pkg/checksum"
	apperrors "github.com/NVIDIA/asset-bundle-cache/pkg/errors"
)

// ArtifactType is the media type of a published bundle directory.
const ArtifactType = "application/vnd.nvidia.bundles.artifact"

// layerName is the title of the single directory layer.
const layerName = "."

// RegistryOptions configures the connection to a remote registry.
type RegistryOptions struct {
	// PlainHTTP uses HTTP instead of HTTPS.
	PlainHTTP bool
	// InsecureTLS skips TLS certificate verification.
	InsecureTLS bool
}

// PublishOptions configures Publish.
type PublishOptions struct {
	RegistryOptions
	// SourceDir is the bundle directory (bundle files and the manifest bundle).
	SourceDir string
	// Target is where the artifact goes. Its tag must be set.
	Target *Reference
	// Version is recorded in the org.opencontainers.image.version annotation.
	Version string
	// ReproducibleTimestamp fixes the created annotation for reproducible digests.
	ReproducibleTimestamp string
	// SkipChecksums disables writing checksums.txt before packing.
	SkipChecksums bool
}

// Result describes a published or pulled artifact.
type Result struct {
	// Digest is the manifest digest.
	Digest string `json:"digest" yaml:"digest"`
	// Reference is the image reference that was written or read.
	Reference string `json:"reference" yaml:"reference"`
	// Files is the number of files in the bundle directory.
	Files int `json:"files" yaml:"files"`
}

// Publish packs SourceDir into a single gzip layer artifact and copies it to
// the target registry or local layout.
func Publish(ctx context.Context, opts PublishOptions) (*Result, error) {
	if opts.Target == nil {
		return nil, apperrors.New(apperrors.ErrCodeInvalidRequest, "publish target is required")
	}
	if opts.Target.Tag == "" {
		return nil, apperrors.New(apperrors.ErrCodeInvalidRequest, "tag is required to publish")
	}

	absDir, err := filepath.Abs(opts.SourceDir)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, "failed to resolve source directory", err)
	}
	files, err := checksum.Collect(absDir)
	if err != nil {
		return nil, apperrors.WrapWithContext(apperrors.ErrCodeNotFound,
			"failed to read source directory", err, map[string]any{"dir": absDir})
	}
	if len(files) == 0 {
		return nil, apperrors.NewWithContext(apperrors.ErrCodeInvalidRequest,
			"source directory is empty", map[string]any{"dir": absDir})
	}
	if !opts.SkipChecksums {
		if err := checksum.Generate(ctx, absDir, files); err != nil {
			return nil, apperrors.Wrap(apperrors.ErrCodeInternal, "failed to generate checksums", err)
		}
	}

	fs, err := file.New(absDir)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, "failed to create file store", err)
	}
	defer func() { _ = fs.Close() }()

	// deterministic tars keep digests stable across publishes
	fs.TarReproducible = true

	layerDesc, err := fs.Add(ctx, layerName, ociv1.MediaTypeImageLayerGzip, absDir)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, "failed to add source directory to store", err)
	}

	packOpts := oras.PackManifestOptions{
		Layers:              []ociv1.Descriptor{layerDesc},
		ManifestAnnotations: annotations(opts),
	}
	manifestDesc, err := oras.PackManifest(ctx, fs, oras.PackManifestVersion1_1, ArtifactType, packOpts)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, "failed to pack manifest", err)
	}

	tag := opts.Target.Tag
	if err := fs.Tag(ctx, manifestDesc, tag); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, "failed to tag manifest in local store", err)
	}

	dst, err := openTarget(opts.Target, opts.RegistryOptions)
	if err != nil {
		return nil, err
	}

	desc, err := oras.Copy(ctx, fs, tag, dst, tag, oras.DefaultCopyOptions)
	if err != nil {
		return nil, apperrors.WrapWithContext(apperrors.ErrCodeUnavailable,
			"failed to publish artifact", err, map[string]any{"reference": opts.Target.ImageReference()})
	}

	return &Result{
		Digest:    desc.Digest.String(),
		Reference: opts.Target.ImageReference(),
		Files:     len(files),
	}, nil
}

// annotations never carries a title: the file store treats a titled
// descriptor as a file and would write the manifest into SourceDir.
func annotations(opts PublishOptions) map[string]string {
	a := map[string]string{
		ociv1.AnnotationVendor:      "NVIDIA",
		ociv1.AnnotationDescription: "Asset bundles",
	}
	if opts.Version != "" {
		a[ociv1.AnnotationVersion] = opts.Version
	}
	if opts.ReproducibleTimestamp != "" {
		a[ociv1.AnnotationCreated] = opts.ReproducibleTimestamp
	}
	return a
}

// openTarget returns a registry repository or a local layout store.
func openTarget(ref *Reference, ro RegistryOptions) (oras.Target, error) {
	if !ref.IsOCI {
		if err := os.MkdirAll(ref.LocalPath, 0o755); err != nil {
			return nil, apperrors.Wrap(apperrors.ErrCodeInternal, "failed to create layout directory", err)
		}
		store, err := oci.New(ref.LocalPath)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrCodeInternal, "failed to open OCI layout", err)
		}
		return store, nil
	}

	repo, err := remote.NewRepository(ref.Registry + "/" + ref.Repository)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInvalidRequest, "failed to initialize remote repository", err)
	}
	repo.PlainHTTP = ro.PlainHTTP
	repo.Client = createAuthClient(ro.PlainHTTP, ro.InsecureTLS)
	return repo, nil
}

// createAuthClient creates a registry client with optional TLS relaxation
// and Docker credential support.
func createAuthClient(plainHTTP, insecureTLS bool) *auth.Client {
	credStore, _ := credentials.NewStoreFromDocker(credentials.StoreOptions{})

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if !plainHTTP && insecureTLS {
		if transport.TLSClientConfig == nil {
			transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
		} else {
			transport.TLSClientConfig.InsecureSkipVerify = true //nolint:gosec
		}
	}

	client := &auth.Client{
		Client: &http.Client{Transport: transport},
		Cache:  auth.NewCache(),
	}
	if credStore != nil {
		client.Credential = credentials.Credential(credStore)
	}
	return client
}
