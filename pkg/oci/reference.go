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
	"fmt"
	"strings"

	"github.com/distribution/reference"

	apperrors "github.com/NVIDIA/asset-bundle-cache/pkg/errors"
)

// URIScheme marks a registry reference (e.g., "oci://ghcr.io/org/bundles:v1").
const URIScheme = "oci://"

// DefaultTag is used when neither the reference nor the caller names a tag.
const DefaultTag = "latest"

// Reference is a publish or pull location: a remote registry repository,
// or a local OCI image layout directory when IsOCI is false.
type Reference struct {
	// IsOCI reports a registry reference rather than a local layout.
	IsOCI bool
	// Registry is the registry host (e.g., "ghcr.io", "localhost:5000").
	Registry string
	// Repository is the repository path (e.g., "nvidia/bundles").
	Repository string
	// Tag is the image tag. Empty means the caller applies a default.
	Tag string
	// LocalPath is the OCI image layout directory for non-registry targets.
	LocalPath string
}

// ParseReference parses "oci://registry/repository[:tag]" or a plain
// directory path naming a local OCI image layout.
func ParseReference(target string) (*Reference, error) {
	if strings.TrimSpace(target) == "" {
		return nil, apperrors.New(apperrors.ErrCodeInvalidRequest, "reference is empty")
	}
	if !strings.HasPrefix(target, URIScheme) {
		return &Reference{LocalPath: target}, nil
	}

	named, err := reference.ParseNormalizedNamed(strings.TrimPrefix(target, URIScheme))
	if err != nil {
		return nil, apperrors.WrapWithContext(apperrors.ErrCodeInvalidRequest,
			"invalid OCI reference", err, map[string]any{"reference": target})
	}
	if _, ok := named.(reference.Digested); ok {
		return nil, apperrors.NewWithContext(apperrors.ErrCodeInvalidRequest,
			"digest references are not supported, use a tag", map[string]any{"reference": target})
	}

	ref := &Reference{
		IsOCI:      true,
		Registry:   reference.Domain(named),
		Repository: reference.Path(named),
	}
	if tagged, ok := named.(reference.Tagged); ok {
		ref.Tag = tagged.Tag()
	}
	if err := ValidateRegistryReference(ref.Registry, ref.Repository); err != nil {
		return nil, err
	}
	return ref, nil
}

// ValidateRegistryReference checks that registry and repository form a
// valid image name.
func ValidateRegistryReference(registry, repository string) error {
	if registry == "" {
		return apperrors.New(apperrors.ErrCodeInvalidRequest, "registry is required")
	}
	if repository == "" {
		return apperrors.New(apperrors.ErrCodeInvalidRequest, "repository is required")
	}
	name := stripProtocol(registry) + "/" + repository
	if _, err := reference.ParseNormalizedNamed(name); err != nil {
		return apperrors.WrapWithContext(apperrors.ErrCodeInvalidRequest,
			"invalid registry reference", err, map[string]any{"name": name})
	}
	return nil
}

// String returns the reference in the form ParseReference accepts.
func (r *Reference) String() string {
	if !r.IsOCI {
		return r.LocalPath
	}
	if r.Tag == "" {
		return fmt.Sprintf("%s%s/%s", URIScheme, r.Registry, r.Repository)
	}
	return fmt.Sprintf("%s%s/%s:%s", URIScheme, r.Registry, r.Repository, r.Tag)
}

// ImageReference returns "registry/repository:tag" for registry
// references and "path:tag" for local layouts.
func (r *Reference) ImageReference() string {
	prefix := r.LocalPath
	if r.IsOCI {
		prefix = r.Registry + "/" + r.Repository
	}
	if r.Tag == "" {
		return prefix
	}
	return prefix + ":" + r.Tag
}

// WithTag returns a copy of the reference with tag.
func (r *Reference) WithTag(tag string) *Reference {
	cp := *r
	cp.Tag = tag
	return &cp
}

// WithDefaultTag returns the reference unchanged when it has a tag, or a copy
// tagged with tag (DefaultTag when tag is empty).
func (r *Reference) WithDefaultTag(tag string) *Reference {
	if r.Tag != "" {
		return r
	}
	if tag == "" {
		tag = DefaultTag
	}
	return r.WithTag(tag)
}

// stripProtocol removes an http:// or https:// prefix from a registry host.
func stripProtocol(registry string) string {
	registry = strings.TrimPrefix(registry, "https://")
	registry = strings.TrimPrefix(registry, "http://")
	return registry
}
