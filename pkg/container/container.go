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

package container

import (
	"context"
	"path/filepath"
	"strings"

	apperrors "github.com/NVIDIA/asset-bundle-cache/pkg/errors"
)

// Handle is an opened bundle container.
type Handle interface {
	// Name returns the path the container was opened from.
	Name() string
	// LoadAsset returns the bytes of the named asset.
	LoadAsset(ctx context.Context, name string) ([]byte, error)
	// AssetNames lists every asset in the container in archive order.
	AssetNames() []string
}

// Loader opens and releases bundle containers.
type Loader interface {
	// Open opens the container at path. Implementations may block on I/O.
	Open(ctx context.Context, path string) (Handle, error)
	// Release frees a handle. When unloadAll is false the release is soft:
	// bytes already returned by LoadAsset stay valid.
	Release(h Handle, unloadAll bool) error
}

// Resolver locates bundle files under a base directory.
type Resolver struct {
	BaseDir string
}

// NewResolver returns a Resolver rooted at baseDir.
func NewResolver(baseDir string) Resolver {
	return Resolver{BaseDir: baseDir}
}

// Resolve returns the on-disk location of bundle name inside the optional
// sub-directory dir.
func (r Resolver) Resolve(dir, name string) (string, error) {
	if err := ValidateName(name); err != nil {
		return "", err
	}
	if dir != "" {
		if err := validateRelative(dir); err != nil {
			return "", apperrors.WrapWithContext(apperrors.ErrCodeInvalidRequest,
				"invalid bundle directory", err, map[string]any{"dir": dir})
		}
	}
	return filepath.Join(r.BaseDir, dir, name), nil
}

// ValidateName checks that a bundle name is a clean relative path that stays
// inside the base directory.
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return apperrors.New(apperrors.ErrCodeInvalidRequest, "bundle name is empty")
	}
	if err := validateRelative(name); err != nil {
		return apperrors.WrapWithContext(apperrors.ErrCodeInvalidRequest,
			"invalid bundle name", err, map[string]any{"bundle": name})
	}
	return nil
}

func validateRelative(p string) error {
	if filepath.IsAbs(p) || strings.HasPrefix(p, "/") {
		return errPathAbsolute
	}
	if !filepath.IsLocal(p) {
		return errPathEscapes
	}
	return nil
}

type pathError string

func (e pathError) Error() string { return string(e) }

const (
	errPathAbsolute pathError = "path must be relative"
	errPathEscapes  pathError = "path escapes base directory"
)
