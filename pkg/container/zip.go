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
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"path"
	"strings"
	"sync"

	apperrors "github.com/NVIDIA/asset-bundle-cache/pkg/errors"
)

// ZipLoader opens bundle containers stored as zip archives.
//
// Thread-safety: ZipLoader and the handles it returns are safe for concurrent use.
type ZipLoader struct{}

// NewZipLoader returns a Loader for zip-archive bundles.
func NewZipLoader() *ZipLoader {
	return &ZipLoader{}
}

// Open opens the zip archive at p.
func (l *ZipLoader) Open(ctx context.Context, p string) (Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context cancelled: %w", err)
	}

	rc, err := zip.OpenReader(p)
	if err != nil {
		code := apperrors.ErrCodeInternal
		if errors.Is(err, fs.ErrNotExist) {
			code = apperrors.ErrCodeNotFound
		}
		return nil, apperrors.WrapWithContext(code, "failed to open bundle container", err,
			map[string]any{"location": p})
	}

	h := &ZipHandle{
		path:    p,
		rc:      rc,
		entries: make(map[string]*zip.File, len(rc.File)),
	}
	for _, f := range rc.File {
		if f.FileInfo().IsDir() {
			continue
		}
		h.entries[f.Name] = f
		h.order = append(h.order, f)
	}

	slog.Debug("bundle container opened",
		"location", p,
		"assets", len(h.order),
	)
	return h, nil
}

// Release closes the archive. Both soft and forced releases close the file;
// asset bytes already returned are owned by the caller and stay valid.
func (l *ZipLoader) Release(h Handle, unloadAll bool) error {
	zh, ok := h.(*ZipHandle)
	if !ok {
		return fmt.Errorf("zip loader cannot release %T", h)
	}
	return zh.close(unloadAll)
}

// ZipHandle is an opened zip bundle.
type ZipHandle struct {
	path    string
	rc      *zip.ReadCloser
	entries map[string]*zip.File
	order   []*zip.File

	closeOnce sync.Once
	closeErr  error
}

// Name returns the archive path.
func (h *ZipHandle) Name() string {
	return h.path
}

// AssetNames lists entries in archive order, skipping directories.
func (h *ZipHandle) AssetNames() []string {
	names := make([]string, 0, len(h.order))
	for _, f := range h.order {
		names = append(names, f.Name)
	}
	return names
}

// LoadAsset reads the named asset fully into memory.
func (h *ZipHandle) LoadAsset(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context cancelled: %w", err)
	}

	f := h.lookup(name)
	if f == nil {
		return nil, apperrors.NewWithContext(apperrors.ErrCodeNotFound, "asset not found in bundle",
			map[string]any{"asset": name, "location": h.path})
	}

	r, err := f.Open()
	if err != nil {
		return nil, apperrors.WrapWithContext(apperrors.ErrCodeInternal, "failed to open asset", err,
			map[string]any{"asset": f.Name, "location": h.path})
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, apperrors.WrapWithContext(apperrors.ErrCodeInternal, "failed to read asset", err,
			map[string]any{"asset": f.Name, "location": h.path})
	}
	return data, nil
}

func (h *ZipHandle) lookup(name string) *zip.File {
	if f, ok := h.entries[name]; ok {
		return f
	}

	want := strings.ToLower(name)
	for _, f := range h.order {
		if strings.ToLower(f.Name) == want {
			return f
		}
	}
	for _, f := range h.order {
		if strings.ToLower(path.Base(f.Name)) == want {
			return f
		}
	}
	for _, f := range h.order {
		base := path.Base(f.Name)
		if strings.ToLower(strings.TrimSuffix(base, path.Ext(base))) == want {
			return f
		}
	}
	return nil
}

func (h *ZipHandle) close(unloadAll bool) error {
	h.closeOnce.Do(func() {
		h.closeErr = h.rc.Close()
		slog.Debug("bundle container released",
			"location", h.path,
			"unloadAll", unloadAll,
		)
	})
	return h.closeErr
}
