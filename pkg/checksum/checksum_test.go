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

package checksum

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	apperrors "github.com/NVIDIA/asset-bundle-cache/pkg/errors"
)

func writeBundleDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"ui":           "zip-bytes-ui",
		"fonts":        "zip-bytes-fonts",
		"sub/textures": "zip-bytes-textures",
	}
	for name, content := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestGenerateAndVerify(t *testing.T) {
	t.Parallel()

	dir := writeBundleDir(t)
	files, err := Collect(dir)
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	if len(files) != 3 {
		t.Fatalf("Collect() = %v, want 3 files", files)
	}

	if err := Generate(context.Background(), dir, files); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	data, err := os.ReadFile(Path(dir))
	if err != nil {
		t.Fatalf("failed to read checksums: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	for _, line := range lines {
		sum, _, ok := strings.Cut(line, "  ")
		if !ok || len(sum) != 64 {
			t.Errorf("invalid checksum line: %q", line)
		}
	}
	if !strings.Contains(string(data), "sub/textures") {
		t.Errorf("expected relative nested path, got %s", data)
	}

	if err := Verify(context.Background(), dir); err != nil {
		t.Errorf("Verify() error = %v", err)
	}

	// checksum file is not collected on a second pass
	again, err := Collect(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(again) != 3 {
		t.Errorf("Collect() after Generate = %v", again)
	}
}

func TestVerify_Failures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(t *testing.T, dir string)
		code   apperrors.ErrorCode
	}{
		{
			name: "modified file",
			mutate: func(t *testing.T, dir string) {
				if err := os.WriteFile(filepath.Join(dir, "ui"), []byte("tampered"), 0o600); err != nil {
					t.Fatal(err)
				}
			},
			code: apperrors.ErrCodeInternal,
		},
		{
			name: "removed file",
			mutate: func(t *testing.T, dir string) {
				if err := os.Remove(filepath.Join(dir, "fonts")); err != nil {
					t.Fatal(err)
				}
			},
			code: apperrors.ErrCodeInternal,
		},
		{
			name: "missing checksum file",
			mutate: func(t *testing.T, dir string) {
				if err := os.Remove(Path(dir)); err != nil {
					t.Fatal(err)
				}
			},
			code: apperrors.ErrCodeNotFound,
		},
		{
			name: "malformed line",
			mutate: func(t *testing.T, dir string) {
				if err := os.WriteFile(Path(dir), []byte("nothex ui\n"), 0o600); err != nil {
					t.Fatal(err)
				}
			},
			code: apperrors.ErrCodeInvalidRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			dir := writeBundleDir(t)
			files, err := Collect(dir)
			if err != nil {
				t.Fatal(err)
			}
			if err := Generate(context.Background(), dir, files); err != nil {
				t.Fatal(err)
			}
			tt.mutate(t, dir)

			err = Verify(context.Background(), dir)
			if !apperrors.IsCode(err, tt.code) {
				t.Errorf("Verify() error = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestGenerate_Errors(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := Generate(ctx, t.TempDir(), nil); err == nil {
		t.Error("expected error for cancelled context")
	}

	dir := t.TempDir()
	if err := Generate(context.Background(), dir, []string{filepath.Join(dir, "missing")}); err == nil {
		t.Error("expected error for non-existent file")
	}
}

func TestPath(t *testing.T) {
	t.Parallel()

	if got, want := Path("/srv/bundles"), "/srv/bundles/checksums.txt"; got != want {
		t.Errorf("Path() = %s, want %s", got, want)
	}
}
