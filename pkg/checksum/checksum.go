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
	"bufio"
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	apperrors "github.com/NVIDIA/asset-bundle-cache/pkg/errors"
)

// FileName is the name of the checksum file inside a bundle directory.
const FileName = "checksums.txt"

// Path returns the checksum file path for dir.
func Path(dir string) string {
	return filepath.Join(dir, FileName)
}

// Collect lists the regular files under dir, sorted, excluding the checksum
// file itself.
func Collect(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() && path != Path(dir) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", dir, err)
	}
	sort.Strings(files)
	return files, nil
}

// Generate writes checksums.txt in dir with one "<sha256>  <relative path>"
// line per file.
func Generate(ctx context.Context, dir string, files []string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context cancelled: %w", err)
	}

	lines := make([]string, 0, len(files))
	for _, file := range files {
		sum, err := fileSum(file)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, file)
		if err != nil {
			rel = file
		}
		lines = append(lines, fmt.Sprintf("%s  %s", sum, filepath.ToSlash(rel)))
	}

	content := strings.Join(lines, "\n") + "\n"
	if err := os.WriteFile(Path(dir), []byte(content), 0o600); err != nil {
		return fmt.Errorf("failed to write checksums: %w", err)
	}

	slog.Debug("checksums generated",
		"file_count", len(lines),
		"path", Path(dir),
	)
	return nil
}

// Verify checks every entry of dir's checksums.txt. A missing file or a
// digest mismatch is an INTERNAL error naming the file.
func Verify(ctx context.Context, dir string) error {
	data, err := os.ReadFile(Path(dir))
	if err != nil {
		return apperrors.WrapWithContext(apperrors.ErrCodeNotFound,
			"checksum file not found", err, map[string]any{"path": Path(dir)})
	}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	checked := 0
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("context cancelled: %w", err)
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		want, rel, ok := strings.Cut(line, "  ")
		if !ok {
			return apperrors.NewWithContext(apperrors.ErrCodeInvalidRequest,
				"malformed checksum line", map[string]any{"line": line})
		}
		got, err := fileSum(filepath.Join(dir, filepath.FromSlash(rel)))
		if err != nil {
			return apperrors.WrapWithContext(apperrors.ErrCodeInternal,
				"checksummed file unreadable", err, map[string]any{"file": rel})
		}
		if got != want {
			return apperrors.NewWithContext(apperrors.ErrCodeInternal,
				"checksum mismatch", map[string]any{"file": rel, "want": want, "got": got})
		}
		checked++
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read checksums: %w", err)
	}

	slog.Debug("checksums verified", "file_count", checked, "dir", dir)
	return nil
}

func fileSum(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s for checksum: %w", path, err)
	}
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:]), nil
}
