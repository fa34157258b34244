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
	"os"
	"path/filepath"
	"sort"
	"testing"
)

// WriteTestBundle writes a zip bundle named name under dir containing the
// given assets and returns its path. Asset names are written in sorted order.
func WriteTestBundle(t testing.TB, dir, name string, assets map[string]string) string {
	t.Helper()

	p := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		t.Fatalf("failed to create bundle directory: %v", err)
	}

	f, err := os.Create(p)
	if err != nil {
		t.Fatalf("failed to create bundle %s: %v", name, err)
	}
	defer f.Close()

	names := make([]string, 0, len(assets))
	for n := range assets {
		names = append(names, n)
	}
	sort.Strings(names)

	zw := zip.NewWriter(f)
	for _, n := range names {
		w, err := zw.Create(n)
		if err != nil {
			t.Fatalf("failed to add asset %s: %v", n, err)
		}
		if _, err := w.Write([]byte(assets[n])); err != nil {
			t.Fatalf("failed to write asset %s: %v", n, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("failed to finalize bundle %s: %v", name, err)
	}
	return p
}
