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

package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/NVIDIA/asset-bundle-cache/pkg/checksum"
	"github.com/NVIDIA/asset-bundle-cache/pkg/oci"
)

func TestPublishPullLayout(t *testing.T) {
	src := writeFixture(t)
	layout := t.TempDir()
	dest := t.TempDir()
	tmp := t.TempDir()

	pubOut := filepath.Join(tmp, "publish.json")
	if _, err := run(t, "publish", "--dir", src, "--tag", "v1",
		"--reproducible-timestamp", "2025-01-01T00:00:00Z",
		"--format", "json", "--output", pubOut, layout); err != nil {
		t.Fatalf("publish failed: %v", err)
	}
	var pub oci.Result
	readJSON(t, pubOut, &pub)
	if !strings.HasPrefix(pub.Digest, "sha256:") {
		t.Errorf("publish digest = %q", pub.Digest)
	}
	if _, err := os.Stat(checksum.Path(src)); err != nil {
		t.Errorf("checksums not generated: %v", err)
	}

	pullOut := filepath.Join(tmp, "pull.json")
	if _, err := run(t, "pull", "--dir", dest, "--tag", "v1",
		"--format", "json", "--output", pullOut, layout); err != nil {
		t.Fatalf("pull failed: %v", err)
	}
	var pulled oci.Result
	readJSON(t, pullOut, &pulled)
	if pulled.Digest != pub.Digest {
		t.Errorf("pull digest = %q, want %q", pulled.Digest, pub.Digest)
	}
	for _, name := range []string{"bundles", "shaders", "materials", "characters"} {
		if _, err := os.Stat(filepath.Join(dest, name)); err != nil {
			t.Errorf("pulled directory missing %s: %v", name, err)
		}
	}

	// the pulled directory serves local commands
	got, err := run(t, "--base-dir", dest, "get", "shaders", "lit.json")
	if err != nil {
		t.Fatalf("get from pulled directory failed: %v", err)
	}
	if got != `{"passes":2}` {
		t.Errorf("stdout = %q", got)
	}
}

func TestPublishRequiresTarget(t *testing.T) {
	if _, err := run(t, "publish", "--dir", t.TempDir()); err == nil {
		t.Fatal("expected error without target")
	}
}

func TestPullRejectsDigestReference(t *testing.T) {
	_, err := run(t, "pull", "--dir", t.TempDir(), "oci://ghcr.io/nvidia/bundles@sha256:"+strings.Repeat("a", 64))
	if err == nil {
		t.Fatal("expected error for digest reference")
	}
}

func TestArtifactTag(t *testing.T) {
	orig := version
	t.Cleanup(func() { version = orig })

	version = versionDefault
	if got := artifactTag(); got != oci.DefaultTag {
		t.Errorf("artifactTag() = %q, want %q", got, oci.DefaultTag)
	}
	version = "v1.2.3"
	if got := artifactTag(); got != "v1.2.3" {
		t.Errorf("artifactTag() = %q, want v1.2.3", got)
	}
}
