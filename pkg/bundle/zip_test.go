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

package bundle

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NVIDIA/asset-bundle-cache/pkg/container"
	apperrors "github.com/NVIDIA/asset-bundle-cache/pkg/errors"
)

const zipManifest = `apiVersion: bundles.nvidia.com/v1alpha1
kind: BundleManifest
bundles:
  - name: shaders
  - name: characters
    dependencies: [shaders]
`

func writeZipFixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	container.WriteTestBundle(t, dir, "bundles", map[string]string{
		"manifest.yaml": zipManifest,
	})
	container.WriteTestBundle(t, dir, "shaders", map[string]string{
		"lit.json": `{"name":"lit","passes":2}`,
	})
	container.WriteTestBundle(t, dir, "characters", map[string]string{
		"hero.yaml":         "name: hero\nhealth: 100\n",
		"textures/hero.png": "\x89PNG",
	})
	return dir
}

func TestRegistry_ZipEndToEnd(t *testing.T) {
	dir := writeZipFixture(t)
	r := NewRegistry(container.NewZipLoader(), WithBaseDir(dir))
	ctx := context.Background()

	require.NoError(t, r.LoadManifest(ctx))
	require.True(t, r.ManifestLoaded())
	assert.False(t, r.IsLoadingBundle("characters"))

	require.NoError(t, r.LoadBundle("characters"))
	require.NoError(t, r.WaitBundle(ctx, "characters"))
	assert.Equal(t, 2, r.Len())

	type hero struct {
		Name   string `yaml:"name"`
		Health int    `yaml:"health"`
	}
	h, err := LoadAsset[hero](ctx, r, "characters", "hero")
	require.NoError(t, err)
	assert.Equal(t, hero{Name: "hero", Health: 100}, h)

	shader, err := LoadAsset[map[string]any](ctx, r, "shaders", "lit.json")
	require.NoError(t, err)
	assert.Equal(t, "lit", shader["name"])

	png, err := LoadAsset[[]byte](ctx, r, "characters", "textures/hero.png")
	require.NoError(t, err)
	assert.Equal(t, []byte("\x89PNG"), png)

	names, err := r.AssetNames(ctx, "characters")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"hero.yaml", "textures/hero.png"}, names)

	r.UnloadBundle("characters")
	assert.Equal(t, 0, r.Len())

	_, err = LoadAsset[hero](ctx, r, "characters", "hero.yaml")
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeNotFound))
}

func TestRegistry_ZipMissingBundleFile(t *testing.T) {
	dir := writeZipFixture(t)
	r := NewRegistry(container.NewZipLoader(), WithBaseDir(dir))
	ctx := context.Background()
	require.NoError(t, r.LoadManifest(ctx))

	require.NoError(t, r.LoadBundle("undeclared"))
	err := r.WaitBundle(ctx, "undeclared")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeNotFound))
	assert.False(t, r.IsLoadingBundle("undeclared"))

	r.UnloadBundle("undeclared")
	assert.Equal(t, 0, r.Len())
}

func TestRegistry_LoadManifest(t *testing.T) {
	t.Run("concurrent callers share one load", func(t *testing.T) {
		dir := writeZipFixture(t)
		r := NewRegistry(container.NewZipLoader(), WithBaseDir(dir))

		var wg sync.WaitGroup
		for range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				assert.NoError(t, r.LoadManifest(context.Background()))
			}()
		}
		wg.Wait()

		require.NotNil(t, r.Manifest())
		assert.Equal(t, []string{"characters", "shaders"}, r.Manifest().Names())
	})

	t.Run("custom manifest location", func(t *testing.T) {
		dir := t.TempDir()
		container.WriteTestBundle(t, dir, "meta/index", map[string]string{
			"deps.yaml": zipManifest,
		})
		r := NewRegistry(container.NewZipLoader(),
			WithBaseDir(dir),
			WithManifestBundle("meta/index"),
			WithManifestAsset("deps.yaml"),
		)
		require.NoError(t, r.LoadManifest(context.Background()))
		assert.Equal(t, 2, r.Manifest().Len())
	})

	t.Run("missing manifest bundle", func(t *testing.T) {
		r := NewRegistry(container.NewZipLoader(), WithBaseDir(t.TempDir()))
		err := r.LoadManifest(context.Background())
		require.Error(t, err)
		assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeUnavailable))
		assert.False(t, r.ManifestLoaded())
		assert.True(t, r.IsLoading("characters"))
	})

	t.Run("invalid manifest", func(t *testing.T) {
		dir := t.TempDir()
		container.WriteTestBundle(t, dir, "bundles", map[string]string{
			"manifest.yaml": "bundles:\n  - name: a\n    dependencies: [a]\n",
		})
		r := NewRegistry(container.NewZipLoader(), WithBaseDir(dir))
		err := r.LoadManifest(context.Background())
		require.Error(t, err)
		assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeInvalidRequest))
		assert.False(t, r.ManifestLoaded())
	})
}
