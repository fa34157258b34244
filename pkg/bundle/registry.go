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
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/NVIDIA/asset-bundle-cache/pkg/container"
	"github.com/NVIDIA/asset-bundle-cache/pkg/defaults"
	apperrors "github.com/NVIDIA/asset-bundle-cache/pkg/errors"
	"github.com/NVIDIA/asset-bundle-cache/pkg/manifest"
)

const manifestFlightKey = "manifest"

// Registry tracks bundle records by name and expands loads and unloads
// through the dependency manifest.
//
// A Registry is safe for concurrent use. Lock order is registry then record.
type Registry struct {
	loader         container.Loader
	resolver       container.Resolver
	manifestBundle string
	manifestAsset  string

	manifest atomic.Pointer[manifest.Manifest]
	flight   singleflight.Group

	mu      sync.RWMutex
	records map[string]*Record
}

// Option is a functional option for configuring Registry instances.
type Option func(*Registry)

// WithBaseDir sets the directory bundle names are resolved against.
func WithBaseDir(dir string) Option {
	return func(r *Registry) {
		r.resolver = container.NewResolver(dir)
	}
}

// WithManifestBundle sets the name of the container holding the manifest.
func WithManifestBundle(name string) Option {
	return func(r *Registry) {
		r.manifestBundle = name
	}
}

// WithManifestAsset sets the name of the manifest asset.
func WithManifestAsset(name string) Option {
	return func(r *Registry) {
		r.manifestAsset = name
	}
}

// WithManifest installs an already parsed manifest, skipping LoadManifest.
func WithManifest(m *manifest.Manifest) Option {
	return func(r *Registry) {
		r.manifest.Store(m)
	}
}

// NewRegistry returns an empty registry that opens containers with loader.
func NewRegistry(loader container.Loader, opts ...Option) *Registry {
	r := &Registry{
		loader:         loader,
		resolver:       container.NewResolver(defaults.BaseDir),
		manifestBundle: defaults.ManifestBundle,
		manifestAsset:  defaults.ManifestAsset,
		records:        make(map[string]*Record),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// LoadManifest loads the dependency manifest from the manifest bundle.
// Concurrent callers share one load. Once a manifest is loaded, later
// calls return immediately.
func (r *Registry) LoadManifest(ctx context.Context) error {
	if r.manifest.Load() != nil {
		return nil
	}

	_, err, shared := r.flight.Do(manifestFlightKey, func() (any, error) {
		if m := r.manifest.Load(); m != nil {
			return m, nil
		}
		m, err := r.readManifest(ctx)
		manifestLoadsTotal.WithLabelValues(resultLabel(err)).Inc()
		if err != nil {
			return nil, err
		}
		r.manifest.Store(m)
		return m, nil
	})
	if err != nil {
		slog.Error("manifest load failed",
			"bundle", r.manifestBundle,
			"asset", r.manifestAsset,
			"shared", shared,
			"error", err,
		)
		return err
	}
	return nil
}

func (r *Registry) readManifest(ctx context.Context) (*manifest.Manifest, error) {
	start := time.Now()

	location, err := r.resolver.Resolve("", r.manifestBundle)
	if err != nil {
		return nil, err
	}

	h, err := r.loader.Open(ctx, location)
	if err != nil {
		return nil, apperrors.WrapWithContext(apperrors.ErrCodeUnavailable, "failed to open manifest bundle", err,
			map[string]any{"location": location})
	}
	defer func() {
		if relErr := r.loader.Release(h, true); relErr != nil {
			slog.Warn("failed to release manifest bundle", "error", relErr)
		}
	}()

	data, err := h.LoadAsset(ctx, r.manifestAsset)
	if err != nil {
		return nil, apperrors.WrapWithContext(apperrors.ErrCodeUnavailable, "failed to load manifest asset", err,
			map[string]any{"location": location, "asset": r.manifestAsset})
	}

	m, err := manifest.Parse(data)
	if err != nil {
		return nil, err
	}

	slog.Info("manifest loaded",
		"location", location,
		"asset", r.manifestAsset,
		"bundles", m.Len(),
		"duration", time.Since(start),
	)
	return m, nil
}

// Manifest returns the loaded manifest, or nil before LoadManifest completes.
func (r *Registry) Manifest() *manifest.Manifest {
	return r.manifest.Load()
}

// ManifestLoaded reports whether the manifest is available.
func (r *Registry) ManifestLoaded() bool {
	return r.manifest.Load() != nil
}

// expand returns name's dependencies followed by name itself.
func expand(m *manifest.Manifest, name string) []string {
	return append(m.AllDependencies(name), name)
}

// LoadBundle acquires a reference on name and each of its dependencies,
// starting physical loads for any that are not resident. It does not wait
// for the loads to finish.
func (r *Registry) LoadBundle(name string) error {
	return r.LoadBundleIn("", name)
}

// LoadBundleIn is LoadBundle with bundle files located in the sub-directory
// dir of the base directory. Records are keyed by name, so a resident bundle
// opened from another location is rejected with INVALID_REQUEST and no
// reference is taken.
func (r *Registry) LoadBundleIn(dir, name string) error {
	m := r.manifest.Load()
	if m == nil {
		return apperrors.NewWithContext(apperrors.ErrCodeUnavailable, "manifest not loaded",
			map[string]any{"bundle": name})
	}

	names := expand(m, name)
	locations := make([]string, len(names))
	for i, n := range names {
		loc, err := r.resolver.Resolve(dir, n)
		if err != nil {
			return err
		}
		locations[i] = loc
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for i, n := range names {
		if rec, ok := r.records[n]; ok && rec.Location() != locations[i] {
			slog.Warn("bundle resident at another location",
				"bundle", n,
				"location", rec.Location(),
				"requested", locations[i],
			)
			return apperrors.NewWithContext(apperrors.ErrCodeInvalidRequest,
				"bundle already loaded from another location", map[string]any{
					"bundle":    n,
					"location":  rec.Location(),
					"requested": locations[i],
				})
		}
	}

	for i, n := range names {
		rec, ok := r.records[n]
		if !ok {
			rec = NewRecord(n, locations[i], r.loader)
			r.records[n] = rec
			bundlesResident.Inc()
			slog.Debug("bundle record created",
				"bundle", n,
				"location", locations[i],
			)
		}
		rec.LoadBundle()
	}
	return nil
}

// UnloadBundle releases a reference on name and each of its dependencies.
// Records reaching zero references are removed. Names without a record
// are skipped.
func (r *Registry) UnloadBundle(name string) {
	m := r.manifest.Load()
	if m == nil {
		slog.Warn("bundle unload ignored, manifest not loaded",
			"bundle", name,
		)
		return
	}

	var toRelease []releasable

	r.mu.Lock()
	for _, n := range expand(m, name) {
		rec, ok := r.records[n]
		if !ok {
			slog.Debug("bundle unload skipped, not loaded",
				"bundle", n,
			)
			continue
		}
		remaining, h := rec.unload()
		if remaining == 0 {
			delete(r.records, n)
			bundlesResident.Dec()
			bundleEvictionsTotal.Inc()
			slog.Debug("bundle record evicted",
				"bundle", n,
			)
		}
		if h != nil {
			toRelease = append(toRelease, releasable{rec: rec, handle: h})
		}
	}
	r.mu.Unlock()

	for _, rel := range toRelease {
		rel.rec.release(rel.handle)
	}
}

type releasable struct {
	rec    *Record
	handle container.Handle
}

// lookup returns the record for name.
func (r *Registry) lookup(name string) (*Record, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[name]
	return rec, ok
}

// acquireAsset finds the record for name and registers a pending asset load
// on it while the registry lock prevents eviction.
func (r *Registry) acquireAsset(name string) (*Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.records[name]
	if !ok {
		return nil, apperrors.NewWithContext(apperrors.ErrCodeNotFound, "bundle not loaded",
			map[string]any{"bundle": name})
	}
	rec.beginAsset()
	return rec, nil
}

// IsLoadingBundle reports whether the manifest is still loading, or whether
// name or any of its dependencies has a physical load in flight.
func (r *Registry) IsLoadingBundle(name string) bool {
	m := r.manifest.Load()
	if m == nil {
		return true
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, n := range expand(m, name) {
		if rec, ok := r.records[n]; ok && rec.IsLoading() {
			return true
		}
	}
	return false
}

// IsLoadingAsset reports whether name has asset loads in progress.
// Dependencies and the manifest state are not considered.
func (r *Registry) IsLoadingAsset(name string) bool {
	rec, ok := r.lookup(name)
	return ok && rec.PendingAssetLoads() > 0
}

// IsLoading reports whether name or any of its dependencies is loading
// either a bundle or an asset.
func (r *Registry) IsLoading(name string) bool {
	m := r.manifest.Load()
	if m == nil {
		return true
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, n := range expand(m, name) {
		rec, ok := r.records[n]
		if !ok {
			continue
		}
		if rec.IsLoading() || rec.PendingAssetLoads() > 0 {
			return true
		}
	}
	return false
}

// WaitBundle blocks until name and all of its loaded dependencies finish
// their physical loads. It returns the first load error in dependency order.
func (r *Registry) WaitBundle(ctx context.Context, name string) error {
	m := r.manifest.Load()
	if m == nil {
		return apperrors.NewWithContext(apperrors.ErrCodeUnavailable, "manifest not loaded",
			map[string]any{"bundle": name})
	}

	r.mu.RLock()
	recs := make([]*Record, 0)
	for _, n := range expand(m, name) {
		if rec, ok := r.records[n]; ok {
			recs = append(recs, rec)
		}
	}
	_, loaded := r.records[name]
	r.mu.RUnlock()

	if !loaded {
		return apperrors.NewWithContext(apperrors.ErrCodeNotFound, "bundle not loaded",
			map[string]any{"bundle": name})
	}

	var firstErr error
	for _, rec := range recs {
		if err := rec.Wait(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// AssetNames lists the assets of a loaded bundle, waiting for its load.
func (r *Registry) AssetNames(ctx context.Context, name string) ([]string, error) {
	rec, err := r.acquireAsset(name)
	if err != nil {
		return nil, err
	}
	defer rec.endAsset()

	h, err := waitHandle(ctx, rec)
	if err != nil {
		return nil, err
	}
	return h.AssetNames(), nil
}

// Dependencies returns the transitive dependencies of a declared bundle.
func (r *Registry) Dependencies(name string) ([]string, error) {
	m := r.manifest.Load()
	if m == nil {
		return nil, apperrors.NewWithContext(apperrors.ErrCodeUnavailable, "manifest not loaded",
			map[string]any{"bundle": name})
	}
	if !m.Has(name) {
		return nil, apperrors.NewWithContext(apperrors.ErrCodeNotFound, "bundle not declared in manifest",
			map[string]any{"bundle": name})
	}
	return m.AllDependencies(name), nil
}

// Status returns a snapshot of the record for name.
func (r *Registry) Status(name string) (Status, bool) {
	rec, ok := r.lookup(name)
	if !ok {
		return Status{}, false
	}
	return rec.Status(), true
}

// Statuses returns snapshots of every record, sorted by name.
func (r *Registry) Statuses() []Status {
	r.mu.RLock()
	out := make([]Status, 0, len(r.records))
	for _, rec := range r.records {
		out = append(out, rec.Status())
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].Name < out[j].Name
	})
	return out
}

// Len returns the number of records.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}
