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
	"sync"
	"time"

	"github.com/NVIDIA/asset-bundle-cache/pkg/container"
	apperrors "github.com/NVIDIA/asset-bundle-cache/pkg/errors"
)

// Record is the reference-counted state of one bundle.
//
// The record owns its container handle while the reference count is above
// zero. The handle is released when the count drops to zero, once no asset
// load is still reading it and no physical load is still in flight.
type Record struct {
	name     string
	location string
	loader   container.Loader

	mu            sync.Mutex
	refCount      int
	loading       bool
	pendingAssets int
	handle        container.Handle
	err           error
	ready         chan struct{}
}

// Status is a point-in-time snapshot of a Record.
type Status struct {
	Name              string `json:"name" yaml:"name"`
	Location          string `json:"location" yaml:"location"`
	RefCount          int    `json:"refCount" yaml:"refCount"`
	Loading           bool   `json:"loading" yaml:"loading"`
	PendingAssetLoads int    `json:"pendingAssetLoads" yaml:"pendingAssetLoads"`
	Loaded            bool   `json:"loaded" yaml:"loaded"`
	Error             string `json:"error,omitempty" yaml:"error,omitempty"`
}

// NewRecord creates an unloaded record for the bundle at location.
// No I/O is performed until LoadBundle is called.
func NewRecord(name, location string, loader container.Loader) *Record {
	ready := make(chan struct{})
	close(ready)
	return &Record{
		name:     name,
		location: location,
		loader:   loader,
		ready:    ready,
	}
}

// Name returns the bundle name.
func (r *Record) Name() string {
	return r.name
}

// Location returns the resolved bundle path.
func (r *Record) Location() string {
	return r.location
}

// LoadBundle acquires a reference. The first reference starts the physical
// load in a new goroutine; later references reuse it. A reference taken
// after a failed load, with no load in flight, starts a new attempt.
// It reports whether a physical load was started.
func (r *Record) LoadBundle() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.refCount++
	slog.Debug("bundle reference acquired",
		"bundle", r.name,
		"refCount", r.refCount,
	)

	if r.loading || r.handle != nil {
		return false
	}

	if r.err != nil {
		slog.Info("retrying failed bundle load",
			"bundle", r.name,
			"previousError", r.err,
		)
	}

	r.loading = true
	r.err = nil
	r.ready = make(chan struct{})
	go r.load(r.ready)
	return true
}

func (r *Record) load(ready chan struct{}) {
	start := time.Now()
	h, err := r.loader.Open(context.Background(), r.location)
	bundleLoadDuration.Observe(time.Since(start).Seconds())
	bundleLoadsTotal.WithLabelValues(resultLabel(err)).Inc()

	r.mu.Lock()
	r.loading = false
	if err != nil {
		code := apperrors.CodeOf(err)
		if code == "" {
			code = apperrors.ErrCodeInternal
		}
		r.err = apperrors.WrapWithContext(code, "failed to load bundle", err,
			map[string]any{"bundle": r.name, "location": r.location})
	} else {
		r.handle = h
	}
	release := r.takeReleasableLocked()
	refCount := r.refCount
	close(ready)
	r.mu.Unlock()

	if err != nil {
		slog.Error("bundle load failed",
			"bundle", r.name,
			"location", r.location,
			"error", err,
		)
	} else {
		slog.Debug("bundle loaded",
			"bundle", r.name,
			"refCount", refCount,
			"duration", time.Since(start),
		)
	}

	r.release(release)
}

// UnloadBundle drops a reference and returns the remaining count. Reaching
// zero releases the container. Calls on a record whose count is already
// zero are ignored.
func (r *Record) UnloadBundle() int {
	remaining, h := r.unload()
	r.release(h)
	return remaining
}

// unload drops a reference and returns a handle the caller must release.
func (r *Record) unload() (int, container.Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.refCount == 0 {
		unbalancedUnloadsTotal.Inc()
		slog.Warn("unbalanced bundle unload ignored",
			"bundle", r.name,
		)
		return 0, nil
	}

	r.refCount--
	slog.Debug("bundle reference released",
		"bundle", r.name,
		"refCount", r.refCount,
	)
	return r.refCount, r.takeReleasableLocked()
}

// takeReleasableLocked detaches the handle when nothing needs it anymore.
// Callers must hold r.mu.
func (r *Record) takeReleasableLocked() container.Handle {
	if r.refCount > 0 || r.pendingAssets > 0 || r.loading || r.handle == nil {
		return nil
	}
	h := r.handle
	r.handle = nil
	return h
}

func (r *Record) release(h container.Handle) {
	if h == nil {
		return
	}
	if err := r.loader.Release(h, false); err != nil {
		slog.Warn("failed to release bundle container",
			"bundle", r.name,
			"error", err,
		)
		return
	}
	slog.Debug("bundle container released",
		"bundle", r.name,
	)
}

// Wait blocks until no physical load is in flight and returns the error of
// the last load, if any. ctx bounds only the wait, never the load.
func (r *Record) Wait(ctx context.Context) error {
	for {
		r.mu.Lock()
		if !r.loading {
			err := r.err
			r.mu.Unlock()
			return err
		}
		ready := r.ready
		r.mu.Unlock()

		select {
		case <-ready:
		case <-ctx.Done():
			return apperrors.WrapWithContext(apperrors.ErrCodeTimeout, "wait for bundle cancelled", ctx.Err(),
				map[string]any{"bundle": r.name})
		}
	}
}

func (r *Record) beginAsset() {
	r.mu.Lock()
	r.pendingAssets++
	r.mu.Unlock()
	assetLoadsInFlight.Inc()
}

func (r *Record) endAsset() {
	r.mu.Lock()
	r.pendingAssets--
	h := r.takeReleasableLocked()
	r.mu.Unlock()
	assetLoadsInFlight.Dec()
	r.release(h)
}

// currentHandle returns the loaded handle, or nil.
func (r *Record) currentHandle() container.Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.loading {
		return nil
	}
	return r.handle
}

// RefCount returns the current reference count.
func (r *Record) RefCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.refCount
}

// IsLoading reports whether a physical load is in flight.
func (r *Record) IsLoading() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loading
}

// PendingAssetLoads returns the number of asset loads in progress.
func (r *Record) PendingAssetLoads() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pendingAssets
}

// Err returns the error of the most recent physical load.
func (r *Record) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Status returns a snapshot of the record.
func (r *Record) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()

	st := Status{
		Name:              r.name,
		Location:          r.location,
		RefCount:          r.refCount,
		Loading:           r.loading,
		PendingAssetLoads: r.pendingAssets,
		Loaded:            r.handle != nil && !r.loading,
	}
	if r.err != nil {
		st.Error = r.err.Error()
	}
	return st
}
