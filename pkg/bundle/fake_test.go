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
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/NVIDIA/asset-bundle-cache/pkg/container"
	apperrors "github.com/NVIDIA/asset-bundle-cache/pkg/errors"
	"github.com/NVIDIA/asset-bundle-cache/pkg/manifest"
)

// fakeLoader is an in-memory container.Loader. Opens of a gated location
// block until the gate is opened.
type fakeLoader struct {
	mu       sync.Mutex
	opens    map[string]int
	released map[string]int
	gates    map[string]chan struct{}
	failures map[string]error
	assets   map[string]map[string][]byte
}

func newFakeLoader() *fakeLoader {
	return &fakeLoader{
		opens:    make(map[string]int),
		released: make(map[string]int),
		gates:    make(map[string]chan struct{}),
		failures: make(map[string]error),
		assets:   make(map[string]map[string][]byte),
	}
}

func (l *fakeLoader) gate(locations ...string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, loc := range locations {
		l.gates[loc] = make(chan struct{})
	}
}

func (l *fakeLoader) open(location string) {
	l.mu.Lock()
	g, ok := l.gates[location]
	delete(l.gates, location)
	l.mu.Unlock()
	if ok {
		close(g)
	}
}

func (l *fakeLoader) fail(location string, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err == nil {
		delete(l.failures, location)
		return
	}
	l.failures[location] = err
}

func (l *fakeLoader) setAssets(location string, assets map[string]string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	m := make(map[string][]byte, len(assets))
	for k, v := range assets {
		m[k] = []byte(v)
	}
	l.assets[location] = m
}

func (l *fakeLoader) openCount(location string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.opens[location]
}

func (l *fakeLoader) releaseCount(location string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.released[location]
}

func (l *fakeLoader) Open(ctx context.Context, location string) (container.Handle, error) {
	l.mu.Lock()
	l.opens[location]++
	g := l.gates[location]
	l.mu.Unlock()

	if g != nil {
		select {
		case <-g:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.failures[location]; err != nil {
		return nil, err
	}
	return &fakeHandle{name: location, assets: l.assets[location]}, nil
}

func (l *fakeLoader) Release(h container.Handle, _ bool) error {
	fh, ok := h.(*fakeHandle)
	if !ok {
		return fmt.Errorf("unexpected handle %T", h)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.released[fh.name]++
	return nil
}

type fakeHandle struct {
	name   string
	assets map[string][]byte
}

func (h *fakeHandle) Name() string { return h.name }

func (h *fakeHandle) AssetNames() []string {
	names := make([]string, 0, len(h.assets))
	for n := range h.assets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (h *fakeHandle) LoadAsset(_ context.Context, name string) ([]byte, error) {
	data, ok := h.assets[name]
	if !ok {
		return nil, apperrors.NewWithContext(apperrors.ErrCodeNotFound, "asset not found",
			map[string]any{"asset": name})
	}
	return data, nil
}

var errDiskRead = errors.New("disk read failed")

// testManifest declares B -> A and C -> B.
func testManifest(t *testing.T) *manifest.Manifest {
	t.Helper()
	m, err := manifest.New(manifest.Document{Bundles: []manifest.Entry{
		{Name: "A"},
		{Name: "B", Dependencies: []string{"A"}},
		{Name: "C", Dependencies: []string{"B"}},
		{Name: "D"},
	}})
	require.NoError(t, err)
	return m
}

func newTestRegistry(t *testing.T, l *fakeLoader) *Registry {
	t.Helper()
	return NewRegistry(l, WithBaseDir(""), WithManifest(testManifest(t)))
}
