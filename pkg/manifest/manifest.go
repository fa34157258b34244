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

package manifest

import (
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	apperrors "github.com/NVIDIA/asset-bundle-cache/pkg/errors"
)

const (
	// APIVersion is the supported manifest apiVersion.
	APIVersion = "bundles.nvidia.com/v1alpha1"
	// Kind is the supported manifest kind.
	Kind = "BundleManifest"
)

// Entry declares one bundle and its direct dependencies.
type Entry struct {
	Name         string   `json:"name" yaml:"name"`
	Dependencies []string `json:"dependencies,omitempty" yaml:"dependencies,omitempty"`
}

// Document is the serialized manifest.
type Document struct {
	APIVersion string  `json:"apiVersion" yaml:"apiVersion"`
	Kind       string  `json:"kind" yaml:"kind"`
	Bundles    []Entry `json:"bundles" yaml:"bundles"`
}

// Manifest is a validated manifest with precomputed transitive dependencies.
type Manifest struct {
	doc    Document
	direct map[string][]string
	all    map[string][]string
}

// CycleDetectedError means the manifest declares a dependency cycle.
type CycleDetectedError struct {
	Path []string
}

func (e CycleDetectedError) Error() string {
	return "bundle dependency cycle detected: " + strings.Join(e.Path, " -> ")
}

// Parse decodes and validates a manifest document.
func Parse(data []byte) (*Manifest, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInvalidRequest, "failed to parse manifest", err)
	}
	return New(doc)
}

// New validates doc and builds a Manifest from it.
func New(doc Document) (*Manifest, error) {
	if doc.APIVersion != "" && doc.APIVersion != APIVersion {
		return nil, apperrors.NewWithContext(apperrors.ErrCodeInvalidRequest, "unsupported manifest apiVersion",
			map[string]any{"apiVersion": doc.APIVersion, "supported": APIVersion})
	}
	if doc.Kind != "" && doc.Kind != Kind {
		return nil, apperrors.NewWithContext(apperrors.ErrCodeInvalidRequest, "unsupported manifest kind",
			map[string]any{"kind": doc.Kind})
	}

	m := &Manifest{
		doc:    doc,
		direct: make(map[string][]string, len(doc.Bundles)),
		all:    make(map[string][]string, len(doc.Bundles)),
	}

	for _, e := range doc.Bundles {
		if strings.TrimSpace(e.Name) == "" {
			return nil, apperrors.New(apperrors.ErrCodeInvalidRequest, "manifest entry has empty name")
		}
		if _, exists := m.direct[e.Name]; exists {
			return nil, apperrors.NewWithContext(apperrors.ErrCodeInvalidRequest, "duplicate manifest entry",
				map[string]any{"bundle": e.Name})
		}
		m.direct[e.Name] = append([]string(nil), e.Dependencies...)
	}

	for _, e := range doc.Bundles {
		for _, dep := range e.Dependencies {
			if dep == e.Name {
				return nil, apperrors.WrapWithContext(apperrors.ErrCodeInvalidRequest, "invalid manifest",
					CycleDetectedError{Path: []string{e.Name, e.Name}}, map[string]any{"bundle": e.Name})
			}
			if _, ok := m.direct[dep]; !ok {
				return nil, apperrors.NewWithContext(apperrors.ErrCodeInvalidRequest, "manifest dependency not declared",
					map[string]any{"bundle": e.Name, "dependency": dep})
			}
		}
	}

	if err := m.expand(); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInvalidRequest, "invalid manifest", err)
	}
	return m, nil
}

// expand computes every bundle's transitive dependencies in dependency-first
// order, failing on cycles.
func (m *Manifest) expand() error {
	const (
		stateNew uint8 = iota
		stateVisiting
		stateDone
	)

	state := make(map[string]uint8, len(m.direct))
	stack := make([]string, 0, len(m.direct))

	var visit func(name string) error
	visit = func(name string) error {
		switch state[name] {
		case stateDone:
			return nil
		case stateVisiting:
			pos := 0
			for i := range stack {
				if stack[i] == name {
					pos = i
					break
				}
			}
			cycle := append(append([]string(nil), stack[pos:]...), name)
			return CycleDetectedError{Path: cycle}
		}

		state[name] = stateVisiting
		stack = append(stack, name)

		seen := make(map[string]struct{})
		closure := make([]string, 0)
		for _, dep := range m.direct[name] {
			if err := visit(dep); err != nil {
				return err
			}
			for _, d := range append(append([]string(nil), m.all[dep]...), dep) {
				if _, ok := seen[d]; ok {
					continue
				}
				seen[d] = struct{}{}
				closure = append(closure, d)
			}
		}

		stack = stack[:len(stack)-1]
		state[name] = stateDone
		m.all[name] = closure
		return nil
	}

	for _, e := range m.doc.Bundles {
		if err := visit(e.Name); err != nil {
			return err
		}
	}
	return nil
}

// AllDependencies returns the transitive dependencies of name, excluding
// name itself, dependencies first. Unknown names have no dependencies.
// The returned slice is a copy.
func (m *Manifest) AllDependencies(name string) []string {
	if m == nil {
		return nil
	}
	return append([]string(nil), m.all[name]...)
}

// DirectDependencies returns the declared dependencies of name.
func (m *Manifest) DirectDependencies(name string) []string {
	if m == nil {
		return nil
	}
	return append([]string(nil), m.direct[name]...)
}

// Has reports whether name is declared in the manifest.
func (m *Manifest) Has(name string) bool {
	if m == nil {
		return false
	}
	_, ok := m.direct[name]
	return ok
}

// Names returns every declared bundle name, sorted.
func (m *Manifest) Names() []string {
	if m == nil {
		return nil
	}
	names := make([]string, 0, len(m.direct))
	for n := range m.direct {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of declared bundles.
func (m *Manifest) Len() int {
	if m == nil {
		return 0
	}
	return len(m.direct)
}

// Document returns a copy of the source document.
func (m *Manifest) Document() Document {
	doc := Document{
		APIVersion: m.doc.APIVersion,
		Kind:       m.doc.Kind,
		Bundles:    make([]Entry, 0, len(m.doc.Bundles)),
	}
	for _, e := range m.doc.Bundles {
		doc.Bundles = append(doc.Bundles, Entry{
			Name:         e.Name,
			Dependencies: append([]string(nil), e.Dependencies...),
		})
	}
	return doc
}

// String implements fmt.Stringer.
func (m *Manifest) String() string {
	return fmt.Sprintf("manifest(%d bundles)", m.Len())
}
