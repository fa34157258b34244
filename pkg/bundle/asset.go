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
	"time"

	"github.com/NVIDIA/asset-bundle-cache/pkg/container"
	apperrors "github.com/NVIDIA/asset-bundle-cache/pkg/errors"
)

// LoadAsset loads assetName from bundleName and decodes it into T.
// []byte and string receive the raw bytes; .json assets are decoded as JSON
// and everything else as YAML.
//
// The bundle must have been loaded with LoadBundle. LoadAsset waits for the
// bundle's physical load to finish and returns a NOT_FOUND error when the
// bundle has no record.
func LoadAsset[T any](ctx context.Context, r *Registry, bundleName, assetName string) (T, error) {
	var zero T

	data, err := r.LoadAssetBytes(ctx, bundleName, assetName)
	if err != nil {
		return zero, err
	}

	v, err := container.Decode[T](assetName, data)
	if err != nil {
		return zero, apperrors.WrapWithContext(apperrors.CodeOf(err), "failed to decode asset", err,
			map[string]any{"bundle": bundleName, "asset": assetName})
	}
	return v, nil
}

// LoadAssetBytes returns the raw bytes of assetName from bundleName.
// The pending asset count of the bundle covers the wait and the read.
func (r *Registry) LoadAssetBytes(ctx context.Context, bundleName, assetName string) ([]byte, error) {
	start := time.Now()

	rec, err := r.acquireAsset(bundleName)
	if err != nil {
		assetLoadsTotal.WithLabelValues(resultError).Inc()
		return nil, err
	}
	defer rec.endAsset()

	data, err := readAsset(ctx, rec, assetName)
	assetLoadsTotal.WithLabelValues(resultLabel(err)).Inc()
	if err != nil {
		slog.Debug("asset load failed",
			"bundle", bundleName,
			"asset", assetName,
			"error", err,
		)
		return nil, err
	}

	slog.Debug("asset loaded",
		"bundle", bundleName,
		"asset", assetName,
		"bytes", len(data),
		"duration", time.Since(start),
	)
	return data, nil
}

func readAsset(ctx context.Context, rec *Record, assetName string) ([]byte, error) {
	h, err := waitHandle(ctx, rec)
	if err != nil {
		return nil, err
	}

	data, err := h.LoadAsset(ctx, assetName)
	if err != nil {
		code := apperrors.CodeOf(err)
		if code == "" {
			code = apperrors.ErrCodeInternal
		}
		return nil, apperrors.WrapWithContext(code, "failed to load asset", err,
			map[string]any{"bundle": rec.Name(), "asset": assetName})
	}
	return data, nil
}

// waitHandle waits for rec's physical load and returns its container.
// The caller must hold a pending asset load on rec.
func waitHandle(ctx context.Context, rec *Record) (container.Handle, error) {
	if err := rec.Wait(ctx); err != nil {
		return nil, err
	}
	h := rec.currentHandle()
	if h == nil {
		return nil, apperrors.NewWithContext(apperrors.ErrCodeNotFound, "bundle not loaded",
			map[string]any{"bundle": rec.Name()})
	}
	return h, nil
}
