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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Physical bundle load metrics
	bundleLoadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bundlecache_bundle_loads_total",
			Help: "Total number of physical bundle loads by result",
		},
		[]string{"result"},
	)

	bundleLoadDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "bundlecache_bundle_load_duration_seconds",
			Help:    "Duration of physical bundle loads in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	bundlesResident = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "bundlecache_bundles_resident",
			Help: "Current number of bundle records with a non-zero reference count",
		},
	)

	bundleEvictionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bundlecache_bundle_evictions_total",
			Help: "Total number of bundle records removed after their reference count reached zero",
		},
	)

	unbalancedUnloadsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bundlecache_unbalanced_unloads_total",
			Help: "Total number of unload calls on records whose reference count was already zero",
		},
	)

	// Asset load metrics
	assetLoadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bundlecache_asset_loads_total",
			Help: "Total number of asset loads by result",
		},
		[]string{"result"},
	)

	assetLoadsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "bundlecache_asset_loads_in_flight",
			Help: "Current number of asset loads waiting on or reading a bundle",
		},
	)

	// Manifest metrics
	manifestLoadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bundlecache_manifest_loads_total",
			Help: "Total number of manifest loads by result",
		},
		[]string{"result"},
	)
)

const (
	resultSuccess = "success"
	resultError   = "error"
)

func resultLabel(err error) string {
	if err != nil {
		return resultError
	}
	return resultSuccess
}
