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

package snapshotter

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	snapshotDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cephsnap_snapshot_duration_seconds",
			Help:    "Time taken to collect, archive and publish a complete cluster snapshot",
			Buckets: []float64{10, 30, 60, 120, 300, 600, 1800},
		},
	)

	snapshotTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cephsnap_snapshot_total",
			Help: "Total number of snapshot attempts",
		},
		[]string{"status"}, // success or error
	)

	snapshotPhaseDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cephsnap_snapshot_phase_duration_seconds",
			Help:    "Time taken by individual snapshot phases",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 120},
		},
		[]string{"phase"}, // discover, collect, archive, push
	)

	snapshotNodes = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cephsnap_snapshot_nodes",
			Help: "Number of discovered targets per role in the last snapshot",
		},
		[]string{"role"},
	)
)
