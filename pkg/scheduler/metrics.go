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

package scheduler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	jobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cephsnap_job_duration_seconds",
			Help:    "Time taken by individual collection jobs",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120},
		},
		[]string{"collector", "role"},
	)

	jobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cephsnap_jobs_total",
			Help: "Collection jobs by outcome",
		},
		[]string{"collector", "role", "status"}, // success, error, panic, skipped
	)

	workersBusy = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cephsnap_workers_busy",
			Help: "Workers currently running a collection job",
		},
	)
)
