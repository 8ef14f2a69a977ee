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

package artifact

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	artifactsWritten = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cephsnap_artifacts_written_total",
			Help: "Artifacts written to the snapshot directory",
		},
		[]string{"format"},
	)

	artifactsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cephsnap_artifacts_rejected_total",
			Help: "Artifacts not written to the snapshot directory",
		},
		[]string{"reason"}, // duplicate, invalid_path, io
	)

	artifactBytes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cephsnap_artifact_bytes_total",
			Help: "Payload bytes written to the snapshot directory",
		},
	)
)
