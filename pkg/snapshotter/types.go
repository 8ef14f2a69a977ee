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
	"context"
	"time"

	"github.com/NVIDIA/cephsnap/pkg/archive"
	"github.com/NVIDIA/cephsnap/pkg/artifact"
	"github.com/NVIDIA/cephsnap/pkg/header"
	"github.com/NVIDIA/cephsnap/pkg/oci"
	"github.com/NVIDIA/cephsnap/pkg/scheduler"
)

// Snapshotter captures a cluster snapshot.
type Snapshotter interface {
	Measure(ctx context.Context) (*Result, error)
}

// Run is the record written to meta/run.json inside every snapshot.
type Run struct {
	header.Header `json:",inline" yaml:",inline"`

	// ID uniquely identifies the run.
	ID string `json:"id" yaml:"id"`

	StartedAt  time.Time `json:"startedAt" yaml:"startedAt"`
	FinishedAt time.Time `json:"finishedAt" yaml:"finishedAt"`

	// Nodes counts discovered targets per role.
	Nodes map[string]int `json:"nodes" yaml:"nodes"`

	// Collectors lists the collectors that were scheduled.
	Collectors []string `json:"collectors" yaml:"collectors"`

	Jobs      scheduler.Report `json:"jobs" yaml:"jobs"`
	Artifacts artifact.Stats   `json:"artifacts" yaml:"artifacts"`
}

// Result describes what Measure produced.
type Result struct {
	Run     *Run            `json:"run" yaml:"run"`
	Archive *archive.Result `json:"archive" yaml:"archive"`

	// Dir is the snapshot directory when it was kept, empty otherwise.
	Dir string `json:"dir,omitempty" yaml:"dir,omitempty"`

	// Push is set when the archive was published.
	Push *oci.PushResult `json:"push,omitempty" yaml:"push,omitempty"`
}
