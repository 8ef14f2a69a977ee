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

// Package header provides the common header of cephsnap documents.
//
// Both the run record written to meta/run.json and the cluster model
// printed by inspect start with a Header:
//
//	kind: Cluster
//	apiVersion: cephsnap.nvidia.com/v1alpha1
//	metadata:
//	  timestamp: "2025-01-02T03:04:05Z"
//	  version: v0.3.0
//
// Embed it inline:
//
//	type Run struct {
//	    header.Header `json:",inline" yaml:",inline"`
//	    ID            string `json:"id" yaml:"id"`
//	}
//
//	r := &Run{ID: id}
//	r.Init(header.KindSnapshotRun, version, header.WithMetadata("runId", id))
package header
