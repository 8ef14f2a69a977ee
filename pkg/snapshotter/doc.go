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

// Package snapshotter runs a complete Ceph cluster snapshot.
//
// # Overview
//
// ClusterSnapshotter.Measure drives one run end to end:
//
//  1. discover the master, monitor, OSD and host targets from the control
//     plane (failure here is fatal)
//  2. plan one job per collector and target and run them on the worker pool
//  3. write every artifact through a single sink into a scratch directory
//  4. record meta/run.json (header, run id, timings, job and artifact counts)
//     and meta/metrics.txt (Prometheus text exposition)
//  5. pack the directory into a gzip tar and optionally push it to an OCI
//     registry
//
// Failing commands and failing jobs do not fail the run. They are visible in
// the snapshot as .err artifacts and in the counts of meta/run.json.
//
// # Usage
//
//	cfg, err := config.Load(path)
//	if err != nil {
//	    return err
//	}
//	s := &snapshotter.ClusterSnapshotter{Version: version, Config: cfg}
//	res, err := s.Measure(ctx)
//	if err != nil {
//	    return err
//	}
//	fmt.Println(res.Archive.Path)
//
// # Metrics
//
//	cephsnap_snapshot_duration_seconds        histogram
//	cephsnap_snapshot_total{status}           counter
//	cephsnap_snapshot_phase_duration_seconds  histogram by phase
//	cephsnap_snapshot_nodes{role}             gauge
package snapshotter
