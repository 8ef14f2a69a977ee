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

// Package collector implements the role collectors that gather a Ceph
// cluster snapshot.
//
// # Collectors
//
// Each collector offers one handler per discovery role it supports:
//
//   - ceph: master (control-plane dumps, pool settings, crush map), osd
//     (admin socket config, daemon state, data and journal device checks)
//     and monitor (daemon state).
//   - node: host hardware and kernel state (lshw, /proc files, ip a, ...).
//   - performance: vmstat, iostat and top sampled on every host. Enabled
//     when the sampling duration is positive.
//
// # Emission
//
// Handlers run commands through an Emitter that checks the Settings
// denylist first, so a disabled path never runs its command. Every command
// result, failed or not, becomes exactly one artifact.
//
// A step whose output a later step needs (osd lspools, the OSD admin socket
// config, the df/readlink/rotational reads of a device) is a prerequisite: when
// it fails the handler records the failure and returns an error, which the
// scheduler logs without affecting other jobs.
//
// # Usage
//
//	factory := collector.NewDefaultFactory(runner, sink,
//	    collector.WithCeph(cfg.Ceph),
//	    collector.WithStatCollectSeconds(0),
//	)
//	jobs := scheduler.Plan(factory.Collectors(), nodes)
package collector
