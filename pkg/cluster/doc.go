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

// Package cluster rebuilds the topology of a Ceph cluster from a snapshot.
//
// Load reads artifacts only and runs single-threaded. The steps are:
//
//  1. The placement hierarchy from master/osd_tree, indexed into an
//     immutable Tree with parent and host links.
//  2. The placement group distribution from master/pg_dump, with pool
//     names from master/osd_lspools. A missing dump leaves it nil.
//  3. OSD records from the osd nodes of the tree, with device stats,
//     daemon state and configuration when those were collected.
//  4. Per host device load from iostat, with partitions rolled up onto
//     their whole devices.
//  5. Host adapters and the addresses they use on the cluster and public
//     networks, taken from the configuration of an alive OSD.
//  6. Pools from the pool listing merged with rados df by pool id.
//
// Inconsistencies in steps 1 and 6 fail the whole load with
// ErrCodeInconsistent. Steps 2 to 5 degrade the affected field to nil.
//
// Usage:
//
//	store, err := artifact.Open(dir)
//	if err != nil {
//	    return err
//	}
//	c, err := cluster.Load(store)
package cluster
