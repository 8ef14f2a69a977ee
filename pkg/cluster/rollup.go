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

package cluster

import (
	"sort"

	"github.com/NVIDIA/cephsnap/pkg/parser"
)

// summedMetrics are added sample by sample when several partitions share a
// device.
var summedMetrics = []string{"r/s", "w/s", "rkB/s", "wkB/s"}

const utilMetric = "util"

// RollupPartitions folds partition series onto their whole devices. A device
// with one partition gets a renamed copy of it. With several, throughput and
// iops are summed and utilization is summed then capped at 100, so two
// saturated partitions report 100 rather than 200. This is an
// approximation. Whole-device series pass through unless a rollup
// replaces them.
//
// A series is a partition when its kernel name says so and its disk is
// known, either as another series or as a diskstats record. Without
// diskstats the name alone decides.
func RollupPartitions(series map[string]*parser.DeviceSeries, disks map[string]parser.DiskStats) map[string]*parser.DeviceSeries {
	known := func(dev string) bool {
		if len(disks) == 0 {
			return true
		}
		_, inSeries := series[dev]
		_, inDisks := disks[dev]
		return inSeries || inDisks
	}

	out := make(map[string]*parser.DeviceSeries, len(series))
	parts := make(map[string][]string)
	for name, s := range series {
		dev, ok := parser.PartitionParent(name)
		if !ok || !known(dev) {
			out[name] = s.Clone()
			continue
		}
		parts[dev] = append(parts[dev], name)
	}

	for dev, names := range parts {
		if len(names) == 1 {
			c := series[names[0]].Clone()
			c.Name = dev
			out[dev] = c
			continue
		}

		sort.Strings(names)
		members := make([]*parser.DeviceSeries, len(names))
		for i, n := range names {
			members[i] = series[n]
		}

		rolled := &parser.DeviceSeries{Name: dev, Values: make(map[string][]float64, len(summedMetrics)+1)}
		for _, m := range summedMetrics {
			if sum, ok := sumSamples(members, m); ok {
				rolled.Values[m] = sum
			}
		}
		if util, ok := sumSamples(members, utilMetric); ok {
			for i, v := range util {
				util[i] = min(v, 100)
			}
			rolled.Values[utilMetric] = util
		}
		out[dev] = rolled
	}
	return out
}

// sumSamples adds metric across members up to the shortest series. It fails
// when a member lacks the metric.
func sumSamples(members []*parser.DeviceSeries, metric string) ([]float64, bool) {
	n := -1
	for _, m := range members {
		v, ok := m.Values[metric]
		if !ok {
			return nil, false
		}
		if n < 0 || len(v) < n {
			n = len(v)
		}
	}

	sum := make([]float64, n)
	for _, m := range members {
		for i, v := range m.Values[metric][:n] {
			sum[i] += v
		}
	}
	return sum, true
}
