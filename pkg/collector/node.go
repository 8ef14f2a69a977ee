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

package collector

import (
	"context"
	"fmt"

	"github.com/NVIDIA/cephsnap/pkg/artifact"
	"github.com/NVIDIA/cephsnap/pkg/defaults"
	"github.com/NVIDIA/cephsnap/pkg/discovery"
	"github.com/NVIDIA/cephsnap/pkg/scheduler"
)

type nodeCommand struct {
	name   string
	format artifact.Format
	cmd    string
}

var nodeCommands = []nodeCommand{
	{"lshw", artifact.FormatXML, "lshw -xml"},
	{"lsblk", artifact.FormatText, "lsblk -a"},
	{"diskstats", artifact.FormatText, "cat /proc/diskstats"},
	{"uname", artifact.FormatText, "uname -a"},
	{"dmidecode", artifact.FormatText, "dmidecode"},
	{"meminfo", artifact.FormatText, "cat /proc/meminfo"},
	{"loadavg", artifact.FormatText, "cat /proc/loadavg"},
	{"cpuinfo", artifact.FormatText, "cat /proc/cpuinfo"},
	{"mount", artifact.FormatText, "mount"},
	{"ipa", artifact.FormatText, "ip a"},
	{"netdev", artifact.FormatText, "cat /proc/net/dev"},
	{"uptime", artifact.FormatText, "cat /proc/uptime"},
}

// NodeCollector collects hardware and kernel state of every host.
type NodeCollector struct {
	emitter *Emitter
}

// Name implements scheduler.Collector.
func (c *NodeCollector) Name() string {
	return "node"
}

// Handlers implements scheduler.Collector.
func (c *NodeCollector) Handlers() map[discovery.Role]scheduler.Func {
	return map[discovery.Role]scheduler.Func{
		discovery.RoleHost: c.collectHost,
	}
}

func (c *NodeCollector) collectHost(ctx context.Context, t discovery.Target) error {
	for _, nc := range nodeCommands {
		c.emitter.Remote(ctx, t.Node, artifact.Join("hosts", t.Node, nc.name), nc.format, nc.cmd)
	}
	return nil
}

// PerformanceCollector samples vmstat, iostat and top on every host for a
// fixed number of seconds.
type PerformanceCollector struct {
	emitter *Emitter
	seconds int
}

// Name implements scheduler.Collector.
func (c *PerformanceCollector) Name() string {
	return "performance"
}

// Handlers implements scheduler.Collector.
func (c *PerformanceCollector) Handlers() map[discovery.Role]scheduler.Func {
	return map[discovery.Role]scheduler.Func{
		discovery.RoleHost: c.collectHost,
	}
}

func (c *PerformanceCollector) collectHost(ctx context.Context, t discovery.Target) error {
	base := artifact.Join("hosts", t.Node)
	c.emitter.Remote(ctx, t.Node, base+"/vmstat", artifact.FormatText,
		fmt.Sprintf("vmstat 1 %d", c.seconds))
	c.emitter.Remote(ctx, t.Node, base+"/iostat", artifact.FormatText,
		fmt.Sprintf("iostat -x 1 %d", c.seconds))
	c.emitter.Remote(ctx, t.Node, base+"/top", artifact.FormatText,
		fmt.Sprintf("top -b -d %d -n %d", c.seconds, defaults.TopIterations))
	return nil
}
