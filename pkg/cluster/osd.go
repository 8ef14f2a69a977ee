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
	"strconv"
	"strings"

	"github.com/NVIDIA/cephsnap/pkg/collector"
)

// DaemonState is what the process listing says about an osd daemon.
type DaemonState string

const (
	DaemonRunning DaemonState = "running"
	DaemonStopped DaemonState = "stopped"
	DaemonUnknown DaemonState = "unknown"
)

// OSDPerf holds the latencies reported by osd perf.
type OSDPerf struct {
	CommitLatencyMs float64 `json:"commit_latency_ms" yaml:"commit_latency_ms"`
	ApplyLatencyMs  float64 `json:"apply_latency_ms" yaml:"apply_latency_ms"`
}

// OSD is one storage daemon. Pointer fields are nil when the data was not
// collected.
type OSD struct {
	ID           int                    `json:"id" yaml:"id"`
	Name         string                 `json:"name" yaml:"name"`
	Status       string                 `json:"status" yaml:"status"`
	Host         string                 `json:"host" yaml:"host"`
	CrushWeight  float64                `json:"crush_weight" yaml:"crush_weight"`
	Reweight     float64                `json:"reweight" yaml:"reweight"`
	DataStats    *collector.DeviceStats `json:"data_stats" yaml:"data_stats"`
	JournalStats *collector.DeviceStats `json:"journal_stats" yaml:"journal_stats"`
	PGCount      *int                   `json:"pg_count" yaml:"pg_count"`
	Daemon       DaemonState            `json:"daemon" yaml:"daemon"`
	Perf         *OSDPerf               `json:"perf,omitempty" yaml:"perf,omitempty"`

	// Config is the daemon's running configuration. It is large and left
	// out of exports.
	Config map[string]any `json:"-" yaml:"-"`
}

// Up reports whether the monitors consider the osd up.
func (o *OSD) Up() bool {
	return o.Status == "up"
}

// Alive reports whether the osd is up, its daemon was seen running and its
// configuration was collected.
func (o *OSD) Alive() bool {
	return o.Up() && o.Daemon == DaemonRunning && o.Config != nil
}

// ConfigString returns a string configuration value.
func (o *OSD) ConfigString(key string) (string, bool) {
	v, ok := o.Config[key].(string)
	return v, ok
}

// DaemonStateFrom scans process listing output for the daemon of osd id.
func DaemonStateFrom(listing string, id int) DaemonState {
	want := strconv.Itoa(id)
	for _, line := range strings.Split(listing, "\n") {
		if !strings.Contains(line, "ceph-osd") {
			continue
		}
		fields := strings.Fields(line)
		for i, f := range fields {
			switch {
			case (f == "-i" || f == "--id") && i+1 < len(fields) && fields[i+1] == want:
				return DaemonRunning
			case f == "--id="+want || f == "-i"+want:
				return DaemonRunning
			}
		}
	}
	return DaemonStopped
}

// osdPerf accepts both the legacy flat layout and the one nested under
// osdstats.
type osdPerf struct {
	Infos    []osdPerfInfo `json:"osd_perf_infos"`
	OSDStats struct {
		Infos []osdPerfInfo `json:"osd_perf_infos"`
	} `json:"osdstats"`
}

type osdPerfInfo struct {
	ID    int     `json:"id"`
	Stats OSDPerf `json:"perf_stats"`
}

func (p osdPerf) byID() map[int]OSDPerf {
	infos := p.Infos
	if len(infos) == 0 {
		infos = p.OSDStats.Infos
	}
	out := make(map[int]OSDPerf, len(infos))
	for _, i := range infos {
		out[i.ID] = i.Stats
	}
	return out
}
