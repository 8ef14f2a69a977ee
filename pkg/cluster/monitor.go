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
	"slices"
	"sort"
)

// Monitor is one ceph monitor daemon.
type Monitor struct {
	Name         string   `json:"name" yaml:"name"`
	Rank         *int     `json:"rank" yaml:"rank"`
	Addr         string   `json:"addr,omitempty" yaml:"addr,omitempty"`
	InQuorum     bool     `json:"in_quorum" yaml:"in_quorum"`
	Health       string   `json:"health,omitempty" yaml:"health,omitempty"`
	Host         string   `json:"host" yaml:"host"`
	KBAvail      *uint64  `json:"kb_avail" yaml:"kb_avail"`
	AvailPercent *float64 `json:"avail_percent" yaml:"avail_percent"`
}

type monStatus struct {
	Quorum []int `json:"quorum"`
	MonMap struct {
		Mons []struct {
			Rank int    `json:"rank"`
			Name string `json:"name"`
			Addr string `json:"addr"`
		} `json:"mons"`
	} `json:"monmap"`
}

type monHealth struct {
	Name         string   `json:"name"`
	Health       string   `json:"health"`
	KBAvail      *uint64  `json:"kb_avail"`
	AvailPercent *float64 `json:"avail_percent"`
}

// buildMonitors merges the monmap with per monitor health from status.
// Either source may be missing. Monitors are named after their host.
func buildMonitors(ms *monStatus, health []monHealth, quorumNames []string) []*Monitor {
	byName := make(map[string]*Monitor)
	get := func(name string) *Monitor {
		m, ok := byName[name]
		if !ok {
			m = &Monitor{Name: name, Host: name}
			byName[name] = m
		}
		return m
	}

	if ms != nil {
		for _, mon := range ms.MonMap.Mons {
			m := get(mon.Name)
			rank := mon.Rank
			m.Rank = &rank
			m.Addr = mon.Addr
			m.InQuorum = slices.Contains(ms.Quorum, rank)
		}
	}
	for _, name := range quorumNames {
		get(name).InQuorum = true
	}
	for _, h := range health {
		m := get(h.Name)
		m.Health = h.Health
		m.KBAvail = h.KBAvail
		m.AvailPercent = h.AvailPercent
	}

	out := make([]*Monitor, 0, len(byName))
	for _, m := range byName {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
