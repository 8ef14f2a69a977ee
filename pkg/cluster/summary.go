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
	"strconv"
	"strings"
	"time"

	"github.com/NVIDIA/cephsnap/pkg/version"
)

// HealthMessage is one health check or legacy summary line.
type HealthMessage struct {
	Severity string `json:"severity" yaml:"severity"`
	Summary  string `json:"summary" yaml:"summary"`
}

// Summary holds cluster wide figures.
type Summary struct {
	CollectedAtLocal string           `json:"collected_at_local,omitempty" yaml:"collected_at_local,omitempty"`
	CollectedAtUTC   string           `json:"collected_at_utc,omitempty" yaml:"collected_at_utc,omitempty"`
	CollectedAt      *time.Time       `json:"collected_at,omitempty" yaml:"collected_at,omitempty"`
	Release          *version.Release `json:"release,omitempty" yaml:"release,omitempty"`
	OverallStatus    string           `json:"overall_status" yaml:"overall_status"`
	HealthSummary    []HealthMessage  `json:"health_summary,omitempty" yaml:"health_summary,omitempty"`
	NumPGs           int              `json:"num_pgs" yaml:"num_pgs"`
	BytesUsed        uint64           `json:"bytes_used" yaml:"bytes_used"`
	BytesTotal       uint64           `json:"bytes_total" yaml:"bytes_total"`
	BytesAvail       uint64           `json:"bytes_avail" yaml:"bytes_avail"`
	DataBytes        uint64           `json:"data_bytes" yaml:"data_bytes"`
	WriteBytesSec    uint64           `json:"write_bytes_sec" yaml:"write_bytes_sec"`
	OpPerSec         uint64           `json:"op_per_sec" yaml:"op_per_sec"`
}

// cephStatus covers the parts of ceph status the builder reads, in both the
// pre-luminous and the current health layout.
type cephStatus struct {
	Health struct {
		Status        string `json:"status"`
		OverallStatus string `json:"overall_status"`
		Summary       []struct {
			Severity string `json:"severity"`
			Summary  string `json:"summary"`
		} `json:"summary"`
		Checks map[string]struct {
			Severity string `json:"severity"`
			Summary  struct {
				Message string `json:"message"`
			} `json:"summary"`
		} `json:"checks"`
		Health struct {
			Services []struct {
				Mons []monHealth `json:"mons"`
			} `json:"health_services"`
		} `json:"health"`
	} `json:"health"`
	QuorumNames []string `json:"quorum_names"`
	PGMap       struct {
		NumPGs        int    `json:"num_pgs"`
		BytesUsed     uint64 `json:"bytes_used"`
		BytesTotal    uint64 `json:"bytes_total"`
		BytesAvail    uint64 `json:"bytes_avail"`
		DataBytes     uint64 `json:"data_bytes"`
		WriteBytesSec uint64 `json:"write_bytes_sec"`
		OpPerSec      uint64 `json:"op_per_sec"`
		ReadOpPerSec  uint64 `json:"read_op_per_sec"`
		WriteOpPerSec uint64 `json:"write_op_per_sec"`
	} `json:"pgmap"`
}

func (s *cephStatus) monHealth() []monHealth {
	var out []monHealth
	for _, svc := range s.Health.Health.Services {
		out = append(out, svc.Mons...)
	}
	return out
}

func (s *cephStatus) summary() Summary {
	sum := Summary{
		OverallStatus: s.Health.Status,
		NumPGs:        s.PGMap.NumPGs,
		BytesUsed:     s.PGMap.BytesUsed,
		BytesTotal:    s.PGMap.BytesTotal,
		BytesAvail:    s.PGMap.BytesAvail,
		DataBytes:     s.PGMap.DataBytes,
		WriteBytesSec: s.PGMap.WriteBytesSec,
		OpPerSec:      s.PGMap.OpPerSec,
	}
	if sum.OverallStatus == "" {
		sum.OverallStatus = s.Health.OverallStatus
	}
	if sum.OpPerSec == 0 {
		sum.OpPerSec = s.PGMap.ReadOpPerSec + s.PGMap.WriteOpPerSec
	}

	for _, m := range s.Health.Summary {
		sum.HealthSummary = append(sum.HealthSummary, HealthMessage{Severity: m.Severity, Summary: m.Summary})
	}
	names := make([]string, 0, len(s.Health.Checks))
	for name := range s.Health.Checks {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		c := s.Health.Checks[name]
		sum.HealthSummary = append(sum.HealthSummary, HealthMessage{Severity: c.Severity, Summary: c.Summary.Message})
	}
	return sum
}

// applyCollectedAt reads the local time, utc time and unix seconds lines
// written at collection.
func (s *Summary) applyCollectedAt(text string) {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	if len(lines) > 0 {
		s.CollectedAtLocal = strings.TrimSpace(lines[0])
	}
	if len(lines) > 1 {
		s.CollectedAtUTC = strings.TrimSpace(lines[1])
	}
	if len(lines) > 2 {
		if sec, err := strconv.ParseInt(strings.TrimSpace(lines[2]), 10, 64); err == nil {
			t := time.Unix(sec, 0).UTC()
			s.CollectedAt = &t
		}
	}
}

// applyVersion records the release named by the `ceph version` banner.
func (s *Summary) applyVersion(banner string) error {
	r, err := version.ParseBanner(banner)
	if err != nil {
		return err
	}
	s.Release = r
	return nil
}
