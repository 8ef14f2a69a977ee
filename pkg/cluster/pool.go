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
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	apperrors "github.com/NVIDIA/cephsnap/pkg/errors"
)

// PoolUsage holds the per pool counters of rados df.
type PoolUsage struct {
	SizeBytes          uint64 `json:"size_bytes" yaml:"size_bytes"`
	NumObjects         uint64 `json:"num_objects" yaml:"num_objects"`
	NumObjectClones    uint64 `json:"num_object_clones" yaml:"num_object_clones"`
	NumObjectCopies    uint64 `json:"num_object_copies" yaml:"num_object_copies"`
	NumObjectsDegraded uint64 `json:"num_objects_degraded" yaml:"num_objects_degraded"`
	NumObjectsUnfound  uint64 `json:"num_objects_unfound" yaml:"num_objects_unfound"`
	ReadOps            uint64 `json:"read_ops" yaml:"read_ops"`
	ReadBytes          uint64 `json:"read_bytes" yaml:"read_bytes"`
	WriteOps           uint64 `json:"write_ops" yaml:"write_ops"`
	WriteBytes         uint64 `json:"write_bytes" yaml:"write_bytes"`
}

// Pool is a storage pool with its replication settings and usage.
type Pool struct {
	ID        int       `json:"id" yaml:"id"`
	Name      string    `json:"name" yaml:"name"`
	Size      *int      `json:"size" yaml:"size"`
	MinSize   *int      `json:"min_size" yaml:"min_size"`
	CrushRule string    `json:"crush_rule,omitempty" yaml:"crush_rule,omitempty"`
	PGNum     *int      `json:"pg_num,omitempty" yaml:"pg_num,omitempty"`
	Usage     PoolUsage `json:"usage" yaml:"usage"`
}

type lsPool struct {
	Num  int    `json:"poolnum"`
	Name string `json:"poolname"`
}

// poolNames maps pool ids of an osd lspools listing to names.
func poolNames(pools []lsPool) map[int]string {
	out := make(map[int]string, len(pools))
	for _, p := range pools {
		out[p.Num] = p.Name
	}
	return out
}

// radosDF accepts the legacy layout with counters under a single category
// and the newer flat one.
type radosDF struct {
	Pools []radosPool `json:"pools"`
}

type radosPool struct {
	Name       string      `json:"name"`
	ID         int         `json:"id"`
	Categories []PoolUsage `json:"categories"`
	PoolUsage
}

func (p radosPool) usage() (PoolUsage, error) {
	switch len(p.Categories) {
	case 0:
		return p.PoolUsage, nil
	case 1:
		return p.Categories[0], nil
	default:
		return PoolUsage{}, apperrors.New(apperrors.ErrCodeInconsistent,
			fmt.Sprintf("rados df reports %d categories for pool %s", len(p.Categories), p.Name))
	}
}

// osdDumpPool carries replication settings for pools without pool_stats.
type osdDumpPool struct {
	ID        int    `json:"pool"`
	Name      string `json:"pool_name"`
	Size      int    `json:"size"`
	MinSize   int    `json:"min_size"`
	CrushRule *int   `json:"crush_rule"`
	Ruleset   *int   `json:"crush_ruleset"`
	PGNum     int    `json:"pg_num"`
}

// mergePools joins the pool listing with usage counters by id. Both must
// describe the same set of pools.
func mergePools(listing []lsPool, usage radosDF) ([]*Pool, error) {
	byID := make(map[int]*Pool, len(listing))
	for _, l := range listing {
		if _, dup := byID[l.Num]; dup {
			return nil, apperrors.New(apperrors.ErrCodeInconsistent,
				fmt.Sprintf("pool %d listed twice", l.Num))
		}
		byID[l.Num] = &Pool{ID: l.Num, Name: l.Name}
	}

	matched := make(map[int]bool, len(usage.Pools))
	var extra []int
	for _, u := range usage.Pools {
		p, ok := byID[u.ID]
		if !ok {
			extra = append(extra, u.ID)
			continue
		}
		counters, err := u.usage()
		if err != nil {
			return nil, err
		}
		p.Usage = counters
		matched[u.ID] = true
	}

	var missing []int
	for id := range byID {
		if !matched[id] {
			missing = append(missing, id)
		}
	}
	if len(extra) > 0 || len(missing) > 0 {
		sort.Ints(extra)
		sort.Ints(missing)
		return nil, apperrors.NewWithContext(apperrors.ErrCodeInconsistent,
			"pool listing and rados df describe different pools",
			map[string]any{"only_in_listing": missing, "only_in_rados_df": extra})
	}

	pools := make([]*Pool, 0, len(byID))
	for _, p := range byID {
		pools = append(pools, p)
	}
	sort.Slice(pools, func(i, j int) bool { return pools[i].ID < pools[j].ID })
	return pools, nil
}

// applyPoolStats copies replication settings collected per pool name.
func applyPoolStats(pools []*Pool, stats map[string]map[string]json.RawMessage) {
	for _, p := range pools {
		s, ok := stats[p.Name]
		if !ok {
			continue
		}
		p.Size = rawInt(s["size"])
		p.MinSize = rawInt(s["min_size"])
		p.CrushRule = rawString(s["crush_rule"])
	}
}

// applyOSDDump fills settings that pool_stats did not provide.
func applyOSDDump(pools []*Pool, dump []osdDumpPool) {
	byID := make(map[int]osdDumpPool, len(dump))
	for _, d := range dump {
		byID[d.ID] = d
	}
	for _, p := range pools {
		d, ok := byID[p.ID]
		if !ok {
			continue
		}
		if p.Size == nil {
			p.Size = &d.Size
		}
		if p.MinSize == nil {
			p.MinSize = &d.MinSize
		}
		if p.CrushRule == "" {
			switch {
			case d.CrushRule != nil:
				p.CrushRule = strconv.Itoa(*d.CrushRule)
			case d.Ruleset != nil:
				p.CrushRule = strconv.Itoa(*d.Ruleset)
			}
		}
		p.PGNum = &d.PGNum
	}
}

func rawInt(raw json.RawMessage) *int {
	if raw == nil {
		return nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil
	}
	n := int(f)
	return &n
}

// rawString renders a json scalar as text. Crush rules are names on recent
// releases and numbers on older ones.
func rawString(raw json.RawMessage) string {
	if raw == nil {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(raw))
}
