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
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	apperrors "github.com/NVIDIA/cephsnap/pkg/errors"
)

// PGStat is the subset of a pg dump entry the builder reads.
type PGStat struct {
	PGID   string `json:"pgid"`
	Acting []int  `json:"acting"`
}

// pgDump accepts both the legacy layout with pg_stats at the top level and
// the newer one nesting them under pg_map.
type pgDump struct {
	PGStats []PGStat `json:"pg_stats"`
	PGMap   struct {
		PGStats []PGStat `json:"pg_stats"`
	} `json:"pg_map"`
}

func (d pgDump) stats() []PGStat {
	if len(d.PGStats) > 0 {
		return d.PGStats
	}
	return d.PGMap.PGStats
}

// noOSD fills acting set slots of erasure coded pgs that have no osd.
const noOSD = 0x7fffffff

// PGDistribution counts acting set memberships per osd and pool.
// SumPerPool counts each placement group once, whatever its replica count,
// so it equals the pool's pg_num and can be compared with it directly. The
// per-osd sums count every acting replica instead.
type PGDistribution struct {
	ByOSD      map[int]map[string]int `json:"by_osd" yaml:"by_osd"`
	SumPerOSD  map[int]int            `json:"sum_per_osd" yaml:"sum_per_osd"`
	SumPerPool map[string]int         `json:"sum_per_pool" yaml:"sum_per_pool"`
}

// OSDCount returns the number of placement groups osd id serves.
func (d *PGDistribution) OSDCount(id int) *int {
	if d == nil {
		return nil
	}
	n := d.SumPerOSD[id]
	return &n
}

// NewPGDistribution builds the distribution from pg dump entries. poolNames
// maps pool ids to names; an unknown id is reported under its number.
func NewPGDistribution(stats []PGStat, poolNames map[int]string) (*PGDistribution, error) {
	d := &PGDistribution{
		ByOSD:      make(map[int]map[string]int),
		SumPerOSD:  make(map[int]int),
		SumPerPool: make(map[string]int),
	}

	unknown := make(map[int]bool)
	for _, pg := range stats {
		prefix, _, ok := strings.Cut(pg.PGID, ".")
		if !ok {
			return nil, apperrors.New(apperrors.ErrCodeInvalidRequest,
				fmt.Sprintf("malformed pgid %q", pg.PGID))
		}
		poolID, err := strconv.Atoi(prefix)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrCodeInvalidRequest,
				fmt.Sprintf("malformed pgid %q", pg.PGID), err)
		}

		pool, ok := poolNames[poolID]
		if !ok {
			pool = strconv.Itoa(poolID)
			if !unknown[poolID] {
				unknown[poolID] = true
				slog.Warn("pg references pool missing from pool listing", slog.Int("pool", poolID))
			}
		}

		for _, osd := range pg.Acting {
			if osd == noOSD {
				continue
			}
			if d.ByOSD[osd] == nil {
				d.ByOSD[osd] = make(map[string]int)
			}
			d.ByOSD[osd][pool]++
			d.SumPerOSD[osd]++
		}
		d.SumPerPool[pool]++
	}
	return d, nil
}
