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

package parser

import (
	"fmt"
	"strconv"
	"strings"
)

// DFRow is one row of `df` output, sizes in 1K blocks.
type DFRow struct {
	Filesystem string `json:"filesystem" yaml:"filesystem"`
	Blocks     uint64 `json:"blocks" yaml:"blocks"`
	Used       uint64 `json:"used" yaml:"used"`
	Available  uint64 `json:"available" yaml:"available"`
	UsePercent int    `json:"use_percent" yaml:"use_percent"`
	MountedOn  string `json:"mounted_on" yaml:"mounted_on"`
}

// ParseDF parses `df` output. The header line is skipped and rows wrapped
// onto two lines, as df does for long device names, are joined.
func ParseDF(data []byte) ([]DFRow, error) {
	lines, err := NewParser().Lines(data)
	if err != nil {
		return nil, err
	}
	if len(lines) > 0 && strings.HasPrefix(lines[0], "Filesystem") {
		lines = lines[1:]
	}

	var rows []DFRow
	var pending []string
	for _, line := range lines {
		f := append(pending, strings.Fields(line)...)
		if len(f) < 6 {
			pending = f
			continue
		}
		pending = nil

		row := DFRow{
			Filesystem: f[0],
			MountedOn:  strings.Join(f[5:], " "),
		}
		nums := []*uint64{&row.Blocks, &row.Used, &row.Available}
		for i, p := range nums {
			v, err := strconv.ParseUint(f[i+1], 10, 64)
			if err != nil {
				return nil, fmt.Errorf("df %s column %d: %w", f[0], i+2, err)
			}
			*p = v
		}
		pct, err := strconv.Atoi(strings.TrimSuffix(f[4], "%"))
		if err != nil {
			return nil, fmt.Errorf("df %s use%%: %w", f[0], err)
		}
		row.UsePercent = pct
		rows = append(rows, row)
	}
	if len(pending) > 0 {
		return nil, fmt.Errorf("df output ends with a partial row: %q", strings.Join(pending, " "))
	}
	return rows, nil
}
