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

// DeviceSeries is the per-sample history of one device's `iostat -x`
// columns. Every slice in Values has one entry per report.
type DeviceSeries struct {
	Name   string               `json:"name" yaml:"name"`
	Values map[string][]float64 `json:"values" yaml:"values"`
}

// Clone returns a deep copy of s.
func (s *DeviceSeries) Clone() *DeviceSeries {
	c := &DeviceSeries{Name: s.Name, Values: make(map[string][]float64, len(s.Values))}
	for k, v := range s.Values {
		c.Values[k] = append([]float64(nil), v...)
	}
	return c
}

// iostat column names are normalized: "%util" becomes "util".
func columnName(col string) string {
	return strings.TrimPrefix(col, "%")
}

// ParseIOStat parses `iostat -x` output. Each "Device" header starts a new
// report; the rows that follow append one sample per device. CPU sections
// are ignored.
func ParseIOStat(data []byte) (map[string]*DeviceSeries, error) {
	lines := strings.Split(string(data), "\n")

	result := make(map[string]*DeviceSeries)
	var columns []string
	for n, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" {
			columns = nil
			continue
		}

		f := strings.Fields(line)
		if strings.TrimSuffix(f[0], ":") == "Device" {
			columns = make([]string, len(f)-1)
			for i, c := range f[1:] {
				columns[i] = columnName(c)
			}
			continue
		}
		if columns == nil {
			continue
		}
		if len(f)-1 != len(columns) {
			return nil, fmt.Errorf("iostat line %d has %d values, want %d", n+1, len(f)-1, len(columns))
		}

		dev, ok := result[f[0]]
		if !ok {
			dev = &DeviceSeries{Name: f[0], Values: make(map[string][]float64, len(columns))}
			result[f[0]] = dev
		}
		for i, s := range f[1:] {
			v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
			if err != nil {
				return nil, fmt.Errorf("iostat line %d column %s: %w", n+1, columns[i], err)
			}
			dev.Values[columns[i]] = append(dev.Values[columns[i]], v)
		}
	}
	return result, nil
}
