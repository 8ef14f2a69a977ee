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

// DiskStats is one /proc/diskstats record.
type DiskStats struct {
	Major            uint64 `json:"major" yaml:"major"`
	Minor            uint64 `json:"minor" yaml:"minor"`
	Device           string `json:"device" yaml:"device"`
	ReadsCompleted   uint64 `json:"reads_completed" yaml:"reads_completed"`
	ReadsMerged      uint64 `json:"reads_merged" yaml:"reads_merged"`
	SectorsRead      uint64 `json:"sectors_read" yaml:"sectors_read"`
	ReadTimeMs       uint64 `json:"read_time_ms" yaml:"read_time_ms"`
	WritesCompleted  uint64 `json:"writes_completed" yaml:"writes_completed"`
	WritesMerged     uint64 `json:"writes_merged" yaml:"writes_merged"`
	SectorsWritten   uint64 `json:"sectors_written" yaml:"sectors_written"`
	WriteTimeMs      uint64 `json:"write_time_ms" yaml:"write_time_ms"`
	InProgressIO     uint64 `json:"in_progress_io" yaml:"in_progress_io"`
	IOTimeMs         uint64 `json:"io_time_ms" yaml:"io_time_ms"`
	WeightedIOTimeMs uint64 `json:"weighted_io_time_ms" yaml:"weighted_io_time_ms"`
}

// diskstatsFields is the number of leading fields every kernel reports.
// Newer kernels append discard and flush counters, which are ignored.
const diskstatsFields = 14

// ParseDiskstats parses /proc/diskstats into records keyed by device name.
func ParseDiskstats(data []byte) (map[string]DiskStats, error) {
	lines, err := NewParser().Lines(data)
	if err != nil {
		return nil, err
	}

	result := make(map[string]DiskStats, len(lines))
	for _, line := range lines {
		f := strings.Fields(line)
		if len(f) < diskstatsFields {
			return nil, fmt.Errorf("diskstats line has %d fields, want at least %d: %q", len(f), diskstatsFields, line)
		}

		nums := make([]uint64, 0, diskstatsFields-1)
		for i, s := range f[:diskstatsFields] {
			if i == 2 {
				continue
			}
			v, err := strconv.ParseUint(s, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("diskstats field %d of %q: %w", i+1, f[2], err)
			}
			nums = append(nums, v)
		}

		result[f[2]] = DiskStats{
			Major:            nums[0],
			Minor:            nums[1],
			Device:           f[2],
			ReadsCompleted:   nums[2],
			ReadsMerged:      nums[3],
			SectorsRead:      nums[4],
			ReadTimeMs:       nums[5],
			WritesCompleted:  nums[6],
			WritesMerged:     nums[7],
			SectorsWritten:   nums[8],
			WriteTimeMs:      nums[9],
			InProgressIO:     nums[10],
			IOTimeMs:         nums[11],
			WeightedIOTimeMs: nums[12],
		}
	}
	return result, nil
}

// NetStats holds the 16 /proc/net/dev counters of one adapter.
type NetStats struct {
	RecvBytes      uint64 `json:"recv_bytes" yaml:"recv_bytes"`
	RecvPackets    uint64 `json:"recv_packets" yaml:"recv_packets"`
	RecvErrs       uint64 `json:"recv_errs" yaml:"recv_errs"`
	RecvDrop       uint64 `json:"recv_drop" yaml:"recv_drop"`
	RecvFifo       uint64 `json:"recv_fifo" yaml:"recv_fifo"`
	RecvFrame      uint64 `json:"recv_frame" yaml:"recv_frame"`
	RecvCompressed uint64 `json:"recv_compressed" yaml:"recv_compressed"`
	RecvMulticast  uint64 `json:"recv_multicast" yaml:"recv_multicast"`
	SendBytes      uint64 `json:"send_bytes" yaml:"send_bytes"`
	SendPackets    uint64 `json:"send_packets" yaml:"send_packets"`
	SendErrs       uint64 `json:"send_errs" yaml:"send_errs"`
	SendDrop       uint64 `json:"send_drop" yaml:"send_drop"`
	SendFifo       uint64 `json:"send_fifo" yaml:"send_fifo"`
	SendColls      uint64 `json:"send_colls" yaml:"send_colls"`
	SendCarrier    uint64 `json:"send_carrier" yaml:"send_carrier"`
	SendCompressed uint64 `json:"send_compressed" yaml:"send_compressed"`
}

const netdevCounters = 16

// ParseNetDev parses /proc/net/dev into counters keyed by adapter name.
// The two header lines are skipped.
func ParseNetDev(data []byte) (map[string]NetStats, error) {
	lines, err := NewParser().Lines(data)
	if err != nil {
		return nil, err
	}

	result := make(map[string]NetStats)
	for _, line := range lines {
		name, rest, ok := strings.Cut(line, ":")
		if !ok || strings.Contains(rest, "|") {
			continue
		}
		name = strings.TrimSpace(name)
		if _, dup := result[name]; dup {
			return nil, fmt.Errorf("net/dev lists adapter %q twice", name)
		}

		f := strings.Fields(rest)
		if len(f) != netdevCounters {
			return nil, fmt.Errorf("net/dev adapter %q has %d counters, want %d", name, len(f), netdevCounters)
		}
		c := make([]uint64, netdevCounters)
		for i, s := range f {
			v, err := strconv.ParseUint(s, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("net/dev adapter %q counter %d: %w", name, i+1, err)
			}
			c[i] = v
		}

		result[name] = NetStats{
			RecvBytes: c[0], RecvPackets: c[1], RecvErrs: c[2], RecvDrop: c[3],
			RecvFifo: c[4], RecvFrame: c[5], RecvCompressed: c[6], RecvMulticast: c[7],
			SendBytes: c[8], SendPackets: c[9], SendErrs: c[10], SendDrop: c[11],
			SendFifo: c[12], SendColls: c[13], SendCarrier: c[14], SendCompressed: c[15],
		}
	}
	return result, nil
}

var sizeUnits = map[string]int64{
	"b":  1,
	"kb": 1 << 10,
	"mb": 1 << 20,
	"gb": 1 << 30,
	"tb": 1 << 40,
}

// ParseMeminfo parses /proc/meminfo into a name to value map. Values with a
// size suffix such as "kB" are expanded to bytes; bare values are kept as is.
func ParseMeminfo(data []byte) (map[string]int64, error) {
	kv, err := NewParser(WithKVDelimiter(":")).Map(data)
	if err != nil {
		return nil, err
	}

	result := make(map[string]int64, len(kv))
	for name, raw := range kv {
		num, unit, _ := strings.Cut(raw, " ")
		v, err := strconv.ParseInt(num, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("meminfo %s: %w", name, err)
		}
		if unit = strings.ToLower(strings.TrimSpace(unit)); unit != "" {
			mult, ok := sizeUnits[unit]
			if !ok {
				return nil, fmt.Errorf("meminfo %s: unknown unit %q", name, unit)
			}
			v *= mult
		}
		result[name] = v
	}
	return result, nil
}

// ParseUptime returns the first field of /proc/uptime in seconds.
func ParseUptime(data []byte) (float64, error) {
	f := strings.Fields(string(data))
	if len(f) == 0 {
		return 0, fmt.Errorf("empty uptime")
	}
	v, err := strconv.ParseFloat(f[0], 64)
	if err != nil {
		return 0, fmt.Errorf("uptime: %w", err)
	}
	return v, nil
}

// LoadAvg holds the three /proc/loadavg averages.
type LoadAvg struct {
	One     float64 `json:"one" yaml:"one"`
	Five    float64 `json:"five" yaml:"five"`
	Fifteen float64 `json:"fifteen" yaml:"fifteen"`
}

// ParseLoadAvg parses /proc/loadavg.
func ParseLoadAvg(data []byte) (LoadAvg, error) {
	f := strings.Fields(string(data))
	if len(f) < 3 {
		return LoadAvg{}, fmt.Errorf("loadavg has %d fields, want at least 3", len(f))
	}
	var vals [3]float64
	for i := range vals {
		v, err := strconv.ParseFloat(f[i], 64)
		if err != nil {
			return LoadAvg{}, fmt.Errorf("loadavg field %d: %w", i+1, err)
		}
		vals[i] = v
	}
	return LoadAvg{One: vals[0], Five: vals[1], Fifteen: vals[2]}, nil
}
