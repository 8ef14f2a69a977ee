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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const iostatSample = `Linux 5.15.0-91-generic (node1) 	10/16/2026 	_x86_64_	(8 CPU)

avg-cpu:  %user   %nice %system %iowait  %steal   %idle
           1.10    0.00    0.60    0.20    0.00   98.10

Device            r/s     w/s     rkB/s     wkB/s   %util
sda              1.00    2.00     10.00     20.00    5.00
sda1             0.50    1.00      5.00     10.00    3.00

avg-cpu:  %user   %nice %system %iowait  %steal   %idle
           2.00    0.00    1.00    0.00    0.00   97.00

Device:           r/s     w/s     rkB/s     wkB/s   %util
sda              3.00    4.00     30.00     40.00   15.00
sda1             1,50    2.00     15.00     20.00    9.00
`

func TestParseIOStat(t *testing.T) {
	got, err := ParseIOStat([]byte(iostatSample))
	require.NoError(t, err)
	require.Len(t, got, 2)

	sda := got["sda"]
	assert.Equal(t, "sda", sda.Name)
	assert.Equal(t, []float64{1, 3}, sda.Values["r/s"])
	assert.Equal(t, []float64{5, 15}, sda.Values["util"])

	assert.Equal(t, []float64{0.5, 1.5}, got["sda1"].Values["r/s"])
}

func TestParseIOStatColumnMismatch(t *testing.T) {
	_, err := ParseIOStat([]byte("Device r/s w/s\nsda 1.0\n"))
	assert.Error(t, err)
}

func TestDeviceSeriesClone(t *testing.T) {
	s := &DeviceSeries{Name: "sda1", Values: map[string][]float64{"util": {1, 2}}}
	c := s.Clone()
	c.Values["util"][0] = 99
	c.Name = "sda"
	assert.Equal(t, 1.0, s.Values["util"][0])
	assert.Equal(t, "sda1", s.Name)
}
