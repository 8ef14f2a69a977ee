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
	"path"
	"regexp"
	"strings"
)

// unpartitioned lists kernel name prefixes of virtual block devices whose
// trailing digits are an instance number, never a partition.
var unpartitioned = []string{"dm-", "md", "loop", "sr", "zram", "ram"}

// pSuffixed lists devices whose partitions are always named <disk>p<N>.
var pSuffixed = []string{"nvme", "mmcblk", "nbd", "rbd"}

// A disk name ending in a digit gets a "p" before the partition number.
var pPartition = regexp.MustCompile(`^(.*[0-9])p[0-9]+$`)

// PartitionParent returns the disk a partition belongs to, using kernel
// naming: sdb1 is on sdb and nvme0n1p2 on nvme0n1. ok is false for whole
// devices, including those whose names end in digits (dm-0, md0, nvme0n1).
func PartitionParent(name string) (string, bool) {
	for _, p := range unpartitioned {
		if strings.HasPrefix(name, p) {
			return "", false
		}
	}
	if m := pPartition.FindStringSubmatch(name); m != nil {
		return m[1], true
	}
	for _, p := range pSuffixed {
		if strings.HasPrefix(name, p) {
			return "", false
		}
	}

	parent := strings.TrimRight(name, "0123456789")
	if parent == name || parent == "" {
		return "", false
	}
	if last := parent[len(parent)-1]; last < 'a' || last > 'z' {
		return "", false
	}
	return parent, true
}

// WholeDevice maps a device path to the disk holding it: /dev/sdb1 becomes
// /dev/sdb. Whole devices are returned unchanged.
func WholeDevice(dev string) string {
	dir, base := path.Split(dev)
	if parent, ok := PartitionParent(base); ok {
		return dir + parent
	}
	return dev
}
