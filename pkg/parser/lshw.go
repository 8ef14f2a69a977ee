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
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// HWInfo summarizes `lshw -xml` output.
type HWInfo struct {
	Product     string   `json:"product,omitempty" yaml:"product,omitempty"`
	Vendor      string   `json:"vendor,omitempty" yaml:"vendor,omitempty"`
	CPUs        []string `json:"cpus,omitempty" yaml:"cpus,omitempty"`
	MemoryBytes uint64   `json:"memory_bytes,omitempty" yaml:"memory_bytes,omitempty"`
	Disks       []HWDisk `json:"disks,omitempty" yaml:"disks,omitempty"`
	Network     []HWNet  `json:"network,omitempty" yaml:"network,omitempty"`
	Storage     []string `json:"storage_controllers,omitempty" yaml:"storage_controllers,omitempty"`
}

// HWDisk is a disk node.
type HWDisk struct {
	LogicalName string `json:"logical_name,omitempty" yaml:"logical_name,omitempty"`
	Product     string `json:"product,omitempty" yaml:"product,omitempty"`
	SizeBytes   uint64 `json:"size_bytes,omitempty" yaml:"size_bytes,omitempty"`
}

// HWNet is a network node.
type HWNet struct {
	LogicalName string `json:"logical_name,omitempty" yaml:"logical_name,omitempty"`
	Product     string `json:"product,omitempty" yaml:"product,omitempty"`
	Serial      string `json:"serial,omitempty" yaml:"serial,omitempty"`
	SpeedBits   uint64 `json:"speed_bits,omitempty" yaml:"speed_bits,omitempty"`
}

type lshwValue struct {
	Units string `xml:"units,attr"`
	Value string `xml:",chardata"`
}

type lshwNode struct {
	ID           string     `xml:"id,attr"`
	Class        string     `xml:"class,attr"`
	Disabled     string     `xml:"disabled,attr"`
	Description  string     `xml:"description"`
	Product      string     `xml:"product"`
	Vendor       string     `xml:"vendor"`
	Serial       string     `xml:"serial"`
	LogicalNames []string   `xml:"logicalname"`
	Size         *lshwValue `xml:"size"`
	Capacity     *lshwValue `xml:"capacity"`
	Children     []lshwNode `xml:"node"`
}

// ParseLSHW summarizes `lshw -xml` output. Both the single root <node> and
// the <list> wrapper emitted by newer lshw versions are accepted.
func ParseLSHW(data []byte) (*HWInfo, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil, fmt.Errorf("lshw output has no node element")
		}
		if err != nil {
			return nil, fmt.Errorf("lshw xml: %w", err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "node" {
			continue
		}

		var root lshwNode
		if err := dec.DecodeElement(&root, &start); err != nil {
			return nil, fmt.Errorf("lshw xml: %w", err)
		}
		info := &HWInfo{Product: strings.TrimSpace(root.Product), Vendor: strings.TrimSpace(root.Vendor)}
		walkLSHW(&root, info)
		return info, nil
	}
}

func walkLSHW(n *lshwNode, info *HWInfo) {
	if n.Disabled != "true" {
		switch n.Class {
		case "processor":
			if p := strings.TrimSpace(n.Product); p != "" {
				info.CPUs = append(info.CPUs, p)
			}
		case "memory":
			if n.ID == "memory" && n.Size != nil {
				info.MemoryBytes = bytesOf(n.Size)
			}
		case "disk":
			info.Disks = append(info.Disks, HWDisk{
				LogicalName: first(n.LogicalNames),
				Product:     strings.TrimSpace(n.Product),
				SizeBytes:   bytesOf(n.Size),
			})
		case "network":
			net := HWNet{
				LogicalName: first(n.LogicalNames),
				Product:     strings.TrimSpace(n.Product),
				Serial:      strings.TrimSpace(n.Serial),
			}
			if n.Capacity != nil {
				net.SpeedBits = bytesOf(n.Capacity)
			} else if n.Size != nil {
				net.SpeedBits = bytesOf(n.Size)
			}
			info.Network = append(info.Network, net)
		case "storage":
			if p := strings.TrimSpace(n.Product); p != "" {
				info.Storage = append(info.Storage, p)
			}
		}
	}
	for i := range n.Children {
		walkLSHW(&n.Children[i], info)
	}
}

// bytesOf returns the numeric value; lshw already reports sizes in the
// base unit named by the units attribute (bytes, bit/s).
func bytesOf(v *lshwValue) uint64 {
	if v == nil {
		return 0
	}
	n, err := strconv.ParseUint(strings.TrimSpace(v.Value), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func first(s []string) string {
	if len(s) == 0 {
		return ""
	}
	return strings.TrimSpace(s[0])
}
