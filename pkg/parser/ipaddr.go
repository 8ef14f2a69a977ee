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
	"net/netip"
	"regexp"
	"strings"
)

// Interface is one adapter from `ip a` output.
type Interface struct {
	Name      string         `json:"name" yaml:"name"`
	Addresses []netip.Prefix `json:"addresses" yaml:"addresses"`
}

var (
	// "2: eth0: <BROADCAST,...>" or "3: bond0.100@bond0: <...>"
	ipLinkRe = regexp.MustCompile(`^\d+:\s+([^:\s]+):`)
	// "inet 10.0.0.1/24 ..." with an optional "N: name" prefix in -o mode
	ipAddrRe = regexp.MustCompile(`^(?:\d+:\s+(\S+)\s+)?inet6?\s+(\S+)`)
)

// ParseIPAddr parses `ip a` (or `ip -o a`) output into adapters in the
// order they appear. Adapter names are reported without the "@parent" suffix.
func ParseIPAddr(data []byte) ([]Interface, error) {
	lines, err := NewParser().Lines(data)
	if err != nil {
		return nil, err
	}

	var result []Interface
	index := make(map[string]int)
	current := ""

	add := func(name string) {
		if _, ok := index[name]; !ok {
			index[name] = len(result)
			result = append(result, Interface{Name: name})
		}
	}

	for _, line := range lines {
		if m := ipAddrRe.FindStringSubmatch(line); m != nil {
			name := current
			if m[1] != "" {
				name = adapterName(m[1])
				add(name)
			}
			if name == "" {
				return nil, fmt.Errorf("address %q appears before any adapter", m[2])
			}
			prefix, err := netip.ParsePrefix(m[2])
			if err != nil {
				return nil, fmt.Errorf("adapter %s: %w", name, err)
			}
			i := index[name]
			result[i].Addresses = append(result[i].Addresses, prefix)
			continue
		}
		if m := ipLinkRe.FindStringSubmatch(line); m != nil {
			current = adapterName(m[1])
			add(current)
		}
	}
	return result, nil
}

func adapterName(s string) string {
	name, _, _ := strings.Cut(s, "@")
	return name
}
