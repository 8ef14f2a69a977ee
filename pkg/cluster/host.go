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
	"log/slog"
	"net/netip"
	"sort"
	"strings"

	"github.com/NVIDIA/cephsnap/pkg/parser"
)

// Networks are the cluster and public subnets ceph is configured with.
type Networks struct {
	Cluster []netip.Prefix `json:"cluster" yaml:"cluster"`
	Public  []netip.Prefix `json:"public" yaml:"public"`
}

// ParseNetworks parses the comma separated CIDR lists of cluster_network and
// public_network. Malformed entries are logged and skipped.
func ParseNetworks(cluster, public string) Networks {
	return Networks{
		Cluster: parsePrefixes("cluster_network", cluster),
		Public:  parsePrefixes("public_network", public),
	}
}

func parsePrefixes(key, list string) []netip.Prefix {
	var out []netip.Prefix
	for _, s := range strings.Split(list, ",") {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		p, err := netip.ParsePrefix(s)
		if err != nil {
			slog.Warn("ignoring malformed network", slog.String("key", key), slog.String("value", s))
			continue
		}
		out = append(out, p.Masked())
	}
	return out
}

// Adapter is a network interface with its addresses and traffic counters.
type Adapter struct {
	Name      string           `json:"name" yaml:"name"`
	Addresses []netip.Prefix   `json:"addresses,omitempty" yaml:"addresses,omitempty"`
	Stats     *parser.NetStats `json:"stats" yaml:"stats"`
}

// NetworkAttachment is the adapter and address a host uses on a ceph network.
type NetworkAttachment struct {
	Adapter string           `json:"adapter" yaml:"adapter"`
	Address netip.Addr       `json:"address" yaml:"address"`
	Stats   *parser.NetStats `json:"stats" yaml:"stats"`
}

// Host is one server of the cluster. Pointer fields are nil when the data was
// not collected.
type Host struct {
	Name       string                          `json:"name" yaml:"name"`
	Adapters   []*Adapter                      `json:"adapters,omitempty" yaml:"adapters,omitempty"`
	Disks      map[string]parser.DiskStats     `json:"disks,omitempty" yaml:"disks,omitempty"`
	MemTotal   *int64                          `json:"mem_total" yaml:"mem_total"`
	MemFree    *int64                          `json:"mem_free" yaml:"mem_free"`
	SwapTotal  *int64                          `json:"swap_total" yaml:"swap_total"`
	SwapFree   *int64                          `json:"swap_free" yaml:"swap_free"`
	Uptime     *float64                        `json:"uptime" yaml:"uptime"`
	Load5m     *float64                        `json:"load_5m" yaml:"load_5m"`
	Hardware   *parser.HWInfo                  `json:"hardware,omitempty" yaml:"hardware,omitempty"`
	ClusterNet *NetworkAttachment              `json:"cluster_net" yaml:"cluster_net"`
	PublicNet  *NetworkAttachment              `json:"public_net" yaml:"public_net"`
	DeviceLoad map[string]*parser.DeviceSeries `json:"device_load,omitempty" yaml:"device_load,omitempty"`
}

// Adapter returns the adapter called name.
func (h *Host) Adapter(name string) (*Adapter, bool) {
	for _, a := range h.Adapters {
		if a.Name == name {
			return a, true
		}
	}
	return nil, false
}

// ResolveAttachments finds the first adapter address, in adapter order,
// inside each of the given networks. A network without a match yields nil.
func ResolveAttachments(adapters []*Adapter, nets Networks) (cluster, public *NetworkAttachment) {
	return attachmentIn(adapters, nets.Cluster), attachmentIn(adapters, nets.Public)
}

func attachmentIn(adapters []*Adapter, prefixes []netip.Prefix) *NetworkAttachment {
	for _, a := range adapters {
		for _, addr := range a.Addresses {
			for _, p := range prefixes {
				if p.Contains(addr.Addr()) {
					return &NetworkAttachment{Adapter: a.Name, Address: addr.Addr(), Stats: a.Stats}
				}
			}
		}
	}
	return nil
}

// mergeAdapters joins `ip a` interfaces with /proc/net/dev counters.
// Interfaces keep their `ip a` order; counters without an interface are
// appended by name.
func mergeAdapters(ifaces []parser.Interface, stats map[string]parser.NetStats) []*Adapter {
	out := make([]*Adapter, 0, len(ifaces))
	seen := make(map[string]bool, len(ifaces))
	for _, i := range ifaces {
		a := &Adapter{Name: i.Name, Addresses: i.Addresses}
		if s, ok := stats[i.Name]; ok {
			a.Stats = &s
		}
		seen[i.Name] = true
		out = append(out, a)
	}

	var rest []string
	for name := range stats {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	for _, name := range rest {
		s := stats[name]
		out = append(out, &Adapter{Name: name, Stats: &s})
	}
	return out
}
