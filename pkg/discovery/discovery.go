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

package discovery

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/NVIDIA/cephsnap/pkg/config"
	apperrors "github.com/NVIDIA/cephsnap/pkg/errors"
	"github.com/NVIDIA/cephsnap/pkg/runner"
)

// Role classifies a collection target.
type Role string

const (
	// RoleMaster is the single control-plane target, collected locally.
	RoleMaster Role = "master"
	// RoleMonitor is a monitor daemon.
	RoleMonitor Role = "monitor"
	// RoleOSD is a storage daemon.
	RoleOSD Role = "osd"
	// RoleHost is a machine running monitors or OSDs.
	RoleHost Role = "host"
)

// Target is one (role, node, args) record.
type Target struct {
	Role Role   `json:"role" yaml:"role"`
	Node string `json:"node,omitempty" yaml:"node,omitempty"`
	// Name is the monitor name for RoleMonitor.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
	// OSDID is the daemon id for RoleOSD.
	OSDID int `json:"osd_id,omitempty" yaml:"osd_id,omitempty"`
}

func (t Target) String() string {
	switch t.Role {
	case RoleMonitor:
		return fmt.Sprintf("%s:%s(%s)", t.Role, t.Node, t.Name)
	case RoleOSD:
		return fmt.Sprintf("%s:%s(%d)", t.Role, t.Node, t.OSDID)
	case RoleMaster:
		return string(t.Role)
	default:
		return fmt.Sprintf("%s:%s", t.Role, t.Node)
	}
}

// Nodes is the discovered target set in discovery order.
type Nodes struct {
	targets []Target
	seen    map[Target]struct{}
}

// NewNodes returns an empty target set.
func NewNodes() *Nodes {
	return &Nodes{seen: make(map[Target]struct{})}
}

// Add records t. A repeated record is rejected.
func (n *Nodes) Add(t Target) error {
	if _, dup := n.seen[t]; dup {
		return apperrors.NewWithContext(apperrors.ErrCodeInconsistent,
			fmt.Sprintf("duplicate discovery record %s", t),
			map[string]any{"role": string(t.Role), "node": t.Node})
	}
	n.seen[t] = struct{}{}
	n.targets = append(n.targets, t)
	return nil
}

// AddHost registers node as a host target once; repeats are ignored.
func (n *Nodes) AddHost(node string) {
	t := Target{Role: RoleHost, Node: node}
	if _, dup := n.seen[t]; dup {
		return
	}
	n.seen[t] = struct{}{}
	n.targets = append(n.targets, t)
}

// Targets returns every target.
func (n *Nodes) Targets() []Target {
	return append([]Target(nil), n.targets...)
}

// ByRole returns the targets of role r.
func (n *Nodes) ByRole(r Role) []Target {
	var out []Target
	for _, t := range n.targets {
		if t.Role == r {
			out = append(out, t)
		}
	}
	return out
}

// Count returns the number of targets per role.
func (n *Nodes) Count() map[Role]int {
	out := make(map[Role]int)
	for _, t := range n.targets {
		out[t.Role]++
	}
	return out
}

// Discoverer queries the control plane for collection targets.
type Discoverer struct {
	runner runner.Runner
	ceph   config.Ceph
}

// New creates a Discoverer issuing ceph commands through r.
func New(r runner.Runner, ceph config.Ceph) *Discoverer {
	return &Discoverer{runner: r, ceph: ceph}
}

type monStatus struct {
	MonMap struct {
		Mons []struct {
			Name string `json:"name"`
		} `json:"mons"`
	} `json:"monmap"`
}

type osdTree struct {
	Nodes []struct {
		ID       int    `json:"id"`
		Name     string `json:"name"`
		Type     string `json:"type"`
		Children []int  `json:"children"`
	} `json:"nodes"`
}

// Discover issues mon_status and osd tree and returns the master target,
// one target per monitor and per OSD, and one host target per monitor name
// and OSD host. Either query failing is fatal.
func (d *Discoverer) Discover(ctx context.Context) (*Nodes, error) {
	nodes := NewNodes()
	if err := nodes.Add(Target{Role: RoleMaster}); err != nil {
		return nil, err
	}

	var mons monStatus
	if err := d.query(ctx, "mon_status", &mons); err != nil {
		return nil, err
	}
	for _, m := range mons.MonMap.Mons {
		if err := nodes.Add(Target{Role: RoleMonitor, Node: m.Name, Name: m.Name}); err != nil {
			return nil, err
		}
		nodes.AddHost(m.Name)
	}

	var tree osdTree
	if err := d.query(ctx, "osd tree", &tree); err != nil {
		return nil, err
	}
	for _, n := range tree.Nodes {
		if n.Type != "host" {
			continue
		}
		for _, id := range n.Children {
			if err := nodes.Add(Target{Role: RoleOSD, Node: n.Name, OSDID: id}); err != nil {
				return nil, err
			}
		}
		nodes.AddHost(n.Name)
	}

	counts := nodes.Count()
	slog.Info("discovery complete",
		slog.Int("monitors", counts[RoleMonitor]),
		slog.Int("osds", counts[RoleOSD]),
		slog.Int("hosts", counts[RoleHost]))
	return nodes, nil
}

func (d *Discoverer) query(ctx context.Context, sub string, v any) error {
	cmd := d.ceph.Command(sub)
	res := d.runner.Run(ctx, cmd)
	if !res.OK {
		return apperrors.WrapWithContext(apperrors.ErrCodeUnavailable,
			fmt.Sprintf("control plane query %q failed", sub),
			stderrors.New(strings.TrimSpace(string(res.Output))),
			map[string]any{"command": cmd})
	}
	// stderr follows stdout on success; decode only the leading document
	if err := json.NewDecoder(bytes.NewReader(res.Output)).Decode(v); err != nil {
		return apperrors.WrapWithContext(apperrors.ErrCodeUnavailable,
			fmt.Sprintf("control plane query %q returned malformed json", sub), err,
			map[string]any{"command": cmd})
	}
	return nil
}
