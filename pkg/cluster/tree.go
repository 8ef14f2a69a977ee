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
	"encoding/json"
	"fmt"

	apperrors "github.com/NVIDIA/cephsnap/pkg/errors"
)

// Node types of the CRUSH hierarchy that the builder relies on.
const (
	TypeRoot = "root"
	TypeHost = "host"
	TypeOSD  = "osd"
)

// TreeNode is one entry of the placement hierarchy as reported by osd tree.
type TreeNode struct {
	ID          int     `json:"id" yaml:"id"`
	Name        string  `json:"name" yaml:"name"`
	Type        string  `json:"type" yaml:"type"`
	Status      string  `json:"status,omitempty" yaml:"status,omitempty"`
	CrushWeight float64 `json:"crush_weight" yaml:"crush_weight"`
	Reweight    float64 `json:"reweight,omitempty" yaml:"reweight,omitempty"`
	Children    []int   `json:"children,omitempty" yaml:"children,omitempty"`
}

// Tree is an immutable id-indexed arena over the placement hierarchy.
// Parent and host links are kept beside the nodes, never inside them.
type Tree struct {
	nodes  []TreeNode
	index  map[int]int
	parent []int
	host   []int
	roots  []int
}

const none = -1

// NewTree indexes nodes and resolves parent and host links. It fails when a
// child id is unknown, a node is reachable twice or not at all, or an osd has
// no host ancestor.
func NewTree(nodes []TreeNode) (*Tree, error) {
	if len(nodes) == 0 {
		return nil, apperrors.New(apperrors.ErrCodeInconsistent, "osd tree has no nodes")
	}

	t := &Tree{
		nodes:  make([]TreeNode, len(nodes)),
		index:  make(map[int]int, len(nodes)),
		parent: make([]int, len(nodes)),
		host:   make([]int, len(nodes)),
	}
	copy(t.nodes, nodes)

	referenced := make(map[int]bool, len(nodes))
	for i, n := range t.nodes {
		if _, dup := t.index[n.ID]; dup {
			return nil, apperrors.NewWithContext(apperrors.ErrCodeInconsistent,
				fmt.Sprintf("duplicate osd tree node %d", n.ID), map[string]any{"name": n.Name})
		}
		t.index[n.ID] = i
		t.parent[i] = none
		t.host[i] = none
		for _, c := range n.Children {
			referenced[c] = true
		}
	}

	for _, n := range t.nodes {
		for _, c := range n.Children {
			if _, ok := t.index[c]; !ok {
				return nil, apperrors.NewWithContext(apperrors.ErrCodeInconsistent,
					fmt.Sprintf("osd tree node %d references unknown child %d", n.ID, c),
					map[string]any{"name": n.Name})
			}
		}
	}

	for _, n := range t.nodes {
		if !referenced[n.ID] {
			t.roots = append(t.roots, n.ID)
		}
	}
	if len(t.roots) == 0 {
		t.roots = []int{t.nodes[0].ID}
	}

	visited := make([]bool, len(t.nodes))
	for _, id := range t.roots {
		if err := t.walk(t.index[id], none, none, visited); err != nil {
			return nil, err
		}
	}
	for i, seen := range visited {
		if !seen {
			return nil, apperrors.NewWithContext(apperrors.ErrCodeInconsistent,
				fmt.Sprintf("osd tree node %d is part of a cycle", t.nodes[i].ID),
				map[string]any{"name": t.nodes[i].Name})
		}
	}

	for i, n := range t.nodes {
		if n.Type == TypeOSD && t.host[i] == none {
			return nil, apperrors.NewWithContext(apperrors.ErrCodeInconsistent,
				fmt.Sprintf("osd %d has no host ancestor", n.ID),
				map[string]any{"name": n.Name})
		}
	}
	return t, nil
}

// walk assigns links in depth-first order. host is the nearest strict
// ancestor of type host.
func (t *Tree) walk(i, parent, host int, visited []bool) error {
	if visited[i] {
		return apperrors.NewWithContext(apperrors.ErrCodeInconsistent,
			fmt.Sprintf("osd tree node %d is reachable more than once", t.nodes[i].ID),
			map[string]any{"name": t.nodes[i].Name})
	}
	visited[i] = true
	t.parent[i] = parent
	t.host[i] = host

	if t.nodes[i].Type == TypeHost {
		host = i
	}
	for _, c := range t.nodes[i].Children {
		if err := t.walk(t.index[c], i, host, visited); err != nil {
			return err
		}
	}
	return nil
}

// Len returns the number of nodes.
func (t *Tree) Len() int {
	return len(t.nodes)
}

// Roots returns the ids of nodes that are nobody's child.
func (t *Tree) Roots() []int {
	return append([]int(nil), t.roots...)
}

// Node returns the node with the given id.
func (t *Tree) Node(id int) (TreeNode, bool) {
	i, ok := t.index[id]
	if !ok {
		return TreeNode{}, false
	}
	return t.nodes[i], true
}

// Parent returns the parent of id. Roots have none.
func (t *Tree) Parent(id int) (TreeNode, bool) {
	return t.link(id, t.parent)
}

// Host returns the nearest host-type strict ancestor of id.
func (t *Tree) Host(id int) (TreeNode, bool) {
	return t.link(id, t.host)
}

func (t *Tree) link(id int, links []int) (TreeNode, bool) {
	i, ok := t.index[id]
	if !ok || links[i] == none {
		return TreeNode{}, false
	}
	return t.nodes[links[i]], true
}

// ByType returns the nodes of type typ in input order.
func (t *Tree) ByType(typ string) []TreeNode {
	var out []TreeNode
	for _, n := range t.nodes {
		if n.Type == typ {
			out = append(out, n)
		}
	}
	return out
}

// TreeEntry is the exported view of a node with its resolved links.
type TreeEntry struct {
	TreeNode `yaml:",inline"`
	Parent   *int `json:"parent" yaml:"parent"`
	Host     *int `json:"host" yaml:"host"`
}

// Entries returns every node with its links in input order.
func (t *Tree) Entries() []TreeEntry {
	out := make([]TreeEntry, len(t.nodes))
	for i, n := range t.nodes {
		out[i] = TreeEntry{TreeNode: n}
		if p := t.parent[i]; p != none {
			id := t.nodes[p].ID
			out[i].Parent = &id
		}
		if h := t.host[i]; h != none {
			id := t.nodes[h].ID
			out[i].Host = &id
		}
	}
	return out
}

// MarshalJSON encodes the tree as its entry list.
func (t *Tree) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Entries())
}

// MarshalYAML encodes the tree as its entry list.
func (t *Tree) MarshalYAML() (any, error) {
	return t.Entries(), nil
}
