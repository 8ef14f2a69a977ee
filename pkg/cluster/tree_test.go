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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/NVIDIA/cephsnap/pkg/errors"
)

func sampleNodes() []TreeNode {
	return []TreeNode{
		{ID: -1, Name: "default", Type: TypeRoot, Children: []int{-4}},
		{ID: -4, Name: "rack1", Type: "rack", Children: []int{-2}},
		{ID: -2, Name: "h1", Type: TypeHost, Children: []int{0, 1}},
		{ID: 0, Name: "osd.0", Type: TypeOSD, Status: "up"},
		{ID: 1, Name: "osd.1", Type: TypeOSD, Status: "up"},
	}
}

func TestNewTree(t *testing.T) {
	tree, err := NewTree(sampleNodes())
	require.NoError(t, err)

	assert.Equal(t, 5, tree.Len())
	assert.Equal(t, []int{-1}, tree.Roots())

	p, ok := tree.Parent(0)
	require.True(t, ok)
	assert.Equal(t, "h1", p.Name)

	h, ok := tree.Host(1)
	require.True(t, ok)
	assert.Equal(t, -2, h.ID)

	_, ok = tree.Parent(-1)
	assert.False(t, ok)
	_, ok = tree.Host(-2)
	assert.False(t, ok, "a host is not its own host")
	_, ok = tree.Host(-4)
	assert.False(t, ok)

	assert.Len(t, tree.ByType(TypeOSD), 2)

	entries := tree.Entries()
	require.Len(t, entries, 5)
	assert.Nil(t, entries[0].Parent)
	require.NotNil(t, entries[3].Host)
	assert.Equal(t, -2, *entries[3].Host)
}

func TestNewTreeRootFallback(t *testing.T) {
	// a self-referencing root leaves no unreferenced node
	nodes := []TreeNode{{ID: -1, Name: "default", Type: TypeRoot, Children: []int{-1}}}
	_, err := NewTree(nodes)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInconsistent))
}

func TestNewTreeErrors(t *testing.T) {
	tests := []struct {
		name  string
		nodes []TreeNode
	}{
		{name: "empty"},
		{
			name: "unknown child",
			nodes: []TreeNode{
				{ID: -1, Name: "default", Type: TypeRoot, Children: []int{7}},
			},
		},
		{
			name: "duplicate id",
			nodes: []TreeNode{
				{ID: -1, Name: "default", Type: TypeRoot},
				{ID: -1, Name: "other", Type: TypeRoot},
			},
		},
		{
			name: "shared child",
			nodes: []TreeNode{
				{ID: -1, Name: "a", Type: TypeRoot, Children: []int{-3}},
				{ID: -2, Name: "b", Type: TypeRoot, Children: []int{-3}},
				{ID: -3, Name: "h", Type: TypeHost},
			},
		},
		{
			name: "cycle below root",
			nodes: []TreeNode{
				{ID: -1, Name: "default", Type: TypeRoot},
				{ID: -2, Name: "x", Type: "rack", Children: []int{-3}},
				{ID: -3, Name: "y", Type: "rack", Children: []int{-2}},
			},
		},
		{
			name: "osd outside host",
			nodes: []TreeNode{
				{ID: -1, Name: "default", Type: TypeRoot, Children: []int{0}},
				{ID: 0, Name: "osd.0", Type: TypeOSD},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree, err := NewTree(tt.nodes)
			require.Error(t, err)
			assert.Nil(t, tree)
			assert.True(t, IsInconsistent(err))
		})
	}
}
