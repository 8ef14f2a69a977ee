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
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NVIDIA/cephsnap/pkg/config"
	apperrors "github.com/NVIDIA/cephsnap/pkg/errors"
	"github.com/NVIDIA/cephsnap/pkg/runner/runnertest"
)

var testCeph = config.Ceph{Conf: "/etc/ceph/ceph.conf", Key: "/etc/ceph/k"}

const monStatusJSON = `{"name":"mon-a","rank":0,"monmap":{"mons":[{"name":"mon-a","rank":0},{"name":"h2","rank":1}]}}`

const osdTreeJSON = `{"nodes":[
 {"id":-1,"name":"default","type":"root","children":[-2,-3]},
 {"id":-2,"name":"h1","type":"host","children":[0,1]},
 {"id":-3,"name":"h2","type":"host","children":[2]},
 {"id":0,"name":"osd.0","type":"osd"},
 {"id":1,"name":"osd.1","type":"osd"},
 {"id":2,"name":"osd.2","type":"osd"}
]}`

func TestDiscover(t *testing.T) {
	fake := runnertest.New().
		On(runnertest.LocalHost, testCeph.Command("mon_status"), true, monStatusJSON).
		On(runnertest.LocalHost, testCeph.Command("osd tree"), true, osdTreeJSON)

	nodes, err := New(fake, testCeph).Discover(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []Target{{Role: RoleMaster}}, nodes.ByRole(RoleMaster))
	assert.Equal(t, []Target{
		{Role: RoleMonitor, Node: "mon-a", Name: "mon-a"},
		{Role: RoleMonitor, Node: "h2", Name: "h2"},
	}, nodes.ByRole(RoleMonitor))
	assert.Equal(t, []Target{
		{Role: RoleOSD, Node: "h1", OSDID: 0},
		{Role: RoleOSD, Node: "h1", OSDID: 1},
		{Role: RoleOSD, Node: "h2", OSDID: 2},
	}, nodes.ByRole(RoleOSD))

	// h2 hosts a monitor and an OSD but is registered once
	assert.Equal(t, []Target{
		{Role: RoleHost, Node: "mon-a"},
		{Role: RoleHost, Node: "h2"},
		{Role: RoleHost, Node: "h1"},
	}, nodes.ByRole(RoleHost))

	assert.Equal(t, map[Role]int{RoleMaster: 1, RoleMonitor: 2, RoleOSD: 3, RoleHost: 3}, nodes.Count())
	assert.Len(t, fake.Calls(), 2, "discovery issues exactly two control-plane queries")
}

func TestDiscoverIgnoresTrailingStderr(t *testing.T) {
	fake := runnertest.New().
		On(runnertest.LocalHost, testCeph.Command("mon_status"), true, monStatusJSON+"\nwarning: clock skew\n").
		On(runnertest.LocalHost, testCeph.Command("osd tree"), true, osdTreeJSON)

	_, err := New(fake, testCeph).Discover(context.Background())
	require.NoError(t, err)
}

func TestDiscoverFailures(t *testing.T) {
	tests := []struct {
		name      string
		monOK     bool
		monOut    string
		treeOK    bool
		treeOut   string
		wantCalls int
	}{
		{name: "mon_status fails", monOK: false, monOut: "connection refused", wantCalls: 1},
		{name: "mon_status malformed", monOK: true, monOut: "{", wantCalls: 1},
		{name: "osd tree fails", monOK: true, monOut: monStatusJSON, treeOK: false, treeOut: "timeout", wantCalls: 2},
		{name: "osd tree malformed", monOK: true, monOut: monStatusJSON, treeOK: true, treeOut: "not json", wantCalls: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := runnertest.New().
				On(runnertest.LocalHost, testCeph.Command("mon_status"), tt.monOK, tt.monOut).
				On(runnertest.LocalHost, testCeph.Command("osd tree"), tt.treeOK, tt.treeOut)

			nodes, err := New(fake, testCeph).Discover(context.Background())
			require.Error(t, err)
			assert.Nil(t, nodes)
			assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeUnavailable))
			assert.Len(t, fake.Calls(), tt.wantCalls)
		})
	}
}

func TestDiscoverRejectsDuplicates(t *testing.T) {
	dupTree := `{"nodes":[
 {"id":-2,"name":"h1","type":"host","children":[0]},
 {"id":-3,"name":"h1","type":"host","children":[0]}
]}`
	fake := runnertest.New().
		On(runnertest.LocalHost, testCeph.Command("mon_status"), true, `{"monmap":{"mons":[]}}`).
		On(runnertest.LocalHost, testCeph.Command("osd tree"), true, dupTree)

	_, err := New(fake, testCeph).Discover(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInconsistent))
}

func TestTargetString(t *testing.T) {
	assert.Equal(t, "master", Target{Role: RoleMaster}.String())
	assert.Equal(t, "osd:h1(3)", Target{Role: RoleOSD, Node: "h1", OSDID: 3}.String())
	assert.Equal(t, "monitor:h1(a)", Target{Role: RoleMonitor, Node: "h1", Name: "a"}.String())
	assert.Equal(t, "host:h1", Target{Role: RoleHost, Node: "h1"}.String())
}
