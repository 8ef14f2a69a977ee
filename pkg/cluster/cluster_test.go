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
	"errors"
	"net/netip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NVIDIA/cephsnap/pkg/artifact"
	apperrors "github.com/NVIDIA/cephsnap/pkg/errors"
)

// snapshot maps file names relative to the snapshot root to content.
type snapshot map[string]string

func (s snapshot) with(name, content string) snapshot {
	out := make(snapshot, len(s)+1)
	for k, v := range s {
		out[k] = v
	}
	out[name] = content
	return out
}

func (s snapshot) without(name string) snapshot {
	out := make(snapshot, len(s))
	for k, v := range s {
		if k != name {
			out[k] = v
		}
	}
	return out
}

func (s snapshot) store(t *testing.T) *artifact.Store {
	t.Helper()
	dir := t.TempDir()
	for name, content := range s {
		p := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	st, err := artifact.Open(dir)
	require.NoError(t, err)
	return st
}

const osdTree = `{"nodes":[
 {"id":-1,"name":"default","type":"root","children":[-2,-3]},
 {"id":-2,"name":"h1","type":"host","children":[0,1]},
 {"id":-3,"name":"h2","type":"host","children":[2,3]},
 {"id":0,"name":"osd.0","type":"osd","status":"up","crush_weight":1.5,"reweight":1},
 {"id":1,"name":"osd.1","type":"osd","status":"up","crush_weight":1.5,"reweight":1},
 {"id":2,"name":"osd.2","type":"osd","status":"up","crush_weight":1.5,"reweight":1},
 {"id":3,"name":"osd.3","type":"osd","status":"down","crush_weight":1.5,"reweight":0}
],"stray":[]}`

const pgDumpJSON = `{"pg_stats":[
 {"pgid":"0.0","acting":[0,1]},
 {"pgid":"0.1","acting":[0,1]},
 {"pgid":"0.2","acting":[0,1]},
 {"pgid":"0.3","acting":[2,3]}
]}`

const ipaH1 = `1: lo: <LOOPBACK,UP,LOWER_UP> mtu 65536 qdisc noqueue state UNKNOWN group default qlen 1000
    inet 127.0.0.1/8 scope host lo
2: eth0: <BROADCAST,MULTICAST,UP,LOWER_UP> mtu 1500 qdisc mq state UP group default qlen 1000
    inet 10.0.0.11/24 brd 10.0.0.255 scope global eth0
3: eth1: <BROADCAST,MULTICAST,UP,LOWER_UP> mtu 9000 qdisc mq state UP group default qlen 1000
    inet 192.168.10.11/24 brd 192.168.10.255 scope global eth1
`

const netdevH1 = `Inter-|   Receive                                                |  Transmit
 face |bytes    packets errs drop fifo frame compressed multicast|bytes    packets errs drop fifo colls carrier compressed
    lo: 100 1 0 0 0 0 0 0 100 1 0 0 0 0 0 0
  eth0: 2000 20 0 0 0 0 0 0 3000 30 0 0 0 0 0 0
  eth1: 5000 50 0 0 0 0 0 0 6000 60 0 0 0 0 0 0
`

const iostatH1 = `Device            r/s     w/s     rkB/s     wkB/s   %util
sda1             1.00    2.00     10.00     20.00   60.00
sda2             3.00    4.00     30.00     40.00   60.00
sdb1             5.00    6.00     50.00     60.00   30.00
`

func completeSnapshot() snapshot {
	return snapshot{
		"master/osd_tree.json":     osdTree,
		"master/pg_dump.json":      pgDumpJSON,
		"master/osd_lspools.json":  `[{"poolnum":0,"poolname":"rbd"}]`,
		"master/pool_stats.json":   `{"rbd":{"size":3,"min_size":2,"crush_rule":"replicated_rule"}}`,
		"master/rados_df.json":     `{"pools":[{"name":"rbd","id":0,"size_bytes":4096,"num_objects":2,"read_ops":7,"write_bytes":512}]}`,
		"master/osd_dump.json":     `{"pools":[{"pool":0,"pool_name":"rbd","size":2,"min_size":1,"crush_rule":0,"pg_num":4}]}`,
		"master/osd_perf.json":     `{"osd_perf_infos":[{"id":0,"perf_stats":{"commit_latency_ms":3,"apply_latency_ms":4}}]}`,
		"master/mon_status.json":   `{"quorum":[0],"monmap":{"mons":[{"rank":0,"name":"h1","addr":"10.0.0.11:6789/0"},{"rank":1,"name":"h2","addr":"10.0.0.12:6789/0"}]}}`,
		"master/status.json":       `{"health":{"status":"HEALTH_WARN","checks":{"OSD_DOWN":{"severity":"HEALTH_WARN","summary":{"message":"1 osds down"}}}},"pgmap":{"num_pgs":4,"bytes_used":10,"bytes_total":100,"bytes_avail":90,"data_bytes":5,"read_op_per_sec":2,"write_op_per_sec":3}}`,
		"master/collected_at.txt":  "2025-01-02T03:04:05+01:00\n2025-01-02T02:04:05Z\n1735783445\n",
		"osd/0/config.json":        `{"cluster_network":"192.168.10.0/24","public_network":"10.0.0.0/24, bogus"}`,
		"osd/0/osd_daemons.txt":    "ceph 1011 /usr/bin/ceph-osd -f --cluster ceph --id 0 --setuser ceph\n",
		"osd/0/data/stats.json":    `{"dev":"/dev/sdb1","root_dev":"/dev/sdb","used":1024,"avail":2048,"is_ssd":true}`,
		"osd/1/osd_daemons.err":    "ssh: connect to host h1 port 22: Connection refused",
		"osd/2/osd_daemons.txt":    "root 42 grep ceph-osd\n",
		"hosts/h1/ipa.txt":         ipaH1,
		"hosts/h1/netdev.txt":      netdevH1,
		"hosts/h1/meminfo.txt":     "MemTotal: 1000 kB\nMemFree: 500 kB\nSwapTotal: 0 kB\nSwapFree: 0 kB\n",
		"hosts/h1/loadavg.txt":     "0.50 0.25 0.10 1/80 11206\n",
		"hosts/h1/uptime.txt":      "100.5 80.0\n",
		"hosts/h1/iostat.txt":      iostatH1,
	}
}

func TestLoad(t *testing.T) {
	c, err := Load(completeSnapshot().store(t))
	require.NoError(t, err)

	t.Run("osds", func(t *testing.T) {
		require.Len(t, c.OSDs, len(c.Tree.ByType(TypeOSD)))
		for i, o := range c.OSDs {
			assert.Equal(t, i, o.ID)
		}

		o0, ok := c.OSD(0)
		require.True(t, ok)
		assert.Equal(t, "h1", o0.Host)
		assert.Equal(t, DaemonRunning, o0.Daemon)
		require.NotNil(t, o0.DataStats)
		assert.Equal(t, "/dev/sdb", o0.DataStats.RootDev)
		assert.Nil(t, o0.JournalStats)
		assert.Equal(t, &OSDPerf{CommitLatencyMs: 3, ApplyLatencyMs: 4}, o0.Perf)
		require.NotNil(t, o0.PGCount)
		assert.Equal(t, 3, *o0.PGCount)

		o1, _ := c.OSD(1)
		assert.Equal(t, DaemonUnknown, o1.Daemon)
		assert.Nil(t, o1.DataStats)

		o2, _ := c.OSD(2)
		assert.Equal(t, DaemonStopped, o2.Daemon)

		o3, _ := c.OSD(3)
		assert.Equal(t, "h2", o3.Host)
		assert.False(t, o3.Up())
	})

	t.Run("pg distribution", func(t *testing.T) {
		require.NotNil(t, c.PGs)
		assert.Equal(t, map[string]int{"rbd": 4}, c.PGs.SumPerPool)
		assert.Equal(t, map[int]int{0: 3, 1: 3, 2: 1, 3: 1}, c.PGs.SumPerOSD)
		assert.Equal(t, map[string]int{"rbd": 3}, c.PGs.ByOSD[0])
	})

	t.Run("networks", func(t *testing.T) {
		assert.Equal(t, []netip.Prefix{netip.MustParsePrefix("192.168.10.0/24")}, c.Networks.Cluster)
		assert.Equal(t, []netip.Prefix{netip.MustParsePrefix("10.0.0.0/24")}, c.Networks.Public)
	})

	t.Run("hosts", func(t *testing.T) {
		require.Len(t, c.Hosts, 2)
		h1, ok := c.Host("h1")
		require.True(t, ok)

		require.NotNil(t, h1.ClusterNet)
		assert.Equal(t, "eth1", h1.ClusterNet.Adapter)
		assert.Equal(t, netip.MustParseAddr("192.168.10.11"), h1.ClusterNet.Address)
		require.NotNil(t, h1.ClusterNet.Stats)
		assert.Equal(t, uint64(5000), h1.ClusterNet.Stats.RecvBytes)

		require.NotNil(t, h1.PublicNet)
		assert.Equal(t, "eth0", h1.PublicNet.Adapter)

		require.NotNil(t, h1.MemTotal)
		assert.Equal(t, int64(1000*1024), *h1.MemTotal)
		require.NotNil(t, h1.Load5m)
		assert.Equal(t, 0.25, *h1.Load5m)
		require.NotNil(t, h1.Uptime)
		assert.Equal(t, 100.5, *h1.Uptime)
		assert.Nil(t, h1.Hardware)

		require.Contains(t, h1.DeviceLoad, "sda")
		assert.Equal(t, []float64{100}, h1.DeviceLoad["sda"].Values["util"])
		assert.Equal(t, []float64{4}, h1.DeviceLoad["sda"].Values["r/s"])
		assert.Equal(t, "sdb", h1.DeviceLoad["sdb"].Name)
		assert.NotContains(t, h1.DeviceLoad, "sda1")

		h2, _ := c.Host("h2")
		assert.Nil(t, h2.MemTotal)
		assert.Nil(t, h2.ClusterNet)
		assert.Empty(t, h2.Adapters)
	})

	t.Run("pools", func(t *testing.T) {
		require.Len(t, c.Pools, 1)
		p := c.Pools[0]
		assert.Equal(t, "rbd", p.Name)
		require.NotNil(t, p.Size)
		assert.Equal(t, 3, *p.Size)
		assert.Equal(t, 2, *p.MinSize)
		assert.Equal(t, "replicated_rule", p.CrushRule)
		require.NotNil(t, p.PGNum)
		assert.Equal(t, 4, *p.PGNum)
		assert.Equal(t, uint64(4096), p.Usage.SizeBytes)
		assert.Equal(t, uint64(7), p.Usage.ReadOps)
	})

	t.Run("monitors", func(t *testing.T) {
		require.Len(t, c.Monitors, 2)
		assert.Equal(t, "h1", c.Monitors[0].Name)
		assert.True(t, c.Monitors[0].InQuorum)
		assert.Equal(t, "10.0.0.11:6789/0", c.Monitors[0].Addr)
		assert.False(t, c.Monitors[1].InQuorum)
	})

	t.Run("summary", func(t *testing.T) {
		s := c.Summary
		assert.Equal(t, "HEALTH_WARN", s.OverallStatus)
		assert.Equal(t, []HealthMessage{{Severity: "HEALTH_WARN", Summary: "1 osds down"}}, s.HealthSummary)
		assert.Equal(t, 4, s.NumPGs)
		assert.Equal(t, uint64(5), s.OpPerSec)
		assert.Equal(t, "2025-01-02T02:04:05Z", s.CollectedAtUTC)
		require.NotNil(t, s.CollectedAt)
		assert.Equal(t, int64(1735783445), s.CollectedAt.Unix())
	})
}

func TestLoadWithoutPGDump(t *testing.T) {
	c, err := Load(completeSnapshot().without("master/pg_dump.json").store(t))
	require.NoError(t, err)

	assert.Nil(t, c.PGs)
	require.Len(t, c.OSDs, 4)
	for _, o := range c.OSDs {
		assert.Nil(t, o.PGCount, "osd %d", o.ID)
	}
}

func TestLoadNestedPGDump(t *testing.T) {
	s := completeSnapshot().with("master/pg_dump.json",
		`{"pg_ready":true,"pg_map":{"pg_stats":[{"pgid":"0.0","acting":[0,1]},{"pgid":"5.1","acting":[2]}]}}`)
	c, err := Load(s.store(t))
	require.NoError(t, err)

	require.NotNil(t, c.PGs)
	assert.Equal(t, map[string]int{"rbd": 1, "5": 1}, c.PGs.SumPerPool)
}

func TestLoadLegacyFormats(t *testing.T) {
	s := completeSnapshot().
		without("master/pool_stats.json").
		with("master/rados_df.json", `{"pools":[{"name":"rbd","id":0,"categories":[{"name":"","size_bytes":8192,"num_objects":3}]}]}`).
		with("master/status.json", `{"health":{"overall_status":"HEALTH_OK","summary":[],"health":{"health_services":[{"mons":[{"name":"h1","health":"HEALTH_OK","kb_avail":1000,"avail_percent":80}]}]}},"pgmap":{"num_pgs":4,"op_per_sec":9}}`)

	c, err := Load(s.store(t))
	require.NoError(t, err)

	assert.Equal(t, uint64(8192), c.Pools[0].Usage.SizeBytes)
	assert.Equal(t, 2, *c.Pools[0].Size)
	assert.Equal(t, "0", c.Pools[0].CrushRule)
	assert.Equal(t, "HEALTH_OK", c.Summary.OverallStatus)
	assert.Equal(t, uint64(9), c.Summary.OpPerSec)

	require.Len(t, c.Monitors, 2)
	assert.Equal(t, "HEALTH_OK", c.Monitors[0].Health)
	require.NotNil(t, c.Monitors[0].KBAvail)
	assert.Equal(t, uint64(1000), *c.Monitors[0].KBAvail)
}

func TestLoadRelease(t *testing.T) {
	c, err := Load(completeSnapshot().store(t))
	require.NoError(t, err)
	assert.Nil(t, c.Summary.Release)

	s := completeSnapshot().with("master/version.json",
		`{"version":"ceph version 14.2.22 (ca74598065096e6fcbd8433c8779a2be0c889351) nautilus (stable)"}`)
	c, err = Load(s.store(t))
	require.NoError(t, err)
	require.NotNil(t, c.Summary.Release)
	assert.Equal(t, "nautilus", c.Summary.Release.Codename)
	assert.Equal(t, 14, c.Summary.Release.Version.Major)

	c, err = Load(completeSnapshot().with("master/version.json", `{"version":"garbage"}`).store(t))
	require.NoError(t, err)
	assert.Nil(t, c.Summary.Release)
}

func TestLoadFailures(t *testing.T) {
	tests := []struct {
		name     string
		snapshot snapshot
		code     apperrors.ErrorCode
	}{
		{
			name: "pool sets differ",
			snapshot: completeSnapshot().with("master/rados_df.json",
				`{"pools":[{"name":"rbd","id":0},{"name":"cephfs","id":1}]}`),
			code: apperrors.ErrCodeInconsistent,
		},
		{
			name: "osd without host",
			snapshot: completeSnapshot().with("master/osd_tree.json",
				`{"nodes":[{"id":-1,"name":"default","type":"root","children":[0]},{"id":0,"name":"osd.0","type":"osd","status":"up"}]}`),
			code: apperrors.ErrCodeInconsistent,
		},
		{
			name:     "missing status",
			snapshot: completeSnapshot().without("master/status.json"),
			code:     apperrors.ErrCodeNotFound,
		},
		{
			name:     "failed osd tree",
			snapshot: completeSnapshot().without("master/osd_tree.json").with("master/osd_tree.err", "timed out"),
			code:     apperrors.ErrCodeArtifactFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Load(tt.snapshot.store(t))
			require.Error(t, err)
			assert.Nil(t, c)
			assert.True(t, apperrors.HasCode(err, tt.code), "got %v", err)
		})
	}
}

func TestLoadMissingIsNotFound(t *testing.T) {
	_, err := Load(completeSnapshot().without("master/osd_lspools.json").store(t))
	require.Error(t, err)
	assert.True(t, errors.Is(err, artifact.ErrNotFound))
	assert.False(t, IsInconsistent(err))
}
