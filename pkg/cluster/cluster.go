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
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"

	"github.com/NVIDIA/cephsnap/pkg/artifact"
	"github.com/NVIDIA/cephsnap/pkg/collector"
	apperrors "github.com/NVIDIA/cephsnap/pkg/errors"
	"github.com/NVIDIA/cephsnap/pkg/parser"
)

// Reader is the read side of a snapshot. *artifact.Store implements it.
type Reader interface {
	JSON(path string, v any) error
	Text(path string) (string, error)
}

// Cluster is the topology rebuilt from one snapshot. It is not modified
// after Load returns.
type Cluster struct {
	Summary  Summary         `json:"summary" yaml:"summary"`
	Networks Networks        `json:"networks" yaml:"networks"`
	Tree     *Tree           `json:"tree" yaml:"tree"`
	OSDs     []*OSD          `json:"osds" yaml:"osds"`
	Pools    []*Pool         `json:"pools" yaml:"pools"`
	Monitors []*Monitor      `json:"monitors" yaml:"monitors"`
	Hosts    []*Host         `json:"hosts" yaml:"hosts"`
	PGs      *PGDistribution `json:"pg_distribution" yaml:"pg_distribution"`
}

// OSD returns the osd with the given id.
func (c *Cluster) OSD(id int) (*OSD, bool) {
	i := sort.Search(len(c.OSDs), func(i int) bool { return c.OSDs[i].ID >= id })
	if i < len(c.OSDs) && c.OSDs[i].ID == id {
		return c.OSDs[i], true
	}
	return nil, false
}

// Host returns the host called name.
func (c *Cluster) Host(name string) (*Host, bool) {
	i := sort.Search(len(c.Hosts), func(i int) bool { return c.Hosts[i].Name >= name })
	if i < len(c.Hosts) && c.Hosts[i].Name == name {
		return c.Hosts[i], true
	}
	return nil, false
}

// Artifact paths read by Load.
const (
	pathOSDTree     = "master/osd_tree"
	pathPGDump      = "master/pg_dump"
	pathLsPools     = "master/osd_lspools"
	pathPoolStats   = "master/pool_stats"
	pathOSDDump     = "master/osd_dump"
	pathOSDPerf     = "master/osd_perf"
	pathRadosDF     = "master/rados_df"
	pathStatus      = "master/status"
	pathMonStatus   = "master/mon_status"
	pathCollectedAt = "master/collected_at"
	pathVersion     = "master/version"
)

// Load rebuilds the cluster from the artifacts in r. Missing master
// artifacts the topology depends on and inconsistencies between artifacts
// fail the load. Anything else that is absent leaves the matching field nil.
func Load(r Reader) (*Cluster, error) {
	l := &loader{r: r}

	var tree struct {
		Nodes []TreeNode `json:"nodes"`
	}
	if err := l.required(pathOSDTree, &tree); err != nil {
		return nil, err
	}
	var listing []lsPool
	if err := l.required(pathLsPools, &listing); err != nil {
		return nil, err
	}
	var usage radosDF
	if err := l.required(pathRadosDF, &usage); err != nil {
		return nil, err
	}
	var status cephStatus
	if err := l.required(pathStatus, &status); err != nil {
		return nil, err
	}

	c := &Cluster{}
	var err error
	if c.Tree, err = NewTree(tree.Nodes); err != nil {
		return nil, err
	}

	c.PGs = l.pgDistribution(poolNames(listing))
	c.OSDs = l.osds(c.Tree, c.PGs)
	c.Networks = networksOf(c.OSDs)
	c.Hosts = l.hosts(c.Tree, c.Networks)

	if c.Pools, err = mergePools(listing, usage); err != nil {
		return nil, err
	}
	var stats map[string]map[string]json.RawMessage
	if l.optional(pathPoolStats, &stats) {
		applyPoolStats(c.Pools, stats)
	}
	var dump struct {
		Pools []osdDumpPool `json:"pools"`
	}
	if l.optional(pathOSDDump, &dump) {
		applyOSDDump(c.Pools, dump.Pools)
	}

	var ms monStatus
	msp := &ms
	if !l.optional(pathMonStatus, &ms) {
		msp = nil
	}
	c.Monitors = buildMonitors(msp, status.monHealth(), status.QuorumNames)

	c.Summary = status.summary()
	if text, ok := l.text(pathCollectedAt); ok {
		c.Summary.applyCollectedAt(text)
	}
	var banner struct {
		Version string `json:"version"`
	}
	if l.optional(pathVersion, &banner) {
		if err := c.Summary.applyVersion(banner.Version); err != nil {
			slog.Warn("ceph release unknown", slog.String("error", err.Error()))
		}
	}

	slog.Debug("cluster loaded",
		slog.Int("osds", len(c.OSDs)),
		slog.Int("hosts", len(c.Hosts)),
		slog.Int("pools", len(c.Pools)),
		slog.Bool("pg_distribution", c.PGs != nil))
	return c, nil
}

type loader struct {
	r Reader
}

func (l *loader) required(path string, v any) error {
	if err := l.r.JSON(path, v); err != nil {
		return fmt.Errorf("required artifact %s: %w", path, err)
	}
	return nil
}

func (l *loader) optional(path string, v any) bool {
	err := l.r.JSON(path, v)
	if err != nil {
		logSkipped(path, err)
		return false
	}
	return true
}

func (l *loader) text(path string) (string, bool) {
	s, err := l.r.Text(path)
	if err != nil {
		logSkipped(path, err)
		return "", false
	}
	return s, true
}

func logSkipped(path string, err error) {
	if errors.Is(err, artifact.ErrNotFound) {
		slog.Debug("optional artifact not collected", slog.String("path", path))
		return
	}
	slog.Warn("optional artifact unusable", slog.String("path", path), slog.String("error", err.Error()))
}

func (l *loader) pgDistribution(names map[int]string) *PGDistribution {
	var dump pgDump
	if !l.optional(pathPGDump, &dump) {
		return nil
	}
	d, err := NewPGDistribution(dump.stats(), names)
	if err != nil {
		slog.Warn("pg distribution unavailable", slog.String("error", err.Error()))
		return nil
	}
	return d
}

func (l *loader) osds(tree *Tree, pgs *PGDistribution) []*OSD {
	var perf osdPerf
	var perfByID map[int]OSDPerf
	if l.optional(pathOSDPerf, &perf) {
		perfByID = perf.byID()
	}

	nodes := tree.ByType(TypeOSD)
	out := make([]*OSD, 0, len(nodes))
	for _, n := range nodes {
		host, _ := tree.Host(n.ID)
		o := &OSD{
			ID:          n.ID,
			Name:        n.Name,
			Status:      n.Status,
			Host:        host.Name,
			CrushWeight: n.CrushWeight,
			Reweight:    n.Reweight,
			PGCount:     pgs.OSDCount(n.ID),
			Daemon:      DaemonUnknown,
		}
		base := artifact.Join("osd", strconv.Itoa(n.ID))

		var data, journal collector.DeviceStats
		if l.optional(base+"/data/stats", &data) {
			o.DataStats = &data
		}
		if l.optional(base+"/journal/stats", &journal) {
			o.JournalStats = &journal
		}
		var cfg map[string]any
		if l.optional(base+"/config", &cfg) {
			o.Config = cfg
		}
		if listing, ok := l.text(base + "/osd_daemons"); ok {
			o.Daemon = DaemonStateFrom(listing, n.ID)
		}
		if p, ok := perfByID[n.ID]; ok {
			o.Perf = &p
		}
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// networksOf takes the ceph networks from the first alive osd's config.
func networksOf(osds []*OSD) Networks {
	for _, o := range osds {
		if !o.Alive() {
			continue
		}
		cluster, _ := o.ConfigString("cluster_network")
		public, _ := o.ConfigString("public_network")
		return ParseNetworks(cluster, public)
	}
	slog.Warn("no alive osd with configuration, host networks left unresolved")
	return Networks{}
}

func (l *loader) hosts(tree *Tree, nets Networks) []*Host {
	nodes := tree.ByType(TypeHost)
	out := make([]*Host, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, l.host(n.Name, nets))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (l *loader) host(name string, nets Networks) *Host {
	h := &Host{Name: name}
	base := artifact.Join("hosts", name)

	parse := func(file string, fn func([]byte) error) {
		text, ok := l.text(base + "/" + file)
		if !ok {
			return
		}
		if err := fn([]byte(text)); err != nil {
			slog.Warn("failed to parse host artifact",
				slog.String("host", name), slog.String("artifact", file), slog.String("error", err.Error()))
		}
	}

	parse("meminfo", func(b []byte) error {
		info, err := parser.ParseMeminfo(b)
		if err != nil {
			return err
		}
		h.MemTotal = lookup(info, "MemTotal")
		h.MemFree = lookup(info, "MemFree")
		h.SwapTotal = lookup(info, "SwapTotal")
		h.SwapFree = lookup(info, "SwapFree")
		return nil
	})
	parse("loadavg", func(b []byte) error {
		avg, err := parser.ParseLoadAvg(b)
		if err == nil {
			h.Load5m = &avg.Five
		}
		return err
	})
	parse("uptime", func(b []byte) error {
		up, err := parser.ParseUptime(b)
		if err == nil {
			h.Uptime = &up
		}
		return err
	})
	parse("lshw", func(b []byte) error {
		hw, err := parser.ParseLSHW(b)
		if err == nil {
			h.Hardware = hw
		}
		return err
	})
	parse("diskstats", func(b []byte) error {
		disks, err := parser.ParseDiskstats(b)
		if err == nil {
			h.Disks = disks
		}
		return err
	})
	parse("iostat", func(b []byte) error {
		series, err := parser.ParseIOStat(b)
		if err == nil && len(series) > 0 {
			h.DeviceLoad = RollupPartitions(series, h.Disks)
		}
		return err
	})

	var ifaces []parser.Interface
	var counters map[string]parser.NetStats
	parse("ipa", func(b []byte) error {
		var err error
		ifaces, err = parser.ParseIPAddr(b)
		return err
	})
	parse("netdev", func(b []byte) error {
		var err error
		counters, err = parser.ParseNetDev(b)
		return err
	})
	if len(ifaces) > 0 || len(counters) > 0 {
		h.Adapters = mergeAdapters(ifaces, counters)
		h.ClusterNet, h.PublicNet = ResolveAttachments(h.Adapters, nets)
	}
	return h
}

func lookup(m map[string]int64, key string) *int64 {
	v, ok := m[key]
	if !ok {
		return nil
	}
	return &v
}

// IsInconsistent reports whether err is a load failure caused by artifacts
// that contradict each other rather than missing ones.
func IsInconsistent(err error) bool {
	return apperrors.HasCode(err, apperrors.ErrCodeInconsistent)
}
