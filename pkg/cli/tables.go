/*
Copyright © 2025 NVIDIA Corporation
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/NVIDIA/cephsnap/pkg/cluster"
	"github.com/NVIDIA/cephsnap/pkg/serializer"
)

// clusterTables renders the model as one table per entity kind.
func clusterTables(c *cluster.Cluster) serializer.Tables {
	return serializer.Tables{
		summaryTable(c),
		osdTable(c),
		poolTable(c),
		monitorTable(c),
		hostTable(c),
	}
}

func summaryTable(c *cluster.Cluster) serializer.Table {
	s := c.Summary
	var release any
	if s.Release != nil {
		release = s.Release.String()
	}
	t := serializer.Table{
		Title:   "summary",
		Headers: []string{"field", "value"},
		Rows: [][]any{
			{"status", s.OverallStatus},
			{"release", release},
			{"crush roots", crushRoots(c.Tree)},
			{"collected at", s.CollectedAtUTC},
			{"pgs", s.NumPGs},
			{"bytes used", s.BytesUsed},
			{"bytes avail", s.BytesAvail},
			{"bytes total", s.BytesTotal},
			{"write bytes/s", s.WriteBytesSec},
			{"ops/s", s.OpPerSec},
			{"cluster network", prefixes(c.Networks.Cluster)},
			{"public network", prefixes(c.Networks.Public)},
		},
	}
	for _, m := range s.HealthSummary {
		t.Rows = append(t.Rows, []any{"health " + strings.ToLower(m.Severity), m.Summary})
	}
	return t
}

func osdTable(c *cluster.Cluster) serializer.Table {
	t := serializer.Table{
		Title:   "osds",
		Headers: []string{"id", "host", "status", "daemon", "weight", "reweight", "pgs", "data dev", "used", "avail", "ssd", "journal dev"},
	}
	for _, o := range c.OSDs {
		row := []any{o.ID, o.Host, o.Status, string(o.Daemon), o.CrushWeight, o.Reweight, o.PGCount}
		if d := o.DataStats; d != nil {
			row = append(row, d.Dev, d.Used, d.Avail, d.IsSSD)
		} else {
			row = append(row, nil, nil, nil, nil)
		}
		if j := o.JournalStats; j != nil {
			row = append(row, j.Dev)
		} else {
			row = append(row, nil)
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

func poolTable(c *cluster.Cluster) serializer.Table {
	t := serializer.Table{
		Title:   "pools",
		Headers: []string{"id", "name", "size", "min size", "pg num", "pgs", "crush rule", "bytes", "objects"},
	}
	for _, p := range c.Pools {
		var pgs any
		if c.PGs != nil {
			pgs = c.PGs.SumPerPool[p.Name]
		}
		t.Rows = append(t.Rows, []any{
			p.ID, p.Name, p.Size, p.MinSize, p.PGNum, pgs, p.CrushRule, p.Usage.SizeBytes, p.Usage.NumObjects,
		})
	}
	return t
}

func monitorTable(c *cluster.Cluster) serializer.Table {
	t := serializer.Table{
		Title:   "monitors",
		Headers: []string{"name", "rank", "addr", "quorum", "health", "avail %"},
	}
	for _, m := range c.Monitors {
		t.Rows = append(t.Rows, []any{m.Name, m.Rank, m.Addr, m.InQuorum, m.Health, m.AvailPercent})
	}
	return t
}

func hostTable(c *cluster.Cluster) serializer.Table {
	t := serializer.Table{
		Title:   "hosts",
		Headers: []string{"name", "mem total", "mem free", "load 5m", "cluster net", "public net", "busiest device"},
	}
	for _, h := range c.Hosts {
		t.Rows = append(t.Rows, []any{
			h.Name, h.MemTotal, h.MemFree, h.Load5m,
			attachment(h.ClusterNet), attachment(h.PublicNet), busiestDevice(h),
		})
	}
	return t
}

func prefixes[T fmt.Stringer](ps []T) any {
	if len(ps) == 0 {
		return nil
	}
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.String()
	}
	return strings.Join(out, ",")
}

func crushRoots(t *cluster.Tree) any {
	if t == nil {
		return nil
	}
	var names []string
	for _, id := range t.Roots() {
		if n, ok := t.Node(id); ok {
			names = append(names, n.Name)
		}
	}
	if len(names) == 0 {
		return nil
	}
	return strings.Join(names, ",")
}

func attachment(a *cluster.NetworkAttachment) any {
	if a == nil {
		return nil
	}
	return fmt.Sprintf("%s %s", a.Adapter, a.Address)
}

// busiestDevice returns the device with the highest mean utilization.
func busiestDevice(h *cluster.Host) any {
	if len(h.DeviceLoad) == 0 {
		return nil
	}
	names := make([]string, 0, len(h.DeviceLoad))
	for n := range h.DeviceLoad {
		names = append(names, n)
	}
	sort.Strings(names)

	best, bestUtil := "", -1.0
	for _, n := range names {
		samples := h.DeviceLoad[n].Values["util"]
		if len(samples) == 0 {
			continue
		}
		var sum float64
		for _, v := range samples {
			sum += v
		}
		if mean := sum / float64(len(samples)); mean > bestUtil {
			best, bestUtil = n, mean
		}
	}
	if best == "" {
		return nil
	}
	return fmt.Sprintf("%s %.1f%%", best, bestUtil)
}
