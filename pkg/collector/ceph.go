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

package collector

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"strings"
	"time"

	"github.com/NVIDIA/cephsnap/pkg/artifact"
	"github.com/NVIDIA/cephsnap/pkg/config"
	"github.com/NVIDIA/cephsnap/pkg/defaults"
	"github.com/NVIDIA/cephsnap/pkg/discovery"
	apperrors "github.com/NVIDIA/cephsnap/pkg/errors"
	"github.com/NVIDIA/cephsnap/pkg/parser"
	"github.com/NVIDIA/cephsnap/pkg/scheduler"
)

// masterCommands are ceph subcommands stored under master/ with spaces
// replaced by underscores.
var masterCommands = []string{
	"osd tree",
	"pg dump",
	"df",
	"auth list",
	"health",
	"health detail",
	"mon_status",
	"status",
	"osd dump",
	"osd perf",
	"osd df",
	"version",
}

// poolSettings are queried per pool and folded into master/pool_stats.
var poolSettings = []string{"size", "min_size", "crush_rule"}

// CephCollector collects the control plane, OSD daemons and monitors.
type CephCollector struct {
	emitter *Emitter
	ceph    config.Ceph
	now     func() time.Time
}

// Name implements scheduler.Collector.
func (c *CephCollector) Name() string {
	return "ceph"
}

// Handlers implements scheduler.Collector.
func (c *CephCollector) Handlers() map[discovery.Role]scheduler.Func {
	return map[discovery.Role]scheduler.Func{
		discovery.RoleMaster:  c.collectMaster,
		discovery.RoleOSD:     c.collectOSD,
		discovery.RoleMonitor: c.collectMonitor,
	}
}

func (c *CephCollector) collectMaster(ctx context.Context, _ discovery.Target) error {
	e := c.emitter
	for _, cmd := range masterCommands {
		e.Local(ctx, artifact.Join("master", strings.ReplaceAll(cmd, " ", "_")), artifact.FormatJSON, c.ceph.Command(cmd))
	}
	e.Local(ctx, "master/rados_df", artifact.FormatJSON, c.ceph.RadosCommand("df"))
	c.emitCollectedAt()
	c.collectCrushMap(ctx)

	res := e.Runner().Run(ctx, c.ceph.Command("osd lspools"))
	e.Emit(res.OK, "master/osd_lspools", artifact.FormatJSON, res.Output)
	if !res.OK {
		return apperrors.New(apperrors.ErrCodeUnavailable, "osd lspools failed, pool settings not collected")
	}

	var pools []struct {
		Num  int    `json:"poolnum"`
		Name string `json:"poolname"`
	}
	if err := json.NewDecoder(bytes.NewReader(res.Output)).Decode(&pools); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeInvalidRequest, "malformed osd lspools output", err)
	}

	if !e.Allowed("master/pool_stats") {
		return nil
	}

	stats := make(map[string]map[string]any, len(pools))
	for _, p := range pools {
		stats[p.Name] = make(map[string]any, len(poolSettings))
		for _, setting := range poolSettings {
			v, err := c.poolSetting(ctx, p.Name, setting)
			if err != nil {
				return err
			}
			stats[p.Name][setting] = v
		}
	}

	data, err := json.Marshal(stats)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrCodeInternal, "failed to encode pool stats", err)
	}
	e.Emit(true, "master/pool_stats", artifact.FormatJSON, data)
	return nil
}

// poolSetting reads one pool setting. Releases before Luminous only know
// crush_ruleset, which is tried when crush_rule fails.
func (c *CephCollector) poolSetting(ctx context.Context, pool, setting string) (any, error) {
	keys := []string{setting}
	if setting == "crush_rule" {
		keys = append(keys, "crush_ruleset")
	}

	var lastOutput []byte
	for _, key := range keys {
		res := c.emitter.Runner().Run(ctx, c.ceph.Command(fmt.Sprintf("osd pool get %s %s", pool, key)))
		if !res.OK {
			lastOutput = res.Output
			continue
		}
		var body map[string]any
		if err := json.NewDecoder(bytes.NewReader(res.Output)).Decode(&body); err != nil {
			return nil, apperrors.Wrap(apperrors.ErrCodeInvalidRequest,
				fmt.Sprintf("malformed output of osd pool get %s %s", pool, key), err)
		}
		if v, ok := body[key]; ok {
			return v, nil
		}
	}
	return nil, apperrors.WrapWithContext(apperrors.ErrCodeUnavailable,
		fmt.Sprintf("osd pool get %s %s failed", pool, setting),
		stderrors.New(strings.TrimSpace(string(lastOutput))),
		map[string]any{"pool": pool})
}

func (c *CephCollector) collectCrushMap(ctx context.Context) {
	const p = "master/crushmap"
	if !c.emitter.Allowed(p) {
		return
	}

	f, err := os.CreateTemp("", "cephsnap-crushmap-")
	if err != nil {
		c.emitter.Emit(false, p, artifact.FormatBinary, []byte(err.Error()))
		return
	}
	name := f.Name()
	f.Close()
	defer os.Remove(name)

	res := c.emitter.Runner().Run(ctx, c.ceph.Command("osd getcrushmap -o "+name))
	if !res.OK {
		c.emitter.Emit(false, p, artifact.FormatBinary, res.Output)
		return
	}
	data, err := os.ReadFile(name)
	if err != nil {
		c.emitter.Emit(false, p, artifact.FormatBinary, []byte(err.Error()))
		return
	}
	c.emitter.Emit(true, p, artifact.FormatBinary, data)
}

// emitCollectedAt records local time, UTC time and unix seconds, one per line.
func (c *CephCollector) emitCollectedAt() {
	now := c.now()
	payload := fmt.Sprintf("%s\n%s\n%d\n",
		now.Local().Format(time.RFC3339),
		now.UTC().Format(time.RFC3339),
		now.Unix())
	c.emitter.Emit(true, "master/collected_at", artifact.FormatText, []byte(payload))
}

// osdConfig holds the admin socket values the device reads need.
type osdConfig struct {
	Data    string `json:"osd_data"`
	Journal string `json:"osd_journal"`
}

func (c *CephCollector) collectOSD(ctx context.Context, t discovery.Target) error {
	e := c.emitter
	base := fmt.Sprintf("osd/%d", t.OSDID)

	cmd := fmt.Sprintf("sudo %s -f json --admin-daemon %s config show",
		defaults.CephBinary, fmt.Sprintf(defaults.OSDAdminSocket, t.OSDID))
	res := e.Runner().RunRemote(ctx, t.Node, cmd)
	e.Emit(res.OK, base+"/config", artifact.FormatJSON, res.Output)
	if !res.OK {
		return apperrors.NewWithContext(apperrors.ErrCodeUnavailable,
			fmt.Sprintf("osd.%d config show failed", t.OSDID),
			map[string]any{"host": t.Node})
	}

	var cfg osdConfig
	if err := json.NewDecoder(bytes.NewReader(res.Output)).Decode(&cfg); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeInvalidRequest,
			fmt.Sprintf("malformed osd.%d config", t.OSDID), err)
	}

	e.Remote(ctx, t.Node, base+"/osd_daemons", artifact.FormatText, "ps aux | grep ceph-osd")

	var errs []error
	if err := c.collectDevice(ctx, t.Node, base+"/data", cfg.Data); err != nil {
		errs = append(errs, err)
	}
	if cfg.Journal == "" {
		slog.Debug("osd has no journal", slog.Int("osd", t.OSDID))
	} else if err := c.collectDevice(ctx, t.Node, base+"/journal", cfg.Journal); err != nil {
		errs = append(errs, err)
	}
	return stderrors.Join(errs...)
}

// DeviceStats is written to osd/<id>/{data,journal}/stats.
type DeviceStats struct {
	Dev     string `json:"dev" yaml:"dev"`
	RootDev string `json:"root_dev" yaml:"root_dev"`
	Used    uint64 `json:"used" yaml:"used"`
	Avail   uint64 `json:"avail" yaml:"avail"`
	IsSSD   bool   `json:"is_ssd" yaml:"is_ssd"`
}

// resolveLinkCmd follows a chain of symlinks to the final device file.
const resolveLinkCmd = `path="%s" ; while [ -h "$path" ] ; do path=$(readlink "$path") ; path=$(readlink -f "$path") ; done ; echo $path`

// collectDevice inspects the block device backing file on host. The df,
// link resolution and rotational reads are prerequisites for the rest.
func (c *CephCollector) collectDevice(ctx context.Context, host, base, file string) error {
	e := c.emitter
	r := e.Runner()

	res := r.RunRemote(ctx, host, "df "+file)
	if !res.OK {
		return deviceError(host, file, "df", res.Output)
	}
	rows, err := parser.ParseDF(res.Output)
	if err != nil || len(rows) == 0 {
		return deviceError(host, file, "df", res.Output)
	}
	link := rows[0].Filesystem
	if link == "udev" {
		link = file
	}

	res = r.RunRemote(ctx, host, fmt.Sprintf(resolveLinkCmd, link))
	if !res.OK {
		return deviceError(host, file, "readlink", res.Output)
	}
	dev := strings.TrimSpace(string(res.Output))
	rootDev := parser.WholeDevice(dev)

	res = r.RunRemote(ctx, host, fmt.Sprintf("cat /sys/block/%s/queue/rotational", path.Base(rootDev)))
	if !res.OK {
		return deviceError(host, file, "rotational", res.Output)
	}

	e.Remote(ctx, host, base+"/hdparm", artifact.FormatText, "sudo hdparm -I "+rootDev)
	e.Remote(ctx, host, base+"/smartctl", artifact.FormatText, "sudo smartctl -a "+rootDev)

	data, err := json.Marshal(DeviceStats{
		Dev:     dev,
		RootDev: rootDev,
		Used:    rows[0].Used * 1024,
		Avail:   rows[0].Available * 1024,
		IsSSD:   strings.TrimSpace(string(res.Output)) == "0",
	})
	if err != nil {
		return apperrors.Wrap(apperrors.ErrCodeInternal, "failed to encode device stats", err)
	}
	e.Emit(true, base+"/stats", artifact.FormatJSON, data)
	return nil
}

func deviceError(host, file, step string, output []byte) error {
	return apperrors.WrapWithContext(apperrors.ErrCodeUnavailable,
		fmt.Sprintf("%s check of %s failed", step, file),
		stderrors.New(strings.TrimSpace(string(output))),
		map[string]any{"host": host})
}

func (c *CephCollector) collectMonitor(ctx context.Context, t discovery.Target) error {
	c.emitter.Remote(ctx, t.Node, artifact.Join("mon", t.Name, "mon_daemons"), artifact.FormatText, "ps aux | grep ceph-mon")
	return nil
}
