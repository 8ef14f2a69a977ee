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

package snapshotter

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"github.com/NVIDIA/cephsnap/pkg/archive"
	"github.com/NVIDIA/cephsnap/pkg/artifact"
	"github.com/NVIDIA/cephsnap/pkg/collector"
	"github.com/NVIDIA/cephsnap/pkg/config"
	"github.com/NVIDIA/cephsnap/pkg/defaults"
	"github.com/NVIDIA/cephsnap/pkg/discovery"
	apperrors "github.com/NVIDIA/cephsnap/pkg/errors"
	"github.com/NVIDIA/cephsnap/pkg/header"
	"github.com/NVIDIA/cephsnap/pkg/oci"
	"github.com/NVIDIA/cephsnap/pkg/runner"
	"github.com/NVIDIA/cephsnap/pkg/scheduler"
	"github.com/NVIDIA/cephsnap/pkg/serializer"
)

// Files written under meta/ next to the collected artifacts.
const (
	RunFile     = "meta/run.json"
	MetricsFile = "meta/metrics.txt"
)

// ClusterSnapshotter discovers the cluster, runs every collector against
// every target, and packs the result into an archive.
type ClusterSnapshotter struct {
	// Version is the tool version recorded in the run header.
	Version string

	// Config is the validated run configuration.
	Config *config.Config

	// Runner executes commands. If nil, one is built from Config.SSH.
	Runner runner.Runner

	// Now returns the current time. If nil, time.Now is used.
	Now func() time.Time

	// Gatherer is exported into meta/metrics.txt. If nil,
	// prometheus.DefaultGatherer is used.
	Gatherer prometheus.Gatherer
}

var _ Snapshotter = (*ClusterSnapshotter)(nil)

// Measure runs a complete snapshot. Only an unreachable control plane and
// local I/O failures are returned as errors; failing commands and failing
// jobs are recorded in the snapshot and the run record.
func (s *ClusterSnapshotter) Measure(ctx context.Context) (res *Result, err error) {
	if s.Config == nil {
		return nil, apperrors.New(apperrors.ErrCodeInvalidRequest, "config is required")
	}
	now := s.Now
	if now == nil {
		now = time.Now
	}

	start := now()
	defer func() {
		snapshotDuration.Observe(time.Since(start).Seconds())
		status := "success"
		if err != nil {
			status = "error"
		}
		snapshotTotal.WithLabelValues(status).Inc()
	}()

	run := &Run{ID: uuid.NewString(), StartedAt: start.UTC()}
	run.Init(header.KindSnapshotRun, s.Version, header.WithMetadata("runId", run.ID))

	r, closer, err := s.runner()
	if err != nil {
		return nil, err
	}
	if closer != nil {
		defer func() {
			if cerr := closer.Close(); cerr != nil {
				slog.Warn("failed to close ssh transport", slog.String("error", cerr.Error()))
			}
		}()
	}

	dir, err := os.MkdirTemp("", "cephsnap-*")
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, "failed to create snapshot directory", err)
	}
	keep := s.Config.Output.KeepFolder
	defer func() {
		if keep && err == nil {
			return
		}
		if rerr := os.RemoveAll(dir); rerr != nil {
			slog.Warn("failed to remove snapshot directory",
				slog.String("dir", dir),
				slog.String("error", rerr.Error()))
		}
	}()

	slog.Info("starting cluster snapshot",
		slog.String("run", run.ID),
		slog.String("dir", dir))

	phase := time.Now()
	nodes, err := discovery.New(r, s.Config.Ceph).Discover(ctx)
	observePhase("discover", phase)
	if err != nil {
		return nil, err
	}
	run.Nodes = make(map[string]int)
	for role, n := range nodes.Count() {
		run.Nodes[string(role)] = n
		snapshotNodes.WithLabelValues(string(role)).Set(float64(n))
	}

	if err := s.collect(ctx, r, dir, nodes, run); err != nil {
		return nil, err
	}

	run.FinishedAt = now().UTC()
	if err := writeRun(dir, run); err != nil {
		return nil, err
	}
	if err := s.writeMetrics(dir); err != nil {
		return nil, err
	}

	dest := s.Config.Output.Result
	if dest == "" {
		dest = fmt.Sprintf("ceph-snapshot-%s%s", start.UTC().Format("20060102T150405Z"), defaults.ArchiveSuffix)
	} else if !archive.IsArchive(dest) {
		dest += defaults.ArchiveSuffix
	}
	phase = time.Now()
	packed, err := archive.Pack(ctx, dir, dest)
	observePhase("archive", phase)
	if err != nil {
		return nil, err
	}
	slog.Info("snapshot archive written",
		slog.String("path", packed.Path),
		slog.Int("files", packed.Files),
		slog.Int64("size", packed.Size))

	res = &Result{Run: run, Archive: packed}
	if keep {
		res.Dir = dir
		slog.Info("snapshot directory kept", slog.String("dir", dir))
	}

	if s.Config.Push.Target != "" {
		pushed, perr := s.push(ctx, packed.Path, run)
		if perr != nil {
			return res, perr
		}
		res.Push = pushed
	}
	return res, nil
}

func (s *ClusterSnapshotter) collect(ctx context.Context, r runner.Runner, dir string, nodes *discovery.Nodes, run *Run) error {
	settings, err := collector.NewSettings(s.Config.Collection.Disable...)
	if err != nil {
		return err
	}

	sink, err := artifact.NewSink(dir, artifact.WithPrettyJSON(!s.Config.Output.NoPrettyJSON))
	if err != nil {
		return err
	}

	opts := []collector.Option{
		collector.WithSettings(settings),
		collector.WithCeph(s.Config.Ceph),
		collector.WithStatCollectSeconds(s.Config.Collection.StatCollectSeconds),
	}
	if s.Now != nil {
		opts = append(opts, collector.WithClock(s.Now))
	}
	factory := collector.NewDefaultFactory(r, sink, opts...)

	collectors := factory.Collectors()
	for _, c := range collectors {
		run.Collectors = append(run.Collectors, c.Name())
	}

	jobs := scheduler.Plan(collectors, nodes)
	phase := time.Now()
	run.Jobs = scheduler.New(s.Config.Collection.PoolSize).Run(ctx, jobs)
	run.Artifacts = sink.Close()
	observePhase("collect", phase)

	slog.Info("collection complete",
		slog.Int("jobs", run.Jobs.Total),
		slog.Int("failed", run.Jobs.Failed),
		slog.Int("skipped", run.Jobs.Skipped),
		slog.Int("artifacts", run.Artifacts.Written),
		slog.Int("artifactErrors", run.Artifacts.Failed))
	return nil
}

func (s *ClusterSnapshotter) push(ctx context.Context, path string, run *Run) (*oci.PushResult, error) {
	target := s.Config.Push.Target
	annotations := map[string]string{
		"org.opencontainers.image.created": run.StartedAt.Format(time.RFC3339),
		"org.opencontainers.image.version": s.Version,
		"org.opencontainers.image.vendor":  "NVIDIA",
		"org.opencontainers.image.title":   "Ceph cluster snapshot",
		"com.nvidia.cephsnap.run-id":       run.ID,
	}

	pctx, cancel := context.WithTimeout(ctx, defaults.PushTimeout)
	defer cancel()

	phase := time.Now()
	defer observePhase("push", phase)

	var pushed *oci.PushResult
	if strings.HasPrefix(target, oci.LayoutScheme) {
		dir, tag, err := oci.ParseLayout(target)
		if err != nil {
			return nil, err
		}
		if pushed, err = oci.Save(pctx, path, dir, tag, annotations); err != nil {
			return nil, err
		}
	} else {
		ref, err := oci.ParseReference(target)
		if err != nil {
			return nil, err
		}
		pushed, err = oci.Push(pctx, oci.PushOptions{
			Archive:     path,
			Reference:   ref,
			PlainHTTP:   s.Config.Push.PlainHTTP,
			InsecureTLS: s.Config.Push.InsecureTLS,
			Annotations: annotations,
		})
		if err != nil {
			return nil, err
		}
	}
	slog.Info("snapshot pushed",
		slog.String("reference", pushed.Reference),
		slog.String("digest", pushed.Digest))
	return pushed, nil
}

// runner returns the configured runner and, for the native transport, the
// transport to close when the run ends.
func (s *ClusterSnapshotter) runner() (runner.Runner, io.Closer, error) {
	if s.Runner != nil {
		return s.Runner, nil, nil
	}

	sshCfg := runner.SSHConfig{
		User:           s.Config.SSH.User,
		Port:           s.Config.SSH.Port,
		IdentityFiles:  s.Config.SSH.IdentityFiles,
		KnownHostsFile: s.Config.SSH.KnownHosts,
		DialTimeout:    defaults.SSHDialTimeout,
	}

	var opts []runner.Option
	var closer io.Closer
	switch s.Config.SSH.Transport {
	case config.TransportBinary:
		opts = append(opts, runner.WithTransport(runner.NewBinaryTransport(nil, sshCfg)))
	default:
		t, err := runner.NewSSHTransport(sshCfg)
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, runner.WithTransport(t))
		closer = t
	}
	if rate := s.Config.SSH.Rate; rate > 0 {
		opts = append(opts, runner.WithRateLimit(rate, max(1, int(rate))))
	}
	return runner.New(opts...), closer, nil
}

func writeRun(dir string, run *Run) error {
	path := filepath.Join(dir, RunFile)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeInternal, "failed to create meta directory", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrCodeInternal, "failed to create run record", err)
	}
	defer f.Close()

	if err := serializer.NewWriter(serializer.FormatJSON, f).Serialize(context.Background(), run); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeInternal, "failed to write run record", err)
	}
	return nil
}

// writeMetrics exports the gathered metrics in the Prometheus text format.
func (s *ClusterSnapshotter) writeMetrics(dir string) error {
	g := s.Gatherer
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	families, err := g.Gather()
	if err != nil {
		// partial results are still returned
		slog.Warn("metrics gathering reported errors", slog.String("error", err.Error()))
	}

	f, err := os.Create(filepath.Join(dir, MetricsFile))
	if err != nil {
		return apperrors.Wrap(apperrors.ErrCodeInternal, "failed to create metrics file", err)
	}
	defer f.Close()

	enc := expfmt.NewEncoder(f, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return apperrors.Wrap(apperrors.ErrCodeInternal, "failed to encode metrics", err)
		}
	}
	return nil
}

func observePhase(name string, start time.Time) {
	snapshotPhaseDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
}
