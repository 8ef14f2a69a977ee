/*
Copyright © 2025 NVIDIA Corporation
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"context"
	"io"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/cephsnap/pkg/archive"
	"github.com/NVIDIA/cephsnap/pkg/artifact"
	"github.com/NVIDIA/cephsnap/pkg/config"
	"github.com/NVIDIA/cephsnap/pkg/serializer"
	"github.com/NVIDIA/cephsnap/pkg/snapshotter"
)

// collectReport is printed once a run finished.
type collectReport struct {
	ID        string          `json:"id" yaml:"id"`
	Archive   *archive.Result `json:"archive" yaml:"archive"`
	Folder    string          `json:"folder,omitempty" yaml:"folder,omitempty"`
	Pushed    string          `json:"pushed,omitempty" yaml:"pushed,omitempty"`
	Jobs      jobCounts       `json:"jobs" yaml:"jobs"`
	Artifacts artifact.Stats  `json:"artifacts" yaml:"artifacts"`
	Duration  string          `json:"duration" yaml:"duration"`
}

type jobCounts struct {
	Total    int `json:"total" yaml:"total"`
	Failed   int `json:"failed" yaml:"failed"`
	Panicked int `json:"panicked" yaml:"panicked"`
	Skipped  int `json:"skipped" yaml:"skipped"`
}

func newCollectReport(res *snapshotter.Result) collectReport {
	r := collectReport{
		ID:      res.Run.ID,
		Archive: res.Archive,
		Folder:  res.Dir,
		Jobs: jobCounts{
			Total:    res.Run.Jobs.Total,
			Failed:   res.Run.Jobs.Failed,
			Panicked: res.Run.Jobs.Panicked,
			Skipped:  res.Run.Jobs.Skipped,
		},
		Artifacts: res.Run.Artifacts,
		Duration:  res.Run.FinishedAt.Sub(res.Run.StartedAt).Round(time.Millisecond).String(),
	}
	if res.Push != nil {
		r.Pushed = res.Push.Reference + "@" + res.Push.Digest
	}
	return r
}

// writeCollectReport prints the outcome of a run. The table format lists
// one flattened field per row.
func writeCollectReport(ctx context.Context, out io.Writer, format serializer.Format, res *snapshotter.Result) error {
	return serializer.NewWriter(format, out).Serialize(ctx, newCollectReport(res))
}

func collectCmd() *cli.Command {
	return &cli.Command{
		Name:                  "collect",
		EnableShellCompletion: true,
		Usage:                 "Capture a cluster snapshot archive",
		Description: `Discover the cluster through the control plane and collect:
  - cluster wide state (osd tree, pg dump, df, health, pool settings, crushmap)
  - per OSD admin socket config, daemon listing and data/journal device stats
  - per monitor daemon listing
  - per host system files, block device and network stats, hardware inventory
  - optional per host performance samples (vmstat, iostat, top)

Failing commands are stored as .err artifacts and do not stop the run. Only
an unreachable control plane is fatal.

Values are resolved in order: defaults, --config file, CEPHSNAP_* env vars,
then flags.

# Examples

  cephsnap collect --result /tmp/snap.tar.gz
  cephsnap collect --stat-collect-seconds 0 --disable '^osd/.*/journal'
  cephsnap collect --ssh-user ceph --ssh-identity ~/.ssh/ceph_ed25519 \
    --push oci://registry.example.com/storage/snapshots:prod
  cephsnap collect -t json --push oci-layout:///srv/snapshots:nightly`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "conf",
				Usage:   "ceph configuration file",
				Sources: cli.EnvVars(envPrefix + "CONF"),
			},
			&cli.StringFlag{
				Name:    "key",
				Usage:   "ceph admin keyring",
				Sources: cli.EnvVars(envPrefix + "KEY"),
			},
			&cli.IntFlag{
				Name:    "pool-size",
				Usage:   "maximum number of concurrent collection jobs",
				Sources: cli.EnvVars(envPrefix + "POOL_SIZE"),
			},
			&cli.IntFlag{
				Name:    "stat-collect-seconds",
				Usage:   "performance sampling duration per host, 0 disables sampling",
				Sources: cli.EnvVars(envPrefix + "STAT_COLLECT_SECONDS"),
			},
			&cli.StringSliceFlag{
				Name:    "disable",
				Usage:   "regular expression of artifact paths to skip (can be repeated)",
				Sources: cli.EnvVars(envPrefix + "DISABLE"),
			},
			&cli.StringFlag{
				Name:    "result",
				Usage:   "archive path, .tar.gz is appended when missing (default: ceph-snapshot-<time>.tar.gz)",
				Sources: cli.EnvVars(envPrefix + "RESULT"),
			},
			&cli.BoolFlag{
				Name:    "keep-folder",
				Usage:   "keep the snapshot directory after archiving",
				Sources: cli.EnvVars(envPrefix + "KEEP_FOLDER"),
			},
			&cli.BoolFlag{
				Name:    "no-pretty-json",
				Usage:   "store json artifacts as returned by the commands",
				Sources: cli.EnvVars(envPrefix + "NO_PRETTY_JSON"),
			},
			&cli.StringFlag{
				Name:    "ssh-user",
				Usage:   "remote user (default: current user)",
				Sources: cli.EnvVars(envPrefix + "SSH_USER"),
			},
			&cli.IntFlag{
				Name:    "ssh-port",
				Usage:   "remote ssh port",
				Sources: cli.EnvVars(envPrefix + "SSH_PORT"),
			},
			&cli.StringSliceFlag{
				Name:    "ssh-identity",
				Usage:   "private key file (can be repeated)",
				Sources: cli.EnvVars(envPrefix + "SSH_IDENTITY"),
			},
			&cli.StringFlag{
				Name:    "ssh-known-hosts",
				Usage:   "known_hosts file used to verify host keys",
				Sources: cli.EnvVars(envPrefix + "SSH_KNOWN_HOSTS"),
			},
			&cli.StringFlag{
				Name:    "ssh-transport",
				Usage:   "remote transport: native or binary",
				Sources: cli.EnvVars(envPrefix + "SSH_TRANSPORT"),
			},
			&cli.FloatFlag{
				Name:    "ssh-rate",
				Usage:   "new ssh sessions per second, 0 disables pacing",
				Sources: cli.EnvVars(envPrefix + "SSH_RATE"),
			},
			&cli.StringFlag{
				Name:    "push",
				Usage:   "publish the archive to an OCI registry (oci://registry/repo:tag) or layout (oci-layout://dir:tag)",
				Sources: cli.EnvVars(envPrefix + "PUSH"),
			},
			&cli.BoolFlag{
				Name:    "plain-http",
				Usage:   "use HTTP instead of HTTPS for the registry",
				Sources: cli.EnvVars(envPrefix + "PLAIN_HTTP"),
			},
			&cli.BoolFlag{
				Name:    "insecure-tls",
				Usage:   "skip registry TLS certificate verification",
				Sources: cli.EnvVars(envPrefix + "INSECURE_TLS"),
			},
			formatFlag(serializer.FormatTable),
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			outFormat, err := parseOutputFormat(cmd.String("format"))
			if err != nil {
				return err
			}
			cfg, err := loadCollectConfig(cmd)
			if err != nil {
				return err
			}

			s := &snapshotter.ClusterSnapshotter{
				Version: version,
				Config:  cfg,
			}
			res, err := s.Measure(ctx)
			if err != nil {
				return err
			}

			return writeCollectReport(ctx, cmd.Root().Writer, outFormat, res)
		},
	}
}

// loadCollectConfig reads --config over the defaults, applies every flag
// or env var that was set, and validates the result.
func loadCollectConfig(cmd *cli.Command) (*config.Config, error) {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return nil, err
	}

	setString := func(flag string, dst *string) {
		if cmd.IsSet(flag) {
			*dst = cmd.String(flag)
		}
	}
	setInt := func(flag string, dst *int) {
		if cmd.IsSet(flag) {
			*dst = cmd.Int(flag)
		}
	}
	setBool := func(flag string, dst *bool) {
		if cmd.IsSet(flag) {
			*dst = cmd.Bool(flag)
		}
	}
	setSlice := func(flag string, dst *[]string) {
		if cmd.IsSet(flag) {
			*dst = cmd.StringSlice(flag)
		}
	}

	setString("conf", &cfg.Ceph.Conf)
	setString("key", &cfg.Ceph.Key)
	setInt("pool-size", &cfg.Collection.PoolSize)
	setInt("stat-collect-seconds", &cfg.Collection.StatCollectSeconds)
	setSlice("disable", &cfg.Collection.Disable)
	setString("result", &cfg.Output.Result)
	setBool("keep-folder", &cfg.Output.KeepFolder)
	setBool("no-pretty-json", &cfg.Output.NoPrettyJSON)
	setString("ssh-user", &cfg.SSH.User)
	setInt("ssh-port", &cfg.SSH.Port)
	setSlice("ssh-identity", &cfg.SSH.IdentityFiles)
	setString("ssh-known-hosts", &cfg.SSH.KnownHosts)
	setString("ssh-transport", &cfg.SSH.Transport)
	if cmd.IsSet("ssh-rate") {
		cfg.SSH.Rate = cmd.Float("ssh-rate")
	}
	setString("push", &cfg.Push.Target)
	setBool("plain-http", &cfg.Push.PlainHTTP)
	setBool("insecure-tls", &cfg.Push.InsecureTLS)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
