/*
Copyright © 2025 NVIDIA Corporation
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/cephsnap/pkg/archive"
	"github.com/NVIDIA/cephsnap/pkg/artifact"
	"github.com/NVIDIA/cephsnap/pkg/cluster"
	apperrors "github.com/NVIDIA/cephsnap/pkg/errors"
	"github.com/NVIDIA/cephsnap/pkg/header"
	"github.com/NVIDIA/cephsnap/pkg/serializer"
	"github.com/NVIDIA/cephsnap/pkg/snapshotter"
)

// clusterDocument is the inspect output.
type clusterDocument struct {
	header.Header `json:",inline" yaml:",inline"`

	// Run is the run record of the snapshot, when present.
	Run     *snapshotter.Run `json:"run,omitempty" yaml:"run,omitempty"`
	Cluster *cluster.Cluster `json:"cluster" yaml:"cluster"`
}

func formatFlag(def serializer.Format) cli.Flag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"t"},
		Usage:   fmt.Sprintf("output format (%s)", strings.Join(serializer.SupportedFormats(), ", ")),
		Value:   string(def),
		Sources: cli.EnvVars(envPrefix + "FORMAT"),
	}
}

func outputFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "output",
		Aliases: []string{"o"},
		Usage:   "output file path (default: stdout)",
		Sources: cli.EnvVars(envPrefix + "OUTPUT"),
	}
}

func inspectCmd() *cli.Command {
	return &cli.Command{
		Name:                  "inspect",
		EnableShellCompletion: true,
		Usage:                 "Build and print the cluster model of a snapshot",
		ArgsUsage:             "<snapshot dir|archive>",
		Description: `Load a snapshot directory or a .tar.gz archive produced by collect and
print the cluster model: summary, OSD tree, OSDs with device stats and PG
counts, pools, monitors, hosts with network attachments and device load.

Missing optional artifacts leave fields empty. Contradicting artifacts fail
the command.

# Examples

  cephsnap inspect ceph-snapshot-20250102T030405Z.tar.gz
  cephsnap inspect --format table /tmp/cephsnap-1234
  cephsnap inspect -t json -o cluster.json snap.tar.gz`,
		Flags: []cli.Flag{
			formatFlag(serializer.FormatYAML),
			outputFlag(),
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			outFormat, err := parseOutputFormat(cmd.String("format"))
			if err != nil {
				return err
			}
			if cmd.Args().Len() != 1 {
				return apperrors.New(apperrors.ErrCodeInvalidRequest,
					fmt.Sprintf("expected exactly one snapshot path, got %d", cmd.Args().Len()))
			}

			doc, err := loadDocument(cmd.Args().First())
			if err != nil {
				return err
			}

			var v any = doc
			if outFormat == serializer.FormatTable {
				v = clusterTables(doc.Cluster)
			}

			w := serializer.NewWriter(outFormat, cmd.Root().Writer)
			if out := cmd.String("output"); out != "" {
				w = serializer.NewFileWriterOrStdout(outFormat, out)
			}
			defer func() {
				if cerr := w.Close(); cerr != nil {
					slog.Warn("failed to close output", slog.String("error", cerr.Error()))
				}
			}()
			return w.Serialize(ctx, v)
		},
	}
}

func parseOutputFormat(s string) (serializer.Format, error) {
	f := serializer.Format(strings.ToLower(strings.TrimSpace(s)))
	if f.IsUnknown() {
		return "", apperrors.New(apperrors.ErrCodeInvalidRequest, fmt.Sprintf("unknown output format: %q", s))
	}
	return f, nil
}

// loadDocument opens a snapshot directory or archive and builds its model.
func loadDocument(path string) (*clusterDocument, error) {
	dir, cleanup, err := archive.Open(path)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	store, err := artifact.Open(dir)
	if err != nil {
		return nil, err
	}
	c, err := cluster.Load(store)
	if err != nil {
		if cluster.IsInconsistent(err) {
			return nil, apperrors.Wrap(apperrors.ErrCodeInconsistent,
				fmt.Sprintf("snapshot %s has contradicting artifacts", path), err)
		}
		return nil, err
	}

	doc := &clusterDocument{Cluster: c}
	doc.Init(header.KindCluster, version, header.WithMetadata("source", path))

	runPath := filepath.Join(dir, filepath.FromSlash(snapshotter.RunFile))
	if _, statErr := os.Stat(runPath); statErr == nil {
		run, err := serializer.FromFile[snapshotter.Run](runPath)
		if err != nil {
			slog.Warn("ignoring unreadable run record", slog.String("error", err.Error()))
		} else {
			doc.Run = run
		}
	}
	return doc, nil
}
