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
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	apperrors "github.com/NVIDIA/cephsnap/pkg/errors"
	"github.com/NVIDIA/cephsnap/pkg/logging"
)

const (
	name           = "cephsnap"
	versionDefault = "dev"
	envPrefix      = "CEPHSNAP_"
)

var (
	// overridden during build with ldflags
	version = versionDefault
	commit  = "unknown"
	date    = "unknown"
)

// Execute runs the CLI with os.Args. It is called by main.main().
func Execute() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle SIGINT/SIGTERM for graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nReceived interrupt signal, shutting down gracefully...")
		cancel()
	}()

	if err := newRootCmd().Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps the outermost error code to the process exit status so
// scripts can tell bad input and broken snapshots from other failures.
func exitCode(err error) int {
	switch apperrors.CodeOf(err) {
	case apperrors.ErrCodeInvalidRequest:
		return 2
	case apperrors.ErrCodeInconsistent:
		return 3
	case apperrors.ErrCodeUnavailable:
		return 4
	default:
		return 1
	}
}

func newRootCmd() *cli.Command {
	return &cli.Command{
		Name:                  name,
		Usage:                 "Ceph cluster snapshot collector",
		Version:               fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		EnableShellCompletion: true,
		Description: `cephsnap captures a point-in-time snapshot of a Ceph cluster and
builds a topology model from it.

collect - discovers the cluster from the control plane, runs diagnostic
          commands on every monitor, OSD and host, and packs the results
          into a gzip tar archive.
inspect - loads a snapshot directory or archive and prints the cluster
          model as JSON, YAML or tables.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars(envPrefix + "LOG_LEVEL"),
			},
			&cli.StringFlag{
				Name:    "config",
				Usage:   "YAML configuration file applied before flags",
				Sources: cli.EnvVars(envPrefix + "CONFIG"),
			},
		},
		Before: initLogger,
		Commands: []*cli.Command{
			collectCmd(),
			inspectCmd(),
		},
	}
}

// initLogger configures slog after flags are parsed so --log-level takes
// effect before any command executes.
func initLogger(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	logLevel := cmd.String("log-level")
	logging.SetDefaultStructuredLoggerWithLevel(name, version, logLevel)
	slog.Debug("starting",
		slog.String("name", name),
		slog.String("version", version),
		slog.String("commit", commit),
		slog.String("date", date),
		slog.String("logLevel", logLevel))
	return ctx, nil
}
