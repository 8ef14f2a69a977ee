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

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/cephsnap/pkg/archive"
	"github.com/NVIDIA/cephsnap/pkg/artifact"
	"github.com/NVIDIA/cephsnap/pkg/config"
	apperrors "github.com/NVIDIA/cephsnap/pkg/errors"
	"github.com/NVIDIA/cephsnap/pkg/header"
	"github.com/NVIDIA/cephsnap/pkg/oci"
	"github.com/NVIDIA/cephsnap/pkg/scheduler"
	"github.com/NVIDIA/cephsnap/pkg/serializer"
	"github.com/NVIDIA/cephsnap/pkg/snapshotter"
)

func TestParseOutputFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    serializer.Format
		wantErr bool
	}{
		{"yaml", serializer.FormatYAML, false},
		{"JSON", serializer.FormatJSON, false},
		{" table ", serializer.FormatTable, false},
		{"xml", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseOutputFormat(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCommandStructure(t *testing.T) {
	root := newRootCmd()
	assert.Equal(t, name, root.Name)
	require.Len(t, root.Commands, 2)

	collect := root.Commands[0]
	assert.Equal(t, "collect", collect.Name)
	for _, flag := range []string{
		"conf", "key", "pool-size", "stat-collect-seconds", "disable", "result",
		"keep-folder", "no-pretty-json", "ssh-user", "ssh-port", "ssh-identity",
		"ssh-known-hosts", "ssh-transport", "ssh-rate", "push", "plain-http", "insecure-tls",
		"format",
	} {
		assert.True(t, hasFlag(collect, flag), "collect flag %q", flag)
	}

	inspect := root.Commands[1]
	assert.Equal(t, "inspect", inspect.Name)
	assert.True(t, hasFlag(inspect, "format"))
	assert.True(t, hasFlag(inspect, "output"))
}

func hasFlag(cmd *cli.Command, name string) bool {
	for _, f := range cmd.Flags {
		for _, n := range f.Names() {
			if n == name {
				return true
			}
		}
	}
	return false
}

// runCollectConfig runs the collect command with args and returns the
// resolved configuration instead of taking a snapshot.
func runCollectConfig(t *testing.T, args ...string) (*config.Config, error) {
	t.Helper()
	root := newRootCmd()
	root.Writer = &bytes.Buffer{}
	root.ErrWriter = &bytes.Buffer{}

	var got *config.Config
	root.Commands[0].Action = func(_ context.Context, cmd *cli.Command) error {
		cfg, err := loadCollectConfig(cmd)
		got = cfg
		return err
	}
	err := root.Run(context.Background(), append([]string{name}, args...))
	return got, err
}

func testResult() *snapshotter.Result {
	start := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	return &snapshotter.Result{
		Run: &snapshotter.Run{
			ID:         "run-7",
			StartedAt:  start,
			FinishedAt: start.Add(1500 * time.Millisecond),
			Jobs:       scheduler.Report{Total: 1234, Failed: 2},
			Artifacts:  artifact.Stats{Written: 16, Failed: 1},
		},
		Archive: &archive.Result{Path: "/tmp/snap.tar.gz", Size: 2048000, Digest: "sha256:abc", Files: 17},
		Push:    &oci.PushResult{Reference: "/srv/snapshots:nightly", Digest: "sha256:def"},
	}
}

func TestWriteCollectReportTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeCollectReport(context.Background(), &buf, serializer.FormatTable, testResult()))

	rows := make(map[string]string)
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		f := strings.Fields(line)
		if len(f) == 2 {
			rows[f[0]] = f[1]
		}
	}
	assert.Equal(t, "VALUE", rows["FIELD"])
	assert.Equal(t, "run-7", rows["ID"])
	assert.Equal(t, "/tmp/snap.tar.gz", rows["Archive.Path"])
	assert.Equal(t, "2,048,000", rows["Archive.Size"])
	assert.Equal(t, "1,234", rows["Jobs.Total"])
	assert.Equal(t, "2", rows["Jobs.Failed"])
	assert.Equal(t, "16", rows["Artifacts.Written"])
	assert.Equal(t, "1.5s", rows["Duration"])
	assert.Equal(t, "/srv/snapshots:nightly@sha256:def", rows["Pushed"])
}

func TestWriteCollectReportJSON(t *testing.T) {
	res := testResult()
	res.Push = nil
	res.Dir = "/tmp/cephsnap-1"

	var buf bytes.Buffer
	require.NoError(t, writeCollectReport(context.Background(), &buf, serializer.FormatJSON, res))

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "run-7", got["id"])
	assert.Equal(t, "/tmp/cephsnap-1", got["folder"])
	assert.NotContains(t, got, "pushed")
	assert.Equal(t, float64(17), got["archive"].(map[string]any)["files"])
	assert.Equal(t, float64(2), got["jobs"].(map[string]any)["failed"])
}

func TestCollectConfigPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cephsnap.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
collection:
  poolSize: 10
  statCollectSeconds: 5
ssh:
  user: filer
  port: 2222
`), 0o600))
	t.Setenv("CEPHSNAP_SSH_USER", "ops")

	cfg, err := runCollectConfig(t,
		"--config", path,
		"collect",
		"--pool-size", "8",
		"--disable", "^hosts/.*/lshw$",
		"--disable", "^master/auth_list$",
		"--ssh-rate", "2.5",
		"--ssh-transport", "binary",
		"--keep-folder",
		"--push", "oci://localhost:5000/snaps:test",
	)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, 8, cfg.Collection.PoolSize, "flag beats file")
	assert.Equal(t, 5, cfg.Collection.StatCollectSeconds, "file beats default")
	assert.Equal(t, "ops", cfg.SSH.User, "env beats file")
	assert.Equal(t, 2222, cfg.SSH.Port)
	assert.Equal(t, []string{"^hosts/.*/lshw$", "^master/auth_list$"}, cfg.Collection.Disable)
	assert.InDelta(t, 2.5, cfg.SSH.Rate, 1e-9)
	assert.Equal(t, config.TransportBinary, cfg.SSH.Transport)
	assert.True(t, cfg.Output.KeepFolder)
	assert.False(t, cfg.Output.NoPrettyJSON)
	assert.Equal(t, "oci://localhost:5000/snaps:test", cfg.Push.Target)
	assert.Equal(t, config.Default().Ceph, cfg.Ceph)
}

func TestCollectConfigInvalid(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"zero pool size", []string{"collect", "--pool-size", "0"}},
		{"bad pattern", []string{"collect", "--disable", "("}},
		{"bad transport", []string{"collect", "--ssh-transport", "telnet"}},
		{"bad push target", []string{"collect", "--push", "ghcr.io/x/y"}},
		{"missing config file", []string{"--config", "/nonexistent/cephsnap.yaml", "collect"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runCollectConfig(t, tt.args...)
			require.Error(t, err)
		})
	}
}

const inspectTree = `{"nodes":[
 {"id":-1,"name":"default","type":"root","children":[-2]},
 {"id":-2,"name":"h1","type":"host","children":[0]},
 {"id":0,"name":"osd.0","type":"osd","status":"up","crush_weight":1.5,"reweight":1}
]}`

func writeSnapshot(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	}
	return dir
}

func minimalSnapshot() map[string]string {
	return map[string]string{
		"master/osd_tree.json":    inspectTree,
		"master/osd_lspools.json": `[{"poolnum":0,"poolname":"rbd"}]`,
		"master/rados_df.json":    `{"pools":[{"name":"rbd","id":0,"size_bytes":1234567,"num_objects":2}]}`,
		"master/status.json":      `{"health":{"status":"HEALTH_OK"},"pgmap":{"num_pgs":4}}`,
		"meta/run.json":           `{"kind":"SnapshotRun","id":"run-1","jobs":{"total":3,"failed":1}}`,
	}
}

func runInspect(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.Writer = &out
	root.ErrWriter = &bytes.Buffer{}
	err := root.Run(context.Background(), append([]string{name, "inspect"}, args...))
	return out.String(), err
}

func TestInspectDirectoryJSON(t *testing.T) {
	dir := writeSnapshot(t, minimalSnapshot())

	out, err := runInspect(t, "--format", "json", dir)
	require.NoError(t, err)

	var doc struct {
		Kind     header.Kind       `json:"kind"`
		Metadata map[string]string `json:"metadata"`
		Run      struct {
			ID string `json:"id"`
		} `json:"run"`
		Cluster struct {
			Summary struct {
				OverallStatus string `json:"overall_status"`
			} `json:"summary"`
			OSDs []struct {
				ID   int    `json:"id"`
				Host string `json:"host"`
			} `json:"osds"`
			Pools []struct {
				Name string `json:"name"`
			} `json:"pools"`
		} `json:"cluster"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, header.KindCluster, doc.Kind)
	assert.Equal(t, dir, doc.Metadata["source"])
	assert.Equal(t, "run-1", doc.Run.ID)
	assert.Equal(t, "HEALTH_OK", doc.Cluster.Summary.OverallStatus)
	require.Len(t, doc.Cluster.OSDs, 1)
	assert.Equal(t, "h1", doc.Cluster.OSDs[0].Host)
	require.Len(t, doc.Cluster.Pools, 1)
	assert.Equal(t, "rbd", doc.Cluster.Pools[0].Name)
}

func TestInspectArchiveTable(t *testing.T) {
	dir := writeSnapshot(t, minimalSnapshot())
	dest := filepath.Join(t.TempDir(), "snap.tar.gz")
	_, err := archive.Pack(context.Background(), dir, dest)
	require.NoError(t, err)

	out, err := runInspect(t, "-t", "table", dest)
	require.NoError(t, err)
	assert.Contains(t, out, "== Summary ==")
	assert.Contains(t, out, "== Osds ==")
	assert.Contains(t, out, "== Pools ==")
	assert.Contains(t, out, "HEALTH_OK")
	assert.Contains(t, out, "1,234,567")
	assert.Contains(t, out, "h1")
	assert.Regexp(t, `crush roots\s+default`, out)
}

func TestInspectOutputFile(t *testing.T) {
	dir := writeSnapshot(t, minimalSnapshot())
	outPath := filepath.Join(t.TempDir(), "cluster.yaml")

	_, err := runInspect(t, "--output", outPath, dir)
	require.NoError(t, err)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "kind: Cluster")
	assert.Contains(t, string(data), "overall_status: HEALTH_OK")
}

func TestInspectErrors(t *testing.T) {
	t.Run("missing required artifact", func(t *testing.T) {
		files := minimalSnapshot()
		delete(files, "master/status.json")
		_, err := runInspect(t, writeSnapshot(t, files))
		require.Error(t, err)
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeNotFound))
	})

	t.Run("missing path", func(t *testing.T) {
		_, err := runInspect(t, filepath.Join(t.TempDir(), "absent"))
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrCodeNotFound, apperrors.CodeOf(err))
	})

	t.Run("contradicting artifacts", func(t *testing.T) {
		files := minimalSnapshot()
		files["master/rados_df.json"] = `{"pools":[{"name":"rbd","id":0},{"name":"cephfs","id":1}]}`
		dir := writeSnapshot(t, files)
		_, err := runInspect(t, dir)
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrCodeInconsistent, apperrors.CodeOf(err))
		assert.Contains(t, err.Error(), "snapshot "+dir+" has contradicting artifacts")
		assert.Equal(t, 3, exitCode(err))
	})

	t.Run("no arguments", func(t *testing.T) {
		_, err := runInspect(t)
		require.Error(t, err)
		assert.Equal(t, 2, exitCode(err))
	})

	t.Run("bad format", func(t *testing.T) {
		_, err := runInspect(t, "--format", "xml", t.TempDir())
		require.Error(t, err)
		assert.Equal(t, 2, exitCode(err))
	})
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"plain", errors.New("boom"), 1},
		{"not found", apperrors.New(apperrors.ErrCodeNotFound, "gone"), 1},
		{"invalid request", apperrors.New(apperrors.ErrCodeInvalidRequest, "bad flag"), 2},
		{"inconsistent", apperrors.Wrap(apperrors.ErrCodeInconsistent, "load", errors.New("pools differ")), 3},
		{"unavailable", apperrors.New(apperrors.ErrCodeUnavailable, "mon down"), 4},
		{"outermost wins", apperrors.Wrap(apperrors.ErrCodeInternal, "wrap", apperrors.New(apperrors.ErrCodeInconsistent, "x")), 1},
		{"wrapped by fmt", fmt.Errorf("collect: %w", apperrors.New(apperrors.ErrCodeUnavailable, "ssh")), 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}
