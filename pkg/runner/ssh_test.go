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

package runner

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"

	apperrors "github.com/NVIDIA/cephsnap/pkg/errors"
)

func writeIdentity(t *testing.T, dir string) (string, ssh.PublicKey) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	block, err := ssh.MarshalPrivateKey(priv, "")
	require.NoError(t, err)

	path := filepath.Join(dir, "id_ed25519")
	require.NoError(t, os.WriteFile(path, pem.EncodeToMemory(block), 0o600))

	sshPub, err := ssh.NewPublicKey(pub)
	require.NoError(t, err)
	return path, sshPub
}

// startServer runs a minimal ssh server that answers every exec request by
// echoing the command on stdout, or on stderr with exit status 1 when the
// command starts with "fail".
func startServer(t *testing.T, authorized ssh.PublicKey) int {
	t.Helper()

	_, hostPriv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	hostSigner, err := ssh.NewSignerFromKey(hostPriv)
	require.NoError(t, err)

	cfg := &ssh.ServerConfig{
		PublicKeyCallback: func(_ ssh.ConnMetadata, key ssh.PublicKey) (*ssh.Permissions, error) {
			if string(key.Marshal()) == string(authorized.Marshal()) {
				return &ssh.Permissions{}, nil
			}
			return nil, assert.AnError
		},
	}
	cfg.AddHostKey(hostSigner)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go serveConn(conn, cfg)
		}
	}()

	return ln.Addr().(*net.TCPAddr).Port
}

func serveConn(conn net.Conn, cfg *ssh.ServerConfig) {
	sc, chans, reqs, err := ssh.NewServerConn(conn, cfg)
	if err != nil {
		conn.Close()
		return
	}
	defer sc.Close()
	go ssh.DiscardRequests(reqs)

	for nc := range chans {
		if nc.ChannelType() != "session" {
			_ = nc.Reject(ssh.UnknownChannelType, "unsupported")
			continue
		}
		ch, requests, err := nc.Accept()
		if err != nil {
			return
		}
		go func() {
			defer ch.Close()
			for req := range requests {
				if req.Type != "exec" {
					_ = req.Reply(false, nil)
					continue
				}
				var payload struct{ Command string }
				if err := ssh.Unmarshal(req.Payload, &payload); err != nil {
					_ = req.Reply(false, nil)
					return
				}
				_ = req.Reply(true, nil)

				status := struct{ Status uint32 }{}
				if strings.HasPrefix(payload.Command, "fail") {
					_, _ = ch.Stderr().Write([]byte("failed: " + payload.Command))
					status.Status = 1
				} else {
					_, _ = ch.Write([]byte("ran: " + payload.Command))
				}
				_, _ = ch.SendRequest("exit-status", false, ssh.Marshal(&status))
				return
			}
		}()
	}
}

func TestSSHTransportRun(t *testing.T) {
	t.Setenv("SSH_AUTH_SOCK", "")
	dir := t.TempDir()
	identity, pub := writeIdentity(t, dir)
	port := startServer(t, pub)

	tr, err := NewSSHTransport(SSHConfig{
		User:          "ceph",
		Port:          port,
		IdentityFiles: []string{identity},
	})
	require.NoError(t, err)
	defer tr.Close()

	t.Run("success", func(t *testing.T) {
		res := tr.Run(context.Background(), "127.0.0.1", "uname -a")
		assert.True(t, res.OK)
		assert.Equal(t, "ran: uname -a", string(res.Output))
	})

	t.Run("non-zero exit", func(t *testing.T) {
		res := tr.Run(context.Background(), "127.0.0.1", "fail now")
		assert.False(t, res.OK)
		assert.Equal(t, "failed: fail now", string(res.Output))
	})

	t.Run("unreachable host", func(t *testing.T) {
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)
		closed := ln.Addr().(*net.TCPAddr).Port
		ln.Close()

		other, err := NewSSHTransport(SSHConfig{Port: closed, IdentityFiles: []string{identity}})
		require.NoError(t, err)
		res := other.Run(context.Background(), "127.0.0.1", "true")
		assert.False(t, res.OK)
		assert.Contains(t, string(res.Output), "127.0.0.1:"+strconv.Itoa(closed))
	})
}

func TestNewSSHTransportErrors(t *testing.T) {
	t.Setenv("SSH_AUTH_SOCK", "")
	dir := t.TempDir()

	t.Run("no auth", func(t *testing.T) {
		_, err := NewSSHTransport(SSHConfig{})
		require.Error(t, err)
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidRequest))
	})

	t.Run("missing identity", func(t *testing.T) {
		_, err := NewSSHTransport(SSHConfig{IdentityFiles: []string{filepath.Join(dir, "nope")}})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read identity file")
	})

	t.Run("bad identity", func(t *testing.T) {
		path := filepath.Join(dir, "garbage")
		require.NoError(t, os.WriteFile(path, []byte("not a key"), 0o600))
		_, err := NewSSHTransport(SSHConfig{IdentityFiles: []string{path}})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse identity file")
	})

	t.Run("missing known hosts", func(t *testing.T) {
		identity, _ := writeIdentity(t, dir)
		_, err := NewSSHTransport(SSHConfig{
			IdentityFiles:  []string{identity},
			KnownHostsFile: filepath.Join(dir, "known_hosts"),
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to load known hosts")
	})
}
