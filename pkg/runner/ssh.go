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
	"bytes"
	"context"
	"fmt"
	"net"
	"os"
	"os/user"
	"strconv"
	"time"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
	"golang.org/x/crypto/ssh/knownhosts"

	"github.com/NVIDIA/cephsnap/pkg/defaults"
	apperrors "github.com/NVIDIA/cephsnap/pkg/errors"
)

// SSHConfig configures remote access for both transports.
type SSHConfig struct {
	// User defaults to the current user.
	User string
	// Port defaults to 22.
	Port int
	// IdentityFiles are private keys offered for authentication.
	IdentityFiles []string
	// KnownHostsFile enables host key verification. When empty, any host
	// key is accepted.
	KnownHostsFile string
	// DisableAgent skips keys held by the agent at SSH_AUTH_SOCK.
	DisableAgent bool
	// DialTimeout bounds connection establishment.
	DialTimeout time.Duration
}

// SSHTransport runs commands over a fresh native ssh connection per call.
type SSHTransport struct {
	config      *ssh.ClientConfig
	port        int
	dialTimeout time.Duration
	agentConn   net.Conn
}

// NewSSHTransport builds the client configuration: identity files and agent
// keys for auth, known_hosts or no verification for host keys.
func NewSSHTransport(cfg SSHConfig) (*SSHTransport, error) {
	t := &SSHTransport{
		port:        cfg.Port,
		dialTimeout: cfg.DialTimeout,
	}
	if t.port <= 0 {
		t.port = defaults.SSHPort
	}
	if t.dialTimeout <= 0 {
		t.dialTimeout = defaults.SSHDialTimeout
	}

	username := cfg.User
	if username == "" {
		username = currentUser()
	}

	var auth []ssh.AuthMethod
	var signers []ssh.Signer
	for _, path := range cfg.IdentityFiles {
		signer, err := loadSigner(path)
		if err != nil {
			return nil, err
		}
		signers = append(signers, signer)
	}
	if len(signers) > 0 {
		auth = append(auth, ssh.PublicKeys(signers...))
	}

	if !cfg.DisableAgent {
		if sock := os.Getenv("SSH_AUTH_SOCK"); sock != "" {
			conn, err := net.Dial("unix", sock)
			if err == nil {
				t.agentConn = conn
				auth = append(auth, ssh.PublicKeysCallback(agent.NewClient(conn).Signers))
			}
		}
	}

	if len(auth) == 0 {
		return nil, apperrors.New(apperrors.ErrCodeInvalidRequest,
			"no ssh authentication available: provide an identity file or an ssh agent")
	}

	hostKeyCallback := ssh.InsecureIgnoreHostKey() //nolint:gosec // matches StrictHostKeyChecking=no
	if cfg.KnownHostsFile != "" {
		cb, err := knownhosts.New(cfg.KnownHostsFile)
		if err != nil {
			t.Close()
			return nil, apperrors.Wrap(apperrors.ErrCodeInvalidRequest,
				fmt.Sprintf("failed to load known hosts %s", cfg.KnownHostsFile), err)
		}
		hostKeyCallback = cb
	}

	t.config = &ssh.ClientConfig{
		User:            username,
		Auth:            auth,
		HostKeyCallback: hostKeyCallback,
		Timeout:         t.dialTimeout,
	}
	return t, nil
}

// Close releases the agent connection, if any.
func (t *SSHTransport) Close() error {
	if t.agentConn != nil {
		return t.agentConn.Close()
	}
	return nil
}

// Run implements Transport.
func (t *SSHTransport) Run(ctx context.Context, host, command string) Result {
	addr := net.JoinHostPort(host, strconv.Itoa(t.port))

	dialer := net.Dialer{Timeout: t.dialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return failure(nil, fmt.Sprintf("ssh dial %s: %v", addr, err))
	}

	c, chans, reqs, err := ssh.NewClientConn(conn, addr, t.config)
	if err != nil {
		conn.Close()
		return failure(nil, fmt.Sprintf("ssh handshake %s: %v", addr, err))
	}
	client := ssh.NewClient(c, chans, reqs)
	defer client.Close()

	session, err := client.NewSession()
	if err != nil {
		return failure(nil, fmt.Sprintf("ssh session %s: %v", addr, err))
	}
	defer session.Close()

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr

	if err := session.Run(command); err != nil {
		return failure(stderr.Bytes(), err.Error())
	}
	return success(stdout.Bytes(), stderr.Bytes())
}

func loadSigner(path string) (ssh.Signer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInvalidRequest,
			fmt.Sprintf("failed to read identity file %s", path), err)
	}
	signer, err := ssh.ParsePrivateKey(data)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInvalidRequest,
			fmt.Sprintf("failed to parse identity file %s", path), err)
	}
	return signer, nil
}

func currentUser() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	if name := os.Getenv("USER"); name != "" {
		return name
	}
	return "root"
}
