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
	"strconv"

	"k8s.io/utils/exec"

	"github.com/NVIDIA/cephsnap/pkg/defaults"
)

// BinaryTransport runs remote commands through the system ssh client with
// host key checking disabled.
type BinaryTransport struct {
	exec       exec.Interface
	user       string
	port       int
	identities []string
}

// NewBinaryTransport creates a transport shelling out to ssh. A nil executor
// uses the OS.
func NewBinaryTransport(e exec.Interface, cfg SSHConfig) *BinaryTransport {
	if e == nil {
		e = exec.New()
	}
	return &BinaryTransport{
		exec:       e,
		user:       cfg.User,
		port:       cfg.Port,
		identities: cfg.IdentityFiles,
	}
}

// Run implements Transport.
func (b *BinaryTransport) Run(ctx context.Context, host, command string) Result {
	return runCmd(b.exec.CommandContext(ctx, defaults.SSHBinary, b.args(host, command)...))
}

func (b *BinaryTransport) args(host, command string) []string {
	args := append([]string{}, defaults.SSHBinaryOptions...)
	if b.port > 0 && b.port != defaults.SSHPort {
		args = append(args, "-p", strconv.Itoa(b.port))
	}
	for _, id := range b.identities {
		args = append(args, "-i", id)
	}
	if b.user != "" {
		args = append(args, "-l", b.user)
	}
	return append(args, host, command)
}
