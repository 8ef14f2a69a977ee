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
	"log/slog"

	"golang.org/x/time/rate"
	"k8s.io/utils/exec"
)

// Result is the outcome of a single command.
// OK is false iff the process exited non-zero or the transport failed.
// Output holds stdout followed by stderr on success, and stderr alone
// (or the transport error text) on failure.
type Result struct {
	OK     bool
	Output []byte
}

// Runner executes shell commands locally or on a named remote host.
type Runner interface {
	Run(ctx context.Context, command string) Result
	RunRemote(ctx context.Context, host, command string) Result
}

// Transport executes a command on a remote host.
type Transport interface {
	Run(ctx context.Context, host, command string) Result
}

// Executor is the production Runner. It holds no per-command state:
// no retries, no caching, no timeouts.
type Executor struct {
	exec      exec.Interface
	transport Transport
	limiter   *rate.Limiter
}

// Option configures an Executor.
type Option func(*Executor)

// WithExec replaces the process executor used for local commands.
func WithExec(e exec.Interface) Option {
	return func(x *Executor) {
		x.exec = e
	}
}

// WithTransport sets the remote transport. Without one, remote commands fail.
func WithTransport(t Transport) Option {
	return func(x *Executor) {
		x.transport = t
	}
}

// WithRateLimit paces the start of remote sessions. A non-positive rate
// disables pacing.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(x *Executor) {
		if perSecond <= 0 {
			x.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		x.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// New creates an Executor running local commands through the OS.
func New(opts ...Option) *Executor {
	x := &Executor{
		exec: exec.New(),
	}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

// Run executes command through the local shell.
func (x *Executor) Run(ctx context.Context, command string) Result {
	slog.Debug("running command", slog.String("command", command))
	return runCmd(x.exec.CommandContext(ctx, "sh", "-c", command))
}

// RunRemote executes command on host through the configured transport.
func (x *Executor) RunRemote(ctx context.Context, host, command string) Result {
	slog.Debug("running remote command",
		slog.String("host", host),
		slog.String("command", command))

	if x.transport == nil {
		return failure(nil, "no remote transport configured")
	}
	if x.limiter != nil {
		if err := x.limiter.Wait(ctx); err != nil {
			return failure(nil, err.Error())
		}
	}
	return x.transport.Run(ctx, host, command)
}

// runCmd runs cmd to completion, splitting output per the Result contract.
func runCmd(cmd exec.Cmd) Result {
	var stdout, stderr bytes.Buffer
	cmd.SetStdout(&stdout)
	cmd.SetStderr(&stderr)

	if err := cmd.Run(); err != nil {
		return failure(stderr.Bytes(), err.Error())
	}
	return success(stdout.Bytes(), stderr.Bytes())
}

func success(stdout, stderr []byte) Result {
	out := make([]byte, 0, len(stdout)+len(stderr))
	out = append(out, stdout...)
	out = append(out, stderr...)
	return Result{OK: true, Output: out}
}

// failure keeps stderr when the process produced any, otherwise the error text.
func failure(stderr []byte, reason string) Result {
	if len(stderr) > 0 {
		return Result{OK: false, Output: append([]byte(nil), stderr...)}
	}
	return Result{OK: false, Output: []byte(reason)}
}
