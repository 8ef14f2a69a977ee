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
	"context"
	"log/slog"

	"github.com/NVIDIA/cephsnap/pkg/artifact"
	"github.com/NVIDIA/cephsnap/pkg/runner"
)

// Sink receives collected artifacts.
type Sink interface {
	Put(ok bool, path string, format artifact.Format, payload []byte)
}

// Emitter runs commands and forwards their output to a Sink, skipping
// paths the Settings disallow before anything runs.
type Emitter struct {
	runner   runner.Runner
	sink     Sink
	settings *Settings
}

// NewEmitter creates an Emitter. A nil settings allows every path.
func NewEmitter(r runner.Runner, sink Sink, settings *Settings) *Emitter {
	return &Emitter{runner: r, sink: sink, settings: settings}
}

// Allowed reports whether path may be collected.
func (e *Emitter) Allowed(path string) bool {
	return e.settings.Allowed(path)
}

// Emit forwards one artifact if path is allowed.
func (e *Emitter) Emit(ok bool, path string, format artifact.Format, payload []byte) {
	if !e.Allowed(path) {
		slog.Debug("artifact disabled", slog.String("path", path))
		return
	}
	e.sink.Put(ok, path, format, payload)
}

// Local runs cmd on this machine and emits its output at path.
func (e *Emitter) Local(ctx context.Context, path string, format artifact.Format, cmd string) {
	if !e.Allowed(path) {
		slog.Debug("artifact disabled", slog.String("path", path))
		return
	}
	res := e.runner.Run(ctx, cmd)
	if !res.OK {
		slog.Warn("command failed locally", slog.String("command", cmd))
	}
	e.sink.Put(res.OK, path, format, res.Output)
}

// Remote runs cmd on host and emits its output at path.
func (e *Emitter) Remote(ctx context.Context, host, path string, format artifact.Format, cmd string) {
	if !e.Allowed(path) {
		slog.Debug("artifact disabled", slog.String("path", path))
		return
	}
	res := e.runner.RunRemote(ctx, host, cmd)
	if !res.OK {
		slog.Warn("command failed on node", slog.String("host", host), slog.String("command", cmd))
	}
	e.sink.Put(res.OK, path, format, res.Output)
}

// Runner returns the underlying runner for prerequisite commands whose
// output is needed before emitting.
func (e *Emitter) Runner() runner.Runner {
	return e.runner
}
