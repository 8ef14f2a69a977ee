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

// Package runnertest provides a scripted runner.Runner for tests.
package runnertest

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/NVIDIA/cephsnap/pkg/runner"
)

// LocalHost is the host recorded for local calls.
const LocalHost = ""

// Call is one recorded invocation.
type Call struct {
	Host    string
	Command string
}

// Responder computes a result for a call that has no scripted entry.
type Responder func(host, command string) runner.Result

// Fake answers commands from a script keyed by host and command. Unscripted
// commands fail unless a fallback Responder is set. Safe for concurrent use.
type Fake struct {
	mu       sync.Mutex
	script   map[Call]runner.Result
	prefixes map[Call]runner.Result
	calls    []Call
	fallback Responder

	// Hook, when set, runs before every call. Tests use it to block or
	// panic inside a job.
	Hook func(host, command string)

	inFlight    atomic.Int64
	maxInFlight atomic.Int64
}

// New returns an empty Fake.
func New() *Fake {
	return &Fake{
		script:   make(map[Call]runner.Result),
		prefixes: make(map[Call]runner.Result),
	}
}

// On scripts the result of command on host. Use LocalHost for local calls.
func (f *Fake) On(host, command string, ok bool, output string) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.script[Call{Host: host, Command: command}] = runner.Result{OK: ok, Output: []byte(output)}
	return f
}

// OnPrefix scripts every command on host that starts with prefix.
func (f *Fake) OnPrefix(host, prefix string, ok bool, output string) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prefixes[Call{Host: host, Command: prefix}] = runner.Result{OK: ok, Output: []byte(output)}
	return f
}

// Fallback sets the responder for unscripted calls.
func (f *Fake) Fallback(r Responder) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fallback = r
	return f
}

// Run implements runner.Runner.
func (f *Fake) Run(_ context.Context, command string) runner.Result {
	return f.call(LocalHost, command)
}

// RunRemote implements runner.Runner.
func (f *Fake) RunRemote(_ context.Context, host, command string) runner.Result {
	return f.call(host, command)
}

func (f *Fake) call(host, command string) runner.Result {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		cur := f.maxInFlight.Load()
		if n <= cur || f.maxInFlight.CompareAndSwap(cur, n) {
			break
		}
	}

	if f.Hook != nil {
		f.Hook(host, command)
	}

	f.mu.Lock()
	c := Call{Host: host, Command: command}
	f.calls = append(f.calls, c)
	res, ok := f.script[c]
	if !ok {
		best := -1
		for p, r := range f.prefixes {
			if p.Host == host && strings.HasPrefix(command, p.Command) && len(p.Command) > best {
				res, best = r, len(p.Command)
			}
		}
		ok = best >= 0
	}
	fallback := f.fallback
	f.mu.Unlock()

	if ok {
		return res
	}
	if fallback != nil {
		return fallback(host, command)
	}
	return runner.Result{OK: false, Output: []byte("unscripted command: " + command)}
}

// Calls returns every recorded call in order.
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// CallsTo returns the commands issued on host.
func (f *Fake) CallsTo(host string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, c := range f.calls {
		if c.Host == host {
			out = append(out, c.Command)
		}
	}
	return out
}

// MaxInFlight reports the highest number of concurrent calls observed.
func (f *Fake) MaxInFlight() int {
	return int(f.maxInFlight.Load())
}
