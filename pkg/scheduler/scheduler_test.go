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

package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NVIDIA/cephsnap/pkg/discovery"
)

type testCollector struct {
	name     string
	handlers map[discovery.Role]Func
}

func (c *testCollector) Name() string                      { return c.name }
func (c *testCollector) Handlers() map[discovery.Role]Func { return c.handlers }

func testNodes(t *testing.T, hosts ...string) *discovery.Nodes {
	t.Helper()
	nodes := discovery.NewNodes()
	require.NoError(t, nodes.Add(discovery.Target{Role: discovery.RoleMaster}))
	for i, h := range hosts {
		require.NoError(t, nodes.Add(discovery.Target{Role: discovery.RoleOSD, Node: h, OSDID: i}))
		nodes.AddHost(h)
	}
	return nodes
}

func TestPlan(t *testing.T) {
	noop := func(context.Context, discovery.Target) error { return nil }
	ceph := &testCollector{name: "ceph", handlers: map[discovery.Role]Func{
		discovery.RoleMaster: noop,
		discovery.RoleOSD:    noop,
	}}
	node := &testCollector{name: "node", handlers: map[discovery.Role]Func{
		discovery.RoleHost: noop,
	}}

	jobs := Plan([]Collector{ceph, node}, testNodes(t, "h1", "h2"))
	require.Len(t, jobs, 5)

	var got []string
	for _, j := range jobs {
		got = append(got, j.Collector+"/"+j.Target.String())
	}
	assert.Equal(t, []string{
		"ceph/master",
		"ceph/osd:h1(0)",
		"ceph/osd:h2(1)",
		"node/host:h1",
		"node/host:h2",
	}, got)
}

func TestRunBoundsConcurrency(t *testing.T) {
	const poolSize = 2
	entered := make(chan struct{}, 10)
	release := make(chan struct{})
	var inFlight, maxInFlight atomic.Int32

	fn := func(context.Context, discovery.Target) error {
		n := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			cur := maxInFlight.Load()
			if n <= cur || maxInFlight.CompareAndSwap(cur, n) {
				break
			}
		}
		entered <- struct{}{}
		<-release
		return nil
	}

	c := &testCollector{name: "node", handlers: map[discovery.Role]Func{discovery.RoleHost: fn}}
	jobs := Plan([]Collector{c}, testNodes(t, "h1", "h2", "h3", "h4", "h5"))
	require.Len(t, jobs, 5)

	done := make(chan Report)
	go func() { done <- New(poolSize).Run(context.Background(), jobs) }()

	for i := 0; i < poolSize; i++ {
		<-entered
	}
	select {
	case <-entered:
		t.Fatal("more jobs running than workers")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	report := <-done

	assert.Equal(t, 5, report.Total)
	assert.Equal(t, 0, report.Failed)
	assert.Equal(t, int32(poolSize), maxInFlight.Load())
}

func TestRunIsolatesFailures(t *testing.T) {
	var mu sync.Mutex
	ran := map[string]bool{}

	fn := func(_ context.Context, tgt discovery.Target) error {
		mu.Lock()
		ran[tgt.Node] = true
		mu.Unlock()

		switch tgt.Node {
		case "h1":
			return errors.New("ssh: connection refused")
		case "h2":
			panic("index out of range")
		}
		return nil
	}

	c := &testCollector{name: "node", handlers: map[discovery.Role]Func{discovery.RoleHost: fn}}
	jobs := Plan([]Collector{c}, testNodes(t, "h1", "h2", "h3", "h4"))

	report := New(1).Run(context.Background(), jobs)

	assert.Equal(t, Report{Total: 4, Failed: 2, Panicked: 1, Duration: report.Duration}, report)
	assert.Equal(t, map[string]bool{"h1": true, "h2": true, "h3": true, "h4": true}, ran)
}

func TestRunSkipsAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls atomic.Int32

	fn := func(context.Context, discovery.Target) error {
		if calls.Add(1) == 1 {
			cancel()
		}
		return nil
	}

	c := &testCollector{name: "node", handlers: map[discovery.Role]Func{discovery.RoleHost: fn}}
	jobs := Plan([]Collector{c}, testNodes(t, "h1", "h2", "h3"))

	report := New(1).Run(ctx, jobs)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, 2, report.Skipped)
	assert.Equal(t, 3, report.Total)
}

func TestNewClampsPoolSize(t *testing.T) {
	assert.Equal(t, 1, New(0).poolSize)
	assert.Equal(t, 1, New(-3).poolSize)
	assert.Equal(t, 8, New(8).poolSize)
}

func TestRunEmpty(t *testing.T) {
	report := New(4).Run(context.Background(), nil)
	assert.Equal(t, 0, report.Total)
	assert.Equal(t, 0, report.Failed)
}

func ExampleScheduler_Run() {
	c := &testCollector{name: "demo", handlers: map[discovery.Role]Func{
		discovery.RoleMaster: func(context.Context, discovery.Target) error { return nil },
	}}
	nodes := discovery.NewNodes()
	_ = nodes.Add(discovery.Target{Role: discovery.RoleMaster})

	report := New(4).Run(context.Background(), Plan([]Collector{c}, nodes))
	fmt.Println(report.Total, report.Failed)
	// Output: 1 0
}
