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
	"time"

	"github.com/NVIDIA/cephsnap/pkg/config"
	"github.com/NVIDIA/cephsnap/pkg/defaults"
	"github.com/NVIDIA/cephsnap/pkg/runner"
	"github.com/NVIDIA/cephsnap/pkg/scheduler"
)

// Factory creates collectors with their dependencies.
// This interface enables dependency injection for testing.
type Factory interface {
	CreateCephCollector() scheduler.Collector
	CreateNodeCollector() scheduler.Collector
	CreatePerformanceCollector() scheduler.Collector
	Collectors() []scheduler.Collector
}

// Option configures a DefaultFactory.
type Option func(*DefaultFactory)

// WithSettings sets the path denylist.
func WithSettings(s *Settings) Option {
	return func(f *DefaultFactory) {
		f.settings = s
	}
}

// WithCeph sets the cluster configuration and keyring paths.
func WithCeph(c config.Ceph) Option {
	return func(f *DefaultFactory) {
		f.ceph = c
	}
}

// WithStatCollectSeconds sets the performance sampling duration. Zero
// disables the performance collector.
func WithStatCollectSeconds(seconds int) Option {
	return func(f *DefaultFactory) {
		f.statSeconds = seconds
	}
}

// WithClock replaces the time source used for master/collected_at.
func WithClock(now func() time.Time) Option {
	return func(f *DefaultFactory) {
		f.now = now
	}
}

// DefaultFactory creates collectors with production dependencies.
type DefaultFactory struct {
	emitter     *Emitter
	settings    *Settings
	ceph        config.Ceph
	statSeconds int
	now         func() time.Time
}

// NewDefaultFactory creates a factory emitting through r into sink.
func NewDefaultFactory(r runner.Runner, sink Sink, opts ...Option) *DefaultFactory {
	f := &DefaultFactory{
		ceph:        config.Ceph{Conf: defaults.CephConf, Key: defaults.CephKey},
		statSeconds: defaults.StatCollectSeconds,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	f.emitter = NewEmitter(r, sink, f.settings)
	return f
}

// CreateCephCollector creates the control-plane, OSD and monitor collector.
func (f *DefaultFactory) CreateCephCollector() scheduler.Collector {
	return &CephCollector{emitter: f.emitter, ceph: f.ceph, now: f.now}
}

// CreateNodeCollector creates the per-host collector.
func (f *DefaultFactory) CreateNodeCollector() scheduler.Collector {
	return &NodeCollector{emitter: f.emitter}
}

// CreatePerformanceCollector creates the per-host sampling collector.
func (f *DefaultFactory) CreatePerformanceCollector() scheduler.Collector {
	return &PerformanceCollector{emitter: f.emitter, seconds: f.statSeconds}
}

// Collectors returns every enabled collector.
func (f *DefaultFactory) Collectors() []scheduler.Collector {
	collectors := []scheduler.Collector{
		f.CreateCephCollector(),
		f.CreateNodeCollector(),
	}
	if f.statSeconds > 0 {
		collectors = append(collectors, f.CreatePerformanceCollector())
	}
	return collectors
}
