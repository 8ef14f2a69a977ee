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
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/NVIDIA/cephsnap/pkg/discovery"
)

// Func collects one target. A returned error aborts only this job.
type Func func(ctx context.Context, t discovery.Target) error

// Collector offers one Func per role it supports.
type Collector interface {
	Name() string
	Handlers() map[discovery.Role]Func
}

// Job is one (collector, target) pair.
type Job struct {
	Collector string
	Target    discovery.Target
	fn        Func
}

// Report summarizes a run. Failed includes panicked jobs.
type Report struct {
	Total    int           `json:"total" yaml:"total"`
	Failed   int           `json:"failed" yaml:"failed"`
	Panicked int           `json:"panicked" yaml:"panicked"`
	Skipped  int           `json:"skipped" yaml:"skipped"`
	Duration time.Duration `json:"duration" yaml:"duration"`
}

// Scheduler runs jobs on a fixed number of workers.
type Scheduler struct {
	poolSize int
}

// New creates a Scheduler with poolSize workers. Values below 1 mean 1.
func New(poolSize int) *Scheduler {
	if poolSize < 1 {
		poolSize = 1
	}
	return &Scheduler{poolSize: poolSize}
}

// Plan builds one job per (handler, target) in collector order, then target
// order. Targets whose role a collector does not handle are skipped.
func Plan(collectors []Collector, nodes *discovery.Nodes) []Job {
	var jobs []Job
	for _, c := range collectors {
		handlers := c.Handlers()
		for _, t := range nodes.Targets() {
			fn, ok := handlers[t.Role]
			if !ok {
				continue
			}
			jobs = append(jobs, Job{Collector: c.Name(), Target: t, fn: fn})
		}
	}
	return jobs
}

// Run executes jobs and returns after every worker has exited. At most
// poolSize jobs run at once. Job errors and panics are logged and counted;
// they never stop sibling jobs. Once ctx is done, jobs not yet dequeued are
// skipped.
func (s *Scheduler) Run(ctx context.Context, jobs []Job) Report {
	start := time.Now()
	slog.Info("starting collection",
		slog.Int("jobs", len(jobs)),
		slog.Int("workers", s.poolSize))

	tasks := make(chan Job, s.poolSize)
	var failed, panicked, skipped atomic.Int64

	// errgroup is used as a WaitGroup: workers never return an error
	var g errgroup.Group
	for i := 0; i < s.poolSize; i++ {
		g.Go(func() error {
			for job := range tasks {
				if ctx.Err() != nil {
					skipped.Add(1)
					jobsTotal.WithLabelValues(job.Collector, string(job.Target.Role), "skipped").Inc()
					continue
				}
				switch runJob(ctx, job) {
				case outcomeError:
					failed.Add(1)
				case outcomePanic:
					failed.Add(1)
					panicked.Add(1)
				}
			}
			return nil
		})
	}

	for _, job := range jobs {
		tasks <- job
	}
	close(tasks)
	_ = g.Wait()

	report := Report{
		Total:    len(jobs),
		Failed:   int(failed.Load()),
		Panicked: int(panicked.Load()),
		Skipped:  int(skipped.Load()),
		Duration: time.Since(start),
	}
	slog.Info("collection complete",
		slog.Int("jobs", report.Total),
		slog.Int("failed", report.Failed),
		slog.Int("skipped", report.Skipped),
		slog.Duration("duration", report.Duration))
	return report
}

type outcome int

const (
	outcomeSuccess outcome = iota
	outcomeError
	outcomePanic
)

func runJob(ctx context.Context, job Job) (res outcome) {
	role := string(job.Target.Role)
	start := time.Now()
	workersBusy.Inc()

	defer func() {
		workersBusy.Dec()
		jobDuration.WithLabelValues(job.Collector, role).Observe(time.Since(start).Seconds())

		if r := recover(); r != nil {
			slog.Error("collection job panicked",
				slog.String("collector", job.Collector),
				slog.String("target", job.Target.String()),
				slog.String("panic", fmt.Sprint(r)),
				slog.String("stack", string(debug.Stack())))
			res = outcomePanic
		}

		status := "success"
		switch res {
		case outcomeError:
			status = "error"
		case outcomePanic:
			status = "panic"
		}
		jobsTotal.WithLabelValues(job.Collector, role, status).Inc()
	}()

	if err := job.fn(ctx, job.Target); err != nil {
		slog.Error("collection job failed",
			slog.String("collector", job.Collector),
			slog.String("target", job.Target.String()),
			slog.String("error", err.Error()))
		return outcomeError
	}
	return outcomeSuccess
}
