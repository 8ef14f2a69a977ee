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

// Package scheduler fans collection jobs out over a fixed pool of workers.
//
// Plan turns the collectors' role handlers and the discovered targets into
// one Job per (handler, target). Run feeds the jobs through a bounded channel
// to poolSize workers and joins them; the pool size is a hard bound on
// concurrent jobs, and therefore on concurrent remote connections.
//
// A job's error or panic is logged and counted and never affects other jobs.
// Per-job durations and outcomes are exported as Prometheus metrics.
package scheduler
