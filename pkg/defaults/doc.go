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

// Package defaults provides centralized configuration constants for cephsnap.
//
// Values here are the defaults behind CLI flags and the YAML config file:
// control-plane paths, worker pool size, sampling duration, ssh transport
// settings and the few timeouts the tool applies. Remote commands themselves
// never get a timeout; only connection setup and registry pushes are bounded.
//
// # Usage
//
//	import "github.com/NVIDIA/cephsnap/pkg/defaults"
//
//	cfg.Collection.PoolSize = defaults.PoolSize
package defaults
