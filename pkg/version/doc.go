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

// Package version parses Ceph release numbers and `ceph version` banners.
//
//	r, err := version.ParseBanner("ceph version 14.2.22 (ca74598...) nautilus (stable)")
//	// r.Version = 14.2.22, r.Codename = "nautilus", r.Stability = "stable"
package version
