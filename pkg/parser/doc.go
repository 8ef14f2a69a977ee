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

// Package parser turns raw command output collected from cluster hosts into
// typed records: /proc/diskstats, /proc/net/dev, /proc/meminfo,
// /proc/uptime, /proc/loadavg, `ip a`, `iostat -x`, `df` and `lshw -xml`.
//
// Parsers are pure functions over byte payloads. They return plain errors
// describing the offending line; callers decide whether a malformed artifact
// is fatal.
package parser
