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

// Package artifact stores collected command outputs in a snapshot directory.
//
// Each artifact has a slash separated logical path and a Format, and lives in
// the file <root>/<path>.<format>. A path is written at most once.
//
// Writing goes through a Sink: producers call Put from any goroutine and a
// single consumer goroutine owns the filesystem. JSON payloads are
// re-indented with sorted keys unless disabled.
//
// Reading goes through a Store: Get loads an artifact lazily and memoizes the
// result. Errors wrap ErrNotFound for absent paths and ErrFailed for paths
// recorded as failed commands, so callers distinguish them with errors.Is:
//
//	a, err := store.Get("master/pg_dump")
//	switch {
//	case errors.Is(err, artifact.ErrNotFound):
//	    // never collected
//	case errors.Is(err, artifact.ErrFailed):
//	    // collected, but the command failed
//	}
package artifact
