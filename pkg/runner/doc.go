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

// Package runner executes shell commands locally or on remote hosts and
// reports a Result: an OK flag and the combined output.
//
// Local commands run through sh -c via k8s.io/utils/exec. Remote commands run
// through a Transport: SSHTransport (native golang.org/x/crypto/ssh client)
// or BinaryTransport (the system ssh client). An Executor paces new remote
// sessions with an optional rate limiter. No call retries or times out.
package runner
