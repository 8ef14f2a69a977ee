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

// Package config holds the run configuration for cephsnap.
//
// Values are layered: Default, then an optional YAML file (Load), then CLI
// flags and CEPHSNAP_* environment variables applied by the CLI, then
// Validate.
//
// Example file:
//
//	ceph:
//	  conf: /etc/ceph/ceph.conf
//	  key: /etc/ceph/ceph.client.admin.keyring
//	collection:
//	  poolSize: 32
//	  statCollectSeconds: 0
//	  disable:
//	    - /smartctl$
//	ssh:
//	  user: ceph
//	  identityFiles: [/root/.ssh/id_ed25519]
//	  transport: native
package config
