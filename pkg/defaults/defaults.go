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

package defaults

import "time"

// Control-plane access.
const (
	// CephBinary is the control-plane CLI used for every cluster query.
	CephBinary = "ceph"

	// RadosBinary is the object-store CLI used for pool usage.
	RadosBinary = "rados"

	// CephConf is the default cluster configuration file.
	CephConf = "/etc/ceph/ceph.conf"

	// CephKey is the default admin keyring.
	CephKey = "/etc/ceph/ceph.client.admin.keyring"

	// OSDAdminSocket is the admin socket path template, formatted with the OSD id.
	OSDAdminSocket = "/var/run/ceph/ceph-osd.%d.asok"
)

// Collection scheduling.
const (
	// PoolSize caps the number of concurrent collection jobs, and with it the
	// number of concurrent remote connections.
	PoolSize = 64

	// StatCollectSeconds is how long per-host performance counters are sampled.
	// Zero disables the performance collector.
	StatCollectSeconds = 15

	// TopIterations is the number of top snapshots taken during sampling.
	TopIterations = 10
)

// Remote shell.
const (
	// SSHPort is the default port for remote hosts.
	SSHPort = 22

	// SSHDialTimeout bounds connection establishment only; commands
	// themselves run without a deadline.
	SSHDialTimeout = 15 * time.Second

	// SSHBinary is the client used by the binary transport.
	SSHBinary = "ssh"
)

// SSHBinaryOptions are passed to the ssh client by the binary transport.
var SSHBinaryOptions = []string{
	"-o", "LogLevel=quiet",
	"-o", "StrictHostKeyChecking=no",
	"-o", "UserKnownHostsFile=/dev/null",
}

// Artifact handling.
const (
	// SinkQueueSize is the buffer of the artifact sink channel.
	SinkQueueSize = 256

	// JSONIndent is used when canonicalizing JSON artifacts.
	JSONIndent = "    "

	// ArchiveSuffix is appended to generated archive names.
	ArchiveSuffix = ".tar.gz"
)

// PushTimeout bounds publishing the archive to an OCI registry.
const PushTimeout = 5 * time.Minute
