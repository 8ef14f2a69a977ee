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

// Package oci publishes snapshot archives as OCI artifacts.
//
// A snapshot archive is pushed as an OCI 1.1 manifest with artifact type
// "application/vnd.nvidia.cephsnap.snapshot" and a single layer holding the
// gzip tar unchanged, so any ORAS client can pull it back:
//
//	oras pull ghcr.io/acme/ceph-snapshots:prod-2025-01-02
//
// # Usage
//
//	ref, err := oci.ParseReference("oci://ghcr.io/acme/ceph-snapshots:prod")
//	if err != nil {
//	    return err
//	}
//	res, err := oci.Push(ctx, oci.PushOptions{
//	    Archive:   "ceph-snapshot-20250102T030405Z.tar.gz",
//	    Reference: ref,
//	})
//
// Save writes the same artifact into a local OCI image layout directory
// instead of a registry. Such targets are written oci-layout://<dir>[:tag]
// and parsed with ParseLayout.
//
// # Authentication
//
// Credentials are loaded from the standard Docker configuration
// (~/.docker/config.json) through the ORAS credentials package.
package oci
