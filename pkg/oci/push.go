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

package oci

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"

	ociv1 "github.com/opencontainers/image-spec/specs-go/v1"
	oras "oras.land/oras-go/v2"
	"oras.land/oras-go/v2/content/file"
	ocistore "oras.land/oras-go/v2/content/oci"
	"oras.land/oras-go/v2/registry/remote"
	"oras.land/oras-go/v2/registry/remote/auth"
	"oras.land/oras-go/v2/registry/remote/credentials"

	apperrors "github.com/NVIDIA/cephsnap/pkg/errors"
)

const (
	// ArtifactType is the artifact type of pushed snapshots.
	ArtifactType = "application/vnd.nvidia.cephsnap.snapshot"

	// LayerMediaType is the media type of the single archive layer.
	LayerMediaType = "application/vnd.nvidia.cephsnap.snapshot.layer.v1.tar+gzip"
)

// PushOptions configures Push.
type PushOptions struct {
	// Archive is the snapshot archive to publish.
	Archive string
	// Reference is the destination. An empty tag is pushed as DefaultTag.
	Reference *Reference
	// PlainHTTP uses HTTP instead of HTTPS for the registry connection.
	PlainHTTP bool
	// InsecureTLS skips TLS certificate verification.
	InsecureTLS bool
	// Annotations are added to the manifest.
	Annotations map[string]string
}

// PushResult contains the result of a successful push.
type PushResult struct {
	// Digest is the digest of the pushed manifest.
	Digest string
	// Reference is the full image reference (registry/repository:tag).
	Reference string
}

// Push publishes the archive as a single layer OCI artifact.
func Push(ctx context.Context, opts PushOptions) (*PushResult, error) {
	if opts.Reference == nil {
		return nil, apperrors.New(apperrors.ErrCodeInvalidRequest, "OCI reference is required")
	}
	ref := opts.Reference.WithTag(opts.Reference.TagOrDefault())

	fs, err := pack(ctx, opts.Archive, ref.Tag, opts.Annotations)
	if err != nil {
		return nil, err
	}
	defer func() { _ = fs.Close() }()

	repo, err := remote.NewRepository(fmt.Sprintf("%s/%s", ref.Registry, ref.Repository))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInvalidRequest, "failed to initialize remote repository", err)
	}
	repo.PlainHTTP = opts.PlainHTTP
	repo.Client = createAuthClient(opts.PlainHTTP, opts.InsecureTLS)

	slog.Info("pushing snapshot archive",
		slog.String("reference", ref.ImageReference()),
		slog.String("archive", opts.Archive))

	desc, err := oras.Copy(ctx, fs, ref.Tag, repo, ref.Tag, oras.DefaultCopyOptions)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeUnavailable, "failed to push artifact to registry", err)
	}

	return &PushResult{
		Digest:    desc.Digest.String(),
		Reference: ref.ImageReference(),
	}, nil
}

// Save writes the archive as an OCI artifact into an OCI image layout
// directory, creating it if needed.
func Save(ctx context.Context, archive, layoutDir, tag string, annotations map[string]string) (*PushResult, error) {
	if tag == "" {
		tag = DefaultTag
	}

	fs, err := pack(ctx, archive, tag, annotations)
	if err != nil {
		return nil, err
	}
	defer func() { _ = fs.Close() }()

	store, err := ocistore.New(layoutDir)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, "failed to open OCI layout", err)
	}

	desc, err := oras.Copy(ctx, fs, tag, store, tag, oras.DefaultCopyOptions)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, "failed to copy artifact into OCI layout", err)
	}

	return &PushResult{
		Digest:    desc.Digest.String(),
		Reference: layoutDir + ":" + tag,
	}, nil
}

// pack stages the archive in a file store and tags an OCI 1.1 manifest
// referencing it. The caller closes the returned store.
func pack(ctx context.Context, archive, tag string, annotations map[string]string) (*file.Store, error) {
	abs, err := filepath.Abs(archive)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, "failed to resolve archive path", err)
	}

	fs, err := file.New(filepath.Dir(abs))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, "failed to create file store", err)
	}

	layer, err := fs.Add(ctx, filepath.Base(abs), LayerMediaType, abs)
	if err != nil {
		_ = fs.Close()
		return nil, apperrors.Wrap(apperrors.ErrCodeNotFound, "failed to add archive to store", err)
	}

	packOpts := oras.PackManifestOptions{
		Layers:              []ociv1.Descriptor{layer},
		ManifestAnnotations: annotations,
	}
	manifest, err := oras.PackManifest(ctx, fs, oras.PackManifestVersion1_1, ArtifactType, packOpts)
	if err != nil {
		_ = fs.Close()
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, "failed to pack manifest", err)
	}

	if err := fs.Tag(ctx, manifest, tag); err != nil {
		_ = fs.Close()
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, "failed to tag manifest in local store", err)
	}
	return fs, nil
}

// createAuthClient creates an HTTP client with optional TLS configuration
// and Docker credential support.
func createAuthClient(plainHTTP, insecureTLS bool) *auth.Client {
	credStore, err := credentials.NewStoreFromDocker(credentials.StoreOptions{})
	if err != nil {
		slog.Debug("docker credentials unavailable", slog.String("error", err.Error()))
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if !plainHTTP && insecureTLS {
		if transport.TLSClientConfig == nil {
			transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
		} else {
			transport.TLSClientConfig.InsecureSkipVerify = true //nolint:gosec
		}
	}

	client := &auth.Client{
		Client: &http.Client{Transport: transport},
		Cache:  auth.NewCache(),
	}
	if credStore != nil {
		client.Credential = credentials.Credential(credStore)
	}
	return client
}
