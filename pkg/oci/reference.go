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
	"fmt"
	"strings"

	"github.com/distribution/reference"

	apperrors "github.com/NVIDIA/cephsnap/pkg/errors"
)

// URIScheme is the URI scheme of push targets (e.g., "oci://ghcr.io/org/repo:tag").
const URIScheme = "oci://"

// LayoutScheme is the URI scheme of local OCI image layout targets
// (e.g., "oci-layout:///srv/snapshots:nightly").
const LayoutScheme = "oci-layout://"

// DefaultTag is applied when a push target carries no tag.
const DefaultTag = "latest"

// Reference is a parsed OCI push target.
type Reference struct {
	// Registry is the OCI registry host (e.g., "ghcr.io", "localhost:5000").
	Registry string
	// Repository is the image repository path (e.g., "storage/ceph-snapshots").
	Repository string
	// Tag is the image tag. Empty means no tag was given.
	Tag string
}

// ParseReference parses an oci://registry/repository[:tag] target.
func ParseReference(target string) (*Reference, error) {
	if !strings.HasPrefix(target, URIScheme) {
		return nil, apperrors.NewWithContext(apperrors.ErrCodeInvalidRequest,
			"push target must start with "+URIScheme, map[string]any{"target": target})
	}

	ref, err := reference.ParseNormalizedNamed(strings.TrimPrefix(target, URIScheme))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInvalidRequest, "invalid OCI reference", err)
	}
	if _, ok := ref.(reference.Digested); ok {
		return nil, apperrors.NewWithContext(apperrors.ErrCodeInvalidRequest,
			"push target cannot be a digest reference", map[string]any{"target": target})
	}

	r := &Reference{
		Registry:   reference.Domain(ref),
		Repository: reference.Path(ref),
	}
	if tagged, ok := ref.(reference.Tagged); ok {
		r.Tag = tagged.Tag()
	}
	return r, nil
}

// String returns the reference with its oci:// scheme.
func (r *Reference) String() string {
	return URIScheme + r.ImageReference()
}

// ImageReference returns the Docker-style reference without the scheme.
func (r *Reference) ImageReference() string {
	if r.Tag == "" {
		return fmt.Sprintf("%s/%s", r.Registry, r.Repository)
	}
	return fmt.Sprintf("%s/%s:%s", r.Registry, r.Repository, r.Tag)
}

// WithTag returns a copy of the reference with the specified tag.
func (r *Reference) WithTag(tag string) *Reference {
	c := *r
	c.Tag = tag
	return &c
}

// TagOrDefault returns Tag, or DefaultTag when it is empty.
func (r *Reference) TagOrDefault() string {
	if r.Tag == "" {
		return DefaultTag
	}
	return r.Tag
}

// ParseLayout parses an oci-layout://<dir>[:tag] target. A colon followed by
// a path separator belongs to the directory.
func ParseLayout(target string) (dir, tag string, err error) {
	if !strings.HasPrefix(target, LayoutScheme) {
		return "", "", apperrors.NewWithContext(apperrors.ErrCodeInvalidRequest,
			"layout target must start with "+LayoutScheme, map[string]any{"target": target})
	}
	dir = strings.TrimPrefix(target, LayoutScheme)
	if i := strings.LastIndex(dir, ":"); i >= 0 && !strings.Contains(dir[i+1:], "/") {
		dir, tag = dir[:i], dir[i+1:]
	}
	if dir == "" {
		return "", "", apperrors.NewWithContext(apperrors.ErrCodeInvalidRequest,
			"layout target has no directory", map[string]any{"target": target})
	}
	return dir, tag, nil
}
