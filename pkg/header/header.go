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

package header

import (
	"time"
)

// Kind represents the type of a cephsnap document.
type Kind string

// Document kinds.
const (
	KindSnapshotRun Kind = "SnapshotRun"
	KindCluster     Kind = "Cluster"
)

// API group and version stamped on every document.
const (
	APIGroup       = "cephsnap.nvidia.com"
	APIVersion     = "v1alpha1"
	FullAPIVersion = APIGroup + "/" + APIVersion
)

// String returns the string representation of the Kind.
func (k Kind) String() string {
	return string(k)
}

// IsValid checks if the Kind is one of the recognized kinds.
func (k Kind) IsValid() bool {
	switch k {
	case KindSnapshotRun, KindCluster:
		return true
	default:
		return false
	}
}

// Option is a functional option for configuring Header instances.
type Option func(*Header)

// WithMetadata adds a metadata key-value pair.
func WithMetadata(key, value string) Option {
	return func(h *Header) {
		if h.Metadata == nil {
			h.Metadata = make(map[string]string)
		}
		h.Metadata[key] = value
	}
}

// WithKind sets the Kind of the Header.
func WithKind(kind Kind) Option {
	return func(h *Header) {
		h.Kind = kind
	}
}

// New creates a Header stamped with FullAPIVersion and applies opts.
func New(opts ...Option) *Header {
	h := &Header{
		APIVersion: FullAPIVersion,
		Metadata:   make(map[string]string),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Header identifies a document the way Kubernetes resources do, with Kind,
// APIVersion and free form Metadata.
type Header struct {
	// Kind is the type of the document.
	Kind Kind `json:"kind,omitempty" yaml:"kind,omitempty"`

	// APIVersion is the schema version of the document.
	APIVersion string `json:"apiVersion,omitempty" yaml:"apiVersion,omitempty"`

	// Metadata contains key-value pairs about the document.
	Metadata map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// Init sets kind and the current API version, and resets Metadata to the
// creation timestamp and the tool version. opts are applied last.
func (h *Header) Init(kind Kind, version string, opts ...Option) {
	base := []Option{
		WithKind(kind),
		WithMetadata("timestamp", time.Now().UTC().Format(time.RFC3339)),
	}
	if version != "" {
		base = append(base, WithMetadata("version", version))
	}
	*h = *New(append(base, opts...)...)
}
