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

package artifact

import (
	stderrors "errors"
	"fmt"
	"strings"

	apperrors "github.com/NVIDIA/cephsnap/pkg/errors"
)

// Format is the payload type of an artifact. It is also the file extension.
type Format string

const (
	// FormatJSON is a JSON document.
	FormatJSON Format = "json"
	// FormatText is plain command output.
	FormatText Format = "txt"
	// FormatXML is an XML document.
	FormatXML Format = "xml"
	// FormatBinary is opaque binary content.
	FormatBinary Format = "bin"
	// FormatError marks the output of a failed command.
	FormatError Format = "err"
)

// Formats lists every known format in lookup order.
var Formats = []Format{FormatJSON, FormatText, FormatXML, FormatBinary, FormatError}

// IsUnknown reports whether f is not one of Formats.
func (f Format) IsUnknown() bool {
	for _, known := range Formats {
		if f == known {
			return false
		}
	}
	return true
}

var (
	// ErrNotFound is the cause of errors for paths that were never written.
	ErrNotFound = stderrors.New("artifact not found")
	// ErrFailed is the cause of errors for paths recorded as failed commands.
	ErrFailed = stderrors.New("artifact recorded a failed command")
)

// Artifact is one collected output.
type Artifact struct {
	Path   string
	Format Format
	Data   []byte
}

// Normalize collapses repeated slashes, trims leading and trailing slashes
// and rejects empty paths and parent references.
func Normalize(path string) (string, error) {
	parts := strings.Split(path, "/")
	clean := parts[:0]
	for _, p := range parts {
		switch p {
		case "", ".":
			continue
		case "..":
			return "", apperrors.New(apperrors.ErrCodeInvalidRequest,
				fmt.Sprintf("artifact path %q escapes the snapshot root", path))
		}
		clean = append(clean, p)
	}
	if len(clean) == 0 {
		return "", apperrors.New(apperrors.ErrCodeInvalidRequest, "empty artifact path")
	}
	return strings.Join(clean, "/"), nil
}

// Join builds a slash separated artifact path.
func Join(elem ...string) string {
	return strings.Join(elem, "/")
}

func notFound(path string) error {
	return apperrors.WrapWithContext(apperrors.ErrCodeNotFound,
		fmt.Sprintf("artifact %s", path), ErrNotFound,
		map[string]any{"path": path})
}

func failed(path string, diagnostic []byte) error {
	return apperrors.WrapWithContext(apperrors.ErrCodeArtifactFailed,
		fmt.Sprintf("artifact %s", path), ErrFailed,
		map[string]any{"path": path, "output": strings.TrimSpace(string(diagnostic))})
}
