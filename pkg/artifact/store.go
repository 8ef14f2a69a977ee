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
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	apperrors "github.com/NVIDIA/cephsnap/pkg/errors"
)

// Store reads artifacts from a snapshot directory. Each path is loaded on
// first access and memoized, including misses.
type Store struct {
	root string

	mu    sync.Mutex
	cache map[string]entry
}

type entry struct {
	artifact *Artifact
	err      error
}

// Open returns a Store over the snapshot directory root.
func Open(root string) (*Store, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeNotFound,
			fmt.Sprintf("snapshot directory %s", root), err)
	}
	if !info.IsDir() {
		return nil, apperrors.New(apperrors.ErrCodeInvalidRequest,
			fmt.Sprintf("snapshot path %s is not a directory", root))
	}
	return &Store{
		root:  root,
		cache: make(map[string]entry),
	}, nil
}

// Root returns the snapshot directory.
func (s *Store) Root() string {
	return s.root
}

// Get returns the artifact stored at path. The error wraps ErrNotFound when
// nothing was written there and ErrFailed when the producing command failed.
func (s *Store) Get(path string) (*Artifact, error) {
	norm, err := Normalize(path)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.cache[norm]; ok {
		return e.artifact, e.err
	}
	a, err := s.load(norm)
	s.cache[norm] = entry{artifact: a, err: err}
	return a, err
}

func (s *Store) load(path string) (*Artifact, error) {
	base := filepath.Join(s.root, filepath.FromSlash(path))
	for _, f := range Formats {
		data, err := os.ReadFile(base + "." + string(f))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, apperrors.Wrap(apperrors.ErrCodeInternal,
				fmt.Sprintf("failed to read artifact %s", path), err)
		}
		if f == FormatError {
			return nil, failed(path, data)
		}
		return &Artifact{Path: path, Format: f, Data: data}, nil
	}
	return nil, notFound(path)
}

// Has reports whether a successful artifact exists at path.
func (s *Store) Has(path string) bool {
	_, err := s.Get(path)
	return err == nil
}

// List returns the sorted child names under path without loading content.
// File children are reported without their format extension.
func (s *Store) List(path string) ([]string, error) {
	dir := s.root
	if strings.Trim(path, "/") != "" {
		norm, err := Normalize(path)
		if err != nil {
			return nil, err
		}
		dir = filepath.Join(s.root, filepath.FromSlash(norm))
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, notFound(path)
		}
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal,
			fmt.Sprintf("failed to list %s", path), err)
	}

	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		name := e.Name()
		if !e.IsDir() {
			ext := filepath.Ext(name)
			if Format(strings.TrimPrefix(ext, ".")).IsUnknown() {
				continue
			}
			name = strings.TrimSuffix(name, ext)
		}
		seen[name] = struct{}{}
	}

	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names, nil
}

// Text returns the payload at path as a string.
func (s *Store) Text(path string) (string, error) {
	a, err := s.Get(path)
	if err != nil {
		return "", err
	}
	return string(a.Data), nil
}

// JSON decodes the json artifact at path into v.
func (s *Store) JSON(path string, v any) error {
	a, err := s.Get(path)
	if err != nil {
		return err
	}
	if a.Format != FormatJSON {
		return apperrors.New(apperrors.ErrCodeInvalidRequest,
			fmt.Sprintf("artifact %s is %s, not json", path, a.Format))
	}
	if err := json.Unmarshal(a.Data, v); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeInvalidRequest,
			fmt.Sprintf("malformed json in artifact %s", path), err)
	}
	return nil
}
