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

package collector

import (
	"fmt"
	"regexp"

	apperrors "github.com/NVIDIA/cephsnap/pkg/errors"
)

// Settings decides which artifact paths are collected.
type Settings struct {
	disabled []*regexp.Regexp
}

// NewSettings compiles the denylist. A path matching any pattern anywhere
// (search, not full match) is not collected.
func NewSettings(patterns ...string) (*Settings, error) {
	s := &Settings{}
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrCodeInvalidRequest,
				fmt.Sprintf("invalid disable pattern %q", p), err)
		}
		s.disabled = append(s.disabled, re)
	}
	return s, nil
}

// Allowed reports whether path may be collected. A nil Settings allows all.
func (s *Settings) Allowed(path string) bool {
	if s == nil {
		return true
	}
	for _, re := range s.disabled {
		if re.MatchString(path) {
			return false
		}
	}
	return true
}
