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

package version

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Error types for version parsing failures
var (
	ErrEmptyVersion      = errors.New("version string is empty")
	ErrTooManyComponents = errors.New("version has more than 3 components")
	ErrNonNumeric        = errors.New("version component is not numeric")
	ErrNotBanner         = errors.New("not a ceph version banner")
)

// bannerPrefix starts the output of `ceph version` and `ceph -v`.
const bannerPrefix = "ceph version "

// codenames maps major release numbers to upstream release names.
var codenames = map[int]string{
	10: "jewel",
	11: "kraken",
	12: "luminous",
	13: "mimic",
	14: "nautilus",
	15: "octopus",
	16: "pacific",
	17: "quincy",
	18: "reef",
	19: "squid",
	20: "tentacle",
}

// Version is a Ceph release number such as 14.2.22. Distribution build
// suffixes ("-1.el8", "-172.el8cp") are kept in Extras.
type Version struct {
	Major int `json:"major" yaml:"major"`
	Minor int `json:"minor" yaml:"minor"`
	Patch int `json:"patch" yaml:"patch"`

	// Extras holds the build suffix including its leading '-' or '+'.
	Extras string `json:"extras,omitempty" yaml:"extras,omitempty"`
}

// String returns "Major.Minor.Patch" followed by Extras.
func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d%s", v.Major, v.Minor, v.Patch, v.Extras)
}

// Parse parses "14", "14.2", "14.2.22" or "14.2.22-1.el8". The "v" prefix
// is optional. Missing components are zero.
func Parse(s string) (Version, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "v")
	if s == "" {
		return Version{}, ErrEmptyVersion
	}

	var v Version
	mainPart := s
	// a '-' or '+' right after a digit starts the build suffix
	for i := 1; i < len(s); i++ {
		if (s[i] == '-' || s[i] == '+') && s[i-1] >= '0' && s[i-1] <= '9' {
			mainPart, v.Extras = s[:i], s[i:]
			break
		}
	}

	parts := strings.Split(mainPart, ".")
	if len(parts) > 3 {
		return Version{}, ErrTooManyComponents
	}
	dst := []*int{&v.Major, &v.Minor, &v.Patch}
	for i, part := range parts {
		num, err := strconv.Atoi(part)
		if err != nil || num < 0 || strings.HasPrefix(part, "+") {
			return Version{}, fmt.Errorf("%w: %q", ErrNonNumeric, part)
		}
		*dst[i] = num
	}
	return v, nil
}

// Release describes the cluster software as reported by `ceph version`.
type Release struct {
	Version Version `json:"version" yaml:"version"`

	// Codename is the upstream release name, e.g. "nautilus".
	Codename string `json:"codename,omitempty" yaml:"codename,omitempty"`

	// Stability is "stable", "rc" or "dev" when the banner states it.
	Stability string `json:"stability,omitempty" yaml:"stability,omitempty"`

	// Commit is the source revision the binaries were built from.
	Commit string `json:"commit,omitempty" yaml:"commit,omitempty"`
}

// ParseBanner parses a version banner:
//
//	ceph version 14.2.22 (ca74598065096e6fcbd8433c8779a2be0c889351) nautilus (stable)
//	ceph version 10.2.11 (e4b061b47f07f583c92a050d9e84b1813a35671e)
//
// Banners that do not name a codename get the one of their major release.
func ParseBanner(banner string) (*Release, error) {
	banner = strings.TrimSpace(banner)
	if !strings.HasPrefix(banner, bannerPrefix) {
		return nil, fmt.Errorf("%w: %q", ErrNotBanner, banner)
	}

	fields := strings.Fields(strings.TrimPrefix(banner, bannerPrefix))
	if len(fields) == 0 {
		return nil, ErrEmptyVersion
	}
	v, err := Parse(fields[0])
	if err != nil {
		return nil, err
	}

	r := &Release{Version: v}
	for _, f := range fields[1:] {
		switch {
		case strings.HasPrefix(f, "(") && strings.HasSuffix(f, ")"):
			inner := strings.Trim(f, "()")
			if r.Commit == "" && r.Codename == "" {
				r.Commit = inner
			} else {
				r.Stability = inner
			}
		case r.Codename == "":
			r.Codename = f
		}
	}
	if r.Codename == "" {
		r.Codename = Codename(v.Major)
	}
	return r, nil
}

// Codename returns the upstream name of a major release, or "" when it is
// not known.
func Codename(major int) string {
	return codenames[major]
}

// String returns "14.2.22 nautilus".
func (r *Release) String() string {
	if r.Codename == "" {
		return r.Version.String()
	}
	return r.Version.String() + " " + r.Codename
}
