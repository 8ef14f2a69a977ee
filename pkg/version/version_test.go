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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    Version
		wantErr error
	}{
		{"14", Version{Major: 14}, nil},
		{"v14.2", Version{Major: 14, Minor: 2}, nil},
		{"14.2.22", Version{Major: 14, Minor: 2, Patch: 22}, nil},
		{"16.2.10-172.el8cp", Version{Major: 16, Minor: 2, Patch: 10, Extras: "-172.el8cp"}, nil},
		{"18.2.1+git", Version{Major: 18, Minor: 2, Patch: 1, Extras: "+git"}, nil},
		{"", Version{}, ErrEmptyVersion},
		{"1.2.3.4", Version{}, ErrTooManyComponents},
		{"1..2", Version{}, ErrNonNumeric},
		{"a.b", Version{}, ErrNonNumeric},
		{"-1", Version{}, ErrNonNumeric},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseBanner(t *testing.T) {
	tests := []struct {
		name    string
		banner  string
		want    *Release
		wantStr string
	}{
		{
			name:   "modern",
			banner: "ceph version 14.2.22 (ca74598065096e6fcbd8433c8779a2be0c889351) nautilus (stable)\n",
			want: &Release{
				Version:   Version{Major: 14, Minor: 2, Patch: 22},
				Codename:  "nautilus",
				Stability: "stable",
				Commit:    "ca74598065096e6fcbd8433c8779a2be0c889351",
			},
			wantStr: "14.2.22 nautilus",
		},
		{
			name:   "pre luminous without codename",
			banner: "ceph version 10.2.11 (e4b061b47f07f583c92a050d9e84b1813a35671e)",
			want: &Release{
				Version:  Version{Major: 10, Minor: 2, Patch: 11},
				Codename: "jewel",
				Commit:   "e4b061b47f07f583c92a050d9e84b1813a35671e",
			},
			wantStr: "10.2.11 jewel",
		},
		{
			name:    "unknown major",
			banner:  "ceph version 99.0.0-1",
			want:    &Release{Version: Version{Major: 99, Extras: "-1"}},
			wantStr: "99.0.0-1",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseBanner(tt.banner)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantStr, got.String())
		})
	}
}

func TestParseBannerErrors(t *testing.T) {
	_, err := ParseBanner("rados version 14.2.22")
	assert.ErrorIs(t, err, ErrNotBanner)

	_, err = ParseBanner("ceph version x.y")
	assert.ErrorIs(t, err, ErrNonNumeric)
}

// FuzzParse checks that Parse never panics and that accepted input
// round-trips through String.
func FuzzParse(f *testing.F) {
	for _, s := range []string{"1", "v1.2", "14.2.22", "16.2.10-172.el8cp", "", ".", "1..2", "-1", "1.2.3.4", " 1.2 "} {
		f.Add(s)
	}
	f.Fuzz(func(t *testing.T, input string) {
		v, err := Parse(input)
		if err != nil {
			return
		}
		again, err := Parse(v.String())
		if err != nil {
			t.Fatalf("Parse(%q) = %v, but its String %q does not parse: %v", input, v, v.String(), err)
		}
		if again != v {
			t.Fatalf("round trip of %q: got %+v, want %+v", input, again, v)
		}
	})
}
