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

import (
	"testing"
	"time"
)

func TestTimeoutConstants(t *testing.T) {
	tests := []struct {
		name     string
		timeout  time.Duration
		minValue time.Duration
		maxValue time.Duration
	}{
		{"SSHDialTimeout", SSHDialTimeout, 1 * time.Second, 60 * time.Second},
		{"PushTimeout", PushTimeout, 30 * time.Second, 30 * time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.timeout < tt.minValue {
				t.Errorf("%s (%v) is below minimum expected value (%v)", tt.name, tt.timeout, tt.minValue)
			}
			if tt.timeout > tt.maxValue {
				t.Errorf("%s (%v) is above maximum expected value (%v)", tt.name, tt.timeout, tt.maxValue)
			}
		})
	}
}

func TestSchedulingDefaults(t *testing.T) {
	if PoolSize <= 0 {
		t.Errorf("PoolSize (%d) must be positive", PoolSize)
	}
	if StatCollectSeconds < 0 {
		t.Errorf("StatCollectSeconds (%d) must not be negative", StatCollectSeconds)
	}
	if SinkQueueSize <= 0 {
		t.Errorf("SinkQueueSize (%d) must be positive", SinkQueueSize)
	}
}

func TestSSHBinaryOptionsArePairs(t *testing.T) {
	if len(SSHBinaryOptions)%2 != 0 {
		t.Fatalf("SSHBinaryOptions must be -o/value pairs, got %v", SSHBinaryOptions)
	}
	for i := 0; i < len(SSHBinaryOptions); i += 2 {
		if SSHBinaryOptions[i] != "-o" {
			t.Errorf("option %d = %q, want -o", i, SSHBinaryOptions[i])
		}
	}
}
