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

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/NVIDIA/cephsnap/pkg/defaults"
	apperrors "github.com/NVIDIA/cephsnap/pkg/errors"
)

// Transport names accepted in SSH.Transport.
const (
	TransportNative = "native"
	TransportBinary = "binary"
)

// Config is the complete run configuration.
type Config struct {
	Ceph       Ceph       `yaml:"ceph"`
	Collection Collection `yaml:"collection"`
	SSH        SSH        `yaml:"ssh"`
	Output     Output     `yaml:"output"`
	Push       Push       `yaml:"push"`
}

// Ceph locates the cluster configuration and credentials.
type Ceph struct {
	Conf string `yaml:"conf"`
	Key  string `yaml:"key"`
}

// Command returns the ceph invocation for sub with JSON output.
func (c Ceph) Command(sub string) string {
	return fmt.Sprintf("%s -c %s -k %s --format json %s", defaults.CephBinary, c.Conf, c.Key, sub)
}

// RadosCommand returns the rados invocation for sub with JSON output.
func (c Ceph) RadosCommand(sub string) string {
	return fmt.Sprintf("%s %s -c %s -k %s --format json", defaults.RadosBinary, sub, c.Conf, c.Key)
}

// Collection controls what is collected and how many jobs run at once.
type Collection struct {
	PoolSize           int      `yaml:"poolSize"`
	StatCollectSeconds int      `yaml:"statCollectSeconds"`
	Disable            []string `yaml:"disable"`
}

// SSH configures remote command execution.
type SSH struct {
	User          string   `yaml:"user"`
	Port          int      `yaml:"port"`
	IdentityFiles []string `yaml:"identityFiles"`
	KnownHosts    string   `yaml:"knownHosts"`
	Transport     string   `yaml:"transport"`
	// Rate is new sessions per second; zero disables pacing.
	Rate float64 `yaml:"rate"`
}

// Output controls the snapshot directory and archive.
type Output struct {
	// Result is the archive path. Empty derives it from the start time.
	Result       string `yaml:"result"`
	KeepFolder   bool   `yaml:"keepFolder"`
	NoPrettyJSON bool   `yaml:"noPrettyJSON"`
}

// Push optionally publishes the archive to an OCI registry
// (oci://registry/repo[:tag]) or a local OCI layout (oci-layout://dir[:tag]).
type Push struct {
	Target      string `yaml:"target"`
	PlainHTTP   bool   `yaml:"plainHTTP"`
	InsecureTLS bool   `yaml:"insecureTLS"`
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	return &Config{
		Ceph: Ceph{
			Conf: defaults.CephConf,
			Key:  defaults.CephKey,
		},
		Collection: Collection{
			PoolSize:           defaults.PoolSize,
			StatCollectSeconds: defaults.StatCollectSeconds,
		},
		SSH: SSH{
			Port:      defaults.SSHPort,
			Transport: TransportNative,
		},
	}
}

// Load reads a YAML file over Default. Unknown keys are rejected.
func Load(path string) (*Config, error) {
	cfg := Default()
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeNotFound,
			fmt.Sprintf("failed to read config %s", path), err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, apperrors.Wrap(apperrors.ErrCodeInvalidRequest,
			fmt.Sprintf("failed to parse config %s", path), err)
	}
	return cfg, nil
}

// Validate checks value ranges and that every disable pattern compiles.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Ceph.Conf) == "" || strings.TrimSpace(c.Ceph.Key) == "" {
		return apperrors.New(apperrors.ErrCodeInvalidRequest, "ceph conf and key paths are required")
	}
	if c.Collection.PoolSize < 1 {
		return apperrors.New(apperrors.ErrCodeInvalidRequest,
			fmt.Sprintf("pool size must be at least 1, got %d", c.Collection.PoolSize))
	}
	if c.Collection.StatCollectSeconds < 0 {
		return apperrors.New(apperrors.ErrCodeInvalidRequest,
			fmt.Sprintf("stat collect seconds must not be negative, got %d", c.Collection.StatCollectSeconds))
	}
	for _, p := range c.Collection.Disable {
		if _, err := regexp.Compile(p); err != nil {
			return apperrors.Wrap(apperrors.ErrCodeInvalidRequest,
				fmt.Sprintf("invalid disable pattern %q", p), err)
		}
	}
	if c.SSH.Port < 1 || c.SSH.Port > 65535 {
		return apperrors.New(apperrors.ErrCodeInvalidRequest,
			fmt.Sprintf("ssh port out of range: %d", c.SSH.Port))
	}
	switch c.SSH.Transport {
	case TransportNative, TransportBinary:
	default:
		return apperrors.New(apperrors.ErrCodeInvalidRequest,
			fmt.Sprintf("unsupported ssh transport %q", c.SSH.Transport))
	}
	if c.SSH.Rate < 0 {
		return apperrors.New(apperrors.ErrCodeInvalidRequest, "ssh rate must not be negative")
	}
	if t := c.Push.Target; t != "" && !strings.HasPrefix(t, "oci://") && !strings.HasPrefix(t, "oci-layout://") {
		return apperrors.New(apperrors.ErrCodeInvalidRequest,
			fmt.Sprintf("push target must start with oci:// or oci-layout://, got %q", t))
	}
	return nil
}
