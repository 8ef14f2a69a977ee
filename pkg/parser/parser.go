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

package parser

import (
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"
)

// maxPayload bounds the size of a parsed artifact.
const maxPayload = 16 << 20

// Option configures a Parser.
type Option func(*Parser)

// Parser splits command output into lines and key-value pairs.
type Parser struct {
	kvDelimiter string
}

// WithKVDelimiter sets the key-value delimiter used by Map. Default is "=".
func WithKVDelimiter(kvDelim string) Option {
	return func(p *Parser) {
		p.kvDelimiter = kvDelim
	}
}

// NewParser creates a Parser with the provided options.
func NewParser(opts ...Option) *Parser {
	p := &Parser{kvDelimiter: "="}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Lines returns the non-empty lines of data with surrounding whitespace
// removed.
func (p *Parser) Lines(data []byte) ([]string, error) {
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("content is not valid UTF-8")
	}
	if len(data) > maxPayload {
		return nil, fmt.Errorf("content exceeds maximum size of %d bytes", maxPayload)
	}

	parts := strings.Split(string(data), "\n")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		result = append(result, trimmed)
	}
	return result, nil
}

// Map splits each line on the key-value delimiter. Lines without the
// delimiter are skipped.
func (p *Parser) Map(data []byte) (map[string]string, error) {
	lines, err := p.Lines(data)
	if err != nil {
		return nil, err
	}

	result := make(map[string]string, len(lines))
	for _, line := range lines {
		kv := strings.SplitN(line, p.kvDelimiter, 2)
		if len(kv) != 2 {
			slog.Debug("line without value, skipping", "line", line, "delimiter", p.kvDelimiter)
			continue
		}
		result[strings.TrimSpace(kv[0])] = strings.TrimSpace(kv[1])
	}
	return result, nil
}
