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
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/NVIDIA/cephsnap/pkg/defaults"
	apperrors "github.com/NVIDIA/cephsnap/pkg/errors"
)

// Stats summarizes what a Sink did.
type Stats struct {
	Written    int `json:"written" yaml:"written"`
	Failed     int `json:"failed" yaml:"failed"`
	Duplicates int `json:"duplicates" yaml:"duplicates"`
}

type record struct {
	path    string
	format  Format
	payload []byte
}

// Sink serializes artifact writes into a single goroutine that owns the
// snapshot directory. Put is safe for concurrent use.
type Sink struct {
	root   string
	pretty bool
	queue  chan record
	done   chan struct{}

	mu     sync.RWMutex
	closed bool

	// owned by the consumer goroutine until done is closed
	written map[string]Format
	stats   Stats
}

// SinkOption configures a Sink.
type SinkOption func(*Sink)

// WithPrettyJSON toggles re-indenting of JSON payloads. Enabled by default.
func WithPrettyJSON(enabled bool) SinkOption {
	return func(s *Sink) {
		s.pretty = enabled
	}
}

// NewSink creates root and starts the consumer goroutine.
func NewSink(root string, opts ...SinkOption) (*Sink, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal,
			fmt.Sprintf("failed to create snapshot directory %s", root), err)
	}

	s := &Sink{
		root:    root,
		pretty:  true,
		queue:   make(chan record, defaults.SinkQueueSize),
		done:    make(chan struct{}),
		written: make(map[string]Format),
	}
	for _, opt := range opts {
		opt(s)
	}

	go s.consume()
	return s, nil
}

// Root returns the snapshot directory.
func (s *Sink) Root() string {
	return s.root
}

// Put enqueues one artifact. A failed command (ok == false) is stored with
// the err format regardless of the requested one. Puts after Close are
// dropped.
func (s *Sink) Put(ok bool, path string, format Format, payload []byte) {
	if !ok {
		format = FormatError
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		slog.Warn("artifact dropped after sink close", slog.String("path", path))
		return
	}
	s.queue <- record{path: path, format: format, payload: payload}
}

// Close waits for every queued artifact to be written and returns the
// totals. It is safe to call more than once.
func (s *Sink) Close() Stats {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.queue)
	}
	s.mu.Unlock()

	<-s.done
	return s.stats
}

func (s *Sink) consume() {
	defer close(s.done)
	for r := range s.queue {
		s.write(r)
	}
}

func (s *Sink) write(r record) {
	path, err := Normalize(r.path)
	if err != nil {
		slog.Error("invalid artifact path", slog.String("path", r.path), slog.String("error", err.Error()))
		s.stats.Failed++
		artifactsRejected.WithLabelValues("invalid_path").Inc()
		return
	}

	if prev, ok := s.written[path]; ok {
		slog.Warn("artifact already written, dropping duplicate",
			slog.String("path", path),
			slog.String("format", string(r.format)),
			slog.String("existing", string(prev)))
		s.stats.Duplicates++
		artifactsRejected.WithLabelValues("duplicate").Inc()
		return
	}
	s.written[path] = r.format

	payload := r.payload
	if r.format == FormatJSON && s.pretty {
		payload = prettyJSON(path, payload)
	}

	file := filepath.Join(s.root, filepath.FromSlash(path)) + "." + string(r.format)
	if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
		s.fail(path, err)
		return
	}
	if err := os.WriteFile(file, payload, 0o644); err != nil { //nolint:gosec // snapshot files are meant to be shared
		s.fail(path, err)
		return
	}

	s.stats.Written++
	artifactsWritten.WithLabelValues(string(r.format)).Inc()
	artifactBytes.Add(float64(len(payload)))
}

func (s *Sink) fail(path string, err error) {
	slog.Error("failed to write artifact", slog.String("path", path), slog.String("error", err.Error()))
	s.stats.Failed++
	artifactsRejected.WithLabelValues("io").Inc()
}

// prettyJSON re-indents payload with sorted object keys. Payloads that do
// not parse are returned unchanged.
func prettyJSON(path string, payload []byte) []byte {
	if !json.Valid(payload) {
		slog.Warn("artifact is not valid json, storing verbatim", slog.String("path", path))
		return payload
	}

	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return payload
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", defaults.JSONIndent)
	if err := enc.Encode(v); err != nil {
		return payload
	}
	return buf.Bytes()
}
