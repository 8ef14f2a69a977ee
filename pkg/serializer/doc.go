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

// Package serializer encodes cephsnap documents as JSON, YAML or tables,
// and decodes JSON and YAML documents back.
//
// # Formats
//
// JSON and YAML are the machine readable exports of the cluster model and the
// run record (meta/run.json). Table output is for terminals: values that
// implement Tabular print as titled sections with one row per entity, any
// other value is flattened into FIELD/VALUE pairs. Numbers in tables are
// grouped with English locale separators (1,234,567) and nil cells print as
// "-".
//
// # Usage
//
//	w := serializer.NewFileWriterOrStdout(serializer.FormatYAML, outPath)
//	defer w.Close()
//	if err := w.Serialize(ctx, model); err != nil {
//	    return err
//	}
//
// Reading a typed document:
//
//	run, err := serializer.FromFile[snapshotter.Run]("meta/run.json")
package serializer
