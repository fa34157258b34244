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

// Package serializer reads and writes structured data for the CLI, the
// configuration loader and the HTTP API.
//
// Output formats:
//   - JSON: indented, machine-readable
//   - YAML: human-readable configuration format
//   - Table: slices of structs render as columns; anything else is
//     flattened into FIELD/VALUE rows
//
// Writing:
//
//	w := serializer.NewFileWriterOrStdout(serializer.FormatTable, "")
//	defer w.Close()
//	if err := w.Serialize(ctx, statuses); err != nil {
//		return err
//	}
//
// Reading a local file or http(s) URL, format chosen by extension:
//
//	cfg, err := serializer.FromFile[config.Config]("bundled.yaml")
//
// HTTP responses:
//
//	serializer.RespondJSON(w, http.StatusOK, data)
package serializer
