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

package serializer

import (
	"fmt"
	"log/slog"
	"net/url"
	"path"
	"strings"
)

// Format names an output encoding.
type Format string

const (
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
	FormatTable Format = "table"
)

var supportedFormats = []Format{FormatJSON, FormatYAML, FormatTable}

var formatsByExt = map[string]Format{
	".json":  FormatJSON,
	".yaml":  FormatYAML,
	".yml":   FormatYAML,
	".table": FormatTable,
	".txt":   FormatTable,
}

// IsUnknown reports whether f is not a supported format.
func (f Format) IsUnknown() bool {
	for _, s := range supportedFormats {
		if f == s {
			return false
		}
	}
	return true
}

// SupportedFormats returns the supported format names.
func SupportedFormats() []string {
	names := make([]string, len(supportedFormats))
	for i, f := range supportedFormats {
		names[i] = string(f)
	}
	return names
}

// ParseFormat returns the Format named by s, ignoring case and surrounding
// whitespace.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	if f.IsUnknown() {
		return "", fmt.Errorf("unknown output format: %q, supported values: %v", s, SupportedFormats())
	}
	return f, nil
}

// FormatFromPath picks a format from the extension of a file path or URL,
// ignoring case and any URL query. Unknown extensions fall back to JSON.
func FormatFromPath(filePath string) Format {
	p := filePath
	if u, err := url.Parse(filePath); err == nil && u.Scheme != "" && u.Host != "" {
		p = u.Path
	}
	if f, ok := formatsByExt[strings.ToLower(path.Ext(p))]; ok {
		return f
	}
	slog.Warn("unknown file extension, defaulting to JSON", "filePath", filePath)
	return FormatJSON
}
