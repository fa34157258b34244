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

package container

import (
	"encoding/json"
	"path"
	"strings"

	"gopkg.in/yaml.v3"

	apperrors "github.com/NVIDIA/asset-bundle-cache/pkg/errors"
)

// Decode converts raw asset bytes into T.
//
// []byte and string targets receive the bytes unchanged. Assets with a .json
// extension are decoded with encoding/json; every other asset is decoded as
// YAML, which also accepts JSON documents.
func Decode[T any](assetName string, data []byte) (T, error) {
	var out T

	switch p := any(&out).(type) {
	case *[]byte:
		*p = data
		return out, nil
	case *string:
		*p = string(data)
		return out, nil
	}

	var err error
	if strings.EqualFold(path.Ext(assetName), ".json") {
		err = json.Unmarshal(data, &out)
	} else {
		err = yaml.Unmarshal(data, &out)
	}
	if err != nil {
		return out, apperrors.WrapWithContext(apperrors.ErrCodeInternal, "failed to decode asset", err,
			map[string]any{"asset": assetName})
	}
	return out, nil
}
