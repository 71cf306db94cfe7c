// Copyright 2025 WhiskeyLabs
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
//
// SPDX-License-Identifier: Apache-2.0

package action

import (
	"sort"
	"strings"

	"github.com/whiskeylabs/argonaut/pkg/identity"
)

// normalizeMultiline converts CRLF to LF and trims trailing whitespace from
// every line, so that payload hashes do not drift across platforms that
// write different line endings for the same logical text.
func normalizeMultiline(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.Join(lines, "\n")
}

// normalizeTree walks a canonical-JSON-shaped value, applying
// normalizeMultiline to every string leaf.
func normalizeTree(v any) any {
	switch t := v.(type) {
	case string:
		return normalizeMultiline(t)
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = normalizeTree(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = normalizeTree(val)
		}
		return out
	case []string:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = normalizeMultiline(val)
		}
		return out
	default:
		return v
	}
}

// payloadHash computes hash(canonical(payload)) after multiline
// normalization, per the §4.8 payloadHash contract.
func payloadHash(payload map[string]any) (string, error) {
	return identity.Hash(normalizeTree(payload))
}

// sortedStrings returns a sorted copy of ss without mutating the input.
func sortedStrings(ss []string) []string {
	out := make([]string, len(ss))
	copy(out, ss)
	sort.Strings(out)
	return out
}
