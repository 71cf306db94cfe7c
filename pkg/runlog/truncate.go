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

package runlog

import "github.com/whiskeylabs/argonaut/pkg/identity"

const (
	maxMessageBytes = 10 * 1024
	maxStackBytes   = 20 * 1024
	maxParamsBytes  = 50 * 1024
)

// TruncateMessage clamps a log message to maxMessageBytes.
func TruncateMessage(s string) string { return truncateBytes(s, maxMessageBytes) }

// TruncateStack clamps a stack trace to maxStackBytes.
func TruncateStack(s string) string { return truncateBytes(s, maxStackBytes) }

func truncateBytes(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}

// NormalizeParams replaces params with a placeholder when its canonical
// JSON encoding would exceed maxParamsBytes, so a single oversized task
// payload never bloats the task-log index.
func NormalizeParams(params map[string]any) map[string]any {
	if params == nil {
		return nil
	}
	encoded, err := identity.CanonicalJSON(params)
	if err != nil || len(encoded) > maxParamsBytes {
		return map[string]any{"truncated": true, "reason": "params exceeded size limit"}
	}
	return params
}
