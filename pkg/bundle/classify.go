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

package bundle

import "strings"

const (
	TypeSARIF    = "sarif"
	TypeLockfile = "lockfile"
	TypeSBOM     = "sbom"
	TypeOther    = "other"

	ManifestFilename = "bundle.manifest.json"
)

// ClassifyArtifact assigns an artifact type from a filename heuristic, per
// the recognized-types table in spec §6. path may include directory
// components; the heuristic is case-insensitive (the path is lower-cased
// first) and matches substrings anywhere in the path, matching the source
// contract.
func ClassifyArtifact(path string) string {
	lower := strings.ToLower(path)

	if strings.HasSuffix(lower, ".sarif") || strings.HasSuffix(lower, ".sarif.json") {
		return TypeSARIF
	}

	base := lower
	if idx := strings.LastIndexByte(lower, '/'); idx >= 0 {
		base = lower[idx+1:]
	}
	if base == "package-lock.json" || base == "yarn.lock" || strings.Contains(lower, "lock") {
		return TypeLockfile
	}

	if strings.Contains(lower, "sbom") || strings.Contains(lower, "cyclonedx") ||
		strings.HasSuffix(lower, ".cdx.json") || strings.HasSuffix(lower, ".spdx.json") {
		return TypeSBOM
	}

	return TypeOther
}
