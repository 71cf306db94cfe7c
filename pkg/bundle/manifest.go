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

import (
	"bytes"
	"encoding/json"
	"sort"
)

const ManifestVersion = "1.0"

// Artifact is one bundle-file descriptor.
type Artifact struct {
	ArtifactID   string `json:"artifactId"`
	ArtifactType string `json:"artifactType"`
	Tool         string `json:"tool"`
	Filename     string `json:"filename"`
	ObjectKey    string `json:"objectKey"`
	SHA256       string `json:"sha256"`
	Bytes        int64  `json:"bytes"`
}

// Manifest is the bundle.manifest.json descriptor.
type Manifest struct {
	ManifestVersion string     `json:"manifestVersion"`
	BundleID        string     `json:"bundleId"`
	Repo            string     `json:"repo"`
	BuildID         string     `json:"buildId"`
	CreatedAtMS     int64      `json:"createdAt"`
	Artifacts       []Artifact `json:"artifacts"`
}

// SortArtifactsBySHA256 sorts artifacts ascending by sha256, the order
// required before hashing or serializing the manifest.
func SortArtifactsBySHA256(artifacts []Artifact) []Artifact {
	sorted := make([]Artifact, len(artifacts))
	copy(sorted, artifacts)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].SHA256 < sorted[j].SHA256 })
	return sorted
}

// Serialize produces the stable manifest encoding: a fixed field order
// (the struct's declaration order, identical across runs) and a trailing
// newline from json.Encoder.
func (m Manifest) Serialize() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(m); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
