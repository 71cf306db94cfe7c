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

package parse

import (
	"encoding/json"

	"github.com/whiskeylabs/argonaut/pkg/identity"
)

type cyclonedxDoc struct {
	BomFormat  string              `json:"bomFormat"`
	Components []cyclonedxComponent `json:"components"`
}

type cyclonedxComponent struct {
	Purl    string `json:"purl"`
	Name    string `json:"name"`
	Version string `json:"version"`
	Scope   string `json:"scope"`
}

type spdxDoc struct {
	SPDXVersion string        `json:"spdxVersion"`
	Packages    []spdxPackage `json:"packages"`
}

type spdxPackage struct {
	Name           string            `json:"name"`
	VersionInfo    string            `json:"versionInfo"`
	ExternalRefs   []spdxExternalRef `json:"externalRefs"`
}

type spdxExternalRef struct {
	ReferenceCategory string `json:"referenceCategory"`
	ReferenceType     string `json:"referenceType"`
	ReferenceLocator  string `json:"referenceLocator"`
}

// ParseSBOM parses a CycloneDX or SPDX JSON document and emits components.
// Documents matching neither shape yield the empty list.
func ParseSBOM(data []byte, repo, buildID string) ([]Component, error) {
	var probe map[string]any
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, newError(MalformedJSON, "invalid SBOM JSON: %v", err)
	}

	if _, ok := probe["bomFormat"]; ok {
		var doc cyclonedxDoc
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, newError(MalformedJSON, "invalid CycloneDX JSON: %v", err)
		}
		return buildComponentsFromCycloneDX(doc, repo, buildID)
	}
	if _, ok := probe["spdxVersion"]; ok {
		var doc spdxDoc
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, newError(MalformedJSON, "invalid SPDX JSON: %v", err)
		}
		return buildComponentsFromSPDX(doc, repo, buildID)
	}
	return nil, nil
}

func buildComponentsFromCycloneDX(doc cyclonedxDoc, repo, buildID string) ([]Component, error) {
	out := make([]Component, 0, len(doc.Components))
	for _, c := range doc.Components {
		purlOrName := c.Purl
		if purlOrName == "" {
			purlOrName = c.Name
		}
		if purlOrName == "" {
			return nil, newError(InvalidField, "SBOM component missing both purl and name")
		}
		scope := c.Scope
		if scope == "" {
			scope = ScopeRuntime
		}
		id, err := identity.ComponentID(repo, buildID, purlOrName, c.Version, scope)
		if err != nil {
			return nil, newError(InvalidField, "could not derive componentId: %v", err)
		}
		out = append(out, Component{
			ComponentID: id,
			Repo:        repo,
			BuildID:     buildID,
			Purl:        c.Purl,
			Name:        c.Name,
			Version:     c.Version,
			Scope:       scope,
		})
	}
	return out, nil
}

func buildComponentsFromSPDX(doc spdxDoc, repo, buildID string) ([]Component, error) {
	out := make([]Component, 0, len(doc.Packages))
	for _, p := range doc.Packages {
		if p.Name == "" {
			return nil, newError(InvalidField, "SPDX package missing name")
		}
		purl := findPurl(p.ExternalRefs)
		purlOrName := purl
		if purlOrName == "" {
			purlOrName = p.Name
		}
		id, err := identity.ComponentID(repo, buildID, purlOrName, p.VersionInfo, ScopeRuntime)
		if err != nil {
			return nil, newError(InvalidField, "could not derive componentId: %v", err)
		}
		out = append(out, Component{
			ComponentID: id,
			Repo:        repo,
			BuildID:     buildID,
			Purl:        purl,
			Name:        p.Name,
			Version:     p.VersionInfo,
			Scope:       ScopeRuntime,
		})
	}
	return out, nil
}

func findPurl(refs []spdxExternalRef) string {
	for _, r := range refs {
		if r.ReferenceType == "purl" {
			return r.ReferenceLocator
		}
	}
	return ""
}
