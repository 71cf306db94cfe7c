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
	"sort"
	"strings"

	"github.com/whiskeylabs/argonaut/pkg/identity"
)

// npmLockV2 is the subset of an npm v2/v3 package-lock.json this parser
// reads: a flat map of node_modules paths to package records.
type npmLockV2 struct {
	LockfileVersion int                       `json:"lockfileVersion"`
	Packages        map[string]npmLockPackage `json:"packages"`
	Dependencies    map[string]npmLockDepV1   `json:"dependencies"`
}

type npmLockPackage struct {
	Version  string `json:"version"`
	Dev      bool   `json:"dev"`
	Optional bool   `json:"optional"`
	Resolved string `json:"resolved"`
}

// npmLockDepV1 is the legacy (lockfileVersion 1) nested dependency shape.
type npmLockDepV1 struct {
	Version      string                  `json:"version"`
	Dev          bool                    `json:"dev"`
	Optional     bool                    `json:"optional"`
	Dependencies map[string]npmLockDepV1 `json:"dependencies"`
}

// ParseLockfile parses a package-lock.json-shaped document and emits
// dependency edges keyed by (parent, child, version, scope). Direct
// dependencies use the virtual parent "__root__".
func ParseLockfile(data []byte, repo, buildID string) ([]DependencyEdge, error) {
	var doc npmLockV2
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, newError(MalformedJSON, "invalid lockfile JSON: %v", err)
	}

	var edges []DependencyEdge
	switch {
	case len(doc.Packages) > 0:
		edges = parseNpmV2(doc.Packages)
	case len(doc.Dependencies) > 0:
		edges = parseNpmV1("__root__", doc.Dependencies)
	default:
		return nil, nil
	}

	out := make([]DependencyEdge, 0, len(edges))
	for _, e := range edges {
		e.Repo = repo
		e.BuildID = buildID
		var versionVal any
		if e.Version != nil {
			versionVal = *e.Version
		}
		id, err := identity.DependencyID(repo, buildID, e.Parent, e.Child, stringOrEmpty(versionVal), e.Scope)
		if err != nil {
			return nil, newError(InvalidField, "could not derive dependencyId: %v", err)
		}
		e.DependencyID = id
		out = append(out, e)
	}
	return out, nil
}

func stringOrEmpty(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// parseNpmV2 infers parent/child relationships from node_modules path
// nesting depth. A path with exactly one "node_modules/<name>" segment is a
// direct (root) dependency; deeper nesting infers the immediate containing
// package as parent.
func parseNpmV2(packages map[string]npmLockPackage) []DependencyEdge {
	paths := make([]string, 0, len(packages))
	for p := range packages {
		if p == "" {
			continue // root project entry, not a dependency
		}
		paths = append(paths, p)
	}
	sort.Strings(paths)

	edges := make([]DependencyEdge, 0, len(paths))
	for _, p := range paths {
		pkg := packages[p]
		name := lastSegmentName(p)
		parent := parentPackageName(p)
		scope := ScopeRuntime
		if pkg.Dev {
			scope = ScopeDev
		} else if pkg.Optional {
			scope = ScopeOptional
		}
		var version *string
		if pkg.Version != "" {
			v := pkg.Version
			version = &v
		}
		edges = append(edges, DependencyEdge{
			Parent:  parent,
			Child:   name,
			Version: version,
			Scope:   scope,
		})
	}
	return edges
}

func lastSegmentName(path string) string {
	segments := strings.Split(path, "node_modules/")
	return segments[len(segments)-1]
}

func parentPackageName(path string) string {
	segments := strings.Split(path, "node_modules/")
	if len(segments) <= 2 {
		return "__root__"
	}
	return strings.TrimSuffix(segments[len(segments)-2], "/")
}

func parseNpmV1(parent string, deps map[string]npmLockDepV1) []DependencyEdge {
	names := make([]string, 0, len(deps))
	for name := range deps {
		names = append(names, name)
	}
	sort.Strings(names)

	var edges []DependencyEdge
	for _, name := range names {
		dep := deps[name]
		scope := ScopeRuntime
		if dep.Dev {
			scope = ScopeDev
		} else if dep.Optional {
			scope = ScopeOptional
		}
		var version *string
		if dep.Version != "" {
			v := dep.Version
			version = &v
		}
		edges = append(edges, DependencyEdge{
			Parent:  parent,
			Child:   name,
			Version: version,
			Scope:   scope,
		})
		if len(dep.Dependencies) > 0 {
			edges = append(edges, parseNpmV1(name, dep.Dependencies)...)
		}
	}
	return edges
}
