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

// Finding is a normalized vulnerability/issue report emitted by the SARIF
// parser.
type Finding struct {
	FindingID   string   `json:"findingId"`
	Repo        string   `json:"repo"`
	BuildID     string   `json:"buildId"`
	RuleID      string   `json:"ruleId"`
	Severity    string   `json:"severity"`
	CVE         string   `json:"cve,omitempty"`
	CVEs        []string `json:"cves,omitempty"`
	Package     string   `json:"package"`
	Version     string   `json:"version"`
	FilePath    string   `json:"filePath"`
	LineNumber  *int     `json:"lineNumber"`
	Tool        string   `json:"tool"`
	Fingerprint string   `json:"fingerprint"`
	CreatedAt   int64    `json:"createdAt"`
}

// DependencyEdge is one parent->child edge in the dependency graph. Parent
// is "__root__" for direct dependencies.
type DependencyEdge struct {
	DependencyID string  `json:"dependencyId"`
	Repo         string  `json:"repo"`
	BuildID      string  `json:"buildId"`
	Parent       string  `json:"parent"`
	Child        string  `json:"child"`
	Version      *string `json:"version"`
	Scope        string  `json:"scope"`
}

// Scope values recognized for dependency edges.
const (
	ScopeRuntime  = "runtime"
	ScopeDev      = "dev"
	ScopeOptional = "optional"
)

// Component is an SBOM-derived software component.
type Component struct {
	ComponentID string `json:"componentId"`
	Repo        string `json:"repo"`
	BuildID     string `json:"buildId"`
	Purl        string `json:"purl,omitempty"`
	Name        string `json:"name,omitempty"`
	Version     string `json:"version"`
	Scope       string `json:"scope"`
}
