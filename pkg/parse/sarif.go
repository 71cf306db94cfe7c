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
	"fmt"
	"sort"
	"strings"

	"github.com/whiskeylabs/argonaut/pkg/identity"
)

// supportedSARIFVersion is the only SARIF schema version this parser
// understands; anything else yields the empty list per spec.
const supportedSARIFVersion = "2.1.0"

// sarifLog mirrors the subset of the SARIF 2.1.0 object model this parser
// reads.
type sarifLog struct {
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool    sarifTool      `json:"tool"`
	Results []sarifResult  `json:"results"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name string `json:"name"`
}

type sarifResult struct {
	RuleID     string           `json:"ruleId"`
	Level      string           `json:"level"`
	Locations  []sarifLocation  `json:"locations"`
	Properties map[string]any   `json:"properties"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysicalLocation `json:"physicalLocation"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation sarifArtifactLocation `json:"artifactLocation"`
	Region           sarifRegion           `json:"region"`
}

type sarifArtifactLocation struct {
	URI string `json:"uri"`
}

type sarifRegion struct {
	StartLine int  `json:"startLine"`
	HasLine   bool `json:"-"`
}

func (r *sarifRegion) UnmarshalJSON(b []byte) error {
	var raw struct {
		StartLine *int `json:"startLine"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if raw.StartLine != nil {
		r.StartLine = *raw.StartLine
		r.HasLine = true
	}
	return nil
}

// ParseSARIF parses a SARIF log and emits one finding per result.
//
// repo and buildID are supplied by the acquire stage, not read from the
// document. defaultFilePath is used when a result carries no physical
// location. createdAtMS is the caller-supplied creation timestamp (epoch
// milliseconds); it never influences findingId or fingerprint.
func ParseSARIF(data []byte, repo, buildID, defaultFilePath string, createdAtMS int64) ([]Finding, error) {
	var doc sarifLog
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, newError(MalformedJSON, "invalid SARIF JSON: %v", err)
	}

	if doc.Version != supportedSARIFVersion {
		return nil, nil
	}

	var findings []Finding
	for _, run := range doc.Runs {
		toolName := run.Tool.Driver.Name
		for _, result := range run.Results {
			f, err := buildFinding(result, toolName, repo, buildID, defaultFilePath, createdAtMS)
			if err != nil {
				return nil, err
			}
			findings = append(findings, f)
		}
	}
	return findings, nil
}

func buildFinding(result sarifResult, tool, repo, buildID, defaultFilePath string, createdAtMS int64) (Finding, error) {
	if result.RuleID == "" {
		return Finding{}, newError(InvalidField, "result is missing ruleId")
	}

	filePath := defaultFilePath
	var lineNumber *int
	if len(result.Locations) > 0 {
		loc := result.Locations[0].PhysicalLocation
		if loc.ArtifactLocation.URI != "" {
			filePath = loc.ArtifactLocation.URI
		}
		if loc.Region.HasLine {
			line := loc.Region.StartLine
			lineNumber = &line
		}
	}

	pkgName, _ := result.Properties["package"].(string)
	version, _ := result.Properties["version"].(string)
	severity := strings.ToUpper(severityFromProperties(result))

	cves := extractCVEs(result.Properties)

	var firstCVE string
	if len(cves) > 0 {
		firstCVE = cves[0]
	}

	fingerprint := buildFingerprint(result.RuleID, pkgName, version, filePath, lineNumber)

	findingID, err := identity.FindingID(repo, buildID, fingerprint)
	if err != nil {
		return Finding{}, newError(InvalidField, "could not derive findingId: %v", err)
	}

	return Finding{
		FindingID:   findingID,
		Repo:        repo,
		BuildID:     buildID,
		RuleID:      result.RuleID,
		Severity:    severity,
		CVE:         firstCVE,
		CVEs:        cves,
		Package:     pkgName,
		Version:     version,
		FilePath:    filePath,
		LineNumber:  lineNumber,
		Tool:        tool,
		Fingerprint: fingerprint,
		CreatedAt:   createdAtMS,
	}, nil
}

func severityFromProperties(result sarifResult) string {
	if s, ok := result.Properties["severity"].(string); ok && s != "" {
		return s
	}
	switch result.Level {
	case "error":
		return "HIGH"
	case "warning":
		return "MEDIUM"
	case "note":
		return "LOW"
	default:
		return "UNKNOWN"
	}
}

// extractCVEs reads result.properties.cve (string) and/or
// result.properties.cves ([]string|[]any) and returns a sorted, deduplicated,
// uppercased list.
func extractCVEs(props map[string]any) []string {
	set := map[string]struct{}{}

	if s, ok := props["cve"].(string); ok && s != "" {
		set[strings.ToUpper(s)] = struct{}{}
	}
	switch v := props["cves"].(type) {
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok && s != "" {
				set[strings.ToUpper(s)] = struct{}{}
			}
		}
	case []string:
		for _, s := range v {
			if s != "" {
				set[strings.ToUpper(s)] = struct{}{}
			}
		}
	}

	out := make([]string, 0, len(set))
	for cve := range set {
		out = append(out, cve)
	}
	sort.Strings(out)
	return out
}

// buildFingerprint joins the rule, package, version, and location into a
// stable string. It deliberately excludes createdAt.
func buildFingerprint(ruleID, pkg, version, filePath string, lineNumber *int) string {
	line := "null"
	if lineNumber != nil {
		line = fmt.Sprintf("%d", *lineNumber)
	}
	return fmt.Sprintf("%s|%s|%s|%s|%s", ruleID, pkg, version, filePath, line)
}
