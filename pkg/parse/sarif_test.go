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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleSARIF = `{
  "version": "2.1.0",
  "runs": [
    {
      "tool": {"driver": {"name": "acme-scanner"}},
      "results": [
        {
          "ruleId": "RULE-A",
          "level": "error",
          "locations": [{"physicalLocation": {"artifactLocation": {"uri": "package.json"}, "region": {"startLine": 12}}}],
          "properties": {"package": "lodash", "version": "4.17.20", "severity": "critical", "cve": "cve-2024-1111"}
        }
      ]
    }
  ]
}`

func TestParseSARIF_EmitsNormalizedFinding(t *testing.T) {
	findings, err := ParseSARIF([]byte(sampleSARIF), "acme/app", "build-1", "unknown", 1700000000000)
	require.NoError(t, err)
	require.Len(t, findings, 1)

	f := findings[0]
	assert.Equal(t, "RULE-A", f.RuleID)
	assert.Equal(t, "CRITICAL", f.Severity)
	assert.Equal(t, "CVE-2024-1111", f.CVE)
	assert.Equal(t, []string{"CVE-2024-1111"}, f.CVEs)
	assert.Equal(t, "lodash", f.Package)
	assert.Equal(t, "4.17.20", f.Version)
	assert.Equal(t, "package.json", f.FilePath)
	require.NotNil(t, f.LineNumber)
	assert.Equal(t, 12, *f.LineNumber)
	assert.Equal(t, "acme-scanner", f.Tool)
	assert.NotEmpty(t, f.FindingID)
}

func TestParseSARIF_FindingIDIgnoresCreatedAt(t *testing.T) {
	f1, err := ParseSARIF([]byte(sampleSARIF), "acme/app", "build-1", "unknown", 1000)
	require.NoError(t, err)
	f2, err := ParseSARIF([]byte(sampleSARIF), "acme/app", "build-1", "unknown", 2000)
	require.NoError(t, err)

	require.Len(t, f1, 1)
	require.Len(t, f2, 1)
	assert.Equal(t, f1[0].FindingID, f2[0].FindingID)
	assert.Equal(t, f1[0].Fingerprint, f2[0].Fingerprint)
}

func TestParseSARIF_UnsupportedVersionYieldsEmpty(t *testing.T) {
	doc := `{"version": "2.0.0", "runs": []}`
	findings, err := ParseSARIF([]byte(doc), "acme/app", "build-1", "unknown", 0)
	require.NoError(t, err)
	assert.Empty(t, findings)
}

func TestParseSARIF_MalformedJSONFails(t *testing.T) {
	_, err := ParseSARIF([]byte("{not json"), "acme/app", "build-1", "unknown", 0)
	require.Error(t, err)

	var perr *Error
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, MalformedJSON, perr.Code)
}

func TestParseSARIF_MissingLocationFallsBackToDefault(t *testing.T) {
	doc := `{
	  "version": "2.1.0",
	  "runs": [{"tool": {"driver": {"name": "t"}}, "results": [{"ruleId": "R1"}]}]
	}`
	findings, err := ParseSARIF([]byte(doc), "acme/app", "build-1", "fallback.txt", 0)
	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.Equal(t, "fallback.txt", findings[0].FilePath)
	assert.Nil(t, findings[0].LineNumber)
}
