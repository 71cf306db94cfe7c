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

package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whiskeylabs/argonaut/pkg/docstore"
	"github.com/whiskeylabs/argonaut/pkg/mapping"
	"github.com/whiskeylabs/argonaut/pkg/threatintel"
)

const fixtureSARIF = `{
  "version": "2.1.0",
  "runs": [
    {
      "tool": {"driver": {"name": "acme-scanner"}},
      "results": [
        {
          "ruleId": "RULE-LODASH",
          "level": "error",
          "locations": [{"physicalLocation": {"artifactLocation": {"uri": "package.json"}, "region": {"startLine": 12}}}],
          "properties": {"package": "lodash", "version": "4.17.20", "severity": "critical", "cve": "CVE-2024-1111"}
        }
      ]
    }
  ]
}`

const fixtureLockfile = `{
  "name": "acme-app",
  "lockfileVersion": 3,
  "packages": {
    "": {"dependencies": {"lodash": "^4.17.20"}},
    "node_modules/lodash": {"version": "4.17.20"}
  }
}`

const fixtureSBOM = `{
  "bomFormat": "CycloneDX",
  "specVersion": "1.5",
  "components": [
    {"type": "library", "name": "lodash", "version": "4.17.20", "purl": "pkg:npm/lodash@4.17.20", "scope": "required"}
  ]
}`

func writeFixtureBundle(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "results.sarif"), []byte(fixtureSARIF), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "package-lock.json"), []byte(fixtureLockfile), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sbom.cdx.json"), []byte(fixtureSBOM), 0o644))
	return dir
}

func seedIntel() []threatintel.SeedEntry {
	epss := 0.91
	return []threatintel.SeedEntry{
		{CVE: "CVE-2024-1111", KEV: true, EPSS: &epss, Source: "seed"},
	}
}

func runFullPipeline(t *testing.T, client docstore.Client) *ActResult {
	t.Helper()
	ctx := context.Background()
	dir := writeFixtureBundle(t)

	acquirer := &Acquirer{Client: client}
	acqReport, err := acquirer.Acquire(ctx, AcquireRequest{
		BundleRoot:  dir,
		Repo:        "acme/app",
		BuildID:     "build-1",
		CreatedAtMS: 1700000000000,
		SeedIntel:   seedIntel(),
	})
	require.NoError(t, err)
	require.Equal(t, StatusSuccess, acqReport.Status)

	enricher := &Enricher{Client: client}
	enrichResult, err := enricher.Enrich(ctx, EnrichRequest{RunID: "run-1", Repo: "acme/app", BuildID: "build-1"})
	require.NoError(t, err)
	require.Equal(t, StatusSuccess, enrichResult.Stage.Status)
	assert.Equal(t, 0, enrichResult.Integrity.BrokenReachabilityRefs)
	assert.Equal(t, 0, enrichResult.Integrity.BrokenExplanationRefs)
	assert.Equal(t, 0, enrichResult.Integrity.BrokenDependencyBuildRefs)

	scorer := &Scorer{Client: client}
	scoreResult, err := scorer.Score(ctx, ScoreRequest{Repo: "acme/app", BuildID: "build-1", TopN: 10})
	require.NoError(t, err)
	require.Equal(t, StatusSuccess, scoreResult.Stage.Status)
	require.Len(t, scoreResult.Ranking, 1)

	acter := &Acter{Client: client}
	actResult, err := acter.Act(ctx, ActRequest{
		Repo:    "acme/app",
		BuildID: "build-1",
		Ranking: scoreResult.Ranking,
		Attempt: 1,
	})
	require.NoError(t, err)
	require.Equal(t, StatusSuccess, actResult.Stage.Status)
	return actResult
}

func TestPipeline_FullRun_ProducesRankedFindingAndActions(t *testing.T) {
	client := docstore.NewMemClient()
	result := runFullPipeline(t, client)

	require.Len(t, result.Tickets, 1)
	assert.Equal(t, "DRY_RUN_READY", result.Tickets[0].Status)
	require.NotNil(t, result.Summary)
	assert.Equal(t, "DRY_RUN_READY", result.Summary.Status)
	require.Len(t, result.Threads, 1)

	ctx := context.Background()
	findings, err := client.List(ctx, mapping.IndexFindings)
	require.NoError(t, err)
	require.Len(t, findings, 1)

	priorityScore, ok := findings[0].Source["priorityScore"].(int)
	require.True(t, ok)
	assert.Greater(t, priorityScore, 0)
}

func TestPipeline_FullRun_IsDeterministicAcrossIndependentStores(t *testing.T) {
	clientA := docstore.NewMemClient()
	clientB := docstore.NewMemClient()

	resultA := runFullPipeline(t, clientA)
	resultB := runFullPipeline(t, clientB)

	require.Len(t, resultA.Tickets, 1)
	require.Len(t, resultB.Tickets, 1)
	assert.Equal(t, resultA.Tickets[0].IdempotencyKey, resultB.Tickets[0].IdempotencyKey)
	assert.Equal(t, resultA.Tickets[0].PayloadHash, resultB.Tickets[0].PayloadHash)
	assert.Equal(t, resultA.Summary.IdempotencyKey, resultB.Summary.IdempotencyKey)

	ctx := context.Background()
	findingsA, err := clientA.List(ctx, mapping.IndexFindings)
	require.NoError(t, err)
	findingsB, err := clientB.List(ctx, mapping.IndexFindings)
	require.NoError(t, err)
	require.Len(t, findingsA, 1)
	require.Len(t, findingsB, 1)
	assert.Equal(t, findingsA[0].ID, findingsB[0].ID)
	assert.Equal(t, findingsA[0].Source["priorityScore"], findingsB[0].Source["priorityScore"])
}

func TestPipeline_Act_RepeatedAttemptSkipsDuplicate(t *testing.T) {
	client := docstore.NewMemClient()
	result := runFullPipeline(t, client)
	require.Equal(t, "DRY_RUN_READY", result.Tickets[0].Status)

	ctx := context.Background()
	scorer := &Scorer{Client: client}
	scoreResult, err := scorer.Score(ctx, ScoreRequest{Repo: "acme/app", BuildID: "build-1", TopN: 10})
	require.NoError(t, err)

	acter := &Acter{Client: client}
	repeat, err := acter.Act(ctx, ActRequest{
		Repo:    "acme/app",
		BuildID: "build-1",
		Ranking: scoreResult.Ranking,
		Attempt: 2,
	})
	require.NoError(t, err)
	require.Len(t, repeat.Tickets, 1)
	assert.Equal(t, "SKIPPED_DUPLICATE", repeat.Tickets[0].Status)
	assert.True(t, repeat.Tickets[0].Duplicate)
}

func TestPipeline_Act_RejectsNonPositiveAttempt(t *testing.T) {
	client := docstore.NewMemClient()
	ctx := context.Background()
	acter := &Acter{Client: client}
	_, err := acter.Act(ctx, ActRequest{Repo: "acme/app", BuildID: "build-1", Attempt: 0})
	assert.Error(t, err)
}

func TestPipeline_Enrich_FlagsBrokenDependencyBuildRef(t *testing.T) {
	client := docstore.NewMemClient()
	ctx := context.Background()

	_, err := client.BulkUpsert(ctx, mapping.IndexDependencies, []docstore.Document{
		{ID: "dep-orphan", Source: map[string]any{
			"dependencyId": "dep-orphan",
			"repo":         "acme/app",
			"buildId":      "build-missing",
			"parent":       "__root__",
			"child":        "left-pad",
			"scope":        "required",
		}},
	}, docstore.BulkOptions{})
	require.NoError(t, err)

	enricher := &Enricher{Client: client}
	result, err := enricher.Enrich(ctx, EnrichRequest{RunID: "run-1", Repo: "acme/app", BuildID: "build-missing"})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Integrity.BrokenDependencyBuildRefs)
	assert.Contains(t, result.Integrity.BrokenDependencyBuildSample, "dep-orphan")
}
