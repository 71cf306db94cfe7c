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

package determinism

import (
	"context"
	"sort"

	"github.com/whiskeylabs/argonaut/pkg/action"
	"github.com/whiskeylabs/argonaut/pkg/bundle"
	"github.com/whiskeylabs/argonaut/pkg/docstore"
	"github.com/whiskeylabs/argonaut/pkg/mapping"
	"github.com/whiskeylabs/argonaut/pkg/orchestrator"
	"github.com/whiskeylabs/argonaut/pkg/reachability"
	"github.com/whiskeylabs/argonaut/pkg/scoring"
)

// Result is the outcome of one determinism check.
type Result struct {
	Passed   bool
	Failures []string
}

// Check runs the pipeline twice against two independent in-memory stores
// with identical inputs, via two independently-constructed orchestrators,
// and diffs every index plus the top-N ranking, version constants, and
// cardinality invariants. failFast stops at the first failure found instead
// of collecting the complete set.
func Check(ctx context.Context, req orchestrator.RunRequest, failFast bool) (*Result, error) {
	clientA := docstore.NewMemClient()
	clientB := docstore.NewMemClient()

	orchA := &orchestrator.Orchestrator{Client: clientA}
	orchB := &orchestrator.Orchestrator{Client: clientB}

	resultA, err := orchA.Run(ctx, req)
	if err != nil {
		return nil, err
	}
	resultB, err := orchB.Run(ctx, req)
	if err != nil {
		return nil, err
	}

	var failures []string
	add := func(found []string) bool {
		failures = append(failures, found...)
		return failFast && len(found) > 0
	}

	indices := sortedIndexNames()
	for _, index := range indices {
		snapA, err := Capture(ctx, clientA, index)
		if err != nil {
			return nil, err
		}
		snapB, err := Capture(ctx, clientB, index)
		if err != nil {
			return nil, err
		}
		if add(DiffSnapshots(snapA, snapB)) {
			return &Result{Passed: false, Failures: failures}, nil
		}
	}

	rankA := topNFindingIDs(resultA)
	rankB := topNFindingIDs(resultB)
	if add(DiffRanking(rankA, rankB)) {
		return &Result{Passed: false, Failures: failures}, nil
	}

	if add(DiffVersions(versionConstants(), versionConstants())) {
		return &Result{Passed: false, Failures: failures}, nil
	}

	cardFailuresA, err := CheckCardinality(ctx, clientA)
	if err != nil {
		return nil, err
	}
	cardFailuresB, err := CheckCardinality(ctx, clientB)
	if err != nil {
		return nil, err
	}
	if add(cardFailuresA) && failFast {
		return &Result{Passed: false, Failures: failures}, nil
	}
	add(cardFailuresB)

	return &Result{Passed: len(failures) == 0, Failures: failures}, nil
}

func topNFindingIDs(result *orchestrator.RunResult) []string {
	if len(result.Ranking) == 0 {
		return nil
	}
	last := result.Ranking[len(result.Ranking)-1]
	ids := make([]string, len(last.Ranking))
	for i, r := range last.Ranking {
		ids[i] = r.FindingID
	}
	return ids
}

func versionConstants() map[string]string {
	return map[string]string{
		"analysisVersion":    reachability.AnalysisVersion,
		"explanationVersion": scoring.ExplanationVersion,
		"templateVersion":    action.TemplateVersion,
		"manifestVersion":    bundle.ManifestVersion,
	}
}

func sortedIndexNames() []string {
	contracts := mapping.Contracts()
	names := make([]string, 0, len(contracts))
	for name := range contracts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
