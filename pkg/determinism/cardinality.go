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
	"fmt"
	"sort"

	"github.com/whiskeylabs/argonaut/pkg/docstore"
	"github.com/whiskeylabs/argonaut/pkg/mapping"
)

// CheckCardinality runs the three store-wide cardinality checks spec §4.10
// requires: at most one reachability record per findingId (per
// analysisVersion), at most one threat-intel record per CVE, and at most
// one priority explanation per finding. Findings are store documents, not
// counted separately, since priorityExplanation lives inside them.
func CheckCardinality(ctx context.Context, client docstore.Client) ([]string, error) {
	var failures []string

	reachFailures, err := checkReachabilityCardinality(ctx, client)
	if err != nil {
		return nil, err
	}
	failures = append(failures, reachFailures...)

	intelFailures, err := checkIntelCardinality(ctx, client)
	if err != nil {
		return nil, err
	}
	failures = append(failures, intelFailures...)

	explanationFailures, err := checkExplanationCardinality(ctx, client)
	if err != nil {
		return nil, err
	}
	failures = append(failures, explanationFailures...)

	sort.Strings(failures)
	return failures, nil
}

func checkReachabilityCardinality(ctx context.Context, client docstore.Client) ([]string, error) {
	docs, err := client.List(ctx, mapping.IndexReachability)
	if err != nil {
		return nil, err
	}
	counts := map[string]int{}
	for _, d := range docs {
		findingID, _ := d.Source["findingId"].(string)
		analysisVersion, _ := d.Source["analysisVersion"].(string)
		counts[findingID+"|"+analysisVersion]++
	}
	var failures []string
	for key, n := range counts {
		if n > 1 {
			failures = append(failures, fmt.Sprintf("cardinality failure: %d reachability records for %s", n, key))
		}
	}
	return failures, nil
}

func checkIntelCardinality(ctx context.Context, client docstore.Client) ([]string, error) {
	docs, err := client.List(ctx, mapping.IndexThreatIntel)
	if err != nil {
		return nil, err
	}
	counts := map[string]int{}
	for _, d := range docs {
		cve, _ := d.Source["cve"].(string)
		counts[cve]++
	}
	var failures []string
	for cve, n := range counts {
		if n > 1 {
			failures = append(failures, fmt.Sprintf("cardinality failure: %d threat-intel records for %s", n, cve))
		}
	}
	return failures, nil
}

func checkExplanationCardinality(ctx context.Context, client docstore.Client) ([]string, error) {
	docs, err := client.List(ctx, mapping.IndexFindings)
	if err != nil {
		return nil, err
	}
	var failures []string
	for _, d := range docs {
		explanation, ok := d.Source["priorityExplanation"].(map[string]any)
		if !ok {
			continue
		}
		explFindingID, _ := explanation["findingId"].(string)
		hostID, _ := d.Source["findingId"].(string)
		if explFindingID != "" && explFindingID != hostID {
			failures = append(failures, fmt.Sprintf("cardinality failure: explanation on finding %s references %s", hostID, explFindingID))
		}
	}
	return failures, nil
}
