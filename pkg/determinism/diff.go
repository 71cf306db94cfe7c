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
	"fmt"

	"github.com/google/go-cmp/cmp"
)

// DiffSnapshots compares two captures of the same index taken from
// independent runs and returns one labeled failure string per divergence
// found. An empty result means the two runs agree on this index.
func DiffSnapshots(a, b *Snapshot) []string {
	var failures []string

	if a.Count != b.Count {
		failures = append(failures, fmt.Sprintf("Count drift in %s: %d vs %d", a.Index, a.Count, b.Count))
	}

	if !cmp.Equal(a.SortedIDs, b.SortedIDs) {
		failures = append(failures, fmt.Sprintf("ID set drift in %s: %s", a.Index, cmp.Diff(a.SortedIDs, b.SortedIDs)))
	}

	for _, id := range a.SortedIDs {
		hashA, okA := a.HashPerID[id]
		hashB, okB := b.HashPerID[id]
		if !okA || !okB {
			continue // already reported as an ID set drift
		}
		if hashA != hashB {
			failures = append(failures, fmt.Sprintf("_source hash drift in %s for id %s", a.Index, id))
		}
	}

	return failures
}

// DiffRanking compares two top-N rankings (ordered findingId slices) and
// reports a labeled failure if they differ in membership or order.
func DiffRanking(a, b []string) []string {
	if cmp.Equal(a, b) {
		return nil
	}
	return []string{fmt.Sprintf("Top-N ranking drift: %s", cmp.Diff(a, b))}
}

// DiffVersions compares the named version constants captured from two runs
// (analysisVersion, explanationVersion, templateVersion, manifestVersion)
// and reports drift per name. Both maps are expected to carry identical
// keys since they are sourced from the same binary's constants; this only
// guards against version maps captured at genuinely different times.
func DiffVersions(a, b map[string]string) []string {
	var failures []string
	for name, valueA := range a {
		valueB, ok := b[name]
		if !ok || valueA != valueB {
			failures = append(failures, fmt.Sprintf("Version drift for %s: %s vs %s", name, valueA, valueB))
		}
	}
	return failures
}
