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

// Package testutil provides convenience helpers for seeding an in-memory
// document store in tests, so package tests don't each hand-roll the same
// BulkUpsert boilerplate for a finding or reachability record.
package testutil

import (
	"testing"

	"github.com/whiskeylabs/argonaut/pkg/docstore"
	"github.com/whiskeylabs/argonaut/pkg/mapping"
)

// NewStore returns a ready-to-use in-memory document store for a test.
// MemClient holds no external resources, so there is nothing to clean up.
func NewStore(t *testing.T) *docstore.MemClient {
	t.Helper()
	return docstore.NewMemClient()
}

// SeedFinding seeds a minimal finding document with the given id and
// priority score, leaving every other field at its zero value. Tests that
// need more fields should seed directly via client.Seed.
func SeedFinding(t *testing.T, client *docstore.MemClient, id, repo, buildID string, priorityScore int) {
	t.Helper()
	client.Seed(mapping.IndexFindings, docstore.Document{
		ID: id,
		Source: map[string]any{
			"findingId":     id,
			"repo":          repo,
			"buildId":       buildID,
			"priorityScore": priorityScore,
		},
	})
}

// SeedReachability seeds a reachability record for findingID at the given
// analysis version.
func SeedReachability(t *testing.T, client *docstore.MemClient, id, findingID, analysisVersion string, reachable bool) {
	t.Helper()
	client.Seed(mapping.IndexReachability, docstore.Document{
		ID: id,
		Source: map[string]any{
			"findingId":       findingID,
			"analysisVersion": analysisVersion,
			"reachable":       reachable,
		},
	})
}

// SeedThreatIntel seeds a threat-intel record keyed by CVE.
func SeedThreatIntel(t *testing.T, client *docstore.MemClient, id, cve string, kev bool, epss float64) {
	t.Helper()
	client.Seed(mapping.IndexThreatIntel, docstore.Document{
		ID: id,
		Source: map[string]any{
			"cve":  cve,
			"kev":  kev,
			"epss": epss,
		},
	})
}
