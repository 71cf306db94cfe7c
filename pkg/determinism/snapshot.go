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

	"github.com/whiskeylabs/argonaut/pkg/docstore"
	"github.com/whiskeylabs/argonaut/pkg/identity"
)

// varianceFields are stripped from a document's source before hashing: they
// vary with wall-clock time and are never part of any entity's identity.
var varianceFields = []string{"createdAt", "computedAt"}

// Snapshot is one index's captured state at a point in time.
type Snapshot struct {
	Index      string
	Count      int
	SortedIDs  []string
	HashPerID  map[string]string
}

// Capture reads every document in index and hashes each one's source after
// stripping variance fields, so two runs over identical logical inputs
// produce identical snapshots regardless of wall-clock skew.
func Capture(ctx context.Context, client docstore.Client, index string) (*Snapshot, error) {
	docs, err := client.List(ctx, index)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{
		Index:     index,
		Count:     len(docs),
		SortedIDs: make([]string, len(docs)),
		HashPerID: make(map[string]string, len(docs)),
	}
	for i, d := range docs {
		snap.SortedIDs[i] = d.ID
		stripped := stripVariance(d.Source)
		hash, err := identity.Hash(stripped)
		if err != nil {
			return nil, err
		}
		snap.HashPerID[d.ID] = hash
	}
	sort.Strings(snap.SortedIDs)
	return snap, nil
}

func stripVariance(src map[string]any) map[string]any {
	out := make(map[string]any, len(src))
	for k, v := range src {
		out[k] = v
	}
	for _, f := range varianceFields {
		delete(out, f)
	}
	return out
}
