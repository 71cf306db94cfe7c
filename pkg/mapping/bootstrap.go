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

package mapping

import (
	"context"
	"fmt"
	"sort"

	"github.com/whiskeylabs/argonaut/pkg/docstore"
	"github.com/whiskeylabs/argonaut/pkg/identity"
)

// MetaIndex stores one canonical-mapping snapshot document per contract,
// keyed by index name, so Bootstrap can detect drift across runs.
const MetaIndex = "argonaut-meta"

// DriftError is raised when a contract's canonical shape differs from the
// snapshot already recorded for that index.
type DriftError struct {
	Index string
}

func (e *DriftError) Error() string {
	return fmt.Sprintf("MAPPING_DRIFT: contract for index %q differs from the recorded mapping snapshot", e.Index)
}

// Bootstrap is idempotent: the first call for an index records its
// canonical mapping snapshot; every subsequent call compares the contract's
// current canonical JSON against that snapshot and raises DriftError on
// mismatch, never silently overwriting it.
func Bootstrap(ctx context.Context, client docstore.Client, contracts map[string]IndexContract) error {
	for _, name := range sortedContractNames(contracts) {
		contract := contracts[name]
		canonical, err := canonicalContract(contract)
		if err != nil {
			return fmt.Errorf("mapping: canonicalize contract %q: %w", name, err)
		}

		existing, err := client.GetByID(ctx, MetaIndex, name)
		if err != nil {
			return fmt.Errorf("mapping: fetch snapshot for %q: %w", name, err)
		}
		if existing == nil {
			_, err := client.BulkUpsert(ctx, MetaIndex, []docstore.Document{
				{ID: name, Source: map[string]any{"index": name, "canonical": canonical}},
			}, docstore.BulkOptions{})
			if err != nil {
				return fmt.Errorf("mapping: record snapshot for %q: %w", name, err)
			}
			continue
		}

		storedCanonical, _ := existing["canonical"].(string)
		if storedCanonical != canonical {
			return &DriftError{Index: name}
		}
	}
	return nil
}

func sortedContractNames(contracts map[string]IndexContract) []string {
	names := make([]string, 0, len(contracts))
	for name := range contracts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func canonicalContract(contract IndexContract) (string, error) {
	b, err := identity.CanonicalJSON(contractToMap(contract))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func contractToMap(contract IndexContract) map[string]any {
	return map[string]any{
		"name":          contract.Name,
		"shards":        contract.Shards,
		"replicas":      contract.Replicas,
		"dynamic":       contract.Dynamic,
		"dateDetection": contract.DateDetection,
		"metaVersion":   contract.MetaVersion,
		"fields":        fieldsToMap(contract.Fields),
	}
}

func fieldsToMap(fields map[string]Field) map[string]any {
	out := map[string]any{}
	for name, f := range fields {
		out[name] = fieldToMap(f)
	}
	return out
}

func fieldToMap(f Field) map[string]any {
	m := map[string]any{"type": f.Type}
	if f.Fields != nil {
		m["fields"] = fieldsToMap(f.Fields)
	}
	if f.Items != nil {
		m["items"] = fieldToMap(*f.Items)
	}
	return m
}
