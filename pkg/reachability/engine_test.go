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

package reachability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompute_ReachableDirectDependency(t *testing.T) {
	edges := []Edge{{Parent: "__root__", Child: "lodash", Scope: "runtime"}}
	rec, err := Compute("finding-a", "lodash", edges, 0)
	require.NoError(t, err)
	assert.True(t, rec.Reachable)
	assert.Equal(t, StatusReachable, rec.Status)
	assert.Equal(t, []string{"__root__", "lodash"}, rec.EvidencePath)
	assert.Greater(t, rec.ConfidenceScore, 0.9)
}

func TestCompute_UnreachableYieldsInsufficientData(t *testing.T) {
	edges := []Edge{{Parent: "__root__", Child: "express", Scope: "runtime"}}
	rec, err := Compute("finding-a", "lodash", edges, 0)
	require.NoError(t, err)
	assert.False(t, rec.Reachable)
	assert.Equal(t, StatusInsufficientData, rec.Status)
	assert.Nil(t, rec.EvidencePath)
	assert.Equal(t, float64(0), rec.ConfidenceScore)
}

func TestCompute_ShortestPathPrefersDirectOverTransitive(t *testing.T) {
	edges := []Edge{
		{Parent: "__root__", Child: "a", Scope: "runtime"},
		{Parent: "a", Child: "target", Scope: "runtime"},
		{Parent: "__root__", Child: "target", Scope: "runtime"},
	}
	rec, err := Compute("finding-a", "target", edges, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"__root__", "target"}, rec.EvidencePath)
}

func TestCompute_TieBreakIsLexicographic(t *testing.T) {
	edges := []Edge{
		{Parent: "__root__", Child: "zeta", Scope: "runtime"},
		{Parent: "__root__", Child: "alpha", Scope: "runtime"},
		{Parent: "zeta", Child: "target", Scope: "runtime"},
		{Parent: "alpha", Child: "target", Scope: "runtime"},
	}
	rec, err := Compute("finding-a", "target", edges, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"__root__", "alpha", "target"}, rec.EvidencePath)
}

func TestCompute_DevScopeLowersConfidence(t *testing.T) {
	runtimeEdges := []Edge{{Parent: "__root__", Child: "lodash", Scope: "runtime"}}
	devEdges := []Edge{{Parent: "__root__", Child: "lodash", Scope: "dev"}}

	runtimeRec, err := Compute("finding-a", "lodash", runtimeEdges, 0)
	require.NoError(t, err)
	devRec, err := Compute("finding-a", "lodash", devEdges, 0)
	require.NoError(t, err)

	assert.Less(t, devRec.ConfidenceScore, runtimeRec.ConfidenceScore)
}

func TestCompute_Deterministic(t *testing.T) {
	edges := []Edge{{Parent: "__root__", Child: "lodash", Scope: "runtime"}}
	r1, err := Compute("finding-a", "lodash", edges, 0)
	require.NoError(t, err)
	r2, err := Compute("finding-a", "lodash", edges, 0)
	require.NoError(t, err)
	assert.Equal(t, r1.ReachabilityID, r2.ReachabilityID)
}

func TestCompute_CaseInsensitivePackageMatch(t *testing.T) {
	edges := []Edge{{Parent: "__root__", Child: "Lodash", Scope: "runtime"}}
	rec, err := Compute("finding-a", "LODASH", edges, 0)
	require.NoError(t, err)
	assert.True(t, rec.Reachable)
}
