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

package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(f float64) *float64 { return &f }

func TestScore_ScenarioA(t *testing.T) {
	epssA := 0.91
	explA, err := Score("finding-a", Inputs{KEV: true, EPSS: &epssA, Reachable: true})
	require.NoError(t, err)
	assert.Equal(t, 75, explA.PriorityScore)
	assert.Contains(t, explA.ReasonCodes, ReasonKEVTrue)
	assert.Contains(t, explA.ReasonCodes, ReasonEPSSHigh)
	assert.Contains(t, explA.ReasonCodes, ReasonReachableTrue)

	epssB := 0.26
	explB, err := Score("finding-b", Inputs{KEV: false, EPSS: &epssB, Reachable: true})
	require.NoError(t, err)
	assert.Equal(t, 35, explB.PriorityScore)

	ranked := Rank([]Ranked{
		{FindingID: "finding-b", PriorityScore: explB.PriorityScore},
		{FindingID: "finding-a", PriorityScore: explA.PriorityScore},
	}, 0)
	require.Len(t, ranked, 2)
	assert.Equal(t, "finding-a", ranked[0].FindingID)
	assert.Equal(t, "finding-b", ranked[1].FindingID)
}

func TestScore_IsDeterministic(t *testing.T) {
	epss := 0.42
	blast := 5.0
	in := Inputs{KEV: true, EPSS: &epss, Reachable: true, InternetExposed: true, BlastRadius: &blast}

	first, err := Score("finding-x", in)
	require.NoError(t, err)
	second, err := Score("finding-x", in)
	require.NoError(t, err)
	assert.Equal(t, first.ExplanationID, second.ExplanationID)
	assert.Equal(t, first.PriorityScore, second.PriorityScore)
}

func TestScore_EPSSTiers(t *testing.T) {
	cases := []struct {
		name   string
		epss   *float64
		points int
		code   string
	}{
		{"nil", nil, 0, ReasonEPSSUnknown},
		{"zero", ptr(0), 0, ReasonEPSSUnknown},
		{"low", ptr(0.05), 2, ReasonEPSSLow},
		{"medium", ptr(0.1), 10, ReasonEPSSMedium},
		{"high", ptr(0.5), 20, ReasonEPSSHigh},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			expl, err := Score("f", Inputs{EPSS: c.epss})
			require.NoError(t, err)
			assert.Equal(t, c.points, expl.PriorityScore)
			assert.Contains(t, expl.ReasonCodes, c.code)
		})
	}
}

func TestScore_BlastRadiusTiers(t *testing.T) {
	cases := []struct {
		name   string
		radius *float64
		points int
	}{
		{"nil", nil, 0},
		{"low", ptr(1), 1},
		{"medium", ptr(3), 5},
		{"high", ptr(10), 10},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			expl, err := Score("f", Inputs{BlastRadius: c.radius})
			require.NoError(t, err)
			assert.Equal(t, c.points, expl.PriorityScore)
		})
	}
}

func TestRank_TieBreaksByFindingIDThenRepoThenBuildID(t *testing.T) {
	ranked := Rank([]Ranked{
		{FindingID: "f2", Repo: "acme", BuildID: "b1", PriorityScore: 50},
		{FindingID: "f1", Repo: "acme", BuildID: "b1", PriorityScore: 50},
		{FindingID: "f1", Repo: "acme", BuildID: "b0", PriorityScore: 50},
	}, 0)
	require.Len(t, ranked, 3)
	assert.Equal(t, "b0", ranked[0].BuildID)
	assert.Equal(t, "b1", ranked[1].BuildID)
	assert.Equal(t, "f2", ranked[2].FindingID)
}

func TestRank_TopNTruncates(t *testing.T) {
	ranked := Rank([]Ranked{
		{FindingID: "f1", PriorityScore: 90},
		{FindingID: "f2", PriorityScore: 80},
		{FindingID: "f3", PriorityScore: 70},
	}, 2)
	assert.Len(t, ranked, 2)
	assert.Equal(t, "f1", ranked[0].FindingID)
	assert.Equal(t, "f2", ranked[1].FindingID)
}
