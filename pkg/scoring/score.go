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
	"sort"

	"github.com/whiskeylabs/argonaut/pkg/identity"
)

// ExplanationVersion is the identity field baked into every explanationId;
// bumping it forks the ID space for a future scoring revision.
const ExplanationVersion = "1.0"

// Inputs holds the per-finding signals the additive model consumes. Nil
// pointers mean "unknown" and contribute zero to the score.
type Inputs struct {
	KEV             bool
	EPSS            *float64
	Reachable       bool
	InternetExposed bool
	BlastRadius     *float64
}

// Contribution is one factor's reason code and point value.
type Contribution struct {
	Factor     string
	ReasonCode string
	Points     int
}

// Explanation is the persisted scoring-explanation document.
type Explanation struct {
	ExplanationID      string
	FindingID          string
	ExplanationVersion string
	PriorityScore      int
	ReasonCodes        []string
	Contributions      []Contribution
}

const (
	ReasonKEVTrue          = "KEV_TRUE"
	ReasonKEVFalse         = "KEV_FALSE"
	ReasonEPSSHigh         = "EPSS_HIGH"
	ReasonEPSSMedium       = "EPSS_MEDIUM"
	ReasonEPSSLow          = "EPSS_LOW"
	ReasonEPSSUnknown      = "EPSS_UNKNOWN"
	ReasonReachableTrue    = "REACHABLE_TRUE"
	ReasonReachableFalse   = "REACHABLE_FALSE"
	ReasonExposedTrue      = "INTERNET_EXPOSED_TRUE"
	ReasonExposedFalse     = "INTERNET_EXPOSED_FALSE"
	ReasonBlastRadiusHigh  = "BLAST_RADIUS_HIGH"
	ReasonBlastRadiusMed   = "BLAST_RADIUS_MEDIUM"
	ReasonBlastRadiusLow   = "BLAST_RADIUS_LOW"
	ReasonBlastRadiusUnk   = "BLAST_RADIUS_UNKNOWN"
)

// Score computes the additive priorityScore for one finding and builds its
// explanation document. The explanationId is a pure function of findingID,
// ExplanationVersion, and the raw inputs, so identical inputs always yield
// the same explanation bytes across reruns.
func Score(findingID string, in Inputs) (*Explanation, error) {
	var contributions []Contribution

	if in.KEV {
		contributions = append(contributions, Contribution{Factor: "kev", ReasonCode: ReasonKEVTrue, Points: 30})
	} else {
		contributions = append(contributions, Contribution{Factor: "kev", ReasonCode: ReasonKEVFalse, Points: 0})
	}

	switch {
	case in.EPSS == nil:
		contributions = append(contributions, Contribution{Factor: "epss", ReasonCode: ReasonEPSSUnknown, Points: 0})
	case *in.EPSS >= 0.5:
		contributions = append(contributions, Contribution{Factor: "epss", ReasonCode: ReasonEPSSHigh, Points: 20})
	case *in.EPSS >= 0.1:
		contributions = append(contributions, Contribution{Factor: "epss", ReasonCode: ReasonEPSSMedium, Points: 10})
	case *in.EPSS > 0:
		contributions = append(contributions, Contribution{Factor: "epss", ReasonCode: ReasonEPSSLow, Points: 2})
	default:
		contributions = append(contributions, Contribution{Factor: "epss", ReasonCode: ReasonEPSSUnknown, Points: 0})
	}

	if in.Reachable {
		contributions = append(contributions, Contribution{Factor: "reachable", ReasonCode: ReasonReachableTrue, Points: 25})
	} else {
		contributions = append(contributions, Contribution{Factor: "reachable", ReasonCode: ReasonReachableFalse, Points: 0})
	}

	if in.InternetExposed {
		contributions = append(contributions, Contribution{Factor: "internetExposed", ReasonCode: ReasonExposedTrue, Points: 15})
	} else {
		contributions = append(contributions, Contribution{Factor: "internetExposed", ReasonCode: ReasonExposedFalse, Points: 0})
	}

	switch {
	case in.BlastRadius == nil:
		contributions = append(contributions, Contribution{Factor: "blastRadius", ReasonCode: ReasonBlastRadiusUnk, Points: 0})
	case *in.BlastRadius >= 10:
		contributions = append(contributions, Contribution{Factor: "blastRadius", ReasonCode: ReasonBlastRadiusHigh, Points: 10})
	case *in.BlastRadius >= 3:
		contributions = append(contributions, Contribution{Factor: "blastRadius", ReasonCode: ReasonBlastRadiusMed, Points: 5})
	default:
		contributions = append(contributions, Contribution{Factor: "blastRadius", ReasonCode: ReasonBlastRadiusLow, Points: 1})
	}

	total := 0
	reasonCodes := make([]string, 0, len(contributions))
	for _, c := range contributions {
		total += c.Points
		reasonCodes = append(reasonCodes, c.ReasonCode)
	}

	explanationInputs := map[string]any{
		"kev":             in.KEV,
		"reachable":       in.Reachable,
		"internetExposed": in.InternetExposed,
	}
	if in.EPSS != nil {
		explanationInputs["epss"] = *in.EPSS
	} else {
		explanationInputs["epss"] = nil
	}
	if in.BlastRadius != nil {
		explanationInputs["blastRadius"] = *in.BlastRadius
	} else {
		explanationInputs["blastRadius"] = nil
	}

	id, err := identity.ExplanationID(findingID, ExplanationVersion, explanationInputs)
	if err != nil {
		return nil, err
	}

	return &Explanation{
		ExplanationID:      id,
		FindingID:          findingID,
		ExplanationVersion: ExplanationVersion,
		PriorityScore:      total,
		ReasonCodes:        reasonCodes,
		Contributions:      contributions,
	}, nil
}

// Ranked is one entry of a Rank() result.
type Ranked struct {
	FindingID     string
	Repo          string
	BuildID       string
	PriorityScore int
}

// Rank sorts entries by (priorityScore DESC, findingId ASC, repo ASC,
// buildId ASC) and truncates to the top N. topN<=0 returns the full sorted
// slice.
func Rank(entries []Ranked, topN int) []Ranked {
	ranked := make([]Ranked, len(entries))
	copy(ranked, entries)

	sort.Slice(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.PriorityScore != b.PriorityScore {
			return a.PriorityScore > b.PriorityScore
		}
		if a.FindingID != b.FindingID {
			return a.FindingID < b.FindingID
		}
		if a.Repo != b.Repo {
			return a.Repo < b.Repo
		}
		return a.BuildID < b.BuildID
	})

	if topN > 0 && topN < len(ranked) {
		return ranked[:topN]
	}
	return ranked
}
