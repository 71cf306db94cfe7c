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
	"log/slog"

	"github.com/whiskeylabs/argonaut/pkg/docstore"
	"github.com/whiskeylabs/argonaut/pkg/identity"
	"github.com/whiskeylabs/argonaut/pkg/mapping"
	"github.com/whiskeylabs/argonaut/pkg/runlog"
	"github.com/whiskeylabs/argonaut/pkg/scoring"
	"github.com/whiskeylabs/argonaut/pkg/writer"
)

// ExtraSignal carries the two scoring inputs no earlier stage derives:
// internetExposed and blastRadius are supplied by the caller (e.g. an asset
// inventory external to this pipeline), keyed by findingId. A finding with
// no entry scores both factors at their "unknown/false" floor.
type ExtraSignal struct {
	InternetExposed bool
	BlastRadius     *float64
}

// ScoreRequest carries the scope one score pass writes explanations for.
type ScoreRequest struct {
	Repo    string
	BuildID string
	TopN    int
	Extra   map[string]ExtraSignal
}

// Scorer runs the score stage: computes each finding's priorityScore and
// explanation from its enrich-stage context, writes both back onto the
// finding document, and produces the ranked top-N.
type Scorer struct {
	Client docstore.Client
	Log    *runlog.Logger
}

// slog returns the scorer's structured logger, falling back to
// slog.Default when no runlog.Logger is attached.
func (s *Scorer) slog() *slog.Logger {
	if s.Log != nil {
		return s.Log.Log
	}
	return slog.Default()
}

// ScoreResult is the outcome of one score pass.
type ScoreResult struct {
	Stage   StageReport
	Ranking []scoring.Ranked
}

// Score computes and persists priorityScore + priorityExplanation for every
// finding in (repo, buildID), then ranks them.
func (s *Scorer) Score(ctx context.Context, req ScoreRequest) (*ScoreResult, error) {
	recordStageRun(StageScore, false)
	log := s.slog()
	log.Info("score.rank.start", "repo", req.Repo, "buildId", req.BuildID, "topN", req.TopN)

	findingDocs, err := s.Client.List(ctx, mapping.IndexFindings)
	if err != nil {
		recordStageRun(StageScore, true)
		return nil, err
	}

	var updated []map[string]any
	var ranking []scoring.Ranked

	for _, doc := range findingDocs {
		repoVal, _ := doc.Source["repo"].(string)
		buildVal, _ := doc.Source["buildId"].(string)
		if repoVal != req.Repo || buildVal != req.BuildID {
			continue
		}

		findingID, _ := doc.Source["findingId"].(string)
		in := scoring.Inputs{}

		if ctxVal, ok := doc.Source["context"].(map[string]any); ok {
			if threat, ok := ctxVal["threat"].(map[string]any); ok {
				in.KEV, _ = threat["kev"].(bool)
				if epss, ok := numeric(threat["epss"]); ok {
					in.EPSS = &epss
				}
			}
			if reach, ok := ctxVal["reachability"].(map[string]any); ok {
				in.Reachable, _ = reach["reachable"].(bool)
			}
		}
		if extra, ok := req.Extra[findingID]; ok {
			in.InternetExposed = extra.InternetExposed
			in.BlastRadius = extra.BlastRadius
		}

		explanation, err := scoring.Score(findingID, in)
		if err != nil {
			recordStageRun(StageScore, true)
			return nil, err
		}

		merged := cloneSource(doc.Source)
		merged["priorityScore"] = explanation.PriorityScore
		merged["priorityExplanation"] = explanationToSource(explanation)
		updated = append(updated, merged)

		ranking = append(ranking, scoring.Ranked{
			FindingID:     findingID,
			Repo:          repoVal,
			BuildID:       buildVal,
			PriorityScore: explanation.PriorityScore,
		})
	}

	sub := s.writeFindings(ctx, updated)

	report := StageReport{Stage: StageScore, Status: StatusSuccess, SubStages: []SubStageReport{sub}}
	if sub.Status == StatusFailed {
		report.Status = StatusFailed
		report.Errors = sub.Errors
		recordStageRun(StageScore, true)
	}

	ranked := scoring.Rank(ranking, req.TopN)
	log.Info("score.rank.complete", "repo", req.Repo, "buildId", req.BuildID, "scored", len(ranking), "ranked", len(ranked))
	return &ScoreResult{Stage: report, Ranking: ranked}, nil
}

func (s *Scorer) writeFindings(ctx context.Context, docs []map[string]any) SubStageReport {
	w := &writer.Writer{
		Index:          mapping.IndexFindings,
		IDField:        "findingId",
		RequiredFields: []string{"repo", "buildId", "fingerprint"},
		Client:         s.Client,
		ComputeID: func(doc map[string]any) (string, error) {
			return identity.FindingID(str(doc["repo"]), str(doc["buildId"]), str(doc["fingerprint"]))
		},
	}
	return runWrite("writeback", ctx, w, docs)
}

func explanationToSource(e *scoring.Explanation) map[string]any {
	// contributions is stored as an object keyed by factor name, matching
	// the frozen findings contract's schema-free TypeObject declaration.
	contributions := make(map[string]any, len(e.Contributions))
	for _, c := range e.Contributions {
		contributions[c.Factor] = map[string]any{
			"reasonCode": c.ReasonCode,
			"points":     c.Points,
		}
	}
	return map[string]any{
		"explanationId":      e.ExplanationID,
		"findingId":          e.FindingID,
		"explanationVersion": e.ExplanationVersion,
		"reasonCodes":        toAnySlice(e.ReasonCodes),
		"contributions":      contributions,
	}
}

func numeric(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
