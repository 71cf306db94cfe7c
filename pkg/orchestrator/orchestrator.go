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

package orchestrator

import (
	"context"
	"fmt"
	"sort"

	internalerrors "github.com/whiskeylabs/argonaut/internal/errors"
	"github.com/whiskeylabs/argonaut/pkg/docstore"
	"github.com/whiskeylabs/argonaut/pkg/pipeline"
	"github.com/whiskeylabs/argonaut/pkg/runlog"
	"github.com/whiskeylabs/argonaut/pkg/scoring"
	"github.com/whiskeylabs/argonaut/pkg/threatintel"
)

// RunRequest carries one full acquire→enrich→score→act pass's scope.
type RunRequest struct {
	BundleRoot  string
	Repo        string
	BuildID     string
	RunID       string
	CreatedAtMS int64
	SeedIntel   []threatintel.SeedEntry
	ToolFor     func(path, artifactType string) string
	TopN        int
	Attempt     int
	Extra       map[string]pipeline.ExtraSignal
}

// RunResult is the outcome of one orchestrated run: one trace per
// top-level stage, in fixed order, plus the final ranking and act output
// when the run reached those stages.
type RunResult struct {
	RunID   string
	Traces  []StageTrace
	Ranking []pipeline.ScoreResult
	Act     *pipeline.ActResult
}

// Orchestrator runs the fixed Acquire → Enrich → Score → Act sequence
// against a shared document store, translating each stage's report into a
// StageTrace and short-circuiting downstream stages on the first failure.
type Orchestrator struct {
	Client docstore.Client
	Log    *runlog.Logger
}

// Run executes one full pipeline pass.
func (o *Orchestrator) Run(ctx context.Context, req RunRequest) (*RunResult, error) {
	result := &RunResult{}

	acquirer := &pipeline.Acquirer{Client: o.Client, Log: o.Log}
	acqReport, err := acquirer.Acquire(ctx, pipeline.AcquireRequest{
		BundleRoot:  req.BundleRoot,
		Repo:        req.Repo,
		BuildID:     req.BuildID,
		RunID:       req.RunID,
		CreatedAtMS: req.CreatedAtMS,
		SeedIntel:   req.SeedIntel,
		ToolFor:     req.ToolFor,
	})
	if err != nil {
		return nil, fmt.Errorf("orchestrator: acquire: %w", err)
	}
	acquireTrace := stageReportTrace(pipeline.StageAcquire, acqReport, internalerrors.CodeAcquirePipelineFailed)
	result.Traces = append(result.Traces, acquireTrace)
	result.RunID = req.RunID

	if acqReport.Status == pipeline.StatusFailed {
		return o.skipRemaining(result, pipeline.StageEnrich, pipeline.StageScore, pipeline.StageAct)
	}

	enricher := &pipeline.Enricher{Client: o.Client, Log: o.Log}
	enrichResult, err := enricher.Enrich(ctx, pipeline.EnrichRequest{RunID: req.RunID, Repo: req.Repo, BuildID: req.BuildID})
	if err != nil {
		return nil, fmt.Errorf("orchestrator: enrich: %w", err)
	}
	enrichErrorCode := ""
	if enrichResult.Stage.Status == pipeline.StatusFailed {
		enrichErrorCode = internalerrors.CodeEnrichNoReachability
	}
	result.Traces = append(result.Traces, stageReportTrace(pipeline.StageEnrich, &enrichResult.Stage, enrichErrorCode))

	if enrichResult.Stage.Status == pipeline.StatusFailed {
		return o.skipRemaining(result, pipeline.StageScore, pipeline.StageAct)
	}

	if req.TopN <= 0 {
		trace := StageTrace{
			Name:      pipeline.StageScore,
			Attempt:   req.Attempt,
			Status:    TraceFailed,
			ErrorCode: internalerrors.CodeScoreEmptyRanking,
			Message:   "topN must be a positive integer",
		}
		result.Traces = append(result.Traces, trace)
		return o.skipRemaining(result, pipeline.StageAct)
	}

	scorer := &pipeline.Scorer{Client: o.Client, Log: o.Log}
	scoreResult, err := scorer.Score(ctx, pipeline.ScoreRequest{Repo: req.Repo, BuildID: req.BuildID, TopN: req.TopN, Extra: req.Extra})
	if err != nil {
		return nil, fmt.Errorf("orchestrator: score: %w", err)
	}
	scoreErrorCode := ""
	if scoreResult.Stage.Status == pipeline.StatusFailed {
		scoreErrorCode = internalerrors.CodeScoreEmptyRanking
	} else if len(scoreResult.Ranking) == 0 {
		scoreErrorCode = internalerrors.CodeScoreEmptyRanking
	}
	scoreTrace := stageReportTrace(pipeline.StageScore, &scoreResult.Stage, scoreErrorCode)
	scoreTrace.KeyIDs = rankingIDs(scoreResult.Ranking)
	scoreTrace.Attempt = req.Attempt
	result.Traces = append(result.Traces, scoreTrace)
	result.Ranking = append(result.Ranking, *scoreResult)

	if scoreResult.Stage.Status == pipeline.StatusFailed || len(scoreResult.Ranking) == 0 {
		return o.skipRemaining(result, pipeline.StageAct)
	}

	acter := &pipeline.Acter{Client: o.Client, Log: o.Log}
	actResult, err := acter.Act(ctx, pipeline.ActRequest{
		Repo:    req.Repo,
		BuildID: req.BuildID,
		Ranking: scoreResult.Ranking,
		Attempt: req.Attempt,
	})
	if err != nil {
		result.Traces = append(result.Traces, StageTrace{
			Name:      pipeline.StageAct,
			Attempt:   req.Attempt,
			Status:    TraceFailed,
			ErrorCode: internalerrors.CodeActionWriteBlocked,
			Message:   err.Error(),
		})
		return result, nil
	}
	actTrace := stageReportTrace(pipeline.StageAct, &actResult.Stage, internalerrors.CodeActionWriteBlocked)
	actTrace.Attempt = req.Attempt
	result.Traces = append(result.Traces, actTrace)
	result.Act = actResult

	return result, nil
}

func (o *Orchestrator) skipRemaining(result *RunResult, names ...string) (*RunResult, error) {
	for _, name := range names {
		result.Traces = append(result.Traces, skippedTrace(name))
	}
	return result, nil
}

func stageReportTrace(name string, report *pipeline.StageReport, errorCodeOnFailure string) StageTrace {
	trace := StageTrace{
		Name:   name,
		Status: TraceSuccess,
		Counts: subStageCounts(report.SubStages),
	}
	if report.Status == pipeline.StatusFailed {
		trace.Status = TraceFailed
		trace.ErrorCode = errorCodeOnFailure
		trace.Message = joinErrors(report.Errors)
	}
	return trace
}

func subStageCounts(subs []pipeline.SubStageReport) map[string]int {
	if len(subs) == 0 {
		return nil
	}
	counts := make(map[string]int, len(subs))
	for _, s := range subs {
		counts[s.Stage] = s.Written
	}
	return counts
}

func rankingIDs(ranking []scoring.Ranked) []string {
	ids := make([]string, len(ranking))
	for i, r := range ranking {
		ids[i] = r.FindingID
	}
	return ids
}

func joinErrors(errs []string) string {
	if len(errs) == 0 {
		return ""
	}
	sorted := append([]string(nil), errs...)
	sort.Strings(sorted)
	out := sorted[0]
	for _, e := range sorted[1:] {
		out += "; " + e
	}
	return out
}
