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
	"fmt"
	"log/slog"

	"github.com/whiskeylabs/argonaut/pkg/action"
	"github.com/whiskeylabs/argonaut/pkg/docstore"
	"github.com/whiskeylabs/argonaut/pkg/mapping"
	"github.com/whiskeylabs/argonaut/pkg/runlog"
	"github.com/whiskeylabs/argonaut/pkg/scoring"
)

// ActRequest carries the ranked selection one act pass generates dry-run
// payloads for.
type ActRequest struct {
	Repo     string
	BuildID  string
	Ranking  []scoring.Ranked
	Attempt  int
	ChatOnly bool // when true, skip ticket generation and only emit chat actions
}

// Acter runs the act stage: generates idempotent dry-run ticket and chat
// actions for the ranked, selected findings. Always dry-run; never calls an
// external system.
type Acter struct {
	Client docstore.Client
	Log    *runlog.Logger
}

// slog returns the acter's structured logger, falling back to slog.Default
// when no runlog.Logger is attached.
func (a *Acter) slog() *slog.Logger {
	if a.Log != nil {
		return a.Log.Log
	}
	return slog.Default()
}

// ActResult is the outcome of one act pass.
type ActResult struct {
	Stage   StageReport
	Tickets []*action.Result
	Summary *action.Result
	Threads []*action.Result
}

// Act generates a JIRA_CREATE ticket and a CHAT_THREAD per selected finding,
// plus one CHAT_SUMMARY covering the whole selection.
func (a *Acter) Act(ctx context.Context, req ActRequest) (*ActResult, error) {
	recordStageRun(StageAct, false)
	log := a.slog()
	log.Info("act.generate.start", "repo", req.Repo, "buildId", req.BuildID, "selected", len(req.Ranking), "attempt", req.Attempt)

	if req.Attempt <= 0 {
		recordStageRun(StageAct, true)
		return nil, fmt.Errorf("pipeline: act: attempt must be a positive integer, got %d", req.Attempt)
	}

	gen := &action.Generator{Client: a.Client}

	var findingInputs []action.FindingInput
	var errs []string
	for _, r := range req.Ranking {
		input, err := a.loadFindingInput(ctx, r.FindingID)
		if err != nil {
			errs = append(errs, err.Error())
			continue
		}
		findingInputs = append(findingInputs, *input)
	}

	result := &ActResult{}

	if !req.ChatOnly {
		for _, f := range findingInputs {
			res, err := gen.GenerateTicket(ctx, f, true, req.Attempt)
			if err != nil {
				errs = append(errs, err.Error())
				continue
			}
			result.Tickets = append(result.Tickets, res)
		}
	}

	if len(findingInputs) > 0 {
		summary, err := gen.GenerateChatSummary(ctx, req.Repo, req.BuildID, findingInputs, true, req.Attempt)
		if err != nil {
			errs = append(errs, err.Error())
		} else {
			result.Summary = summary
		}

		for _, f := range findingInputs {
			thread, err := gen.GenerateChatThread(ctx, f, true, req.Attempt)
			if err != nil {
				errs = append(errs, err.Error())
				continue
			}
			result.Threads = append(result.Threads, thread)
		}
	}

	status := StatusSuccess
	if len(errs) > 0 {
		status = StatusFailed
		recordStageRun(StageAct, true)
	}
	result.Stage = StageReport{Stage: StageAct, Status: status, Errors: errs}
	log.Info("act.generate.complete", "repo", req.Repo, "buildId", req.BuildID, "tickets", len(result.Tickets), "threads", len(result.Threads), "status", status)

	return result, nil
}

// loadFindingInput reads the enriched, scored finding document back from
// the store and projects it into the shape the action generators consume.
func (a *Acter) loadFindingInput(ctx context.Context, findingID string) (*action.FindingInput, error) {
	doc, err := a.Client.GetByID(ctx, mapping.IndexFindings, findingID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, fmt.Errorf("pipeline: act: finding %s not found", findingID)
	}

	in := &action.FindingInput{
		FindingID:     findingID,
		Repo:          str(doc["repo"]),
		BuildID:       str(doc["buildId"]),
		Severity:      str(doc["severity"]),
		RuleID:        str(doc["ruleId"]),
		Package:       str(doc["package"]),
		Version:       str(doc["version"]),
		CVE:           str(doc["cve"]),
		PriorityScore: intVal(doc["priorityScore"]),
	}

	if explanation, ok := doc["priorityExplanation"].(map[string]any); ok {
		if codes, ok := explanation["reasonCodes"].([]any); ok {
			for _, c := range codes {
				if s, ok := c.(string); ok {
					in.ReasonCodes = append(in.ReasonCodes, s)
				}
			}
		}
	}

	if findingContext, ok := doc["context"].(map[string]any); ok {
		if threat, ok := findingContext["threat"].(map[string]any); ok {
			in.KEV, _ = threat["kev"].(bool)
			if epss, ok := numeric(threat["epss"]); ok {
				in.EPSS = &epss
			}
			in.ThreatSource = str(threat["source"])
		}
		if reach, ok := findingContext["reachability"].(map[string]any); ok {
			reachable, hasReachable := reach["reachable"].(bool)
			if hasReachable {
				in.Reachable = &reachable
			}
			if conf, ok := numeric(reach["confidenceScore"]); ok {
				in.ReachConfidence = &conf
			}
			if path, ok := reach["evidencePath"].([]any); ok {
				for _, p := range path {
					if s, ok := p.(string); ok {
						in.EvidencePath = append(in.EvidencePath, s)
					}
				}
			}
		}
	}

	return in, nil
}

func intVal(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}
