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
	"sort"

	"github.com/whiskeylabs/argonaut/pkg/docstore"
	"github.com/whiskeylabs/argonaut/pkg/identity"
	"github.com/whiskeylabs/argonaut/pkg/mapping"
	"github.com/whiskeylabs/argonaut/pkg/runlog"
	"github.com/whiskeylabs/argonaut/pkg/writer"
)

const maxIntegritySample = 20

// IntegrityReport is the outcome of the enrich stage's referential integrity
// sweep across the document store.
type IntegrityReport struct {
	BrokenReachabilityRefs      int
	BrokenReachabilitySample    []string
	BrokenExplanationRefs       int
	BrokenExplanationSample     []string
	BrokenDependencyBuildRefs   int
	BrokenDependencyBuildSample []string
}

// EnrichResult is the combined outcome of one enrich pass.
type EnrichResult struct {
	Stage     StageReport
	Integrity IntegrityReport
}

// Enricher runs the enrich stage: joins findings with threat intel and
// reachability, writes the resulting context back onto each finding, and
// runs the referential integrity sweep.
type Enricher struct {
	Client docstore.Client
	Log    *runlog.Logger
}

// slog returns the enricher's structured logger, falling back to
// slog.Default when no runlog.Logger is attached.
func (e *Enricher) slog() *slog.Logger {
	if e.Log != nil {
		return e.Log.Log
	}
	return slog.Default()
}

// EnrichRequest carries the scope one enrich pass joins context onto.
type EnrichRequest struct {
	RunID   string
	Repo    string
	BuildID string
}

// Enrich joins every finding for (repo, buildID) with its threat-intel and
// reachability context, writes the updated findings, and runs the
// store-wide referential integrity sweep.
func (e *Enricher) Enrich(ctx context.Context, req EnrichRequest) (*EnrichResult, error) {
	recordStageRun(StageEnrich, false)
	log := e.slog()
	log.Info("enrich.join.start", "runId", req.RunID, "repo", req.Repo, "buildId", req.BuildID)

	findingDocs, err := e.Client.List(ctx, mapping.IndexFindings)
	if err != nil {
		recordStageRun(StageEnrich, true)
		return nil, err
	}

	intelByCVE, err := e.loadIntel(ctx)
	if err != nil {
		recordStageRun(StageEnrich, true)
		return nil, err
	}

	reachByFinding, dupWarnings, err := e.loadReachabilityWinners(ctx)
	if err != nil {
		recordStageRun(StageEnrich, true)
		return nil, err
	}
	for _, w := range dupWarnings {
		log.Warn("enrich.reachability.duplicate", "runId", req.RunID, "message", w)
		if e.Log != nil {
			e.Log.WriteTask(ctx, runlog.TaskEvent{RunID: req.RunID, Stage: StageEnrich, TaskKey: "reachability_duplicate", Status: "WARNING", Message: w})
		}
	}

	var updated []map[string]any
	for _, doc := range findingDocs {
		repoVal, _ := doc.Source["repo"].(string)
		buildVal, _ := doc.Source["buildId"].(string)
		if repoVal != req.Repo || buildVal != req.BuildID {
			continue
		}

		findingID, _ := doc.Source["findingId"].(string)
		findingContext := map[string]any{}

		cve, _ := doc.Source["cve"].(string)
		if cve != "" {
			if intel, ok := intelByCVE[identity.IntelID(cve)]; ok {
				findingContext["threat"] = map[string]any{
					"kev":    intel["kev"],
					"epss":   intel["epss"],
					"cve":    intel["cve"],
					"source": intel["source"],
				}
			}
		}
		if reach, ok := reachByFinding[findingID]; ok {
			findingContext["reachability"] = map[string]any{
				"reachable":       reach["reachable"],
				"confidenceScore": reach["confidenceScore"],
				"method":          reach["method"],
				"status":          reach["status"],
				"reason":          reach["reason"],
				"evidencePath":    reach["evidencePath"],
				"analysisVersion": reach["analysisVersion"],
			}
		}

		merged := cloneSource(doc.Source)
		merged["context"] = findingContext
		updated = append(updated, merged)
	}

	sub := e.writeContexts(ctx, updated)
	log.Info("enrich.join.complete", "runId", req.RunID, "written", sub.Written)

	report := StageReport{Stage: StageEnrich, Status: StatusSuccess, SubStages: []SubStageReport{sub}}
	if sub.Status == StatusFailed {
		report.Status = StatusFailed
		report.Errors = sub.Errors
		recordStageRun(StageEnrich, true)
	}

	integrity, err := e.checkIntegrity(ctx)
	if err != nil {
		recordStageRun(StageEnrich, true)
		return nil, err
	}
	log.Info("enrich.integrity.complete", "runId", req.RunID,
		"brokenReachabilityRefs", integrity.BrokenReachabilityRefs,
		"brokenExplanationRefs", integrity.BrokenExplanationRefs,
		"brokenDependencyBuildRefs", integrity.BrokenDependencyBuildRefs)

	return &EnrichResult{Stage: report, Integrity: *integrity}, nil
}

func cloneSource(src map[string]any) map[string]any {
	out := make(map[string]any, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

func (e *Enricher) writeContexts(ctx context.Context, docs []map[string]any) SubStageReport {
	w := &writer.Writer{
		Index:          mapping.IndexFindings,
		IDField:        "findingId",
		RequiredFields: []string{"repo", "buildId", "fingerprint"},
		Client:         e.Client,
		ComputeID: func(doc map[string]any) (string, error) {
			return identity.FindingID(str(doc["repo"]), str(doc["buildId"]), str(doc["fingerprint"]))
		},
	}
	return runWrite("join", ctx, w, docs)
}

func (e *Enricher) loadIntel(ctx context.Context) (map[string]map[string]any, error) {
	docs, err := e.Client.List(ctx, mapping.IndexThreatIntel)
	if err != nil {
		return nil, err
	}
	out := make(map[string]map[string]any, len(docs))
	for _, d := range docs {
		out[d.ID] = d.Source
	}
	return out, nil
}

// loadReachabilityWinners groups reachability documents by findingId and
// picks the lexicographically smallest reachabilityId as the winner per
// spec §4.7. Findings with more than one candidate yield a warning message.
func (e *Enricher) loadReachabilityWinners(ctx context.Context) (map[string]map[string]any, []string, error) {
	docs, err := e.Client.List(ctx, mapping.IndexReachability)
	if err != nil {
		return nil, nil, err
	}

	byFinding := map[string][]docstore.Document{}
	for _, d := range docs {
		findingID, _ := d.Source["findingId"].(string)
		byFinding[findingID] = append(byFinding[findingID], d)
	}

	findingIDs := make([]string, 0, len(byFinding))
	for id := range byFinding {
		findingIDs = append(findingIDs, id)
	}
	sort.Strings(findingIDs)

	winners := make(map[string]map[string]any, len(byFinding))
	var warnings []string
	for _, findingID := range findingIDs {
		candidates := byFinding[findingID]
		sort.Slice(candidates, func(i, j int) bool { return candidates[i].ID < candidates[j].ID })
		winners[findingID] = candidates[0].Source
		if len(candidates) > 1 {
			warnings = append(warnings, "multiple reachability records for findingId "+findingID+"; using "+candidates[0].ID)
		}
	}
	return winners, warnings, nil
}

// checkIntegrity runs the three referential integrity checks spec §4.7
// requires: broken reachability refs, broken explanation refs, and broken
// dependency build refs. Violations are reported, never auto-repaired.
func (e *Enricher) checkIntegrity(ctx context.Context) (*IntegrityReport, error) {
	findingDocs, err := e.Client.List(ctx, mapping.IndexFindings)
	if err != nil {
		return nil, err
	}
	findingIDs := map[string]bool{}
	for _, d := range findingDocs {
		if id, ok := d.Source["findingId"].(string); ok {
			findingIDs[id] = true
		}
	}

	report := &IntegrityReport{}

	reachDocs, err := e.Client.List(ctx, mapping.IndexReachability)
	if err != nil {
		return nil, err
	}
	var brokenReach []string
	for _, d := range reachDocs {
		findingID, _ := d.Source["findingId"].(string)
		if !findingIDs[findingID] {
			brokenReach = append(brokenReach, d.ID)
		}
	}
	sort.Strings(brokenReach)
	report.BrokenReachabilityRefs = len(brokenReach)
	report.BrokenReachabilitySample = truncateSample(brokenReach)

	var brokenExplanation []string
	for _, d := range findingDocs {
		hostID, _ := d.Source["findingId"].(string)
		explanation, ok := d.Source["priorityExplanation"].(map[string]any)
		if !ok {
			continue
		}
		explFindingID, _ := explanation["findingId"].(string)
		if explFindingID != "" && explFindingID != hostID {
			brokenExplanation = append(brokenExplanation, hostID)
		}
	}
	sort.Strings(brokenExplanation)
	report.BrokenExplanationRefs = len(brokenExplanation)
	report.BrokenExplanationSample = truncateSample(brokenExplanation)

	artifactDocs, err := e.Client.List(ctx, mapping.IndexArtifacts)
	if err != nil {
		return nil, err
	}
	builds := map[string]bool{}
	for _, d := range artifactDocs {
		repo, _ := d.Source["repo"].(string)
		buildID, _ := d.Source["buildId"].(string)
		builds[repo+"|"+buildID] = true
	}

	depDocs, err := e.Client.List(ctx, mapping.IndexDependencies)
	if err != nil {
		return nil, err
	}
	var brokenDeps []string
	for _, d := range depDocs {
		repo, _ := d.Source["repo"].(string)
		buildID, _ := d.Source["buildId"].(string)
		if !builds[repo+"|"+buildID] {
			brokenDeps = append(brokenDeps, d.ID)
		}
	}
	sort.Strings(brokenDeps)
	report.BrokenDependencyBuildRefs = len(brokenDeps)
	report.BrokenDependencyBuildSample = truncateSample(brokenDeps)

	return report, nil
}

func truncateSample(ids []string) []string {
	if len(ids) <= maxIntegritySample {
		return ids
	}
	return ids[:maxIntegritySample]
}
