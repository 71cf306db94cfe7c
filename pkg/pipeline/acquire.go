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

	"github.com/whiskeylabs/argonaut/pkg/bundle"
	"github.com/whiskeylabs/argonaut/pkg/docstore"
	"github.com/whiskeylabs/argonaut/pkg/identity"
	"github.com/whiskeylabs/argonaut/pkg/mapping"
	"github.com/whiskeylabs/argonaut/pkg/parse"
	"github.com/whiskeylabs/argonaut/pkg/reachability"
	"github.com/whiskeylabs/argonaut/pkg/runlog"
	"github.com/whiskeylabs/argonaut/pkg/threatintel"
	"github.com/whiskeylabs/argonaut/pkg/writer"
)

// AcquireRequest carries everything the acquire stage needs to load one
// bundle directory and populate the document store's entity indexes.
type AcquireRequest struct {
	BundleRoot  string
	Repo        string
	BuildID     string
	RunID       string // optional; defaults to the derived bundleId
	CreatedAtMS int64
	SeedIntel   []threatintel.SeedEntry
	ToolFor     func(path, artifactType string) string
}

// Acquirer runs the acquire stage: load a bundle, parse its files, and write
// artifact, dependency, component, finding, reachability, and threat-intel
// documents in the fixed sub-stage order spec §4.7 requires.
type Acquirer struct {
	Client docstore.Client
	Log    *runlog.Logger
}

// slog returns the acquirer's structured logger, falling back to
// slog.Default when no runlog.Logger is attached.
func (a *Acquirer) slog() *slog.Logger {
	if a.Log != nil {
		return a.Log.Log
	}
	return slog.Default()
}

// Acquire runs one acquire pass. A sub-stage that fails marks every
// remaining sub-stage SKIPPED (attempt/written=0) rather than attempting to
// run them against partial state.
func (a *Acquirer) Acquire(ctx context.Context, req AcquireRequest) (*StageReport, error) {
	recordStageRun(StageAcquire, false)
	log := a.slog()
	log.Info("acquire.bundle.start", "repo", req.Repo, "buildId", req.BuildID)

	result, err := bundle.Build(req.BundleRoot, bundle.BuildOptions{
		Repo:    req.Repo,
		BuildID: req.BuildID,
		RunID:   req.RunID,
		ToolFor: req.ToolFor,
	})
	if err != nil {
		recordStageRun(StageAcquire, true)
		log.Warn("acquire.bundle.error", "repo", req.Repo, "buildId", req.BuildID, "err", err)
		return nil, fmt.Errorf("pipeline: acquire: loading bundle: %w", err)
	}
	runID := result.RunID
	log.Info("acquire.bundle.complete", "runId", runID, "fileCount", len(result.Files))

	if a.Log != nil {
		a.Log.UpsertRun(ctx, runID, req.Repo, req.BuildID, runlog.RunRunning, req.CreatedAtMS, 0)
	}

	report := &StageReport{Stage: StageAcquire, Status: StatusSuccess}
	failed := false

	filesByType := map[string][]bundle.RawFile{}
	for _, f := range result.Files {
		t := bundle.ClassifyArtifact(f.Path)
		filesByType[t] = append(filesByType[t], f)
	}

	var findings []parse.Finding
	var edges []parse.DependencyEdge

	for _, stage := range SubStageOrder {
		if failed {
			report.SubStages = append(report.SubStages, SubStageReport{Stage: stage, Status: StatusSkipped})
			continue
		}

		log.Info("acquire.substage.start", "runId", runID, "stage", stage)

		var sub SubStageReport
		switch stage {
		case SubStageArtifacts:
			sub = a.writeArtifacts(ctx, result, runID)
		case SubStageDependencies:
			var parseSub SubStageReport
			edges, parseSub = a.parseDependencies(filesByType[bundle.TypeLockfile], req.Repo, req.BuildID)
			if parseSub.Status == StatusFailed {
				sub = parseSub
			} else {
				sub = a.writeDependencies(ctx, edges)
			}
		case SubStageSBOM:
			components, parseSub := a.parseComponents(filesByType[bundle.TypeSBOM], req.Repo, req.BuildID)
			if parseSub.Status == StatusFailed {
				sub = parseSub
			} else {
				sub = a.writeComponents(ctx, components)
			}
		case SubStageFindings:
			var parseSub SubStageReport
			findings, parseSub = a.parseFindings(filesByType[bundle.TypeSARIF], req.Repo, req.BuildID, req.CreatedAtMS)
			if parseSub.Status == StatusFailed {
				sub = parseSub
			} else {
				sub = a.writeFindings(ctx, findings)
			}
		case SubStageReachability:
			sub = a.computeReachability(ctx, findings, edges, req.CreatedAtMS)
		case SubStageThreatIntel:
			sub = a.loadThreatIntel(ctx, req.SeedIntel)
		case SubStageActions:
			sub = SubStageReport{Stage: SubStageActions, Status: StatusSuccess, Written: 0}
		}

		report.SubStages = append(report.SubStages, sub)
		log.Info("acquire.substage.complete", "runId", runID, "stage", stage, "status", sub.Status, "written", sub.Written)
		if sub.Status == StatusFailed {
			failed = true
			report.Status = StatusFailed
			report.Errors = append(report.Errors, sub.Errors...)
		}
	}

	finalStatus := runlog.RunSucceeded
	if report.Status == StatusFailed {
		finalStatus = runlog.RunFailed
		recordStageRun(StageAcquire, true)
	}
	if a.Log != nil {
		a.Log.UpsertRun(ctx, runID, req.Repo, req.BuildID, finalStatus, req.CreatedAtMS, req.CreatedAtMS)
	}
	log.Info("acquire.bundle.finished", "runId", runID, "status", report.Status)

	return report, nil
}

func (a *Acquirer) writeArtifacts(ctx context.Context, result *bundle.Result, runID string) SubStageReport {
	docs := make([]map[string]any, len(result.Manifest.Artifacts))
	for i, art := range result.Manifest.Artifacts {
		docs[i] = map[string]any{
			"artifactId":   art.ArtifactID,
			"repo":         result.Manifest.Repo,
			"buildId":      result.Manifest.BuildID,
			"runId":        runID,
			"filename":     art.Filename,
			"objectKey":    art.ObjectKey,
			"sha256":       art.SHA256,
			"bytes":        int(art.Bytes),
			"artifactType": art.ArtifactType,
			"tool":         art.Tool,
			"status":       "ACQUIRED",
			"createdAt":    result.Manifest.CreatedAtMS,
		}
	}

	w := &writer.Writer{
		Index:          mapping.IndexArtifacts,
		IDField:        "artifactId",
		RequiredFields: []string{"repo", "buildId", "filename", "sha256"},
		Client:         a.Client,
		ComputeID: func(doc map[string]any) (string, error) {
			return identity.ArtifactID(str(doc["repo"]), str(doc["buildId"]), str(doc["runId"]), str(doc["filename"]), str(doc["sha256"]))
		},
	}
	return runWrite(SubStageArtifacts, ctx, w, docs)
}

func (a *Acquirer) parseDependencies(files []bundle.RawFile, repo, buildID string) ([]parse.DependencyEdge, SubStageReport) {
	var all []parse.DependencyEdge
	for _, f := range files {
		edges, err := parse.ParseLockfile(f.Bytes, repo, buildID)
		if err != nil {
			return nil, SubStageReport{Stage: SubStageDependencies, Status: StatusFailed, Errors: []string{err.Error()}}
		}
		all = append(all, edges...)
	}
	return all, SubStageReport{Stage: SubStageDependencies, Status: StatusSuccess, Written: len(all)}
}

func (a *Acquirer) writeDependencies(ctx context.Context, edges []parse.DependencyEdge) SubStageReport {
	docs := make([]map[string]any, len(edges))
	for i, e := range edges {
		var version any
		if e.Version != nil {
			version = *e.Version
		}
		docs[i] = map[string]any{
			"dependencyId": e.DependencyID,
			"repo":         e.Repo,
			"buildId":      e.BuildID,
			"parent":       e.Parent,
			"child":        e.Child,
			"version":      version,
			"scope":        e.Scope,
		}
	}
	w := &writer.Writer{
		Index:          mapping.IndexDependencies,
		IDField:        "dependencyId",
		RequiredFields: []string{"repo", "buildId", "parent", "child", "scope"},
		Client:         a.Client,
		ComputeID: func(doc map[string]any) (string, error) {
			version, _ := doc["version"].(string)
			return identity.DependencyID(str(doc["repo"]), str(doc["buildId"]), str(doc["parent"]), str(doc["child"]), version, str(doc["scope"]))
		},
	}
	return runWrite(SubStageDependencies, ctx, w, docs)
}

func (a *Acquirer) parseComponents(files []bundle.RawFile, repo, buildID string) ([]parse.Component, SubStageReport) {
	var all []parse.Component
	for _, f := range files {
		comps, err := parse.ParseSBOM(f.Bytes, repo, buildID)
		if err != nil {
			return nil, SubStageReport{Stage: SubStageSBOM, Status: StatusFailed, Errors: []string{err.Error()}}
		}
		all = append(all, comps...)
	}
	return all, SubStageReport{Stage: SubStageSBOM, Status: StatusSuccess, Written: len(all)}
}

func (a *Acquirer) writeComponents(ctx context.Context, comps []parse.Component) SubStageReport {
	docs := make([]map[string]any, len(comps))
	for i, c := range comps {
		docs[i] = map[string]any{
			"componentId": c.ComponentID,
			"repo":        c.Repo,
			"buildId":     c.BuildID,
			"purl":        c.Purl,
			"name":        c.Name,
			"version":     c.Version,
			"scope":       c.Scope,
		}
	}
	w := &writer.Writer{
		Index:          mapping.IndexComponents,
		IDField:        "componentId",
		RequiredFields: []string{"repo", "buildId", "version", "scope"},
		Client:         a.Client,
		ComputeID: func(doc map[string]any) (string, error) {
			purlOrName := str(doc["purl"])
			if purlOrName == "" {
				purlOrName = str(doc["name"])
			}
			return identity.ComponentID(str(doc["repo"]), str(doc["buildId"]), purlOrName, str(doc["version"]), str(doc["scope"]))
		},
	}
	return runWrite(SubStageSBOM, ctx, w, docs)
}

func (a *Acquirer) parseFindings(files []bundle.RawFile, repo, buildID string, createdAtMS int64) ([]parse.Finding, SubStageReport) {
	var all []parse.Finding
	for _, f := range files {
		fs, err := parse.ParseSARIF(f.Bytes, repo, buildID, f.Path, createdAtMS)
		if err != nil {
			return nil, SubStageReport{Stage: SubStageFindings, Status: StatusFailed, Errors: []string{err.Error()}}
		}
		all = append(all, fs...)
	}
	return all, SubStageReport{Stage: SubStageFindings, Status: StatusSuccess, Written: len(all)}
}

func (a *Acquirer) writeFindings(ctx context.Context, findings []parse.Finding) SubStageReport {
	docs := make([]map[string]any, len(findings))
	for i, f := range findings {
		var lineNumber any
		if f.LineNumber != nil {
			lineNumber = *f.LineNumber
		}
		docs[i] = map[string]any{
			"findingId":   f.FindingID,
			"repo":        f.Repo,
			"buildId":     f.BuildID,
			"ruleId":      f.RuleID,
			"severity":    f.Severity,
			"cve":         f.CVE,
			"cves":        toAnySlice(f.CVEs),
			"package":     f.Package,
			"version":     f.Version,
			"filePath":    f.FilePath,
			"lineNumber":  lineNumber,
			"tool":        f.Tool,
			"fingerprint": f.Fingerprint,
			"createdAt":   f.CreatedAt,
		}
		pipeMetrics.init()
		pipeMetrics.findingsWritten.Inc()
	}
	w := &writer.Writer{
		Index:          mapping.IndexFindings,
		IDField:        "findingId",
		RequiredFields: []string{"repo", "buildId", "fingerprint"},
		Client:         a.Client,
		ComputeID: func(doc map[string]any) (string, error) {
			return identity.FindingID(str(doc["repo"]), str(doc["buildId"]), str(doc["fingerprint"]))
		},
	}
	return runWrite(SubStageFindings, ctx, w, docs)
}

// computeReachability runs the BFS engine once per finding with a known
// target package and bulk-upserts the resulting records directly: the
// record's identity hash is keyed in part on the target package string,
// which the frozen reachability contract does not store, so a finding's
// stored record cannot be re-derived from its own persisted fields the way
// the other writer.Writer-backed sub-stages revalidate their documents.
// Compute already derived the correct id once; this sub-stage trusts it.
func (a *Acquirer) computeReachability(ctx context.Context, findings []parse.Finding, edges []parse.DependencyEdge, computedAtMS int64) SubStageReport {
	engineEdges := make([]reachability.Edge, len(edges))
	for i, e := range edges {
		engineEdges[i] = reachability.Edge{Parent: e.Parent, Child: e.Child, Scope: e.Scope}
	}

	var docs []docstore.Document
	for _, f := range findings {
		if f.Package == "" {
			continue
		}
		rec, err := reachability.Compute(f.FindingID, f.Package, engineEdges, computedAtMS)
		if err != nil {
			return SubStageReport{Stage: SubStageReachability, Status: StatusFailed, Errors: []string{err.Error()}}
		}
		docs = append(docs, docstore.Document{ID: rec.ReachabilityID, Source: map[string]any{
			"reachabilityId":  rec.ReachabilityID,
			"findingId":       rec.FindingID,
			"reachable":       rec.Reachable,
			"confidenceScore": rec.ConfidenceScore,
			"status":          rec.Status,
			"reason":          rec.Reason,
			"evidencePath":    toAnySlice(rec.EvidencePath),
			"method":          rec.Method,
			"analysisVersion": rec.AnalysisVersion,
			"computedAt":      rec.ComputedAt,
		}})
		pipeMetrics.init()
		pipeMetrics.reachabilityWritten.Inc()
	}

	if len(docs) == 0 {
		return SubStageReport{Stage: SubStageReachability, Status: StatusSuccess, Written: 0}
	}

	bulkReport, err := a.Client.BulkUpsert(ctx, mapping.IndexReachability, docs, docstore.BulkOptions{})
	if err != nil {
		return SubStageReport{Stage: SubStageReachability, Status: StatusFailed, Errors: []string{err.Error()}}
	}

	written := 0
	var errs []string
	for _, item := range bulkReport.Items {
		if item.Success {
			written++
			continue
		}
		errs = append(errs, item.ID+": "+item.Error)
	}
	if len(errs) > 0 {
		return SubStageReport{Stage: SubStageReachability, Status: StatusFailed, Written: written, Errors: errs}
	}
	return SubStageReport{Stage: SubStageReachability, Status: StatusSuccess, Written: written}
}

func (a *Acquirer) loadThreatIntel(ctx context.Context, seed []threatintel.SeedEntry) SubStageReport {
	intel, err := threatintel.LoadSeed(seed)
	if err != nil {
		return SubStageReport{Stage: SubStageThreatIntel, Status: StatusFailed, Errors: []string{err.Error()}}
	}

	docs := make([]map[string]any, len(intel))
	for i, in := range intel {
		var epss any
		if in.EPSS != nil {
			epss = *in.EPSS
		}
		docs[i] = map[string]any{
			"intelId": in.IntelID,
			"cve":     in.CVE,
			"kev":     in.KEV,
			"epss":    epss,
			"source":  in.Source,
		}
	}

	w := &writer.Writer{
		Index:          mapping.IndexThreatIntel,
		IDField:        "intelId",
		RequiredFields: []string{"cve"},
		Client:         a.Client,
		ComputeID: func(doc map[string]any) (string, error) {
			return identity.IntelID(str(doc["cve"])), nil
		},
	}
	return runWrite(SubStageThreatIntel, ctx, w, docs)
}

func runWrite(stage string, ctx context.Context, w *writer.Writer, docs []map[string]any) SubStageReport {
	if len(docs) == 0 {
		return SubStageReport{Stage: stage, Status: StatusSuccess, Written: 0}
	}
	report, err := w.Write(ctx, docs, docstore.BulkOptions{})
	if err != nil {
		return SubStageReport{Stage: stage, Status: StatusFailed, Errors: []string{err.Error()}}
	}
	if report.Failed > 0 {
		msgs := make([]string, len(report.Failures))
		for i, f := range report.Failures {
			msgs[i] = string(f.Code) + ": " + f.Message
		}
		return SubStageReport{Stage: stage, Status: StatusFailed, Written: report.Succeeded, Errors: msgs}
	}
	return SubStageReport{Stage: stage, Status: StatusSuccess, Written: report.Succeeded}
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

func toAnySlice(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
