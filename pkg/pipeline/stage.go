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

const (
	StatusSuccess = "SUCCESS"
	StatusFailed  = "FAILED"
	StatusSkipped = "SKIPPED"
)

// Fixed top-level stage order spec §4 requires: a FAILED stage skips every
// stage after it, attempt=0.
const (
	StageAcquire = "acquire"
	StageEnrich  = "enrich"
	StageScore   = "score"
	StageAct     = "act"
)

// StageOrder is the fixed top-level pipeline stage order.
var StageOrder = []string{StageAcquire, StageEnrich, StageScore, StageAct}

// Fixed sub-stage order the acquire stage writes entity collections in.
const (
	SubStageArtifacts    = "artifacts"
	SubStageDependencies = "dependencies"
	SubStageSBOM         = "sbom"
	SubStageFindings     = "findings"
	SubStageReachability = "reachability"
	SubStageThreatIntel  = "threatIntel"
	SubStageActions      = "actions"
)

// SubStageOrder is the fixed order spec §4.7 requires.
var SubStageOrder = []string{
	SubStageArtifacts,
	SubStageDependencies,
	SubStageSBOM,
	SubStageFindings,
	SubStageReachability,
	SubStageThreatIntel,
	SubStageActions,
}

// SubStageReport is the outcome of one acquire sub-stage.
type SubStageReport struct {
	Stage   string
	Status  string
	Written int
	Errors  []string
}

// StageReport is the outcome of one top-level pipeline stage.
type StageReport struct {
	Stage     string
	Status    string
	SubStages []SubStageReport
	Errors    []string
}
