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
	"fmt"
	"sort"

	"github.com/whiskeylabs/argonaut/pkg/mapping"
)

// AccessMode governs what a tool is allowed to see.
const (
	AccessReadOnly      = "READ_ONLY"
	AccessPipelineWrite = "PIPELINE_WRITE"
	AccessActionWrite   = "ACTION_WRITE"
)

// WritePolicy governs which indices a tool's writes may reach.
const (
	WriteNone             = "NONE"
	WriteEpicPipelineOnly = "EPIC_PIPELINE_ONLY"
	WriteActionsOnly      = "ACTIONS_ONLY"
)

// ToolSchema declares one agent-callable tool's access contract. Sort keys
// are the field names results for this tool are ordered by, so repeated
// calls against identical state return identical sequences.
type ToolSchema struct {
	Name         string
	AccessMode   string
	WritePolicy  string
	ReadIndices  []string
	WriteIndices []string
	SortKeys     []string
}

// pipelineWriteIndices is the index set the acquire/enrich/score tools may
// write, per spec §4.9's EPIC_PIPELINE_ONLY policy.
var pipelineWriteIndices = []string{
	mapping.IndexArtifacts,
	mapping.IndexComponents,
	mapping.IndexDependencies,
	mapping.IndexFindings,
	mapping.IndexReachability,
	mapping.IndexThreatIntel,
}

var allReadIndices = []string{
	mapping.IndexActions,
	mapping.IndexArtifacts,
	mapping.IndexComponents,
	mapping.IndexDependencies,
	mapping.IndexFindings,
	mapping.IndexReachability,
	mapping.IndexRuns,
	mapping.IndexTaskLogs,
	mapping.IndexThreatIntel,
}

// Schemas returns the six closed tool schemas, keyed by name.
func Schemas() map[string]ToolSchema {
	schemas := []ToolSchema{
		{
			Name:         "acquire",
			AccessMode:   AccessPipelineWrite,
			WritePolicy:  WriteEpicPipelineOnly,
			ReadIndices:  []string{mapping.IndexRuns},
			WriteIndices: pipelineWriteIndices,
			SortKeys:     []string{"artifactId"},
		},
		{
			Name:         "enrich",
			AccessMode:   AccessPipelineWrite,
			WritePolicy:  WriteEpicPipelineOnly,
			ReadIndices:  []string{mapping.IndexFindings, mapping.IndexReachability, mapping.IndexThreatIntel},
			WriteIndices: []string{mapping.IndexFindings},
			SortKeys:     []string{"findingId"},
		},
		{
			Name:         "score",
			AccessMode:   AccessPipelineWrite,
			WritePolicy:  WriteEpicPipelineOnly,
			ReadIndices:  []string{mapping.IndexFindings},
			WriteIndices: []string{mapping.IndexFindings},
			SortKeys:     []string{"priorityScore", "findingId"},
		},
		{
			Name:         "jira",
			AccessMode:   AccessActionWrite,
			WritePolicy:  WriteActionsOnly,
			ReadIndices:  []string{mapping.IndexActions, mapping.IndexFindings},
			WriteIndices: []string{mapping.IndexActions},
			SortKeys:     []string{"actionId"},
		},
		{
			Name:         "slack",
			AccessMode:   AccessActionWrite,
			WritePolicy:  WriteActionsOnly,
			ReadIndices:  []string{mapping.IndexActions, mapping.IndexFindings},
			WriteIndices: []string{mapping.IndexActions},
			SortKeys:     []string{"actionId"},
		},
		{
			Name:         "search",
			AccessMode:   AccessReadOnly,
			WritePolicy:  WriteNone,
			ReadIndices:  allReadIndices,
			WriteIndices: nil,
			SortKeys:     []string{"findingId"},
		},
	}
	out := make(map[string]ToolSchema, len(schemas))
	for _, s := range schemas {
		out[s.Name] = s
	}
	return out
}

// ValidateSchemas checks the cross-rules spec §4.9 requires:
//   - READ_ONLY ⇒ writePolicy=NONE and no write indices
//   - ACTION_WRITE ⇒ writePolicy=ACTIONS_ONLY and writes only the actions index
//   - PIPELINE_WRITE ⇒ writePolicy=EPIC_PIPELINE_ONLY
//
// Violations are collected and returned sorted by tool name, never the
// first-found only.
func ValidateSchemas(schemas map[string]ToolSchema) []string {
	var violations []string
	for name, s := range schemas {
		switch s.AccessMode {
		case AccessReadOnly:
			if s.WritePolicy != WriteNone {
				violations = append(violations, fmt.Sprintf("%s: READ_ONLY tool must have writePolicy=NONE, got %s", name, s.WritePolicy))
			}
			if len(s.WriteIndices) != 0 {
				violations = append(violations, fmt.Sprintf("%s: READ_ONLY tool must declare no write indices", name))
			}
		case AccessActionWrite:
			if s.WritePolicy != WriteActionsOnly {
				violations = append(violations, fmt.Sprintf("%s: ACTION_WRITE tool must have writePolicy=ACTIONS_ONLY, got %s", name, s.WritePolicy))
			}
			for _, idx := range s.WriteIndices {
				if idx != mapping.IndexActions {
					violations = append(violations, fmt.Sprintf("%s: ACTION_WRITE tool must write only %s, got %s", name, mapping.IndexActions, idx))
				}
			}
		case AccessPipelineWrite:
			if s.WritePolicy != WriteEpicPipelineOnly {
				violations = append(violations, fmt.Sprintf("%s: PIPELINE_WRITE tool must have writePolicy=EPIC_PIPELINE_ONLY, got %s", name, s.WritePolicy))
			}
		default:
			violations = append(violations, fmt.Sprintf("%s: unrecognized accessMode %q", name, s.AccessMode))
		}
	}
	sort.Strings(violations)
	return violations
}
