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

// StageTrace is the record kept for one top-level stage execution.
type StageTrace struct {
	Name       string
	Attempt    int
	Status     string
	ErrorCode  string
	Message    string
	Counts     map[string]int
	KeyIDs     []string
	ToolCalls  []string
	StartedAt  int64
	FinishedAt int64
}

const (
	TraceSuccess = "SUCCESS"
	TraceFailed  = "FAILED"
	TraceSkipped = "SKIPPED"
)

// skippedTrace builds the trace for a stage that never ran because an
// earlier stage failed: attempt is always 0, per spec §4.9.
func skippedTrace(name string) StageTrace {
	return StageTrace{Name: name, Attempt: 0, Status: TraceSkipped}
}
