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

package action

import "fmt"

// TemplateVersion is mixed into every idempotency key; bumping it forks the
// key space for a future payload template revision.
const TemplateVersion = "1.0"

const (
	TypeJiraCreate  = "JIRA_CREATE"
	TypeChatSummary = "CHAT_SUMMARY"
	TypeChatThread  = "CHAT_THREAD"
)

const (
	StatusDryRunReady = "DRY_RUN_READY"
	StatusSkippedDup  = "SKIPPED_DUPLICATE"
)

// Error is a closed action-stage error.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string { return fmt.Sprintf("%s: %s", e.Code, e.Message) }

const (
	ErrNotDryRun      = "E_ACTION_WRITE_BLOCKED"
	ErrInvalidAttempt = "E_ACTION_INVALID_ATTEMPT"
	ErrBlockBudget    = "E_ACTION_BLOCK_BUDGET"
)

// FindingInput is the subset of an enriched, scored finding an action
// generator needs. Severity is expected upper-cased by the parser.
type FindingInput struct {
	FindingID       string
	Repo            string
	BuildID         string
	Severity        string
	RuleID          string
	Package         string
	Version         string
	CVE             string
	PriorityScore   int
	ReasonCodes     []string
	Reachable       *bool
	ReachConfidence *float64
	EvidencePath    []string
	ThreatSource    string
	KEV             bool
	EPSS            *float64
}

// Result is the outcome of generating one action.
type Result struct {
	ActionID       string
	IdempotencyKey string
	Status         string
	Duplicate      bool
	Attempt        int
	PayloadHash    string
	Payload        map[string]any
}

// Document is the persisted action document shape.
type Document struct {
	ActionID        string         `json:"actionId"`
	Type            string         `json:"type"`
	Repo            string         `json:"repo"`
	BuildID         string         `json:"buildId"`
	FindingIDs      []string       `json:"findingIds"`
	IdempotencyKey  string         `json:"idempotencyKey"`
	PayloadHash     string         `json:"payloadHash"`
	TemplateVersion string         `json:"templateVersion"`
	Attempt         int            `json:"attempt"`
	Status          string         `json:"status"`
	Payload         map[string]any `json:"payload"`
}
