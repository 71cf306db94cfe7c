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

import "context"

// GenerateTicket builds and persists (or deduplicates) a JIRA_CREATE
// action for one finding.
func (g *Generator) GenerateTicket(ctx context.Context, f FindingInput, dryRun bool, attempt int) (*Result, error) {
	key, err := TicketIdempotencyKey(f.Repo, f.BuildID, f.FindingID)
	if err != nil {
		return nil, err
	}
	payload := BuildTicketPayload(f)

	return g.Generate(ctx, Request{
		ActionID:       key,
		Type:           TypeJiraCreate,
		Repo:           f.Repo,
		BuildID:        f.BuildID,
		FindingIDs:     []string{f.FindingID},
		IdempotencyKey: key,
		DryRun:         dryRun,
		Attempt:        attempt,
		Payload:        payload,
	})
}

// GenerateChatSummary builds and persists (or deduplicates) a
// CHAT_SUMMARY action for a selected, ranked set of findings.
func (g *Generator) GenerateChatSummary(ctx context.Context, repo, buildID string, findings []FindingInput, dryRun bool, attempt int) (*Result, error) {
	ids := make([]string, len(findings))
	for i, f := range findings {
		ids[i] = f.FindingID
	}
	topNHash, err := ChatTopNHash(ids)
	if err != nil {
		return nil, err
	}
	key, err := ChatSummaryIdempotencyKey(repo, buildID, topNHash)
	if err != nil {
		return nil, err
	}
	payload, err := BuildChatSummaryPayload(repo, buildID, findings)
	if err != nil {
		return nil, err
	}

	return g.Generate(ctx, Request{
		ActionID:       key,
		Type:           TypeChatSummary,
		Repo:           repo,
		BuildID:        buildID,
		FindingIDs:     ids,
		IdempotencyKey: key,
		DryRun:         dryRun,
		Attempt:        attempt,
		Payload:        payload,
	})
}

// GenerateChatThread builds and persists (or deduplicates) a CHAT_THREAD
// action for one finding.
func (g *Generator) GenerateChatThread(ctx context.Context, f FindingInput, dryRun bool, attempt int) (*Result, error) {
	key, err := ChatThreadIdempotencyKey(f.Repo, f.BuildID, f.FindingID)
	if err != nil {
		return nil, err
	}
	payload, err := BuildChatThreadPayload(f)
	if err != nil {
		return nil, err
	}

	return g.Generate(ctx, Request{
		ActionID:       key,
		Type:           TypeChatThread,
		Repo:           f.Repo,
		BuildID:        f.BuildID,
		FindingIDs:     []string{f.FindingID},
		IdempotencyKey: key,
		DryRun:         dryRun,
		Attempt:        attempt,
		Payload:        payload,
	})
}
