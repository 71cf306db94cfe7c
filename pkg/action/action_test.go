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

import (
	"context"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whiskeylabs/argonaut/pkg/docstore"
)

var payloadHashPattern = regexp.MustCompile(`^[0-9a-f]{64}$`)

func findingA() FindingInput {
	reachable := true
	return FindingInput{
		FindingID: "finding-a", Repo: "acme", BuildID: "build-1",
		Severity: "CRITICAL", RuleID: "RULE-A", Package: "lodash", Version: "4.17.20",
		CVE: "CVE-2024-1111", PriorityScore: 75, Reachable: &reachable, KEV: true,
	}
}

func findingB() FindingInput {
	reachable := true
	return FindingInput{
		FindingID: "finding-b", Repo: "acme", BuildID: "build-1",
		Severity: "HIGH", RuleID: "RULE-B", Package: "axios", Version: "1.7.0",
		CVE: "CVE-2024-2222", PriorityScore: 35, Reachable: &reachable,
	}
}

// TestGenerateTicket_ScenarioB grounds spec Scenario B: two findings, first
// run at attempt=1 stores DRY_RUN_READY docs; a second run at attempt=2
// yields SKIPPED_DUPLICATE without mutating the stored attempt.
func TestGenerateTicket_ScenarioB(t *testing.T) {
	client := docstore.NewMemClient()
	gen := &Generator{Client: client}
	ctx := context.Background()

	for _, f := range []FindingInput{findingA(), findingB()} {
		result, err := gen.GenerateTicket(ctx, f, true, 1)
		require.NoError(t, err)
		assert.Equal(t, StatusDryRunReady, result.Status)
		assert.False(t, result.Duplicate)
		assert.Equal(t, result.IdempotencyKey, result.ActionID)
		assert.Regexp(t, payloadHashPattern, result.PayloadHash)
	}

	docs, err := client.List(ctx, ActionsIndex)
	require.NoError(t, err)
	assert.Len(t, docs, 2)

	for _, f := range []FindingInput{findingA(), findingB()} {
		result, err := gen.GenerateTicket(ctx, f, true, 2)
		require.NoError(t, err)
		assert.Equal(t, StatusSkippedDup, result.Status)
		assert.True(t, result.Duplicate)
		assert.Equal(t, 2, result.Attempt)
	}

	docsAfter, err := client.List(ctx, ActionsIndex)
	require.NoError(t, err)
	require.Len(t, docsAfter, 2)
	for _, d := range docsAfter {
		attempt, _ := d.Source["attempt"].(int)
		assert.Equal(t, 1, attempt, "stored attempt must remain the original, not the duplicate's")
	}
}

func TestGenerateTicket_RejectsNonDryRun(t *testing.T) {
	gen := &Generator{Client: docstore.NewMemClient()}
	_, err := gen.GenerateTicket(context.Background(), findingA(), false, 1)
	require.Error(t, err)
	var actionErr *Error
	require.ErrorAs(t, err, &actionErr)
	assert.Equal(t, ErrNotDryRun, actionErr.Code)
}

func TestGenerateTicket_RejectsNonPositiveAttempt(t *testing.T) {
	gen := &Generator{Client: docstore.NewMemClient()}
	_, err := gen.GenerateTicket(context.Background(), findingA(), true, 0)
	require.Error(t, err)
	var actionErr *Error
	require.ErrorAs(t, err, &actionErr)
	assert.Equal(t, ErrInvalidAttempt, actionErr.Code)
}

// TestChatSummaryKey_ScenarioC grounds spec Scenario C: the summary
// idempotency key is invariant under reversing the findings, but changes
// when topN changes from 2 to 1.
func TestChatSummaryKey_ScenarioC(t *testing.T) {
	forward, err := ChatTopNHash([]string{"finding-a", "finding-b"})
	require.NoError(t, err)
	reversedOrder, err := ChatTopNHash([]string{"finding-b", "finding-a"})
	require.NoError(t, err)
	assert.Equal(t, forward, reversedOrder, "topNHash is invariant under reversed input order")

	keyForward, err := ChatSummaryIdempotencyKey("acme", "build-1", forward)
	require.NoError(t, err)
	keyReversed, err := ChatSummaryIdempotencyKey("acme", "build-1", reversedOrder)
	require.NoError(t, err)
	assert.Equal(t, keyForward, keyReversed, "summary idempotency key is invariant under reversed finding order")

	topOne, err := ChatTopNHash([]string{"finding-a"})
	require.NoError(t, err)
	keyTopOne, err := ChatSummaryIdempotencyKey("acme", "build-1", topOne)
	require.NoError(t, err)
	assert.NotEqual(t, keyForward, keyTopOne, "changing topN from 2 to 1 changes the key")
}

func TestBuildChatSummaryPayload_WithinBlockBudget(t *testing.T) {
	payload, err := BuildChatSummaryPayload("acme", "build-1", []FindingInput{findingA(), findingB()})
	require.NoError(t, err)
	blocks, ok := payload["blocks"].([]any)
	require.True(t, ok)
	assert.LessOrEqual(t, len(blocks), maxSummaryBlocks)
}

func TestBuildChatSummaryPayload_ExceedsBudget(t *testing.T) {
	findings := make([]FindingInput, maxSummaryBlocks)
	for i := range findings {
		findings[i] = findingA()
	}
	_, err := BuildChatSummaryPayload("acme", "build-1", findings)
	require.Error(t, err)
	var actionErr *Error
	require.ErrorAs(t, err, &actionErr)
	assert.Equal(t, ErrBlockBudget, actionErr.Code)
}

func TestBuildChatThreadPayload_WithinBlockBudget(t *testing.T) {
	payload, err := BuildChatThreadPayload(findingA())
	require.NoError(t, err)
	blocks, ok := payload["blocks"].([]any)
	require.True(t, ok)
	assert.LessOrEqual(t, len(blocks), maxThreadBlocks)
}

func TestNormalizeMultiline_CRLFAndTrailingWhitespace(t *testing.T) {
	in := "line one  \r\nline two\t\r\nline three"
	out := normalizeMultiline(in)
	assert.Equal(t, "line one\nline two\nline three", out)
}
