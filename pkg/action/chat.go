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
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/slack-go/slack"

	"github.com/whiskeylabs/argonaut/pkg/identity"
)

const (
	maxSummaryBlocks = 12
	maxThreadBlocks  = 6
)

// ChatTopNHash derives the topNHash fed into the summary idempotency key: a
// hash over the selected finding IDs, sorted before joining so the hash is a
// function of the selected set, not the caller's selection order.
func ChatTopNHash(findingIDs []string) (string, error) {
	sorted := make([]string, len(findingIDs))
	copy(sorted, findingIDs)
	sort.Strings(sorted)
	return identity.Hash(strings.Join(sorted, "|"))
}

// ChatSummaryIdempotencyKey derives the CHAT_SUMMARY idempotency key. Because
// topNHash sorts its input, the key is invariant under reversing the order
// findingIDs were produced in, as long as the selected set and
// templateVersion match.
func ChatSummaryIdempotencyKey(repo, buildID, topNHash string) (string, error) {
	return identity.IdempotencyKey(
		[2]string{"type", TypeChatSummary},
		[2]string{"repo", repo},
		[2]string{"buildId", buildID},
		[2]string{"topNHash", topNHash},
		[2]string{"templateVersion", TemplateVersion},
	)
}

// ChatThreadIdempotencyKey derives the CHAT_THREAD idempotency key for one
// finding.
func ChatThreadIdempotencyKey(repo, buildID, findingID string) (string, error) {
	return identity.IdempotencyKey(
		[2]string{"type", TypeChatThread},
		[2]string{"repo", repo},
		[2]string{"buildId", buildID},
		[2]string{"findingId", findingID},
		[2]string{"templateVersion", TemplateVersion},
	)
}

// BuildChatSummaryPayload builds the SUMMARY payload: a header block plus
// one section block per finding. Exceeding maxSummaryBlocks is a hard
// error.
func BuildChatSummaryPayload(repo, buildID string, findings []FindingInput) (map[string]any, error) {
	blocks := []slack.Block{
		slack.NewHeaderBlock(slack.NewTextBlockObject(slack.PlainTextType,
			fmt.Sprintf("Argonaut priority summary: %s/%s", repo, buildID), false, false)),
	}
	for _, f := range findings {
		blocks = append(blocks, slack.NewSectionBlock(
			slack.NewTextBlockObject(slack.MarkdownType, summaryLine(f), false, false), nil, nil))
	}

	if len(blocks) > maxSummaryBlocks {
		return nil, &Error{Code: ErrBlockBudget, Message: fmt.Sprintf("chat summary exceeds %d blocks (got %d)", maxSummaryBlocks, len(blocks))}
	}

	return blocksToPayload(blocks)
}

// BuildChatThreadPayload builds the THREAD payload for one finding: a
// header, a rationale section, and a suggested-next-step section.
func BuildChatThreadPayload(f FindingInput) (map[string]any, error) {
	blocks := []slack.Block{
		slack.NewHeaderBlock(slack.NewTextBlockObject(slack.PlainTextType,
			fmt.Sprintf("%s (%s)", f.RuleID, f.FindingID), false, false)),
		slack.NewSectionBlock(
			slack.NewTextBlockObject(slack.MarkdownType, rationaleLine(f), false, false), nil, nil),
		slack.NewSectionBlock(
			slack.NewTextBlockObject(slack.MarkdownType, nextStepLine(f), false, false), nil, nil),
	}

	if len(blocks) > maxThreadBlocks {
		return nil, &Error{Code: ErrBlockBudget, Message: fmt.Sprintf("chat thread exceeds %d blocks (got %d)", maxThreadBlocks, len(blocks))}
	}

	return blocksToPayload(blocks)
}

func summaryLine(f FindingInput) string {
	return fmt.Sprintf("*%s* %s@%s — score %d (%s)", f.FindingID, f.Package, f.Version, f.PriorityScore, f.RuleID)
}

func rationaleLine(f FindingInput) string {
	cve := naIfEmpty(f.CVE)
	reachable := "N/A"
	if f.Reachable != nil {
		reachable = fmt.Sprintf("%t", *f.Reachable)
	}
	epss := "N/A"
	if f.EPSS != nil {
		epss = formatFloat(*f.EPSS)
	}
	return fmt.Sprintf("cve=%s kev=%t epss=%s reachable=%s score=%d", cve, f.KEV, epss, reachable, f.PriorityScore)
}

func nextStepLine(f FindingInput) string {
	if f.Reachable != nil && *f.Reachable {
		return fmt.Sprintf("Prioritize a fix for %s; it is reachable.", f.Package)
	}
	return fmt.Sprintf("Confirm reachability before prioritizing %s.", f.Package)
}

func naIfEmpty(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

// blocksToPayload marshals a slack.Blocks value into a canonical-JSON-safe
// tree (map[string]any / []any / string / float64 / bool / nil) so it can
// be hashed and persisted alongside the rest of the document store.
func blocksToPayload(blockSet []slack.Block) (map[string]any, error) {
	raw, err := json.Marshal(slack.Blocks{BlockSet: blockSet})
	if err != nil {
		return nil, err
	}
	var decoded struct {
		Blocks []any `json:"blocks"`
	}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, err
	}
	return map[string]any{"blocks": decoded.Blocks}, nil
}
