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
	"fmt"
	"strings"

	"github.com/whiskeylabs/argonaut/pkg/identity"
)

// TicketIdempotencyKey derives the JIRA_CREATE idempotency key.
func TicketIdempotencyKey(repo, buildID, findingID string) (string, error) {
	return identity.IdempotencyKey(
		[2]string{"type", TypeJiraCreate},
		[2]string{"repo", repo},
		[2]string{"buildId", buildID},
		[2]string{"findingId", findingID},
		[2]string{"templateVersion", TemplateVersion},
	)
}

// BuildTicketPayload builds the fixed-section ticket payload for one
// finding.
func BuildTicketPayload(f FindingInput) map[string]any {
	summary := fmt.Sprintf("[%s] %s@%s %s (%s)", f.Severity, f.Package, f.Version, f.RuleID, f.FindingID)

	labels := []string{"argonaut", "repo:" + f.Repo, "build:" + f.BuildID, "finding:" + f.FindingID}
	if f.CVE != "" {
		labels = append(labels, "cve:"+f.CVE)
	}
	if f.Reachable != nil {
		labels = append(labels, fmt.Sprintf("reachable:%t", *f.Reachable))
	}

	description := buildTicketDescription(f)

	return map[string]any{
		"summary":     summary,
		"description": description,
		"labels":      labels,
	}
}

func buildTicketDescription(f FindingInput) string {
	var b strings.Builder

	fmt.Fprintf(&b, "## Header\n")
	fmt.Fprintf(&b, "Finding %s in %s/%s (%s@%s, rule %s)\n\n", f.FindingID, f.Repo, f.BuildID, f.Package, f.Version, f.RuleID)

	fmt.Fprintf(&b, "## Evidence\n")
	if f.CVE != "" {
		fmt.Fprintf(&b, "CVE: %s\n", f.CVE)
	} else {
		fmt.Fprintf(&b, "CVE: N/A\n")
	}
	fmt.Fprintf(&b, "\n")

	fmt.Fprintf(&b, "## Reachability Context\n")
	if f.Reachable != nil {
		fmt.Fprintf(&b, "Reachable: %t\n", *f.Reachable)
		if f.ReachConfidence != nil {
			fmt.Fprintf(&b, "Confidence: %s\n", formatFloat(*f.ReachConfidence))
		} else {
			fmt.Fprintf(&b, "Confidence: N/A\n")
		}
		if len(f.EvidencePath) > 0 {
			fmt.Fprintf(&b, "Path: %s\n", strings.Join(f.EvidencePath, " -> "))
		} else {
			fmt.Fprintf(&b, "Path: N/A\n")
		}
	} else {
		fmt.Fprintf(&b, "Reachable: N/A\nConfidence: N/A\nPath: N/A\n")
	}
	fmt.Fprintf(&b, "\n")

	fmt.Fprintf(&b, "## Threat Context\n")
	fmt.Fprintf(&b, "KEV: %t\n", f.KEV)
	if f.EPSS != nil {
		fmt.Fprintf(&b, "EPSS: %s\n", formatFloat(*f.EPSS))
	} else {
		fmt.Fprintf(&b, "EPSS: N/A\n")
	}
	if f.ThreatSource != "" {
		fmt.Fprintf(&b, "Source: %s\n", f.ThreatSource)
	} else {
		fmt.Fprintf(&b, "Source: N/A\n")
	}
	fmt.Fprintf(&b, "\n")

	fmt.Fprintf(&b, "## Score and Explanation Context\n")
	fmt.Fprintf(&b, "Priority score: %d\n", f.PriorityScore)
	if len(f.ReasonCodes) > 0 {
		fmt.Fprintf(&b, "Reasons: %s\n", strings.Join(sortedStrings(f.ReasonCodes), ", "))
	} else {
		fmt.Fprintf(&b, "Reasons: N/A\n")
	}
	fmt.Fprintf(&b, "\n")

	fmt.Fprintf(&b, "## Suggested Next Step\n")
	if f.Reachable != nil && *f.Reachable {
		fmt.Fprintf(&b, "Upgrade %s past the vulnerable version; this path is reachable from the application entry point.\n", f.Package)
	} else {
		fmt.Fprintf(&b, "Review whether %s is actually exercised before prioritizing a fix.\n", f.Package)
	}

	return b.String()
}

func formatFloat(f float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.4f", f), "0"), ".")
}
