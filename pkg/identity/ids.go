// Copyright 2025 WhiskeyLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package identity

import "fmt"

// Typed ID helpers hash a fixed set of defining fields per entity kind. None
// of these IDs carry a type prefix: downstream code relies on byte-for-byte
// equality between a derived ID and a stored idempotency/identity key (for
// example actionId == idempotencyKey), so the raw hex digest is returned
// unmodified.

// ArtifactID derives the bundle-file descriptor ID.
func ArtifactID(repo, buildID, runID, filename, checksum string) (string, error) {
	return Hash(map[string]any{
		"repo":     repo,
		"buildId":  buildID,
		"runId":    runID,
		"filename": filename,
		"checksum": checksum,
	})
}

// FindingID derives the finding ID. fingerprint must already be computed by
// the parser and MUST NOT depend on createdAt.
func FindingID(repo, buildID, fingerprint string) (string, error) {
	return Hash(map[string]any{
		"repo":        repo,
		"buildId":     buildID,
		"fingerprint": fingerprint,
	})
}

// DependencyID derives a dependency-edge ID. parent is "__root__" for direct
// dependencies.
func DependencyID(repo, buildID, parent, child, version, scope string) (string, error) {
	var versionVal any
	if version != "" {
		versionVal = version
	}
	return Hash(map[string]any{
		"repo":    repo,
		"buildId": buildID,
		"parent":  parent,
		"child":   child,
		"version": versionVal,
		"scope":   scope,
	})
}

// ComponentID derives an SBOM component ID from a purl or name+version pair.
func ComponentID(repo, buildID, purlOrName, version, scope string) (string, error) {
	return Hash(map[string]any{
		"repo":       repo,
		"buildId":    buildID,
		"purlOrName": purlOrName,
		"version":    version,
		"scope":      scope,
	})
}

// ReachabilityID derives the reachability-record ID. analysisVersion is part
// of the identity so that a future analysis revision does not collide with
// an earlier one for the same finding.
func ReachabilityID(findingID, analysisVersion string, inputs map[string]any) (string, error) {
	fields := map[string]any{
		"findingId":       findingID,
		"analysisVersion": analysisVersion,
	}
	for k, v := range inputs {
		fields[k] = v
	}
	return Hash(fields)
}

// IntelID returns the threat-intel document ID: the uppercased CVE string
// itself, not a hash. Callers must validate the CVE shape separately (see
// pkg/threatintel.ValidateCVE); IntelID performs no validation.
func IntelID(cve string) string {
	return upperASCII(cve)
}

func upperASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			b[i] = c - ('a' - 'A')
		}
	}
	return string(b)
}

// IdempotencyKey hashes a pipe-delimited "key=value" identity string, the
// same shape used for action idempotency keys in pkg/action.
func IdempotencyKey(parts ...[2]string) (string, error) {
	s := ""
	for i, p := range parts {
		if i > 0 {
			s += "|"
		}
		s += fmt.Sprintf("%s=%s", p[0], p[1])
	}
	return Hash(s)
}

// RunID derives a deterministic run identifier from a bundle ID, falling
// back to the bundle ID itself when no explicit run ID was supplied by the
// caller (acquire stage contract in spec §4.7).
func RunID(suppliedRunID, bundleID string) string {
	if suppliedRunID != "" {
		return suppliedRunID
	}
	return bundleID
}

// TaskID derives a per-stage task-log document ID.
func TaskID(runID, stage, taskKey string) (string, error) {
	return Hash(map[string]any{
		"runId":   runID,
		"stage":   stage,
		"taskKey": taskKey,
	})
}

// ExplanationID derives the scoring-explanation document ID.
func ExplanationID(findingID, explanationVersion string, inputs map[string]any) (string, error) {
	fields := map[string]any{
		"findingId":          findingID,
		"explanationVersion": explanationVersion,
	}
	for k, v := range inputs {
		fields[k] = v
	}
	return Hash(fields)
}

// BundleID derives the bundle ID from the sorted (filename, checksum) pairs
// of its artifacts. Callers must pre-sort entries by checksum ascending
// before calling, per the bundle manifest contract in spec §6.
func BundleID(entries [][2]string) (string, error) {
	list := make([]any, len(entries))
	for i, e := range entries {
		list[i] = map[string]any{"filename": e[0], "checksum": e[1]}
	}
	return Hash(list)
}
